package quests

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
	"github.com/bloomretail/bloom-backend/pkg/pagination"
)

// Service defines quest catalog administration and browsing.
type Service interface {
	Create(ctx context.Context, params CreateParams) (*models.Quest, error)
	Get(ctx context.Context, questID uuid.UUID) (*models.Quest, error)
	ListActive(ctx context.Context, params ListParams) (*ListResult, error)
	ListAll(ctx context.Context, params ListParams) (*ListResult, error)
	Update(ctx context.Context, questID uuid.UUID, params UpdateParams) (*models.Quest, error)
	Deactivate(ctx context.Context, questID uuid.UUID) error
	HardDelete(ctx context.Context, questID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo Repository
	tx   txRunner
	logg *logger.Logger
}

// CreateParams carries a new quest definition.
type CreateParams struct {
	Name              string
	Description       string
	Kind              enums.QuestKind
	Difficulty        enums.QuestDifficulty
	PointsReward      int
	BadgeName         *string
	DiscountPercent   *decimal.Decimal
	NonFungibleReward bool
	Requirements      json.RawMessage
}

// UpdateParams carries partial quest updates; nil fields are untouched.
type UpdateParams struct {
	Name            *string
	Description     *string
	Difficulty      *enums.QuestDifficulty
	PointsReward    *int
	BadgeName       *string
	DiscountPercent *decimal.Decimal
	Requirements    json.RawMessage
	IsActive        *bool
}

// ListParams configures filtering and pagination for quest listings.
type ListParams struct {
	Kind       enums.QuestKind
	Difficulty enums.QuestDifficulty
	Limit      int
	Cursor     string
}

// ListResult wraps returned quests and the cursor for the next page.
type ListResult struct {
	Items  []models.Quest `json:"items"`
	Cursor string         `json:"cursor"`
}

// NewService wires quest catalog dependencies.
func NewService(repo Repository, tx txRunner, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quests repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, tx: tx, logg: logg}, nil
}

func (s *service) Create(ctx context.Context, params CreateParams) (*models.Quest, error) {
	if params.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quest name required")
	}
	if !params.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quest kind")
	}
	if params.Difficulty != "" && !params.Difficulty.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quest difficulty")
	}
	if params.PointsReward < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points reward must not be negative")
	}
	if err := validateDiscount(params.DiscountPercent); err != nil {
		return nil, err
	}

	quest := &models.Quest{
		ID:                uuid.New(),
		Name:              params.Name,
		Description:       params.Description,
		Kind:              params.Kind,
		Difficulty:        params.Difficulty,
		PointsReward:      params.PointsReward,
		BadgeName:         params.BadgeName,
		DiscountPercent:   params.DiscountPercent,
		NonFungibleReward: params.NonFungibleReward,
		Requirements:      params.Requirements,
		IsActive:          true,
	}
	if err := s.repo.Create(ctx, quest); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create quest")
	}

	s.logg.Info(s.logg.WithQuestID(ctx, quest.ID.String()), "quest created")
	return quest, nil
}

func (s *service) Get(ctx context.Context, questID uuid.UUID) (*models.Quest, error) {
	if questID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quest id required")
	}
	quest, err := s.repo.GetByID(ctx, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quest not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get quest")
	}
	return quest, nil
}

func (s *service) ListActive(ctx context.Context, params ListParams) (*ListResult, error) {
	return s.list(ctx, params, true)
}

func (s *service) ListAll(ctx context.Context, params ListParams) (*ListResult, error) {
	return s.list(ctx, params, false)
}

func (s *service) list(ctx context.Context, params ListParams, activeOnly bool) (*ListResult, error) {
	if params.Kind != "" && !params.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quest kind")
	}
	if params.Difficulty != "" && !params.Difficulty.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quest difficulty")
	}

	query := ListQuestsParams{
		ActiveOnly: activeOnly,
		Kind:       params.Kind,
		Difficulty: params.Difficulty,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.List(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quests")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &ListResult{Items: rows, Cursor: cursor}, nil
}

func (s *service) Update(ctx context.Context, questID uuid.UUID, params UpdateParams) (*models.Quest, error) {
	if questID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quest id required")
	}

	updates := map[string]any{}
	if params.Name != nil {
		if *params.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quest name required")
		}
		updates["name"] = *params.Name
	}
	if params.Description != nil {
		updates["description"] = *params.Description
	}
	if params.Difficulty != nil {
		if !params.Difficulty.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid quest difficulty")
		}
		updates["difficulty"] = *params.Difficulty
	}
	if params.PointsReward != nil {
		if *params.PointsReward < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "points reward must not be negative")
		}
		updates["points_reward"] = *params.PointsReward
	}
	if params.BadgeName != nil {
		updates["badge_name"] = *params.BadgeName
	}
	if params.DiscountPercent != nil {
		if err := validateDiscount(params.DiscountPercent); err != nil {
			return nil, err
		}
		updates["discount_percent"] = *params.DiscountPercent
	}
	if params.Requirements != nil {
		updates["requirements"] = params.Requirements
	}
	if params.IsActive != nil {
		updates["is_active"] = *params.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()

	affected, err := s.repo.Update(ctx, questID, updates)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update quest")
	}
	if affected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quest not found")
	}

	return s.Get(ctx, questID)
}

func (s *service) Deactivate(ctx context.Context, questID uuid.UUID) error {
	if questID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quest id required")
	}

	affected, err := s.repo.Deactivate(ctx, questID, time.Now().UTC())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate quest")
	}
	if affected > 0 {
		s.logg.Info(s.logg.WithQuestID(ctx, questID.String()), "quest deactivated")
		return nil
	}

	// Zero rows means the quest is missing or already inactive.
	if _, err := s.Get(ctx, questID); err != nil {
		return err
	}
	return pkgerrors.New(pkgerrors.CodeStateConflict, "quest already inactive")
}

func (s *service) HardDelete(ctx context.Context, questID uuid.UUID) error {
	if questID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "quest id required")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		count, err := repo.CountProgress(ctx, questID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count quest progress")
		}
		if count > 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "quest has recorded progress")
		}

		affected, err := repo.HardDelete(ctx, questID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete quest")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeNotFound, "quest not found")
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logg.Info(s.logg.WithQuestID(ctx, questID.String()), "quest deleted")
	return nil
}

func validateDiscount(discount *decimal.Decimal) error {
	if discount == nil {
		return nil
	}
	if discount.IsNegative() || discount.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	return nil
}
