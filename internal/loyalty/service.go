package loyalty

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/internal/progress"
	"github.com/bloomretail/bloom-backend/internal/quests"
	"github.com/bloomretail/bloom-backend/internal/tiers"
	"github.com/bloomretail/bloom-backend/pkg/db"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
	"github.com/bloomretail/bloom-backend/pkg/metrics"
	"github.com/bloomretail/bloom-backend/pkg/pagination"
)

const sourceConstraint = "uniq_point_transactions_source"

// Service is the award engine: every mutation of a customer's points runs
// through here so the ledger row and the balance snapshot commit together.
type Service interface {
	Earn(ctx context.Context, params EarnParams) (*models.Balance, error)
	Redeem(ctx context.Context, params RedeemParams) (*models.Balance, error)
	CompleteQuest(ctx context.Context, customerID, questID uuid.UUID) (*CompleteQuestResult, error)
	GetBalance(ctx context.Context, customerID uuid.UUID) (*models.Balance, error)
	ListTransactions(ctx context.Context, params ListTransactionsParams) (*TransactionList, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	repo         Repository
	questRepo    quests.Repository
	progressRepo progress.Repository
	tx           txRunner
	awardMetrics *metrics.AwardMetrics
	logg         *logger.Logger
}

// EarnParams describes a positive points award.
type EarnParams struct {
	CustomerID  uuid.UUID
	Points      int
	SourceType  enums.PointSource
	SourceID    *uuid.UUID
	Description string
	ExpiresAt   *time.Time
}

// RedeemParams describes spending points from the current balance.
type RedeemParams struct {
	CustomerID  uuid.UUID
	Points      int
	Description string
}

// CompleteQuestResult carries the awarded state plus any secondary rewards
// attached to the quest definition.
type CompleteQuestResult struct {
	Balance           *models.Balance  `json:"balance"`
	PointsAwarded     int              `json:"points_awarded"`
	BadgeName         *string          `json:"badge_name,omitempty"`
	DiscountPercent   *decimal.Decimal `json:"discount_percent,omitempty"`
	NonFungibleReward bool             `json:"non_fungible_reward"`
}

// ListTransactionsParams configures the ledger history query.
type ListTransactionsParams struct {
	CustomerID uuid.UUID
	Limit      int
	Cursor     string
}

// TransactionList wraps returned ledger rows and the cursor for the next page.
type TransactionList struct {
	Items  []models.PointTransaction `json:"items"`
	Cursor string                    `json:"cursor"`
}

// NewService wires the award engine dependencies.
func NewService(
	repo Repository,
	questRepo quests.Repository,
	progressRepo progress.Repository,
	tx txRunner,
	awardMetrics *metrics.AwardMetrics,
	logg *logger.Logger,
) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "loyalty repository required")
	}
	if questRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quests repository required")
	}
	if progressRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "progress repository required")
	}
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "transaction runner required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{
		repo:         repo,
		questRepo:    questRepo,
		progressRepo: progressRepo,
		tx:           tx,
		awardMetrics: awardMetrics,
		logg:         logg,
	}, nil
}

func (s *service) Earn(ctx context.Context, params EarnParams) (*models.Balance, error) {
	if err := validateEarn(params); err != nil {
		return nil, err
	}

	var balance *models.Balance
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		balance, applyErr = s.applyEarn(ctx, s.repo.WithTx(tx), params)
		return applyErr
	})
	if err != nil {
		s.awardMetrics.IncFailure(string(pkgerrors.CodeOf(err)))
		return nil, err
	}

	s.awardMetrics.IncAwarded(string(params.SourceType), params.Points)
	ctx = s.logg.WithCustomerID(ctx, params.CustomerID.String())
	s.logg.Info(s.logg.WithField(ctx, "points", params.Points), "points earned")
	return balance, nil
}

func (s *service) Redeem(ctx context.Context, params RedeemParams) (*models.Balance, error) {
	if params.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if params.Points <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}

	now := time.Now().UTC()
	var balance *models.Balance
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		current, err := repo.GetBalanceForUpdate(ctx, params.CustomerID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "balance not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock balance")
		}
		if current.CurrentPoints < params.Points {
			return pkgerrors.New(pkgerrors.CodeInsufficientBalance, "insufficient points balance").
				WithDetails(map[string]any{
					"available": current.CurrentPoints,
					"requested": params.Points,
				})
		}

		txn := &models.PointTransaction{
			ID:          uuid.New(),
			CustomerID:  params.CustomerID,
			Delta:       -params.Points,
			Kind:        enums.PointTransactionKindRedeemed,
			SourceType:  enums.PointSourceManual,
			Description: params.Description,
		}
		if err := repo.CreateTransaction(ctx, txn); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record redemption")
		}

		current.CurrentPoints -= params.Points
		current.LastActivityAt = &now
		current.UpdatedAt = now
		if err := repo.SaveBalance(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save balance")
		}
		balance = current
		return nil
	})
	if err != nil {
		s.awardMetrics.IncFailure(string(pkgerrors.CodeOf(err)))
		return nil, err
	}

	s.awardMetrics.IncRedeemed(params.Points)
	ctx = s.logg.WithCustomerID(ctx, params.CustomerID.String())
	s.logg.Info(s.logg.WithField(ctx, "points", params.Points), "points redeemed")
	return balance, nil
}

func (s *service) CompleteQuest(ctx context.Context, customerID, questID uuid.UUID) (*CompleteQuestResult, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if questID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quest id required")
	}

	now := time.Now().UTC()
	var result *CompleteQuestResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		questRepo := s.questRepo.WithTx(tx)
		progressRepo := s.progressRepo.WithTx(tx)

		quest, err := questRepo.GetByID(ctx, questID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "quest not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get quest")
		}

		affected, err := progressRepo.MarkCompleted(ctx, customerID, questID, now)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete quest progress")
		}
		if affected == 0 {
			if _, getErr := progressRepo.Get(ctx, customerID, questID); getErr != nil {
				if errors.Is(getErr, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, "quest not started")
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "get quest progress")
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "quest already completed")
		}

		result = &CompleteQuestResult{
			PointsAwarded:     quest.PointsReward,
			BadgeName:         quest.BadgeName,
			DiscountPercent:   quest.DiscountPercent,
			NonFungibleReward: quest.NonFungibleReward,
		}

		if quest.PointsReward == 0 {
			// Nothing to ledger; surface the current balance if one exists.
			balance, getErr := repo.GetBalance(ctx, customerID)
			if getErr != nil && !errors.Is(getErr, gorm.ErrRecordNotFound) {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "get balance")
			}
			result.Balance = balance
			return nil
		}

		sourceID := quest.ID
		balance, err := s.applyEarn(ctx, repo, EarnParams{
			CustomerID:  customerID,
			Points:      quest.PointsReward,
			SourceType:  enums.PointSourceQuest,
			SourceID:    &sourceID,
			Description: quest.Name,
		})
		if err != nil {
			return err
		}
		result.Balance = balance
		return nil
	})
	if err != nil {
		s.awardMetrics.IncFailure(string(pkgerrors.CodeOf(err)))
		return nil, err
	}

	s.awardMetrics.IncQuestCompleted()
	if result.PointsAwarded > 0 {
		s.awardMetrics.IncAwarded(string(enums.PointSourceQuest), result.PointsAwarded)
	}
	ctx = s.logg.WithQuestID(s.logg.WithCustomerID(ctx, customerID.String()), questID.String())
	s.logg.Info(s.logg.WithField(ctx, "points", result.PointsAwarded), "quest completed")
	return result, nil
}

func (s *service) GetBalance(ctx context.Context, customerID uuid.UUID) (*models.Balance, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	balance, err := s.repo.GetBalance(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "balance not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get balance")
	}
	return balance, nil
}

func (s *service) ListTransactions(ctx context.Context, params ListTransactionsParams) (*TransactionList, error) {
	if params.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}

	query := listTransactionsParams{
		CustomerID: params.CustomerID,
		Limit:      params.Limit,
	}
	if params.Cursor != "" {
		cursor, err := pagination.ParseCursor(params.Cursor)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
		}
		query.Cursor = cursor
	}

	rows, next, err := s.repo.ListTransactions(ctx, query)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions")
	}

	cursor := ""
	if next != nil {
		cursor = pagination.EncodeCursor(*next)
	}
	return &TransactionList{Items: rows, Cursor: cursor}, nil
}

// applyEarn records the ledger row and rolls the balance snapshot forward.
// Must run inside a transaction: repo is expected to be tx-bound.
func (s *service) applyEarn(ctx context.Context, repo Repository, params EarnParams) (*models.Balance, error) {
	now := time.Now().UTC()

	balance, err := repo.GetBalanceForUpdate(ctx, params.CustomerID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock balance")
		}
		seed := &models.Balance{
			CustomerID: params.CustomerID,
			Tier:       enums.TierBronze,
		}
		if createErr := repo.CreateBalance(ctx, seed); createErr != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, createErr, "create balance")
		}
		// The insert is ON CONFLICT DO NOTHING, so a concurrent first earn may
		// have won the insert race. Lock the surviving row either way.
		balance, err = repo.GetBalanceForUpdate(ctx, params.CustomerID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lock balance")
		}
	}

	txn := &models.PointTransaction{
		ID:          uuid.New(),
		CustomerID:  params.CustomerID,
		Delta:       params.Points,
		Kind:        enums.PointTransactionKindEarned,
		SourceType:  params.SourceType,
		SourceID:    params.SourceID,
		Description: params.Description,
		ExpiresAt:   params.ExpiresAt,
	}
	if err := repo.CreateTransaction(ctx, txn); err != nil {
		if db.IsUniqueViolation(err, sourceConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "points already awarded for this source")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record award")
	}

	balance.CurrentPoints += params.Points
	balance.LifetimePoints += params.Points
	balance.Tier = tiers.TierOf(balance.LifetimePoints)
	balance.LastActivityAt = &now
	balance.UpdatedAt = now
	if err := repo.SaveBalance(ctx, balance); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save balance")
	}
	return balance, nil
}

func validateEarn(params EarnParams) error {
	if params.CustomerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if params.Points <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "points must be positive")
	}
	if !params.SourceType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid point source")
	}
	return nil
}
