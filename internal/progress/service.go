package progress

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/internal/quests"
	"github.com/bloomretail/bloom-backend/pkg/db"
	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	pkgerrors "github.com/bloomretail/bloom-backend/pkg/errors"
	"github.com/bloomretail/bloom-backend/pkg/logger"
)

// Service tracks the customer side of quests: starting them and listing runs.
// Completion is owned by the award engine so the state flip and the points
// award commit together.
type Service interface {
	StartQuest(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error)
	Get(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, status enums.QuestProgressStatus) ([]models.QuestProgress, error)
}

type service struct {
	repo   Repository
	quests quests.Service
	logg   *logger.Logger
}

// NewService wires progress tracking dependencies.
func NewService(repo Repository, questSvc quests.Service, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "progress repository required")
	}
	if questSvc == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "quests service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "logger required")
	}
	return &service{repo: repo, quests: questSvc, logg: logg}, nil
}

func (s *service) StartQuest(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if questID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quest id required")
	}

	quest, err := s.quests.Get(ctx, questID)
	if err != nil {
		return nil, err
	}
	if !quest.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quest not found")
	}

	row := &models.QuestProgress{
		ID:         uuid.New(),
		CustomerID: customerID,
		QuestID:    questID,
		Status:     enums.QuestProgressStatusInProgress,
	}
	if err := s.repo.Create(ctx, row); err != nil {
		if db.IsUniqueViolation(err, "uniq_quest_progress_customer_quest") {
			// Already started; return the existing run instead of failing.
			existing, getErr := s.repo.Get(ctx, customerID, questID)
			if getErr != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "load existing progress")
			}
			return existing, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start quest")
	}

	ctx = s.logg.WithQuestID(s.logg.WithCustomerID(ctx, customerID.String()), questID.String())
	s.logg.Info(ctx, "quest started")
	return row, nil
}

func (s *service) Get(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error) {
	if customerID == uuid.Nil || questID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id and quest id required")
	}
	row, err := s.repo.Get(ctx, customerID, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "quest progress not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "get quest progress")
	}
	return row, nil
}

func (s *service) ListByCustomer(ctx context.Context, customerID uuid.UUID, status enums.QuestProgressStatus) ([]models.QuestProgress, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer id required")
	}
	if status != "" && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid progress status")
	}

	rows, err := s.repo.ListByCustomer(ctx, customerID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list quest progress")
	}
	return rows, nil
}
