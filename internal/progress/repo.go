package progress

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
)

// Repository exposes persistence helpers for quest progress rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, row *models.QuestProgress) error
	Get(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, status enums.QuestProgressStatus) ([]models.QuestProgress, error)
	MarkCompleted(ctx context.Context, customerID, questID uuid.UUID, now time.Time) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a progress repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, row *models.QuestProgress) error {
	return r.db.WithContext(ctx).Create(row).Error
}

func (r *repositoryImpl) Get(ctx context.Context, customerID, questID uuid.UUID) (*models.QuestProgress, error) {
	var row models.QuestProgress
	err := r.db.WithContext(ctx).
		First(&row, "customer_id = ? AND quest_id = ?", customerID, questID).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repositoryImpl) ListByCustomer(ctx context.Context, customerID uuid.UUID, status enums.QuestProgressStatus) ([]models.QuestProgress, error) {
	query := r.db.WithContext(ctx).
		Model(&models.QuestProgress{}).
		Where("customer_id = ?", customerID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var rows []models.QuestProgress
	if err := query.Order("started_at DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// MarkCompleted flips an in_progress row to completed. The status guard in the
// WHERE clause makes concurrent completions race safely: exactly one caller
// sees RowsAffected == 1.
func (r *repositoryImpl) MarkCompleted(ctx context.Context, customerID, questID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.QuestProgress{}).
		Where("customer_id = ? AND quest_id = ? AND status = ?", customerID, questID, enums.QuestProgressStatusInProgress).
		UpdateColumns(map[string]any{
			"status":       enums.QuestProgressStatusCompleted,
			"completed_at": now,
			"updated_at":   now,
		})
	return result.RowsAffected, result.Error
}
