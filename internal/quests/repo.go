package quests

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/bloomretail/bloom-backend/pkg/db/models"
	"github.com/bloomretail/bloom-backend/pkg/enums"
	"github.com/bloomretail/bloom-backend/pkg/pagination"
)

// Repository exposes persistence helpers for quest definitions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, quest *models.Quest) error
	GetByID(ctx context.Context, questID uuid.UUID) (*models.Quest, error)
	List(ctx context.Context, params ListQuestsParams) ([]models.Quest, *pagination.Cursor, error)
	Update(ctx context.Context, questID uuid.UUID, updates map[string]any) (int64, error)
	Deactivate(ctx context.Context, questID uuid.UUID, now time.Time) (int64, error)
	HardDelete(ctx context.Context, questID uuid.UUID) (int64, error)
	CountProgress(ctx context.Context, questID uuid.UUID) (int64, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a quests repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type ListQuestsParams struct {
	ActiveOnly bool
	Kind       enums.QuestKind
	Difficulty enums.QuestDifficulty
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, quest *models.Quest) error {
	return r.db.WithContext(ctx).Create(quest).Error
}

func (r *repositoryImpl) GetByID(ctx context.Context, questID uuid.UUID) (*models.Quest, error) {
	var quest models.Quest
	if err := r.db.WithContext(ctx).First(&quest, "id = ?", questID).Error; err != nil {
		return nil, err
	}
	return &quest, nil
}

func (r *repositoryImpl) List(ctx context.Context, params ListQuestsParams) ([]models.Quest, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Quest{})
	if params.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if params.Kind != "" {
		query = query.Where("kind = ?", params.Kind)
	}
	if params.Difficulty != "" {
		query = query.Where("difficulty = ?", params.Difficulty)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var quests []models.Quest
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&quests).Error; err != nil {
		return nil, nil, err
	}

	if len(quests) > normalized {
		next := quests[normalized]
		quests = quests[:normalized]
		return quests, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return quests, nil, nil
}

func (r *repositoryImpl) Update(ctx context.Context, questID uuid.UUID, updates map[string]any) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Quest{}).
		Where("id = ?", questID).
		Updates(updates)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) Deactivate(ctx context.Context, questID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Quest{}).
		Where("id = ? AND is_active = ?", questID, true).
		UpdateColumns(map[string]any{"is_active": false, "updated_at": now})
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) HardDelete(ctx context.Context, questID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).Delete(&models.Quest{}, "id = ?", questID)
	return result.RowsAffected, result.Error
}

func (r *repositoryImpl) CountProgress(ctx context.Context, questID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.QuestProgress{}).
		Where("quest_id = ?", questID).
		Count(&count).Error
	return count, err
}
