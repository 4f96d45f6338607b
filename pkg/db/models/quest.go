package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bloomretail/bloom-backend/pkg/enums"
)

// Quest defines a reward template customers can start and complete.
type Quest struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string                `gorm:"column:name;not null"`
	Description       string                `gorm:"column:description"`
	Kind              enums.QuestKind       `gorm:"column:kind;type:quest_kind_enum;not null"`
	Difficulty        enums.QuestDifficulty `gorm:"column:difficulty;type:quest_difficulty_enum"`
	PointsReward      int                   `gorm:"column:points_reward;not null"`
	BadgeName         *string               `gorm:"column:badge_name"`
	DiscountPercent   *decimal.Decimal      `gorm:"column:discount_percent;type:numeric(5,2)"`
	NonFungibleReward bool                  `gorm:"column:non_fungible_reward;not null;default:false"`
	Requirements      json.RawMessage       `gorm:"column:requirements;type:jsonb"`
	IsActive          bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
