package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/pkg/enums"
)

// Balance is the derived per-customer points snapshot. The transaction ledger
// is the source of truth; this row is rebuilt from it during reconciliation.
type Balance struct {
	CustomerID     uuid.UUID  `gorm:"column:customer_id;type:uuid;primaryKey"`
	CurrentPoints  int        `gorm:"column:current_points;not null"`
	LifetimePoints int        `gorm:"column:lifetime_points;not null"`
	Tier           enums.Tier `gorm:"column:tier;type:tier_enum;not null"`
	LastActivityAt *time.Time `gorm:"column:last_activity_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the GORM default pluralisation.
func (Balance) TableName() string {
	return "balances"
}
