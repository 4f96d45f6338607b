package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/pkg/enums"
)

// QuestProgress tracks one customer's run at one quest. A (customer, quest)
// pair has at most one row; completion is terminal.
type QuestProgress struct {
	ID          uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID                 `gorm:"column:customer_id;type:uuid;not null"`
	QuestID     uuid.UUID                 `gorm:"column:quest_id;type:uuid;not null"`
	Status      enums.QuestProgressStatus `gorm:"column:status;type:quest_progress_status_enum;not null"`
	Progress    json.RawMessage           `gorm:"column:progress;type:jsonb"`
	StartedAt   time.Time                 `gorm:"column:started_at;autoCreateTime"`
	CompletedAt *time.Time                `gorm:"column:completed_at"`
	UpdatedAt   time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the GORM default pluralisation.
func (QuestProgress) TableName() string {
	return "quest_progress"
}
