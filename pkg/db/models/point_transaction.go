package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/bloomretail/bloom-backend/pkg/enums"
)

// PointTransaction records an immutable points lifecycle event for a customer.
// Rows are append only; delta is positive for earns and negative for redeems.
type PointTransaction struct {
	ID          uuid.UUID                  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CustomerID  uuid.UUID                  `gorm:"column:customer_id;type:uuid;not null"`
	Delta       int                        `gorm:"column:delta;not null"`
	Kind        enums.PointTransactionKind `gorm:"column:kind;type:point_transaction_kind_enum;not null"`
	SourceType  enums.PointSource          `gorm:"column:source_type;type:point_source_enum;not null"`
	SourceID    *uuid.UUID                 `gorm:"column:source_id;type:uuid"`
	Description string                     `gorm:"column:description"`
	ExpiresAt   *time.Time                 `gorm:"column:expires_at"`
	CreatedAt   time.Time                  `gorm:"column:created_at;autoCreateTime"`
}
