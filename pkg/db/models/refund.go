package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/enums"
)

// Refund is read-mostly; new rows only come from the admin override path.
type Refund struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	UserID          uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	ReturnRequestID *uuid.UUID         `gorm:"column:return_request_id;type:uuid"`
	Status          enums.RefundStatus `gorm:"column:status;type:text;not null;index"`
	Method          enums.RefundMethod `gorm:"column:method;type:text;not null"`
	Amount          decimal.Decimal    `gorm:"column:amount;type:numeric(12,2);not null"`
	TransactionID   *string            `gorm:"column:transaction_id"`
	Reason          *string            `gorm:"column:reason"`
	ProcessedBy     *uuid.UUID         `gorm:"column:processed_by;type:uuid"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	ProcessedAt     *time.Time         `gorm:"column:processed_at"`
}

func (r *Refund) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
