package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/enums"
)

// OrderItemSnapshot freezes a purchased line at checkout time.
type OrderItemSnapshot struct {
	ProductID uuid.UUID       `json:"productId"`
	VariantID *uuid.UUID      `json:"variantId,omitempty"`
	VendorID  uuid.UUID       `json:"vendorId"`
	Name      string          `json:"name,omitempty"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// OrderItems is the immutable item snapshot stored on an order.
type OrderItems []OrderItemSnapshot

// VendorIDs returns the distinct vendors represented in the snapshot.
func (items OrderItems) VendorIDs() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item.VendorID]; ok {
			continue
		}
		seen[item.VendorID] = struct{}{}
		ids = append(ids, item.VendorID)
	}
	return ids
}

// HasVendor reports whether vendorID supplied at least one line.
func (items OrderItems) HasVendor(vendorID uuid.UUID) bool {
	for _, item := range items {
		if item.VendorID == vendorID {
			return true
		}
	}
	return false
}

// Order is a customer purchase. Status only moves through the state validator.
type Order struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	VendorID         uuid.UUID         `gorm:"column:vendor_id;type:uuid;not null;index"`
	Status           enums.OrderStatus `gorm:"column:status;type:text;not null"`
	PaymentMode      enums.PaymentMode `gorm:"column:payment_mode;type:text;not null"`
	TotalAmount      decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Items            OrderItems        `gorm:"column:items_snapshot;type:jsonb;serializer:json;not null"`
	AddressID        uuid.UUID         `gorm:"column:address_id;type:uuid;not null"`
	RoomID           *uuid.UUID        `gorm:"column:room_id;type:uuid"`
	IsReplacement    bool              `gorm:"column:is_replacement;not null;default:false"`
	ReturnReceivedAt *time.Time        `gorm:"column:return_received_at"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
