package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/enums"
)

// ReturnRequest is a customer's replacement-only return against a delivered order.
type ReturnRequest struct {
	ID                    uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ReturnNumber          string             `gorm:"column:return_number;not null;uniqueIndex:ux_return_requests_return_number"`
	UserID                uuid.UUID          `gorm:"column:user_id;type:uuid;not null;index"`
	OrderID               uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	VendorID              uuid.UUID          `gorm:"column:vendor_id;type:uuid;not null;index"`
	Reason                enums.ReturnReason `gorm:"column:reason;type:text;not null"`
	Description           *string            `gorm:"column:description"`
	EvidenceImages        []string           `gorm:"column:evidence_images;type:jsonb;serializer:json"`
	EvidenceVideo         *string            `gorm:"column:evidence_video"`
	Status                enums.ReturnStatus `gorm:"column:status;type:text;not null;index"`
	RejectionReason       *string            `gorm:"column:rejection_reason"`
	ReplacementTrackingID *string            `gorm:"column:replacement_tracking_id"`
	Items                 []ReturnItem       `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
	Timeline              []ReturnTimeline   `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
	RequestedAt           time.Time          `gorm:"column:requested_at;autoCreateTime"`
	UpdatedAt             time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *ReturnRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// ReturnItem is one returned product line.
type ReturnItem struct {
	ID        uuid.UUID                 `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID  uuid.UUID                 `gorm:"column:return_id;type:uuid;not null;index"`
	ProductID uuid.UUID                 `gorm:"column:product_id;type:uuid;not null"`
	VariantID *uuid.UUID                `gorm:"column:variant_id;type:uuid"`
	Quantity  int                       `gorm:"column:quantity;not null"`
	Condition enums.ReturnItemCondition `gorm:"column:condition;type:text;not null"`
	Reason    *string                   `gorm:"column:reason"`
}

func (i *ReturnItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// ReturnTimeline is an append-only history entry for a return.
type ReturnTimeline struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID    uuid.UUID          `gorm:"column:return_id;type:uuid;not null;index"`
	Status      enums.ReturnStatus `gorm:"column:status;type:text;not null"`
	Action      string             `gorm:"column:action;not null"`
	PerformedBy enums.ActorRole    `gorm:"column:performed_by;type:text;not null"`
	ActorID     *uuid.UUID         `gorm:"column:actor_id;type:uuid"`
	Notes       *string            `gorm:"column:notes"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
}

func (t *ReturnTimeline) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// ReplacementOrder links a return to the zero-value order that replaces it.
// ReturnID is unique so at most one replacement exists per return.
type ReplacementOrder struct {
	ID              uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OriginalOrderID uuid.UUID `gorm:"column:original_order_id;type:uuid;not null;index"`
	ReturnID        uuid.UUID `gorm:"column:return_id;type:uuid;not null;uniqueIndex:ux_replacement_orders_return_id"`
	NewOrderID      uuid.UUID `gorm:"column:new_order_id;type:uuid;not null"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (r *ReplacementOrder) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
