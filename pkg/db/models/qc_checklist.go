package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/enums"
)

// ReturnQCChecklist is the warehouse inspection of a returned order. One per order.
type ReturnQCChecklist struct {
	ID                    uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	OrderID               uuid.UUID                `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_return_qc_checklists_order_id"`
	VendorID              uuid.UUID                `gorm:"column:vendor_id;type:uuid;not null"`
	InspectorID           uuid.UUID                `gorm:"column:inspector_id;type:uuid;not null"`
	Variant               enums.QCChecklistVariant `gorm:"column:variant;type:text;not null"`
	IsBrandBoxIntact      bool                     `gorm:"column:is_brand_box_intact;not null;default:false"`
	IsProductIntact       bool                     `gorm:"column:is_product_intact;not null;default:false"`
	IsOriginalPackaging   bool                     `gorm:"column:is_original_packaging;not null;default:false"`
	IsUnused              bool                     `gorm:"column:is_unused;not null;default:false"`
	AllAccessoriesPresent bool                     `gorm:"column:all_accessories_present;not null;default:false"`
	HasPhysicalDamage     bool                     `gorm:"column:has_physical_damage;not null;default:false"`
	IMEIMatch             *bool                    `gorm:"column:imei_match"`
	MissingAccessories    []string                 `gorm:"column:missing_accessories;type:jsonb;serializer:json"`
	Images                []string                 `gorm:"column:images;type:jsonb;serializer:json"`
	Notes                 *string                  `gorm:"column:notes"`
	Status                enums.QCStatus           `gorm:"column:status;type:text;not null"`
	CreatedAt             time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt             time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}

func (q *ReturnQCChecklist) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
