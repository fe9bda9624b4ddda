package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderPackingProof is the vendor's packing video for an order. One per order.
type OrderPackingProof struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID `gorm:"column:order_id;type:uuid;not null;uniqueIndex:ux_order_packing_proofs_order_id"`
	VendorID         uuid.UUID `gorm:"column:vendor_id;type:uuid;not null"`
	UploadedByUserID uuid.UUID `gorm:"column:uploaded_by_user_id;type:uuid;not null"`
	VideoPath        string    `gorm:"column:video_path;not null"`
	VideoMime        string    `gorm:"column:video_mime;not null"`
	VideoSizeBytes   int64     `gorm:"column:video_size_bytes;not null"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (p *OrderPackingProof) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
