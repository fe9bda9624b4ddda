package packingproof

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/risbow/risbow-backend/pkg/db/models"
)

// Repository persists packing proofs. An order has at most one.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Upsert(ctx context.Context, proof *models.OrderPackingProof) (*models.OrderPackingProof, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.OrderPackingProof, error)
	ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// Upsert replaces the video metadata when the order already has a proof.
func (r *repository) Upsert(ctx context.Context, proof *models.OrderPackingProof) (*models.OrderPackingProof, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"vendor_id",
				"uploaded_by_user_id",
				"video_path",
				"video_mime",
				"video_size_bytes",
				"updated_at",
			}),
		}).
		Create(proof).Error
	if err != nil {
		return nil, err
	}
	return r.FindByOrderID(ctx, proof.OrderID)
}

func (r *repository) FindByOrderID(ctx context.Context, orderID uuid.UUID) (*models.OrderPackingProof, error) {
	var proof models.OrderPackingProof
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&proof).Error; err != nil {
		return nil, err
	}
	return &proof, nil
}

func (r *repository) ExistsForOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.OrderPackingProof{}).
		Where("order_id = ?", orderID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
