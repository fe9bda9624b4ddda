package refunds

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, refund *models.Refund) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error)
	List(ctx context.Context, filters Filters) ([]models.Refund, string, error)
	StatusTotals(ctx context.Context, from, to *time.Time) ([]StatusTotal, error)
}

// StatusTotal is one row of the per-status aggregate.
type StatusTotal struct {
	Status enums.RefundStatus
	Count  int64
	Amount decimal.Decimal
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

func (r *repository) Create(ctx context.Context, refund *models.Refund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Refund, error) {
	var refund models.Refund
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&refund).Error; err != nil {
		return nil, err
	}
	return &refund, nil
}

func (r *repository) List(ctx context.Context, filters Filters) ([]models.Refund, string, error) {
	cursor, err := pagination.ParseCursor(filters.Cursor)
	if err != nil {
		return nil, "", err
	}
	query := applyRange(r.db.WithContext(ctx).Model(&models.Refund{}), filters.From, filters.To)
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Method != nil {
		query = query.Where("method = ?", *filters.Method)
	}
	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.OrderID != nil {
		query = query.Where("order_id = ?", *filters.OrderID)
	}

	var rows []models.Refund
	if err := query.Scopes(pagination.Keyset("created_at", cursor, filters.Limit)).Find(&rows).Error; err != nil {
		return nil, "", err
	}
	page, next := pagination.Trim(rows, filters.Limit, func(rf models.Refund) pagination.Cursor {
		return pagination.Cursor{CreatedAt: rf.CreatedAt, ID: rf.ID}
	})
	return page, next, nil
}

func (r *repository) StatusTotals(ctx context.Context, from, to *time.Time) ([]StatusTotal, error) {
	var rows []StatusTotal
	err := applyRange(r.db.WithContext(ctx).Model(&models.Refund{}), from, to).
		Select("status, COUNT(*) AS count, COALESCE(SUM(amount), 0) AS amount").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func applyRange(query *gorm.DB, from, to *time.Time) *gorm.DB {
	if from != nil {
		query = query.Where("created_at >= ?", *from)
	}
	if to != nil {
		query = query.Where("created_at <= ?", *to)
	}
	return query
}
