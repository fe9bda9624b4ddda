package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

// Repository defines persistence operations for the orders table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) (*models.Order, error)
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	CompareAndSetStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
	SetReturnReceived(ctx context.Context, orderID uuid.UUID, at time.Time) error
	List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}
