package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
)

// ListFilters describe the inputs supported by the admin orders list.
type ListFilters struct {
	Status      *enums.OrderStatus
	PaymentMode *enums.PaymentMode
	UserID      *uuid.UUID
	VendorID    *uuid.UUID
	DateFrom    *time.Time
	DateTo      *time.Time
}

// OrderList wraps the paginated orders plus the next page cursor.
type OrderList struct {
	Orders     []models.Order `json:"orders"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// UpdateStatusInput is a status change requested from the admin or vendor surface.
type UpdateStatusInput struct {
	OrderID       uuid.UUID
	Status        enums.OrderStatus
	ActorID       uuid.UUID
	ActorRole     enums.ActorRole
	VendorID      *uuid.UUID
	AllowOverride bool
	Reason        string
}
