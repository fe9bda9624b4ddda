package payloads

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/risbow/risbow-backend/pkg/enums"
)

// OrderStatusChangedEvent is emitted for every persisted order transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
	PaymentMode enums.PaymentMode `json:"payment_mode"`
	ActorRole   enums.ActorRole   `json:"actor_role"`
	Override    bool              `json:"override"`
	Reason      string            `json:"reason,omitempty"`
}

// ReplacementOrderCreatedEvent links a return to its zero-value replacement order.
type ReplacementOrderCreatedEvent struct {
	ReturnID        uuid.UUID `json:"return_id"`
	OriginalOrderID uuid.UUID `json:"original_order_id"`
	NewOrderID      uuid.UUID `json:"new_order_id"`
}

// ReturnRequestedEvent is emitted when a customer opens a return.
type ReturnRequestedEvent struct {
	ReturnID     uuid.UUID          `json:"return_id"`
	ReturnNumber string             `json:"return_number"`
	OrderID      uuid.UUID          `json:"order_id"`
	VendorID     uuid.UUID          `json:"vendor_id"`
	Reason       enums.ReturnReason `json:"reason"`
}

// ReturnStatusChangedEvent is emitted for every return transition.
type ReturnStatusChangedEvent struct {
	ReturnID uuid.UUID          `json:"return_id"`
	OrderID  uuid.UUID          `json:"order_id"`
	From     enums.ReturnStatus `json:"from"`
	To       enums.ReturnStatus `json:"to"`
}

// PackingProofUploadedEvent is emitted once a vendor's packing video is stored.
type PackingProofUploadedEvent struct {
	OrderID  uuid.UUID `json:"order_id"`
	ProofID  uuid.UUID `json:"proof_id"`
	VendorID uuid.UUID `json:"vendor_id"`
	Path     string    `json:"path"`
}

// RefundOverrideAppliedEvent is emitted when an admin forces a refund past the policy block.
type RefundOverrideAppliedEvent struct {
	RefundID uuid.UUID          `json:"refund_id"`
	OrderID  uuid.UUID          `json:"order_id"`
	Amount   decimal.Decimal    `json:"amount"`
	Method   enums.RefundMethod `json:"method"`
	Reason   string             `json:"reason"`
}
