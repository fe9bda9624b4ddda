package enums

import "fmt"

// OrderStatus is the lifecycle state of a customer order.
type OrderStatus string

const (
	OrderStatusCreated         OrderStatus = "CREATED"
	OrderStatusPendingPayment  OrderStatus = "PENDING_PAYMENT"
	OrderStatusConfirmed       OrderStatus = "CONFIRMED"
	OrderStatusPaid            OrderStatus = "PAID"
	OrderStatusPacked          OrderStatus = "PACKED"
	OrderStatusShipped         OrderStatus = "SHIPPED"
	OrderStatusDelivered       OrderStatus = "DELIVERED"
	OrderStatusCancelled       OrderStatus = "CANCELLED"
	OrderStatusReturnRequested OrderStatus = "RETURN_REQUESTED"
	OrderStatusReplaced        OrderStatus = "REPLACED"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusPendingPayment,
	OrderStatusConfirmed,
	OrderStatusPaid,
	OrderStatusPacked,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
	OrderStatusReturnRequested,
	OrderStatusReplaced,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

// IsHardTerminal reports whether no further transition may leave the status.
func (o OrderStatus) IsHardTerminal() bool {
	switch o {
	case OrderStatusCancelled, OrderStatusReturnRequested, OrderStatusReplaced:
		return true
	}
	return false
}
