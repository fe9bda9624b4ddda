package orderstate

import (
	"fmt"

	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

type verdict int

const (
	// verdictAllow grants the transition without consulting the flow.
	verdictAllow verdict = iota
	// verdictCheckFlow defers to the payment-mode flow.
	verdictCheckFlow
)

// permissionCheck decides what a role may attempt for a non-cancel transition.
type permissionCheck func(t Transition) (verdict, error)

func defaultPolicies() map[enums.ActorRole]permissionCheck {
	return map[enums.ActorRole]permissionCheck{
		enums.ActorRoleAdmin:      allowAll,
		enums.ActorRoleSuperAdmin: allowAll,
		enums.ActorRoleVendor:     vendorTargets(enums.OrderStatusPacked, enums.OrderStatusShipped),
		enums.ActorRoleCustomer:   denyDirect,
		enums.ActorRoleSystem:     followFlow,
	}
}

func allowAll(Transition) (verdict, error) {
	return verdictAllow, nil
}

func followFlow(Transition) (verdict, error) {
	return verdictCheckFlow, nil
}

func denyDirect(t Transition) (verdict, error) {
	return verdictCheckFlow, pkgerrors.New(pkgerrors.CodeForbidden,
		fmt.Sprintf("%s may not set order status to %s", t.Role, t.Next))
}

func vendorTargets(targets ...enums.OrderStatus) permissionCheck {
	allowed := make(map[enums.OrderStatus]struct{}, len(targets))
	for _, target := range targets {
		allowed[target] = struct{}{}
	}
	return func(t Transition) (verdict, error) {
		if _, ok := allowed[t.Next]; !ok {
			return verdictCheckFlow, pkgerrors.New(pkgerrors.CodeForbidden,
				fmt.Sprintf("Vendors can only mark orders as PACKED or SHIPPED, not %s", t.Next))
		}
		return verdictCheckFlow, nil
	}
}

// cancelWindows lists, per role, the statuses from which that role may cancel.
var cancelWindows = map[enums.ActorRole]map[enums.OrderStatus]struct{}{
	enums.ActorRoleCustomer: statusSet(
		enums.OrderStatusCreated,
		enums.OrderStatusPendingPayment,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPaid,
	),
	enums.ActorRoleSystem: statusSet(
		enums.OrderStatusCreated,
		enums.OrderStatusPendingPayment,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPaid,
	),
	enums.ActorRoleVendor: statusSet(
		enums.OrderStatusCreated,
		enums.OrderStatusPendingPayment,
		enums.OrderStatusConfirmed,
		enums.OrderStatusPaid,
		enums.OrderStatusPacked,
	),
}

func checkCancellation(t Transition) error {
	if t.Role.IsAdmin() {
		return nil
	}
	window, ok := cancelWindows[t.Role]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %q may not cancel orders", t.Role))
	}
	if _, ok := window[t.Current]; !ok {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Order cannot be cancelled once it is %s", t.Current))
	}
	return nil
}

func statusSet(states ...enums.OrderStatus) map[enums.OrderStatus]struct{} {
	set := make(map[enums.OrderStatus]struct{}, len(states))
	for _, s := range states {
		set[s] = struct{}{}
	}
	return set
}
