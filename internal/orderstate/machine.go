// Package orderstate decides and applies order status transitions.
package orderstate

import (
	"fmt"

	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

// Transition is a requested status change evaluated by the Machine.
type Transition struct {
	Current     enums.OrderStatus
	Next        enums.OrderStatus
	Role        enums.ActorRole
	PaymentMode enums.PaymentMode
}

// flow is the directed graph of forward edges for one payment mode. rank only
// exists to phrase rejections; legality is decided by edges.
type flow struct {
	edges map[enums.OrderStatus]map[enums.OrderStatus]struct{}
	rank  map[enums.OrderStatus]int
}

func linearFlow(states ...enums.OrderStatus) flow {
	f := flow{
		edges: make(map[enums.OrderStatus]map[enums.OrderStatus]struct{}, len(states)),
		rank:  make(map[enums.OrderStatus]int, len(states)),
	}
	for i, state := range states {
		f.rank[state] = i
		if i+1 < len(states) {
			f.edges[state] = map[enums.OrderStatus]struct{}{states[i+1]: {}}
		}
	}
	return f
}

func (f flow) allows(from, to enums.OrderStatus) bool {
	next, ok := f.edges[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Next lists the states directly reachable from the given one.
func (f flow) next(from enums.OrderStatus) []enums.OrderStatus {
	out := make([]enums.OrderStatus, 0, len(f.edges[from]))
	for to := range f.edges[from] {
		out = append(out, to)
	}
	return out
}

// Machine is a pure transition checker. The zero value is not usable; use NewMachine.
type Machine struct {
	flows    map[enums.PaymentMode]flow
	policies map[enums.ActorRole]permissionCheck
}

// NewMachine returns the platform's order flows:
//
//	ONLINE: CREATED -> PENDING_PAYMENT -> PAID -> PACKED -> SHIPPED -> DELIVERED
//	COD:    CREATED -> CONFIRMED -> PACKED -> SHIPPED -> DELIVERED
func NewMachine() *Machine {
	return &Machine{
		flows: map[enums.PaymentMode]flow{
			enums.PaymentModeOnline: linearFlow(
				enums.OrderStatusCreated,
				enums.OrderStatusPendingPayment,
				enums.OrderStatusPaid,
				enums.OrderStatusPacked,
				enums.OrderStatusShipped,
				enums.OrderStatusDelivered,
			),
			enums.PaymentModeCOD: linearFlow(
				enums.OrderStatusCreated,
				enums.OrderStatusConfirmed,
				enums.OrderStatusPacked,
				enums.OrderStatusShipped,
				enums.OrderStatusDelivered,
			),
		},
		policies: defaultPolicies(),
	}
}

// ValidateTransition returns nil when the actor may move the order from
// Current to Next under the given payment mode.
func (m *Machine) ValidateTransition(t Transition) error {
	if !t.Next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", t.Next))
	}
	if t.Current.IsHardTerminal() {
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Order is in terminal status %s and cannot change", t.Current))
	}

	if t.Next == enums.OrderStatusCancelled {
		return checkCancellation(t)
	}

	policy, ok := m.policies[t.Role]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, fmt.Sprintf("role %q may not change order status", t.Role))
	}
	verdict, err := policy(t)
	if err != nil {
		return err
	}
	if verdict == verdictAllow {
		return nil
	}
	return m.checkFlow(t)
}

// AllowedNext lists the statuses the flow permits after current, ignoring role.
func (m *Machine) AllowedNext(current enums.OrderStatus, mode enums.PaymentMode) []enums.OrderStatus {
	f, ok := m.flows[mode]
	if !ok || current.IsHardTerminal() {
		return nil
	}
	out := f.next(current)
	if current == enums.OrderStatusDelivered {
		out = append(out, enums.OrderStatusReturnRequested)
	}
	return append(out, enums.OrderStatusReplaced)
}

func (m *Machine) checkFlow(t Transition) error {
	if isSpecialEdge(t.Current, t.Next) {
		return nil
	}

	f, ok := m.flows[t.PaymentMode]
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown payment mode %q", t.PaymentMode))
	}
	if f.allows(t.Current, t.Next) {
		return nil
	}

	from, fromOK := f.rank[t.Current]
	to, toOK := f.rank[t.Next]
	switch {
	case !fromOK:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Status %s is not part of the %s flow", t.Current, t.PaymentMode))
	case !toOK:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Status %s is not part of the %s flow", t.Next, t.PaymentMode))
	case to == from:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Order is already %s", t.Current))
	case to < from:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Cannot move backward from %s to %s", t.Current, t.Next))
	default:
		return pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Cannot skip states %s to %s", t.Current, t.Next))
	}
}

// isSpecialEdge covers the follow-ons allowed outside the linear flows.
func isSpecialEdge(current, next enums.OrderStatus) bool {
	switch next {
	case enums.OrderStatusReturnRequested:
		return current == enums.OrderStatusDelivered
	case enums.OrderStatusReplaced:
		return !current.IsHardTerminal()
	}
	return false
}
