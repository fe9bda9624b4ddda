// Package refunds keeps refund history readable while every monetary write
// path stays blocked behind the replacement-only policy.
package refunds

import (
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
)

// BlockedMessage is surfaced to every caller of a blocked refund write.
const BlockedMessage = "Refunds are disabled by platform policy: returns are settled by replacement only"

type Operation string

const (
	OperationCreate  Operation = "create"
	OperationProcess Operation = "process"
	OperationReject  Operation = "reject"
	OperationForce   Operation = "force_refund"
)

// OverrideRequest is the admin escape hatch. Both fields must be set for it to count.
type OverrideRequest struct {
	ForceRefund bool
	Reason      string
}

func (o *OverrideRequest) attempted() bool {
	return o != nil && o.ForceRefund
}

func (o *OverrideRequest) hasReason() bool {
	return o != nil && strings.TrimSpace(o.Reason) != ""
}

// Valid reports whether the override carries both the flag and a reason.
func (o *OverrideRequest) Valid() bool {
	return o.attempted() && o.hasReason()
}

// PolicyBlockedError is returned by every refused refund write. It unwraps to
// a CodePolicyBlocked error so the HTTP layer maps it like any other.
type PolicyBlockedError struct {
	Operation         Operation
	OverrideAttempted bool
	ReasonProvided    bool
	cause             *pkgerrors.Error
}

func (e *PolicyBlockedError) Error() string {
	return fmt.Sprintf("refund %s blocked (override_attempted=%t reason_provided=%t)",
		e.Operation, e.OverrideAttempted, e.ReasonProvided)
}

func (e *PolicyBlockedError) Unwrap() error {
	return e.cause
}

// Block builds the refusal for op. It never looks at anything but its inputs.
func Block(op Operation, override *OverrideRequest) *PolicyBlockedError {
	attempted := override.attempted()
	reason := override.hasReason()
	return &PolicyBlockedError{
		Operation:         op,
		OverrideAttempted: attempted,
		ReasonProvided:    reason,
		cause: pkgerrors.New(pkgerrors.CodePolicyBlocked, BlockedMessage).WithDetails(map[string]any{
			"operation":         string(op),
			"overrideAttempted": attempted,
			"reasonProvided":    reason,
		}),
	}
}

func IsPolicyBlocked(err error) bool {
	var blocked *PolicyBlockedError
	return errors.As(err, &blocked)
}
