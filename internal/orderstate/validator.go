package orderstate

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
)

// StatusStore performs the conditional status write.
type StatusStore interface {
	CompareAndSetStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error)
}

type auditLogger interface {
	LogAdminAction(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// TransitionInput describes a requested order status change and who asks for it.
type TransitionInput struct {
	OrderID       uuid.UUID
	Current       enums.OrderStatus
	Next          enums.OrderStatus
	PaymentMode   enums.PaymentMode
	ActorID       uuid.UUID
	ActorRole     enums.ActorRole
	AllowOverride bool
	Reason        string
}

func (in TransitionInput) transition() Transition {
	return Transition{
		Current:     in.Current,
		Next:        in.Next,
		Role:        in.ActorRole,
		PaymentMode: in.PaymentMode,
	}
}

type ValidatorParams struct {
	Machine *Machine
	Store   StatusStore
	Audit   auditLogger
	Events  eventEmitter
	Metrics *metrics.Domain
	Logger  *logger.Logger
}

// Validator wraps the Machine with audit, outbox and persistence.
type Validator struct {
	machine *Machine
	store   StatusStore
	audit   auditLogger
	events  eventEmitter
	metrics *metrics.Domain
	logg    *logger.Logger
}

func NewValidator(params ValidatorParams) (*Validator, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("status store required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	machine := params.Machine
	if machine == nil {
		machine = NewMachine()
	}
	return &Validator{
		machine: machine,
		store:   params.Store,
		audit:   params.Audit,
		events:  params.Events,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Machine exposes the underlying pure checker.
func (v *Validator) Machine() *Machine {
	return v.machine
}

// ValidateTransition checks the request and records audit entries on tx.
// It does not write the order row; see Apply.
func (v *Validator) ValidateTransition(ctx context.Context, tx *gorm.DB, in TransitionInput) error {
	if in.AllowOverride {
		return v.validateOverride(ctx, tx, in)
	}

	if err := v.machine.ValidateTransition(in.transition()); err != nil {
		v.reject(ctx, in, err)
		return err
	}

	if in.ActorRole.IsAdmin() {
		if err := v.audit.LogAdminAction(ctx, tx, audit.Entry{
			ActorID:    in.ActorID,
			Action:     audit.ActionOrderStatusChanged,
			EntityType: audit.EntityOrder,
			EntityID:   in.OrderID.String(),
			Details: map[string]any{
				"from":   string(in.Current),
				"to":     string(in.Next),
				"reason": in.Reason,
			},
		}); err != nil {
			return err
		}
	}
	return nil
}

func (v *Validator) validateOverride(ctx context.Context, tx *gorm.DB, in TransitionInput) error {
	if !in.ActorRole.IsAdmin() {
		err := pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may override order status")
		v.reject(ctx, in, err)
		return err
	}
	if strings.TrimSpace(in.Reason) == "" {
		err := pkgerrors.New(pkgerrors.CodeValidation, "override reason is required")
		v.reject(ctx, in, err)
		return err
	}
	if !in.Next.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", in.Next))
	}
	if in.Current == in.Next {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("Order is already %s", in.Current))
	}

	logCtx := v.logg.WithFields(ctx, map[string]any{
		"order_id":   in.OrderID.String(),
		"from":       in.Current,
		"to":         in.Next,
		"actor_id":   in.ActorID.String(),
		"actor_role": in.ActorRole,
	})
	v.logg.Warn(logCtx, "order status override")

	return v.audit.LogAdminAction(ctx, tx, audit.Entry{
		ActorID:    in.ActorID,
		Action:     audit.ActionOrderStatusOverride,
		EntityType: audit.EntityOrder,
		EntityID:   in.OrderID.String(),
		Details: map[string]any{
			"from":   string(in.Current),
			"to":     string(in.Next),
			"reason": in.Reason,
		},
	})
}

// Apply validates the transition, then moves the order only if it is still in
// in.Current. A lost race returns CodeStateConflict.
func (v *Validator) Apply(ctx context.Context, tx *gorm.DB, in TransitionInput) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "order transition requires a transaction")
	}
	if err := v.ValidateTransition(ctx, tx, in); err != nil {
		return err
	}

	swapped, err := v.store.CompareAndSetStatus(ctx, tx, in.OrderID, in.Current, in.Next)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	if !swapped {
		err := pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("order is no longer %s", in.Current))
		v.reject(ctx, in, err)
		return err
	}

	if v.events != nil {
		if err := v.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   in.OrderID,
			Actor:         &outbox.ActorRef{UserID: in.ActorID, Role: string(in.ActorRole)},
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     in.OrderID,
				From:        in.Current,
				To:          in.Next,
				PaymentMode: in.PaymentMode,
				ActorRole:   in.ActorRole,
				Override:    in.AllowOverride,
				Reason:      in.Reason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue order status event")
		}
	}

	v.metrics.ObserveOrderTransition(string(in.Current), string(in.Next), string(in.ActorRole))
	return nil
}

func (v *Validator) reject(ctx context.Context, in TransitionInput, err error) {
	code := "UNKNOWN"
	if typed := pkgerrors.As(err); typed != nil {
		code = string(typed.Code())
	}
	v.metrics.ObserveOrderRejection(string(in.ActorRole), code)

	logCtx := v.logg.WithFields(ctx, map[string]any{
		"order_id":   in.OrderID.String(),
		"from":       in.Current,
		"to":         in.Next,
		"actor_role": in.ActorRole,
		"override":   in.AllowOverride,
		"error":      err.Error(),
	})
	v.logg.Warn(logCtx, "order transition rejected")
}
