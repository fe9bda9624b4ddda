package refunds

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
)

type orderReader interface {
	FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type auditLogger interface {
	LogAdminAction(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type ForceRefundInput struct {
	ActorID         uuid.UUID
	ActorRole       enums.ActorRole
	ForceRefund     bool
	Reason          string
	OrderID         uuid.UUID
	Amount          decimal.Decimal
	Method          enums.RefundMethod
	ReturnRequestID *uuid.UUID
}

type OverrideParams struct {
	Repository Repository
	Orders     orderReader
	Tx         txRunner
	Audit      auditLogger
	Events     eventEmitter
	Metrics    *metrics.Domain
	Logger     *logger.Logger
}

// OverrideService is the only path that writes a refund row. Every use is
// audited before the refund exists.
type OverrideService struct {
	repo    Repository
	orders  orderReader
	tx      txRunner
	audit   auditLogger
	events  eventEmitter
	metrics *metrics.Domain
	logg    *logger.Logger
}

func NewOverrideService(params OverrideParams) (*OverrideService, error) {
	switch {
	case params.Repository == nil:
		return nil, fmt.Errorf("refunds repository required")
	case params.Orders == nil:
		return nil, fmt.Errorf("orders reader required")
	case params.Tx == nil:
		return nil, fmt.Errorf("transaction runner required")
	case params.Audit == nil:
		return nil, fmt.Errorf("audit logger required")
	case params.Logger == nil:
		return nil, fmt.Errorf("logger required")
	}
	return &OverrideService{
		repo:    params.Repository,
		orders:  params.Orders,
		tx:      params.Tx,
		audit:   params.Audit,
		events:  params.Events,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

func (s *OverrideService) ForceRefund(ctx context.Context, input ForceRefundInput) (*models.Refund, error) {
	if !input.ActorRole.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may force a refund")
	}
	override := &OverrideRequest{ForceRefund: input.ForceRefund, Reason: input.Reason}
	if !override.Valid() {
		blocked := Block(OperationForce, override)
		s.metrics.ObserveRefundBlocked(string(OperationForce))
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"actor_id":           input.ActorID.String(),
			"order_id":           input.OrderID.String(),
			"override_attempted": blocked.OverrideAttempted,
			"reason_provided":    blocked.ReasonProvided,
		}), "refund override refused")
		return nil, blocked
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	if !input.Method.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid refund method %q", input.Method))
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "refund amount must be positive")
	}

	order, err := s.orders.FindByID(ctx, input.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	if input.Amount.GreaterThan(order.TotalAmount) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("refund amount %s exceeds order total %s", input.Amount.StringFixed(2), order.TotalAmount.StringFixed(2)))
	}

	reason := strings.TrimSpace(input.Reason)
	now := time.Now().UTC()
	actorID := input.ActorID
	refund := &models.Refund{
		ID:              uuid.New(),
		OrderID:         order.ID,
		UserID:          order.UserID,
		ReturnRequestID: input.ReturnRequestID,
		Status:          enums.RefundStatusCompleted,
		Method:          input.Method,
		Amount:          input.Amount,
		Reason:          &reason,
		ProcessedBy:     &actorID,
		ProcessedAt:     &now,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.audit.LogAdminAction(ctx, tx, audit.Entry{
			ActorID:    input.ActorID,
			Action:     audit.ActionRefundForceOverride,
			EntityType: audit.EntityRefund,
			EntityID:   refund.ID.String(),
			Details: map[string]any{
				"orderId": order.ID.String(),
				"amount":  input.Amount.StringFixed(2),
				"method":  string(input.Method),
				"reason":  reason,
				"role":    string(input.ActorRole),
			},
		}); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Create(ctx, refund); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create refund")
		}
		if s.events == nil {
			return nil
		}
		if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventRefundOverrideApplied,
			AggregateType: enums.AggregateRefund,
			AggregateID:   refund.ID,
			Actor:         &outbox.ActorRef{UserID: input.ActorID, Role: string(input.ActorRole)},
			Data: payloads.RefundOverrideAppliedEvent{
				RefundID: refund.ID,
				OrderID:  order.ID,
				Amount:   input.Amount,
				Method:   input.Method,
				Reason:   reason,
			},
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue refund override event")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncRefundOverride()
	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"refund_id": refund.ID.String(),
		"order_id":  order.ID.String(),
		"actor_id":  input.ActorID.String(),
		"amount":    input.Amount.StringFixed(2),
	}), "refund forced past policy block")
	return refund, nil
}
