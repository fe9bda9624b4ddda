package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/orderstate"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// ProofGate refuses PACKED/SHIPPED transitions for orders without a packing video.
type ProofGate interface {
	EnsureProof(ctx context.Context, orderID uuid.UUID) error
}

type transitionApplier interface {
	Apply(ctx context.Context, tx *gorm.DB, in orderstate.TransitionInput) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string, typ enums.NotificationType, audience enums.NotificationAudience)
}

// Service defines the order operations exposed to the admin, vendor and customer surfaces.
type Service interface {
	UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error)
	CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	GetForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error)
	GetForVendor(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Order, error)
	ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error)
}

type ServiceParams struct {
	Repository Repository
	Tx         txRunner
	Validator  transitionApplier
	ProofGate  ProofGate
	Notifier   notifier
	Logger     *logger.Logger
}

type service struct {
	repo      Repository
	tx        txRunner
	validator transitionApplier
	gate      ProofGate
	notifier  notifier
	logg      *logger.Logger
}

// NewService builds the order service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Validator == nil {
		return nil, fmt.Errorf("state validator required")
	}
	if params.ProofGate == nil {
		return nil, fmt.Errorf("packing proof gate required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      params.Repository,
		tx:        params.Tx,
		validator: params.Validator,
		gate:      params.ProofGate,
		notifier:  params.Notifier,
		logg:      params.Logger,
	}, nil
}

func (s *service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (*models.Order, error) {
	if input.OrderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if input.ActorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", input.Status))
	}

	order, err := s.load(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if input.ActorRole == enums.ActorRoleVendor {
		if input.VendorID == nil || *input.VendorID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
		}
		if !ownedByVendor(order, *input.VendorID) {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to vendor")
		}
	}

	// runs before the state machine for every role, overrides included
	if requiresPackingProof(input.Status) {
		if err := s.gate.EnsureProof(ctx, order.ID); err != nil {
			return nil, err
		}
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.validator.Apply(ctx, tx, orderstate.TransitionInput{
			OrderID:       order.ID,
			Current:       order.Status,
			Next:          input.Status,
			PaymentMode:   order.PaymentMode,
			ActorID:       input.ActorID,
			ActorRole:     input.ActorRole,
			AllowOverride: input.AllowOverride,
			Reason:        strings.TrimSpace(input.Reason),
		}); err != nil {
			return err
		}
		reloaded, err := s.repo.WithTx(tx).FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyCustomer(ctx, updated)
	return updated, nil
}

func (s *service) CancelOrder(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}

	var updated *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.validator.Apply(ctx, tx, orderstate.TransitionInput{
			OrderID:     order.ID,
			Current:     order.Status,
			Next:        enums.OrderStatusCancelled,
			PaymentMode: order.PaymentMode,
			ActorID:     userID,
			ActorRole:   enums.ActorRoleCustomer,
		}); err != nil {
			return err
		}
		reloaded, err := s.repo.WithTx(tx).FindByID(ctx, order.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload order")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	return s.load(ctx, orderID)
}

func (s *service) GetForCustomer(ctx context.Context, orderID, userID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) GetForVendor(ctx context.Context, orderID, vendorID uuid.UUID) (*models.Order, error) {
	order, err := s.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !ownedByVendor(order, vendorID) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func (s *service) ListOrders(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if filters.DateFrom != nil && filters.DateTo != nil && filters.DateFrom.After(*filters.DateTo) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date_from must precede date_to")
	}
	if _, err := pagination.ParseCursor(params.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) notifyCustomer(ctx context.Context, order *models.Order) {
	if s.notifier == nil || order == nil {
		return
	}
	s.notifier.Notify(ctx, order.UserID,
		"Order update",
		fmt.Sprintf("Your order %s is now %s", shortID(order.ID), order.Status),
		enums.NotificationTypeOrderUpdate,
		enums.NotificationAudienceCustomer,
	)
}

func requiresPackingProof(status enums.OrderStatus) bool {
	return status == enums.OrderStatusPacked || status == enums.OrderStatusShipped
}

func ownedByVendor(order *models.Order, vendorID uuid.UUID) bool {
	return order.VendorID == vendorID || order.Items.HasVendor(vendorID)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
