package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/internal/inventory"
	"github.com/risbow/risbow-backend/internal/orders"
	"github.com/risbow/risbow-backend/internal/orderstate"
	"github.com/risbow/risbow-backend/pkg/db"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/outbox/payloads"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

const (
	defaultNumberPrefix = "RET"
	defaultCounterTTL   = 30 * 24 * time.Hour
	numberAttempts      = 3
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type transitionApplier interface {
	Apply(ctx context.Context, tx *gorm.DB, in orderstate.TransitionInput) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

type auditLogger interface {
	LogAdminAction(ctx context.Context, tx *gorm.DB, entry audit.Entry) error
}

type notifier interface {
	Notify(ctx context.Context, userID uuid.UUID, title, body string, typ enums.NotificationType, audience enums.NotificationAudience)
}

type returnCounter interface {
	IncrementVendorReturns(ctx context.Context, vendorID string, ttl time.Duration) (int64, error)
}

type ServiceParams struct {
	Repository       Repository
	Orders           orders.Repository
	Inventory        inventory.Adjuster
	OrderTransitions transitionApplier
	Tx               txRunner
	Events           eventEmitter
	Audit            auditLogger
	Notifier         notifier
	Counter          returnCounter
	Metrics          *metrics.Domain
	Logger           *logger.Logger
	NumberPrefix     string
	CounterTTL       time.Duration
}

// Service runs the replacement-only return pipeline.
type Service struct {
	repo        Repository
	orders      orders.Repository
	inventory   inventory.Adjuster
	transitions transitionApplier
	tx          txRunner
	events      eventEmitter
	audit       auditLogger
	notifier    notifier
	counter     returnCounter
	metrics     *metrics.Domain
	logg        *logger.Logger
	prefix      string
	counterTTL  time.Duration
	now         func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repository == nil {
		return nil, fmt.Errorf("returns repository required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Inventory == nil {
		return nil, fmt.Errorf("inventory adapter required")
	}
	if params.OrderTransitions == nil {
		return nil, fmt.Errorf("order state validator required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Audit == nil {
		return nil, fmt.Errorf("audit logger required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	prefix := strings.TrimSpace(params.NumberPrefix)
	if prefix == "" {
		prefix = defaultNumberPrefix
	}
	ttl := params.CounterTTL
	if ttl <= 0 {
		ttl = defaultCounterTTL
	}
	return &Service{
		repo:        params.Repository,
		orders:      params.Orders,
		inventory:   params.Inventory,
		transitions: params.OrderTransitions,
		tx:          params.Tx,
		events:      params.Events,
		audit:       params.Audit,
		notifier:    params.Notifier,
		counter:     params.Counter,
		metrics:     params.Metrics,
		logg:        params.Logger,
		prefix:      prefix,
		counterTTL:  ttl,
		now:         time.Now,
	}, nil
}

// Create opens a return for a delivered order owned by userID.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, input CreateInput) (*models.ReturnRequest, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateCreate(input); err != nil {
		return nil, err
	}

	order, err := s.loadOrder(ctx, s.orders, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "order does not belong to user")
	}
	if order.Status != enums.OrderStatusDelivered {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("only delivered orders can be returned, order is %s", order.Status))
	}
	if err := ensureItemsOnOrder(order, input.Items); err != nil {
		return nil, err
	}

	open, err := s.repo.HasOpenReturn(ctx, order.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open returns")
	}
	if open {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a return is already open for this order")
	}

	vendorID, err := s.repo.ProductVendorID(ctx, input.Items[0].ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve return vendor")
	}

	var created *models.ReturnRequest
	for attempt := 1; ; attempt++ {
		ret := s.newReturn(userID, vendorID, input)
		err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			if err := s.repo.WithTx(tx).Create(ctx, ret); err != nil {
				return err
			}
			return s.emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReturnRequested,
				AggregateType: enums.AggregateReturnRequest,
				AggregateID:   ret.ID,
				Actor:         &outbox.ActorRef{UserID: userID, Role: string(enums.ActorRoleCustomer)},
				Data: payloads.ReturnRequestedEvent{
					ReturnID:     ret.ID,
					ReturnNumber: ret.ReturnNumber,
					OrderID:      ret.OrderID,
					VendorID:     ret.VendorID,
					Reason:       ret.Reason,
				},
			})
		})
		if err == nil {
			created = ret
			break
		}
		if db.IsUniqueViolation(err, "") && attempt < numberAttempts {
			continue
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create return request")
	}

	logCtx := s.logCtx(ctx, created)
	s.logg.Info(logCtx, "return requested")
	s.metrics.ObserveReturnTransition("NEW", string(enums.ReturnStatusPendingApproval))

	if s.counter != nil {
		if _, err := s.counter.IncrementVendorReturns(ctx, vendorID.String(), s.counterTTL); err != nil {
			s.logg.Warn(s.logg.WithField(logCtx, "error", err.Error()), "vendor return counter update failed")
		}
	}
	s.notifyVendor(ctx, created.VendorID, "New return request",
		fmt.Sprintf("Return %s was requested for order %s", created.ReturnNumber, shortID(created.OrderID)))

	return created, nil
}

func (s *Service) FindAll(ctx context.Context, filters Filters) (*ListResult, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter")
	}
	if _, err := pagination.ParseCursor(filters.Cursor); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	rows, next, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list returns")
	}
	return &ListResult{Items: rows, NextCursor: next}, nil
}

func (s *Service) FindOne(ctx context.Context, id uuid.UUID) (*models.ReturnRequest, error) {
	ret, err := s.repo.FindDetailed(ctx, id)
	if err != nil {
		return nil, mapNotFound(err, "return request not found", "load return request")
	}
	return ret, nil
}

// FindOneForUser hides returns owned by someone else behind not found.
func (s *Service) FindOneForUser(ctx context.Context, id, userID uuid.UUID) (*models.ReturnRequest, error) {
	ret, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}
	return ret, nil
}

func (s *Service) FindOneForVendor(ctx context.Context, id, vendorID uuid.UUID) (*models.ReturnRequest, error) {
	ret, err := s.FindOne(ctx, id)
	if err != nil {
		return nil, err
	}
	if ret.VendorID != vendorID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "return request not found")
	}
	return ret, nil
}

// UpdateStatus is the admin path through the return pipeline. Re-sending the
// current status is a no-op.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, input UpdateStatusInput, actor Actor) (*models.ReturnRequest, error) {
	if !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown return status %q", input.Status))
	}
	if !actor.Role.IsAdmin() && actor.Role != enums.ActorRoleSystem {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only administrators may update return status")
	}
	return s.run(ctx, id, func(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest) ([]func(context.Context), error) {
		return s.transition(ctx, tx, ret, transitionRequest{
			to:              input.Status,
			notes:           input.Notes,
			rejectionReason: input.RejectionReason,
			actor:           actor,
		})
	})
}

// VendorDecision lets the owning vendor approve or reject a pending return once.
func (s *Service) VendorDecision(ctx context.Context, id uuid.UUID, input VendorDecisionInput) (*models.ReturnRequest, error) {
	if input.VendorID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "vendor context missing")
	}
	reason := strings.TrimSpace(input.Reason)
	if !input.Approve && reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
	}
	return s.run(ctx, id, func(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest) ([]func(context.Context), error) {
		if ret.VendorID != input.VendorID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "return does not belong to vendor")
		}
		if ret.Status != enums.ReturnStatusPendingApproval {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "return already processed")
		}
		req := transitionRequest{
			to:    enums.ReturnStatusApproved,
			actor: Actor{ID: input.ActorID, Role: enums.ActorRoleVendor},
		}
		if reason != "" {
			req.notes = &reason
		}
		if !input.Approve {
			req.to = enums.ReturnStatusRejected
			req.rejectionReason = &reason
		}
		return s.transition(ctx, tx, ret, req)
	})
}

// ShipReplacement records the courier tracking id for an existing replacement order.
func (s *Service) ShipReplacement(ctx context.Context, id uuid.UUID, trackingID string, adminID uuid.UUID) (*models.ReturnRequest, error) {
	trackingID = strings.TrimSpace(trackingID)
	if trackingID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking id is required")
	}
	return s.run(ctx, id, func(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest) ([]func(context.Context), error) {
		if _, err := s.repo.WithTx(tx).FindReplacement(ctx, ret.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "no replacement order exists for this return")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load replacement order")
		}
		notes := "tracking " + trackingID
		return s.transition(ctx, tx, ret, transitionRequest{
			to:         enums.ReturnStatusReplacementShipped,
			notes:      &notes,
			trackingID: &trackingID,
			actor:      Actor{ID: adminID, Role: enums.ActorRoleAdmin},
		})
	})
}

type mutation func(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest) ([]func(context.Context), error)

// run loads the return inside a transaction, applies fn and fires the
// collected side effects once the transaction has committed.
func (s *Service) run(ctx context.Context, id uuid.UUID, fn mutation) (*models.ReturnRequest, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "return id required")
	}
	var (
		updated *models.ReturnRequest
		after   []func(context.Context)
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ret, err := repo.FindByID(ctx, id)
		if err != nil {
			return mapNotFound(err, "return request not found", "load return request")
		}
		effects, err := fn(ctx, tx, ret)
		if err != nil {
			return err
		}
		after = effects
		updated, err = repo.FindDetailed(ctx, id)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload return request")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	for _, effect := range after {
		effect(ctx)
	}
	return updated, nil
}

type transitionRequest struct {
	to              enums.ReturnStatus
	notes           *string
	rejectionReason *string
	trackingID      *string
	actor           Actor
}

// transition moves ret one step along the pipeline on tx. Side effects run
// only when the status actually changes, which keeps re-sends idempotent.
func (s *Service) transition(ctx context.Context, tx *gorm.DB, ret *models.ReturnRequest, req transitionRequest) ([]func(context.Context), error) {
	from := ret.Status
	if from == req.to {
		return nil, nil
	}
	if !CanTransition(from, req.to) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("Cannot move return from %s to %s", from, req.to))
	}

	extra := map[string]any{}
	if req.to == enums.ReturnStatusRejected {
		if req.rejectionReason == nil || strings.TrimSpace(*req.rejectionReason) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason is required")
		}
		extra["rejection_reason"] = strings.TrimSpace(*req.rejectionReason)
	}
	if req.trackingID != nil {
		extra["replacement_tracking_id"] = *req.trackingID
	}

	repo := s.repo.WithTx(tx)
	swapped, err := repo.CompareAndSetStatus(ctx, ret.ID, from, req.to, extra)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update return status")
	}
	if !swapped {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("return is no longer %s", from))
	}

	entry := &models.ReturnTimeline{
		ReturnID:    ret.ID,
		Status:      req.to,
		Action:      string(req.to),
		PerformedBy: req.actor.Role,
		Notes:       req.notes,
	}
	if req.actor.ID != uuid.Nil {
		actorID := req.actor.ID
		entry.ActorID = &actorID
	}
	if err := repo.AppendTimeline(ctx, entry); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "append return timeline")
	}

	ret.Status = req.to
	switch req.to {
	case enums.ReturnStatusQCPassed:
		for _, item := range ret.Items {
			if err := s.inventory.RestoreStock(ctx, tx, item.ProductID, item.Quantity, item.VariantID); err != nil {
				return nil, err
			}
		}
	case enums.ReturnStatusApproved:
		if _, err := s.createReplacementOrder(ctx, tx, ret, req.actor); err != nil {
			return nil, err
		}
	}

	if req.actor.Role.IsAdmin() {
		action := audit.ActionReturnStatusChanged
		if req.to == enums.ReturnStatusReplacementShipped {
			action = audit.ActionReplacementShipped
		}
		details := map[string]any{"from": string(from), "to": string(req.to)}
		if req.trackingID != nil {
			details["trackingId"] = *req.trackingID
		}
		if err := s.audit.LogAdminAction(ctx, tx, audit.Entry{
			ActorID:    req.actor.ID,
			Action:     action,
			EntityType: audit.EntityReturnRequest,
			EntityID:   ret.ID.String(),
			Details:    details,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventReturnStatusChanged,
		AggregateType: enums.AggregateReturnRequest,
		AggregateID:   ret.ID,
		Actor:         &outbox.ActorRef{UserID: req.actor.ID, Role: string(req.actor.Role)},
		Data: payloads.ReturnStatusChangedEvent{
			ReturnID: ret.ID,
			OrderID:  ret.OrderID,
			From:     from,
			To:       req.to,
		},
	}); err != nil {
		return nil, err
	}

	snapshot := *ret
	return []func(context.Context){
		func(ctx context.Context) {
			s.metrics.ObserveReturnTransition(string(from), string(snapshot.Status))
			s.logg.Info(s.logg.WithFields(s.logCtx(ctx, &snapshot), map[string]any{
				"from":       from,
				"to":         snapshot.Status,
				"actor_role": req.actor.Role,
			}), "return status changed")
		},
		func(ctx context.Context) {
			s.notify(ctx, snapshot.UserID, "Return update",
				fmt.Sprintf("Your return %s is now %s", snapshot.ReturnNumber, snapshot.Status),
				enums.NotificationAudienceCustomer)
			if snapshot.Status == enums.ReturnStatusApproved {
				s.notifyVendor(ctx, snapshot.VendorID, "Return approved",
					fmt.Sprintf("Return %s was approved and a replacement order was created", snapshot.ReturnNumber))
			}
		},
	}, nil
}

func (s *Service) emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if s.events == nil {
		return nil
	}
	if err := s.events.Emit(ctx, tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "queue "+string(event.EventType))
	}
	return nil
}

func (s *Service) notify(ctx context.Context, userID uuid.UUID, title, body string, audience enums.NotificationAudience) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, userID, title, body, enums.NotificationTypeReturnUpdate, audience)
}

// notifyVendor reaches the vendor's linked account when one exists.
func (s *Service) notifyVendor(ctx context.Context, vendorID uuid.UUID, title, body string) {
	if s.notifier == nil {
		return
	}
	userID, err := s.repo.VendorUserID(ctx, vendorID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
				"vendor_id": vendorID.String(),
				"error":     err.Error(),
			}), "vendor lookup for notification failed")
		}
		return
	}
	if userID == nil {
		return
	}
	s.notify(ctx, *userID, title, body, enums.NotificationAudienceVendor)
}

func (s *Service) loadOrder(ctx context.Context, repo orders.Repository, orderID uuid.UUID) (*models.Order, error) {
	order, err := repo.FindByID(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, "order not found", "load order")
	}
	return order, nil
}

func (s *Service) newReturn(userID, vendorID uuid.UUID, input CreateInput) *models.ReturnRequest {
	items := make([]models.ReturnItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, models.ReturnItem{
			ProductID: item.ProductID,
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			Condition: item.Condition,
			Reason:    item.Reason,
		})
	}
	userRef := userID
	return &models.ReturnRequest{
		ReturnNumber:   s.returnNumber(),
		UserID:         userID,
		OrderID:        input.OrderID,
		VendorID:       vendorID,
		Reason:         input.Reason,
		Description:    input.Description,
		EvidenceImages: input.EvidenceImages,
		EvidenceVideo:  input.EvidenceVideo,
		Status:         enums.ReturnStatusPendingApproval,
		Items:          items,
		Timeline: []models.ReturnTimeline{{
			Status:      enums.ReturnStatusPendingApproval,
			Action:      "RETURN_REQUESTED",
			PerformedBy: enums.ActorRoleCustomer,
			ActorID:     &userRef,
		}},
	}
}

// returnNumber renders RET-YYYYMMDD-XXXXXXXX.
func (s *Service) returnNumber() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("%s-%s-%s", s.prefix, s.now().UTC().Format("20060102"), suffix)
}

func (s *Service) logCtx(ctx context.Context, ret *models.ReturnRequest) context.Context {
	return s.logg.WithFields(ctx, map[string]any{
		"return_id":     ret.ID.String(),
		"return_number": ret.ReturnNumber,
		"order_id":      ret.OrderID.String(),
		"vendor_id":     ret.VendorID.String(),
	})
}

func validateCreate(input CreateInput) error {
	if input.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !input.Reason.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid return reason %q", input.Reason))
	}
	if len(input.Items) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: product id required", i))
		}
		if item.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: quantity must be positive", i))
		}
		if !item.Condition.IsValid() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: invalid condition %q", i, item.Condition))
		}
	}
	return nil
}

type lineKey struct {
	product uuid.UUID
	variant uuid.UUID
}

// ensureItemsOnOrder rejects lines that were never bought or that, summed
// with earlier lines for the same product, exceed the purchased quantity.
func ensureItemsOnOrder(order *models.Order, items []CreateItemInput) error {
	requested := make(map[lineKey]int, len(items))
	perProduct := make(map[uuid.UUID]int, len(items))
	for i, item := range items {
		key := lineKey{product: item.ProductID}
		if item.VariantID != nil {
			key.variant = *item.VariantID
		}
		requested[key] += item.Quantity
		perProduct[item.ProductID] += item.Quantity

		purchased := purchasedQuantity(order, item.ProductID, item.VariantID)
		if purchased == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("items[%d]: product is not part of the order", i))
		}
		if requested[key] > purchased {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("items[%d]: cannot return %d units, %d purchased", i, requested[key], purchased))
		}
		if all := purchasedQuantity(order, item.ProductID, nil); perProduct[item.ProductID] > all {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("items[%d]: cannot return %d units, %d purchased", i, perProduct[item.ProductID], all))
		}
	}
	return nil
}

// purchasedQuantity sums the order lines for productID. A nil variantID
// matches every variant.
func purchasedQuantity(order *models.Order, productID uuid.UUID, variantID *uuid.UUID) int {
	total := 0
	for _, line := range order.Items {
		if line.ProductID != productID {
			continue
		}
		if variantID != nil && (line.VariantID == nil || *line.VariantID != *variantID) {
			continue
		}
		total += line.Quantity
	}
	return total
}

func mapNotFound(err error, notFound, dependency string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, dependency)
}

func shortID(id uuid.UUID) string {
	return strings.ToUpper(id.String()[:8])
}
