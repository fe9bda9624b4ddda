package orders

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/internal/orderstate"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

type stubOrdersRepo struct {
	orders map[uuid.UUID]*models.Order
	listFn func(params pagination.Params, filters ListFilters) (*OrderList, error)
}

func newStubRepo(orders ...*models.Order) *stubOrdersRepo {
	repo := &stubOrdersRepo{orders: make(map[uuid.UUID]*models.Order)}
	for _, o := range orders {
		repo.orders[o.ID] = o
	}
	return repo
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) (*models.Order, error) {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.orders[order.ID] = order
	return order, nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, ok := s.orders[orderID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *order
	return &clone, nil
}

func (s *stubOrdersRepo) CompareAndSetStatus(ctx context.Context, tx *gorm.DB, orderID uuid.UUID, from, to enums.OrderStatus) (bool, error) {
	order, ok := s.orders[orderID]
	if !ok || order.Status != from {
		return false, nil
	}
	order.Status = to
	return true, nil
}

func (s *stubOrdersRepo) SetReturnReceived(ctx context.Context, orderID uuid.UUID, at time.Time) error {
	order, ok := s.orders[orderID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	order.ReturnReceivedAt = &at
	return nil
}

func (s *stubOrdersRepo) List(ctx context.Context, params pagination.Params, filters ListFilters) (*OrderList, error) {
	if s.listFn != nil {
		return s.listFn(params, filters)
	}
	return &OrderList{}, nil
}

type stubTx struct{}

func (stubTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(&gorm.DB{})
}

type stubGate struct {
	proofs map[uuid.UUID]bool
	calls  int
}

func (g *stubGate) EnsureProof(ctx context.Context, orderID uuid.UUID) error {
	g.calls++
	if g.proofs[orderID] {
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "Packing video proof is mandatory before order can be shipped")
}

type stubAudit struct {
	entries []audit.Entry
}

func (a *stubAudit) LogAdminAction(ctx context.Context, tx *gorm.DB, entry audit.Entry) error {
	a.entries = append(a.entries, entry)
	return nil
}

type recordingNotifier struct {
	userIDs []uuid.UUID
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string, typ enums.NotificationType, audience enums.NotificationAudience) {
	n.userIDs = append(n.userIDs, userID)
}

type fixture struct {
	svc      Service
	repo     *stubOrdersRepo
	gate     *stubGate
	audit    *stubAudit
	notifier *recordingNotifier
}

func newFixture(t *testing.T, orders ...*models.Order) fixture {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	repo := newStubRepo(orders...)
	auditor := &stubAudit{}
	validator, err := orderstate.NewValidator(orderstate.ValidatorParams{
		Store:  repo,
		Audit:  auditor,
		Logger: logg,
	})
	if err != nil {
		t.Fatalf("validator: %v", err)
	}
	gate := &stubGate{proofs: map[uuid.UUID]bool{}}
	notifier := &recordingNotifier{}
	svc, err := NewService(ServiceParams{
		Repository: repo,
		Tx:         stubTx{},
		Validator:  validator,
		ProofGate:  gate,
		Notifier:   notifier,
		Logger:     logg,
	})
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	return fixture{svc: svc, repo: repo, gate: gate, audit: auditor, notifier: notifier}
}

func codOrder(status enums.OrderStatus, vendorID uuid.UUID) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		UserID:      uuid.New(),
		VendorID:    vendorID,
		Status:      status,
		PaymentMode: enums.PaymentModeCOD,
		AddressID:   uuid.New(),
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	if typed == nil {
		t.Fatalf("expected %s error, got %v", code, err)
	}
	if typed.Code() != code {
		t.Fatalf("expected %s, got %s (%s)", code, typed.Code(), typed.Message())
	}
}

func TestUpdateStatusPackingGateScenario(t *testing.T) {
	vendorID := uuid.New()
	order := codOrder(enums.OrderStatusConfirmed, vendorID)
	fx := newFixture(t, order)

	input := UpdateStatusInput{
		OrderID:   order.ID,
		Status:    enums.OrderStatusPacked,
		ActorID:   uuid.New(),
		ActorRole: enums.ActorRoleVendor,
		VendorID:  &vendorID,
	}
	_, err := fx.svc.UpdateStatus(context.Background(), input)
	assertCode(t, err, pkgerrors.CodeValidation)
	if pkgerrors.As(err).Message() != "Packing video proof is mandatory before order can be shipped" {
		t.Fatalf("unexpected message %q", pkgerrors.As(err).Message())
	}
	if fx.repo.orders[order.ID].Status != enums.OrderStatusConfirmed {
		t.Fatalf("status must not change without proof")
	}

	fx.gate.proofs[order.ID] = true
	updated, err := fx.svc.UpdateStatus(context.Background(), input)
	if err != nil {
		t.Fatalf("unexpected error after proof upload: %v", err)
	}
	if updated.Status != enums.OrderStatusPacked {
		t.Fatalf("expected PACKED, got %s", updated.Status)
	}
	if len(fx.notifier.userIDs) != 1 || fx.notifier.userIDs[0] != order.UserID {
		t.Fatalf("expected customer notified once")
	}
}

func TestUpdateStatusGateAppliesToAdminOverride(t *testing.T) {
	order := codOrder(enums.OrderStatusConfirmed, uuid.New())
	fx := newFixture(t, order)

	_, err := fx.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:       order.ID,
		Status:        enums.OrderStatusShipped,
		ActorID:       uuid.New(),
		ActorRole:     enums.ActorRoleSuperAdmin,
		AllowOverride: true,
		Reason:        "courier picked up early",
	})
	assertCode(t, err, pkgerrors.CodeValidation)
	if len(fx.audit.entries) != 0 {
		t.Fatalf("gate must run before any audit write")
	}
}

func TestUpdateStatusGateSkippedForOtherTargets(t *testing.T) {
	order := codOrder(enums.OrderStatusShipped, uuid.New())
	fx := newFixture(t, order)

	updated, err := fx.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Status:    enums.OrderStatusDelivered,
		ActorID:   uuid.New(),
		ActorRole: enums.ActorRoleAdmin,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Status != enums.OrderStatusDelivered {
		t.Fatalf("expected DELIVERED, got %s", updated.Status)
	}
	if fx.gate.calls != 0 {
		t.Fatalf("gate should not run for DELIVERED")
	}
	if len(fx.audit.entries) != 1 {
		t.Fatalf("admin transition should be audited")
	}
}

func TestUpdateStatusVendorOwnership(t *testing.T) {
	order := codOrder(enums.OrderStatusConfirmed, uuid.New())
	fx := newFixture(t, order)
	other := uuid.New()

	_, err := fx.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Status:    enums.OrderStatusPacked,
		ActorID:   uuid.New(),
		ActorRole: enums.ActorRoleVendor,
		VendorID:  &other,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateStatusVendorRoleRestriction(t *testing.T) {
	vendorID := uuid.New()
	order := codOrder(enums.OrderStatusShipped, vendorID)
	fx := newFixture(t, order)

	_, err := fx.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   order.ID,
		Status:    enums.OrderStatusDelivered,
		ActorID:   uuid.New(),
		ActorRole: enums.ActorRoleVendor,
		VendorID:  &vendorID,
	})
	assertCode(t, err, pkgerrors.CodeForbidden)
}

func TestUpdateStatusMissingOrder(t *testing.T) {
	fx := newFixture(t)
	_, err := fx.svc.UpdateStatus(context.Background(), UpdateStatusInput{
		OrderID:   uuid.New(),
		Status:    enums.OrderStatusPacked,
		ActorID:   uuid.New(),
		ActorRole: enums.ActorRoleAdmin,
	})
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestCancelOrder(t *testing.T) {
	t.Run("owner cancels before packing", func(t *testing.T) {
		order := codOrder(enums.OrderStatusConfirmed, uuid.New())
		fx := newFixture(t, order)
		updated, err := fx.svc.CancelOrder(context.Background(), order.ID, order.UserID)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if updated.Status != enums.OrderStatusCancelled {
			t.Fatalf("expected CANCELLED, got %s", updated.Status)
		}
	})

	t.Run("too late once packed", func(t *testing.T) {
		order := codOrder(enums.OrderStatusPacked, uuid.New())
		fx := newFixture(t, order)
		_, err := fx.svc.CancelOrder(context.Background(), order.ID, order.UserID)
		assertCode(t, err, pkgerrors.CodeValidation)
	})

	t.Run("foreign order", func(t *testing.T) {
		order := codOrder(enums.OrderStatusCreated, uuid.New())
		fx := newFixture(t, order)
		_, err := fx.svc.CancelOrder(context.Background(), order.ID, uuid.New())
		assertCode(t, err, pkgerrors.CodeForbidden)
	})
}

func TestGetForCustomerHidesForeignOrders(t *testing.T) {
	order := codOrder(enums.OrderStatusCreated, uuid.New())
	fx := newFixture(t, order)

	if _, err := fx.svc.GetForCustomer(context.Background(), order.ID, order.UserID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := fx.svc.GetForCustomer(context.Background(), order.ID, uuid.New())
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestListOrdersValidatesFilters(t *testing.T) {
	fx := newFixture(t)
	bad := enums.OrderStatus("LOST")
	_, err := fx.svc.ListOrders(context.Background(), pagination.Params{}, ListFilters{Status: &bad})
	assertCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.ListOrders(context.Background(), pagination.Params{Cursor: "%%%"}, ListFilters{})
	assertCode(t, err, pkgerrors.CodeValidation)

	from := time.Now()
	to := from.Add(-time.Hour)
	_, err = fx.svc.ListOrders(context.Background(), pagination.Params{}, ListFilters{DateFrom: &from, DateTo: &to})
	assertCode(t, err, pkgerrors.CodeValidation)
}
