package returns

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/internal/inventory"
	"github.com/risbow/risbow-backend/internal/orders"
	"github.com/risbow/risbow-backend/internal/orderstate"
	"github.com/risbow/risbow-backend/pkg/db"
	"github.com/risbow/risbow-backend/pkg/db/dbtest"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	pkgerrors "github.com/risbow/risbow-backend/pkg/errors"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/outbox"
)

type recordingNotifier struct {
	userIDs []uuid.UUID
}

func (n *recordingNotifier) Notify(ctx context.Context, userID uuid.UUID, title, body string, typ enums.NotificationType, audience enums.NotificationAudience) {
	n.userIDs = append(n.userIDs, userID)
}

type stubCounter struct {
	calls map[string]int64
}

func (c *stubCounter) IncrementVendorReturns(ctx context.Context, vendorID string, ttl time.Duration) (int64, error) {
	c.calls[vendorID]++
	return c.calls[vendorID], nil
}

type fixture struct {
	svc      *Service
	conn     *gorm.DB
	orders   orders.Repository
	notifier *recordingNotifier
	counter  *stubCounter

	vendor     *models.Vendor
	vendorUser uuid.UUID
	product    *models.Product
	customer   uuid.UUID
	adminID    uuid.UUID
}

func newFixture(t *testing.T, stock int) *fixture {
	t.Helper()
	conn := dbtest.Open(t)
	logg := logger.New(logger.Options{ServiceName: "returns-test", Output: io.Discard})

	auditSvc, err := audit.NewService(audit.NewRepository(conn), logg)
	require.NoError(t, err)
	events := outbox.NewEmitter(outbox.NewRepository(conn), nil)
	ordersRepo := orders.NewRepository(conn)
	validator, err := orderstate.NewValidator(orderstate.ValidatorParams{
		Store:  ordersRepo,
		Audit:  auditSvc,
		Events: events,
		Logger: logg,
	})
	require.NoError(t, err)

	fx := &fixture{
		conn:     conn,
		orders:   ordersRepo,
		notifier: &recordingNotifier{},
		counter:  &stubCounter{calls: map[string]int64{}},
		customer: uuid.New(),
		adminID:  uuid.New(),
	}
	fx.svc, err = NewService(ServiceParams{
		Repository:       NewRepository(conn),
		Orders:           ordersRepo,
		Inventory:        inventory.NewAdapter(conn),
		OrderTransitions: validator,
		Tx:               db.FromConn(conn),
		Events:           events,
		Audit:            auditSvc,
		Notifier:         fx.notifier,
		Counter:          fx.counter,
		Logger:           logg,
	})
	require.NoError(t, err)

	fx.vendorUser = uuid.New()
	fx.vendor = &models.Vendor{Name: "Acme Audio", UserID: &fx.vendorUser}
	require.NoError(t, conn.Create(fx.vendor).Error)
	fx.product = &models.Product{VendorID: fx.vendor.ID, Name: "Headphones", Stock: stock}
	require.NoError(t, conn.Create(fx.product).Error)
	return fx
}

func (fx *fixture) seedOrder(t *testing.T, status enums.OrderStatus, qty int) *models.Order {
	t.Helper()
	roomID := uuid.New()
	order, err := fx.orders.Create(context.Background(), &models.Order{
		UserID:      fx.customer,
		VendorID:    fx.vendor.ID,
		Status:      status,
		PaymentMode: enums.PaymentModeOnline,
		TotalAmount: decimal.NewFromInt(int64(1500 * qty)),
		AddressID:   uuid.New(),
		RoomID:      &roomID,
		Items: models.OrderItems{{
			ProductID: fx.product.ID,
			VendorID:  fx.vendor.ID,
			Name:      fx.product.Name,
			Quantity:  qty,
			Price:     decimal.NewFromInt(1500),
		}},
	})
	require.NoError(t, err)
	return order
}

func (fx *fixture) createInput(order *models.Order, qty int) CreateInput {
	return CreateInput{
		OrderID: order.ID,
		Reason:  enums.ReturnReasonDefective,
		Items: []CreateItemInput{{
			ProductID: fx.product.ID,
			Quantity:  qty,
			Condition: enums.ReturnItemConditionOpened,
		}},
	}
}

func (fx *fixture) openReturn(t *testing.T, qty int) (*models.Order, *models.ReturnRequest) {
	t.Helper()
	order := fx.seedOrder(t, enums.OrderStatusDelivered, qty)
	ret, err := fx.svc.Create(context.Background(), fx.customer, fx.createInput(order, qty))
	require.NoError(t, err)
	return order, ret
}

func (fx *fixture) approve(t *testing.T, ret *models.ReturnRequest) *models.ReturnRequest {
	t.Helper()
	updated, err := fx.svc.VendorDecision(context.Background(), ret.ID, VendorDecisionInput{
		VendorID: fx.vendor.ID,
		ActorID:  fx.vendorUser,
		Approve:  true,
	})
	require.NoError(t, err)
	return updated
}

func (fx *fixture) stock(t *testing.T) int {
	t.Helper()
	var product models.Product
	require.NoError(t, fx.conn.First(&product, "id = ?", fx.product.ID).Error)
	return product.Stock
}

func (fx *fixture) replacements(t *testing.T, returnID uuid.UUID) []models.ReplacementOrder {
	t.Helper()
	var links []models.ReplacementOrder
	require.NoError(t, fx.conn.Where("return_id = ?", returnID).Find(&links).Error)
	return links
}

func (fx *fixture) eventCount(t *testing.T, eventType enums.OutboxEventType) int64 {
	t.Helper()
	var count int64
	require.NoError(t, fx.conn.Model(&models.OutboxEvent{}).Where("event_type = ?", eventType).Count(&count).Error)
	return count
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected typed error, got %v", err)
	assert.Equal(t, code, typed.Code(), typed.Message())
}

func TestCreateReturn(t *testing.T) {
	fx := newFixture(t, 10)
	order, ret := fx.openReturn(t, 2)

	assert.Equal(t, enums.ReturnStatusPendingApproval, ret.Status)
	assert.Equal(t, fx.vendor.ID, ret.VendorID)
	assert.Equal(t, order.ID, ret.OrderID)
	assert.True(t, strings.HasPrefix(ret.ReturnNumber, "RET-"), ret.ReturnNumber)
	assert.Len(t, ret.ReturnNumber, len("RET-20260101-ABCDEF12"))

	stored, err := fx.svc.FindOne(context.Background(), ret.ID)
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	require.Len(t, stored.Timeline, 1)
	assert.Equal(t, "RETURN_REQUESTED", stored.Timeline[0].Action)
	assert.Equal(t, enums.ActorRoleCustomer, stored.Timeline[0].PerformedBy)

	assert.EqualValues(t, 1, fx.eventCount(t, enums.EventReturnRequested))
	assert.EqualValues(t, 1, fx.counter.calls[fx.vendor.ID.String()])
	assert.Contains(t, fx.notifier.userIDs, fx.vendorUser)

	var fresh models.Order
	require.NoError(t, fx.conn.First(&fresh, "id = ?", order.ID).Error)
	assert.Equal(t, enums.OrderStatusDelivered, fresh.Status)
}

func TestCreateReturnRejections(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	delivered := fx.seedOrder(t, enums.OrderStatusDelivered, 2)
	shipped := fx.seedOrder(t, enums.OrderStatusShipped, 2)

	cases := []struct {
		name   string
		userID uuid.UUID
		input  CreateInput
		code   pkgerrors.Code
	}{
		{"order not delivered", fx.customer, fx.createInput(shipped, 1), pkgerrors.CodeValidation},
		{"foreign order", uuid.New(), fx.createInput(delivered, 1), pkgerrors.CodeForbidden},
		{"missing order", fx.customer, CreateInput{
			OrderID: uuid.New(),
			Reason:  enums.ReturnReasonDefective,
			Items:   fx.createInput(delivered, 1).Items,
		}, pkgerrors.CodeNotFound},
		{"more than purchased", fx.customer, fx.createInput(delivered, 3), pkgerrors.CodeValidation},
		{"repeated lines exceed purchase", fx.customer, CreateInput{
			OrderID: delivered.ID,
			Reason:  enums.ReturnReasonDefective,
			Items: append(fx.createInput(delivered, 2).Items,
				fx.createInput(delivered, 1).Items...),
		}, pkgerrors.CodeValidation},
		{"product not on order", fx.customer, CreateInput{
			OrderID: delivered.ID,
			Reason:  enums.ReturnReasonDefective,
			Items:   []CreateItemInput{{ProductID: uuid.New(), Quantity: 1, Condition: enums.ReturnItemConditionUsed}},
		}, pkgerrors.CodeValidation},
		{"no items", fx.customer, CreateInput{OrderID: delivered.ID, Reason: enums.ReturnReasonDefective}, pkgerrors.CodeValidation},
		{"bad reason", fx.customer, CreateInput{
			OrderID: delivered.ID,
			Reason:  "BORED",
			Items:   fx.createInput(delivered, 1).Items,
		}, pkgerrors.CodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := fx.svc.Create(ctx, tc.userID, tc.input)
			requireCode(t, err, tc.code)
		})
	}

	_, err := fx.svc.Create(ctx, fx.customer, fx.createInput(delivered, 1))
	require.NoError(t, err)
	_, err = fx.svc.Create(ctx, fx.customer, fx.createInput(delivered, 1))
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestRepeatedLinesWithinPurchaseAreAccepted(t *testing.T) {
	fx := newFixture(t, 10)
	order := fx.seedOrder(t, enums.OrderStatusDelivered, 2)
	input := fx.createInput(order, 1)
	input.Items = append(input.Items, fx.createInput(order, 1).Items...)

	ret, err := fx.svc.Create(context.Background(), fx.customer, input)
	require.NoError(t, err)
	fx.approve(t, ret)
	assert.Equal(t, 8, fx.stock(t))
}

func TestApproveTwoItemReturnDeductsEachProduct(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	cable := &models.Product{VendorID: fx.vendor.ID, Name: "Cable", Stock: 5}
	require.NoError(t, fx.conn.Create(cable).Error)

	order, err := fx.orders.Create(ctx, &models.Order{
		UserID:      fx.customer,
		VendorID:    fx.vendor.ID,
		Status:      enums.OrderStatusDelivered,
		PaymentMode: enums.PaymentModeCOD,
		TotalAmount: decimal.NewFromInt(1700),
		AddressID:   uuid.New(),
		Items: models.OrderItems{
			{ProductID: fx.product.ID, VendorID: fx.vendor.ID, Name: fx.product.Name, Quantity: 1, Price: decimal.NewFromInt(1500)},
			{ProductID: cable.ID, VendorID: fx.vendor.ID, Name: cable.Name, Quantity: 1, Price: decimal.NewFromInt(200)},
		},
	})
	require.NoError(t, err)

	ret, err := fx.svc.Create(ctx, fx.customer, CreateInput{
		OrderID: order.ID,
		Reason:  enums.ReturnReasonDefective,
		Items: []CreateItemInput{
			{ProductID: fx.product.ID, Quantity: 1, Condition: enums.ReturnItemConditionOpened},
			{ProductID: cable.ID, Quantity: 1, Condition: enums.ReturnItemConditionUnopened},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusPendingApproval, ret.Status)

	stored, err := fx.svc.FindOne(ctx, ret.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Items, 2)
	assert.Len(t, stored.Timeline, 1)

	approved := fx.approve(t, ret)
	assert.Equal(t, enums.ReturnStatusApproved, approved.Status)

	links := fx.replacements(t, ret.ID)
	require.Len(t, links, 1)
	replacement, err := fx.orders.FindByID(ctx, links[0].NewOrderID)
	require.NoError(t, err)
	assert.True(t, replacement.TotalAmount.IsZero())

	assert.Equal(t, 9, fx.stock(t))
	var fresh models.Product
	require.NoError(t, fx.conn.First(&fresh, "id = ?", cable.ID).Error)
	assert.Equal(t, 4, fresh.Stock)
}

func TestFindAllErrorCodes(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()

	_, err := fx.svc.FindAll(ctx, Filters{Cursor: "not-a-cursor"})
	requireCode(t, err, pkgerrors.CodeValidation)

	sqlDB, err := fx.conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	_, err = fx.svc.FindAll(ctx, Filters{})
	requireCode(t, err, pkgerrors.CodeDependency)
}

func TestApproveCreatesReplacementOnce(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	order, ret := fx.openReturn(t, 2)

	approved := fx.approve(t, ret)
	assert.Equal(t, enums.ReturnStatusApproved, approved.Status)
	assert.Equal(t, 8, fx.stock(t))

	links := fx.replacements(t, ret.ID)
	require.Len(t, links, 1)
	assert.Equal(t, order.ID, links[0].OriginalOrderID)

	replacement, err := fx.orders.FindByID(ctx, links[0].NewOrderID)
	require.NoError(t, err)
	assert.True(t, replacement.IsReplacement)
	assert.True(t, replacement.TotalAmount.IsZero())
	assert.Equal(t, enums.OrderStatusConfirmed, replacement.Status)
	assert.Equal(t, enums.PaymentModeCOD, replacement.PaymentMode)
	assert.Equal(t, order.AddressID, replacement.AddressID)
	assert.Equal(t, order.RoomID, replacement.RoomID)

	original, err := fx.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusReplaced, original.Status)

	again, err := fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusApproved},
		Actor{ID: fx.adminID, Role: enums.ActorRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusApproved, again.Status)
	assert.Len(t, fx.replacements(t, ret.ID), 1)
	assert.Equal(t, 8, fx.stock(t))
	assert.EqualValues(t, 1, fx.eventCount(t, enums.EventReplacementOrderCreated))

	_, err = fx.svc.VendorDecision(ctx, ret.ID, VendorDecisionInput{VendorID: fx.vendor.ID, ActorID: fx.vendorUser, Approve: true})
	requireCode(t, err, pkgerrors.CodeValidation)
	assert.Equal(t, "return already processed", pkgerrors.As(err).Message())

	assert.Contains(t, fx.notifier.userIDs, fx.customer)
}

func TestApproveRollsBackWhenStockIsShort(t *testing.T) {
	fx := newFixture(t, 1)
	ctx := context.Background()
	order, ret := fx.openReturn(t, 2)

	_, err := fx.svc.VendorDecision(ctx, ret.ID, VendorDecisionInput{VendorID: fx.vendor.ID, ActorID: fx.vendorUser, Approve: true})
	requireCode(t, err, pkgerrors.CodeValidation)

	stored, err := fx.svc.FindOne(ctx, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusPendingApproval, stored.Status)
	assert.Len(t, stored.Timeline, 1)
	assert.Empty(t, fx.replacements(t, ret.ID))
	assert.Equal(t, 1, fx.stock(t))

	original, err := fx.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.OrderStatusDelivered, original.Status)

	var orderCount int64
	require.NoError(t, fx.conn.Model(&models.Order{}).Count(&orderCount).Error)
	assert.EqualValues(t, 1, orderCount)
}

func TestVendorDecision(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	order, ret := fx.openReturn(t, 1)

	_, err := fx.svc.VendorDecision(ctx, ret.ID, VendorDecisionInput{VendorID: uuid.New(), ActorID: uuid.New(), Approve: true})
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = fx.svc.VendorDecision(ctx, ret.ID, VendorDecisionInput{VendorID: fx.vendor.ID, ActorID: fx.vendorUser})
	requireCode(t, err, pkgerrors.CodeValidation)

	rejected, err := fx.svc.VendorDecision(ctx, ret.ID, VendorDecisionInput{
		VendorID: fx.vendor.ID,
		ActorID:  fx.vendorUser,
		Reason:   "item shows customer damage",
	})
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "item shows customer damage", *rejected.RejectionReason)
	assert.Empty(t, fx.replacements(t, ret.ID))

	// a rejected return no longer blocks a new one
	_, err = fx.svc.Create(ctx, fx.customer, fx.createInput(order, 1))
	require.NoError(t, err)
}

func TestUpdateStatusGuards(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	_, ret := fx.openReturn(t, 1)
	admin := Actor{ID: fx.adminID, Role: enums.ActorRoleAdmin}

	_, err := fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusQCPassed}, admin)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusRejected}, admin)
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusApproved},
		Actor{ID: fx.customer, Role: enums.ActorRoleCustomer})
	requireCode(t, err, pkgerrors.CodeForbidden)

	_, err = fx.svc.UpdateStatus(ctx, uuid.New(), UpdateStatusInput{Status: enums.ReturnStatusApproved}, admin)
	requireCode(t, err, pkgerrors.CodeNotFound)

	approved, err := fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusApproved}, admin)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusApproved, approved.Status)
	require.Len(t, approved.Timeline, 2)
	assert.Equal(t, enums.ActorRoleAdmin, approved.Timeline[1].PerformedBy)

	var audits int64
	require.NoError(t, fx.conn.Model(&models.AuditLog{}).
		Where("action = ? AND entity_id = ?", audit.ActionReturnStatusChanged, ret.ID.String()).
		Count(&audits).Error)
	assert.EqualValues(t, 1, audits)
}

func TestQCPassRestocksOnce(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	order, ret := fx.openReturn(t, 2)
	fx.approve(t, ret)
	require.Equal(t, 8, fx.stock(t))

	inspector := uuid.New()
	input := QCInput{
		Variant:               enums.QCChecklistVariantCondition,
		IsUnused:              true,
		AllAccessoriesPresent: true,
	}
	result, err := fx.svc.SubmitQCChecklist(ctx, order.ID, inspector, input)
	require.NoError(t, err)
	assert.Equal(t, enums.QCStatusPassed, result.Checklist.Status)
	require.NotNil(t, result.Return)
	assert.Equal(t, enums.ReturnStatusQCPassed, result.Return.Status)
	assert.Equal(t, 10, fx.stock(t))

	stored, err := fx.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.NotNil(t, stored.ReturnReceivedAt)

	result, err = fx.svc.SubmitQCChecklist(ctx, order.ID, inspector, input)
	require.NoError(t, err)
	assert.Nil(t, result.Return)
	assert.Equal(t, 10, fx.stock(t))

	_, err = fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusQCPassed},
		Actor{ID: fx.adminID, Role: enums.ActorRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, 10, fx.stock(t))

	var checklists int64
	require.NoError(t, fx.conn.Model(&models.ReturnQCChecklist{}).Where("order_id = ?", order.ID).Count(&checklists).Error)
	assert.EqualValues(t, 1, checklists)
}

func TestQCFailLeavesStockAndOrder(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	order, ret := fx.openReturn(t, 2)
	fx.approve(t, ret)

	result, err := fx.svc.SubmitQCChecklist(ctx, order.ID, uuid.New(), QCInput{
		Variant:          enums.QCChecklistVariantBoxIntegrity,
		IsBrandBoxIntact: false,
		IsProductIntact:  true,
	})
	require.NoError(t, err)
	assert.Equal(t, enums.QCStatusFailed, result.Checklist.Status)
	require.NotNil(t, result.Return)
	assert.Equal(t, enums.ReturnStatusQCFailed, result.Return.Status)
	assert.Equal(t, 8, fx.stock(t))

	stored, err := fx.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReturnReceivedAt)
	assert.Equal(t, enums.OrderStatusReplaced, stored.Status)
}

func TestQCVerdictCannotBeOverturned(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	order, ret := fx.openReturn(t, 2)
	fx.approve(t, ret)

	inspector := uuid.New()
	failing := QCInput{Variant: enums.QCChecklistVariantBoxIntegrity, IsProductIntact: true}
	passing := QCInput{Variant: enums.QCChecklistVariantBoxIntegrity, IsBrandBoxIntact: true, IsProductIntact: true}

	_, err := fx.svc.SubmitQCChecklist(ctx, order.ID, inspector, failing)
	require.NoError(t, err)

	_, err = fx.svc.SubmitQCChecklist(ctx, order.ID, inspector, passing)
	requireCode(t, err, pkgerrors.CodeValidation)

	var checklist models.ReturnQCChecklist
	require.NoError(t, fx.conn.First(&checklist, "order_id = ?", order.ID).Error)
	assert.Equal(t, enums.QCStatusFailed, checklist.Status)
	stored, err := fx.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Nil(t, stored.ReturnReceivedAt)
	assert.Equal(t, 8, fx.stock(t))

	result, err := fx.svc.SubmitQCChecklist(ctx, order.ID, inspector, failing)
	require.NoError(t, err)
	assert.Nil(t, result.Return)
	assert.Equal(t, enums.QCStatusFailed, result.Checklist.Status)

	current, err := fx.svc.FindOne(ctx, ret.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusQCFailed, current.Status)
}

func TestShipReplacement(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	_, ret := fx.openReturn(t, 1)

	_, err := fx.svc.ShipReplacement(ctx, ret.ID, "AWB-1", fx.adminID)
	requireCode(t, err, pkgerrors.CodeValidation)

	fx.approve(t, ret)
	_, err = fx.svc.ShipReplacement(ctx, ret.ID, "  ", fx.adminID)
	requireCode(t, err, pkgerrors.CodeValidation)

	shipped, err := fx.svc.ShipReplacement(ctx, ret.ID, "AWB-1", fx.adminID)
	require.NoError(t, err)
	assert.Equal(t, enums.ReturnStatusReplacementShipped, shipped.Status)
	require.NotNil(t, shipped.ReplacementTrackingID)
	assert.Equal(t, "AWB-1", *shipped.ReplacementTrackingID)
	assert.Len(t, shipped.Timeline, 3)

	var audits int64
	require.NoError(t, fx.conn.Model(&models.AuditLog{}).
		Where("action = ?", audit.ActionReplacementShipped).
		Count(&audits).Error)
	assert.EqualValues(t, 1, audits)

	_, err = fx.svc.UpdateStatus(ctx, ret.ID, UpdateStatusInput{Status: enums.ReturnStatusQCPassed},
		Actor{ID: fx.adminID, Role: enums.ActorRoleAdmin})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestScopedReads(t *testing.T) {
	fx := newFixture(t, 10)
	ctx := context.Background()
	_, ret := fx.openReturn(t, 1)

	_, err := fx.svc.FindOneForUser(ctx, ret.ID, fx.customer)
	require.NoError(t, err)
	_, err = fx.svc.FindOneForUser(ctx, ret.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	_, err = fx.svc.FindOneForVendor(ctx, ret.ID, fx.vendor.ID)
	require.NoError(t, err)
	_, err = fx.svc.FindOneForVendor(ctx, ret.ID, uuid.New())
	requireCode(t, err, pkgerrors.CodeNotFound)

	vendorID := fx.vendor.ID
	list, err := fx.svc.FindAll(ctx, Filters{VendorID: &vendorID})
	require.NoError(t, err)
	require.Len(t, list.Items, 1)

	other := uuid.New()
	list, err = fx.svc.FindAll(ctx, Filters{VendorID: &other})
	require.NoError(t, err)
	assert.Empty(t, list.Items)

	bad := enums.ReturnStatus("LOST")
	_, err = fx.svc.FindAll(ctx, Filters{Status: &bad})
	requireCode(t, err, pkgerrors.CodeValidation)
}
