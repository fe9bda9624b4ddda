package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/internal/notifications"
	"github.com/risbow/risbow-backend/internal/orders"
	internalproof "github.com/risbow/risbow-backend/internal/packingproof"
	internalrefunds "github.com/risbow/risbow-backend/internal/refunds"
	internalreturns "github.com/risbow/risbow-backend/internal/returns"
	pkgAuth "github.com/risbow/risbow-backend/pkg/auth"
	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/db/models"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type stubCache struct {
	values map[string]string
	counts map[string]int64
}

func newStubCache() *stubCache {
	return &stubCache{values: map[string]string{}, counts: map[string]int64{}}
}

func (c *stubCache) Get(_ context.Context, key string) (string, error) {
	if v, ok := c.values[key]; ok {
		return v, nil
	}
	return "", redis.Nil
}

func (c *stubCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	str, _ := value.(string)
	c.values[key] = str
	return nil
}

func (c *stubCache) SetNX(_ context.Context, key string, value any, _ time.Duration) (bool, error) {
	if _, ok := c.values[key]; ok {
		return false, nil
	}
	str, _ := value.(string)
	c.values[key] = str
	return true, nil
}

func (c *stubCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.values, k)
	}
	return nil
}

func (c *stubCache) IdempotencyKey(scope, key string) string {
	return "idem:" + scope + ":" + key
}

func (c *stubCache) IncrWithTTL(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.counts[key]++
	return c.counts[key], nil
}

func (c *stubCache) Ping(context.Context) error { return nil }

type stubOrders struct{}

func (stubOrders) UpdateStatus(context.Context, orders.UpdateStatusInput) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) CancelOrder(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) Get(context.Context, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) GetForCustomer(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) GetForVendor(context.Context, uuid.UUID, uuid.UUID) (*models.Order, error) {
	return &models.Order{}, nil
}

func (stubOrders) ListOrders(context.Context, pagination.Params, orders.ListFilters) (*orders.OrderList, error) {
	return &orders.OrderList{}, nil
}

type stubReturns struct{}

func (stubReturns) Create(context.Context, uuid.UUID, internalreturns.CreateInput) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) FindAll(context.Context, internalreturns.Filters) (*internalreturns.ListResult, error) {
	return &internalreturns.ListResult{}, nil
}

func (stubReturns) FindOne(context.Context, uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) FindOneForUser(context.Context, uuid.UUID, uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) FindOneForVendor(context.Context, uuid.UUID, uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) UpdateStatus(context.Context, uuid.UUID, internalreturns.UpdateStatusInput, internalreturns.Actor) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) VendorDecision(context.Context, uuid.UUID, internalreturns.VendorDecisionInput) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) ShipReplacement(context.Context, uuid.UUID, string, uuid.UUID) (*models.ReturnRequest, error) {
	return &models.ReturnRequest{}, nil
}

func (stubReturns) SubmitQCChecklist(context.Context, uuid.UUID, uuid.UUID, internalreturns.QCInput) (*internalreturns.QCResult, error) {
	return &internalreturns.QCResult{}, nil
}

type stubProof struct{}

func (stubProof) UploadPackingVideo(context.Context, internalproof.UploadInput) (*internalproof.UploadResult, error) {
	return &internalproof.UploadResult{}, nil
}

func (stubProof) GetSignedVideoURLForCustomer(context.Context, uuid.UUID, uuid.UUID) (*internalproof.SignedVideo, error) {
	return &internalproof.SignedVideo{}, nil
}

type stubRefunds struct{}

func (stubRefunds) Create(context.Context, internalrefunds.CreateInput) (*models.Refund, error) {
	return nil, internalrefunds.Block(internalrefunds.OperationCreate, nil)
}

func (stubRefunds) ProcessRefund(context.Context, uuid.UUID, *internalrefunds.OverrideRequest) (*models.Refund, error) {
	return nil, internalrefunds.Block(internalrefunds.OperationProcess, nil)
}

func (stubRefunds) RejectRefund(context.Context, uuid.UUID, string) (*models.Refund, error) {
	return nil, internalrefunds.Block(internalrefunds.OperationReject, nil)
}

func (stubRefunds) FindAll(context.Context, internalrefunds.Filters) (*internalrefunds.ListResult, error) {
	return &internalrefunds.ListResult{}, nil
}

func (stubRefunds) FindOne(context.Context, uuid.UUID) (*models.Refund, error) {
	return &models.Refund{}, nil
}

func (stubRefunds) GetStats(context.Context, internalrefunds.StatsFilters) (*internalrefunds.Stats, error) {
	return &internalrefunds.Stats{}, nil
}

type stubOverrides struct{}

func (stubOverrides) ForceRefund(context.Context, internalrefunds.ForceRefundInput) (*models.Refund, error) {
	return &models.Refund{}, nil
}

type stubAudit struct{}

func (stubAudit) List(context.Context, audit.ListParams) (*audit.ListResult, error) {
	return &audit.ListResult{}, nil
}

type stubNotifications struct{}

func (stubNotifications) CreateNotification(context.Context, notifications.CreateInput) (*models.Notification, error) {
	return &models.Notification{}, nil
}

func (stubNotifications) List(context.Context, notifications.ListParams) (*notifications.ListResult, error) {
	return &notifications.ListResult{}, nil
}

func (stubNotifications) MarkRead(context.Context, uuid.UUID, uuid.UUID) error { return nil }

func (stubNotifications) MarkAllRead(context.Context, uuid.UUID) (int64, error) { return 0, nil }

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Env = "test"
	cfg.JWT = config.JWTConfig{Secret: "router-secret", Issuer: "risbow-test", ExpirationMinutes: 5}
	cfg.Returns.CreateLimit = 2
	cfg.Returns.CreateWindow = time.Hour
	return cfg
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()
	reg := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	return NewRouter(cfg, logg, metrics.NewDomain(reg), reg, stubPinger{}, newStubCache(), stubPinger{}, Services{
		Orders:        stubOrders{},
		Returns:       stubReturns{},
		PackingProof:  stubProof{},
		Refunds:       stubRefunds{},
		Overrides:     stubOverrides{},
		Audit:         stubAudit{},
		Notifications: stubNotifications{},
	})
}

func bearer(t *testing.T, cfg *config.Config, role enums.ActorRole, vendorID *uuid.UUID) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		Role:     role,
		VendorID: vendorID,
		JTI:      uuid.NewString(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return "Bearer " + token
}

func TestHealthRoutes(t *testing.T) {
	router := newTestRouter(t, testConfig())
	for _, path := range []string{"/health/live", "/health/ready"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, rec.Code)
		}
	}
}

func TestMetricsRoute(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rec.Code)
	}
}

func TestCustomerRoutesRequireAuth(t *testing.T) {
	router := newTestRouter(t, testConfig())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/orders", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", rec.Code)
	}
}

func TestAdminRoutesRejectCustomers(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/orders", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.ActorRoleCustomer, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", rec.Code)
	}
}

func TestVendorRoutesRequireVendorScope(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.ActorRoleCustomer, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("customer: expected 403 got %d", rec.Code)
	}

	vendorID := uuid.New()
	req = httptest.NewRequest(http.MethodGet, "/api/v1/vendor/orders", nil)
	req.Header.Set("Authorization", bearer(t, cfg, enums.ActorRoleVendor, &vendorID))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("vendor: expected 200 got %d", rec.Code)
	}
}

func TestAdminRefundCreateIsBlocked(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	body := `{"orderId":"` + uuid.NewString() + `","amount":"10.00","method":"ORIGINAL_PAYMENT","reason":"damaged"}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/refunds", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", bearer(t, cfg, enums.ActorRoleAdmin, nil))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501 got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), internalrefunds.BlockedMessage) {
		t.Fatalf("expected blocked message in body: %s", rec.Body.String())
	}
}

func TestReturnCreateIsRateLimited(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := bearer(t, cfg, enums.ActorRoleCustomer, nil)

	var last int
	for i := 0; i < cfg.Returns.CreateLimit+1; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/returns", strings.NewReader(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", token)
		req.Header.Set("Idempotency-Key", uuid.NewString())
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on the last attempt got %d", last)
	}
}
