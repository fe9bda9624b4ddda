package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/risbow/risbow-backend/api/controllers"
	ordercontrollers "github.com/risbow/risbow-backend/api/controllers/orders"
	proofcontrollers "github.com/risbow/risbow-backend/api/controllers/packingproof"
	refundcontrollers "github.com/risbow/risbow-backend/api/controllers/refunds"
	returncontrollers "github.com/risbow/risbow-backend/api/controllers/returns"
	"github.com/risbow/risbow-backend/api/middleware"
	"github.com/risbow/risbow-backend/internal/notifications"
	"github.com/risbow/risbow-backend/internal/orders"
	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/enums"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	pkgredis "github.com/risbow/risbow-backend/pkg/redis"
)

// Cache is the Redis surface the HTTP layer needs: idempotency, rate limits and readiness.
type Cache interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	Ping(ctx context.Context) error
}

// PackingProof serves vendor uploads and customer playback.
type PackingProof interface {
	proofcontrollers.Uploader
	proofcontrollers.Signer
}

// Services bundles the domain services exposed over HTTP.
type Services struct {
	Orders        orders.Service
	Returns       returncontrollers.Service
	PackingProof  PackingProof
	Refunds       refundcontrollers.Service
	Overrides     refundcontrollers.Overrider
	Audit         controllers.AuditLister
	Notifications notifications.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	domainMetrics *metrics.Domain,
	gatherer prometheus.Gatherer,
	dbP controllers.Pinger,
	cache Cache,
	gcsClient controllers.Pinger,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.CORS(cfg.App.CORSOrigins),
		middleware.Logging(logg, domainMetrics),
	)

	returnsPolicy := middleware.NewRateLimitPolicy(
		"returns",
		cfg.Returns.CreateWindow,
		cfg.Returns.CreateLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, map[string]controllers.Pinger{
			"db":    dbP,
			"redis": cache,
			"gcs":   gcsClient,
		}))
	})
	if gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(cache, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.CustomerList(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.CustomerDetail(svc.Orders, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.CustomerCancel(svc.Orders, logg))
			r.Get("/{orderId}/packing-video", proofcontrollers.CustomerVideo(svc.PackingProof, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.With(middleware.RateLimit(returnsPolicy, cache, logg)).Post("/", returncontrollers.Create(svc.Returns, logg))
			r.Get("/", returncontrollers.CustomerList(svc.Returns, logg))
			r.Get("/{returnId}", returncontrollers.CustomerDetail(svc.Returns, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRoles(logg, enums.ActorRoleVendor))
			r.Use(middleware.VendorContext(logg))
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", ordercontrollers.VendorList(svc.Orders, logg))
				r.Get("/{orderId}", ordercontrollers.VendorDetail(svc.Orders, logg))
				r.Patch("/{orderId}/status", ordercontrollers.VendorUpdateStatus(svc.Orders, logg))
				r.Post("/{orderId}/packing-video", proofcontrollers.Upload(svc.PackingProof, cfg.PackingProof.MaxVideoBytes(), logg))
			})
			r.Route("/returns", func(r chi.Router) {
				r.Get("/", returncontrollers.VendorList(svc.Returns, logg))
				r.Get("/{returnId}", returncontrollers.VendorDetail(svc.Returns, logg))
				r.Post("/{returnId}/decision", returncontrollers.VendorDecision(svc.Returns, logg))
			})
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(svc.Notifications, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(svc.Notifications, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(svc.Notifications, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRoles(logg, enums.ActorRoleAdmin, enums.ActorRoleSuperAdmin))
		r.Use(middleware.Idempotency(cache, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(svc.Orders, logg))
			r.Get("/{orderId}", ordercontrollers.AdminDetail(svc.Orders, logg))
			r.Patch("/{orderId}/status", ordercontrollers.AdminUpdateStatus(svc.Orders, logg))
			r.Post("/{orderId}/qc", returncontrollers.SubmitQC(svc.Returns, logg))
		})

		r.Route("/returns", func(r chi.Router) {
			r.Get("/", returncontrollers.AdminList(svc.Returns, logg))
			r.Get("/{returnId}", returncontrollers.AdminDetail(svc.Returns, logg))
			r.Patch("/{returnId}/status", returncontrollers.AdminUpdateStatus(svc.Returns, logg))
			r.Post("/{returnId}/ship-replacement", returncontrollers.ShipReplacement(svc.Returns, logg))
		})

		r.Route("/refunds", func(r chi.Router) {
			r.Get("/", refundcontrollers.List(svc.Refunds, logg))
			r.Get("/stats", refundcontrollers.Stats(svc.Refunds, logg))
			r.Get("/{refundId}", refundcontrollers.Detail(svc.Refunds, logg))
			r.Post("/", refundcontrollers.Create(svc.Refunds, logg))
			r.Post("/{refundId}/process", refundcontrollers.Process(svc.Refunds, logg))
			r.Post("/{refundId}/reject", refundcontrollers.Reject(svc.Refunds, logg))
			r.Post("/force", refundcontrollers.Force(svc.Overrides, logg))
		})

		r.Get("/audit-logs", controllers.ListAuditLogs(svc.Audit, logg))
	})

	return r
}
