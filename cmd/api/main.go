package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/risbow/risbow-backend/api/routes"
	"github.com/risbow/risbow-backend/internal/audit"
	"github.com/risbow/risbow-backend/internal/inventory"
	"github.com/risbow/risbow-backend/internal/notifications"
	"github.com/risbow/risbow-backend/internal/orders"
	"github.com/risbow/risbow-backend/internal/orderstate"
	"github.com/risbow/risbow-backend/internal/packingproof"
	"github.com/risbow/risbow-backend/internal/refunds"
	"github.com/risbow/risbow-backend/internal/returns"
	"github.com/risbow/risbow-backend/pkg/config"
	"github.com/risbow/risbow-backend/pkg/db"
	"github.com/risbow/risbow-backend/pkg/logger"
	"github.com/risbow/risbow-backend/pkg/metrics"
	"github.com/risbow/risbow-backend/pkg/migrate"
	"github.com/risbow/risbow-backend/pkg/outbox"
	"github.com/risbow/risbow-backend/pkg/redis"
	"github.com/risbow/risbow-backend/pkg/storage/gcs"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	if err := run(cfg, logg); err != nil {
		logg.Error(context.Background(), "api exited with error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logg *logger.Logger) (err error) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, dbClient.Close()) }()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return err
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, redisClient.Close()) }()

	gcsClient, err := gcs.NewClient(ctx, cfg.GCS, cfg.GCP, logg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, gcsClient.Close()) }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	domainMetrics := metrics.NewDomain(registry)

	svcs, err := buildServices(cfg, logg, domainMetrics, dbClient, redisClient, gcsClient)
	if err != nil {
		return err
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "addr": addr})

	server := &http.Server{
		Addr:              addr,
		Handler:           routes.NewRouter(cfg, logg, domainMetrics, registry, dbClient, redisClient, gcsClient, svcs),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logg.Info(logCtx, "shutting down api server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildServices(
	cfg *config.Config,
	logg *logger.Logger,
	domainMetrics *metrics.Domain,
	dbClient *db.Client,
	redisClient *redis.Client,
	gcsClient *gcs.Client,
) (routes.Services, error) {
	gdb := dbClient.DB()

	auditSvc, err := audit.NewService(audit.NewRepository(gdb), logg)
	if err != nil {
		return routes.Services{}, err
	}
	notificationSvc, err := notifications.NewService(notifications.NewRepository(gdb))
	if err != nil {
		return routes.Services{}, err
	}
	dispatcher := notifications.NewDispatcher(notificationSvc, logg)
	events := outbox.NewEmitter(outbox.NewRepository(gdb), logg)

	ordersRepo := orders.NewRepository(gdb)
	validator, err := orderstate.NewValidator(orderstate.ValidatorParams{
		Machine: orderstate.NewMachine(),
		Store:   ordersRepo,
		Audit:   auditSvc,
		Events:  events,
		Metrics: domainMetrics,
		Logger:  logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	proofSvc, err := packingproof.NewService(packingproof.ServiceParams{
		Repository:    packingproof.NewRepository(gdb),
		Orders:        ordersRepo,
		Storage:       gcsClient,
		Tx:            dbClient,
		Events:        events,
		Metrics:       domainMetrics,
		Logger:        logg,
		Bucket:        cfg.GCS.BucketName,
		KeyPrefix:     cfg.PackingProof.KeyPrefix,
		MaxVideoBytes: cfg.PackingProof.MaxVideoBytes(),
		URLTTL:        cfg.GCS.DownloadURLExpiry,
	})
	if err != nil {
		return routes.Services{}, err
	}

	ordersSvc, err := orders.NewService(orders.ServiceParams{
		Repository: ordersRepo,
		Tx:         dbClient,
		Validator:  validator,
		ProofGate:  proofSvc,
		Notifier:   dispatcher,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	returnsSvc, err := returns.NewService(returns.ServiceParams{
		Repository:       returns.NewRepository(gdb),
		Orders:           ordersRepo,
		Inventory:        inventory.NewAdapter(gdb),
		OrderTransitions: validator,
		Tx:               dbClient,
		Events:           events,
		Audit:            auditSvc,
		Notifier:         dispatcher,
		Counter:          redisClient,
		Metrics:          domainMetrics,
		Logger:           logg,
		NumberPrefix:     cfg.Returns.NumberPrefix,
		CounterTTL:       cfg.Returns.CounterTTL,
	})
	if err != nil {
		return routes.Services{}, err
	}

	refundsRepo := refunds.NewRepository(gdb)
	refundSvc, err := refunds.NewService(refundsRepo, domainMetrics, logg)
	if err != nil {
		return routes.Services{}, err
	}
	overrideSvc, err := refunds.NewOverrideService(refunds.OverrideParams{
		Repository: refundsRepo,
		Orders:     ordersRepo,
		Tx:         dbClient,
		Audit:      auditSvc,
		Events:     events,
		Metrics:    domainMetrics,
		Logger:     logg,
	})
	if err != nil {
		return routes.Services{}, err
	}

	return routes.Services{
		Orders:        ordersSvc,
		Returns:       returnsSvc,
		PackingProof:  proofSvc,
		Refunds:       refundSvc,
		Overrides:     overrideSvc,
		Audit:         auditSvc,
		Notifications: notificationSvc,
	}, nil
}
