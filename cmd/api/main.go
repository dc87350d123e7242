package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"

	"github.com/pshiva123/Intelligent-Diagnosis-System/api/routes"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/backend"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/catalog"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/checkout"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/diagnosis"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/patients"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/razorpay"
	"github.com/pshiva123/Intelligent-Diagnosis-System/internal/support"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/config"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/db"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/instance"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/logger"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/metrics"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/migrate"
	"github.com/pshiva123/Intelligent-Diagnosis-System/pkg/redis"
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
		Instance:    instance.GetID(),
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		logg.Error(ctx, "failed to run dev migrations", err)
		os.Exit(1)
	}

	var (
		redisClient  *redis.Client
		snapshots    patients.SnapshotStore = patients.NewMemoryStore()
		catalogCache catalog.Cache          = catalog.NewMemoryCache(cfg.Backend.CatalogTTL)
	)
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		snapshots = patients.NewRedisStore(redisClient, cfg.Redis.CartTTL)
		catalogCache = catalog.NewRedisCache(redisClient, cfg.Backend.CatalogTTL)
	} else {
		logg.Warn(ctx, "redis not configured, carts are kept in memory and idempotency is off")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	predictionMetrics := metrics.NewPredictionMetrics(registry)

	backendClient, err := backend.NewClient(ctx, cfg.Backend, logg)
	if err != nil {
		logg.Error(ctx, "failed to create backend client", err)
		os.Exit(1)
	}

	gateway, err := razorpay.NewGateway(cfg.Razorpay, nil, logg)
	if err != nil {
		logg.Error(ctx, "failed to create payment gateway", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(backendClient, catalogCache, logg)
	if err != nil {
		logg.Error(ctx, "failed to create catalog service", err)
		os.Exit(1)
	}

	diagnosisService, err := diagnosis.NewService(backendClient, diagnosis.Options{
		MaxTextLength: cfg.Diagnosis.MaxTextLength,
		Logger:        logg,
		Metrics:       predictionMetrics,
	})
	if err != nil {
		logg.Error(ctx, "failed to create diagnosis service", err)
		os.Exit(1)
	}

	supportService := support.NewService(support.NewRepository(dbClient.DB()), logg)

	workspaces, err := patients.NewRegistry(patients.Deps{
		Gateway:   gateway,
		Callbacks: gateway,
		Orders:    backendClient,
		Verifier:  backendClient,
		Merchant:  razorpay.MerchantFromConfig(cfg.Razorpay),
		Diagnoser: diagnosisService,
		Snapshots: snapshots,
		Observers: []checkout.Observer{supportService, checkout.MetricsObserver(checkoutMetrics)},
		Phases:    checkoutMetrics,
		Logger:    logg,

		AbandonAfter: cfg.Razorpay.SessionTimeout,
	})
	if err != nil {
		logg.Error(ctx, "failed to create patient registry", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	serverCtx := logg.WithFields(ctx, map[string]any{
		"env":           cfg.App.Env,
		"addr":          addr,
		"db_driver":     dbClient.Driver(),
		"redis_enabled": redisClient != nil,
	})
	logg.Info(serverCtx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		ReadHeaderTimeout: 10 * time.Second,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			workspaces,
			catalogService,
			supportService,
			httpMetrics,
			registry,
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
		}
		close(serveErr)
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(serverCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(serverCtx, "shutting down api server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	closeErr := server.Shutdown(shutdownCtx)
	closeErr = multierr.Append(closeErr, workspaces.Close(shutdownCtx))
	if redisClient != nil {
		closeErr = multierr.Append(closeErr, redisClient.Close())
	}
	closeErr = multierr.Append(closeErr, dbClient.Close())
	if closeErr != nil {
		logg.Error(shutdownCtx, "error during shutdown", closeErr)
		exitCode = 1
	}

	if exitCode != 0 {
		stop()
		os.Exit(exitCode)
	}
}
