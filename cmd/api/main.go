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
	"go.uber.org/multierr"

	"github.com/hamlet-coop/hamlet-backend/api/routes"
	"github.com/hamlet-coop/hamlet-backend/internal/auth"
	"github.com/hamlet-coop/hamlet-backend/internal/balances"
	"github.com/hamlet-coop/hamlet-backend/internal/catalog"
	"github.com/hamlet-coop/hamlet-backend/internal/dashboard"
	"github.com/hamlet-coop/hamlet-backend/internal/deliveries"
	"github.com/hamlet-coop/hamlet-backend/internal/ledger"
	"github.com/hamlet-coop/hamlet-backend/internal/requests"
	"github.com/hamlet-coop/hamlet-backend/internal/trips"
	"github.com/hamlet-coop/hamlet-backend/pkg/config"
	"github.com/hamlet-coop/hamlet-backend/pkg/db"
	"github.com/hamlet-coop/hamlet-backend/pkg/logger"
	"github.com/hamlet-coop/hamlet-backend/pkg/metrics"
	"github.com/hamlet-coop/hamlet-backend/pkg/migrate"
	"github.com/hamlet-coop/hamlet-backend/pkg/redis"
)

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
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}

	gormDB := dbClient.DB()
	catalogRepo := catalog.NewRepository(gormDB)
	requestRepo := requests.NewRepository(gormDB)
	tripRepo := trips.NewRepository(gormDB)
	deliveryRepo := deliveries.NewRepository(gormDB)
	ledgerRepo := ledger.NewRepository(gormDB)

	errandMetrics := metrics.NewErrandMetrics(prometheus.DefaultRegisterer)

	catalogService, err := catalog.NewService(catalogRepo, cfg.JoinCode)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(catalogService, cfg.JWT, cfg.Admin)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	tripService, err := trips.NewService(tripRepo, catalogService, catalogService)
	if err != nil {
		logg.Error(context.Background(), "failed to create trip service", err)
		os.Exit(1)
	}

	requestService, err := requests.NewService(requestRepo, catalogService, tripService, errandMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create request service", err)
		os.Exit(1)
	}

	ledgerService, err := ledger.NewService(ledgerRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create ledger service", err)
		os.Exit(1)
	}

	deliveryService, err := deliveries.NewService(deliveryRepo, requestRepo, ledgerService, tripService, dbClient, errandMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create delivery service", err)
		os.Exit(1)
	}

	balanceService, err := balances.NewService(ledgerService, redisClient, cfg.Balances.CacheTTL, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create balance service", err)
		os.Exit(1)
	}

	dashboardService, err := dashboard.NewService(requestService, tripService, deliveryService, ledgerService, balanceService)
	if err != nil {
		logg.Error(context.Background(), "failed to create dashboard service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			authService,
			catalogService,
			requestService,
			tripService,
			deliveryService,
			ledgerService,
			balanceService,
			dashboardService,
			errandMetrics,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stop:
		logg.Info(logg.WithField(ctx, "signal", sig.String()), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}

	closeErr := multierr.Combine(dbClient.Close(), redisClient.Close())
	if closeErr != nil {
		logg.Error(ctx, "error closing clients", closeErr)
		os.Exit(1)
	}
}
