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

	"github.com/bugabuga/commerce-backend/api/routes"
	authsvc "github.com/bugabuga/commerce-backend/internal/auth"
	"github.com/bugabuga/commerce-backend/internal/cart"
	"github.com/bugabuga/commerce-backend/internal/catalog"
	"github.com/bugabuga/commerce-backend/internal/orders"
	"github.com/bugabuga/commerce-backend/internal/payments"
	"github.com/bugabuga/commerce-backend/internal/reviews"
	"github.com/bugabuga/commerce-backend/internal/stores"
	"github.com/bugabuga/commerce-backend/internal/users"
	"github.com/bugabuga/commerce-backend/pkg/config"
	"github.com/bugabuga/commerce-backend/pkg/db"
	"github.com/bugabuga/commerce-backend/pkg/logger"
	"github.com/bugabuga/commerce-backend/pkg/metrics"
	"github.com/bugabuga/commerce-backend/pkg/migrate"
	"github.com/bugabuga/commerce-backend/pkg/redis"
)

const shutdownGrace = 15 * time.Second

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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	// Redis is optional. Without it the catalog cache and auth rate limiting
	// are disabled and everything else keeps working.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, cache and rate limiting disabled")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	httpMetrics := metrics.NewHTTPMetrics(registry)

	gormDB := dbClient.DB()
	usersRepo := users.NewRepository(gormDB)
	storesRepo := stores.NewRepository(gormDB)
	catalogRepo := catalog.NewRepository(gormDB)
	cartRepo := cart.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	paymentsRepo := payments.NewRepository(gormDB)
	reviewsRepo := reviews.NewRepository(gormDB)

	authService, err := authsvc.NewService(usersRepo, cfg.JWT, cfg.Password)
	if err != nil {
		fatal(logg, "failed to create auth service", err)
	}
	storeService, err := stores.NewService(storesRepo, usersRepo)
	if err != nil {
		fatal(logg, "failed to create stores service", err)
	}
	var catalogService catalog.Service
	if redisClient != nil {
		catalogService, err = catalog.NewService(catalogRepo, storesRepo, redisClient, cfg.Cache.CatalogTTL)
	} else {
		catalogService, err = catalog.NewService(catalogRepo, storesRepo, nil, cfg.Cache.CatalogTTL)
	}
	if err != nil {
		fatal(logg, "failed to create catalog service", err)
	}
	cartService, err := cart.NewService(cartRepo, catalogRepo, usersRepo, dbClient)
	if err != nil {
		fatal(logg, "failed to create cart service", err)
	}
	ordersService, err := orders.NewService(ordersRepo, cartRepo, catalogRepo, dbClient)
	if err != nil {
		fatal(logg, "failed to create orders service", err)
	}
	paymentsService, err := payments.NewService(paymentsRepo, ordersRepo, usersRepo, dbClient)
	if err != nil {
		fatal(logg, "failed to create payments service", err)
	}
	reviewsService, err := reviews.NewService(reviewsRepo, catalogRepo, usersRepo)
	if err != nil {
		fatal(logg, "failed to create reviews service", err)
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
			httpMetrics,
			registry,
			authService,
			catalogService,
			storeService,
			cartService,
			ordersService,
			paymentsService,
			reviewsService,
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	shutdownCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-shutdownCtx.Done():
		logg.Info(ctx, "shutdown signal received, draining connections")
		graceCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(graceCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
		}
	}
}

func fatal(logg *logger.Logger, msg string, err error) {
	logg.Error(context.Background(), msg, err)
	os.Exit(1)
}
