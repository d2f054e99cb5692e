package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/storelinehq/pricing-backend/api/routes"
	"github.com/storelinehq/pricing-backend/internal/catalog"
	"github.com/storelinehq/pricing-backend/internal/pricing"
	pricinggroup "github.com/storelinehq/pricing-backend/internal/pricinggroups"
	"github.com/storelinehq/pricing-backend/pkg/config"
	"github.com/storelinehq/pricing-backend/pkg/db"
	"github.com/storelinehq/pricing-backend/pkg/logger"
	"github.com/storelinehq/pricing-backend/pkg/metrics"
	"github.com/storelinehq/pricing-backend/pkg/migrate"
	"github.com/storelinehq/pricing-backend/pkg/redis"
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
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	pricingMetrics := metrics.NewPricingMetrics(registry)

	catalogRepo := catalog.NewRepository(dbClient.DB())
	groupRepo := pricinggroup.NewRepository(dbClient.DB())

	resolver, err := pricing.NewGroupResolver(catalogRepo, groupRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create group resolver", err)
		os.Exit(1)
	}

	pricingService, err := pricing.NewService(catalogRepo, resolver, redisClient, pricingMetrics, logg, cfg.Pricing)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing service", err)
		os.Exit(1)
	}

	groupService, err := pricinggroup.NewService(groupRepo, dbClient, catalogRepo, pricingService, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create pricing group service", err)
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
	logg.Info(ctx, "starting pricing api server")

	server := &http.Server{
		Addr:    addr,
		Handler: routes.NewRouter(cfg, logg, dbClient, redisClient, groupService, pricingService, registry),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
