package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/supplierhq/suppliers-backend/api/routes"
	"github.com/supplierhq/suppliers-backend/internal/catalog"
	"github.com/supplierhq/suppliers-backend/internal/dispatch"
	"github.com/supplierhq/suppliers-backend/internal/events"
	"github.com/supplierhq/suppliers-backend/internal/history"
	"github.com/supplierhq/suppliers-backend/internal/orders"
	"github.com/supplierhq/suppliers-backend/internal/relationships"
	"github.com/supplierhq/suppliers-backend/internal/suppliers"
	"github.com/supplierhq/suppliers-backend/pkg/config"
	"github.com/supplierhq/suppliers-backend/pkg/db"
	"github.com/supplierhq/suppliers-backend/pkg/enums"
	"github.com/supplierhq/suppliers-backend/pkg/logger"
	"github.com/supplierhq/suppliers-backend/pkg/mailer"
	"github.com/supplierhq/suppliers-backend/pkg/metrics"
	"github.com/supplierhq/suppliers-backend/pkg/migrate"
	"github.com/supplierhq/suppliers-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(ctx, "error closing database", err)
		}
	}()

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "migrations", err)

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(ctx, "error closing redis", err)
		}
	}()

	bus := events.NewBus(logg)

	relationshipSvc, err := relationships.NewService(relationships.NewRepository(dbClient.DB()), dbClient)
	requireResource(ctx, logg, "relationship service", err)

	supplierSvc, err := suppliers.NewService(suppliers.NewRepository(dbClient.DB()), relationshipSvc, bus)
	requireResource(ctx, logg, "supplier service", err)

	historySvc, err := history.NewService(history.NewRepository(dbClient.DB()), cfg.Notifications)
	requireResource(ctx, logg, "history service", err)

	catalogSvc, err := catalog.NewService(catalog.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "catalog service", err)

	orderSvc, err := orders.NewService(orders.NewRepository(dbClient.DB()))
	requireResource(ctx, logg, "order service", err)

	mailClient, err := mailer.New(cfg.Sendgrid)
	requireResource(ctx, logg, "mailer", err)

	registry := prometheus.NewRegistry()
	dispatchSvc, err := dispatch.NewService(
		orderSvc,
		catalogSvc,
		supplierSvc,
		relationshipSvc,
		historySvc,
		mailClient,
		dispatch.NewRenderer(cfg.App.SiteTitle),
		cfg.Notifications,
		metrics.NewDispatchMetrics(registry),
		logg,
	)
	requireResource(ctx, logg, "dispatch service", err)

	// Supplier deletion through the admin API cascades in-process.
	bus.Register(enums.EventEntityDeleted, events.NewEntityDeletedHandler(relationshipSvc, logg))

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Params{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Registry:      registry,
			Suppliers:     supplierSvc,
			Relationships: relationshipSvc,
			History:       historySvc,
			Dispatch:      dispatchSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
