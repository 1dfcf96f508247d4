package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

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
	"github.com/supplierhq/suppliers-backend/pkg/pubsub"
	"github.com/supplierhq/suppliers-backend/pkg/redis"
)

func main() {
	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "order-worker"})

	_ = godotenv.Load()

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	cfg.Service.Kind = "order-worker"

	logg = logger.New(logger.Options{
		ServiceName: "order-worker",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	requireResource(ctx, logg, "redis", err)
	defer redisClient.Close()

	pubsubClient, err := pubsub.NewClient(ctx, cfg.GCP, cfg.PubSub, logg)
	requireResource(ctx, logg, "pubsub", err)
	defer pubsubClient.Close()

	relationshipSvc, err := relationships.NewService(relationships.NewRepository(dbClient.DB()), dbClient)
	requireResource(ctx, logg, "relationship service", err)

	bus := events.NewBus(logg)

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

	dispatchSvc, err := dispatch.NewService(
		orderSvc,
		catalogSvc,
		supplierSvc,
		relationshipSvc,
		historySvc,
		mailClient,
		dispatch.NewRenderer(cfg.App.SiteTitle),
		cfg.Notifications,
		metrics.NewDispatchMetrics(prometheus.DefaultRegisterer),
		logg,
	)
	requireResource(ctx, logg, "dispatch service", err)

	bus.Register(enums.EventOrderStatusChanged,
		events.NewOrderStatusHandler(dispatchSvc, cfg.Notifications.TriggerStatus, logg))
	bus.Register(enums.EventEntityDeleted,
		events.NewEntityDeletedHandler(relationshipSvc, logg))

	ordersConsumer, err := events.NewConsumer("orders", bus, pubsubClient.OrdersSubscription(), redisClient, logg)
	requireResource(ctx, logg, "orders consumer", err)

	lifecycleConsumer, err := events.NewConsumer("lifecycle", bus, pubsubClient.LifecycleSubscription(), redisClient, logg)
	requireResource(ctx, logg, "lifecycle consumer", err)

	service, err := NewService(ServiceParams{
		Config:            cfg,
		Logger:            logg,
		DB:                dbClient,
		Redis:             redisClient,
		OrdersConsumer:    ordersConsumer,
		LifecycleConsumer: lifecycleConsumer,
	})
	requireResource(ctx, logg, "worker service", err)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runCtx = logg.WithFields(runCtx, map[string]any{
		"serviceKind": cfg.Service.Kind,
		"env":         cfg.App.Env,
	})
	logg.Info(runCtx, "order worker ready")

	if err := service.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(runCtx, "order worker not working", err)
		os.Exit(1)
	}

	logg.Info(runCtx, "order worker shutting down gracefully")
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
