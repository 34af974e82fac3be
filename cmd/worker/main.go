package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trovamart/returns-backend/internal/agents"
	"github.com/trovamart/returns-backend/internal/eligibility"
	"github.com/trovamart/returns-backend/internal/notifications"
	"github.com/trovamart/returns-backend/internal/orders"
	"github.com/trovamart/returns-backend/internal/refund"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/internal/settlement"
	"github.com/trovamart/returns-backend/internal/users"
	"github.com/trovamart/returns-backend/internal/wallet"
	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/db"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/metrics"
	"github.com/trovamart/returns-backend/pkg/migrate"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/outbox/idempotency"
	"github.com/trovamart/returns-backend/pkg/pubsub"
	"github.com/trovamart/returns-backend/pkg/redis"
)

// consumerDedupTTL bounds how long a consumed event id blocks redelivery.
const consumerDedupTTL = 24 * time.Hour

func main() {
	logg := logger.New(logger.Options{ServiceName: "worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "worker",
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

	pubsubClient, err := pubsub.NewClient(context.Background(), cfg.GCP, cfg.PubSub, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap pubsub", err)
		os.Exit(1)
	}
	defer func() {
		if err := pubsubClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing pubsub client", err)
		}
	}()

	gormDB := dbClient.DB()
	returnsRepo := returns.NewRepository(gormDB)
	ordersRepo := orders.NewRepository(gormDB)
	agentsRepo := agents.NewRepository(gormDB)
	usersRepo := users.NewRepository(gormDB)
	walletRepo := wallet.NewRepository(gormDB)
	notificationsRepo := notifications.NewRepository(gormDB)
	outboxSvc := outbox.NewService(outbox.NewRepository(gormDB), logg)

	evaluator := eligibility.NewEvaluator(cfg.ReturnPolicy)
	calculator := refund.NewCalculator(cfg.ReturnPolicy)
	settlementMetrics := metrics.NewSettlementMetrics(prometheus.DefaultRegisterer)
	workerMetrics := metrics.NewWorkerMetrics(prometheus.DefaultRegisterer)

	returnsSvc, err := returns.NewService(returnsRepo, ordersRepo, agentsRepo, dbClient, outboxSvc, evaluator, calculator)
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	settlementProcessor, err := settlement.NewProcessor(returnsSvc, walletRepo, usersRepo, redisClient, dbClient, outboxSvc, calculator, settlementMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement processor", err)
		os.Exit(1)
	}

	reconciler, err := settlement.NewReconciler(settlementProcessor, walletRepo, logg, workerMetrics, cfg.Reconciler.BatchSize)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement reconciler", err)
		os.Exit(1)
	}

	dedup, err := idempotency.NewManager(redisClient, consumerDedupTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create consumer dedup manager", err)
		os.Exit(1)
	}

	notificationConsumer, err := notifications.NewConsumer(notificationsRepo, pubsubClient.ReturnsSubscription(), dedup, dbClient, outboxSvc, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification consumer", err)
		os.Exit(1)
	}

	service, err := NewService(ServiceParams{
		Config:               cfg,
		Logger:               logg,
		DB:                   dbClient,
		Redis:                redisClient,
		PubSub:               pubsubClient,
		Reconciler:           reconciler,
		NotificationConsumer: notificationConsumer,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create worker", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":         cfg.App.Env,
		"serviceKind": "worker",
	})
	logg.Info(ctx, "starting worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "worker shutting down gracefully")
}
