package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trovamart/returns-backend/api/routes"
	"github.com/trovamart/returns-backend/internal/agents"
	"github.com/trovamart/returns-backend/internal/eligibility"
	"github.com/trovamart/returns-backend/internal/notifications"
	"github.com/trovamart/returns-backend/internal/orders"
	"github.com/trovamart/returns-backend/internal/otp"
	"github.com/trovamart/returns-backend/internal/refund"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/internal/settlement"
	"github.com/trovamart/returns-backend/internal/users"
	"github.com/trovamart/returns-backend/internal/wallet"
	"github.com/trovamart/returns-backend/pkg/auth/session"
	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/db"
	"github.com/trovamart/returns-backend/pkg/logger"
	"github.com/trovamart/returns-backend/pkg/metrics"
	"github.com/trovamart/returns-backend/pkg/migrate"
	"github.com/trovamart/returns-backend/pkg/outbox"
	"github.com/trovamart/returns-backend/pkg/redis"
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

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

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

	returnsSvc, err := returns.NewService(returnsRepo, ordersRepo, agentsRepo, dbClient, outboxSvc, evaluator, calculator)
	if err != nil {
		logg.Error(context.Background(), "failed to create returns service", err)
		os.Exit(1)
	}

	otpGateway, err := otp.NewGateway(ordersRepo, returnsSvc, dbClient, outboxSvc, settlementMetrics, cfg.ReturnPolicy)
	if err != nil {
		logg.Error(context.Background(), "failed to create pickup verification gateway", err)
		os.Exit(1)
	}

	settlementProcessor, err := settlement.NewProcessor(returnsSvc, walletRepo, usersRepo, redisClient, dbClient, outboxSvc, calculator, settlementMetrics)
	if err != nil {
		logg.Error(context.Background(), "failed to create settlement processor", err)
		os.Exit(1)
	}

	walletSvc, err := wallet.NewService(walletRepo, usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create wallet service", err)
		os.Exit(1)
	}

	notificationsSvc, err := notifications.NewService(notificationsRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Idempotency:   redisClient,
			Sessions:      sessionManager,
			Returns:       returnsSvc,
			OTP:           otpGateway,
			Settlement:    settlementProcessor,
			Wallet:        walletSvc,
			Notifications: notificationsSvc,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
