package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trovamart/returns-backend/api/controllers"
	"github.com/trovamart/returns-backend/api/middleware"
	"github.com/trovamart/returns-backend/internal/notifications"
	"github.com/trovamart/returns-backend/internal/otp"
	"github.com/trovamart/returns-backend/internal/returns"
	"github.com/trovamart/returns-backend/internal/settlement"
	"github.com/trovamart/returns-backend/internal/wallet"
	"github.com/trovamart/returns-backend/pkg/auth/session"
	"github.com/trovamart/returns-backend/pkg/config"
	"github.com/trovamart/returns-backend/pkg/db"
	"github.com/trovamart/returns-backend/pkg/logger"
	pkgredis "github.com/trovamart/returns-backend/pkg/redis"
)

// SessionManager is the refresh-session surface the router needs: the auth
// middleware checks liveness, the auth endpoints create, rotate, and revoke.
type SessionManager interface {
	session.AccessSessionChecker
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

// Deps bundles everything the HTTP surface needs. The router stays a pure
// wiring function; nothing here owns lifecycle.
type Deps struct {
	Config      *config.Config
	Logger      *logger.Logger
	DB          db.Pinger
	Redis       pkgredis.Pinger
	Idempotency pkgredis.IdempotencyStore
	Sessions    SessionManager

	Returns       returns.Service
	OTP           *otp.Gateway
	Settlement    *settlement.Processor
	Wallet        wallet.Service
	Notifications notifications.Service
}

func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, deps.DB, deps.Redis, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	// Session bootstrap sits outside the gated group: exchanging an
	// upstream-minted token for a session is what makes the gate passable.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/session", controllers.AuthSession(deps.Sessions, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(deps.Sessions, cfg.JWT, logg))
		r.Post("/logout", controllers.AuthLogout(deps.Sessions, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, deps.Sessions, logg))
		r.Use(middleware.Idempotency(deps.Idempotency, logg))

		r.Route("/returns", func(r chi.Router) {
			r.Post("/", controllers.CreateReturn(deps.Returns, logg))
			r.Get("/", controllers.ListReturns(deps.Returns, logg))
			r.Get("/eligibility/{orderID}", controllers.ReturnEligibility(deps.Returns, logg))
			r.Get("/{returnID}", controllers.ReturnDetail(deps.Returns, logg))
			r.Post("/{returnID}/cancel", controllers.CancelReturn(deps.Returns, logg))
		})

		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", controllers.WalletBalance(deps.Wallet, logg))
			r.Get("/transactions", controllers.WalletTransactions(deps.Wallet, logg))
		})

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Notifications, logg))
			r.Post("/{notificationID}/read", controllers.NotificationRead(deps.Notifications, logg))
			r.Post("/read-all", controllers.NotificationsReadAll(deps.Notifications, logg))
		})

		r.Route("/admin/returns", func(r chi.Router) {
			r.Use(middleware.RequireRole("admin", logg))
			r.Get("/", controllers.AdminListReturns(deps.Returns, logg))
			r.Get("/{returnID}", controllers.AdminReturnDetail(deps.Returns, logg))
			r.Post("/{returnID}/review/start", controllers.AdminStartReview(deps.Returns, logg))
			r.Post("/{returnID}/review", controllers.AdminReview(deps.Returns, logg))
			r.Post("/{returnID}/assign-warehouse", controllers.AdminAssignWarehouse(deps.Returns, logg))
			r.Post("/{returnID}/refund-decision", controllers.AdminRefundDecision(deps.Returns, logg))
			r.Post("/{returnID}/settle", controllers.AdminSettle(deps.Settlement, logg))
			r.Post("/settle-bulk", controllers.AdminSettleBulk(deps.Settlement, logg))
		})

		r.Route("/warehouse/returns", func(r chi.Router) {
			r.Use(middleware.RequireRole("warehouse", logg))
			r.Get("/", controllers.WarehouseQueue(deps.Returns, logg))
			r.Get("/{returnID}", controllers.AdminReturnDetail(deps.Returns, logg))
			r.Post("/{returnID}/pickup", controllers.WarehouseSchedulePickup(deps.Returns, logg))
			r.Post("/{returnID}/pickup/reschedule", controllers.WarehouseReschedulePickup(deps.Returns, logg))
			r.Post("/{returnID}/pickup-failed", controllers.WarehousePickupFailed(deps.Returns, logg))
			r.Post("/{returnID}/receive", controllers.WarehouseReceive(deps.Returns, logg))
			r.Post("/{returnID}/assessment", controllers.WarehouseAssess(deps.Returns, logg))
			r.Post("/{returnID}/recommendation", controllers.WarehouseRecommend(deps.Returns, logg))
			r.Post("/{returnID}/refund-decision", controllers.WarehouseRefundDecision(deps.Returns, logg))
		})

		r.Route("/agent/returns", func(r chi.Router) {
			r.Use(middleware.RequireRole("agent", logg))
			r.Get("/", controllers.AgentPickupQueue(deps.Returns, logg))
			r.Post("/{returnID}/verify-pickup", controllers.AgentVerifyPickup(deps.OTP, logg))
			r.Post("/{returnID}/pickup-failed", controllers.AgentPickupFailed(deps.Returns, logg))
		})
	})

	return r
}
