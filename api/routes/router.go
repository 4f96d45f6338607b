package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloomretail/bloom-backend/api/controllers"
	"github.com/bloomretail/bloom-backend/api/middleware"
	"github.com/bloomretail/bloom-backend/internal/loyalty"
	"github.com/bloomretail/bloom-backend/internal/progress"
	"github.com/bloomretail/bloom-backend/internal/quests"
	"github.com/bloomretail/bloom-backend/pkg/auth/session"
	"github.com/bloomretail/bloom-backend/pkg/config"
	"github.com/bloomretail/bloom-backend/pkg/db"
	"github.com/bloomretail/bloom-backend/pkg/logger"
	"github.com/bloomretail/bloom-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// NewRouter assembles the HTTP surface of the loyalty platform.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionManager,
	loyaltyService loyalty.Service,
	questService quests.Service,
	progressService progress.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	writePolicy := middleware.NewWriteRateLimitPolicy(
		cfg.WriteRateLimit.Window,
		cfg.WriteRateLimit.Limit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/logout", controllers.AuthLogout(sessionManager, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(sessionManager, cfg.JWT, logg))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))
		r.Use(middleware.WriteRateLimit(writePolicy, redisClient, logg))

		r.Route("/loyalty", func(r chi.Router) {
			r.Get("/balance", controllers.LoyaltyBalance(loyaltyService, logg))
			r.Get("/transactions", controllers.LoyaltyTransactions(loyaltyService, logg))
			r.Post("/redeem", controllers.LoyaltyRedeem(loyaltyService, logg))
		})

		r.Route("/quests", func(r chi.Router) {
			r.Get("/", controllers.QuestList(questService, logg))
			r.Get("/progress", controllers.QuestProgressList(progressService, logg))
			r.Post("/{questId}/start", controllers.QuestStart(progressService, logg))
			r.Post("/{questId}/complete", controllers.QuestComplete(loyaltyService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireRole("admin", logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Route("/quests", func(r chi.Router) {
			r.Get("/", controllers.AdminQuestList(questService, logg))
			r.Post("/", controllers.AdminQuestCreate(questService, logg))
			r.Get("/{questId}", controllers.AdminQuestGet(questService, logg))
			r.Patch("/{questId}", controllers.AdminQuestUpdate(questService, logg))
			r.Post("/{questId}/deactivate", controllers.AdminQuestDeactivate(questService, logg))
			r.Delete("/{questId}", controllers.AdminQuestDelete(questService, logg))
		})

		r.Post("/loyalty/grant", controllers.AdminLoyaltyGrant(loyaltyService, logg))
	})

	return r
}
