package routes

import (
	"net/http"

	"github.com/contentflow/partnerhub/internal/app"
	"github.com/contentflow/partnerhub/internal/handler"
	"github.com/contentflow/partnerhub/internal/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService, app.Cfg)
	track := handler.NewTrackHandler(app.RiskService)
	admin := handler.NewAdminHandler(app.AuthService, app.RiskService)
	health := handler.NewHealthHandler(app.DB)

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	mux.HandleFunc("GET /health", health.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	// Auth - magic-link flow (issuance is rate limited)
	rateLimiter := middleware.RateLimitAuth()

	mux.HandleFunc("POST /api/auth/magic-link", rateLimiter(auth.SendMagicLink))
	mux.HandleFunc("GET /api/auth/verify", auth.VerifyMagicLink)
	mux.HandleFunc("GET /api/auth/session", auth.Session)
	mux.HandleFunc("POST /api/auth/logout", auth.Logout)

	// Events (anonymous allowed; partner attributed via session cookie)
	mux.HandleFunc("POST /api/events", track.RecordEvent)

	// ============================================================================
	// PARTNER ROUTES
	// ============================================================================

	mux.HandleFunc("GET /api/me/status", middleware.RequirePartner(track.Status))

	// ============================================================================
	// ADMIN ROUTES
	// ============================================================================

	requireAdmin := middleware.RequireAdmin(app.AuthService)

	mux.HandleFunc("POST /api/admin/login", admin.Login)
	mux.HandleFunc("POST /api/admin/risk/sweep", requireAdmin(admin.TriggerSweep))
	mux.HandleFunc("GET /api/admin/risk/held", requireAdmin(admin.HeldPartners))
	mux.HandleFunc("GET /api/admin/partners/{id}/flags", requireAdmin(admin.PartnerFlags))
	mux.HandleFunc("POST /api/admin/partners/{id}/flags", requireAdmin(admin.AddFlag))
	mux.HandleFunc("DELETE /api/admin/partners/{id}/flags/{flag}", requireAdmin(admin.RemoveFlag))

	// Global middleware
	return middleware.Chain(mux,
		middleware.RequestLogging,
		middleware.SessionMiddleware(app.AuthService),
	)
}
