package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/handlers"
	"github.com/espe-ciber/sentinel-console/internal/metrics"
	"github.com/espe-ciber/sentinel-console/internal/middleware"
	"github.com/espe-ciber/sentinel-console/internal/models"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
)

// Handlers groups every HTTP handler the console serves
type Handlers struct {
	Auth          *handlers.AuthHandler
	Users         *handlers.UserHandler
	History       *handlers.HistoryHandler
	Predict       *handlers.PredictHandler
	Reports       *handlers.ReportHandler
	Confirmations *handlers.ConfirmationHandler
	Health        *handlers.HealthHandler
}

// Config carries what the route table needs besides handlers
type Config struct {
	Env            string
	AllowedOrigins []string
	RequestTimeout time.Duration
	Tokens         *auth.TokenManager
	Sessions       auth.SessionLoader
	CSRF           *auth.CSRFTokenManager
	IPConfig       *pkghttp.IPConfig
	Logger         *slog.Logger
}

// NewRouter builds the console router with the global middleware stack
func NewRouter(cfg Config, h Handlers) http.Handler {
	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID)
	router.Use(middleware.SecureLogger(cfg.Logger))
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(middleware.SecurityHeaders(middleware.SecurityHeadersConfig{Env: cfg.Env}))
	router.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.RequestTimeout > 0 {
		router.Use(chimiddleware.Timeout(cfg.RequestTimeout))
	}

	router.Get("/health", h.Health.Health)
	router.Handle("/metrics", metrics.Handler())

	router.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, cfg, h)
	})

	return router
}

// RegisterRoutes registers all API routes
func RegisterRoutes(router chi.Router, cfg Config, h Handlers) {
	authLimit := middleware.RateLimitByIP(middleware.DefaultAuthRateLimit(), cfg.IPConfig)
	exportLimit := middleware.RateLimitByIP(middleware.DefaultExportRateLimit(), cfg.IPConfig)

	// Public routes - no session required
	router.With(authLimit).Post("/login", h.Auth.Login)
	router.With(authLimit).Post("/register", h.Auth.Register)

	// Protected routes - session and CSRF token required
	router.Group(func(r chi.Router) {
		r.Use(auth.SessionMiddleware(cfg.Tokens, cfg.Sessions))
		r.Use(middleware.CSRFProtection(cfg.CSRF, cfg.Logger))

		// Any logged-in user
		r.Get("/me", h.Auth.Me)
		r.Post("/logout", h.Auth.Logout)
		r.Post("/predict", h.Predict.Predict)
		r.Post("/confirmations/{id}/confirm", h.Confirmations.Confirm)
		r.Post("/confirmations/{id}/cancel", h.Confirmations.Cancel)

		// Admin-only routes
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))

			r.Get("/users", h.Users.List)
			r.Post("/users", h.Users.Create)
			r.Put("/users/{username}", h.Users.Update)
			r.Delete("/users/{username}", h.Users.Delete)

			r.Get("/history", h.History.List)
			r.Put("/history/{id}", h.History.Update)
			r.Delete("/history/{id}", h.History.Delete)
			r.With(exportLimit).Get("/history/export.xlsx", h.History.ExportXLSX)
			r.With(exportLimit).Get("/history/export.pdf", h.History.ExportPDF)

			r.Get("/audit", h.Reports.Audit)
			r.With(exportLimit).Get("/audit/export.xlsx", h.Reports.AuditExport)

			r.Get("/dashboard", h.Reports.Dashboard)
			r.With(exportLimit).Get("/dashboard/export.pdf", h.Reports.DashboardPDF)
			r.With(exportLimit).Post("/dashboard/email", h.Reports.EmailDashboard)
		})
	})
}
