package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/espe-ciber/sentinel-console/internal/auth"
	"github.com/espe-ciber/sentinel-console/internal/background"
	"github.com/espe-ciber/sentinel-console/internal/backend"
	"github.com/espe-ciber/sentinel-console/internal/config"
	"github.com/espe-ciber/sentinel-console/internal/database"
	"github.com/espe-ciber/sentinel-console/internal/handlers"
	"github.com/espe-ciber/sentinel-console/internal/repositories"
	"github.com/espe-ciber/sentinel-console/internal/routes"
	"github.com/espe-ciber/sentinel-console/internal/services"
	pkghttp "github.com/espe-ciber/sentinel-console/pkg/http"
	pkglogger "github.com/espe-ciber/sentinel-console/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger := pkglogger.New(pkglogger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	slog.SetDefault(logger)

	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("backend", cfg.Backend.BaseURL),
		slog.String("session_store", cfg.Session.Store))

	// Session store
	var (
		sessions      services.SessionStore
		healthChecks  = map[string]handlers.HealthChecker{}
		closeDatabase = func() {}
	)
	switch cfg.Session.Store {
	case config.SessionStorePostgres:
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, cfg.Database.DSN()); err != nil {
			cancel()
			logger.Error("failed to run migrations", slog.Any("error", err))
			os.Exit(1)
		}
		cancel()

		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			logger.Error("failed to connect to database", slog.Any("error", err))
			os.Exit(1)
		}
		closeDatabase = db.Close
		sessions = repositories.NewSessionRepository(db)
		healthChecks["database"] = db
	default:
		sessions = repositories.NewMemorySessionRepository()
	}
	defer closeDatabase()

	gates := repositories.NewLoginAttemptRepository()

	// Backend client
	backendClient := backend.New(cfg.Backend.BaseURL, cfg.Backend.Timeout, logger)

	// Security primitives
	tokenManager := auth.NewTokenManager(cfg.Session.Secret)
	csrfManager := auth.NewCSRFTokenManager(cfg.Session.Secret)
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		BaseDelayMs:   cfg.Gate.DelayBaseMs,
		RandomDelayMs: cfg.Gate.DelayRandomMs,
	})
	cookies := auth.CookieConfig{Secure: cfg.Session.CookieSecure, SameSite: cfg.Session.CookieSameSite}
	ipConfig := pkghttp.NewIPConfig(cfg.Server.TrustedProxies)

	// Optional report delivery
	var mailer services.ReportMailer
	if cfg.Email.Enabled() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sesMailer, err := services.NewSESReportMailer(ctx, cfg.Email.Region, cfg.Email.From, logger)
		cancel()
		if err != nil {
			logger.Error("failed to initialize report mailer", slog.Any("error", err))
			os.Exit(1)
		}
		mailer = sesMailer
	} else {
		logger.Info("REPORT_EMAIL_FROM not set, report e-mail delivery disabled")
	}

	// Services
	gate := services.NewCredentialGate(services.CredentialGateConfig{
		MaxFailures:     cfg.Gate.MaxFailures,
		LockoutDuration: cfg.Gate.LockoutDuration,
	})
	authService := services.NewAuthService(backendClient, gate, gates, sessions, tokenManager, timingDelay, logger, cfg.Session.TTL)
	userService := services.NewUserService(backendClient, logger)
	historyService := services.NewHistoryService(backendClient, logger)
	classificationService := services.NewClassificationService(backendClient, logger)
	confirmationService := services.NewConfirmationService(services.DefaultConfirmationTTL, logger)
	aggregator := services.NewAuditAggregator(backendClient, cfg.Reports.Location, logger)
	reportService := services.NewReportService(aggregator, historyService, mailer, cfg.Reports.ExcludedFields, logger)

	// Cleanup of expired sessions, confirmations and idle gate entries
	cleanupManager := background.NewCleanupManager(sessions, confirmationService, gates, cfg.Gate.IdleTTL, logger, cfg.Server.CleanupInterval)

	router := routes.NewRouter(routes.Config{
		Env:            cfg.Server.Env,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: cfg.Server.WriteTimeout,
		Tokens:         tokenManager,
		Sessions:       sessions,
		CSRF:           csrfManager,
		IPConfig:       ipConfig,
		Logger:         logger,
	}, routes.Handlers{
		Auth:          handlers.NewAuthHandler(authService, userService, csrfManager, cookies, ipConfig, logger),
		Users:         handlers.NewUserHandler(userService, confirmationService, logger),
		History:       handlers.NewHistoryHandler(historyService, reportService, confirmationService, logger),
		Predict:       handlers.NewPredictHandler(classificationService, logger),
		Reports:       handlers.NewReportHandler(reportService, logger),
		Confirmations: handlers.NewConfirmationHandler(confirmationService, logger),
		Health: handlers.NewHealthHandler(healthChecks, map[string]handlers.HealthChecker{
			"backend": handlers.HealthCheckFunc(backendClient.Ping),
		}),
	})

	// Create server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start cleanup task
	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	defer cleanupCancel()

	go cleanupManager.Start(cleanupCtx)

	// Start server
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")

	cleanupCancel()
	cleanupManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}
