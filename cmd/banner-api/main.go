// Package main is the entry point for the banner-api server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/doya-app/banner-api/internal/auth"
	"github.com/doya-app/banner-api/internal/config"
	"github.com/doya-app/banner-api/internal/constants"
	"github.com/doya-app/banner-api/internal/database"
	"github.com/doya-app/banner-api/internal/database/migrations"
	"github.com/doya-app/banner-api/internal/http/handlers"
	"github.com/doya-app/banner-api/internal/http/mw"
	"github.com/doya-app/banner-api/internal/http/routes"
	"github.com/doya-app/banner-api/internal/logging"
	"github.com/doya-app/banner-api/internal/repository"
	"github.com/doya-app/banner-api/internal/service"
	"github.com/doya-app/banner-api/internal/shutdown"
	"github.com/doya-app/banner-api/internal/version"
)

func main() {
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting banner-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := database.MigrateWithLogger(db, logger); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	schemaVersion, err := migrations.GetLatestVersion(db)
	if err != nil {
		logger.Warn("failed to get schema version", "error", err)
	} else if schemaVersion != "" {
		migrationCount, _ := migrations.GetMigrationCount(db)
		logger.Info("database schema ready", "schema_version", schemaVersion, "migrations_applied", migrationCount)
	}

	repos := repository.NewRepositories(db)

	services, err := service.NewServices(cfg, repos, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	verifier := auth.NewVerifier(cfg.JWTSecret)

	// Prune unshared guest generations older than a week, at startup and
	// then daily.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go pruneGuestGenerations(ctx, repos, logger)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	// The generation route covers page fetch, headless render, and two
	// model calls; everything else gets the ordinary budget.
	router.Use(mw.Timeout(mw.TimeoutConfig{
		Default:          constants.DefaultRequestTimeout,
		Extended:         constants.GenerationRequestTimeout,
		ExtendedPatterns: []string{"/banner"},
	}))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limit by IP, before per-plan limits.
	router.Use(httprate.LimitByIP(constants.GlobalIPRateLimitPerMinute, time.Minute))
	router.Use(middleware.Throttle(100))

	router.Use(mw.OptionalAuth(verifier))
	router.Use(mw.RateLimitByPlan(mw.DefaultRateLimitConfig()))

	// Idle monitor for scale-to-zero deployments.
	idleMonitor := shutdown.NewIdleMonitor(shutdown.IdleMonitorConfig{
		Timeout:      cfg.IdleTimeout,
		Logger:       logger,
		ExcludePaths: []string{"/healthz", "/readyz"},
	})
	router.Use(idleMonitor.Middleware)
	idleMonitor.Start()
	defer idleMonitor.Stop()

	h := handlers.New(cfg, services, db, logger)

	api := humachi.New(router, routes.NewHumaConfig(cfg.BaseURL))
	routes.RegisterPublic(api, h)

	hiddenConfig := huma.DefaultConfig("Doya Banner API", v.Short())
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	routes.RegisterProbes(humachi.New(router, hiddenConfig), h)

	// The generation endpoint is a raw handler: it rewrites the guest
	// usage cookie and returns fixed Japanese error bodies.
	router.Post("/api/v1/banner/from-url", h.GenerateBannerFromURL)

	router.Group(func(r chi.Router) {
		r.Use(mw.RequireAuth())

		protectedConfig := huma.DefaultConfig("Doya Banner API", v.Short())
		protectedConfig.DocsPath = ""
		protectedConfig.OpenAPIPath = ""
		protectedConfig.SchemasPath = ""
		routes.RegisterProtected(humachi.New(r, protectedConfig), h)
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", server.Addr, "base_url", cfg.BaseURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	case <-idleMonitor.ShutdownChan():
		logger.Info("shutting down after idle timeout", "timeout", cfg.IdleTimeout.String())
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}

// pruneGuestGenerations deletes unshared guest history rows past the
// retention window. Shared and user-owned rows are never touched.
func pruneGuestGenerations(ctx context.Context, repos *repository.Repositories, logger *slog.Logger) {
	const retention = 7 * 24 * time.Hour
	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		deleted, err := repos.Generation.DeleteOlderThan(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("guest generation pruning failed", "error", err)
		} else if len(deleted) > 0 {
			logger.Info("pruned guest generations", "count", len(deleted))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
