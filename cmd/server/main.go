package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/ajharbinger/stockdd-timeline/internal/api"
	"github.com/ajharbinger/stockdd-timeline/internal/app"
	"github.com/ajharbinger/stockdd-timeline/internal/database"
	"github.com/ajharbinger/stockdd-timeline/internal/logger"
	"github.com/ajharbinger/stockdd-timeline/internal/middleware"
	"github.com/ajharbinger/stockdd-timeline/internal/services"
	"github.com/ajharbinger/stockdd-timeline/pkg/config"
)

const shutdownTimeout = 30 * time.Second

func main() {
	// Load environment variables
	envErr := godotenv.Load()

	// Initialize configuration
	cfg := config.New()
	log := logger.New(cfg.LogLevel)
	if envErr != nil {
		log.Debug("No .env file found")
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatal("Failed to run migrations", err)
	}

	application := app.Build(cfg, db.DB, log)
	defer application.Close()

	// Set Gin mode based on environment
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize router
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.GetTrustedProxies()); err != nil {
		log.Fatal("Invalid TRUSTED_PROXIES", err)
	}

	// Add security middleware
	r.Use(middleware.LoggingMiddleware(logger.With(log, "http")))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.CORSMiddleware(cfg))
	r.Use(middleware.InputValidationMiddleware(cfg.MaxRequestSize))

	if cfg.EnableRateLimit {
		r.Use(middleware.RateLimitingMiddleware(middleware.NewIPRateLimiter(cfg.RateLimitPerMinute, cfg.RateLimitPerMinute/4)))
	}

	// Add recovery middleware
	r.Use(gin.Recovery())

	// Setup API routes
	api.SetupRoutes(r, application.Routes)

	scheduler := services.NewScheduler(application.Services.Sync, cfg.SyncSchedule, log)
	if err := scheduler.Start(); err != nil {
		log.Fatal("Failed to start sync scheduler", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Port, "env", cfg.Environment, "features", application.Features)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", err)
		}
	}()

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	log.Info("Shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("Server shutdown failed", err)
	}
	scheduler.Stop(ctx)
	log.Info("Server stopped")
}
