package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/stridelab/stridecoach/internal/api"
	"github.com/stridelab/stridecoach/internal/api/handlers"
	"github.com/stridelab/stridecoach/internal/cache"
	"github.com/stridelab/stridecoach/internal/config"
	"github.com/stridelab/stridecoach/internal/database"
	"github.com/stridelab/stridecoach/internal/logging"
	"github.com/stridelab/stridecoach/internal/middleware"
	"github.com/stridelab/stridecoach/internal/services"
	"github.com/stridelab/stridecoach/internal/telemetry"
	"github.com/stridelab/stridecoach/pkg/openmeteo"
)

func main() {
	// A missing .env is fine; config falls back to yaml + env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)

	tracing, err := telemetry.Init(telemetry.Config{
		Enabled:     cfg.Environment != "production",
		Environment: cfg.Environment,
	})
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize tracing")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Failed to shut down tracing")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		logger.WithError(err).Fatal("Failed to connect to Redis")
	}
	defer redis.Close()

	weatherClient := openmeteo.NewClient(&cfg.Weather)
	defer weatherClient.Close()

	repo := database.NewActivityRepository(db.Pool)
	reportCache := cache.NewReportCache(redis.Client, cfg.ReportCacheTTLDuration(), logger)
	reportService := services.NewReportService(weatherClient, cfg.Analysis.MaxWeatherLookups, nil, logger)

	healthHandler := handlers.NewHealthHandler(db, redis, telemetry.ServiceVersion)
	// Two activities per day over the analysis window is a generous cap.
	activityLimit := cfg.Analysis.ActivityWindowDays * 2
	reportHandler := handlers.NewReportHandler(reportService, repo, reportCache, activityLimit, logger).
		WithPipelineTimeout(cfg.PipelineTimeoutDuration())

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(middleware.Tracing())
	api.SetupRoutes(router, healthHandler, reportHandler)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logger.WithField("port", cfg.Server.Port).Info("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Fatal("Server forced to shutdown")
	}

	logger.Info("Server exited")
}
