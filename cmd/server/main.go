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
	"github.com/sirupsen/logrus"

	"github.com/sincov/airmon-go/internal/api"
	"github.com/sincov/airmon-go/internal/api/handlers"
	"github.com/sincov/airmon-go/internal/cache"
	"github.com/sincov/airmon-go/internal/config"
	"github.com/sincov/airmon-go/internal/database"
	"github.com/sincov/airmon-go/internal/logging"
	"github.com/sincov/airmon-go/internal/models"
	"github.com/sincov/airmon-go/internal/scheduler"
	"github.com/sincov/airmon-go/internal/services"
	"github.com/sincov/airmon-go/internal/telemetry"
)

const serviceName = "airmon"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Application failed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional .env for local development; environment wins over file.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.New(cfg.LogLevel, cfg.Environment)
	logger.LogStartup(serviceName, "1.0.0", cfg.Server.Port)

	if err := telemetry.Init(telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Environment,
	}); err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	db, err := database.NewPostgresConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	redis, err := database.NewRedisConnection(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer redis.Close()

	// Repositories
	stationRepo := database.NewStationRepository(db.Pool)
	reportRepo := database.NewReportRepository(db.Pool)
	predictionRepo := database.NewPredictionRepository(db.Pool)
	dailyRepo := database.NewDailyReportRepository(db.Pool)
	subscriptionRepo := database.NewSubscriptionRepository(db.Pool)

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.SeedStations(seedCtx, stationRepo); err != nil {
		cancelSeed()
		return fmt.Errorf("failed to seed stations: %w", err)
	}
	cancelSeed()

	// Core pipeline
	aggCache := cache.NewRedisAggregateCache(redis, config.Duration(cfg.Prediction.AggregateTTL), logger)
	aggregator := services.NewAggregator(reportRepo, logger)
	predictor := services.NewPredictor(services.PredictorConfig{
		TrendLookback: cfg.Prediction.TrendLookback,
	}, logger)

	sender, err := services.NewTelegramSender(cfg.Telegram.BotToken, subscriptionRepo, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telegram sender: %w", err)
	}
	var notifier services.PredictionNotifier
	if sender != nil {
		notifier = services.NewAlertService(subscriptionRepo, sender, models.Category(cfg.Telegram.AlertSeverity), logger)

		botCtx, cancelBot := context.WithCancel(context.Background())
		defer cancelBot()
		go sender.Start(botCtx)
	}

	predictionService := services.NewPredictionService(
		services.PredictionServiceConfig{
			LookbackWindow: config.Duration(cfg.Prediction.LookbackWindow),
			BucketSize:     config.Duration(cfg.Prediction.BucketSize),
			RequestTimeout: config.Duration(cfg.Prediction.RequestTimeout),
			MaxHorizon:     time.Duration(cfg.Prediction.MaxHorizonHours) * time.Hour,
		},
		stationRepo, aggregator, predictor, aggCache, predictionRepo, notifier, logger,
	)

	// Background jobs
	var collector *services.CollectorService
	if cfg.Collector.Enabled && cfg.Collector.SourceURL != "" {
		collector = services.NewCollectorService(services.CollectorConfig{
			SourceURL:    cfg.Collector.SourceURL,
			SourceName:   cfg.Collector.SourceName,
			FetchTimeout: config.Duration(cfg.Collector.FetchTimeout),
		}, reportRepo, aggCache, logger)
	}
	var dailyReports *services.DailyReportService
	if cfg.Reports.Enabled {
		dailyReports = services.NewDailyReportService(stationRepo, aggregator, predictor, dailyRepo, cfg.Reports.SMAWindow, logger)
	}

	jobs := scheduler.New(scheduler.Config{
		CollectInterval: config.Duration(cfg.Collector.FetchInterval),
		BackfillHours:   cfg.Collector.BackfillHours,
		ReportTime:      cfg.Reports.GenerateTime,
	}, collector, dailyReports, logger)
	if err := jobs.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer jobs.Stop()

	// HTTP
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	api.SetupRoutes(router, serviceName, api.Handlers{
		Health:   handlers.NewHealthHandler(db, redis),
		Stations: handlers.NewStationsHandler(stationRepo, aggregator, aggCache, config.Duration(cfg.Prediction.BucketSize)),
		Reports:  handlers.NewReportsHandler(reportRepo, dailyRepo, stationRepo, aggCache),
		Predict:  handlers.NewPredictHandler(predictionService, predictionRepo, config.Duration(cfg.Prediction.DefaultHorizon)),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		logrus.Infof("Server listening on port %d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.LogShutdown(serviceName, "signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logrus.Info("Server exited")
	return nil
}
