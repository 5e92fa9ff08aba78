package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/confirmly/risk-engine/internal/application/usecase"
	"github.com/confirmly/risk-engine/internal/domain/port"
	"github.com/confirmly/risk-engine/internal/domain/service"
	"github.com/confirmly/risk-engine/internal/infrastructure/artifact"
	"github.com/confirmly/risk-engine/internal/infrastructure/cache"
	"github.com/confirmly/risk-engine/internal/infrastructure/config"
	"github.com/confirmly/risk-engine/internal/infrastructure/messaging"
	"github.com/confirmly/risk-engine/internal/observability"
	"github.com/confirmly/risk-engine/internal/presentation/rest"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Load configuration.
	cfg := config.Load()

	// Initialize structured logger.
	logger := observability.InitLogger(observability.LogConfig{
		Level:  cfg.LogLevel,
		Format: "json",
	})
	slog.SetDefault(logger)

	logger.Info("starting risk-engine",
		"http_port", cfg.HTTPPort,
		"model_path", cfg.ModelPath,
	)

	// Initialize metrics.
	meterProvider, metricsHandler, err := observability.InitMetrics(observability.MetricsConfig{
		ServiceName: "risk-engine",
	})
	if err != nil {
		logger.Error("failed to initialize metrics", "error", err)
		os.Exit(1)
	}
	defer func() { _ = meterProvider.Shutdown(context.Background()) }() //nolint:errcheck

	metrics := observability.NewScoringMetrics(prometheus.DefaultRegisterer)

	// Result cache. A bad Redis URL degrades to a no-op cache rather than
	// keeping the scoring path down.
	var resultCache port.ResultCache
	redisCache, err := cache.NewRedisCache(cfg.RedisURL, logger)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
		resultCache = cache.Noop{}
	} else {
		resultCache = redisCache
		defer func() { _ = redisCache.Close() }() //nolint:errcheck
	}

	// Model artifacts.
	store := artifact.NewFileStore(cfg.ModelPath, service.SchemaVersion, logger)
	artifacts := store.Load(ctx)
	logger.Info("model artifacts resolved",
		"status", string(artifacts.Status),
		"schema_version", artifacts.SchemaVersion,
	)

	// Event publisher.
	var publisher port.EventPublisher
	if cfg.KafkaBroker != "" {
		kafkaPublisher := messaging.NewKafkaPublisher([]string{cfg.KafkaBroker}, cfg.EventTopic, logger)
		defer func() { _ = kafkaPublisher.Close() }() //nolint:errcheck
		publisher = kafkaPublisher
	} else {
		logger.Info("no kafka broker configured, events disabled")
		publisher = messaging.NoopPublisher{}
	}

	// Wire domain services and use cases.
	extractor := service.NewFeatureExtractor()
	scoreOrder := usecase.NewScoreOrder(extractor, resultCache, store, publisher, metrics, logger, cfg.CacheTTL)

	// HTTP server.
	scoreHandler := rest.NewScoreHandler(scoreOrder, store, logger)
	healthHandler := rest.NewHealthHandler(store)
	router := rest.NewRouter(scoreHandler, healthHandler, metricsHandler, cfg.APIKey, logger)

	httpServer := &http.Server{
		Addr:         cfg.HTTPAddress(),
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", "address", cfg.HTTPAddress())
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	logger.Info("risk-engine started",
		"http_address", cfg.HTTPAddress(),
		"environment", cfg.Environment,
	)

	// Wait for shutdown signal.
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	// Graceful shutdown.
	logger.Info("shutting down risk-engine")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("risk-engine stopped")
}
