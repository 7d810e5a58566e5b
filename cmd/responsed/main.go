// Package main is the entry point for the responsed service.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/jerrydevmouse/responsed/internal/cleaner"
	"github.com/jerrydevmouse/responsed/internal/config"
	"github.com/jerrydevmouse/responsed/internal/metrics"
	"github.com/jerrydevmouse/responsed/internal/monitor"
	"github.com/jerrydevmouse/responsed/internal/notify"
	_ "github.com/jerrydevmouse/responsed/internal/notify/providers/discord"
	_ "github.com/jerrydevmouse/responsed/internal/notify/providers/telegram"
	"github.com/jerrydevmouse/responsed/internal/repository"
	"github.com/jerrydevmouse/responsed/internal/storage"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "/config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("starting responsed",
		zap.String("name", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("log_level", cfg.App.LogLevel),
	)

	repo, err := repository.NewSQLiteRepository(cfg.Repository.DSN, logger)
	if err != nil {
		logger.Fatal("failed to open repository", zap.Error(err))
	}
	defer repo.Close()

	if err := repo.Ping(); err != nil {
		logger.Fatal("repository ping failed", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	m := metrics.NewMetrics(registry)

	metricsServer := metrics.NewServer(
		cfg.Metrics.Port,
		cfg.Metrics.Path,
		cfg.Health.LivenessPath,
		cfg.Health.ReadinessPath,
		registry,
	)
	metricsServer.UpdateHealthCheck(metrics.ComponentRepository, "ok")

	notifier := notify.NewManager(logger, m)
	if err := notifier.Bootstrap(repo); err != nil {
		logger.Error("notifier bootstrap encountered errors", zap.Error(err))
	}
	metricsServer.UpdateHealthCheck(metrics.ComponentNotify, "ok")

	httpClient := &http.Client{
		Timeout: cfg.Orchestrator.HTTPTimeout.Duration,
		Transport: &http.Transport{
			MaxIdleConnsPerHost: cfg.Orchestrator.MaxIdleConnsPerHost,
		},
	}

	orchestrator := monitor.New(repo, notifier, httpClient, m, logger, cfg.Orchestrator.ObservationChannelBuffer)
	c := cleaner.New(repo, cfg, m, logger)
	sm := storage.New(repo, cfg, m, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting metrics server", zap.Int("port", cfg.Metrics.Port))
		return metricsServer.Start()
	})

	g.Go(func() error {
		logger.Info("starting monitor orchestrator")
		metricsServer.UpdateHealthCheck(metrics.ComponentOrchestrator, "ok")
		return orchestrator.Run(gCtx)
	})

	if cfg.Retention.Enabled {
		g.Go(func() error {
			logger.Info("starting cleaner",
				zap.Duration("interval", cfg.Retention.CleanupInterval.Duration),
				zap.Duration("retention", cfg.Retention.RetentionPeriod.Duration),
			)
			metricsServer.UpdateHealthCheck(metrics.ComponentCleaner, "ok")
			c.Start(gCtx)
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("starting storage monitor",
			zap.Duration("interval", cfg.Storage.MonitorInterval.Duration),
		)
		metricsServer.UpdateHealthCheck(metrics.ComponentStorage, "ok")
		sm.Start(gCtx)
		return nil
	})

	metricsServer.SetReady(true)
	logger.Info("responsed is ready")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)

	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case <-gCtx.Done():
		logger.Info("context cancelled")
	}

	logger.Info("starting graceful shutdown")
	metricsServer.SetReady(false)

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", zap.Error(err))
	}

	if err := g.Wait(); err != nil {
		logger.Error("error during shutdown", zap.Error(err))
	}

	logger.Info("responsed shutdown complete")
}

func newLogger(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	switch level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	}

	return cfg.Build()
}
