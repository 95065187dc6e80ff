package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	appamqp "github.com/jiangshan001/OpenISave/internal/amqp"
	"github.com/jiangshan001/OpenISave/internal/config"
	"github.com/jiangshan001/OpenISave/internal/rates"
	"github.com/jiangshan001/OpenISave/internal/storage"
	"github.com/jiangshan001/OpenISave/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting rates-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	fetcher := rates.NewFetcher(cfg.RateAPIURL, cfg.RateAPITimeout)
	refresher := worker.NewRefreshWorker(repo, fetcher)

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Consume refresh requests published by the API (optional)
	if cfg.AMQPURL != "" {
		amqpClient, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		go func() {
			err := amqpClient.ConsumeRateRefresh(ctx, func(msg *appamqp.RateRefreshMessage) error {
				return refresher.Refresh(ctx)
			})
			if err != nil && err != context.Canceled {
				logger.Error("Message consumption failed", "error", err)
				cancel()
			}
		}()
	} else {
		logger.Info("AMQP disabled - refreshing on schedule only")
	}

	// Scheduled refresh keeps the history moving even without API traffic.
	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.RefreshSchedule, func() {
		if err := refresher.Refresh(ctx); err != nil {
			logger.Error("Scheduled rate refresh failed", "error", err)
		}
	})
	if err != nil {
		logger.Error("Invalid refresh schedule", "schedule", cfg.RefreshSchedule, "error", err)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Refresh schedule active", "schedule", cfg.RefreshSchedule)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	cancel()
	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		logger.Info("Worker shutdown complete")
	case <-time.After(5 * time.Second):
		logger.Warn("Shutdown timeout reached")
	}
}
