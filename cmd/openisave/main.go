package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	appamqp "github.com/jiangshan001/OpenISave/internal/amqp"
	"github.com/jiangshan001/OpenISave/internal/config"
	apphttp "github.com/jiangshan001/OpenISave/internal/http"
	"github.com/jiangshan001/OpenISave/internal/rates"
	"github.com/jiangshan001/OpenISave/internal/services"
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

	resolver := rates.NewResolver(repo)
	balances := services.NewBalanceService(repo, resolver)
	reports := services.NewReportService(repo)

	fetcher := rates.NewFetcher(cfg.RateAPIURL, cfg.RateAPITimeout)
	refresher := worker.NewRefreshWorker(repo, fetcher)

	// With AMQP configured, refresh requests go to the queue and a
	// rates-worker performs the fetch. Without it, the fetch runs in a
	// goroutine of this process.
	var publisher apphttp.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := appamqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP refresh queue enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - rate refreshes run in-process")
	}

	srv := apphttp.NewServer(":"+cfg.Port, repo, balances, reports, refresher, publisher)
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting openisave server", "port", cfg.Port, "db", cfg.SQLiteDBPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
