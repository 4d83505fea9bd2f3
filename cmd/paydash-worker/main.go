package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"paydash/internal/amqp"
	"paydash/internal/blob"
	"paydash/internal/config"
	"paydash/internal/log"
	"paydash/internal/sheets"
	gsheet "paydash/internal/sheets/google"
	"paydash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting paydash-worker")

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	// Open the same blob store backend the server persists to
	blobs, cleanup, err := blob.Open(blob.Config{
		Type:          blob.BackendType(cfg.BlobBackend),
		DataDirectory: cfg.DataDirectory,
		SQLiteDBPath:  cfg.SQLiteDBPath,
	}, logger.Logger)
	if err != nil {
		logger.Error("Failed to open blob store", "error", err, "backend", cfg.BlobBackend)
		os.Exit(1)
	}
	if cleanup != nil {
		defer func() { _ = cleanup() }()
	}

	// Initialize Google Sheets export (optional)
	var summaries sheets.SummaryWriter
	if cfg.SheetsExportEnabled() {
		client, err := gsheet.NewFromEnv(context.Background())
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		summaries = client
		logger.Info("Google Sheets export initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	backupWorker := worker.NewBackupWorker(blobs, summaries, cfg.BackupDir)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// On startup, snapshot whatever was persisted while the worker was down
	if err := backupWorker.StartupCheck(ctx); err != nil {
		logger.Error("Startup snapshot failed", "error", err)
		// Don't exit - continue with normal operation
	}

	g, ctx := errgroup.WithContext(ctx)

	// Consume change messages, redialing on broker failures
	g.Go(func() error {
		return amqp.ConsumeChangesWithReconnect(ctx, cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue,
			func(msg *amqp.ChangeMessage) error {
				return backupWorker.HandleChange(ctx, msg)
			})
	})

	// Periodic snapshot as a backup for lost messages
	g.Go(func() error {
		ticker := time.NewTicker(cfg.SyncInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if err := backupWorker.Snapshot(ctx); err != nil {
					logger.Error("Periodic snapshot failed", "error", err)
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
