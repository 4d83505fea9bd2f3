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

	"paydash/internal/amqp"
	"paydash/internal/analysis/gemini"
	"paydash/internal/apiclient"
	"paydash/internal/blob"
	"paydash/internal/config"
	apphttp "paydash/internal/http"
	"paydash/internal/insights"
	"paydash/internal/log"
	"paydash/internal/store"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := log.New(log.Config{
		Level:     slog.LevelInfo,
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	// Load configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// Open the blob store backend
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

	// Choose the analysis backend. The remote API also serves as the
	// authentication gate; the Gemini backend needs none.
	var (
		analyzer insights.Analyzer
		auth     store.Authenticator
	)
	switch cfg.AnalysisBackend {
	case "gemini":
		model := cfg.GeminiModel
		if model == "" {
			model = gemini.DefaultModelName
		}
		analyzer = gemini.New(model)
		logger.Info("Initialized Gemini analysis backend", "model", model)
	default:
		api := apiclient.New(cfg.APIBaseURL, blobs)
		analyzer = api
		auth = api
		logger.Info("Initialized remote analysis backend", "base_url", cfg.APIBaseURL)
	}

	// Optional change publisher; without AMQP the store works standalone
	// and the backup worker simply never hears about changes.
	var publisher store.ChangePublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client, change events disabled", "error", err)
		} else {
			publisher = amqpClient
			defer amqpClient.Close()
			logger.Info("AMQP change publisher initialized", "exchange", cfg.AMQPExchange)
		}
	}

	st := store.New(blobs, auth, publisher)
	ins := insights.NewService(analyzer, st)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize the store in the background. Until it succeeds the API
	// answers 503; an expired token keeps the retry loop going until the
	// user logs in again.
	go func() {
		for {
			err := st.Init(ctx)
			if err == nil {
				return
			}
			logger.Error("Store initialization failed, retrying", "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(10 * time.Second):
			}
		}
	}()

	srv := apphttp.NewServer(":"+cfg.Port, st, ins, logger)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Graceful shutdown handling
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

	logger.Info("Starting paydash server",
		"port", cfg.Port,
		"blob_backend", cfg.BlobBackend,
		"analysis_backend", cfg.AnalysisBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
