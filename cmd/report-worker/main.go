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

	"github.com/theflourishcollective/flourish-dashboard/internal/amqp"
	"github.com/theflourishcollective/flourish-dashboard/internal/config"
	"github.com/theflourishcollective/flourish-dashboard/internal/source/gsheets"
	"github.com/theflourishcollective/flourish-dashboard/internal/storage"
	"github.com/theflourishcollective/flourish-dashboard/internal/worker"
)

// keepSnapshots bounds the snapshot table; the worker prunes after each
// successful export.
const keepSnapshots = 20

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("Starting report-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the report worker")
		os.Exit(1)
	}
	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("GOOGLE_SPREADSHEET_ID is required for the report worker")
		os.Exit(1)
	}

	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	sheetsClient, err := gsheets.New(context.Background(), cfg.GoogleSpreadsheetID, cfg.ExportSheetName)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"export_sheet", cfg.ExportSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	exportWorker := worker.NewExportWorker(repo, sheetsClient, keepSnapshots)

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumeDatasetRefresh(ctx, func(msg *amqp.DatasetRefreshMessage) error {
			hctx, cancel := context.WithTimeout(ctx, 30*time.Second)
			defer cancel()
			return exportWorker.HandleRefreshMessage(hctx, msg)
		})
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
			os.Exit(1)
		}
	}

	// Give the in-flight message a moment to finish before the deferred
	// closes tear down the connections.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
