package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/theflourishcollective/flourish-dashboard/internal/amqp"
	"github.com/theflourishcollective/flourish-dashboard/internal/config"
	"github.com/theflourishcollective/flourish-dashboard/internal/core"
	"github.com/theflourishcollective/flourish-dashboard/internal/dataset"
	apphttp "github.com/theflourishcollective/flourish-dashboard/internal/http"
	"github.com/theflourishcollective/flourish-dashboard/internal/source"
	"github.com/theflourishcollective/flourish-dashboard/internal/source/demo"
	"github.com/theflourishcollective/flourish-dashboard/internal/source/gsheets"
	"github.com/theflourishcollective/flourish-dashboard/internal/source/xlsx"
	"github.com/theflourishcollective/flourish-dashboard/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Snapshot repository keeps uploaded datasets across restarts.
	repo, err := storage.NewSnapshotRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize snapshot repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	initial := resolveInitialDataset(ctx, cfg, repo, logger)
	store := dataset.NewStore(initial)
	logger.Info("Initial dataset loaded",
		"source", initial.Source,
		"revenue_rows", len(initial.Revenue),
		"expense_rows", len(initial.Expenses))

	// AMQP is optional; without it uploads simply skip the refresh event.
	var publisher apphttp.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
		logger.Info("AMQP publisher initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - no AMQP_URL provided")
	}

	srv := apphttp.NewServer(":"+cfg.Port, store, repo, publisher, cfg.UploadMaxBytes, cfg.ReportCacheTTL)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Starting flourishd server", "port", cfg.Port, "data_source", cfg.DataSource)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	logger.Info("Server stopped gracefully")
}

// resolveInitialDataset loads the configured source, falling back to the
// latest persisted snapshot and finally to the built-in demo dataset so
// the dashboard always has something to render.
func resolveInitialDataset(ctx context.Context, cfg *config.Config, repo *storage.SnapshotRepository, logger *slog.Logger) core.Dataset {
	var reader source.DatasetReader
	switch cfg.DataSource {
	case "workbook":
		reader = xlsx.NewReader(cfg.WorkbookPath)
	case "sheets":
		client, err := gsheets.New(ctx, cfg.GoogleSpreadsheetID, cfg.ExportSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets source", "error", err)
		} else {
			reader = client
		}
	}

	if reader != nil {
		ds, err := reader.ReadDataset(ctx)
		if err == nil {
			return ds
		}
		if source.IsValidationError(err) {
			logger.Warn("Configured source failed validation, falling back",
				"data_source", cfg.DataSource, "error", err)
		} else {
			logger.Error("Failed to read configured source, falling back",
				"data_source", cfg.DataSource, "error", err)
		}
	}

	if ds, id, err := repo.LoadLatestSnapshot(ctx); err == nil {
		logger.Info("Restored dataset from snapshot", "snapshot_id", id, "source", ds.Source)
		return ds
	} else if !errors.Is(err, storage.ErrNoSnapshot) {
		logger.Error("Failed to restore snapshot", "error", err)
	}

	return demo.Dataset()
}
