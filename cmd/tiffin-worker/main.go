package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tiffin/internal/amqp"
	"tiffin/internal/config"
	"tiffin/internal/ledger"
	gsheet "tiffin/internal/ledger/google"
	"tiffin/internal/ledger/memory"
	applog "tiffin/internal/log"
	"tiffin/internal/storage"
	"tiffin/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.Setup("tiffin-worker")
	logger.Info("Starting tiffin-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Ledger backend: Google Sheets when configured, in-memory otherwise so
	// the queue still drains during local development.
	var appender ledger.Appender
	if cfg.LedgerSpreadsheetID != "" {
		client, err := gsheet.New(context.Background(), cfg.LedgerSpreadsheetID, cfg.LedgerSheetName)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets ledger", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets ledger initialized", "spreadsheet_id", cfg.LedgerSpreadsheetID, "sheet", cfg.LedgerSheetName)
	} else {
		appender = memory.New()
		logger.Info("Ledger export disabled - no LEDGER_SPREADSHEET_ID provided, using in-memory sink")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ledgerWorker := worker.NewLedgerWorker(repo, appender)

	go func() {
		err := amqpClient.ConsumeMealEvents(ctx, func(msg *amqp.MealEventMessage) error {
			return ledgerWorker.HandleMealEvent(ctx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
