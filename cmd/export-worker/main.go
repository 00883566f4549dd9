package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tally/internal/amqp"
	"tally/internal/config"
	"tally/internal/export"
	applog "tally/internal/log"
	"tally/internal/storage"

	"github.com/joho/godotenv"
)

// The export worker consumes expense events from AMQP and appends them to a
// CSV audit file.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentExport,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}
	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the export worker")
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", applog.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	exporter := export.NewExporter(repo, cfg.ExportCSVPath, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Export worker started",
		"queue", cfg.AMQPQueue,
		"csv", cfg.ExportCSVPath)

	err = amqpClient.ConsumeLoop(ctx, func(msg *amqp.ExpenseEventMessage) error {
		return exporter.HandleEvent(ctx, msg)
	})
	if err != nil && err != context.Canceled {
		logger.Error("Consumer stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Export worker stopped gracefully")
}
