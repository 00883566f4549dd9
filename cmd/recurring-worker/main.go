package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"tally/internal/config"
	"tally/internal/core"
	applog "tally/internal/log"
	"tally/internal/services"
	"tally/internal/storage"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// The recurring worker materializes active templates for the current month
// across every workspace, on a cron schedule (first of the month by
// default). Generation is idempotent, so overlapping runs with the HTTP
// endpoint are harmless.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := applog.New(applog.Config{
		Level:     applog.ParseLevel(cfg.LogLevel),
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", applog.FieldError, err)
		os.Exit(1)
	}

	repo, err := storage.New(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", applog.FieldError, err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	generator := services.NewGenerator(repo)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runAll := func() {
		workspaces, err := repo.ListWorkspaceIDs(ctx)
		if err != nil {
			logger.Error("Failed to list workspaces", applog.FieldError, err)
			return
		}
		for _, wsID := range workspaces {
			rc := core.RequestContext{WorkspaceID: wsID}
			result, err := generator.Generate(ctx, rc, services.GenerateRequest{})
			if err != nil {
				logger.Error("Generation failed",
					applog.FieldWorkspaceID, wsID,
					applog.FieldError, err)
				continue
			}
			logger.Info("Generation run complete",
				applog.FieldWorkspaceID, wsID,
				applog.FieldMonth, result.Month,
				"generated", result.Generated,
				"skipped", result.Skipped)
		}
	}

	logger.Info("Running initial recurring generation")
	runAll()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RecurringCron, runAll); err != nil {
		logger.Error("Failed to schedule generation", applog.FieldError, err, "spec", cfg.RecurringCron)
		os.Exit(1)
	}
	scheduler.Start()
	logger.Info("Recurring worker scheduled", "spec", cfg.RecurringCron)

	<-ctx.Done()
	logger.Info("Shutdown signal received")
	<-scheduler.Stop().Done()
	logger.Info("Recurring worker stopped gracefully")
}
