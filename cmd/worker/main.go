package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/manage-pm/manage-admin/internal/app"
	jobmetrics "github.com/manage-pm/manage-admin/internal/jobs"
	"github.com/manage-pm/manage-admin/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping worker startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg)

	container, err := app.NewContainer(cfg, logger)
	if err != nil {
		logger.Error("build container", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := container.Close(); err != nil {
			logger.Warn("container close", slog.Any("error", err))
		}
	}()

	token, err := container.Store.Token(ctx)
	if err != nil {
		logger.Error("read token", slog.Any("error", err))
		os.Exit(1)
	}
	if token == "" {
		logger.Warn("no stored token; exports will be rejected until an operator signs in")
	}

	exportJob := jobs.NewExportJob(jobs.ExportJobConfig{
		Users:    container.Users,
		Projects: container.Projects,
		Dir:      cfg.ExportDir,
		Logger:   logger,
		Metrics:  jobmetrics.NewMetrics(container.Metrics.Registerer()),
	})

	schedule, err := jobs.ScheduledExports(cfg.ExportCron, cfg.ExportCronUsers, cfg.ExportCronProject)
	if err != nil {
		logger.Error("schedule exports", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts:   cfg.Redis().Asynq(),
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		Handlers:    exportJob.Handlers(),
		Cron:        schedule,
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("worker started", slog.String("redis", cfg.RedisAddr), slog.String("export_dir", cfg.ExportDir))
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
