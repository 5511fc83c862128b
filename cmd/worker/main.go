package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/rengaa-pos/rengaa-pos/internal/app"
	"github.com/rengaa-pos/rengaa-pos/internal/billing"
	"github.com/rengaa-pos/rengaa-pos/internal/observability"
	"github.com/rengaa-pos/rengaa-pos/internal/platform/cache"
	"github.com/rengaa-pos/rengaa-pos/jobs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	holds := billing.NewHoldStore(redisClient, cfg.HoldTTL)
	metrics := observability.NewMetrics()

	sweepTask, err := jobs.NewHoldsSweepTask(jobs.HoldsSweepPayload{MaxIdle: cfg.HoldSweepMaxIdle})
	if err != nil {
		logger.Error("build sweep task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskHoldsSweep, Handler: jobs.HoldsSweepHandler(holds, metrics, logger)},
		},
		Cron: []jobs.CronRegistration{
			{Spec: cfg.HoldSweepCron, Task: sweepTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
