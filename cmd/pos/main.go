package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/rengaa-pos/rengaa-pos/internal/app"
	"github.com/rengaa-pos/rengaa-pos/internal/billing"
	billinghttp "github.com/rengaa-pos/rengaa-pos/internal/billing/http"
	"github.com/rengaa-pos/rengaa-pos/internal/catalog"
	"github.com/rengaa-pos/rengaa-pos/internal/directory"
	"github.com/rengaa-pos/rengaa-pos/internal/invoicestore"
	"github.com/rengaa-pos/rengaa-pos/internal/observability"
	"github.com/rengaa-pos/rengaa-pos/internal/platform/cache"
	"github.com/rengaa-pos/rengaa-pos/internal/platform/db"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

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

	invoices := invoicestore.NewRepository(pool)
	numbering := billing.NewNumberingAdapter(invoicestore.NewNumbering(pool), logger)
	holds := billing.NewHoldStore(redisClient, cfg.HoldTTL)
	registry := billinghttp.NewRegistry(cfg.Branch(), invoices, numbering, holds, logger)

	products := catalog.NewRepository(pool)
	clients := directory.NewRepository(pool)

	metrics := observability.NewMetrics()
	billingHandler := billinghttp.NewHandler(logger, registry, cfg.Branch(), products, clients)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobsHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		BillingHandler: billingHandler,
		JobsHandler:    jobsHandler,
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr), slog.String("branch", cfg.BranchID))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
