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

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/voyagedesk/voyagedesk/internal/app"
	"github.com/voyagedesk/voyagedesk/internal/checkout"
	"github.com/voyagedesk/voyagedesk/internal/ledger"
	"github.com/voyagedesk/voyagedesk/internal/observability"
	"github.com/voyagedesk/voyagedesk/internal/platform/db"
	"github.com/voyagedesk/voyagedesk/jobs"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Warn("redis ping", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	// Warm the current month's snapshots so the dashboard's first read does
	// not wait for the nightly schedule. Best effort; the worker owns retries.
	jobClient := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	if _, err := jobClient.EnqueueTBRefresh(ctx, jobs.TBRefreshPayload{}); err != nil {
		logger.Warn("enqueue startup tb refresh", slog.Any("error", err))
	}

	metrics := observability.NewMetrics()

	ledgerStore := ledger.NewRepository(pool)
	reportCache := ledger.NewReportCache(redisClient, cfg.ReportCacheTTL)
	aggregator := ledger.NewAggregator(ledgerStore, logger)
	ledgerService := ledger.NewService(ledgerStore, aggregator, reportCache, logger)
	ledgerHandler := ledger.NewHandler(ledgerService, logger)

	checkoutStore := checkout.NewRepository(pool)
	coordinator := checkout.NewCoordinator(checkoutStore, logger, metrics)
	cartRegistry := checkout.NewRegistry()
	checkoutHandler := checkout.NewHandler(cartRegistry, coordinator, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledgerHandler,
		CheckoutHandler: checkoutHandler,
		Metrics:         metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown", slog.Any("error", err))
		}
	}()

	logger.Info("voyagedesk listening", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", slog.Any("error", err))
		os.Exit(1)
	}
}
