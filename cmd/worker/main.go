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

	"github.com/mitrahub/mitrahub/internal/app"
	"github.com/mitrahub/mitrahub/internal/attendance"
	"github.com/mitrahub/mitrahub/internal/inventory"
	"github.com/mitrahub/mitrahub/internal/mitra"
	"github.com/mitrahub/mitrahub/internal/observability"
	"github.com/mitrahub/mitrahub/internal/platform/cache"
	"github.com/mitrahub/mitrahub/internal/platform/db"
	"github.com/mitrahub/mitrahub/internal/sales"
	"github.com/mitrahub/mitrahub/internal/shared"
	"github.com/mitrahub/mitrahub/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := cache.New(ctx, cache.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
	client := jobs.NewClient(redisOpts, cfg.AdminEmail)
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()

	obs := observability.NewMetrics()
	metrics := obs.Jobs()
	metricsServer := &http.Server{Addr: cfg.WorkerMetricsAddr, Handler: obs.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		logger.Info("serving worker metrics", slog.String("addr", cfg.WorkerMetricsAddr))
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Warn("worker metrics server", slog.Any("error", err))
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	auditLogger := shared.NewAuditLogger(pool)
	mitraService := mitra.NewService(mitra.NewRepository(pool), auditLogger)
	inventoryService := inventory.NewService(inventory.NewRepository(pool), auditLogger, nil, nil, logger)
	salesService := sales.NewService(
		sales.NewRepository(pool),
		auditLogger,
		cache.NewVersioned(redisClient, sales.CacheNamespace, cfg.SalesCacheTTL),
		obs,
		logger,
	)

	mailJob := &jobs.MailJob{
		Sender: jobs.NewSMTPSender(jobs.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			From:     cfg.SMTPFrom,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
		}),
		Logger:  logger,
		Metrics: metrics,
	}
	contractJob := &jobs.ContractScanJob{
		Source:       mitraService,
		Mailer:       client,
		AdminEmail:   cfg.AdminEmail,
		WithinMonths: cfg.ContractReminderMonths,
		Logger:       logger,
		Metrics:      metrics,
	}
	lowStockJob := &jobs.LowStockScanJob{Source: inventoryService, Mailer: client, AdminEmail: cfg.AdminEmail, Logger: logger, Metrics: metrics}
	warmupJob := &jobs.SalesWarmupJob{Sales: salesService, Logger: logger, Metrics: metrics}
	cleanupJob := &jobs.IdempotencyCleanupJob{
		Store:     shared.NewIdempotencyStore(pool),
		Retention: cfg.IdempotencyRetention,
		Logger:    logger,
		Metrics:   metrics,
	}

	contractTask, err := jobs.NewContractScanTask(cfg.ContractReminderMonths)
	if err != nil {
		logger.Error("build contract scan task", slog.Any("error", err))
		os.Exit(1)
	}
	lowStockTask, err := jobs.NewLowStockScanTask()
	if err != nil {
		logger.Error("build low stock task", slog.Any("error", err))
		os.Exit(1)
	}
	warmupTask, err := jobs.NewSalesWarmupTask()
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}
	cleanupTask, err := jobs.NewIdempotencyCleanupTask(cfg.IdempotencyRetention)
	if err != nil {
		logger.Error("build cleanup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: redisOpts,
		Logger:    logger,
		Location:  attendance.BusinessLocation(),
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskTypeSendEmail, Handler: mailJob.Handle},
			{Type: jobs.TaskContractScan, Handler: contractJob.Handle},
			{Type: jobs.TaskLowStockScan, Handler: lowStockJob.Handle},
			{Type: jobs.TaskSalesWarmup, Handler: warmupJob.Handle},
			{Type: jobs.TaskIdempotencyCleanup, Handler: cleanupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "0 7 * * 1", Task: contractTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "0 6 * * *", Task: lowStockTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
			{Spec: "30 5 * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3), asynq.Timeout(time.Minute)}},
			{Spec: "0 3 * * *", Task: cleanupTask, Options: []asynq.Option{asynq.MaxRetry(1)}},
		},
	})
	if err != nil {
		logger.Error("init worker", slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("starting worker")
	if err := worker.Run(ctx); err != nil && err != context.Canceled {
		logger.Error("worker run", slog.Any("error", err))
		os.Exit(1)
	}
}
