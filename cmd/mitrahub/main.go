package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mitrahub/mitrahub/cmd/mitrahub/cli"
	"github.com/mitrahub/mitrahub/internal/app"
	"github.com/mitrahub/mitrahub/internal/attendance"
	"github.com/mitrahub/mitrahub/internal/audit"
	"github.com/mitrahub/mitrahub/internal/auth"
	"github.com/mitrahub/mitrahub/internal/dashboard"
	"github.com/mitrahub/mitrahub/internal/finance"
	"github.com/mitrahub/mitrahub/internal/inventory"
	"github.com/mitrahub/mitrahub/internal/mitra"
	"github.com/mitrahub/mitrahub/internal/observability"
	"github.com/mitrahub/mitrahub/internal/outlets"
	"github.com/mitrahub/mitrahub/internal/packages"
	"github.com/mitrahub/mitrahub/internal/platform/cache"
	"github.com/mitrahub/mitrahub/internal/platform/db"
	"github.com/mitrahub/mitrahub/internal/products"
	"github.com/mitrahub/mitrahub/internal/rbac"
	"github.com/mitrahub/mitrahub/internal/restock"
	"github.com/mitrahub/mitrahub/internal/sales"
	"github.com/mitrahub/mitrahub/internal/shared"
	"github.com/mitrahub/mitrahub/internal/users"
	"github.com/mitrahub/mitrahub/jobs"
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

	if len(os.Args) > 1 && os.Args[1] == "jobs" {
		if err := cli.RunJobs(ctx, cfg.RedisAddr, os.Args[2:], os.Stdout); err != nil {
			logger.Error("jobs command", slog.Any("error", err))
			os.Exit(1)
		}
		return
	}

	dbpool, err := db.New(ctx, cfg.PGDSN)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

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
	jobClient := jobs.NewClient(redisOpts, cfg.AdminEmail)
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	inspector := asynq.NewInspector(redisOpts)
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()
	auditLogger := shared.NewAuditLogger(dbpool)
	idempotency := shared.NewIdempotencyStore(dbpool)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL, redisClient)
	otpStore := auth.NewOTPStore(redisClient, cfg.OTPTTL, cfg.OTPMaxAttempts)
	authService := auth.NewService(auth.NewRepository(dbpool), tokens, otpStore, jobClient, metrics, logger)

	productService := products.NewService(products.NewRepository(dbpool), auditLogger)
	inventoryService := inventory.NewService(inventory.NewRepository(dbpool), auditLogger, idempotency, jobClient, logger)
	mitraService := mitra.NewService(mitra.NewRepository(dbpool), auditLogger)
	outletService := outlets.NewService(outlets.NewRepository(dbpool), auditLogger)

	salesRepo := sales.NewRepository(dbpool)
	salesCache := cache.NewVersioned(redisClient, sales.CacheNamespace, cfg.SalesCacheTTL)
	salesService := sales.NewService(salesRepo, auditLogger, salesCache, metrics, logger)

	restockService := restock.NewService(restock.NewRepository(dbpool), productService, auditLogger, idempotency, metrics, logger)
	attendanceService := attendance.NewService(attendance.NewRepository(dbpool), auditLogger, attendance.BusinessLocation(), logger)
	financeService := finance.NewService(salesRepo, finance.NewRepository(dbpool))
	dashboardService := dashboard.NewService(dashboard.Sources{
		Mitra:     mitraService,
		Outlets:   outletService,
		Inventory: inventoryService,
		Restock:   restockService,
		Sales:     salesService,
	}, cfg.ContractReminderMonths, logger)
	packageService := packages.NewService(packages.NewRepository(dbpool), auditLogger, logger, cfg.PackagesDefaultFallback)
	userService := users.NewService(users.NewRepository(dbpool), auditLogger)

	router := app.NewRouter(app.RouterParams{
		Logger:  logger,
		Config:  cfg,
		Metrics: metrics,
		RBAC:    rbac.Middleware{Tokens: tokens, Logger: logger},
		Checks: map[string]app.HealthCheck{
			"postgres": pingPool(dbpool),
			"redis":    func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		AuthHandler:       auth.NewHandler(logger, authService),
		ProductsHandler:   products.NewHandler(logger, productService),
		InventoryHandler:  inventory.NewHandler(logger, inventoryService),
		MitraHandler:      mitra.NewHandler(logger, mitraService, cfg.ContractReminderMonths),
		OutletsHandler:    outlets.NewHandler(logger, outletService),
		SalesHandler:      sales.NewHandler(logger, salesService),
		RestockHandler:    restock.NewHandler(logger, restockService, mitraService),
		AttendanceHandler: attendance.NewHandler(logger, attendanceService),
		FinanceHandler:    finance.NewHandler(logger, financeService),
		DashboardHandler:  dashboard.NewHandler(logger, dashboardService),
		PackagesHandler:   packages.NewHandler(logger, packageService),
		UsersHandler:      users.NewHandler(logger, userService),
		AuditHandler:      audit.NewHandler(logger, audit.NewService(audit.NewRepository(dbpool))),
		JobHandler:        jobs.NewHandler(inspector, logger),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr), slog.String("env", cfg.AppEnv))
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

func pingPool(pool *pgxpool.Pool) app.HealthCheck {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return fmt.Errorf("postgres ping: %w", err)
		}
		return nil
	}
}
