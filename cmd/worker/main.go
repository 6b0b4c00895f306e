package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/hibiken/asynq"

	"github.com/fleetrent/fleetrent/internal/app"
	"github.com/fleetrent/fleetrent/internal/audit"
	"github.com/fleetrent/fleetrent/internal/companies"
	"github.com/fleetrent/fleetrent/internal/customers"
	jobmetrics "github.com/fleetrent/fleetrent/internal/jobs"
	"github.com/fleetrent/fleetrent/internal/observability"
	"github.com/fleetrent/fleetrent/internal/platform/cache"
	"github.com/fleetrent/fleetrent/internal/platform/db"
	"github.com/fleetrent/fleetrent/internal/rentals"
	"github.com/fleetrent/fleetrent/jobs"
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

	pool, err := db.New(ctx, cfg.PGDSN, db.Options{
		ConnectTimeout:   cfg.PGConnectTimeout,
		StatementTimeout: cfg.PGStatementTimeout,
		MaxConns:         cfg.PGMaxConns,
	})
	if err != nil {
		logger.Error("connect database", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	metrics := observability.NewMetrics()
	workerMetrics := jobmetrics.NewMetrics(metrics.Registerer())

	auditRepo := audit.NewRepository(pool)
	auditJob := audit.NewRecordJob(auditRepo, logger, workerMetrics)

	companiesRepo := companies.NewRepository(pool)
	companiesService := companies.NewService(companiesRepo,
		cache.NewReadThrough[[]companies.Company]("companies", cfg.CacheSize, cfg.CompanyCacheTTL, metrics))
	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo,
		cache.NewReadThrough[[]customers.Customer]("customers", cfg.CacheSize, cfg.CustomerCacheTTL, metrics))
	rentalsRepo := rentals.NewRepository(pool)
	rentalsService := rentals.NewService(rentalsRepo,
		cache.NewReadThrough[[]rentals.Rental]("rentals", cfg.CacheSize, cfg.RentalCacheTTL, metrics))

	warmupJob := jobs.NewCacheWarmupJob(companiesService, customersService, rentalsService, logger, workerMetrics)

	warmupTask, err := jobs.NewCacheWarmupTask(jobs.CacheWarmupPayload{})
	if err != nil {
		logger.Error("build warmup task", slog.Any("error", err))
		os.Exit(1)
	}

	worker, err := jobs.NewWorker(jobs.WorkerConfig{
		RedisOpts: asynq.RedisClientOpt{Addr: cfg.RedisAddr},
		Logger:    logger,
		Handlers: []jobs.TaskHandler{
			{Type: jobs.TaskAuditRecord, Handler: auditJob.Handle},
			{Type: jobs.TaskCacheWarmup, Handler: warmupJob.Handle},
		},
		Cron: []jobs.CronRegistration{
			{Spec: "*/30 * * * *", Task: warmupTask, Options: []asynq.Option{asynq.MaxRetry(3)}},
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
