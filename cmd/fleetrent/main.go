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

	"github.com/fleetrent/fleetrent/internal/app"
	"github.com/fleetrent/fleetrent/internal/audit"
	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/companies"
	"github.com/fleetrent/fleetrent/internal/customers"
	"github.com/fleetrent/fleetrent/internal/gateway"
	"github.com/fleetrent/fleetrent/internal/investors"
	"github.com/fleetrent/fleetrent/internal/observability"
	"github.com/fleetrent/fleetrent/internal/permissions"
	"github.com/fleetrent/fleetrent/internal/platform/cache"
	"github.com/fleetrent/fleetrent/internal/platform/db"
	"github.com/fleetrent/fleetrent/internal/rentals"
	"github.com/fleetrent/fleetrent/internal/users"
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
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer pool.Close()

	// A failed ping still yields a usable client; sessions and job enqueues
	// degrade until Redis returns.
	redisClient, err := cache.NewRedis(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Warn("redis ping failed, continuing degraded", slog.Any("error", err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	jobClient, err := jobs.NewClient(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	if err != nil {
		logger.Error("init job client", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := jobClient.Close(); err != nil {
			logger.Warn("job client close", slog.Any("error", err))
		}
	}()
	auditRecorder := audit.NewRecorder(jobClient, logger)

	grantCache := cache.NewReadThrough[[]permissions.Grant]("grants", cfg.CacheSize, cfg.GrantCacheTTL, metrics)
	companyCache := cache.NewReadThrough[[]companies.Company]("companies", cfg.CacheSize, cfg.CompanyCacheTTL, metrics)
	customerCache := cache.NewReadThrough[[]customers.Customer]("customers", cfg.CacheSize, cfg.CustomerCacheTTL, metrics)
	rentalCache := cache.NewReadThrough[[]rentals.Rental]("rentals", cfg.CacheSize, cfg.RentalCacheTTL, metrics)

	permissionsRepo := permissions.NewRepository(pool)
	permissionsService := permissions.NewService(permissionsRepo, grantCache, auditRecorder, logger)

	investorsRepo := investors.NewRepository(pool)
	investorsService := investors.NewService(investorsRepo)

	engine := authz.NewEngine(permissionsService, investorsService, logger)

	sessions := gateway.NewSessionStore(redisClient, cfg.SessionTTL)
	guard := gateway.NewMiddleware(engine, sessions, []byte(cfg.SessionSecret), logger, metrics)

	usersRepo := users.NewRepository(pool)
	usersService := users.NewService(usersRepo)

	companiesRepo := companies.NewRepository(pool)
	companiesService := companies.NewService(companiesRepo, companyCache)

	customersRepo := customers.NewRepository(pool)
	customersService := customers.NewService(customersRepo, customerCache)

	rentalsRepo := rentals.NewRepository(pool)
	rentalsService := rentals.NewService(rentalsRepo, rentalCache)

	auditRepo := audit.NewRepository(pool)

	inspector := asynq.NewInspector(asynq.RedisClientOpt{Addr: cfg.RedisAddr})
	defer func() {
		if err := inspector.Close(); err != nil {
			logger.Warn("inspector close", slog.Any("error", err))
		}
	}()
	jobHandler := jobs.NewHandler(inspector, logger)

	router := app.NewRouter(app.RouterParams{
		Logger:             logger,
		Config:             cfg,
		Gateway:            guard,
		PermissionsHandler: permissions.NewHandler(logger, permissionsService, guard),
		UsersHandler:       users.NewHandler(logger, usersService, guard),
		CompaniesHandler:   companies.NewHandler(logger, companiesService, guard),
		InvestorsHandler:   investors.NewHandler(logger, investorsService, guard),
		CustomersHandler:   customers.NewHandler(logger, customersService, guard),
		RentalsHandler:     rentals.NewHandler(logger, rentalsService, guard),
		AuditHandler:       audit.NewHandler(logger, auditRepo, guard),
		JobHandler:         jobHandler,
		Metrics:            metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
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
