package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/fleetrent/fleetrent/internal/companies"
	"github.com/fleetrent/fleetrent/internal/customers"
	jobmetrics "github.com/fleetrent/fleetrent/internal/jobs"
	"github.com/fleetrent/fleetrent/internal/rentals"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// CacheWarmupJob runs the full listing queries on a schedule. In-process it
// pre-populates the read-through caches; across processes it keeps the query
// pages hot in PostgreSQL and surfaces a broken listing in job metrics before
// a user request hits it.
type CacheWarmupJob struct {
	Companies *companies.Service
	Customers *customers.Service
	Rentals   *rentals.Service
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	clock     func() time.Time
}

// NewCacheWarmupJob wires dependencies for the warmup handler.
func NewCacheWarmupJob(companiesSvc *companies.Service, customersSvc *customers.Service, rentalsSvc *rentals.Service, logger *slog.Logger, metrics *jobmetrics.Metrics) *CacheWarmupJob {
	return &CacheWarmupJob{
		Companies: companiesSvc,
		Customers: customersSvc,
		Rentals:   rentalsSvc,
		Logger:    logger,
		Metrics:   metrics,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// Handle processes cache warmup tasks.
func (j *CacheWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil {
		return errors.New("cache warmup: handler not configured")
	}
	var payload CacheWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	tracker := j.metrics().Track(TaskCacheWarmup)
	var resultErr error
	defer func() {
		_ = tracker.End(resultErr)
	}()

	wanted := map[string]bool{}
	for _, name := range payload.Collections {
		wanted[name] = true
	}
	all := len(wanted) == 0

	logger := j.logger()
	start := j.now()
	warmed := 0
	for _, target := range j.targets() {
		if !all && !wanted[target.name] {
			continue
		}
		// Bound each collection so one slow query cannot stall the run.
		warmCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
		err := target.warm(warmCtx)
		cancel()
		if err != nil {
			resultErr = err
			logger.Error("warm collection", slog.String("collection", target.name), slog.Any("error", err))
			return resultErr
		}
		warmed++
	}

	logger.Info("completed cache warmup", slog.Int("collections", warmed), slog.Duration("duration", time.Since(start)))
	return resultErr
}

type warmupTarget struct {
	name string
	warm func(context.Context) error
}

func (j *CacheWarmupJob) targets() []warmupTarget {
	var out []warmupTarget
	if j.Companies != nil {
		out = append(out, warmupTarget{name: "companies", warm: func(ctx context.Context) error {
			_, err := j.Companies.ListCompanies(ctx)
			return err
		}})
	}
	if j.Customers != nil {
		out = append(out, warmupTarget{name: "customers", warm: func(ctx context.Context) error {
			_, err := j.Customers.ListCustomers(ctx)
			return err
		}})
	}
	if j.Rentals != nil {
		out = append(out, warmupTarget{name: "rentals", warm: func(ctx context.Context) error {
			_, err := j.Rentals.ListRentals(ctx)
			return err
		}})
	}
	return out
}

func (j *CacheWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskCacheWarmup))
	}
	return slog.Default().With(slog.String("job", TaskCacheWarmup))
}

func (j *CacheWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}

func (j *CacheWarmupJob) now() time.Time {
	if j.clock != nil {
		return j.clock()
	}
	return time.Now().UTC()
}
