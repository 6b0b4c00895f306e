package audit

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	jobmetrics "github.com/fleetrent/fleetrent/internal/jobs"
	"github.com/fleetrent/fleetrent/jobs"
)

// RecordJob persists queued audit entries. It runs in the worker process.
type RecordJob struct {
	Repo    Repository
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewRecordJob wires dependencies for the audit record handler.
func NewRecordJob(repo Repository, logger *slog.Logger, metrics *jobmetrics.Metrics) *RecordJob {
	return &RecordJob{Repo: repo, Logger: logger, Metrics: metrics}
}

// Handle processes audit record tasks.
func (j *RecordJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Repo == nil {
		return errors.New("audit record: handler not configured")
	}
	var payload jobs.AuditRecordPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	if payload.UserID == "" || payload.CompanyID == "" {
		return asynq.SkipRetry
	}
	if payload.OccurredAt.IsZero() {
		payload.OccurredAt = time.Now().UTC()
	}

	tracker := j.metrics().Track(jobs.TaskAuditRecord)
	err := j.Repo.InsertEntry(ctx, Entry{
		ActorID:    payload.ActorID,
		UserID:     payload.UserID,
		CompanyID:  payload.CompanyID,
		Change:     payload.Change,
		OccurredAt: payload.OccurredAt,
	})
	if err != nil {
		j.logger().Error("persist audit entry", slog.Any("error", err))
	}
	return tracker.End(err)
}

func (j *RecordJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", jobs.TaskAuditRecord))
	}
	return slog.Default().With(slog.String("job", jobs.TaskAuditRecord))
}

func (j *RecordJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return jobmetrics.NewMetrics(nil)
}
