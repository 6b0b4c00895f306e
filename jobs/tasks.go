package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskAuditRecord is the task type for persisting an audit trail entry.
	TaskAuditRecord = "audit:record"
	// TaskCacheWarmup is the task type for pre-populating listing caches.
	TaskCacheWarmup = "cache:warmup"
)

// AuditRecordPayload describes one permission change to persist.
type AuditRecordPayload struct {
	ActorID    string    `json:"actor_id"`
	UserID     string    `json:"user_id"`
	CompanyID  string    `json:"company_id"`
	Change     string    `json:"change"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewAuditRecordTask constructs an Asynq task for an audit entry.
func NewAuditRecordTask(payload AuditRecordPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskAuditRecord, data), nil
}

// CacheWarmupPayload selects which collections the warmup run touches.
// An empty slice means all of them.
type CacheWarmupPayload struct {
	Collections []string `json:"collections,omitempty"`
}

// NewCacheWarmupTask constructs an Asynq task for a cache warmup run.
func NewCacheWarmupTask(payload CacheWarmupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskCacheWarmup, data), nil
}
