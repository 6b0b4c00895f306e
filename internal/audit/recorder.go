package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/fleetrent/fleetrent/jobs"
)

// Recorder enqueues permission changes onto the background queue so the write
// path never waits on the audit store. A nil Recorder drops entries silently.
type Recorder struct {
	client *jobs.Client
	logger *slog.Logger
}

// NewRecorder constructs a Recorder.
func NewRecorder(client *jobs.Client, logger *slog.Logger) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Recorder{client: client, logger: logger}
}

// GrantChanged records one permission change. Enqueue failures are logged and
// swallowed; losing an audit entry must not fail the grant write.
func (r *Recorder) GrantChanged(ctx context.Context, actorID, userID, companyID, change string) {
	if r == nil || r.client == nil {
		return
	}
	payload := jobs.AuditRecordPayload{
		ActorID:    actorID,
		UserID:     userID,
		CompanyID:  companyID,
		Change:     change,
		OccurredAt: time.Now().UTC(),
	}
	if _, err := r.client.EnqueueAuditRecord(ctx, payload); err != nil {
		r.logger.Error("enqueue audit record",
			slog.String("user_id", userID),
			slog.String("company_id", companyID),
			slog.Any("error", err))
	}
}
