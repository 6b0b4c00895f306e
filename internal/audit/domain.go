package audit

import "time"

// Entry is one persisted permission change.
type Entry struct {
	ID         int64     `json:"id"`
	ActorID    string    `json:"actorId,omitempty"`
	UserID     string    `json:"userId"`
	CompanyID  string    `json:"companyId"`
	Change     string    `json:"change"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Filter narrows an audit listing.
type Filter struct {
	UserID    string
	CompanyID string
	Limit     int
}
