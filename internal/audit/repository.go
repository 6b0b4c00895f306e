package audit

import (
	"context"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines persistence operations for the audit trail.
type Repository interface {
	InsertEntry(ctx context.Context, entry Entry) error
	ListEntries(ctx context.Context, filter Filter) ([]Entry, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// InsertEntry appends one entry to the trail.
func (r *PGRepository) InsertEntry(ctx context.Context, entry Entry) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO audit_log (actor_id, user_id, company_id, change, occurred_at)
		VALUES (NULLIF($1, ''), $2, $3, $4, $5)`,
		entry.ActorID, entry.UserID, entry.CompanyID, entry.Change, entry.OccurredAt)
	if err != nil {
		return fmt.Errorf("audit: insert: %w", err)
	}
	return nil
}

// ListEntries returns entries newest first, optionally filtered by user or
// company.
func (r *PGRepository) ListEntries(ctx context.Context, filter Filter) ([]Entry, error) {
	query := `SELECT id, COALESCE(actor_id, ''), user_id, company_id, change, occurred_at FROM audit_log`
	var args []any
	var where []string
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, "user_id = $"+strconv.Itoa(len(args)))
	}
	if filter.CompanyID != "" {
		args = append(args, filter.CompanyID)
		where = append(where, "company_id = $"+strconv.Itoa(len(args)))
	}
	for i, clause := range where {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	args = append(args, limit)
	query += " ORDER BY occurred_at DESC LIMIT $" + strconv.Itoa(len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var entry Entry
		if err := rows.Scan(&entry.ID, &entry.ActorID, &entry.UserID, &entry.CompanyID, &entry.Change, &entry.OccurredAt); err != nil {
			return nil, fmt.Errorf("audit: scan: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: list: %w", err)
	}
	return out, nil
}

var _ Repository = (*PGRepository)(nil)
