package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// Repository defines persistence operations for permission grants.
type Repository interface {
	GetGrant(ctx context.Context, userID, companyID string) (*Grant, error)
	ListGrantsForUser(ctx context.Context, userID string) ([]Grant, error)
	ListUsersForCompany(ctx context.Context, companyID string) ([]CompanyGrant, error)
	SetGrant(ctx context.Context, userID, companyID string, matrix authz.Matrix) error
	RemoveGrant(ctx context.Context, userID, companyID string) error
}

// PGRepository implements Repository using PostgreSQL. Grants live in the
// user_permissions table, one row per (user, company), matrix as JSONB.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetGrant fetches the grant for one (user, company) pair.
func (r *PGRepository) GetGrant(ctx context.Context, userID, companyID string) (*Grant, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT up.user_id, up.company_id, c.name, up.permissions, up.updated_at
		FROM user_permissions up
		JOIN companies c ON c.id = up.company_id
		WHERE up.user_id = $1 AND up.company_id = $2`,
		userID, companyID)
	grant, err := scanGrant(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("permissions: get grant: %w", err)
	}
	return grant, nil
}

// ListGrantsForUser returns every grant of one user ordered by company name.
func (r *PGRepository) ListGrantsForUser(ctx context.Context, userID string) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT up.user_id, up.company_id, c.name, up.permissions, up.updated_at
		FROM user_permissions up
		JOIN companies c ON c.id = up.company_id
		WHERE up.user_id = $1
		ORDER BY c.name`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("permissions: list grants: %w", err)
	}
	defer rows.Close()

	var grants []Grant
	for rows.Next() {
		grant, err := scanGrant(rows)
		if err != nil {
			return nil, fmt.Errorf("permissions: scan grant: %w", err)
		}
		grants = append(grants, *grant)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("permissions: list grants: %w", err)
	}
	return grants, nil
}

// ListUsersForCompany returns every grant within one company ordered by username.
func (r *PGRepository) ListUsersForCompany(ctx context.Context, companyID string) ([]CompanyGrant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT up.user_id, u.username, up.permissions, up.updated_at
		FROM user_permissions up
		JOIN users u ON u.id = up.user_id
		WHERE up.company_id = $1
		ORDER BY u.username`,
		companyID)
	if err != nil {
		return nil, fmt.Errorf("permissions: list company grants: %w", err)
	}
	defer rows.Close()

	var grants []CompanyGrant
	for rows.Next() {
		var cg CompanyGrant
		var raw []byte
		if err := rows.Scan(&cg.UserID, &cg.Username, &raw, &cg.UpdatedAt); err != nil {
			return nil, fmt.Errorf("permissions: scan company grant: %w", err)
		}
		if err := json.Unmarshal(raw, &cg.Matrix); err != nil {
			return nil, fmt.Errorf("permissions: decode matrix: %w", err)
		}
		grants = append(grants, cg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("permissions: list company grants: %w", err)
	}
	return grants, nil
}

// SetGrant upserts the grant for one (user, company) pair.
func (r *PGRepository) SetGrant(ctx context.Context, userID, companyID string, matrix authz.Matrix) error {
	raw, err := json.Marshal(matrix)
	if err != nil {
		return fmt.Errorf("permissions: encode matrix: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO user_permissions (user_id, company_id, permissions)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, company_id)
		DO UPDATE SET permissions = EXCLUDED.permissions, updated_at = CURRENT_TIMESTAMP`,
		userID, companyID, raw)
	if err != nil {
		return fmt.Errorf("permissions: set grant: %w", mapPGError(err))
	}
	return nil
}

// RemoveGrant deletes the grant for one (user, company) pair. Removing a
// grant that does not exist is an error, not a silent no-op.
func (r *PGRepository) RemoveGrant(ctx context.Context, userID, companyID string) error {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM user_permissions
		WHERE user_id = $1 AND company_id = $2`,
		userID, companyID)
	if err != nil {
		return fmt.Errorf("permissions: remove grant: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanGrant(row pgx.Row) (*Grant, error) {
	var grant Grant
	var raw []byte
	if err := row.Scan(&grant.UserID, &grant.CompanyID, &grant.CompanyName, &raw, &grant.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &grant.Matrix); err != nil {
		return nil, err
	}
	return &grant, nil
}

// mapPGError translates postgres constraint violations into the shared
// taxonomy: foreign keys point at a missing user or company, uniqueness at a
// duplicate grant.
func mapPGError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23503":
			return shared.ErrNotFound
		case "23505":
			return shared.ErrConflict
		}
	}
	return err
}

var _ Repository = (*PGRepository)(nil)
