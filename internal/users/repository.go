package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

const userColumns = `id, username, COALESCE(email, ''), password_hash, role, COALESCE(company_id, ''), COALESCE(linked_investor_id, ''), COALESCE(first_name, ''), COALESCE(last_name, ''), is_active, created_at, updated_at`

// Repository defines persistence operations for user accounts.
type Repository interface {
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)
	ListUsers(ctx context.Context) ([]User, error)
	CreateUser(ctx context.Context, user User) (*User, error)
	UpdateUser(ctx context.Context, user User) (*User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetUser fetches a user by id.
func (r *PGRepository) GetUser(ctx context.Context, id string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByUsername fetches a user by username.
func (r *PGRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// ListUsers returns all users ordered by username.
func (r *PGRepository) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("users: list: %w", err)
	}
	return out, nil
}

// CreateUser inserts a new user account.
func (r *PGRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, email, password_hash, role, company_id, linked_investor_id, first_name, last_name)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''), NULLIF($8, ''), NULLIF($9, ''))
		RETURNING is_active, created_at, updated_at`,
		user.ID, user.Username, user.Email, user.PasswordHash, string(user.Role),
		user.CompanyID, user.LinkedInvestorID, user.FirstName, user.LastName).
		Scan(&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, shared.ErrConflict
			case "23503":
				return nil, shared.ErrNotFound
			}
		}
		return nil, fmt.Errorf("users: create: %w", err)
	}
	return &user, nil
}

// UpdateUser rewrites the account's profile fields and role.
func (r *PGRepository) UpdateUser(ctx context.Context, user User) (*User, error) {
	err := r.pool.QueryRow(ctx, `
		UPDATE users
		SET email = $2, role = $3, company_id = NULLIF($4, ''), linked_investor_id = NULLIF($5, ''),
		    first_name = NULLIF($6, ''), last_name = NULLIF($7, ''), updated_at = CURRENT_TIMESTAMP
		WHERE id = $1
		RETURNING username, is_active, created_at, updated_at`,
		user.ID, user.Email, string(user.Role), user.CompanyID, user.LinkedInvestorID,
		user.FirstName, user.LastName).
		Scan(&user.Username, &user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: update: %w", err)
	}
	return &user, nil
}

// SetActive toggles the account's active flag.
func (r *PGRepository) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2, updated_at = CURRENT_TIMESTAMP WHERE id = $1`, id, active)
	if err != nil {
		return fmt.Errorf("users: set active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var user User
	var role string
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &role,
		&user.CompanyID, &user.LinkedInvestorID, &user.FirstName, &user.LastName,
		&user.IsActive, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	user.Role, err = authz.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("users: scan: %w", err)
	}
	return &user, nil
}
