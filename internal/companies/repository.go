package companies

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent/internal/shared"
)

// Repository defines persistence operations for companies.
type Repository interface {
	GetCompany(ctx context.Context, id string) (*Company, error)
	ListCompanies(ctx context.Context) ([]Company, error)
	CreateCompany(ctx context.Context, company Company) (*Company, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetCompany fetches a company by id.
func (r *PGRepository) GetCompany(ctx context.Context, id string) (*Company, error) {
	var c Company
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, COALESCE(ic, ''), COALESCE(dic, ''), COALESCE(address, ''), is_active, created_at
		FROM companies WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.IC, &c.DIC, &c.Address, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("companies: get: %w", err)
	}
	return &c, nil
}

// ListCompanies returns all companies ordered by name.
func (r *PGRepository) ListCompanies(ctx context.Context) ([]Company, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, COALESCE(ic, ''), COALESCE(dic, ''), COALESCE(address, ''), is_active, created_at
		FROM companies ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("companies: list: %w", err)
	}
	defer rows.Close()
	var out []Company
	for rows.Next() {
		var c Company
		if err := rows.Scan(&c.ID, &c.Name, &c.IC, &c.DIC, &c.Address, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("companies: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("companies: list: %w", err)
	}
	return out, nil
}

// CreateCompany inserts a new company.
func (r *PGRepository) CreateCompany(ctx context.Context, company Company) (*Company, error) {
	if company.ID == "" {
		company.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO companies (id, name, ic, dic, address)
		VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), NULLIF($5, ''))
		RETURNING is_active, created_at`,
		company.ID, company.Name, company.IC, company.DIC, company.Address).
		Scan(&company.IsActive, &company.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, shared.ErrConflict
		}
		return nil, fmt.Errorf("companies: create: %w", err)
	}
	return &company, nil
}

var _ Repository = (*PGRepository)(nil)
