package customers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent/internal/shared"
)

// Repository defines persistence operations for customers.
type Repository interface {
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetCustomer(ctx context.Context, id string) (*Customer, error)
	CreateCustomer(ctx context.Context, customer Customer) (*Customer, error)
	UpdateCustomer(ctx context.Context, customer Customer) error
	DeleteCustomer(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListCustomers returns the full collection, newest first.
func (r *PGRepository) ListCustomers(ctx context.Context) ([]Customer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM customers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	defer rows.Close()
	var out []Customer
	for rows.Next() {
		var c Customer
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("customers: scan: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("customers: list: %w", err)
	}
	return out, nil
}

// GetCustomer fetches one customer.
func (r *PGRepository) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var c Customer
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.Phone, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("customers: get: %w", err)
	}
	return &c, nil
}

// CreateCustomer inserts a new customer.
func (r *PGRepository) CreateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO customers (id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING created_at`,
		customer.ID, customer.FirstName, customer.LastName, customer.Email, customer.Phone).
		Scan(&customer.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("customers: create: %w", err)
	}
	return &customer, nil
}

// UpdateCustomer updates an existing customer.
func (r *PGRepository) UpdateCustomer(ctx context.Context, customer Customer) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE customers
		SET first_name = $2, last_name = $3, email = NULLIF($4, ''), phone = NULLIF($5, '')
		WHERE id = $1`,
		customer.ID, customer.FirstName, customer.LastName, customer.Email, customer.Phone)
	if err != nil {
		return fmt.Errorf("customers: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteCustomer removes a customer.
func (r *PGRepository) DeleteCustomer(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("customers: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
