package rentals

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

const rentalColumns = `id, vehicle_id, customer_id, company_id, start_date, end_date, total_price, status, created_at`

// Repository defines persistence operations for rentals.
type Repository interface {
	ListRentals(ctx context.Context) ([]Rental, error)
	GetRental(ctx context.Context, id string) (*Rental, error)
	CreateRental(ctx context.Context, rental Rental) (*Rental, error)
	UpdateRental(ctx context.Context, rental Rental) error
	DeleteRental(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// ListRentals returns the full collection, newest first.
func (r *PGRepository) ListRentals(ctx context.Context) ([]Rental, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+rentalColumns+` FROM rentals ORDER BY start_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("rentals: list: %w", err)
	}
	defer rows.Close()
	var out []Rental
	for rows.Next() {
		var rental Rental
		if err := scanRental(rows, &rental); err != nil {
			return nil, err
		}
		out = append(out, rental)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rentals: list: %w", err)
	}
	return out, nil
}

// GetRental fetches one rental.
func (r *PGRepository) GetRental(ctx context.Context, id string) (*Rental, error) {
	var rental Rental
	row := r.pool.QueryRow(ctx, `SELECT `+rentalColumns+` FROM rentals WHERE id = $1`, id)
	if err := scanRental(row, &rental); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &rental, nil
}

// CreateRental inserts a new rental.
func (r *PGRepository) CreateRental(ctx context.Context, rental Rental) (*Rental, error) {
	if rental.ID == "" {
		rental.ID = uuid.NewString()
	}
	if rental.Status == "" {
		rental.Status = "pending"
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO rentals (id, vehicle_id, customer_id, company_id, start_date, end_date, total_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`,
		rental.ID, rental.VehicleID, rental.CustomerID, rental.CompanyID,
		rental.StartDate, rental.EndDate, rental.TotalPrice, rental.Status).
		Scan(&rental.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("rentals: create: %w", err)
	}
	return &rental, nil
}

// UpdateRental updates an existing rental.
func (r *PGRepository) UpdateRental(ctx context.Context, rental Rental) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE rentals
		SET start_date = $2, end_date = $3, total_price = $4, status = $5
		WHERE id = $1`,
		rental.ID, rental.StartDate, rental.EndDate, rental.TotalPrice, rental.Status)
	if err != nil {
		return fmt.Errorf("rentals: update: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteRental removes a rental.
func (r *PGRepository) DeleteRental(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM rentals WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("rentals: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func scanRental(row pgx.Row, rental *Rental) error {
	err := row.Scan(&rental.ID, &rental.VehicleID, &rental.CustomerID, &rental.CompanyID,
		&rental.StartDate, &rental.EndDate, &rental.TotalPrice, &rental.Status, &rental.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("rentals: scan: %w", err)
	}
	return nil
}

var _ Repository = (*PGRepository)(nil)
