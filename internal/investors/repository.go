package investors

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fleetrent/fleetrent/internal/platform/db"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// Repository defines persistence operations for investors and their shares.
type Repository interface {
	GetInvestor(ctx context.Context, id string) (*Investor, error)
	CreateInvestor(ctx context.Context, inv Investor) (*Investor, error)
	ListSharesForCompany(ctx context.Context, companyID string) ([]Share, error)
	ListSharesForInvestor(ctx context.Context, investorID string) ([]Share, error)
	CreateShare(ctx context.Context, share Share) (*Share, error)
	DeleteShare(ctx context.Context, id string) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// GetInvestor fetches an investor by id.
func (r *PGRepository) GetInvestor(ctx context.Context, id string) (*Investor, error) {
	var inv Investor
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, COALESCE(email, ''), COALESCE(phone, ''), created_at
		FROM company_investors WHERE id = $1`, id).
		Scan(&inv.ID, &inv.FirstName, &inv.LastName, &inv.Email, &inv.Phone, &inv.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("investors: get investor: %w", err)
	}
	return &inv, nil
}

// CreateInvestor inserts a new investor.
func (r *PGRepository) CreateInvestor(ctx context.Context, inv Investor) (*Investor, error) {
	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO company_investors (id, first_name, last_name, email, phone)
		VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''))
		RETURNING created_at`,
		inv.ID, inv.FirstName, inv.LastName, inv.Email, inv.Phone).
		Scan(&inv.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("investors: create investor: %w", err)
	}
	return &inv, nil
}

// ListSharesForCompany returns a company's shares, largest stake first.
func (r *PGRepository) ListSharesForCompany(ctx context.Context, companyID string) ([]Share, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, investor_id, company_id, ownership_percentage, COALESCE(profit_share_percentage, 0), is_primary_contact, created_at
		FROM company_investor_shares
		WHERE company_id = $1
		ORDER BY ownership_percentage DESC`, companyID)
	if err != nil {
		return nil, fmt.Errorf("investors: list company shares: %w", err)
	}
	return collectShares(rows)
}

// ListSharesForInvestor returns every share held by one investor.
func (r *PGRepository) ListSharesForInvestor(ctx context.Context, investorID string) ([]Share, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, investor_id, company_id, ownership_percentage, COALESCE(profit_share_percentage, 0), is_primary_contact, created_at
		FROM company_investor_shares
		WHERE investor_id = $1
		ORDER BY ownership_percentage DESC`, investorID)
	if err != nil {
		return nil, fmt.Errorf("investors: list investor shares: %w", err)
	}
	return collectShares(rows)
}

// CreateShare inserts a new share row linking an investor to a company. The
// insert and the 100% ownership ceiling check run in one RepeatableRead
// transaction so concurrent inserts cannot oversubscribe a company.
func (r *PGRepository) CreateShare(ctx context.Context, share Share) (*Share, error) {
	if share.ID == "" {
		share.ID = uuid.NewString()
	}
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var total float64
		if err := tx.QueryRow(ctx, `
			SELECT COALESCE(SUM(ownership_percentage), 0)
			FROM company_investor_shares WHERE company_id = $1`, share.CompanyID).Scan(&total); err != nil {
			return fmt.Errorf("investors: sum ownership: %w", err)
		}
		if total+share.OwnershipPercentage > 100 {
			return shared.NewValidationError("ownershipPercentage",
				fmt.Sprintf("company ownership would exceed 100%% (currently %.2f%%)", total))
		}
		return tx.QueryRow(ctx, `
			INSERT INTO company_investor_shares (id, investor_id, company_id, ownership_percentage, profit_share_percentage, is_primary_contact)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING created_at`,
			share.ID, share.InvestorID, share.CompanyID, share.OwnershipPercentage, share.ProfitSharePercentage, share.IsPrimaryContact).
			Scan(&share.CreatedAt)
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, shared.ErrNotFound
		}
		if shared.IsValidation(err) {
			return nil, err
		}
		return nil, fmt.Errorf("investors: create share: %w", err)
	}
	return &share, nil
}

// DeleteShare removes one share row.
func (r *PGRepository) DeleteShare(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM company_investor_shares WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("investors: delete share: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func collectShares(rows pgx.Rows) ([]Share, error) {
	defer rows.Close()
	var shares []Share
	for rows.Next() {
		var s Share
		if err := rows.Scan(&s.ID, &s.InvestorID, &s.CompanyID, &s.OwnershipPercentage, &s.ProfitSharePercentage, &s.IsPrimaryContact, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("investors: scan share: %w", err)
		}
		shares = append(shares, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("investors: shares: %w", err)
	}
	return shares, nil
}

var _ Repository = (*PGRepository)(nil)
