package investors

import (
	"context"
	"fmt"

	"github.com/fleetrent/fleetrent/internal/shared"
)

// Service resolves investor share data. It is the engine's ShareSource: an
// investor's accessible-company set is exactly the companies where a share
// row exists for the linked investor id.
type Service struct {
	repo Repository
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// AccessibleCompanies returns the ids of the companies the investor holds
// shares in. I/O failures are wrapped as store-unavailable so the decision
// engine fails closed instead of misreading them as "no shares".
func (s *Service) AccessibleCompanies(ctx context.Context, investorID string) ([]string, error) {
	shares, err := s.repo.ListSharesForInvestor(ctx, investorID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
	}
	companies := make([]string, 0, len(shares))
	seen := make(map[string]struct{}, len(shares))
	for _, share := range shares {
		if _, ok := seen[share.CompanyID]; ok {
			continue
		}
		seen[share.CompanyID] = struct{}{}
		companies = append(companies, share.CompanyID)
	}
	return companies, nil
}

// ListSharesForCompany returns a company's cap table.
func (s *Service) ListSharesForCompany(ctx context.Context, companyID string) ([]Share, error) {
	return s.repo.ListSharesForCompany(ctx, companyID)
}

// CreateShare links an investor to a company.
func (s *Service) CreateShare(ctx context.Context, share Share) (*Share, error) {
	if share.InvestorID == "" {
		return nil, shared.NewValidationError("investorId", "required")
	}
	if share.CompanyID == "" {
		return nil, shared.NewValidationError("companyId", "required")
	}
	if share.OwnershipPercentage <= 0 || share.OwnershipPercentage > 100 {
		return nil, shared.NewValidationError("ownershipPercentage", "must be in (0, 100]")
	}
	return s.repo.CreateShare(ctx, share)
}

// DeleteShare removes a share row, revoking the derived company access.
func (s *Service) DeleteShare(ctx context.Context, id string) error {
	return s.repo.DeleteShare(ctx, id)
}
