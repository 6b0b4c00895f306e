package companies

import (
	"context"
	"strings"

	"github.com/fleetrent/fleetrent/internal/platform/cache"
	"github.com/fleetrent/fleetrent/internal/shared"
)

const listKey = "companies:all"

// Service wraps the company repository with the read-through cache. Company
// data rarely changes, so the full listing rides a longer TTL than the
// high-churn collections.
type Service struct {
	repo  Repository
	cache *cache.ReadThrough[[]Company]
}

// NewService constructs a Service.
func NewService(repo Repository, listCache *cache.ReadThrough[[]Company]) *Service {
	return &Service{repo: repo, cache: listCache}
}

// GetCompany fetches one company.
func (s *Service) GetCompany(ctx context.Context, id string) (*Company, error) {
	return s.repo.GetCompany(ctx, id)
}

// ListCompanies returns the cached full listing.
func (s *Service) ListCompanies(ctx context.Context) ([]Company, error) {
	return s.cache.GetOrLoad(ctx, listKey, func(ctx context.Context) ([]Company, error) {
		return s.repo.ListCompanies(ctx)
	})
}

// CreateCompany persists a new company and invalidates the listing cache
// before returning.
func (s *Service) CreateCompany(ctx context.Context, company Company) (*Company, error) {
	company.Name = strings.TrimSpace(company.Name)
	if company.Name == "" {
		return nil, shared.NewValidationError("name", "required")
	}
	created, err := s.repo.CreateCompany(ctx, company)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	return created, nil
}
