package customers

import (
	"context"
	"strings"

	"github.com/fleetrent/fleetrent/internal/platform/cache"
	"github.com/fleetrent/fleetrent/internal/shared"
)

const listKey = "customers:all"

// Service serves the high-traffic customer listing through the read-through
// cache. Every write invalidates the whole cache before returning, trading
// cache efficiency for read-your-writes simplicity.
type Service struct {
	repo  Repository
	cache *cache.ReadThrough[[]Customer]
}

// NewService constructs a Service.
func NewService(repo Repository, listCache *cache.ReadThrough[[]Customer]) *Service {
	return &Service{repo: repo, cache: listCache}
}

// ListCustomers returns the cached full collection.
func (s *Service) ListCustomers(ctx context.Context) ([]Customer, error) {
	return s.cache.GetOrLoad(ctx, listKey, func(ctx context.Context) ([]Customer, error) {
		return s.repo.ListCustomers(ctx)
	})
}

// GetCustomer fetches one customer, bypassing the cache.
func (s *Service) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	return s.repo.GetCustomer(ctx, id)
}

// CreateCustomer persists a customer and invalidates the listing cache.
func (s *Service) CreateCustomer(ctx context.Context, customer Customer) (*Customer, error) {
	if err := validate(customer); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateCustomer(ctx, customer)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	return created, nil
}

// UpdateCustomer updates a customer and invalidates the listing cache.
func (s *Service) UpdateCustomer(ctx context.Context, customer Customer) error {
	if err := validate(customer); err != nil {
		return err
	}
	if err := s.repo.UpdateCustomer(ctx, customer); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	return nil
}

// DeleteCustomer removes a customer and invalidates the listing cache.
func (s *Service) DeleteCustomer(ctx context.Context, id string) error {
	if err := s.repo.DeleteCustomer(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	return nil
}

func validate(customer Customer) error {
	if strings.TrimSpace(customer.FirstName) == "" {
		return shared.NewValidationError("firstName", "required")
	}
	if strings.TrimSpace(customer.LastName) == "" {
		return shared.NewValidationError("lastName", "required")
	}
	return nil
}
