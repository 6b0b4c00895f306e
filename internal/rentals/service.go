package rentals

import (
	"context"

	"github.com/fleetrent/fleetrent/internal/platform/cache"
	"github.com/fleetrent/fleetrent/internal/shared"
)

const listKey = "rentals:all"

// Service serves the rental listing through the read-through cache. Rentals
// are the highest-churn collection, so their cache runs on the shortest TTL.
type Service struct {
	repo  Repository
	cache *cache.ReadThrough[[]Rental]
}

// NewService constructs a Service.
func NewService(repo Repository, listCache *cache.ReadThrough[[]Rental]) *Service {
	return &Service{repo: repo, cache: listCache}
}

// ListRentals returns the cached full collection.
func (s *Service) ListRentals(ctx context.Context) ([]Rental, error) {
	return s.cache.GetOrLoad(ctx, listKey, func(ctx context.Context) ([]Rental, error) {
		return s.repo.ListRentals(ctx)
	})
}

// GetRental fetches one rental, bypassing the cache.
func (s *Service) GetRental(ctx context.Context, id string) (*Rental, error) {
	return s.repo.GetRental(ctx, id)
}

// CreateRental persists a rental and invalidates the listing cache.
func (s *Service) CreateRental(ctx context.Context, rental Rental) (*Rental, error) {
	if err := validate(rental); err != nil {
		return nil, err
	}
	created, err := s.repo.CreateRental(ctx, rental)
	if err != nil {
		return nil, err
	}
	s.cache.InvalidateAll()
	return created, nil
}

// UpdateRental updates a rental and invalidates the listing cache.
func (s *Service) UpdateRental(ctx context.Context, rental Rental) error {
	if err := s.repo.UpdateRental(ctx, rental); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	return nil
}

// DeleteRental removes a rental and invalidates the listing cache.
func (s *Service) DeleteRental(ctx context.Context, id string) error {
	if err := s.repo.DeleteRental(ctx, id); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	return nil
}

func validate(rental Rental) error {
	if rental.VehicleID == "" {
		return shared.NewValidationError("vehicleId", "required")
	}
	if rental.CustomerID == "" {
		return shared.NewValidationError("customerId", "required")
	}
	if rental.CompanyID == "" {
		return shared.NewValidationError("companyId", "required")
	}
	if rental.EndDate.Before(rental.StartDate) {
		return shared.NewValidationError("endDate", "must not precede startDate")
	}
	return nil
}
