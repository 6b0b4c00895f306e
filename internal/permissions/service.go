package permissions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/platform/cache"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// AuditRecorder receives grant-change events. Implementations enqueue
// asynchronously; a nil recorder disables auditing.
type AuditRecorder interface {
	GrantChanged(ctx context.Context, actorID, userID, companyID, change string)
}

// Service wraps the grant repository with the read-through cache and the
// admin business rules. It is the engine's GrantSource.
type Service struct {
	repo   Repository
	cache  *cache.ReadThrough[[]Grant]
	audit  AuditRecorder
	logger *slog.Logger
}

// NewService constructs a Service. audit may be nil.
func NewService(repo Repository, grantCache *cache.ReadThrough[[]Grant], audit AuditRecorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, cache: grantCache, audit: audit, logger: logger}
}

func grantCacheKey(userID string) string {
	return "grants:" + userID
}

// ListGrantsForUser returns every grant of one user, served through the cache.
func (s *Service) ListGrantsForUser(ctx context.Context, userID string) ([]Grant, error) {
	grants, err := s.cache.GetOrLoad(ctx, grantCacheKey(userID), func(ctx context.Context) ([]Grant, error) {
		return s.repo.ListGrantsForUser(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
	}
	return grants, nil
}

// GetGrant returns the grant for one (user, company) pair or ErrNotFound.
func (s *Service) GetGrant(ctx context.Context, userID, companyID string) (*Grant, error) {
	grants, err := s.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range grants {
		if grants[i].CompanyID == companyID {
			grant := grants[i]
			return &grant, nil
		}
	}
	return nil, shared.ErrNotFound
}

// ListUsersForCompany returns the admin reporting view of one company.
func (s *Service) ListUsersForCompany(ctx context.Context, companyID string) ([]CompanyGrant, error) {
	grants, err := s.repo.ListUsersForCompany(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrStoreUnavailable, err)
	}
	return grants, nil
}

// SetGrant upserts a grant and invalidates the cache before returning, so a
// read that follows the call in this process observes the new matrix.
func (s *Service) SetGrant(ctx context.Context, userID, companyID string, matrix authz.Matrix) error {
	if userID == "" {
		return shared.NewValidationError("userId", "required")
	}
	if companyID == "" {
		return shared.NewValidationError("companyId", "required")
	}
	if err := s.repo.SetGrant(ctx, userID, companyID, matrix); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	s.recordChange(ctx, userID, companyID, "set")
	return nil
}

// RemoveGrant deletes a grant and invalidates the cache before returning.
func (s *Service) RemoveGrant(ctx context.Context, userID, companyID string) error {
	if err := s.repo.RemoveGrant(ctx, userID, companyID); err != nil {
		return err
	}
	s.cache.InvalidateAll()
	s.recordChange(ctx, userID, companyID, "remove")
	return nil
}

// BulkSetGrants applies assignments independently: one failure does not roll
// back the others, and every item's outcome is reported back to the caller.
func (s *Service) BulkSetGrants(ctx context.Context, assignments []Assignment) (BulkResult, error) {
	var result BulkResult
	for _, a := range assignments {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := s.repo.SetGrant(ctx, a.UserID, a.CompanyID, a.Matrix); err != nil {
			s.logger.Warn("bulk grant assignment failed",
				slog.String("user_id", a.UserID),
				slog.String("company_id", a.CompanyID),
				slog.Any("error", err))
			result.Failed = append(result.Failed, AssignmentError{
				UserID:    a.UserID,
				CompanyID: a.CompanyID,
				Error:     err.Error(),
			})
			continue
		}
		s.recordChange(ctx, a.UserID, a.CompanyID, "set")
		result.Succeeded = append(result.Succeeded, a)
	}
	s.cache.InvalidateAll()
	return result, nil
}

// MatrixFor implements authz.GrantSource over the cached grant list.
func (s *Service) MatrixFor(ctx context.Context, userID, companyID string) (authz.Matrix, bool, error) {
	grant, err := s.GetGrant(ctx, userID, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return authz.Matrix{}, false, nil
		}
		return authz.Matrix{}, false, err
	}
	return grant.Matrix, true, nil
}

// MatricesFor implements authz.GrantSource.
func (s *Service) MatricesFor(ctx context.Context, userID string) ([]authz.Matrix, error) {
	grants, err := s.ListGrantsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	matrices := make([]authz.Matrix, len(grants))
	for i, g := range grants {
		matrices[i] = g.Matrix
	}
	return matrices, nil
}

func (s *Service) recordChange(ctx context.Context, userID, companyID, change string) {
	if s.audit == nil {
		return
	}
	actorID := ""
	if p, ok := authz.PrincipalFromContext(ctx); ok {
		actorID = p.ID
	}
	s.audit.GrantChanged(ctx, actorID, userID, companyID, change)
}

var _ authz.GrantSource = (*Service)(nil)
