package authz

import (
	"context"
	"fmt"
	"log/slog"
)

// Principal is the authenticated actor of one request, built once from
// verified claims. The engine never inspects tokens.
type Principal struct {
	ID               string
	Role             Role
	CompanyID        string
	LinkedInvestorID string
}

// Decision is the outcome of a permission check. A refusal is data, not an
// error: Allowed is false and Reason says why.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// GrantSource resolves stored permission matrices for a user. Implementations
// must wrap I/O failures with shared.ErrStoreUnavailable.
type GrantSource interface {
	// MatrixFor returns the matrix granted to the user within one company.
	// The second result is false when no grant row exists for the pair.
	MatrixFor(ctx context.Context, userID, companyID string) (Matrix, bool, error)
	// MatricesFor returns every matrix granted to the user across companies.
	MatricesFor(ctx context.Context, userID string) ([]Matrix, error)
}

// ShareSource resolves the companies an investor holds shares in.
type ShareSource interface {
	AccessibleCompanies(ctx context.Context, investorID string) ([]string, error)
}

// Engine composes role hierarchy, stored grants and investor shares into one
// permission decision per call. It holds no per-request state.
type Engine struct {
	grants GrantSource
	shares ShareSource
	logger *slog.Logger
}

// NewEngine constructs an Engine. logger may be nil.
func NewEngine(grants GrantSource, shares ShareSource, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{grants: grants, shares: shares, logger: logger}
}

const reasonUnavailable = "permission check unavailable"

func reasonNoPermission(resource Resource, action Action) string {
	return fmt.Sprintf("no permission for %s/%s", resource, action)
}

// CanAccess decides whether the principal may perform action on resource.
// companyID scopes the check to one company; when empty the check succeeds if
// any of the principal's grants authorizes the pair (the cross-company
// fallback used by menu visibility).
//
// On store failure the engine fails closed: the decision denies with a
// distinct reason and the wrapped error carries shared.ErrStoreUnavailable so
// callers can tell "no" from "couldn't check".
func (e *Engine) CanAccess(ctx context.Context, p Principal, resource Resource, action Action, companyID string) (Decision, error) {
	if p.Role.IsGlobalBypass() {
		return Decision{Allowed: true}, nil
	}

	// company_admin is allowed once authenticated without comparing companyID
	// against its own company. Observed production behavior; see the pending
	// scope-check test in engine_test.go before tightening this.
	if p.Role.IsScopedBypass() {
		return Decision{Allowed: true}, nil
	}

	if p.Role == RoleInvestor {
		return e.decideInvestor(ctx, p, resource, action, companyID)
	}

	if companyID != "" {
		matrix, ok, err := e.grants.MatrixFor(ctx, p.ID, companyID)
		if err != nil {
			e.logger.Error("grant lookup failed", slog.String("user_id", p.ID), slog.String("company_id", companyID), slog.Any("error", err))
			return Decision{Allowed: false, Reason: reasonUnavailable}, fmt.Errorf("authz: grant lookup: %w", err)
		}
		if ok && matrix.Allows(resource, action) {
			return Decision{Allowed: true}, nil
		}
		return Decision{Allowed: false, Reason: reasonNoPermission(resource, action)}, nil
	}

	matrices, err := e.grants.MatricesFor(ctx, p.ID)
	if err != nil {
		e.logger.Error("grant list failed", slog.String("user_id", p.ID), slog.Any("error", err))
		return Decision{Allowed: false, Reason: reasonUnavailable}, fmt.Errorf("authz: grant list: %w", err)
	}
	for _, matrix := range matrices {
		if matrix.Allows(resource, action) {
			return Decision{Allowed: true}, nil
		}
	}
	return Decision{Allowed: false, Reason: reasonNoPermission(resource, action)}, nil
}

func (e *Engine) decideInvestor(ctx context.Context, p Principal, resource Resource, action Action, companyID string) (Decision, error) {
	if !investorRights.Allows(resource, action) {
		return Decision{Allowed: false, Reason: reasonNoPermission(resource, action)}, nil
	}

	// Reads on company-scoped resources additionally require an active share
	// row linking the investor to the target company.
	if companyID != "" && action == ActionRead && (resource == ResourceCompanies || resource == ResourceSettlements) {
		if p.LinkedInvestorID == "" {
			return Decision{Allowed: false, Reason: "investor account has no linked investor record"}, nil
		}
		companies, err := e.shares.AccessibleCompanies(ctx, p.LinkedInvestorID)
		if err != nil {
			e.logger.Error("investor share lookup failed", slog.String("investor_id", p.LinkedInvestorID), slog.Any("error", err))
			return Decision{Allowed: false, Reason: reasonUnavailable}, fmt.Errorf("authz: share lookup: %w", err)
		}
		for _, id := range companies {
			if id == companyID {
				return Decision{Allowed: true}, nil
			}
		}
		return Decision{Allowed: false, Reason: fmt.Sprintf("no access to company %s", companyID)}, nil
	}

	return Decision{Allowed: true}, nil
}
