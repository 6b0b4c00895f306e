package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

type stubGrants struct {
	matrix authz.Matrix
	has    bool
	err    error
}

func (s *stubGrants) MatrixFor(ctx context.Context, userID, companyID string) (authz.Matrix, bool, error) {
	return s.matrix, s.has, s.err
}

func (s *stubGrants) MatricesFor(ctx context.Context, userID string) ([]authz.Matrix, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.has {
		return []authz.Matrix{s.matrix}, nil
	}
	return nil, nil
}

type stubShares struct{}

func (stubShares) AccessibleCompanies(ctx context.Context, investorID string) ([]string, error) {
	return nil, nil
}

type stubStats struct {
	mu       sync.Mutex
	outcomes []string
}

func (s *stubStats) AuthzDecision(outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes = append(s.outcomes, outcome)
}

func newTestMiddleware(grants authz.GrantSource, stats DecisionStats) *Middleware {
	engine := authz.NewEngine(grants, stubShares{}, nil)
	return NewMiddleware(engine, nil, testSecret, nil, stats)
}

func bearerRequest(t *testing.T, target string, claims Claims) *http.Request {
	t.Helper()
	if claims.ExpiresAt == nil {
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(time.Hour))
	}
	token := signedToken(t, claims, testSecret)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func guardChain(m *Middleware, resource authz.Resource, action authz.Action) http.Handler {
	return m.Authenticate(m.Require(resource, action)(okHandler()))
}

func TestRequireRejectsUnauthenticated(t *testing.T) {
	stats := &stubStats{}
	m := newTestMiddleware(&stubGrants{}, stats)
	handler := guardChain(m, authz.ResourceRentals, authz.ActionRead)

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/rentals", nil))

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.Equal(t, []string{"unauthenticated"}, stats.outcomes)
}

func TestRequireRejectsMalformedAuthorizationHeader(t *testing.T) {
	m := newTestMiddleware(&stubGrants{}, nil)
	handler := guardChain(m, authz.ResourceRentals, authz.ActionRead)

	req := httptest.NewRequest(http.MethodGet, "/rentals", nil)
	req.Header.Set("Authorization", "Token abc")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestRequireAllowsGrantedPrincipal(t *testing.T) {
	var matrix authz.Matrix
	matrix = matrix.Set(authz.ResourceRentals, authz.Rights{Read: true})
	stats := &stubStats{}
	m := newTestMiddleware(&stubGrants{matrix: matrix, has: true}, stats)
	handler := guardChain(m, authz.ResourceRentals, authz.ActionRead)

	req := bearerRequest(t, "/rentals?companyId=c1", Claims{
		Role:             "employee",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, []string{"allowed"}, stats.outcomes)
}

func TestRequireDeniesWithReason(t *testing.T) {
	stats := &stubStats{}
	m := newTestMiddleware(&stubGrants{}, stats)
	handler := guardChain(m, authz.ResourceRentals, authz.ActionWrite)

	req := bearerRequest(t, "/rentals?companyId=c1", Claims{
		Role:             "employee",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	var decision authz.Decision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no permission for rentals/write", decision.Reason)
	assert.Equal(t, []string{"denied"}, stats.outcomes)
}

func TestRequireFailsClosedOnStoreFailure(t *testing.T) {
	stats := &stubStats{}
	grants := &stubGrants{err: fmt.Errorf("%w: down", shared.ErrStoreUnavailable)}
	m := newTestMiddleware(grants, stats)
	handler := guardChain(m, authz.ResourceRentals, authz.ActionRead)

	req := bearerRequest(t, "/rentals?companyId=c1", Claims{
		Role:             "employee",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "u1"},
	})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	var decision authz.Decision
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &decision))
	assert.False(t, decision.Allowed)
	assert.Equal(t, "permission check unavailable", decision.Reason)
	assert.Equal(t, []string{"unavailable"}, stats.outcomes)
}

func TestRequireGlobalBypassSkipsCompanyContext(t *testing.T) {
	m := newTestMiddleware(&stubGrants{}, nil)
	handler := guardChain(m, authz.ResourceUsers, authz.ActionDelete)

	req := bearerRequest(t, "/users", Claims{
		Role:             "super_admin",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "root"},
	})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestAuthenticateResolvesSessionCookie(t *testing.T) {
	store, _ := newTestSessionStore(t)
	require.NoError(t, store.Put(context.Background(), "sess-1", authz.Principal{ID: "u1", Role: authz.RoleCompanyAdmin, CompanyID: "c1"}))

	engine := authz.NewEngine(&stubGrants{}, stubShares{}, nil)
	m := NewMiddleware(engine, store, testSecret, nil, nil)
	handler := guardChain(m, authz.ResourceRentals, authz.ActionWrite)

	req := httptest.NewRequest(http.MethodGet, "/rentals?companyId=c1", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "sess-1"})
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
