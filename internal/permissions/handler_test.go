package permissions

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent/internal/authz"
)

// passGuard lets every request through; the gateway middleware is tested in
// its own package.
type passGuard struct{}

func (passGuard) Require(resource authz.Resource, action authz.Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return next }
}

func newTestRouter(repo Repository) chi.Router {
	h := NewHandler(nil, newTestService(repo, nil), passGuard{})
	r := chi.NewRouter()
	h.MountRoutes(r)
	return r
}

func doJSON(t *testing.T, router chi.Router, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestSetGrantEndpoint(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	rr := doJSON(t, router, http.MethodPut, "/users/u1/permissions/c1",
		`{"permissions":{"rentals":{"read":true,"write":true}}}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	grant, err := repo.GetGrant(context.Background(), "u1", "c1")
	require.NoError(t, err)
	assert.True(t, grant.Matrix.Allows(authz.ResourceRentals, authz.ActionWrite))
	assert.False(t, grant.Matrix.Allows(authz.ResourceRentals, authz.ActionDelete))
}

func TestSetGrantRejectsUnknownResource(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := doJSON(t, router, http.MethodPut, "/users/u1/permissions/c1",
		`{"permissions":{"helicopters":{"read":true}}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSetGrantRejectsNonBooleanLeaf(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := doJSON(t, router, http.MethodPut, "/users/u1/permissions/c1",
		`{"permissions":{"rentals":{"read":"yes"}}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSetGrantRequiresPermissionsField(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := doJSON(t, router, http.MethodPut, "/users/u1/permissions/c1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestRemoveGrantEndpoint(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	require.NoError(t, repo.SetGrant(context.Background(), "u1", "c1", rentalsRead()))

	rr := doJSON(t, router, http.MethodDelete, "/users/u1/permissions/c1", "")
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/users/u1/permissions/c1", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestListGrantsEndpoint(t *testing.T) {
	repo := newMockRepository()
	router := newTestRouter(repo)

	require.NoError(t, repo.SetGrant(context.Background(), "u1", "c1", rentalsRead()))

	rr := doJSON(t, router, http.MethodGet, "/users/u1/permissions", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		Grants []Grant `json:"grants"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Grants, 1)
	assert.Equal(t, "c1", body.Grants[0].CompanyID)
}

func TestBulkEndpointRejectsInvalidMatrix(t *testing.T) {
	router := newTestRouter(newMockRepository())

	rr := doJSON(t, router, http.MethodPost, "/permissions/bulk",
		`{"assignments":[{"userId":"u1","companyId":"c1","permissions":{"rentals":{"modify":true}}}]}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestBulkEndpointReportsPerAssignmentOutcome(t *testing.T) {
	repo := newMockRepository()
	repo.setErrorFor["u2|c1"] = errors.New("write rejected")
	router := newTestRouter(repo)

	rr := doJSON(t, router, http.MethodPost, "/permissions/bulk",
		`{"assignments":[
			{"userId":"u1","companyId":"c1","permissions":{"rentals":{"read":true}}},
			{"userId":"u2","companyId":"c1","permissions":{"rentals":{"read":true}}}
		]}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var result BulkResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.Len(t, result.Succeeded, 1)
	require.Len(t, result.Failed, 1)
	assert.Equal(t, "u2", result.Failed[0].UserID)
}
