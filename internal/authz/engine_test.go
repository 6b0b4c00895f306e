package authz

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent/internal/shared"
)

type mockGrants struct {
	byCompany map[string]Matrix // key userID + "|" + companyID
	byUser    map[string][]Matrix
	err       error
}

func newMockGrants() *mockGrants {
	return &mockGrants{
		byCompany: make(map[string]Matrix),
		byUser:    make(map[string][]Matrix),
	}
}

func (m *mockGrants) grant(userID, companyID string, matrix Matrix) {
	m.byCompany[userID+"|"+companyID] = matrix
	m.byUser[userID] = append(m.byUser[userID], matrix)
}

func (m *mockGrants) MatrixFor(ctx context.Context, userID, companyID string) (Matrix, bool, error) {
	if m.err != nil {
		return Matrix{}, false, m.err
	}
	matrix, ok := m.byCompany[userID+"|"+companyID]
	return matrix, ok, nil
}

func (m *mockGrants) MatricesFor(ctx context.Context, userID string) ([]Matrix, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.byUser[userID], nil
}

type mockShares struct {
	companies map[string][]string
	err       error
}

func (m *mockShares) AccessibleCompanies(ctx context.Context, investorID string) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.companies[investorID], nil
}

func newEngine(grants GrantSource, shares ShareSource) *Engine {
	return NewEngine(grants, shares, nil)
}

func TestGlobalBypassNeverConsultsStores(t *testing.T) {
	// Error-injected stores prove the bypass short-circuits before any lookup.
	grants := &mockGrants{err: errors.New("boom")}
	shares := &mockShares{err: errors.New("boom")}
	engine := newEngine(grants, shares)

	for _, role := range []Role{RoleSuperAdmin, RoleAdmin} {
		for _, res := range AllResources() {
			decision, err := engine.CanAccess(context.Background(), Principal{ID: "u1", Role: role}, res, ActionDelete, "c1")
			require.NoError(t, err)
			assert.True(t, decision.Allowed, "role %s resource %s", role, res)
		}
	}
}

func TestCompanyAdminScopedBypass(t *testing.T) {
	engine := newEngine(newMockGrants(), &mockShares{})
	p := Principal{ID: "u1", Role: RoleCompanyAdmin, CompanyID: "c1"}

	decision, err := engine.CanAccess(context.Background(), p, ResourceRentals, ActionWrite, "c1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestCompanyAdminCrossCompanyScopeCheck(t *testing.T) {
	// A company_admin of c1 asking about c2 is currently allowed: the check
	// does not compare the principal's company against the target company.
	// This matches the behavior shipped today. Enable this test when the scope
	// comparison is introduced.
	t.Skip("company_admin is not yet restricted to its own company")

	engine := newEngine(newMockGrants(), &mockShares{})
	p := Principal{ID: "u1", Role: RoleCompanyAdmin, CompanyID: "c1"}

	decision, err := engine.CanAccess(context.Background(), p, ResourceRentals, ActionWrite, "c2")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestGrantLookupWithCompanyContext(t *testing.T) {
	grants := newMockGrants()
	var m Matrix
	m = m.Set(ResourceRentals, Rights{Read: true})
	grants.grant("u1", "c1", m)
	engine := newEngine(grants, &mockShares{})
	p := Principal{ID: "u1", Role: RoleEmployee, CompanyID: "c1"}

	decision, err := engine.CanAccess(context.Background(), p, ResourceRentals, ActionRead, "c1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.Empty(t, decision.Reason)

	decision, err = engine.CanAccess(context.Background(), p, ResourceRentals, ActionWrite, "c1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no permission for rentals/write", decision.Reason)

	// No grant row in c2 at all.
	decision, err = engine.CanAccess(context.Background(), p, ResourceRentals, ActionRead, "c2")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
}

func TestGrantFallbackAcrossCompanies(t *testing.T) {
	grants := newMockGrants()
	var m Matrix
	m = m.Set(ResourceVehicles, Rights{Read: true})
	grants.grant("u1", "c2", m)
	engine := newEngine(grants, &mockShares{})
	p := Principal{ID: "u1", Role: RoleEmployee}

	// Without a company context, a grant in any company is enough.
	decision, err := engine.CanAccess(context.Background(), p, ResourceVehicles, ActionRead, "")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = engine.CanAccess(context.Background(), p, ResourceVehicles, ActionDelete, "")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no permission for vehicles/delete", decision.Reason)
}

func TestDefaultDenyWithoutGrants(t *testing.T) {
	engine := newEngine(newMockGrants(), &mockShares{})

	for _, role := range []Role{RolePlatformAdmin, RolePlatformEmployee, RoleEmployee, RoleTempWorker, RoleMechanic, RoleSalesRep} {
		p := Principal{ID: "u1", Role: role}
		decision, err := engine.CanAccess(context.Background(), p, ResourceFinances, ActionRead, "c1")
		require.NoError(t, err)
		assert.False(t, decision.Allowed, "role %s", role)
	}
}

func TestFailClosedOnGrantStoreFailure(t *testing.T) {
	grants := newMockGrants()
	grants.err = fmt.Errorf("%w: connection refused", shared.ErrStoreUnavailable)
	engine := newEngine(grants, &mockShares{})
	p := Principal{ID: "u1", Role: RoleEmployee}

	for _, companyID := range []string{"c1", ""} {
		decision, err := engine.CanAccess(context.Background(), p, ResourceRentals, ActionRead, companyID)
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
		assert.False(t, decision.Allowed)
		assert.Equal(t, "permission check unavailable", decision.Reason)
	}
}

func TestInvestorFixedMatrix(t *testing.T) {
	engine := newEngine(newMockGrants(), &mockShares{})
	p := Principal{ID: "u1", Role: RoleInvestor, LinkedInvestorID: "inv1"}

	cases := []struct {
		resource Resource
		action   Action
		allowed  bool
	}{
		{ResourceVehicles, ActionRead, true},
		{ResourceVehicles, ActionWrite, false},
		{ResourceRentals, ActionWrite, true},
		{ResourceExpenses, ActionWrite, true},
		{ResourceSettlements, ActionDelete, true},
		{ResourceRentals, ActionDelete, false},
		{ResourceUsers, ActionRead, false},
		{ResourceStatistics, ActionRead, false},
		{ResourceMaintenance, ActionRead, false},
		{ResourceFinances, ActionRead, true},
		{ResourceProtocols, ActionRead, true},
	}
	for _, tc := range cases {
		decision, err := engine.CanAccess(context.Background(), p, tc.resource, tc.action, "")
		require.NoError(t, err, "%s/%s", tc.resource, tc.action)
		assert.Equal(t, tc.allowed, decision.Allowed, "%s/%s", tc.resource, tc.action)
	}
}

func TestInvestorCompanyMembershipOnScopedReads(t *testing.T) {
	shares := &mockShares{companies: map[string][]string{"inv1": {"c1", "c3"}}}
	engine := newEngine(newMockGrants(), shares)
	p := Principal{ID: "u1", Role: RoleInvestor, LinkedInvestorID: "inv1"}

	decision, err := engine.CanAccess(context.Background(), p, ResourceCompanies, ActionRead, "c1")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)

	decision, err = engine.CanAccess(context.Background(), p, ResourceSettlements, ActionRead, "c2")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "no access to company c2", decision.Reason)

	// The membership gate applies to reads only; scoped writes ride the matrix.
	decision, err = engine.CanAccess(context.Background(), p, ResourceSettlements, ActionWrite, "c2")
	require.NoError(t, err)
	assert.True(t, decision.Allowed)
}

func TestInvestorWithoutLinkedRecord(t *testing.T) {
	engine := newEngine(newMockGrants(), &mockShares{})
	p := Principal{ID: "u1", Role: RoleInvestor}

	decision, err := engine.CanAccess(context.Background(), p, ResourceCompanies, ActionRead, "c1")
	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "investor account has no linked investor record", decision.Reason)
}

func TestInvestorFailClosedOnShareLookupFailure(t *testing.T) {
	shares := &mockShares{err: fmt.Errorf("%w: timeout", shared.ErrStoreUnavailable)}
	engine := newEngine(newMockGrants(), shares)
	p := Principal{ID: "u1", Role: RoleInvestor, LinkedInvestorID: "inv1"}

	decision, err := engine.CanAccess(context.Background(), p, ResourceCompanies, ActionRead, "c1")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
	assert.False(t, decision.Allowed)
	assert.Equal(t, "permission check unavailable", decision.Reason)
}

func TestInvestorRightsProfile(t *testing.T) {
	m := InvestorRights()

	readOnly := []Resource{ResourceVehicles, ResourceCustomers, ResourceInsurances, ResourceProtocols, ResourceFinances}
	for _, res := range readOnly {
		assert.True(t, m.Allows(res, ActionRead), "%s read", res)
		assert.False(t, m.Allows(res, ActionWrite), "%s write", res)
		assert.False(t, m.Allows(res, ActionDelete), "%s delete", res)
	}

	readWrite := []Resource{ResourceRentals, ResourceExpenses, ResourceCompanies}
	for _, res := range readWrite {
		assert.True(t, m.Allows(res, ActionRead), "%s read", res)
		assert.True(t, m.Allows(res, ActionWrite), "%s write", res)
		assert.False(t, m.Allows(res, ActionDelete), "%s delete", res)
	}

	assert.True(t, m.Allows(ResourceSettlements, ActionRead))
	assert.True(t, m.Allows(ResourceSettlements, ActionWrite))
	assert.True(t, m.Allows(ResourceSettlements, ActionDelete))

	for _, res := range []Resource{ResourceUsers, ResourceMaintenance, ResourceStatistics} {
		for _, action := range []Action{ActionRead, ActionWrite, ActionDelete} {
			assert.False(t, m.Allows(res, action), "%s/%s", res, action)
		}
	}
}
