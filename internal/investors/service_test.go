package investors

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetrent/fleetrent/internal/shared"
)

type mockRepository struct {
	shares    map[string][]Share // investorID -> shares
	listError error
}

func newMockRepository() *mockRepository {
	return &mockRepository{shares: make(map[string][]Share)}
}

func (m *mockRepository) GetInvestor(ctx context.Context, id string) (*Investor, error) {
	return nil, shared.ErrNotFound
}

func (m *mockRepository) CreateInvestor(ctx context.Context, inv Investor) (*Investor, error) {
	inv.ID = "inv1"
	return &inv, nil
}

func (m *mockRepository) ListSharesForInvestor(ctx context.Context, investorID string) ([]Share, error) {
	if m.listError != nil {
		return nil, m.listError
	}
	return m.shares[investorID], nil
}

func (m *mockRepository) ListSharesForCompany(ctx context.Context, companyID string) ([]Share, error) {
	var out []Share
	for _, shares := range m.shares {
		for _, share := range shares {
			if share.CompanyID == companyID {
				out = append(out, share)
			}
		}
	}
	return out, nil
}

func (m *mockRepository) CreateShare(ctx context.Context, share Share) (*Share, error) {
	share.ID = "s1"
	m.shares[share.InvestorID] = append(m.shares[share.InvestorID], share)
	return &share, nil
}

func (m *mockRepository) DeleteShare(ctx context.Context, id string) error {
	for investorID, shares := range m.shares {
		for i, share := range shares {
			if share.ID == id {
				m.shares[investorID] = append(shares[:i], shares[i+1:]...)
				return nil
			}
		}
	}
	return shared.ErrNotFound
}

var _ Repository = (*mockRepository)(nil)

func TestAccessibleCompaniesDeduplicates(t *testing.T) {
	repo := newMockRepository()
	repo.shares["inv1"] = []Share{
		{ID: "s1", InvestorID: "inv1", CompanyID: "c1", OwnershipPercentage: 30},
		{ID: "s2", InvestorID: "inv1", CompanyID: "c2", OwnershipPercentage: 10},
		{ID: "s3", InvestorID: "inv1", CompanyID: "c1", OwnershipPercentage: 15},
	}
	svc := NewService(repo)

	companies, err := svc.AccessibleCompanies(context.Background(), "inv1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c1", "c2"}, companies)
}

func TestAccessibleCompaniesEmptyForUnknownInvestor(t *testing.T) {
	svc := NewService(newMockRepository())

	companies, err := svc.AccessibleCompanies(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Empty(t, companies)
}

func TestAccessibleCompaniesWrapsStoreFailure(t *testing.T) {
	repo := newMockRepository()
	repo.listError = errors.New("timeout")
	svc := NewService(repo)

	_, err := svc.AccessibleCompanies(context.Background(), "inv1")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrStoreUnavailable)
}

func TestCreateShareValidation(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	_, err := svc.CreateShare(ctx, Share{CompanyID: "c1", OwnershipPercentage: 10})
	assert.True(t, shared.IsValidation(err))

	_, err = svc.CreateShare(ctx, Share{InvestorID: "inv1", OwnershipPercentage: 10})
	assert.True(t, shared.IsValidation(err))

	for _, pct := range []float64{0, -5, 100.5} {
		_, err = svc.CreateShare(ctx, Share{InvestorID: "inv1", CompanyID: "c1", OwnershipPercentage: pct})
		assert.True(t, shared.IsValidation(err), "pct %v", pct)
	}

	share, err := svc.CreateShare(ctx, Share{InvestorID: "inv1", CompanyID: "c1", OwnershipPercentage: 40})
	require.NoError(t, err)
	assert.Equal(t, "c1", share.CompanyID)
}

func TestDeleteShareRevokesAccess(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	share, err := svc.CreateShare(ctx, Share{InvestorID: "inv1", CompanyID: "c1", OwnershipPercentage: 40})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteShare(ctx, share.ID))
	companies, err := svc.AccessibleCompanies(ctx, "inv1")
	require.NoError(t, err)
	assert.Empty(t, companies)
}
