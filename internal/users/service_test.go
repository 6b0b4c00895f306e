package users

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

type mockRepository struct {
	users   map[string]User
	created []User
}

func newMockRepository() *mockRepository {
	return &mockRepository{users: make(map[string]User)}
}

func (m *mockRepository) GetUser(ctx context.Context, id string) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return &u, nil
}

func (m *mockRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (m *mockRepository) ListUsers(ctx context.Context) ([]User, error) {
	var out []User
	for _, u := range m.users {
		out = append(out, u)
	}
	return out, nil
}

func (m *mockRepository) CreateUser(ctx context.Context, user User) (*User, error) {
	for _, existing := range m.users {
		if existing.Username == user.Username {
			return nil, shared.ErrConflict
		}
	}
	user.ID = "u" + user.Username
	user.IsActive = true
	m.users[user.ID] = user
	m.created = append(m.created, user)
	return &user, nil
}

func (m *mockRepository) UpdateUser(ctx context.Context, user User) (*User, error) {
	existing, ok := m.users[user.ID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	existing.Email = user.Email
	existing.Role = user.Role
	existing.CompanyID = user.CompanyID
	existing.LinkedInvestorID = user.LinkedInvestorID
	existing.FirstName = user.FirstName
	existing.LastName = user.LastName
	m.users[user.ID] = existing
	return &existing, nil
}

func (m *mockRepository) SetActive(ctx context.Context, id string, active bool) error {
	u, ok := m.users[id]
	if !ok {
		return shared.ErrNotFound
	}
	u.IsActive = active
	m.users[id] = u
	return nil
}

var _ Repository = (*mockRepository)(nil)

func validInput() CreateUserInput {
	return CreateUserInput{
		Username: "novak",
		Password: "correct horse",
		Role:     "employee",
	}
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	user, err := svc.CreateUser(context.Background(), validInput())
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", user.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")))
	assert.Equal(t, authz.RoleEmployee, user.Role)
}

func TestCreateUserNormalizesUsername(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)

	// "café" spelled with a combining accent must match its precomposed form.
	in := validInput()
	in.Username = "  café  "
	user, err := svc.CreateUser(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "café", user.Username)
}

func TestCreateUserValidation(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	in := validInput()
	in.Username = "   "
	_, err := svc.CreateUser(ctx, in)
	assert.True(t, shared.IsValidation(err))

	in = validInput()
	in.Password = "short"
	_, err = svc.CreateUser(ctx, in)
	assert.True(t, shared.IsValidation(err))

	in = validInput()
	in.Role = "owner"
	_, err = svc.CreateUser(ctx, in)
	assert.True(t, shared.IsValidation(err))
}

func TestCreateInvestorRequiresLinkedRecord(t *testing.T) {
	svc := NewService(newMockRepository())
	ctx := context.Background()

	in := validInput()
	in.Role = "investor"
	_, err := svc.CreateUser(ctx, in)
	assert.True(t, shared.IsValidation(err))

	in.LinkedInvestorID = "inv1"
	user, err := svc.CreateUser(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleInvestor, user.Role)
	assert.Equal(t, "inv1", user.LinkedInvestorID)
}

func TestUpdateUser(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	updated, err := svc.UpdateUser(ctx, user.ID, UpdateUserInput{Role: "company_admin", Email: "novak@example.com"})
	require.NoError(t, err)
	assert.Equal(t, authz.RoleCompanyAdmin, updated.Role)
	assert.Equal(t, "novak@example.com", updated.Email)

	_, err = svc.UpdateUser(ctx, user.ID, UpdateUserInput{Role: "investor"})
	assert.True(t, shared.IsValidation(err))

	_, err = svc.UpdateUser(ctx, "missing", UpdateUserInput{Role: "employee"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeactivate(t *testing.T) {
	repo := newMockRepository()
	svc := NewService(repo)
	ctx := context.Background()

	user, err := svc.CreateUser(ctx, validInput())
	require.NoError(t, err)

	require.NoError(t, svc.Deactivate(ctx, user.ID))
	got, err := svc.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	assert.ErrorIs(t, svc.Deactivate(ctx, "missing"), shared.ErrNotFound)
}
