package users

import (
	"context"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/fleetrent/fleetrent/internal/authz"
	"github.com/fleetrent/fleetrent/internal/shared"
)

// Service wraps user-account business rules.
type Service struct {
	repo Repository
}

// NewService constructs a new Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateUserInput carries the fields of a new account.
type CreateUserInput struct {
	Username         string
	Email            string
	Password         string
	Role             string
	CompanyID        string
	LinkedInvestorID string
	FirstName        string
	LastName         string
}

// CreateUser validates the input, hashes the password and persists the
// account. Usernames are NFC-normalized so lookups are insensitive to the
// composition form the client happened to send.
func (s *Service) CreateUser(ctx context.Context, in CreateUserInput) (*User, error) {
	username := norm.NFC.String(strings.TrimSpace(in.Username))
	if username == "" {
		return nil, shared.NewValidationError("username", "required")
	}
	if len(in.Password) < 8 {
		return nil, shared.NewValidationError("password", "must be at least 8 characters")
	}
	role, err := authz.ParseRole(in.Role)
	if err != nil {
		return nil, shared.NewValidationError("role", "unknown role")
	}
	if role == authz.RoleInvestor && in.LinkedInvestorID == "" {
		return nil, shared.NewValidationError("linkedInvestorId", "required for investor accounts")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.CreateUser(ctx, User{
		Username:         username,
		Email:            strings.TrimSpace(in.Email),
		PasswordHash:     string(hash),
		Role:             role,
		CompanyID:        in.CompanyID,
		LinkedInvestorID: in.LinkedInvestorID,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
	})
}

// UpdateUserInput carries the mutable profile fields of an account.
type UpdateUserInput struct {
	Email            string
	Role             string
	CompanyID        string
	LinkedInvestorID string
	FirstName        string
	LastName         string
}

// UpdateUser rewrites an account's profile and role. The same investor-link
// rule as on create applies.
func (s *Service) UpdateUser(ctx context.Context, id string, in UpdateUserInput) (*User, error) {
	role, err := authz.ParseRole(in.Role)
	if err != nil {
		return nil, shared.NewValidationError("role", "unknown role")
	}
	if role == authz.RoleInvestor && in.LinkedInvestorID == "" {
		return nil, shared.NewValidationError("linkedInvestorId", "required for investor accounts")
	}
	return s.repo.UpdateUser(ctx, User{
		ID:               id,
		Email:            strings.TrimSpace(in.Email),
		Role:             role,
		CompanyID:        in.CompanyID,
		LinkedInvestorID: in.LinkedInvestorID,
		FirstName:        strings.TrimSpace(in.FirstName),
		LastName:         strings.TrimSpace(in.LastName),
	})
}

// GetUser fetches one account.
func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetUser(ctx, id)
}

// ListUsers returns all accounts.
func (s *Service) ListUsers(ctx context.Context) ([]User, error) {
	return s.repo.ListUsers(ctx)
}

// Deactivate disables an account without deleting its grant history.
func (s *Service) Deactivate(ctx context.Context, id string) error {
	return s.repo.SetActive(ctx, id, false)
}
