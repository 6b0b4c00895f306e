package users

import (
	"time"

	"github.com/fleetrent/fleetrent/internal/authz"
)

// User represents an application account. The password hash never leaves the
// process in a JSON response.
type User struct {
	ID               string     `json:"id"`
	Username         string     `json:"username"`
	Email            string     `json:"email,omitempty"`
	PasswordHash     string     `json:"-"`
	Role             authz.Role `json:"role"`
	CompanyID        string     `json:"companyId,omitempty"`
	LinkedInvestorID string     `json:"linkedInvestorId,omitempty"`
	FirstName        string     `json:"firstName,omitempty"`
	LastName         string     `json:"lastName,omitempty"`
	IsActive         bool       `json:"isActive"`
	CreatedAt        time.Time  `json:"createdAt"`
	UpdatedAt        time.Time  `json:"updatedAt"`
}

// Principal maps the account onto the authorization core's principal shape.
func (u *User) Principal() authz.Principal {
	return authz.Principal{
		ID:               u.ID,
		Role:             u.Role,
		CompanyID:        u.CompanyID,
		LinkedInvestorID: u.LinkedInvestorID,
	}
}
