package permissions

import (
	"time"

	"github.com/fleetrent/fleetrent/internal/authz"
)

// Grant scopes one user's rights within one company. Absence of a grant means
// default-deny for that company.
type Grant struct {
	UserID      string       `json:"userId"`
	CompanyID   string       `json:"companyId"`
	CompanyName string       `json:"companyName,omitempty"`
	Matrix      authz.Matrix `json:"permissions"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

// CompanyGrant is the admin reporting view of one grant within a company.
type CompanyGrant struct {
	UserID    string       `json:"userId"`
	Username  string       `json:"username"`
	Matrix    authz.Matrix `json:"permissions"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// Assignment is one bulk-set item.
type Assignment struct {
	UserID    string       `json:"userId"`
	CompanyID string       `json:"companyId"`
	Matrix    authz.Matrix `json:"permissions"`
}

// AssignmentError reports one failed bulk-set item.
type AssignmentError struct {
	UserID    string `json:"userId"`
	CompanyID string `json:"companyId"`
	Error     string `json:"error"`
}

// BulkResult carries per-item outcomes of a best-effort batch. One failure
// does not roll back the others.
type BulkResult struct {
	Succeeded []Assignment      `json:"succeeded"`
	Failed    []AssignmentError `json:"failed"`
}
