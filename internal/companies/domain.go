package companies

import "time"

// Company is the multi-tenancy boundary: grants, shares and most business
// data are scoped to one company.
type Company struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	IC        string    `json:"ic,omitempty"`
	DIC       string    `json:"dic,omitempty"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
}
