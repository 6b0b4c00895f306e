package investors

import "time"

// Investor is an ownership stakeholder. Investors are not users; a user with
// the investor role links to one via its linked investor id.
type Investor struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// Share links an investor to a company with an ownership stake. A share row
// is what makes a company accessible to the investor's user account; no grant
// rows are written for investors.
type Share struct {
	ID                   string    `json:"id"`
	InvestorID           string    `json:"investorId"`
	CompanyID            string    `json:"companyId"`
	OwnershipPercentage  float64   `json:"ownershipPercentage"`
	ProfitSharePercentage *float64 `json:"profitSharePercentage,omitempty"`
	IsPrimaryContact     bool      `json:"isPrimaryContact"`
	CreatedAt            time.Time `json:"createdAt"`
}
