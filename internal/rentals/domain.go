package rentals

import "time"

// Rental is one vehicle rental, scoped to the company that owns the vehicle.
type Rental struct {
	ID         string    `json:"id"`
	VehicleID  string    `json:"vehicleId"`
	CustomerID string    `json:"customerId"`
	CompanyID  string    `json:"companyId"`
	StartDate  time.Time `json:"startDate"`
	EndDate    time.Time `json:"endDate"`
	TotalPrice float64   `json:"totalPrice"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"createdAt"`
}
