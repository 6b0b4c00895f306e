package authz

// investorRights is the fixed access profile of the investor role. Investor
// access is derived from ownership-share rows, not from stored grants, and the
// profile is deliberately not configurable per investor: a future per-investor
// matrix only has to replace this table.
var investorRights = func() Matrix {
	var m Matrix
	m[ResourceVehicles] = Rights{Read: true}
	m[ResourceRentals] = Rights{Read: true, Write: true}
	m[ResourceCustomers] = Rights{Read: true}
	m[ResourceExpenses] = Rights{Read: true, Write: true}
	m[ResourceInsurances] = Rights{Read: true}
	m[ResourceCompanies] = Rights{Read: true, Write: true}
	m[ResourceSettlements] = Rights{Read: true, Write: true, Delete: true}
	m[ResourceProtocols] = Rights{Read: true}
	m[ResourceFinances] = Rights{Read: true}
	return m
}()

// InvestorRights returns the fixed investor access profile.
func InvestorRights() Matrix {
	return investorRights
}
