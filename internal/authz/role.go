package authz

import "fmt"

// Role identifies a privilege tier. The set is closed: every value that is not
// listed here is rejected by ParseRole, and Tier panics on values constructed
// by other means so that a new role cannot ship without updating this file.
type Role string

const (
	// RoleSuperAdmin has unrestricted access across all companies.
	RoleSuperAdmin Role = "super_admin"
	// RoleAdmin is the legacy admin tag; it behaves exactly like super_admin.
	RoleAdmin Role = "admin"
	// RolePlatformAdmin administers the platform but goes through grants.
	RolePlatformAdmin Role = "platform_admin"
	// RoleCompanyAdmin has full access scoped to its own company.
	RoleCompanyAdmin Role = "company_admin"
	// RolePlatformEmployee is a platform-level operational role.
	RolePlatformEmployee Role = "platform_employee"
	// RoleEmployee is a company-level operational role.
	RoleEmployee Role = "employee"
	// RoleTempWorker is a restricted, mostly read-only role.
	RoleTempWorker Role = "temp_worker"
	// RoleMechanic is the maintenance specialist role.
	RoleMechanic Role = "mechanic"
	// RoleSalesRep handles rentals and customers.
	RoleSalesRep Role = "sales_rep"
	// RoleInvestor derives access from ownership-share records instead of grants.
	RoleInvestor Role = "investor"
)

// AllRoles lists every known role. Tests iterate this to assert that Tier,
// IsGlobalBypass and IsScopedBypass stay exhaustive.
var AllRoles = []Role{
	RoleSuperAdmin,
	RoleAdmin,
	RolePlatformAdmin,
	RoleCompanyAdmin,
	RolePlatformEmployee,
	RoleEmployee,
	RoleTempWorker,
	RoleMechanic,
	RoleSalesRep,
	RoleInvestor,
}

// ParseRole validates a role tag received from claims or storage.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleSuperAdmin, RoleAdmin, RolePlatformAdmin, RoleCompanyAdmin,
		RolePlatformEmployee, RoleEmployee, RoleTempWorker, RoleMechanic,
		RoleSalesRep, RoleInvestor:
		return r, nil
	}
	return "", fmt.Errorf("authz: unknown role %q", s)
}

// Tier returns the privilege tier of a role. Higher is more privileged.
func (r Role) Tier() int {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return 100
	case RolePlatformAdmin:
		return 80
	case RoleCompanyAdmin:
		return 60
	case RolePlatformEmployee:
		return 40
	case RoleEmployee, RoleSalesRep, RoleMechanic:
		return 30
	case RoleInvestor:
		return 20
	case RoleTempWorker:
		return 10
	}
	panic(fmt.Sprintf("authz: unhandled role %q", string(r)))
}

// IsGlobalBypass reports whether the role short-circuits every permission
// check. Such roles never consult the permission store.
func (r Role) IsGlobalBypass() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin:
		return true
	case RolePlatformAdmin, RoleCompanyAdmin, RolePlatformEmployee,
		RoleEmployee, RoleTempWorker, RoleMechanic, RoleSalesRep, RoleInvestor:
		return false
	}
	panic(fmt.Sprintf("authz: unhandled role %q", string(r)))
}

// IsScopedBypass reports whether the role bypasses grant lookups within the
// scope of its own company.
func (r Role) IsScopedBypass() bool {
	switch r {
	case RoleCompanyAdmin:
		return true
	case RoleSuperAdmin, RoleAdmin, RolePlatformAdmin, RolePlatformEmployee,
		RoleEmployee, RoleTempWorker, RoleMechanic, RoleSalesRep, RoleInvestor:
		return false
	}
	panic(fmt.Sprintf("authz: unhandled role %q", string(r)))
}
