package authz

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/fleetrent/fleetrent/internal/shared"
)

// Resource identifies a protected business-data category.
type Resource int

const (
	ResourceVehicles Resource = iota
	ResourceRentals
	ResourceCustomers
	ResourceExpenses
	ResourceInsurances
	ResourceCompanies
	ResourceUsers
	ResourceSettlements
	ResourceProtocols
	ResourceMaintenance
	ResourceFinances
	ResourceStatistics

	// NumResources bounds the Matrix array. Adding a resource above without
	// extending resourceNames breaks the length check in this file's init.
	NumResources = iota
)

var resourceNames = [NumResources]string{
	ResourceVehicles:    "vehicles",
	ResourceRentals:     "rentals",
	ResourceCustomers:   "customers",
	ResourceExpenses:    "expenses",
	ResourceInsurances:  "insurances",
	ResourceCompanies:   "companies",
	ResourceUsers:       "users",
	ResourceSettlements: "settlements",
	ResourceProtocols:   "protocols",
	ResourceMaintenance: "maintenance",
	ResourceFinances:    "finances",
	ResourceStatistics:  "statistics",
}

func init() {
	for i, name := range resourceNames {
		if name == "" {
			panic(fmt.Sprintf("authz: resource %d has no name", i))
		}
	}
}

// AllResources lists every resource tag in declaration order.
func AllResources() []Resource {
	out := make([]Resource, NumResources)
	for i := range out {
		out[i] = Resource(i)
	}
	return out
}

func (r Resource) String() string {
	if r < 0 || int(r) >= NumResources {
		return fmt.Sprintf("resource(%d)", int(r))
	}
	return resourceNames[r]
}

// ParseResource validates a resource tag received from a route or payload.
func ParseResource(s string) (Resource, error) {
	for i, name := range resourceNames {
		if name == s {
			return Resource(i), nil
		}
	}
	return 0, fmt.Errorf("authz: unknown resource %q", s)
}

// Action is the access mode of a permission check. CRUD callers map
// create/update onto ActionWrite before calling the engine.
type Action string

const (
	ActionRead   Action = "read"
	ActionWrite  Action = "write"
	ActionDelete Action = "delete"
)

// ParseAction validates an action tag.
func ParseAction(s string) (Action, error) {
	switch a := Action(s); a {
	case ActionRead, ActionWrite, ActionDelete:
		return a, nil
	}
	return "", fmt.Errorf("authz: unknown action %q", s)
}

// Rights holds the three access flags of one resource within a grant.
type Rights struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
}

// Allows reports whether the rights cover the action.
func (r Rights) Allows(action Action) bool {
	switch action {
	case ActionRead:
		return r.Read
	case ActionWrite:
		return r.Write
	case ActionDelete:
		return r.Delete
	}
	return false
}

// Matrix is a fixed-size permission matrix covering every resource tag. The
// zero value denies everything.
type Matrix [NumResources]Rights

// Allows reports whether the matrix authorizes the action on the resource.
func (m Matrix) Allows(resource Resource, action Action) bool {
	if resource < 0 || int(resource) >= NumResources {
		return false
	}
	return m[resource].Allows(action)
}

// Set replaces the rights of one resource and returns the updated matrix.
func (m Matrix) Set(resource Resource, rights Rights) Matrix {
	m[resource] = rights
	return m
}

// MarshalJSON renders the matrix as an object keyed by resource name.
func (m Matrix) MarshalJSON() ([]byte, error) {
	obj := make(map[string]Rights, NumResources)
	for i, name := range resourceNames {
		obj[name] = m[i]
	}
	return json.Marshal(obj)
}

// UnmarshalJSON is lenient: unknown keys are ignored and missing keys stay
// all-false. Stored matrices predating a resource addition therefore load
// without error. Write paths go through ParseMatrixJSON instead.
func (m *Matrix) UnmarshalJSON(data []byte) error {
	var obj map[string]Rights
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	var out Matrix
	for key, rights := range obj {
		res, err := ParseResource(key)
		if err != nil {
			continue
		}
		out[res] = rights
	}
	*m = out
	return nil
}

// ParseMatrixJSON decodes a permission matrix strictly for admin write paths:
// unknown resource keys and non-boolean leaves surface as ValidationError.
func ParseMatrixJSON(data []byte) (Matrix, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Matrix{}, shared.NewValidationError("permissions", "matrix must be a JSON object")
	}
	var out Matrix
	for key, leaf := range raw {
		res, err := ParseResource(key)
		if err != nil {
			return Matrix{}, shared.NewValidationError("permissions", fmt.Sprintf("unknown resource %q", key))
		}
		dec := json.NewDecoder(bytes.NewReader(leaf))
		dec.DisallowUnknownFields()
		var rights Rights
		if err := dec.Decode(&rights); err != nil {
			return Matrix{}, shared.NewValidationError("permissions."+key, "rights must be {read,write,delete} booleans")
		}
		out[res] = rights
	}
	return out, nil
}
