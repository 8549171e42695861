package auth

import "strings"

// Role is a position in the platform's strict privilege hierarchy.
type Role string

const (
	RoleCustomer   Role = "CUSTOMER"
	RoleExpert     Role = "EXPERT"
	RoleAnalyst    Role = "ANALYST"
	RoleAdmin      Role = "ADMIN"
	RoleSuperAdmin Role = "SUPERADMIN"
)

// roleLevels defines the total order used for threshold-style checks.
var roleLevels = map[Role]int{
	RoleCustomer:   1,
	RoleExpert:     2,
	RoleAnalyst:    3,
	RoleAdmin:      4,
	RoleSuperAdmin: 5,
}

// Level returns the numeric rank of the role, or 0 for unknown roles so that
// an unrecognized role never outranks a real one.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// IsAdmin reports whether the role carries admin-or-above privilege.
func (r Role) IsAdmin() bool {
	return r.Level() >= roleLevels[RoleAdmin]
}

// HasHigherOrEqualRole compares two roles on the hierarchy. It backs
// special-case rules like "only a SUPERADMIN may alter a SUPERADMIN account"
// and is distinct from the exact allow-list check used for route gating.
func HasHigherOrEqualRole(actual, required Role) bool {
	return actual.Level() >= required.Level()
}

// ParseRole normalizes a string into a Role. It returns false for anything
// outside the known set.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", false
	}
	return r, true
}
