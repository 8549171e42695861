package auth

import "testing"

func TestRoleHierarchy(t *testing.T) {
	ordered := []Role{RoleCustomer, RoleExpert, RoleAnalyst, RoleAdmin, RoleSuperAdmin}
	for i := 1; i < len(ordered); i++ {
		if ordered[i].Level() <= ordered[i-1].Level() {
			t.Errorf("%s (%d) should outrank %s (%d)",
				ordered[i], ordered[i].Level(), ordered[i-1], ordered[i-1].Level())
		}
	}
}

func TestUnknownRoleNeverOutranks(t *testing.T) {
	unknown := Role("WIZARD")
	if unknown.Level() != 0 {
		t.Errorf("unknown role level = %d, want 0", unknown.Level())
	}
	if unknown.Valid() {
		t.Error("unknown role reported valid")
	}
	if HasHigherOrEqualRole(unknown, RoleCustomer) {
		t.Error("unknown role outranks CUSTOMER")
	}
}

func TestHasHigherOrEqualRole(t *testing.T) {
	cases := []struct {
		actual, required Role
		want             bool
	}{
		{RoleSuperAdmin, RoleAdmin, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleAnalyst, RoleAdmin, false},
		{RoleCustomer, RoleExpert, false},
		{RoleExpert, RoleCustomer, true},
	}
	for _, c := range cases {
		if got := HasHigherOrEqualRole(c.actual, c.required); got != c.want {
			t.Errorf("HasHigherOrEqualRole(%s, %s) = %v, want %v", c.actual, c.required, got, c.want)
		}
	}
}

func TestIsAdmin(t *testing.T) {
	for role, want := range map[Role]bool{
		RoleCustomer:   false,
		RoleExpert:     false,
		RoleAnalyst:    false,
		RoleAdmin:      true,
		RoleSuperAdmin: true,
	} {
		if got := role.IsAdmin(); got != want {
			t.Errorf("%s.IsAdmin() = %v, want %v", role, got, want)
		}
	}
}

func TestParseRole(t *testing.T) {
	if r, ok := ParseRole(" admin "); !ok || r != RoleAdmin {
		t.Errorf("ParseRole(\" admin \") = %q, %v", r, ok)
	}
	if _, ok := ParseRole("wizard"); ok {
		t.Error("ParseRole accepted an unknown role")
	}
}
