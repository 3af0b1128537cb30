package auth

import "testing"

func TestParseRole(t *testing.T) {
	for _, valid := range []string{"admin", "doctor", "staff"} {
		role, err := ParseRole(valid)
		if err != nil {
			t.Errorf("ParseRole(%q): unexpected error: %v", valid, err)
		}
		if role.String() != valid {
			t.Errorf("ParseRole(%q) = %q", valid, role)
		}
	}
}

func TestParseRole_Invalid(t *testing.T) {
	for _, invalid := range []string{"", "Admin", "superuser", "nurse"} {
		if _, err := ParseRole(invalid); err == nil {
			t.Errorf("ParseRole(%q): expected error", invalid)
		}
	}
}

func TestRole_In(t *testing.T) {
	if !RoleDoctor.In(RoleAdmin, RoleDoctor) {
		t.Error("doctor should be in {admin, doctor}")
	}
	if RoleStaff.In(RoleAdmin, RoleDoctor) {
		t.Error("staff should not be in {admin, doctor}")
	}
	if RoleAdmin.In() {
		t.Error("no role is in the empty set")
	}
}

func TestRole_IsAdmin(t *testing.T) {
	if !RoleAdmin.IsAdmin() {
		t.Error("admin should be admin")
	}
	if RoleDoctor.IsAdmin() || RoleStaff.IsAdmin() {
		t.Error("doctor and staff are not admin")
	}
}
