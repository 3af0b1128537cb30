package auth

import "fmt"

// Role is the closed set of user roles. Request handling never compares raw
// strings; anything coming off the wire goes through ParseRole first.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
	RoleStaff  Role = "staff"
)

// ParseRole validates a role string from untrusted input.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleDoctor, RoleStaff:
		return Role(s), nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

func (r Role) String() string { return string(r) }

// IsAdmin reports whether the role has cross-doctor visibility.
func (r Role) IsAdmin() bool { return r == RoleAdmin }

// In reports whether r is a member of the allowed set.
func (r Role) In(allowed ...Role) bool {
	for _, a := range allowed {
		if r == a {
			return true
		}
	}
	return false
}
