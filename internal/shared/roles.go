package shared

import "strings"

// Role is the role claim carried by every authenticated principal.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleStaff Role = "staff"
	RoleCrew  Role = "crew"
	RoleMitra Role = "mitra"
)

// Roles lists every known role.
func Roles() []Role {
	return []Role{RoleAdmin, RoleStaff, RoleCrew, RoleMitra}
}

// ParseRole normalises raw into a known Role.
func ParseRole(raw string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	for _, known := range Roles() {
		if r == known {
			return r, true
		}
	}
	return "", false
}

// HomePath is the route group a role lands on after login.
func (r Role) HomePath() string {
	switch r {
	case RoleAdmin:
		return "/admin/dashboard"
	case RoleStaff:
		return "/staff/sales"
	case RoleCrew:
		return "/crew/attendance"
	case RoleMitra:
		return "/mitra/dashboard"
	default:
		return "/login"
	}
}
