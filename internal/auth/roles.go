package auth

import (
	"github.com/wahyudibo/secure-portal/internal/repository"
)

// Role names consulted by the authorization gate and the post-login
// redirect. Privileges attached to roles are modeled in the store but
// not checked here.
const (
	RoleAdmin   = "ROLE_ADMIN"
	RoleManager = "ROLE_MANAGER"
	RoleUser    = "ROLE_USER"
)

// Post-login redirect destinations, in priority order.
const (
	AdminDashboardURL   = "/admin/dashboard"
	ManagerDashboardURL = "/manager/dashboard"
	UserDashboardURL    = "/user/dashboard"
	DefaultLandingURL   = "/home"
)

// redirectPriority fixes the order in which roles are consulted when a
// user holds more than one. The order is positional, not alphabetical.
var redirectPriority = []struct {
	role   string
	target string
}{
	{RoleAdmin, AdminDashboardURL},
	{RoleManager, ManagerDashboardURL},
	{RoleUser, UserDashboardURL},
}

// Authorities expands the user's assigned roles into the effective set
// of granted authority strings. Role names are returned exactly as
// stored (already prefixed, e.g. "ROLE_ADMIN"), with no privilege
// flattening or case normalization.
func Authorities(user *repository.User) []string {
	authorities := make([]string, 0, len(user.Roles))
	seen := make(map[string]bool, len(user.Roles))
	for _, role := range user.Roles {
		if seen[role.Name] {
			continue
		}
		seen[role.Name] = true
		authorities = append(authorities, role.Name)
	}
	return authorities
}

// RedirectTarget determines the post-login destination from the
// authority set: ROLE_ADMIN wins over ROLE_MANAGER, which wins over
// ROLE_USER. Users with none of the three land on the default page.
func RedirectTarget(authorities []string) string {
	held := make(map[string]bool, len(authorities))
	for _, a := range authorities {
		held[a] = true
	}
	for _, p := range redirectPriority {
		if held[p.role] {
			return p.target
		}
	}
	return DefaultLandingURL
}
