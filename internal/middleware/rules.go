package middleware

import (
	"strings"

	"github.com/wahyudibo/secure-portal/internal/auth"
)

// AccessRule maps a set of path patterns to the roles allowed through.
// Patterns ending in "/**" match the prefix; everything else matches
// exactly. Public rules pass anonymous traffic; a non-public rule with
// no roles admits any authenticated principal.
type AccessRule struct {
	Patterns []string
	Roles    []string
	Public   bool
}

// Matches reports whether the request path hits one of the rule's
// patterns.
func (r AccessRule) Matches(path string) bool {
	for _, pattern := range r.Patterns {
		if matchPattern(pattern, path) {
			return true
		}
	}
	return false
}

func matchPattern(pattern, path string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/**"); ok {
		return path == prefix || strings.HasPrefix(path, prefix+"/")
	}
	return path == pattern
}

// RuleTable is an ordered list of access rules. Evaluation is
// top-to-bottom, first match wins; the final catch-all requires an
// authenticated principal with any role.
type RuleTable []AccessRule

// Find returns the first rule matching the path. The fallback rule
// (authenticated, any role) applies when nothing matches explicitly.
func (t RuleTable) Find(path string) AccessRule {
	for _, rule := range t {
		if rule.Matches(path) {
			return rule
		}
	}
	return AccessRule{Patterns: []string{"/**"}}
}

// DefaultRules returns the access rule table for the portal.
func DefaultRules() RuleTable {
	return RuleTable{
		// Public pages, static assets, health checks and the open API.
		{
			Public: true,
			Patterns: []string{
				"/",
				"/home",
				"/login",
				"/perform-login",
				"/register",
				"/forgot-password",
				"/reset-password",
				"/access-denied",
				"/css/**",
				"/js/**",
				"/images/**",
				"/static/**",
				"/health",
				"/healthz",
				"/readyz",
				"/metrics",
				"/api/public/**",
			},
		},
		// Admin tier.
		{
			Patterns: []string{"/api/admin/**", "/admin/**", "/dashboard/admin/**"},
			Roles:    []string{auth.RoleAdmin},
		},
		// Manager tier.
		{
			Patterns: []string{"/api/manager/**", "/manager/**", "/dashboard/manager/**"},
			Roles:    []string{auth.RoleManager, auth.RoleAdmin},
		},
		// User tier.
		{
			Patterns: []string{"/api/user/**", "/user/**", "/dashboard/user/**", "/profile/**"},
			Roles:    []string{auth.RoleUser, auth.RoleManager, auth.RoleAdmin},
		},
	}
}
