package middleware

import (
	"testing"

	"github.com/wahyudibo/secure-portal/internal/auth"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		path    string
		want    bool
	}{
		{"/login", "/login", true},
		{"/login", "/login/", false},
		{"/login", "/logins", false},
		{"/admin/**", "/admin", true},
		{"/admin/**", "/admin/dashboard", true},
		{"/admin/**", "/admin/users/42", true},
		{"/admin/**", "/administrator", false},
		{"/css/**", "/css/portal.css", true},
		{"/", "/", true},
		{"/", "/home", false},
	}

	for _, tt := range tests {
		if got := matchPattern(tt.pattern, tt.path); got != tt.want {
			t.Errorf("matchPattern(%q, %q) = %v, want %v", tt.pattern, tt.path, got, tt.want)
		}
	}
}

func TestDefaultRules_FirstMatchWins(t *testing.T) {
	rules := DefaultRules()

	tests := []struct {
		path   string
		public bool
		roles  []string
	}{
		{"/", true, nil},
		{"/login", true, nil},
		{"/access-denied", true, nil},
		{"/css/portal.css", true, nil},
		{"/api/public/info", true, nil},
		{"/healthz", true, nil},
		{"/metrics", true, nil},
		{"/admin/dashboard", false, []string{auth.RoleAdmin}},
		{"/api/admin/data", false, []string{auth.RoleAdmin}},
		{"/manager/dashboard", false, []string{auth.RoleManager, auth.RoleAdmin}},
		{"/api/manager/data", false, []string{auth.RoleManager, auth.RoleAdmin}},
		{"/user/dashboard", false, []string{auth.RoleUser, auth.RoleManager, auth.RoleAdmin}},
		{"/profile", false, []string{auth.RoleUser, auth.RoleManager, auth.RoleAdmin}},
		// Unmatched paths fall through to authenticated-any-role.
		{"/something-else", false, nil},
	}

	for _, tt := range tests {
		rule := rules.Find(tt.path)
		if rule.Public != tt.public {
			t.Errorf("Find(%q).Public = %v, want %v", tt.path, rule.Public, tt.public)
			continue
		}
		if len(rule.Roles) != len(tt.roles) {
			t.Errorf("Find(%q).Roles = %v, want %v", tt.path, rule.Roles, tt.roles)
			continue
		}
		for i := range tt.roles {
			if rule.Roles[i] != tt.roles[i] {
				t.Errorf("Find(%q).Roles = %v, want %v", tt.path, rule.Roles, tt.roles)
				break
			}
		}
	}
}

func TestDefaultRules_AdminOutranksManagerPattern(t *testing.T) {
	rules := DefaultRules()

	// The admin rule sits above the manager rule; a path matching both
	// tiers resolves to the stricter one listed first.
	rule := rules.Find("/admin/dashboard")
	if rule.Public {
		t.Fatal("/admin/dashboard must not be public")
	}
	if len(rule.Roles) != 1 || rule.Roles[0] != auth.RoleAdmin {
		t.Errorf("expected admin-only rule, got %v", rule.Roles)
	}
}
