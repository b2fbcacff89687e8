package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wahyudibo/secure-portal/internal/appctx"
	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/metrics"
)

// ErrorResponse represents the standard JSON error response format
type ErrorResponse struct {
	Success   bool        `json:"success"`
	Error     ErrorDetail `json:"error"`
	Timestamp time.Time   `json:"timestamp"`
}

// ErrorDetail contains error information
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SessionGate is the per-request authentication and authorization
// state machine. It resolves the session cookie (or a remember-me
// token) to a principal, injects the principal into the request
// context, and enforces the ordered access rule table.
type SessionGate struct {
	sessions   *auth.SessionManager
	rules      RuleTable
	cookieName string
	logger     *slog.Logger
}

// NewSessionGate creates a new SessionGate instance
func NewSessionGate(sessions *auth.SessionManager, rules RuleTable, cookieName string, logger *slog.Logger) *SessionGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionGate{
		sessions:   sessions,
		rules:      rules,
		cookieName: cookieName,
		logger:     logger,
	}
}

// Handler runs every request through the gate.
//
// State per request is either Anonymous or Authenticated(principal).
// The only transition to Authenticated happens via a validated session
// or a redeemed remember-me token; no header-based auth exists.
func (g *SessionGate) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, expired := g.resolvePrincipal(w, r)

		if principal != nil {
			r = r.WithContext(appctx.WithPrincipal(r.Context(), principal))
		}

		rule := g.rules.Find(r.URL.Path)

		switch {
		case rule.Public:
			next.ServeHTTP(w, r)

		case principal == nil:
			// Anonymous on a protected path: route to login.
			if expired {
				http.Redirect(w, r, "/login?expired", http.StatusFound)
				return
			}
			http.Redirect(w, r, "/login?error=unauthorized", http.StatusFound)

		case !principal.HasAnyAuthority(rule.Roles...):
			g.logger.Warn("access denied",
				"username", principal.Username,
				"path", r.URL.Path,
				"required_roles", strings.Join(rule.Roles, ","),
			)
			g.denyAccess(w, r)

		default:
			next.ServeHTTP(w, r)
		}
	})
}

// resolvePrincipal turns the session cookie into a principal, falling
// back to the remember-me cookie when the session is missing or
// expired. Returns the principal (nil when anonymous) and whether an
// expired session was encountered.
func (g *SessionGate) resolvePrincipal(w http.ResponseWriter, r *http.Request) (*appctx.Principal, bool) {
	expired := false

	if cookie, err := r.Cookie(g.cookieName); err == nil && cookie.Value != "" {
		principal, err := g.sessions.Validate(r.Context(), cookie.Value)
		if err == nil {
			return principal, false
		}
		if errors.Is(err, auth.ErrSessionExpired) {
			expired = true
		}
		ClearSessionCookie(w, g.cookieName)
	}

	if cookie, err := r.Cookie(RememberCookieName); err == nil && cookie.Value != "" {
		principal, sessionToken, err := g.sessions.RedeemRememberToken(
			r.Context(), cookie.Value, ClientIP(r), r.UserAgent(),
		)
		if err == nil {
			SetSessionCookie(w, g.cookieName, sessionToken)
			return principal, false
		}
		ClearRememberCookie(w)
	}

	return nil, expired
}

// denyAccess returns 403 for AJAX/API callers and redirects browsers
// to the human-readable denial page.
func (g *SessionGate) denyAccess(w http.ResponseWriter, r *http.Request) {
	metrics.AccessDeniedTotal.Inc()
	if isAPIRequest(r) {
		writeJSONError(w, http.StatusForbidden, "ACCESS_DENIED", "Access Denied")
		return
	}
	http.Redirect(w, r, "/access-denied?from="+url.QueryEscape(r.URL.Path), http.StatusFound)
}

// isAPIRequest identifies callers that expect a structured error
// instead of a redirect: the AJAX request-header signal or an /api/
// path.
func isAPIRequest(r *http.Request) bool {
	if r.Header.Get("X-Requested-With") == "XMLHttpRequest" {
		return true
	}
	return strings.HasPrefix(r.URL.Path, "/api/")
}

// writeJSONError writes a JSON error response
func writeJSONError(w http.ResponseWriter, statusCode int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	json.NewEncoder(w).Encode(ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    code,
			Message: message,
		},
		Timestamp: time.Now().UTC(),
	})
}

// ClientIP extracts the client IP address from the request.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if ip := strings.TrimSpace(parts[0]); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
