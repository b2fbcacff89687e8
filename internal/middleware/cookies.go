package middleware

import (
	"net/http"
	"time"
)

// Cookie names used across the portal.
const (
	// RememberCookieName carries the persistent remember-me token.
	RememberCookieName = "PORTAL_REMEMBER"
	// CSRFCookieName is readable by page scripts (not HTTP-only) so
	// forms and AJAX callers can echo the token back.
	CSRFCookieName = "XSRF-TOKEN"
)

// SetSessionCookie writes the HTTP-only session cookie. No Max-Age is
// set: the cookie lives for the browser session while the server-side
// idle timeout bounds its real validity.
func SetSessionCookie(w http.ResponseWriter, name, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie deletes the session cookie.
func ClearSessionCookie(w http.ResponseWriter, name string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}

// SetRememberCookie writes the remember-me cookie with an explicit
// expiry matching the token's validity.
func SetRememberCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearRememberCookie deletes the remember-me cookie.
func ClearRememberCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RememberCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
		SameSite: http.SameSiteLaxMode,
	})
}
