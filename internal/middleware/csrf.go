package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// CSRFFieldName is the form field carrying the CSRF token on classic
// form posts; AJAX callers send the X-XSRF-TOKEN header instead.
const CSRFFieldName = "_csrf"

// CSRF implements double-submit-cookie request forgery protection. The
// token lives in a cookie readable by page scripts; state-changing
// requests must echo it back in a header or form field. The public API
// is exempt.
type CSRF struct {
	exemptPrefixes []string
}

// NewCSRF creates a CSRF middleware exempting the given path prefixes.
func NewCSRF(exemptPrefixes ...string) *CSRF {
	return &CSRF{exemptPrefixes: exemptPrefixes}
}

// Handler issues the token cookie on safe requests and enforces the
// token match on unsafe ones.
func (c *CSRF) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(CSRFCookieName)
		if err != nil || cookie.Value == "" {
			// First contact: mint a token. Deliberately not HTTP-only
			// so the login and registration pages can read it.
			token := uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     CSRFCookieName,
				Value:    token,
				Path:     "/",
				HttpOnly: false,
				SameSite: http.SameSiteLaxMode,
			})
			cookie = &http.Cookie{Value: token}
		}

		if !isUnsafeMethod(r.Method) || c.isExempt(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		submitted := r.Header.Get("X-XSRF-TOKEN")
		if submitted == "" {
			submitted = r.PostFormValue(CSRFFieldName)
		}

		if submitted == "" || subtle.ConstantTimeCompare([]byte(submitted), []byte(cookie.Value)) != 1 {
			writeJSONError(w, http.StatusForbidden, "CSRF_TOKEN_INVALID", "Missing or invalid CSRF token")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (c *CSRF) isExempt(path string) bool {
	for _, prefix := range c.exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

func isUnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}
