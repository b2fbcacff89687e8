package web

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/wahyudibo/secure-portal/internal/appctx"
	"github.com/wahyudibo/secure-portal/internal/auth"
	"github.com/wahyudibo/secure-portal/internal/metrics"
	"github.com/wahyudibo/secure-portal/internal/middleware"
)

// AuthHandler drives the browser login, logout, and registration flows.
type AuthHandler struct {
	authenticator *auth.Authenticator
	sessions      *auth.SessionManager
	registration  *auth.RegistrationService
	renderer      *Renderer
	cookieName    string
	logger        *slog.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(
	authenticator *auth.Authenticator,
	sessions *auth.SessionManager,
	registration *auth.RegistrationService,
	renderer *Renderer,
	cookieName string,
	logger *slog.Logger,
) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authenticator: authenticator,
		sessions:      sessions,
		registration:  registration,
		renderer:      renderer,
		cookieName:    cookieName,
		logger:        logger,
	}
}

// PerformLogin handles POST /perform-login. On success it issues the
// session cookie (plus a remember-me cookie when requested) and sends
// the user to the dashboard matching their highest role. On failure it
// bounces back to /login carrying the user-facing message.
func (h *AuthHandler) PerformLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.redirectLoginFailure(w, r, "Invalid login request")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	rememberMe := r.PostFormValue("remember-me") == "true" || r.PostFormValue("remember-me") == "on"

	principal, err := h.authenticator.Authenticate(r.Context(), username, password)
	if err != nil {
		metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
		h.redirectLoginFailure(w, r, auth.FailureMessage(err))
		return
	}

	userID, err := uuid.Parse(principal.UserID)
	if err != nil {
		h.logger.Error("authenticated principal has malformed user id", "user_id", principal.UserID)
		h.redirectLoginFailure(w, r, "Authentication failed")
		return
	}

	token, err := h.sessions.IssueSession(r.Context(), userID, middleware.ClientIP(r), r.UserAgent())
	if err != nil {
		h.logger.Error("failed to issue session", "username", principal.Username, "error", err)
		h.redirectLoginFailure(w, r, "Authentication failed")
		return
	}
	middleware.SetSessionCookie(w, h.cookieName, token)

	if rememberMe {
		rememberToken, expiresAt, err := h.sessions.IssueRememberToken(r.Context(), userID, principal.Username)
		if err != nil {
			// Remember-me is best effort; the login itself succeeded.
			h.logger.Error("failed to issue remember-me token", "username", principal.Username, "error", err)
		} else {
			middleware.SetRememberCookie(w, rememberToken, expiresAt)
		}
	}

	metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
	metrics.SessionsIssuedTotal.Inc()

	http.Redirect(w, r, auth.RedirectTarget(principal.Authorities), http.StatusFound)
}

// Logout handles POST /logout. It destroys the server-side session,
// revokes remember-me tokens, and clears both cookies. Logout with no
// live session still lands on the login page.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if p, ok := appctx.ExtractPrincipal(r.Context()); ok {
		if userID, err := uuid.Parse(p.UserID); err == nil {
			if err := h.sessions.ForgetUser(r.Context(), userID); err != nil {
				h.logger.Error("failed to revoke remember-me tokens", "username", p.Username, "error", err)
			}
		}
	}
	if cookie, err := r.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		if err := h.sessions.Destroy(r.Context(), cookie.Value); err != nil {
			h.logger.Error("failed to destroy session", "error", err)
		}
	}

	middleware.ClearSessionCookie(w, h.cookieName)
	middleware.ClearRememberCookie(w)

	http.Redirect(w, r, "/login?logout=true", http.StatusFound)
}

// Register handles POST /register. Validation failures re-render the
// form with the submitted values (minus the password); success sends
// the new user to the login page.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		data := newPageData(r, "Register")
		data.Error = "Invalid registration request"
		h.renderer.Render(w, http.StatusBadRequest, "register", data)
		return
	}

	req := auth.RegisterRequest{
		Username:  r.PostFormValue("username"),
		Email:     r.PostFormValue("email"),
		Password:  r.PostFormValue("password"),
		FirstName: r.PostFormValue("first_name"),
		LastName:  r.PostFormValue("last_name"),
	}

	user, fieldErrors, err := h.registration.Register(r.Context(), req)
	if err != nil {
		data := h.registerFormData(r, req)
		switch {
		case errors.Is(err, auth.ErrDuplicateUsername):
			data.Error = "Username is already taken"
		case errors.Is(err, auth.ErrDuplicateEmail):
			data.Error = "Email is already registered"
		default:
			h.logger.Error("registration failed", "error", err)
			data.Error = "Registration failed. Please try again later."
		}
		h.renderer.Render(w, http.StatusOK, "register", data)
		return
	}
	if len(fieldErrors) > 0 {
		data := h.registerFormData(r, req)
		data.FieldErrors = fieldErrors
		h.renderer.Render(w, http.StatusOK, "register", data)
		return
	}

	metrics.RegistrationsTotal.Inc()
	h.logger.Info("registration completed", "username", user.Username)
	http.Redirect(w, r, "/login?registered=true", http.StatusFound)
}

// registerFormData rebuilds the register page data with the submitted
// values so the user does not retype everything.
func (h *AuthHandler) registerFormData(r *http.Request, req auth.RegisterRequest) pageData {
	data := newPageData(r, "Register")
	data.Form["username"] = req.Username
	data.Form["email"] = req.Email
	data.Form["first_name"] = req.FirstName
	data.Form["last_name"] = req.LastName
	return data
}

// redirectLoginFailure bounces back to the login page with the message
// carried in the query string.
func (h *AuthHandler) redirectLoginFailure(w http.ResponseWriter, r *http.Request, message string) {
	target := "/login?error=true&message=" + url.QueryEscape(message)
	http.Redirect(w, r, target, http.StatusFound)
}

// loginOutcome maps an authentication failure to its metrics label.
func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return "unknown_user"
	case errors.Is(err, auth.ErrAccountDisabled):
		return "disabled"
	case errors.Is(err, auth.ErrAccountLocked):
		return "locked"
	case errors.Is(err, auth.ErrBadCredentials):
		return "bad_credentials"
	default:
		return "error"
	}
}
