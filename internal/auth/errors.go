package auth

import "errors"

// Auth service errors
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrAccountDisabled   = errors.New("account disabled")
	ErrAccountLocked     = errors.New("account locked")
	ErrBadCredentials    = errors.New("bad credentials")
	ErrDuplicateUsername = errors.New("username already exists")
	ErrDuplicateEmail    = errors.New("email already exists")
	ErrRoleNotFound      = errors.New("role not found")
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionExpired    = errors.New("session expired")
	ErrInvalidRemember   = errors.New("invalid or expired remember-me token")
)

// FailureMessage maps an authentication failure to the message shown to
// the user. Not-found and bad-credentials collapse into the same generic
// message so login responses do not reveal whether an account exists.
// Disabled and locked accounts surface their specific reason.
func FailureMessage(err error) string {
	switch {
	case errors.Is(err, ErrAccountDisabled):
		return "Your account has been disabled"
	case errors.Is(err, ErrAccountLocked):
		return "Your account has been locked due to multiple failed login attempts"
	case errors.Is(err, ErrBadCredentials), errors.Is(err, ErrUserNotFound):
		return "Invalid username or password"
	default:
		return "Authentication failed"
	}
}
