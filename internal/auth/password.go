package auth

import (
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

const (
	// MinPasswordLength is the minimum required password length
	MinPasswordLength = 8
	// DefaultBcryptCost is the default cost factor for bcrypt hashing
	DefaultBcryptCost = 12
)

// PasswordValidationError represents a specific password validation failure
type PasswordValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// PasswordHasher handles password complexity validation and one-way
// salted hashing. The cost factor is tunable so tests can run with a
// cheap setting.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher creates a PasswordHasher with the given bcrypt cost.
// Costs outside bcrypt's supported range fall back to the default.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultBcryptCost
	}
	return &PasswordHasher{cost: cost}
}

// ValidatePassword checks if a password meets all complexity requirements.
// Returns a list of validation errors (empty if password is valid).
func (h *PasswordHasher) ValidatePassword(password string) []PasswordValidationError {
	var errs []PasswordValidationError

	if len(password) < MinPasswordLength {
		errs = append(errs, PasswordValidationError{
			Field:   "password",
			Message: "Password must be at least 8 characters long",
		})
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsDigit(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	if !hasUpper {
		errs = append(errs, PasswordValidationError{
			Field:   "password",
			Message: "Password must contain at least one uppercase letter",
		})
	}
	if !hasLower {
		errs = append(errs, PasswordValidationError{
			Field:   "password",
			Message: "Password must contain at least one lowercase letter",
		})
	}
	if !hasNumber {
		errs = append(errs, PasswordValidationError{
			Field:   "password",
			Message: "Password must contain at least one number",
		})
	}
	if !hasSpecial {
		errs = append(errs, PasswordValidationError{
			Field:   "password",
			Message: "Password must contain at least one special character",
		})
	}

	return errs
}

// IsValidPassword returns true if the password meets all requirements
func (h *PasswordHasher) IsValidPassword(password string) bool {
	return len(h.ValidatePassword(password)) == 0
}

// HashPassword creates a bcrypt hash of the password
func (h *PasswordHasher) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyPassword compares a password with its bcrypt hash.
// Returns nil if they match, error otherwise.
func (h *PasswordHasher) VerifyPassword(password, hash string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
