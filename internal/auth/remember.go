package auth

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RememberClaims represents the claims in a remember-me token
type RememberClaims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// RememberTokenService issues and validates the optional persistent
// "remember me" tokens. A valid token re-establishes an authenticated
// session without credentials, independent of the session idle timer.
// Tokens are HS256-signed and additionally stored hashed server-side so
// a presented token is only honored while its record exists.
type RememberTokenService struct {
	secret   string
	validity time.Duration
	issuer   string
}

// RememberTokenConfig holds configuration for RememberTokenService
type RememberTokenConfig struct {
	Secret   string
	Validity time.Duration
	Issuer   string
}

// NewRememberTokenService creates a new RememberTokenService instance
func NewRememberTokenService(cfg RememberTokenConfig) *RememberTokenService {
	validity := cfg.Validity
	if validity <= 0 {
		validity = 24 * time.Hour
	}
	return &RememberTokenService{
		secret:   cfg.Secret,
		validity: validity,
		issuer:   cfg.Issuer,
	}
}

// Generate creates a signed remember-me token for the given user.
func (s *RememberTokenService) Generate(userID, username string) (string, time.Time, error) {
	now := time.Now()
	expiresAt := now.Add(s.validity)

	claims := RememberClaims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			ID:        uuid.New().String(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// Validate checks a remember-me token's signature and expiry and
// returns its claims.
func (s *RememberTokenService) Validate(tokenString string) (*RememberClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RememberClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(s.secret), nil
	})
	if err != nil {
		return nil, ErrInvalidRemember
	}

	claims, ok := token.Claims.(*RememberClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidRemember
	}

	return claims, nil
}

// Validity returns the configured token lifetime.
func (s *RememberTokenService) Validity() time.Duration {
	return s.validity
}

// HashToken creates a SHA-256 hash of a token for storage.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}
