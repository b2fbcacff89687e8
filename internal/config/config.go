package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Session  SessionConfig
	Lockout  LockoutConfig
	Password PasswordConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string
	Port string
	// AllowedOrigins lists origins permitted to call the JSON API
	// cross-site. The portal pages themselves are same-origin.
	AllowedOrigins []string
}

// DatabaseConfig holds PostgreSQL connection configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// SessionConfig holds session and remember-me configuration
type SessionConfig struct {
	// IdleTimeout invalidates sessions after this much inactivity.
	IdleTimeout time.Duration
	// CookieName is the session cookie name.
	CookieName string
	// RememberSecret signs remember-me tokens. Required when remember-me
	// is offered on the login form.
	RememberSecret string
	// RememberValidity bounds remember-me token lifetime.
	RememberValidity time.Duration
	Issuer           string
}

// LockoutConfig holds the account-lockout policy configuration
type LockoutConfig struct {
	// MaxFailedAttempts locks the account once the consecutive-failure
	// counter reaches this value. Locked accounts stay locked until an
	// administrator unlocks them.
	MaxFailedAttempts int
}

// PasswordConfig holds password hashing configuration
type PasswordConfig struct {
	BcryptCost int
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnv("SERVER_PORT", "8080"),
			AllowedOrigins: getSliceEnv("CORS_ALLOWED_ORIGINS", []string{"http://localhost:8080"}),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "secure_portal"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Session: SessionConfig{
			IdleTimeout:      getDurationEnv("SESSION_IDLE_TIMEOUT_MINUTES", 30*time.Minute),
			CookieName:       getEnv("SESSION_COOKIE_NAME", "PORTAL_SESSION"),
			RememberSecret:   getEnv("REMEMBER_ME_SECRET", ""),
			RememberValidity: getDurationEnv("REMEMBER_ME_VALIDITY_MINUTES", 24*time.Hour),
			Issuer:           getEnv("SESSION_ISSUER", "secure-portal"),
		},
		Lockout: LockoutConfig{
			MaxFailedAttempts: getIntEnv("LOCKOUT_MAX_FAILED_ATTEMPTS", 5),
		},
		Password: PasswordConfig{
			BcryptCost: getIntEnv("BCRYPT_COST", 12),
		},
	}
}

// DSN returns the PostgreSQL connection string
func (d *DatabaseConfig) DSN() string {
	return "host=" + d.Host +
		" port=" + d.Port +
		" user=" + d.User +
		" password=" + d.Password +
		" dbname=" + d.DBName +
		" sslmode=" + d.SSLMode
}

// getEnv returns environment variable value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv returns an integer from environment variable or default
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getSliceEnv returns a comma-separated list from environment variable or default
func getSliceEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := parts[:0]
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return defaultValue
}

// getDurationEnv returns duration in minutes from environment variable or default
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if minutes, err := strconv.Atoi(value); err == nil {
			return time.Duration(minutes) * time.Minute
		}
	}
	return defaultValue
}
