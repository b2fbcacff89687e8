// Package logger builds the application's slog logger. Attributes whose
// keys look like credentials are masked before they reach the output.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type contextKey string

// correlationKey carries the request correlation ID through contexts.
const correlationKey contextKey = "correlation_id"

// Config holds logger configuration
type Config struct {
	Level     string // debug, info, warn, error
	Format    string // json or text
	Output    string // stdout, stderr, or a file path
	AddSource bool
}

// DefaultConfig reads the logger settings from the environment.
func DefaultConfig() Config {
	return Config{
		Level:     envOr("LOG_LEVEL", "info"),
		Format:    envOr("LOG_FORMAT", "json"),
		Output:    envOr("LOG_OUTPUT", "stdout"),
		AddSource: strings.EqualFold(os.Getenv("LOG_ADD_SOURCE"), "true"),
	}
}

// New creates a structured logger from the given configuration.
func New(cfg Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       parseLevel(cfg.Level),
		AddSource:   cfg.AddSource,
		ReplaceAttr: maskCredentials,
	}

	out := resolveOutput(cfg.Output)
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(out, opts))
	}
	return slog.New(slog.NewJSONHandler(out, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func resolveOutput(dest string) io.Writer {
	switch strings.ToLower(dest) {
	case "", "stdout":
		return os.Stdout
	case "stderr":
		return os.Stderr
	}
	f, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return os.Stdout
	}
	return f
}

// credentialMarkers flag attribute keys that must never be logged in
// the clear. Substring match catches variants like user_password.
var credentialMarkers = []string{
	"password",
	"token",
	"secret",
	"authorization",
	"credential",
	"cookie",
	"remember_me",
}

func maskCredentials(groups []string, a slog.Attr) slog.Attr {
	key := strings.ToLower(a.Key)
	for _, marker := range credentialMarkers {
		if strings.Contains(key, marker) {
			return slog.String(a.Key, "[REDACTED]")
		}
	}
	return a
}

// WithCorrelationID returns a logger annotated with the correlation ID
// from the context, when one is present.
func WithCorrelationID(ctx context.Context, logger *slog.Logger) *slog.Logger {
	if id := GetCorrelationID(ctx); id != "" {
		return logger.With(slog.String("correlation_id", id))
	}
	return logger
}

// GetCorrelationID extracts the correlation ID from the context.
func GetCorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey).(string)
	return id
}

// SetCorrelationID stores a correlation ID in the context.
func SetCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationKey, id)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
