// Package middleware provides the HTTP middleware for the portal: the
// session/authorization gate, CSRF protection, security headers,
// structured request logging and login throttling.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/wahyudibo/secure-portal/internal/logger"
)

// LoggingMiddleware emits one structured log line per request.
type LoggingMiddleware struct {
	logger *slog.Logger
}

// NewLoggingMiddleware creates a new LoggingMiddleware instance
func NewLoggingMiddleware(log *slog.Logger) *LoggingMiddleware {
	if log == nil {
		log = slog.Default()
	}
	return &LoggingMiddleware{logger: log}
}

// Handler wraps the response writer to capture status and size, and
// threads chi's request ID through as the correlation ID.
func (m *LoggingMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := middleware.GetReqID(r.Context())
		r = r.WithContext(logger.SetCorrelationID(r.Context(), requestID))

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		logFn := m.logger.Info
		if ww.Status() >= 500 {
			logFn = m.logger.Error
		} else if ww.Status() >= 400 {
			logFn = m.logger.Warn
		}
		logFn("request",
			"correlation_id", requestID,
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"ip", ClientIP(r),
			"user_agent", r.UserAgent(),
		)
	})
}
