// Package metrics provides Prometheus metrics for the portal and the
// /metrics endpoint handler.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "portal",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"method", "path"},
	)

	// HTTPRequestsInFlight tracks current in-flight requests
	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portal",
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Current number of HTTP requests being processed",
		},
	)
)

var (
	// LoginAttemptsTotal counts login attempts by outcome
	// (success, bad_credentials, user_not_found, disabled, locked).
	LoginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "auth",
			Name:      "login_attempts_total",
			Help:      "Total number of login attempts by outcome",
		},
		[]string{"outcome"},
	)

	// AccountLockoutsTotal counts accounts locked by the lockout policy
	AccountLockoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "auth",
			Name:      "account_lockouts_total",
			Help:      "Total number of accounts locked after repeated failed logins",
		},
	)

	// RegistrationsTotal counts completed self-registrations
	RegistrationsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Total number of completed user registrations",
		},
	)

	// SessionsIssuedTotal counts sessions issued on successful login
	SessionsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "session",
			Name:      "issued_total",
			Help:      "Total number of sessions issued",
		},
	)

	// AccessDeniedTotal counts requests rejected by the authorization gate
	AccessDeniedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "portal",
			Subsystem: "auth",
			Name:      "access_denied_total",
			Help:      "Total number of requests rejected for missing roles",
		},
	)
)

// Middleware returns a chi middleware that records HTTP metrics
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		HTTPRequestsInFlight.Inc()
		defer HTTPRequestsInFlight.Dec()

		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		path := getRoutePattern(r)
		HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(ww.Status())).Inc()
		HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// getRoutePattern returns the route pattern from chi context, falling
// back to the raw URL path.
func getRoutePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
