// Package health exposes liveness, readiness, and detailed health
// endpoints for the portal.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type checkResult struct {
	Status  string `json:"status"`
	Latency string `json:"latency,omitempty"`
	Error   string `json:"error,omitempty"`
}

type healthReport struct {
	Status    string                 `json:"status"`
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]checkResult `json:"checks"`
	Version   string                 `json:"version,omitempty"`
}

// Handler answers the probe endpoints. Readiness is flipped off at the
// start of graceful shutdown so load balancers drain traffic before the
// listener closes.
type Handler struct {
	pool    *pgxpool.Pool
	version string
	timeout time.Duration
	ready   atomic.Bool
}

// Config holds health handler configuration
type Config struct {
	DBPool  *pgxpool.Pool
	Version string
	Timeout time.Duration
}

// NewHandler creates a new health Handler instance
func NewHandler(cfg Config) *Handler {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	h := &Handler{
		pool:    cfg.DBPool,
		version: cfg.Version,
		timeout: cfg.Timeout,
	}
	h.ready.Store(true)
	return h
}

// SetReady updates the readiness state.
func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady reports the current readiness state.
func (h *Handler) IsReady() bool {
	return h.ready.Load()
}

// Health handles GET /health with a per-dependency breakdown.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	db := h.pingDatabase(ctx)
	report := healthReport{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    map[string]checkResult{"database": db},
		Version:   h.version,
	}
	code := http.StatusOK
	if db.Status != "up" {
		report.Status = "degraded"
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, report)
}

// Readiness handles GET /readyz. Ready means the shutdown flag is not
// set and the database answers a ping.
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	ready := h.IsReady() && h.pingDatabase(ctx).Status == "up"
	code := http.StatusOK
	if !ready {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"ready":     ready,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Liveness handles GET /healthz. It only proves the process serves
// requests; dependency state is the readiness probe's job.
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"alive":     true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *Handler) pingDatabase(ctx context.Context) checkResult {
	if h.pool == nil {
		return checkResult{Status: "down", Error: "database pool not configured"}
	}

	start := time.Now()
	err := h.pool.Ping(ctx)
	result := checkResult{Status: "up", Latency: time.Since(start).String()}
	if err != nil {
		result.Status = "down"
		result.Error = err.Error()
	}
	return result
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
