package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimiter implements a simple in-memory sliding-window rate
// limiter. It throttles the login endpoint per client IP, complementing
// the per-account lockout policy: the lockout counts wrong passwords
// per account, the limiter bounds attempt volume per source.
type RateLimiter struct {
	mu      sync.Mutex
	seen    map[string][]time.Time
	limit   int
	window  time.Duration
	stopCh  chan struct{}
	stopped sync.Once
}

// NewRateLimiter creates a new rate limiter allowing limit requests per
// key per window.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		seen:   make(map[string][]time.Time),
		limit:  limit,
		window: window,
		stopCh: make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow records an attempt for the key and reports whether it is within
// the window limit.
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	recent := pruneBefore(rl.seen[key], now.Add(-rl.window))
	if len(recent) >= rl.limit {
		rl.seen[key] = recent
		return false
	}
	rl.seen[key] = append(recent, now)
	return true
}

// Close stops the background janitor.
func (rl *RateLimiter) Close() {
	rl.stopped.Do(func() { close(rl.stopCh) })
}

// janitor drops keys that have gone quiet so the map does not grow with
// every IP ever seen.
func (rl *RateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			cutoff := time.Now().Add(-rl.window)
			rl.mu.Lock()
			for key, attempts := range rl.seen {
				if recent := pruneBefore(attempts, cutoff); len(recent) == 0 {
					delete(rl.seen, key)
				} else {
					rl.seen[key] = recent
				}
			}
			rl.mu.Unlock()
		}
	}
}

func pruneBefore(attempts []time.Time, cutoff time.Time) []time.Time {
	var recent []time.Time
	for _, t := range attempts {
		if t.After(cutoff) {
			recent = append(recent, t)
		}
	}
	return recent
}

// Handler rejects requests over the limit with 429, keyed by client IP.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.Allow(ClientIP(r)) {
			writeJSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests. Please try again later.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
