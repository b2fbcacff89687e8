package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	dbConnectionsTotal = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portal",
			Subsystem: "db",
			Name:      "connections_total",
			Help:      "Total connections currently held by the pool",
		},
	)

	dbConnectionsInUse = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portal",
			Subsystem: "db",
			Name:      "connections_in_use",
			Help:      "Connections currently acquired by the application",
		},
	)

	dbConnectionsIdle = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portal",
			Subsystem: "db",
			Name:      "connections_idle",
			Help:      "Idle connections in the pool",
		},
	)

	// ActiveSessionsGauge tracks unexpired login sessions. Updated by the
	// pool stats collector alongside the connection gauges.
	ActiveSessionsGauge = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "portal",
			Subsystem: "session",
			Name:      "active_sessions",
			Help:      "Number of unexpired login sessions",
		},
	)
)

// PoolStatsCollector periodically publishes pgxpool statistics and the
// active-session count as Prometheus gauges.
type PoolStatsCollector struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
	stopCh chan struct{}
}

// NewPoolStatsCollector creates a new PoolStatsCollector instance
func NewPoolStatsCollector(pool *pgxpool.Pool, logger *slog.Logger) *PoolStatsCollector {
	if logger == nil {
		logger = slog.Default()
	}
	return &PoolStatsCollector{
		pool:   pool,
		logger: logger,
		stopCh: make(chan struct{}),
	}
}

// Start begins collecting statistics at the given interval.
func (c *PoolStatsCollector) Start(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.collect()

		for {
			select {
			case <-ticker.C:
				c.collect()
			case <-c.stopCh:
				return
			}
		}
	}()

	c.logger.Info("database stats collector started", "interval", interval)
}

// Stop halts the collector goroutine.
func (c *PoolStatsCollector) Stop() {
	close(c.stopCh)
}

func (c *PoolStatsCollector) collect() {
	stat := c.pool.Stat()
	dbConnectionsTotal.Set(float64(stat.TotalConns()))
	dbConnectionsInUse.Set(float64(stat.AcquiredConns()))
	dbConnectionsIdle.Set(float64(stat.IdleConns()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var active int64
	err := c.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM sessions WHERE expires_at > NOW()").Scan(&active)
	if err != nil {
		c.logger.Warn("failed to count active sessions", "error", err)
		return
	}
	ActiveSessionsGauge.Set(float64(active))
}
