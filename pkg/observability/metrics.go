package observability

import (
	"database/sql"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics.
type Metrics struct {
	// Job queue metrics
	JobExecutionsTotal *prometheus.CounterVec
	JobDuration        *prometheus.HistogramVec
	JobsPending        prometheus.Gauge
	JobsReapedTotal    prometheus.Counter

	// Project lifecycle metrics
	ProjectOpsTotal *prometheus.CounterVec

	// Forum client metrics
	ForumRequestsTotal *prometheus.CounterVec

	// Cache metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Database metrics
	DBConnectionsActive prometheus.Gauge
	DBConnectionsIdle   prometheus.Gauge
}

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		JobExecutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_job_executions_total",
				Help: "Job executions by type and outcome (done, retried, failed)",
			},
			[]string{"type", "outcome"},
		),
		JobDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lodestone_job_duration_seconds",
				Help:    "Job execution duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		JobsPending: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lodestone_jobs_pending",
				Help: "Number of jobs waiting to run",
			},
		),
		JobsReapedTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "lodestone_jobs_reaped_total",
				Help: "Stale processing jobs returned to pending",
			},
		),
		ProjectOpsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_project_operations_total",
				Help: "Project lifecycle operations by kind and result",
			},
			[]string{"operation", "result"},
		),
		ForumRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_forum_requests_total",
				Help: "Requests to the discussion forum by operation and result",
			},
			[]string{"operation", "result"},
		),
		CacheHitsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_cache_hits_total",
				Help: "Cache hits by cache name",
			},
			[]string{"cache"},
		),
		CacheMissesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lodestone_cache_misses_total",
				Help: "Cache misses by cache name",
			},
			[]string{"cache"},
		),
		DBConnectionsActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lodestone_db_connections_active",
				Help: "Active database connections",
			},
		),
		DBConnectionsIdle: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "lodestone_db_connections_idle",
				Help: "Idle database connections",
			},
		),
	}

	registry.MustRegister(
		m.JobExecutionsTotal,
		m.JobDuration,
		m.JobsPending,
		m.JobsReapedTotal,
		m.ProjectOpsTotal,
		m.ForumRequestsTotal,
		m.CacheHitsTotal,
		m.CacheMissesTotal,
		m.DBConnectionsActive,
		m.DBConnectionsIdle,
	)
	return m
}

// UpdateDBStats refreshes the connection pool gauges.
func (m *Metrics) UpdateDBStats(db *sql.DB) {
	stats := db.Stats()
	m.DBConnectionsActive.Set(float64(stats.InUse))
	m.DBConnectionsIdle.Set(float64(stats.Idle))
}
