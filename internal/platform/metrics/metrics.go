// Package metrics exposes engine counters and session-pool gauges through
// Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/applypilot/applypilot-api/internal/failure"
	"github.com/applypilot/applypilot-api/internal/session"
	"github.com/applypilot/applypilot-api/internal/task"
)

// EngineMetrics implements task.Metrics on Prometheus counters.
type EngineMetrics struct {
	tasksSubmitted *prometheus.CounterVec
	tasksFinished  *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
}

var _ task.Metrics = (*EngineMetrics)(nil)

// NewEngineMetrics creates the engine collectors and registers them with reg.
func NewEngineMetrics(reg prometheus.Registerer) *EngineMetrics {
	m := &EngineMetrics{
		tasksSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applypilot_tasks_submitted_total",
			Help: "Tasks accepted for execution, by kind.",
		}, []string{"kind"}),
		tasksFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applypilot_tasks_finished_total",
			Help: "Tasks settled into a terminal state, by kind and status.",
		}, []string{"kind", "status"}),
		retriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "applypilot_task_retries_total",
			Help: "Retry attempts scheduled, by failure category.",
		}, []string{"category"}),
	}
	reg.MustRegister(m.tasksSubmitted, m.tasksFinished, m.retriesTotal)
	return m
}

// TaskSubmitted implements task.Metrics.
func (m *EngineMetrics) TaskSubmitted(kind task.Kind) {
	m.tasksSubmitted.WithLabelValues(string(kind)).Inc()
}

// TaskFinished implements task.Metrics.
func (m *EngineMetrics) TaskFinished(kind task.Kind, status task.Status) {
	m.tasksFinished.WithLabelValues(string(kind), string(status)).Inc()
}

// RetryScheduled implements task.Metrics.
func (m *EngineMetrics) RetryScheduled(category failure.Category) {
	m.retriesTotal.WithLabelValues(string(category)).Inc()
}

// PoolCollector exports session-pool gauges by sampling Pool.Stats at scrape
// time, so the gauges never drift from the pool's own accounting.
type PoolCollector struct {
	pool *session.Pool

	liveDesc *prometheus.Desc
	idleDesc *prometheus.Desc
}

var _ prometheus.Collector = (*PoolCollector)(nil)

// NewPoolCollector creates a collector over the given pool and registers it
// with reg.
func NewPoolCollector(reg prometheus.Registerer, pool *session.Pool) *PoolCollector {
	c := &PoolCollector{
		pool: pool,
		liveDesc: prometheus.NewDesc(
			"applypilot_sessions_live",
			"Live automation sessions.",
			nil, nil),
		idleDesc: prometheus.NewDesc(
			"applypilot_sessions_idle",
			"Idle automation sessions available for reuse.",
			nil, nil),
	}
	reg.MustRegister(c)
	return c
}

// Describe implements prometheus.Collector.
func (c *PoolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.liveDesc
	ch <- c.idleDesc
}

// Collect implements prometheus.Collector.
func (c *PoolCollector) Collect(ch chan<- prometheus.Metric) {
	stats := c.pool.Stats()
	ch <- prometheus.MustNewConstMetric(c.liveDesc, prometheus.GaugeValue, float64(stats.GlobalLive))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(stats.Idle))
}
