package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// HTTP metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Session lifecycle metrics
	SessionsByState   *prometheus.GaugeVec
	LaunchesTotal     prometheus.Counter
	HeartbeatsTotal   prometheus.Counter
	TerminatedTotal   *prometheus.CounterVec
	EvictionsTotal    prometheus.Counter
	DegradationsTotal prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time
}

// NewMetrics creates a metrics collector registered on a private
// registry, so tests can hold many instances without collisions.
func NewMetrics() (*Metrics, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termhive_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "termhive_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "path"},
		),

		SessionsByState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "termhive_sessions",
				Help: "Current number of sessions by lifecycle state",
			},
			[]string{"state"},
		),
		LaunchesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termhive_launches_total",
				Help: "Total number of launched sessions",
			},
		),
		HeartbeatsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termhive_heartbeats_total",
				Help: "Total number of accepted heartbeats",
			},
		),
		TerminatedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "termhive_terminations_total",
				Help: "Total number of removed sessions by reason",
			},
			[]string{"reason"},
		),
		EvictionsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termhive_evictions_total",
				Help: "Total number of sessions evicted by the health sweep",
			},
		),
		DegradationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "termhive_degradations_total",
				Help: "Total number of active-to-degraded demotions",
			},
		),

		Uptime: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "termhive_uptime_seconds",
				Help: "Service uptime in seconds",
			},
		),
	}
	return m, reg
}

// RecordHTTPRequest records one completed HTTP request.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// UpdateUptime refreshes the uptime gauge.
func (m *Metrics) UpdateUptime() {
	m.Uptime.Set(time.Since(m.startTime).Seconds())
}

// SetSessionStates replaces the per-state session gauge values.
func (m *Metrics) SetSessionStates(launching, active, degraded int) {
	m.SessionsByState.WithLabelValues("launching").Set(float64(launching))
	m.SessionsByState.WithLabelValues("active").Set(float64(active))
	m.SessionsByState.WithLabelValues("degraded").Set(float64(degraded))
}
