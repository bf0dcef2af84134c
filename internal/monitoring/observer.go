package monitoring

import (
	"github.com/termhive/termhive/internal/registry"
)

// Observer feeds registry events into the metric counters and keeps the
// per-state gauges current. Run consumes a subscription channel until
// it is closed.
type Observer struct {
	metrics  *Metrics
	registry *registry.Registry
}

// NewObserver creates a metrics observer for a registry.
func NewObserver(metrics *Metrics, reg *registry.Registry) *Observer {
	return &Observer{metrics: metrics, registry: reg}
}

// Run processes events until the channel closes. Intended to run in its
// own goroutine for the life of the process.
func (o *Observer) Run(events <-chan registry.Event) {
	for ev := range events {
		switch ev.Type {
		case registry.EventRegistered:
			o.metrics.LaunchesTotal.Inc()
		case registry.EventHeartbeat:
			o.metrics.HeartbeatsTotal.Inc()
		case registry.EventDegraded:
			o.metrics.DegradationsTotal.Inc()
		case registry.EventRemoved:
			o.metrics.TerminatedTotal.WithLabelValues(ev.Reason).Inc()
		case registry.EventEvicted:
			o.metrics.EvictionsTotal.Inc()
			o.metrics.TerminatedTotal.WithLabelValues("evicted").Inc()
		}

		stats := o.registry.Stats()
		o.metrics.SetSessionStates(stats.Launching, stats.ActiveSessions, stats.DegradedSessions)
		o.metrics.UpdateUptime()
	}
}
