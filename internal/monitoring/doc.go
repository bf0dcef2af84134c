// Package monitoring provides Prometheus metrics for the session
// lifecycle service: HTTP request counters and latencies, per-state
// session gauges, and lifecycle event counters fed from the registry's
// event stream.
package monitoring
