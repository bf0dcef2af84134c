// Package main is the entry point for the termhive session server.
//
// The server tracks live terminal sessions launched on the local host:
// it spawns terminal windows, ingests heartbeats from their shell
// proxies, sweeps out sessions that stop reporting, and tears down
// processes and windows on request.
//
// The server provides:
//   - REST API for launching, listing, and terminating sessions
//   - Heartbeat ingestion on a 30s cadence
//   - WebSocket streaming of session state transitions
//   - Per-session mailbox message drops
//   - Prometheus metrics, rate limiting
//
// Configuration:
//   - Environment variables (12-factor)
//   - Defaults for local development
//
// Usage:
//
//	PORT=7070 TERMHIVE_ROOT=~/.termhive ./server
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
