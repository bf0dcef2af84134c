// Package http provides HTTP handlers and routing for the termhive REST API.
//
// This package implements all HTTP endpoints using the Gin framework, including
// health checks, heartbeat ingestion, session launch, termination, and focus.
//
// Endpoints:
//   - Health: / and /health
//   - Heartbeat: /heartbeat
//   - Sessions: /sessions, /sessions/:identity, /sessions/:identity/focus
//   - Mailbox: /sessions/:identity/mailbox
//
// Features:
//   - JSON request/response handling
//   - Proper HTTP status codes
//   - Error response formatting
//   - Request validation
//
// Example Usage:
//
//	handlers := http.NewHandlers(reg, launcher, terminator, mail, log)
//	router.POST("/heartbeat", handlers.Heartbeat)
//	router.DELETE("/sessions/:identity", handlers.TerminateSession)
package http
