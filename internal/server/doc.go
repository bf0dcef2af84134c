// Package server provides HTTP server setup and initialization for termhive.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (CORS, rate limiting, request IDs, recovery)
//   - Registry with background sweep and mailbox cleanup
//   - Launcher with platform spawn strategy detection
//   - Terminator with graceful kill escalation
//   - Prometheus metrics and the WebSocket event stream
//
// Server Lifecycle:
//  1. Load configuration from environment
//  2. Initialize logger (production or development)
//  3. Build registry, launcher, terminator, mailbox
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server
//  6. Graceful shutdown on signal
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg, log)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
