// Package ws streams session registry events over WebSocket.
//
// Clients receive a snapshot of all current sessions on connect,
// followed by every registry transition (registered, heartbeat,
// degraded, removed, evicted) as it happens. Slow clients drop events
// rather than stalling heartbeat ingestion.
//
// Example Usage:
//
//	handler := ws.NewHandler(reg, logger)
//	router.GET("/stream", handler.HandleConnection)
package ws
