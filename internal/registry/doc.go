// Package registry provides the concurrency-safe session liveness store.
//
// The registry is the single source of truth for "is this session
// alive." Sessions are pre-registered at launch (state launching),
// promoted to active by heartbeats, demoted to degraded by the
// background health sweep after missed heartbeats, and evicted after
// prolonged silence. Explicit termination and the reserved heartbeat
// status "terminated" remove a record immediately.
//
// Key Components:
//   - Registry: locked map of SessionRecords with snapshot accessors
//   - Health sweep: periodic demotion/eviction from heartbeat age alone
//   - Cleaner: best-effort removal side effects (inbox deletion)
//   - Events: pub/sub stream of state transitions for management UIs
//
// Example Usage:
//
//	reg := registry.New(registry.DefaultConfig(), registry.WithCleaner(inbox))
//	defer reg.Close()
//	reg.PreRegister(sid, pid, cfg)
//	reg.UpdateHeartbeat(sid, payload)
package registry
