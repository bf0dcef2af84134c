// Package types defines the shared data model for terminal session
// lifecycle management.
//
// Key Components:
//   - SessionConfig: immutable launch-time intent
//   - SessionRecord: the registry's mutable unit of truth per session
//   - State: session lifecycle states (launching, active, degraded)
//   - HeartbeatPayload: free-form liveness report data with reserved keys
package types
