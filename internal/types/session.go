package types

import "time"

// State represents session lifecycle states
type State string

const (
	// StateLaunching means the terminal was spawned but no heartbeat
	// has arrived yet.
	StateLaunching State = "launching"
	// StateActive means heartbeats are arriving on schedule.
	StateActive State = "active"
	// StateDegraded means the session missed enough heartbeats to be
	// suspect but has not yet aged out.
	StateDegraded State = "degraded"
)

// Reserved heartbeat payload keys.
const (
	KeySessionID = "session_id"
	KeyPID       = "pid"
	KeyStatus    = "status"

	// StatusTerminated is the reserved status value meaning "I am
	// shutting down voluntarily, remove me now."
	StatusTerminated = "terminated"
)

// SessionConfig captures launch-time intent. Immutable after creation.
type SessionConfig struct {
	Name       string            `json:"name"`
	App        string            `json:"app,omitempty"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Purpose    string            `json:"purpose,omitempty"`
	Template   string            `json:"template,omitempty"`
	Env        map[string]string `json:"env,omitempty"`
}

// SessionRecord is the registry's unit of truth for one launched terminal.
// PID may start as a synthetic placeholder (negative) and is reconciled to
// the real OS PID on the session's first heartbeat.
type SessionRecord struct {
	SessionID     string                 `json:"session_id"`
	PID           int                    `json:"pid"`
	LaunchedAt    time.Time              `json:"launched_at"`
	LastHeartbeat time.Time              `json:"last_heartbeat"`
	State         State                  `json:"state"`
	Config        SessionConfig          `json:"config"`
	Meta          map[string]interface{} `json:"meta,omitempty"`
}

// HeartbeatPayload is the free-form key/value data a shell reports.
type HeartbeatPayload map[string]interface{}

// PID extracts the reported process identity, if present. JSON numbers
// decode as float64, so both forms are accepted.
func (p HeartbeatPayload) PID() (int, bool) {
	switch v := p[KeyPID].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// Terminated reports whether the payload carries the reserved
// termination status.
func (p HeartbeatPayload) Terminated() bool {
	s, _ := p[KeyStatus].(string)
	return s == StatusTerminated
}

// Clone returns a deep-enough copy of the record for snapshot listings.
func (r *SessionRecord) Clone() SessionRecord {
	out := *r
	if r.Meta != nil {
		out.Meta = make(map[string]interface{}, len(r.Meta))
		for k, v := range r.Meta {
			out.Meta[k] = v
		}
	}
	return out
}

// Stats contains registry statistics
type Stats struct {
	TotalSessions    int `json:"total_sessions"`
	ActiveSessions   int `json:"active_sessions"`
	DegradedSessions int `json:"degraded_sessions"`
	Launching        int `json:"launching"`
}
