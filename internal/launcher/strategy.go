package launcher

import "context"

// Spec is everything a spawn strategy needs to open a terminal window.
type Spec struct {
	SessionID  string
	Title      string
	WorkingDir string
	// Command is the program the terminal runs (the enhanced shell).
	Command string
	// Env is the full variable overlay for the shell process, contract
	// variables and caller entries already merged.
	Env map[string]string
}

// Strategy spawns and controls windows for one terminal family.
//
// Spawn must return as soon as the window exists; liveness confirmation
// is the registry's job via heartbeats. The returned PID is the real OS
// PID where the platform reports one synchronously, or a synthetic
// placeholder (negative) where the emulator is launched indirectly.
// Window operations match on the session identifier embedded in the
// window title, not on PID.
type Strategy interface {
	Name() string
	Spawn(ctx context.Context, spec Spec) (int, error)
	CloseWindow(ctx context.Context, sessionID string) error
	FocusWindow(ctx context.Context, sessionID string) error
}

// windowTitle is the marker strategies embed in window titles so
// termination and focus can find the window later.
func windowTitle(sessionID string) string {
	return "termhive:" + sessionID
}
