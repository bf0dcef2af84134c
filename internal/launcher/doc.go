// Package launcher starts native terminal applications running the
// enhanced shell.
//
// Each supported terminal family (macOS Terminal.app and iTerm2 via
// AppleScript automation, common Linux emulators via direct process
// creation, plus a windowless PTY fallback) is a Strategy selected from
// a lookup table at construction time. Spawn returns as soon as the
// window exists; liveness confirmation is entirely the registry's job
// via heartbeats.
//
// Where a platform cannot report the terminal's real PID synchronously,
// the launcher assigns a synthetic (negative) identity and keeps a
// session mapping for later resolution by the termination controller.
package launcher
