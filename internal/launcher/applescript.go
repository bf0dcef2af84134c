package launcher

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"

	"github.com/termhive/termhive/internal/shared/id"
)

// osaRunner executes an AppleScript. Injectable for tests.
type osaRunner func(ctx context.Context, script string) error

func runOSAScript(ctx context.Context, script string) error {
	cmd := exec.CommandContext(ctx, "osascript", "-e", script)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("osascript failed: %w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}

// terminalAppStrategy drives macOS Terminal.app through osascript.
// Terminal.app is launched indirectly, so the spawned window's PID is
// not knowable synchronously; every spawn yields a synthetic identity.
type terminalAppStrategy struct {
	run osaRunner
}

func newTerminalAppStrategy() *terminalAppStrategy {
	return &terminalAppStrategy{run: runOSAScript}
}

func (s *terminalAppStrategy) Name() string { return AppTerminal }

func (s *terminalAppStrategy) Spawn(ctx context.Context, spec Spec) (int, error) {
	script := fmt.Sprintf(`tell application "Terminal"
	activate
	set newTab to do script %s
	set custom title of newTab to %s
end tell`,
		appleQuote(shellCommand(spec)), appleQuote(windowTitle(spec.SessionID)))

	if err := s.run(ctx, script); err != nil {
		return 0, fmt.Errorf("failed to spawn Terminal.app window: %w", err)
	}
	return id.NewSyntheticPID(), nil
}

func (s *terminalAppStrategy) CloseWindow(ctx context.Context, sessionID string) error {
	script := fmt.Sprintf(`tell application "Terminal"
	repeat with w in windows
		repeat with t in tabs of w
			if custom title of t contains %s then close w
		end repeat
	end repeat
end tell`, appleQuote(windowTitle(sessionID)))
	return s.run(ctx, script)
}

func (s *terminalAppStrategy) FocusWindow(ctx context.Context, sessionID string) error {
	script := fmt.Sprintf(`tell application "Terminal"
	activate
	repeat with w in windows
		repeat with t in tabs of w
			if custom title of t contains %s then set frontmost of w to true
		end repeat
	end repeat
end tell`, appleQuote(windowTitle(sessionID)))
	return s.run(ctx, script)
}

// iTermStrategy drives iTerm2 through osascript. Same synthetic-PID
// situation as Terminal.app.
type iTermStrategy struct {
	run osaRunner
}

func newITermStrategy() *iTermStrategy {
	return &iTermStrategy{run: runOSAScript}
}

func (s *iTermStrategy) Name() string { return AppITerm }

func (s *iTermStrategy) Spawn(ctx context.Context, spec Spec) (int, error) {
	script := fmt.Sprintf(`tell application "iTerm"
	set newWindow to (create window with default profile command %s)
	tell current session of newWindow to set name to %s
end tell`,
		appleQuote(shellCommand(spec)), appleQuote(windowTitle(spec.SessionID)))

	if err := s.run(ctx, script); err != nil {
		return 0, fmt.Errorf("failed to spawn iTerm window: %w", err)
	}
	return id.NewSyntheticPID(), nil
}

func (s *iTermStrategy) CloseWindow(ctx context.Context, sessionID string) error {
	script := fmt.Sprintf(`tell application "iTerm"
	repeat with w in windows
		repeat with t in tabs of w
			repeat with sess in sessions of t
				if name of sess contains %s then close w
			end repeat
		end repeat
	end repeat
end tell`, appleQuote(windowTitle(sessionID)))
	return s.run(ctx, script)
}

func (s *iTermStrategy) FocusWindow(ctx context.Context, sessionID string) error {
	script := fmt.Sprintf(`tell application "iTerm"
	activate
	repeat with w in windows
		repeat with t in tabs of w
			repeat with sess in sessions of t
				if name of sess contains %s then select w
			end repeat
		end repeat
	end repeat
end tell`, appleQuote(windowTitle(sessionID)))
	return s.run(ctx, script)
}

// shellCommand renders the command line a spawned terminal runs: change
// to the working directory, apply the env overlay, exec the shell.
func shellCommand(spec Spec) string {
	var b strings.Builder
	b.WriteString("cd ")
	b.WriteString(shellQuote(spec.WorkingDir))
	b.WriteString(" && exec env")

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(" ")
		b.WriteString(shellQuote(k + "=" + spec.Env[k]))
	}
	b.WriteString(" ")
	b.WriteString(spec.Command)
	return b.String()
}

// shellQuote single-quotes a string for POSIX shells.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// appleQuote double-quotes a string for AppleScript source.
func appleQuote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}
