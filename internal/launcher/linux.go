package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"

	"github.com/termhive/termhive/internal/shared/id"
)

// execStrategy spawns Linux terminal emulators that are direct child
// processes: the Start call reports the real emulator PID synchronously,
// so no synthetic-identity bookkeeping is needed. gnome-terminal is the
// exception (it hands the window to a server process and exits), so it
// returns a synthetic identity like the macOS strategies.
type execStrategy struct {
	app      string
	lookPath func(string) (string, error)
	start    func(*exec.Cmd) (int, error)
	runner   windowToolRunner
}

// windowToolRunner shells out to wmctrl/xdotool for window control.
type windowToolRunner func(ctx context.Context, name string, args ...string) error

func runWindowTool(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s failed: %w: %s", name, err, string(out))
	}
	return nil
}

func startCmd(cmd *exec.Cmd) (int, error) {
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Reap the emulator when it exits so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
	return pid, nil
}

func newExecStrategy(app string) *execStrategy {
	return &execStrategy{
		app:      app,
		lookPath: exec.LookPath,
		start:    startCmd,
		runner:   runWindowTool,
	}
}

func (s *execStrategy) Name() string { return s.app }

func (s *execStrategy) Spawn(ctx context.Context, spec Spec) (int, error) {
	path, err := s.lookPath(s.app)
	if err != nil {
		return 0, fmt.Errorf("terminal application %q not found: %w", s.app, err)
	}

	title := windowTitle(spec.SessionID)
	var args []string
	switch s.app {
	case AppKitty:
		args = []string{"--title", title, "--directory", spec.WorkingDir, spec.Command}
	case AppAlacritty:
		args = []string{"--title", title, "--working-directory", spec.WorkingDir, "-e", spec.Command}
	case AppGnome:
		args = []string{"--title", title, "--working-directory", spec.WorkingDir, "--", spec.Command}
	case AppKonsole:
		args = []string{"-p", "tabtitle=" + title, "--workdir", spec.WorkingDir, "-e", spec.Command}
	case AppXterm:
		args = []string{"-T", title, "-e", spec.Command}
	default:
		return 0, fmt.Errorf("unsupported terminal application %q", s.app)
	}

	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = spec.WorkingDir
	cmd.Env = mergeEnviron(os.Environ(), spec.Env)

	pid, err := s.start(cmd)
	if err != nil {
		return 0, fmt.Errorf("failed to spawn %s: %w", s.app, err)
	}
	if s.app == AppGnome {
		// The forked client exits immediately; its PID is useless.
		return id.NewSyntheticPID(), nil
	}
	return pid, nil
}

// CloseWindow asks the window manager to close the window carrying the
// session marker in its title. Tried with wmctrl first, xdotool second.
func (s *execStrategy) CloseWindow(ctx context.Context, sessionID string) error {
	title := windowTitle(sessionID)
	if _, err := s.lookPath("wmctrl"); err == nil {
		return s.runner(ctx, "wmctrl", "-F", "-c", title)
	}
	if _, err := s.lookPath("xdotool"); err == nil {
		return s.runner(ctx, "xdotool", "search", "--name", title, "windowclose")
	}
	return fmt.Errorf("no window control tool available (wmctrl or xdotool)")
}

func (s *execStrategy) FocusWindow(ctx context.Context, sessionID string) error {
	title := windowTitle(sessionID)
	if _, err := s.lookPath("wmctrl"); err == nil {
		return s.runner(ctx, "wmctrl", "-F", "-a", title)
	}
	if _, err := s.lookPath("xdotool"); err == nil {
		return s.runner(ctx, "xdotool", "search", "--name", title, "windowactivate")
	}
	return fmt.Errorf("no window control tool available (wmctrl or xdotool)")
}

// mergeEnviron layers overlay entries over a base environment.
func mergeEnviron(base []string, overlay map[string]string) []string {
	env := append([]string(nil), base...)
	for k, v := range overlay {
		env = append(env, k+"="+v)
	}
	return env
}
