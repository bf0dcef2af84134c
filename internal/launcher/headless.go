package launcher

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
)

// headlessStrategy runs the enhanced shell directly on a PTY with no
// terminal window at all. Useful on hosts without a GUI (CI, servers);
// the PID is always real and synchronous, and window operations are
// no-ops by construction.
type headlessStrategy struct {
	startPTY func(*exec.Cmd) (*os.File, error)

	mu    sync.Mutex
	ptmxs map[string]*os.File // sessionID -> PTY master
}

func newHeadlessStrategy() *headlessStrategy {
	return &headlessStrategy{
		startPTY: pty.Start,
		ptmxs:    make(map[string]*os.File),
	}
}

func (s *headlessStrategy) Name() string { return AppHeadless }

func (s *headlessStrategy) Spawn(ctx context.Context, spec Spec) (int, error) {
	cmd := exec.Command(spec.Command)
	cmd.Dir = spec.WorkingDir
	cmd.Env = mergeEnviron(os.Environ(), spec.Env)

	ptmx, err := s.startPTY(cmd)
	if err != nil {
		return 0, fmt.Errorf("failed to start PTY: %w", err)
	}
	go func() { _ = cmd.Wait() }()

	s.mu.Lock()
	s.ptmxs[spec.SessionID] = ptmx
	s.mu.Unlock()

	return cmd.Process.Pid, nil
}

// CloseWindow releases the PTY master; there is no window to close.
func (s *headlessStrategy) CloseWindow(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	ptmx, ok := s.ptmxs[sessionID]
	delete(s.ptmxs, sessionID)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return ptmx.Close()
}

func (s *headlessStrategy) FocusWindow(ctx context.Context, sessionID string) error {
	return nil
}
