package terminator

import (
	"syscall"
)

// ProcessController delivers signals to OS processes. Injectable so the
// kill escalation is testable without spawning real processes.
type ProcessController interface {
	// Alive reports whether a process with the given PID exists.
	Alive(pid int) bool
	// Terminate sends the graceful termination signal (SIGTERM).
	Terminate(pid int) error
	// Kill sends the forceful kill signal (SIGKILL).
	Kill(pid int) error
}

type osProcessController struct{}

// NewProcessController returns the real signal-based controller.
func NewProcessController() ProcessController {
	return osProcessController{}
}

func (osProcessController) Alive(pid int) bool {
	// Signal 0 probes existence without delivering anything.
	return syscall.Kill(pid, syscall.Signal(0)) == nil
}

func (osProcessController) Terminate(pid int) error {
	return syscall.Kill(pid, syscall.SIGTERM)
}

func (osProcessController) Kill(pid int) error {
	return syscall.Kill(pid, syscall.SIGKILL)
}
