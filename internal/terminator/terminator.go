// Package terminator stops sessions: resolves any known identity to a
// session, drives the graceful-to-forceful kill escalation, and closes
// the terminal window best-effort.
package terminator

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/config"
	"github.com/termhive/termhive/internal/launcher"
	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/registry"
	"github.com/termhive/termhive/internal/shared/id"
)

// Controller terminates sessions and foregrounds their windows.
type Controller struct {
	registry *registry.Registry
	launcher *launcher.Launcher
	procs    ProcessController
	cfg      config.TerminateConfig
	log      *logging.Logger
	sleep    func(time.Duration)
	now      func() time.Time
}

// Option configures a Controller.
type Option func(*Controller)

// WithProcessController overrides signal delivery, for tests.
func WithProcessController(p ProcessController) Option {
	return func(c *Controller) { c.procs = p }
}

// WithSleep overrides the poll-interval sleep, for tests.
func WithSleep(sleep func(time.Duration)) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// New creates a termination controller.
func New(reg *registry.Registry, l *launcher.Launcher, cfg config.TerminateConfig, log *logging.Logger, opts ...Option) *Controller {
	c := &Controller{
		registry: reg,
		launcher: l,
		procs:    NewProcessController(),
		cfg:      cfg,
		log:      log.Named("terminator"),
		sleep:    time.Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Terminate stops the session known by identity: a session ID, a real
// PID, or a synthetic PID (as a decimal string). Returns false when no
// session matches; a second call for the same identity finds nothing
// and has no side effects. Success means the process is confirmed dead
// or was already gone; window-close failures are logged only.
func (c *Controller) Terminate(ctx context.Context, identity string) bool {
	sessionID, pid, ok := c.resolve(identity)
	if !ok {
		c.log.Debug("nothing to terminate", zap.String("identity", identity))
		return false
	}

	// Remove first so listings never show a ghost entry during the
	// shutdown window.
	c.registry.Remove(sessionID)
	c.launcher.Forget(sessionID)

	if !id.IsSynthetic(pid) {
		c.escalate(pid, sessionID)
	}

	if err := c.launcher.CloseWindow(ctx, sessionID); err != nil {
		c.log.Warn("failed to close terminal window",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}

	c.log.Info("session terminated",
		zap.String("session_id", sessionID),
		zap.Int("pid", pid))
	return true
}

// Show foregrounds the terminal window of the session known by identity.
func (c *Controller) Show(ctx context.Context, identity string) bool {
	sessionID, _, ok := c.resolve(identity)
	if !ok {
		return false
	}
	if err := c.launcher.FocusWindow(ctx, sessionID); err != nil {
		c.log.Warn("failed to focus terminal window",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return false
	}
	return true
}

// resolve maps any known identity to (sessionID, storedPID). Synthetic
// PIDs resolve through the launcher's mapping to the registry record,
// which may hold the since-reconciled real PID; real PIDs and session
// IDs resolve through the registry directly. A session ID made entirely
// of digits parses as a number too, so the PID interpretations are
// tried first and the session-ID lookup is the final fallback for
// every shape of identity.
func (c *Controller) resolve(identity string) (string, int, bool) {
	if n, err := strconv.Atoi(identity); err == nil {
		if id.IsSynthetic(n) {
			if sid, ok := c.launcher.ResolveSynthetic(n); ok {
				if rec, found := c.registry.Get(sid); found {
					return rec.SessionID, rec.PID, true
				}
			}
		}
		if rec, ok := c.registry.FindByPID(n); ok {
			return rec.SessionID, rec.PID, true
		}
	}
	if rec, ok := c.registry.Get(identity); ok {
		return rec.SessionID, rec.PID, true
	}
	return "", 0, false
}

// escalate sends SIGTERM, polls for exit until the grace deadline, then
// falls back to SIGKILL. A process already gone at any step is fine.
func (c *Controller) escalate(pid int, sessionID string) {
	if !c.procs.Alive(pid) {
		return
	}
	if err := c.procs.Terminate(pid); err != nil {
		// Lost the race with process exit; not an error.
		c.log.Debug("graceful signal not delivered",
			zap.Int("pid", pid), zap.Error(err))
		return
	}

	deadline := c.now().Add(c.cfg.GracePeriod)
	for c.now().Before(deadline) {
		if !c.procs.Alive(pid) {
			return
		}
		c.sleep(c.cfg.PollInterval)
	}

	if c.procs.Alive(pid) {
		c.log.Warn("process survived grace period, killing",
			zap.Int("pid", pid),
			zap.String("session_id", sessionID))
		if err := c.procs.Kill(pid); err != nil {
			c.log.Debug("forceful signal not delivered",
				zap.Int("pid", pid), zap.Error(err))
		}
	}
}
