package launcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/config"
	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/registry"
	"github.com/termhive/termhive/internal/shared/id"
	"github.com/termhive/termhive/internal/templates"
	"github.com/termhive/termhive/internal/types"
)

// Launcher starts native terminal applications running the enhanced
// shell and pre-registers each session into the registry before
// returning.
type Launcher struct {
	registry   *registry.Registry
	detector   *Detector
	strategies map[string]Strategy
	cfg        config.LauncherConfig
	tpl        *templates.Library
	log        *logging.Logger

	// synthetic identity bookkeeping, locked independently of the
	// registry so no operation ever needs both locks.
	mu        sync.Mutex
	synthetic map[int]string    // synthetic PID -> session ID
	byApp     map[string]string // session ID -> strategy name
}

// Option configures a Launcher.
type Option func(*Launcher)

// WithDetector overrides terminal application detection, for tests.
func WithDetector(d *Detector) Option {
	return func(l *Launcher) { l.detector = d }
}

// WithStrategy registers or replaces a spawn strategy.
func WithStrategy(s Strategy) Option {
	return func(l *Launcher) { l.strategies[s.Name()] = s }
}

// New creates a launcher with the full strategy table for the platform.
func New(reg *registry.Registry, cfg config.LauncherConfig, tpl *templates.Library, log *logging.Logger, opts ...Option) *Launcher {
	l := &Launcher{
		registry: reg,
		detector: NewDetector(),
		cfg:      cfg,
		tpl:      tpl,
		log:      log.Named("launcher"),
		strategies: map[string]Strategy{
			AppTerminal:  newTerminalAppStrategy(),
			AppITerm:     newITermStrategy(),
			AppKitty:     newExecStrategy(AppKitty),
			AppAlacritty: newExecStrategy(AppAlacritty),
			AppGnome:     newExecStrategy(AppGnome),
			AppKonsole:   newExecStrategy(AppKonsole),
			AppXterm:     newExecStrategy(AppXterm),
			AppHeadless:  newHeadlessStrategy(),
		},
		synthetic: make(map[int]string),
		byApp:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Launch starts a terminal session and pre-registers it. The returned
// PID is real where the platform reports one synchronously, otherwise a
// synthetic placeholder reconciled on the session's first heartbeat.
func (l *Launcher) Launch(ctx context.Context, cfg types.SessionConfig) (string, int, error) {
	cfg, err := l.tpl.Apply(cfg)
	if err != nil {
		return "", 0, err
	}

	sessionID := id.NewSessionID()

	app, err := l.resolveApp(cfg.App)
	if err != nil {
		return "", 0, err
	}
	strategy, ok := l.strategies[app]
	if !ok {
		return "", 0, fmt.Errorf("no spawn strategy for terminal application %q", app)
	}

	workingDir := l.resolveWorkingDir(cfg.WorkingDir)

	spec := Spec{
		SessionID:  sessionID,
		Title:      windowTitle(sessionID),
		WorkingDir: workingDir,
		Command:    l.cfg.ShellCommand,
		Env:        l.buildEnv(sessionID, cfg),
	}

	pid, err := strategy.Spawn(ctx, spec)
	if err != nil {
		return "", 0, fmt.Errorf("failed to launch session: %w", err)
	}

	l.mu.Lock()
	if id.IsSynthetic(pid) {
		l.synthetic[pid] = sessionID
	}
	l.byApp[sessionID] = app
	l.mu.Unlock()

	l.registry.PreRegister(sessionID, pid, cfg)

	l.log.Info("session launched",
		zap.String("session_id", sessionID),
		zap.Int("pid", pid),
		zap.String("app", app),
		zap.String("working_dir", workingDir))
	return sessionID, pid, nil
}

// ResolveSynthetic maps a synthetic PID back to its session identifier.
func (l *Launcher) ResolveSynthetic(pid int) (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sid, ok := l.synthetic[pid]
	return sid, ok
}

// Forget drops launcher bookkeeping for a terminated session.
func (l *Launcher) Forget(sessionID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for pid, sid := range l.synthetic {
		if sid == sessionID {
			delete(l.synthetic, pid)
		}
	}
	delete(l.byApp, sessionID)
}

// CloseWindow closes the terminal window of a session via the strategy
// that spawned it.
func (l *Launcher) CloseWindow(ctx context.Context, sessionID string) error {
	return l.windowStrategy(sessionID).CloseWindow(ctx, sessionID)
}

// FocusWindow brings the terminal window of a session to the front.
func (l *Launcher) FocusWindow(ctx context.Context, sessionID string) error {
	return l.windowStrategy(sessionID).FocusWindow(ctx, sessionID)
}

// windowStrategy returns the strategy that spawned a session. Sessions
// launched by a previous process (heartbeat-reconstructed records) fall
// back to the configured terminal application, then the platform
// default.
func (l *Launcher) windowStrategy(sessionID string) Strategy {
	l.mu.Lock()
	app, ok := l.byApp[sessionID]
	l.mu.Unlock()
	if !ok {
		if app = strings.ToLower(l.cfg.TerminalApp); app == "" {
			app = l.detector.Default()
		}
	}
	if s, found := l.strategies[app]; found {
		return s
	}
	return l.strategies[AppHeadless]
}

// resolveApp picks the terminal application: caller override, service
// configuration, then the platform default among detected applications.
// No detected application is a fatal configuration error.
func (l *Launcher) resolveApp(override string) (string, error) {
	for _, candidate := range []string{override, l.cfg.TerminalApp} {
		if candidate == "" {
			continue
		}
		candidate = strings.ToLower(candidate)
		if !l.detector.Detect(candidate) {
			return "", fmt.Errorf("terminal application %q not detected on this host", candidate)
		}
		return candidate, nil
	}
	if app := l.detector.Default(); app != "" {
		return app, nil
	}
	return "", fmt.Errorf("no supported terminal application detected on this platform")
}

// resolveWorkingDir expands environment variables and a leading ~,
// defaulting to the user's home directory.
func (l *Launcher) resolveWorkingDir(dir string) string {
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			return home
		}
		return "/tmp"
	}
	return ExpandPath(dir)
}

// buildEnv assembles the environment contract the launched shell sees,
// with caller-supplied overlay entries layered on top.
func (l *Launcher) buildEnv(sessionID string, cfg types.SessionConfig) map[string]string {
	env := map[string]string{
		types.EnvSessionID:   sessionID,
		types.EnvCallbackURL: l.cfg.CallbackURL,
		types.EnvSessionName: cfg.Name,
		types.EnvRoot:        ExpandPath(l.cfg.Root),
		types.EnvToken:       uuid.New().String(),
	}
	for k, v := range cfg.Env {
		env[k] = v
	}
	return env
}

// ExpandPath expands $VARS and a leading ~ in a filesystem path.
func ExpandPath(path string) string {
	path = os.ExpandEnv(path)
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
