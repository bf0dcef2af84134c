package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termhive/termhive/internal/config"
	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/registry"
	"github.com/termhive/termhive/internal/shared/id"
	"github.com/termhive/termhive/internal/templates"
	"github.com/termhive/termhive/internal/types"
)

// fakeStrategy records spawn specs and simulates either a real or
// synthetic PID family.
type fakeStrategy struct {
	name      string
	synthetic bool
	spawnErr  error

	mu      sync.Mutex
	specs   []Spec
	closed  []string
	focused []string
}

func (f *fakeStrategy) Name() string { return f.name }

func (f *fakeStrategy) Spawn(ctx context.Context, spec Spec) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.spawnErr != nil {
		return 0, f.spawnErr
	}
	f.specs = append(f.specs, spec)
	if f.synthetic {
		return id.NewSyntheticPID(), nil
	}
	return 40000 + len(f.specs), nil
}

func (f *fakeStrategy) CloseWindow(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = append(f.closed, sessionID)
	return nil
}

func (f *fakeStrategy) FocusWindow(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.focused = append(f.focused, sessionID)
	return nil
}

func (f *fakeStrategy) lastSpec(t *testing.T) Spec {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.specs)
	return f.specs[len(f.specs)-1]
}

// fakeDetector pretends exactly the given apps exist on a linux host.
func fakeDetector(apps ...string) *Detector {
	present := make(map[string]bool, len(apps))
	for _, a := range apps {
		present[a] = true
	}
	return &Detector{
		goos: "linux",
		lookPath: func(name string) (string, error) {
			if present[name] {
				return "/usr/bin/" + name, nil
			}
			return "", errors.New("not found")
		},
		stat: os.Stat,
	}
}

func newTestLauncher(t *testing.T, strat *fakeStrategy, det *Detector) (*Launcher, *registry.Registry) {
	t.Helper()
	reg := registry.New(registry.Config{
		SweepInterval:     time.Hour,
		DegradedThreshold: 90 * time.Second,
		EvictionThreshold: 180 * time.Second,
	}, registry.WithLogger(logging.NewNop()))
	t.Cleanup(reg.Close)

	tpl, err := templates.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	cfg := config.Default().Launcher
	cfg.Root = t.TempDir()
	l := New(reg, cfg, tpl, logging.NewNop(), WithDetector(det), WithStrategy(strat))
	return l, reg
}

func TestLaunch(t *testing.T) {
	t.Run("Real PID path", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty}
		l, reg := newTestLauncher(t, strat, fakeDetector(AppKitty))

		sid, pid, err := l.Launch(context.Background(), types.SessionConfig{Name: "T1"})
		require.NoError(t, err)
		assert.Len(t, sid, id.SessionIDLength)
		assert.Positive(t, pid)

		rec, ok := reg.Get(sid)
		require.True(t, ok)
		assert.Equal(t, types.StateLaunching, rec.State)
		assert.Equal(t, pid, rec.PID)

		_, tracked := l.ResolveSynthetic(pid)
		assert.False(t, tracked, "real PIDs skip synthetic bookkeeping")
	})

	t.Run("Synthetic PID path", func(t *testing.T) {
		strat := &fakeStrategy{name: AppGnome, synthetic: true}
		l, reg := newTestLauncher(t, strat, fakeDetector(AppGnome))

		sid, pid, err := l.Launch(context.Background(), types.SessionConfig{Name: "T2"})
		require.NoError(t, err)
		assert.True(t, id.IsSynthetic(pid))

		resolved, ok := l.ResolveSynthetic(pid)
		require.True(t, ok)
		assert.Equal(t, sid, resolved)

		rec, _ := reg.Get(sid)
		assert.Equal(t, pid, rec.PID)
	})

	t.Run("Environment contract", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty}
		l, _ := newTestLauncher(t, strat, fakeDetector(AppKitty))

		sid, _, err := l.Launch(context.Background(), types.SessionConfig{
			Name: "T3",
			Env:  map[string]string{"EXTRA": "yes"},
		})
		require.NoError(t, err)

		spec := strat.lastSpec(t)
		assert.Equal(t, sid, spec.Env[types.EnvSessionID])
		assert.Equal(t, "T3", spec.Env[types.EnvSessionName])
		assert.NotEmpty(t, spec.Env[types.EnvCallbackURL])
		assert.NotEmpty(t, spec.Env[types.EnvToken])
		assert.Equal(t, "yes", spec.Env["EXTRA"])
		assert.Equal(t, "termhive:"+sid, spec.Title)
	})

	t.Run("Working directory expansion", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty}
		l, _ := newTestLauncher(t, strat, fakeDetector(AppKitty))

		t.Setenv("LAUNCH_TEST_DIR", "/srv/builds")
		_, _, err := l.Launch(context.Background(), types.SessionConfig{
			WorkingDir: "$LAUNCH_TEST_DIR/ci",
		})
		require.NoError(t, err)
		assert.Equal(t, "/srv/builds/ci", strat.lastSpec(t).WorkingDir)
	})

	t.Run("Defaults working directory to home", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty}
		l, _ := newTestLauncher(t, strat, fakeDetector(AppKitty))

		_, _, err := l.Launch(context.Background(), types.SessionConfig{})
		require.NoError(t, err)
		home, _ := os.UserHomeDir()
		assert.Equal(t, home, strat.lastSpec(t).WorkingDir)
	})

	t.Run("Unknown app is a configuration error", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty}
		l, _ := newTestLauncher(t, strat, fakeDetector(AppKitty))

		_, _, err := l.Launch(context.Background(), types.SessionConfig{App: "warp"})
		assert.Error(t, err)
	})

	t.Run("No detected terminal is a configuration error", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty}
		l, _ := newTestLauncher(t, strat, fakeDetector())

		_, _, err := l.Launch(context.Background(), types.SessionConfig{})
		assert.Error(t, err)
	})

	t.Run("Spawn failure does not pre-register", func(t *testing.T) {
		strat := &fakeStrategy{name: AppKitty, spawnErr: errors.New("boom")}
		l, reg := newTestLauncher(t, strat, fakeDetector(AppKitty))

		_, _, err := l.Launch(context.Background(), types.SessionConfig{})
		require.Error(t, err)
		assert.Empty(t, reg.List())
	})
}

func TestLaunchWithTemplate(t *testing.T) {
	strat := &fakeStrategy{name: AppKitty}
	reg := registry.New(registry.Config{SweepInterval: time.Hour}, registry.WithLogger(logging.NewNop()))
	t.Cleanup(reg.Close)

	tplPath := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(tplPath, []byte(`
templates:
  ci:
    purpose: continuous integration
    env:
      CI: "1"
`), 0o644))
	tpl, err := templates.Load(tplPath)
	require.NoError(t, err)

	cfg := config.Default().Launcher
	l := New(reg, cfg, tpl, logging.NewNop(),
		WithDetector(fakeDetector(AppKitty)), WithStrategy(strat))

	sid, _, err := l.Launch(context.Background(), types.SessionConfig{Name: "T", Template: "ci"})
	require.NoError(t, err)

	rec, ok := reg.Get(sid)
	require.True(t, ok)
	assert.Equal(t, "continuous integration", rec.Config.Purpose)
	assert.Equal(t, "1", strat.lastSpec(t).Env["CI"])

	t.Run("Unknown template errors", func(t *testing.T) {
		_, _, err := l.Launch(context.Background(), types.SessionConfig{Template: "nope"})
		assert.Error(t, err)
	})
}

func TestWindowOperations(t *testing.T) {
	strat := &fakeStrategy{name: AppKitty}
	l, _ := newTestLauncher(t, strat, fakeDetector(AppKitty))

	sid, _, err := l.Launch(context.Background(), types.SessionConfig{})
	require.NoError(t, err)

	require.NoError(t, l.FocusWindow(context.Background(), sid))
	require.NoError(t, l.CloseWindow(context.Background(), sid))
	assert.Contains(t, strat.focused, sid)
	assert.Contains(t, strat.closed, sid)
}

func TestForget(t *testing.T) {
	strat := &fakeStrategy{name: AppGnome, synthetic: true}
	l, _ := newTestLauncher(t, strat, fakeDetector(AppGnome))

	sid, pid, err := l.Launch(context.Background(), types.SessionConfig{})
	require.NoError(t, err)

	l.Forget(sid)
	_, ok := l.ResolveSynthetic(pid)
	assert.False(t, ok)
}

func TestDetector(t *testing.T) {
	t.Run("Preference order on linux", func(t *testing.T) {
		det := fakeDetector(AppAlacritty, AppXterm)
		assert.Equal(t, AppAlacritty, det.Default())
	})

	t.Run("Nothing detected", func(t *testing.T) {
		det := fakeDetector()
		assert.Equal(t, "", det.Default())
	})

	t.Run("Headless always detected", func(t *testing.T) {
		assert.True(t, fakeDetector().Detect(AppHeadless))
	})
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x"), ExpandPath("~/x"))
	assert.Equal(t, home, ExpandPath("~"))
	t.Setenv("EXP_TEST", "/opt")
	assert.Equal(t, "/opt/y", ExpandPath("$EXP_TEST/y"))
}
