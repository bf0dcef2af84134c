package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/termhive/termhive/internal/config"
	"github.com/termhive/termhive/internal/launcher"
	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/mailbox"
	"github.com/termhive/termhive/internal/registry"
	"github.com/termhive/termhive/internal/templates"
	"github.com/termhive/termhive/internal/terminator"
	"github.com/termhive/termhive/internal/types"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubSpawner hands out scripted PIDs without touching the host.
type stubSpawner struct {
	mu      sync.Mutex
	pids    []int
	next    int
	closed  []string
	focused []string
}

func (s *stubSpawner) Name() string { return launcher.AppHeadless }

func (s *stubSpawner) Spawn(ctx context.Context, spec launcher.Spec) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid := s.pids[s.next]
	s.next++
	return pid, nil
}

func (s *stubSpawner) CloseWindow(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = append(s.closed, sessionID)
	return nil
}

func (s *stubSpawner) FocusWindow(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focused = append(s.focused, sessionID)
	return nil
}

// deadProcs treats every PID as already gone, so termination never
// signals or waits.
type deadProcs struct{}

func (deadProcs) Alive(pid int) bool      { return false }
func (deadProcs) Terminate(pid int) error { return nil }
func (deadProcs) Kill(pid int) error      { return nil }

type fixture struct {
	reg    *registry.Registry
	spawn  *stubSpawner
	router *gin.Engine
}

func newFixture(t *testing.T, pids ...int) *fixture {
	t.Helper()
	reg := registry.New(registry.Config{
		SweepInterval:     time.Hour,
		DegradedThreshold: 90 * time.Second,
		EvictionThreshold: 180 * time.Second,
	}, registry.WithLogger(logging.NewNop()))
	t.Cleanup(reg.Close)

	tpl, err := templates.Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)

	spawn := &stubSpawner{pids: pids}
	l := launcher.New(reg, config.Default().Launcher, tpl, logging.NewNop(),
		launcher.WithStrategy(spawn))
	term := terminator.New(reg, l, config.Default().Terminate, logging.NewNop(),
		terminator.WithProcessController(deadProcs{}))
	mail := mailbox.NewStore(t.TempDir(), logging.NewNop())

	h := NewHandlers(reg, l, term, mail, logging.NewNop())
	router := gin.New()
	router.GET("/", h.Root)
	router.GET("/health", h.Health)
	router.POST("/heartbeat", h.Heartbeat)
	router.GET("/sessions", h.ListSessions)
	router.POST("/sessions", h.LaunchSession)
	router.DELETE("/sessions/:identity", h.TerminateSession)
	router.POST("/sessions/:identity/focus", h.FocusSession)
	router.POST("/sessions/:identity/mailbox", h.DepositMessage)
	router.GET("/sessions/:identity/mailbox", h.ListMessages)

	return &fixture{reg: reg, spawn: spawn, router: router}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)

	out := make(map[string]interface{})
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	}
	return w, out
}

func (f *fixture) launch(t *testing.T, name string) string {
	t.Helper()
	w, resp := f.do(t, http.MethodPost, "/sessions", gin.H{
		"name": name,
		"app":  launcher.AppHeadless,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	return resp["session_id"].(string)
}

func TestRootAndHealth(t *testing.T) {
	f := newFixture(t)

	w, resp := f.do(t, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "termhive", resp["service"])

	w, resp = f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", resp["status"])
	assert.Contains(t, resp, "registry")
}

func TestLaunchSession(t *testing.T) {
	t.Run("Creates a session", func(t *testing.T) {
		f := newFixture(t, 4001)
		w, resp := f.do(t, http.MethodPost, "/sessions", gin.H{
			"name": "build-agent",
			"app":  launcher.AppHeadless,
		})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.Equal(t, true, resp["success"])
		assert.Equal(t, float64(4001), resp["pid"])

		rec, ok := f.reg.Get(resp["session_id"].(string))
		require.True(t, ok)
		assert.Equal(t, types.StateLaunching, rec.State)
	})

	t.Run("Rejects missing name", func(t *testing.T) {
		f := newFixture(t, 4002)
		w, _ := f.do(t, http.MethodPost, "/sessions", gin.H{"app": launcher.AppHeadless})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown app fails", func(t *testing.T) {
		f := newFixture(t, 4003)
		w, _ := f.do(t, http.MethodPost, "/sessions", gin.H{
			"name": "x",
			"app":  "holo-deck",
		})
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestHeartbeat(t *testing.T) {
	t.Run("Promotes a launching session", func(t *testing.T) {
		f := newFixture(t, 4010)
		sid := f.launch(t, "hb")

		w, resp := f.do(t, http.MethodPost, "/heartbeat", gin.H{
			"session_id": sid,
			"pid":        4010,
			"cwd":        "/tmp",
		})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, resp["success"])

		rec, ok := f.reg.Get(sid)
		require.True(t, ok)
		assert.Equal(t, types.StateActive, rec.State)
		assert.Equal(t, "/tmp", rec.Meta["cwd"])
	})

	t.Run("Rejects payload without session_id", func(t *testing.T) {
		f := newFixture(t)
		w, _ := f.do(t, http.MethodPost, "/heartbeat", gin.H{"pid": 99})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Terminated status removes the record", func(t *testing.T) {
		f := newFixture(t, 4011)
		sid := f.launch(t, "dying")

		w, _ := f.do(t, http.MethodPost, "/heartbeat", gin.H{
			"session_id": sid,
			"status":     types.StatusTerminated,
		})
		assert.Equal(t, http.StatusOK, w.Code)
		_, ok := f.reg.Get(sid)
		assert.False(t, ok)
	})
}

func TestListSessions(t *testing.T) {
	f := newFixture(t, 4020, 4021)
	f.launch(t, "one")
	f.launch(t, "two")

	w, resp := f.do(t, http.MethodGet, "/sessions", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	sessions := resp["sessions"].([]interface{})
	assert.Len(t, sessions, 2)
	stats := resp["stats"].(map[string]interface{})
	assert.Equal(t, float64(2), stats["total_sessions"])
}

func TestTerminateSession(t *testing.T) {
	t.Run("Removes by session ID", func(t *testing.T) {
		f := newFixture(t, 4030)
		sid := f.launch(t, "doomed")

		w, resp := f.do(t, http.MethodDelete, "/sessions/"+sid, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, true, resp["success"])
		_, ok := f.reg.Get(sid)
		assert.False(t, ok)
		assert.Contains(t, f.spawn.closed, sid)
	})

	t.Run("Unknown identity reports failure", func(t *testing.T) {
		f := newFixture(t)
		w, resp := f.do(t, http.MethodDelete, "/sessions/nope", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, false, resp["success"])
	})
}

func TestFocusSession(t *testing.T) {
	f := newFixture(t, 4040)
	sid := f.launch(t, "front")

	w, resp := f.do(t, http.MethodPost, "/sessions/"+sid+"/focus", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, resp["success"])
	assert.Contains(t, f.spawn.focused, sid)
}

func TestMailbox(t *testing.T) {
	t.Run("Deposit then list", func(t *testing.T) {
		f := newFixture(t, 4050)
		sid := f.launch(t, "inbox")

		w, resp := f.do(t, http.MethodPost, "/sessions/"+sid+"/mailbox", gin.H{
			"from":    "operator",
			"subject": "status",
			"body":    gin.H{"text": "report in"},
		})
		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotEmpty(t, resp["message_id"])

		w, resp = f.do(t, http.MethodGet, "/sessions/"+sid+"/mailbox", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		messages := resp["messages"].([]interface{})
		require.Len(t, messages, 1)
		msg := messages[0].(map[string]interface{})
		assert.Equal(t, "operator", msg["from"])
		body := msg["body"].(map[string]interface{})
		assert.Equal(t, "report in", body["text"])
	})

	t.Run("Unknown session is a 404", func(t *testing.T) {
		f := newFixture(t)
		w, _ := f.do(t, http.MethodGet, "/sessions/ghost/mailbox", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
