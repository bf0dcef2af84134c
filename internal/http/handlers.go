package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/launcher"
	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/mailbox"
	"github.com/termhive/termhive/internal/registry"
	"github.com/termhive/termhive/internal/terminator"
	"github.com/termhive/termhive/internal/types"
)

// Version is reported by the root endpoint.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	registry   *registry.Registry
	launcher   *launcher.Launcher
	terminator *terminator.Controller
	mailbox    *mailbox.Store
	log        *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	reg *registry.Registry,
	l *launcher.Launcher,
	term *terminator.Controller,
	mail *mailbox.Store,
	log *logging.Logger,
) *Handlers {
	return &Handlers{
		registry:   reg,
		launcher:   l,
		terminator: term,
		mailbox:    mail,
		log:        log.Named("http"),
	}
}

// Root handles health check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "termhive",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"registry": h.registry.Stats(),
	})
}

// Heartbeat ingests one liveness report from a session's shell proxy.
// Unknown session IDs create a record on the fly; the registry owns
// that policy, the handler only validates shape.
func (h *Handlers) Heartbeat(c *gin.Context) {
	var payload types.HeartbeatPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, _ := payload[types.KeySessionID].(string)
	if err := validateID(sessionID, types.KeySessionID); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.registry.UpdateHeartbeat(sessionID, payload)

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"session_id": sessionID,
	})
}

// ListSessions lists all registered sessions
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.registry.List()
	stats := h.registry.Stats()

	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    stats,
	})
}

// LaunchSession spawns a new terminal session
func (h *Handlers) LaunchSession(c *gin.Context) {
	var cfg types.SessionConfig
	if err := c.ShouldBindJSON(&cfg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := validateID(cfg.Name, "name"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sessionID, pid, err := h.launcher.Launch(c.Request.Context(), cfg)
	if err != nil {
		h.log.Error("launch failed", zap.Error(err), zap.String("name", cfg.Name))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": sessionID,
		"pid":        pid,
	})
}

// TerminateSession kills a session by session ID or PID string
func (h *Handlers) TerminateSession(c *gin.Context) {
	identity := c.Param("identity")
	if err := validateID(identity, "identity"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.terminator.Terminate(c.Request.Context(), identity)

	c.JSON(http.StatusOK, gin.H{
		"success":  success,
		"identity": identity,
	})
}

// FocusSession brings a session's window to the foreground
func (h *Handlers) FocusSession(c *gin.Context) {
	identity := c.Param("identity")
	if err := validateID(identity, "identity"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	success := h.terminator.Show(c.Request.Context(), identity)

	c.JSON(http.StatusOK, gin.H{
		"success":  success,
		"identity": identity,
	})
}

// DepositMessage drops a message into a session's inbox
func (h *Handlers) DepositMessage(c *gin.Context) {
	sessionID := c.Param("identity")
	if _, ok := h.registry.Get(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	var msg mailbox.Message
	if err := c.ShouldBindJSON(&msg); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msgID, err := h.mailbox.Deposit(sessionID, msg)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":    true,
		"session_id": sessionID,
		"message_id": msgID,
	})
}

// ListMessages returns the pending inbox for a session
func (h *Handlers) ListMessages(c *gin.Context) {
	sessionID := c.Param("identity")
	if _, ok := h.registry.Get(sessionID); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}

	messages, err := h.mailbox.Messages(sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"messages":   messages,
	})
}
