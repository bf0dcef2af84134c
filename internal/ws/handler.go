package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/registry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Management UIs connect from arbitrary local origins.
		return true
	},
}

// Handler streams registry events to management clients.
type Handler struct {
	registry *registry.Registry
	log      *logging.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(reg *registry.Registry, log *logging.Logger) *Handler {
	return &Handler{
		registry: reg,
		log:      log.Named("ws"),
	}
}

// HandleConnection upgrades the request and forwards registry events
// until the client disconnects. The current session list is sent first
// so clients start from a consistent snapshot.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if err := conn.WriteJSON(gin.H{
		"type":     "snapshot",
		"sessions": h.registry.List(),
	}); err != nil {
		return
	}

	events := h.registry.Subscribe()
	defer h.registry.Unsubscribe(events)

	// Drain client reads so close frames are processed.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.log.Debug("websocket write failed", zap.Error(err))
				return
			}
		case <-done:
			return
		}
	}
}
