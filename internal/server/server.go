package server

import (
	"net"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/config"
	"github.com/termhive/termhive/internal/http"
	"github.com/termhive/termhive/internal/launcher"
	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/mailbox"
	"github.com/termhive/termhive/internal/middleware"
	"github.com/termhive/termhive/internal/monitoring"
	"github.com/termhive/termhive/internal/registry"
	"github.com/termhive/termhive/internal/templates"
	"github.com/termhive/termhive/internal/terminator"
	"github.com/termhive/termhive/internal/ws"
)

// Server wraps the HTTP server and dependencies
type Server struct {
	router   *gin.Engine
	cfg      *config.Config
	log      *logging.Logger
	registry *registry.Registry
	events   chan registry.Event
}

// New creates a new server instance
func New(cfg *config.Config, log *logging.Logger) (*Server, error) {
	root := launcher.ExpandPath(cfg.Launcher.Root)

	mail := mailbox.NewStore(root, log)

	reg := registry.New(registry.Config{
		SweepInterval:     cfg.Registry.SweepInterval,
		DegradedThreshold: cfg.Registry.DegradedThreshold,
		EvictionThreshold: cfg.Registry.EvictionThreshold,
	}, registry.WithCleaner(mail), registry.WithLogger(log))

	tplPath := cfg.Launcher.TemplateFile
	if !filepath.IsAbs(tplPath) {
		tplPath = filepath.Join(root, tplPath)
	}
	tpl, err := templates.Load(tplPath)
	if err != nil {
		reg.Close()
		return nil, err
	}

	l := launcher.New(reg, cfg.Launcher, tpl, log)
	term := terminator.New(reg, l, cfg.Terminate, log)

	metrics, promReg := monitoring.NewMetrics()
	events := reg.Subscribe()
	go monitoring.NewObserver(metrics, reg).Run(events)

	handlers := http.NewHandlers(reg, l, term, mail, log)
	wsHandler := ws.NewHandler(reg, log)

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.CORS())
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(cfg.RateLimit))
	}

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(promReg, promhttp.HandlerOpts{})))

	// Heartbeat ingestion
	router.POST("/heartbeat", handlers.Heartbeat)

	// Session lifecycle
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions", handlers.LaunchSession)
	router.DELETE("/sessions/:identity", handlers.TerminateSession)
	router.POST("/sessions/:identity/focus", handlers.FocusSession)

	// Mailbox
	router.POST("/sessions/:identity/mailbox", handlers.DepositMessage)
	router.GET("/sessions/:identity/mailbox", handlers.ListMessages)

	// WebSocket event stream
	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		router:   router,
		cfg:      cfg,
		log:      log.Named("server"),
		registry: reg,
		events:   events,
	}, nil
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() *gin.Engine {
	return s.router
}

// Run starts the server and blocks until it exits.
func (s *Server) Run() error {
	addr := net.JoinHostPort(s.cfg.Server.Host, s.cfg.Server.Port)
	s.log.Info("listening", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close stops the background sweep and the metrics observer.
func (s *Server) Close() error {
	s.registry.Unsubscribe(s.events)
	s.registry.Close()
	return nil
}
