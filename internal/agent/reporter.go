package agent

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/types"
)

const version = "0.3.0"

// Config identifies the session this process reports for and where to
// deliver its heartbeats.
type Config struct {
	SessionID   string
	CallbackURL string
	Token       string
	Interval    time.Duration
}

// ConfigFromEnv reads the environment contract injected at launch.
func ConfigFromEnv() (Config, error) {
	cfg := Config{
		SessionID:   os.Getenv(types.EnvSessionID),
		CallbackURL: os.Getenv(types.EnvCallbackURL),
		Token:       os.Getenv(types.EnvToken),
		Interval:    30 * time.Second,
	}
	if cfg.SessionID == "" {
		return Config{}, fmt.Errorf("%s not set", types.EnvSessionID)
	}
	if cfg.CallbackURL == "" {
		return Config{}, fmt.Errorf("%s not set", types.EnvCallbackURL)
	}
	return cfg, nil
}

// Reporter is the client half of the heartbeat contract. It runs
// inside the launched shell proxy and keeps the session's registry
// record alive until Stop.
type Reporter struct {
	cfg    Config
	client *resty.Client
	log    *logging.Logger

	mu   sync.Mutex
	meta map[string]interface{}

	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// New creates a reporter. Interval defaults to the 30s cadence when
// unset.
func New(cfg Config, log *logging.Logger) *Reporter {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(5*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetHeader("User-Agent", "termhive-agent/"+version)
	if cfg.Token != "" {
		client.SetAuthToken(cfg.Token)
	}

	return &Reporter{
		cfg:    cfg,
		client: client,
		log:    log.Named("agent"),
		meta:   make(map[string]interface{}),
		done:   make(chan struct{}),
	}
}

// SetMeta attaches a key to every subsequent heartbeat payload.
// Reserved keys are silently ignored.
func (r *Reporter) SetMeta(key string, value interface{}) {
	switch key {
	case types.KeySessionID, types.KeyPID, types.KeyStatus:
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.meta[key] = value
}

// Start begins the heartbeat loop. The first beat is sent immediately
// so the registry promotes the session without waiting a full interval.
func (r *Reporter) Start() {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.beat(context.Background(), "")
		ticker := time.NewTicker(r.cfg.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.beat(context.Background(), "")
			case <-r.done:
				return
			}
		}
	}()
}

// Stop halts the loop and sends the terminated status so the registry
// removes the record instead of letting it age out.
func (r *Reporter) Stop(ctx context.Context) {
	r.stopped.Do(func() {
		close(r.done)
		r.wg.Wait()
		r.beat(ctx, types.StatusTerminated)
	})
}

func (r *Reporter) beat(ctx context.Context, status string) {
	payload := map[string]interface{}{
		types.KeySessionID: r.cfg.SessionID,
		types.KeyPID:       os.Getpid(),
	}
	if status != "" {
		payload[types.KeyStatus] = status
	}
	r.mu.Lock()
	for k, v := range r.meta {
		payload[k] = v
	}
	r.mu.Unlock()

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(r.cfg.CallbackURL)
	if err != nil {
		r.log.Warn("heartbeat delivery failed", zap.Error(err))
		return
	}
	if resp.IsError() {
		r.log.Warn("heartbeat rejected",
			zap.Int("status", resp.StatusCode()),
			zap.String("session_id", r.cfg.SessionID))
	}
}
