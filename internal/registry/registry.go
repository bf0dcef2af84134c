package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/termhive/termhive/internal/logging"
	"github.com/termhive/termhive/internal/shared/id"
	"github.com/termhive/termhive/internal/types"
)

// Cleaner performs best-effort cleanup side effects when a session is
// removed (explicit termination, voluntary shutdown, or eviction).
// Failures are logged, never propagated.
type Cleaner interface {
	CleanupSession(sessionID string) error
}

// Config holds liveness policy for the registry.
type Config struct {
	SweepInterval     time.Duration
	DegradedThreshold time.Duration
	EvictionThreshold time.Duration
}

// DefaultConfig matches a 30s heartbeat cadence: degraded after 3
// missed beats, evicted after 6.
func DefaultConfig() Config {
	return Config{
		SweepInterval:     10 * time.Second,
		DegradedThreshold: 90 * time.Second,
		EvictionThreshold: 180 * time.Second,
	}
}

// Registry is the single source of truth for session liveness. All map
// access happens under one exclusive lock, held only for the duration
// of the mutation; cleanup side effects run outside it.
type Registry struct {
	mu      sync.Mutex
	records map[string]*types.SessionRecord
	// retired holds identifiers removed by explicit or voluntary
	// termination in this process lifetime. Heartbeats for them are
	// ignored rather than re-creating a ghost record; identifiers are
	// never reused, so only a fresh PreRegister clears the mark.
	retired map[string]struct{}

	cfg     Config
	cleaner Cleaner
	log     *logging.Logger
	now     func() time.Time

	subMu sync.Mutex
	subs  map[chan Event]struct{}

	done    chan struct{}
	stopped sync.Once
	wg      sync.WaitGroup
}

// Option configures a Registry.
type Option func(*Registry)

// WithCleaner installs the removal cleanup hook.
func WithCleaner(c Cleaner) Option {
	return func(r *Registry) { r.cleaner = c }
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithLogger overrides the default logger.
func WithLogger(log *logging.Logger) Option {
	return func(r *Registry) { r.log = log.Named("registry") }
}

// New creates a registry and starts its background health sweep.
func New(cfg Config, opts ...Option) *Registry {
	if cfg.SweepInterval <= 0 {
		cfg = DefaultConfig()
	}
	r := &Registry{
		records: make(map[string]*types.SessionRecord),
		retired: make(map[string]struct{}),
		cfg:     cfg,
		log:     logging.NewDefault().Named("registry"),
		now:     time.Now,
		subs:    make(map[chan Event]struct{}),
		done:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.wg.Add(1)
	go r.sweepLoop()
	return r
}

// Close stops the health sweep. The session map is left intact;
// callers shutting down do not need its contents reclaimed.
func (r *Registry) Close() {
	r.stopped.Do(func() {
		close(r.done)
	})
	r.wg.Wait()

	r.subMu.Lock()
	for ch := range r.subs {
		delete(r.subs, ch)
		close(ch)
	}
	r.subMu.Unlock()
}

// PreRegister inserts a new record in state LAUNCHING. An existing
// record under the same identifier is overwritten silently: identifiers
// are freshly generated, so a collision here means a stale leftover.
func (r *Registry) PreRegister(sessionID string, pid int, config types.SessionConfig) {
	now := r.now()
	rec := &types.SessionRecord{
		SessionID:     sessionID,
		PID:           pid,
		LaunchedAt:    now,
		LastHeartbeat: now,
		State:         types.StateLaunching,
		Config:        config,
		Meta:          map[string]interface{}{},
	}

	r.mu.Lock()
	r.records[sessionID] = rec
	delete(r.retired, sessionID)
	snapshot := rec.Clone()
	r.mu.Unlock()

	r.log.Info("session pre-registered",
		zap.String("session_id", sessionID),
		zap.Int("pid", pid),
		zap.String("name", config.Name))
	r.publish(Event{Type: EventRegistered, Record: snapshot})
}

// UpdateHeartbeat records a liveness report. A heartbeat for an unknown
// session creates its record implicitly (state ACTIVE): a heartbeat is
// authoritative proof of liveness even after a registry restart. The
// reserved status "terminated" removes the session instead.
func (r *Registry) UpdateHeartbeat(sessionID string, payload types.HeartbeatPayload) {
	if payload.Terminated() {
		r.log.Info("session reported voluntary termination",
			zap.String("session_id", sessionID))
		r.remove(sessionID, EventRemoved, "terminated")
		return
	}

	now := r.now()

	r.mu.Lock()
	rec, ok := r.records[sessionID]
	if !ok {
		if _, wasRetired := r.retired[sessionID]; wasRetired {
			r.mu.Unlock()
			r.log.Debug("ignoring heartbeat for retired session",
				zap.String("session_id", sessionID))
			return
		}
		rec = &types.SessionRecord{
			SessionID:  sessionID,
			PID:        id.NewSyntheticPID(),
			LaunchedAt: now,
			Meta:       map[string]interface{}{},
		}
		r.records[sessionID] = rec
	}

	if now.After(rec.LastHeartbeat) {
		rec.LastHeartbeat = now
	}
	if pid, reported := payload.PID(); reported && pid > 0 && id.IsSynthetic(rec.PID) {
		rec.PID = pid
	}
	rec.State = types.StateActive

	for k, v := range payload {
		if k == types.KeySessionID || k == types.KeyPID || k == types.KeyStatus {
			continue
		}
		rec.Meta[k] = v
	}
	snapshot := rec.Clone()
	created := !ok
	r.mu.Unlock()

	if created {
		r.log.Info("heartbeat created session implicitly",
			zap.String("session_id", sessionID))
	}
	r.publish(Event{Type: EventHeartbeat, Record: snapshot})
}

// Get returns a snapshot of one record. Absence is a normal result.
func (r *Registry) Get(sessionID string) (types.SessionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[sessionID]
	if !ok {
		return types.SessionRecord{}, false
	}
	return rec.Clone(), true
}

// FindByPID returns the record whose stored PID matches, real or
// synthetic. Used by the termination controller to resolve identities.
func (r *Registry) FindByPID(pid int) (types.SessionRecord, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rec := range r.records {
		if rec.PID == pid {
			return rec.Clone(), true
		}
	}
	return types.SessionRecord{}, false
}

// List returns a snapshot of all records, not a live view.
func (r *Registry) List() []types.SessionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.SessionRecord, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec.Clone())
	}
	return out
}

// Remove deletes a record if present. Idempotent; triggers the same
// cleanup side effects as voluntary termination.
func (r *Registry) Remove(sessionID string) {
	r.remove(sessionID, EventRemoved, "removed")
}

// Stats returns registry statistics.
func (r *Registry) Stats() types.Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	var s types.Stats
	for _, rec := range r.records {
		s.TotalSessions++
		switch rec.State {
		case types.StateActive:
			s.ActiveSessions++
		case types.StateDegraded:
			s.DegradedSessions++
		case types.StateLaunching:
			s.Launching++
		}
	}
	return s
}

// remove deletes the record under the lock, then runs cleanup and
// publishes outside it.
func (r *Registry) remove(sessionID string, event EventType, reason string) {
	r.mu.Lock()
	rec, existed := r.records[sessionID]
	var snapshot types.SessionRecord
	if existed {
		snapshot = rec.Clone()
		delete(r.records, sessionID)
	}
	// Evicted sessions may come back via heartbeat (restart
	// resilience); terminated ones may not.
	if event != EventEvicted {
		r.retired[sessionID] = struct{}{}
	}
	r.mu.Unlock()

	r.cleanup(sessionID)

	if existed {
		r.log.Info("session removed",
			zap.String("session_id", sessionID),
			zap.String("reason", reason))
		r.publish(Event{Type: event, Record: snapshot, Reason: reason})
	}
}

// cleanup runs the best-effort removal side effects off the lock.
func (r *Registry) cleanup(sessionID string) {
	if r.cleaner == nil {
		return
	}
	if err := r.cleaner.CleanupSession(sessionID); err != nil {
		r.log.Warn("session cleanup failed",
			zap.String("session_id", sessionID),
			zap.Error(err))
	}
}

func (r *Registry) sweepLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			r.sweep()
		case <-r.done:
			return
		}
	}
}

// sweep demotes and evicts records purely from heartbeat age. Demotions
// happen in one locked pass; eviction candidates are snapshotted under
// the lock and removed as individual locked operations so cleanup I/O
// never blocks heartbeat ingestion.
func (r *Registry) sweep() {
	now := r.now()

	r.mu.Lock()
	var evict []string
	var degraded []types.SessionRecord
	for sid, rec := range r.records {
		age := now.Sub(rec.LastHeartbeat)
		if age > r.cfg.EvictionThreshold {
			evict = append(evict, sid)
			continue
		}
		if age > r.cfg.DegradedThreshold && rec.State == types.StateActive {
			rec.State = types.StateDegraded
			degraded = append(degraded, rec.Clone())
		}
	}
	r.mu.Unlock()

	for _, snapshot := range degraded {
		r.log.Warn("session degraded",
			zap.String("session_id", snapshot.SessionID),
			zap.Time("last_heartbeat", snapshot.LastHeartbeat))
		r.publish(Event{Type: EventDegraded, Record: snapshot})
	}
	for _, sid := range evict {
		r.log.Warn("session evicted after prolonged silence",
			zap.String("session_id", sid))
		r.remove(sid, EventEvicted, "evicted")
	}
}
