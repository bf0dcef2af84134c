package registry

import "github.com/termhive/termhive/internal/types"

// EventType classifies registry state transitions.
type EventType string

const (
	EventRegistered EventType = "registered"
	EventHeartbeat  EventType = "heartbeat"
	EventDegraded   EventType = "degraded"
	EventRemoved    EventType = "removed"
	EventEvicted    EventType = "evicted"
)

// Event is a registry state transition, broadcast to subscribers.
type Event struct {
	Type   EventType           `json:"type"`
	Record types.SessionRecord `json:"record"`
	Reason string              `json:"reason,omitempty"`
}

// Subscribe creates a buffered subscription channel for registry events.
func (r *Registry) Subscribe() chan Event {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	ch := make(chan Event, 64)
	r.subs[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a subscription and closes its channel.
func (r *Registry) Unsubscribe(ch chan Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	if _, ok := r.subs[ch]; ok {
		delete(r.subs, ch)
		close(ch)
	}
}

// publish broadcasts an event. Sends are non-blocking: a slow consumer
// drops events rather than stalling heartbeat ingestion.
func (r *Registry) publish(ev Event) {
	r.subMu.Lock()
	defer r.subMu.Unlock()
	for ch := range r.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
