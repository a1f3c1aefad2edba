package event

import (
	"context"
	"sync"
)

// Recorder keeps the most recent domain events in memory for the audit
// endpoint. It implements the event bus Handler interface. When the buffer
// is full the oldest events are dropped.
type Recorder struct {
	mu     sync.RWMutex
	events []DomainEvent
	limit  int
}

// NewRecorder creates a recorder keeping at most limit events.
func NewRecorder(limit int) *Recorder {
	if limit < 1 {
		limit = 256
	}
	return &Recorder{limit: limit}
}

// HandleEvent appends the event, evicting the oldest past the limit.
func (r *Recorder) HandleEvent(_ context.Context, evt DomainEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
	if len(r.events) > r.limit {
		r.events = r.events[len(r.events)-r.limit:]
	}
	return nil
}

// Recent returns the recorded events, newest last.
func (r *Recorder) Recent() []DomainEvent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]DomainEvent, len(r.events))
	copy(out, r.events)
	return out
}
