package events

import "sync"

// Event is one recorded publication.
type Event struct {
	Topic   Topic
	Payload any
}

// Recorder is a Bus that keeps every publication, for tests and debugging.
// It also forwards to an optional inner bus.
type Recorder struct {
	inner Bus

	mu     sync.Mutex
	events []Event
}

// NewRecorder records publications and forwards them to inner (may be nil).
func NewRecorder(inner Bus) *Recorder {
	if inner == nil {
		inner = NewMemoryBus()
	}
	return &Recorder{inner: inner}
}

// Publish records and forwards.
func (r *Recorder) Publish(topic Topic, payload any) {
	r.mu.Lock()
	r.events = append(r.events, Event{Topic: topic, Payload: payload})
	r.mu.Unlock()
	r.inner.Publish(topic, payload)
}

// Subscribe forwards to the inner bus.
func (r *Recorder) Subscribe(topic Topic, h Handler) func() {
	return r.inner.Subscribe(topic, h)
}

// Events returns a copy of what has been published so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many times topic was published.
func (r *Recorder) Count(topic Topic) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Topic == topic {
			n++
		}
	}
	return n
}

var _ Bus = (*Recorder)(nil)
