package events

import (
	"sync"
)

// Topic names a broadcast signal.
type Topic string

// Signals emitted by the cache layer.
const (
	DashboardRefreshed Topic = "dashboard:refreshed"
	AnalyticsRefreshed Topic = "analytics:refreshed"
	NetworkError       Topic = "network:error"
	NetworkRecovered   Topic = "network:recovered"
)

// RefreshedDetail is the payload of AnalyticsRefreshed (and, for symmetry,
// DashboardRefreshed). LastUpdate is in Unix milliseconds.
type RefreshedDetail struct {
	LastUpdate int64 `json:"lastUpdate"`
}

// Handler receives a published payload.
type Handler func(topic Topic, payload any)

// Bus is a typed publish/subscribe interface.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Delivery: fire-and-forget; Publish does not report handler failures.
//   - Subscribe returns a function that removes the subscription; calling it
//     more than once is a no-op.
type Bus interface {
	Publish(topic Topic, payload any)
	Subscribe(topic Topic, h Handler) (unsubscribe func())
}

type subscription struct {
	id uint64
	h  Handler
}

// MemoryBus delivers synchronously, in subscription order, to the handlers
// registered when Publish is called.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[Topic][]subscription
}

// NewMemoryBus creates an empty bus.
func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[Topic][]subscription)}
}

// Publish delivers payload to every current subscriber of topic. A handler
// that panics is skipped; the rest still receive the payload.
func (b *MemoryBus) Publish(topic Topic, payload any) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[topic]))
	copy(subs, b.subs[topic])
	b.mu.RUnlock()

	for _, s := range subs {
		deliver(s.h, topic, payload)
	}
}

func deliver(h Handler, topic Topic, payload any) {
	defer func() { _ = recover() }()
	h(topic, payload)
}

// Subscribe registers h for topic.
func (b *MemoryBus) Subscribe(topic Topic, h Handler) func() {
	if h == nil {
		return func() {}
	}

	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[topic] = append(b.subs[topic], subscription{id: id, h: h})
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			subs := b.subs[topic]
			for i, s := range subs {
				if s.id == id {
					b.subs[topic] = append(subs[:i:i], subs[i+1:]...)
					break
				}
			}
			if len(b.subs[topic]) == 0 {
				delete(b.subs, topic)
			}
		})
	}
}

// Subscribers returns the number of handlers registered for topic.
func (b *MemoryBus) Subscribers(topic Topic) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs[topic])
}

// Discard is a Bus that drops everything.
var Discard Bus = discardBus{}

type discardBus struct{}

func (discardBus) Publish(Topic, any)              {}
func (discardBus) Subscribe(Topic, Handler) func() { return func() {} }

var _ Bus = (*MemoryBus)(nil)
