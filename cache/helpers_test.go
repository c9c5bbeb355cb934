package cache

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jonwraymond/dashcache/activity"
	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/secret"
	"github.com/jonwraymond/dashcache/store"
)

const testToken = "abcdef0123456789abcdef0123456789"

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type fixture struct {
	ctx         context.Context
	store       *store.MemoryStore
	clock       *fakeClock
	tracker     *activity.Tracker
	coordinator *resilience.Coordinator
	metrics     *countingMetrics
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := newFakeClock()
	f := &fixture{
		ctx:         context.Background(),
		store:       store.NewMemoryStore(0),
		clock:       clock,
		tracker:     activity.NewTracker(activity.WithClock(clock.Now)),
		coordinator: resilience.NewCoordinator(clock.Now),
		metrics:     &countingMetrics{},
	}
	f.setToken(t, testToken)
	return f
}

func (f *fixture) setToken(t *testing.T, token string) {
	t.Helper()
	if err := f.store.SetItem(f.ctx, store.SessionTokenKey, token); err != nil {
		t.Fatalf("set token: %v", err)
	}
}

func (f *fixture) opts(extra ...Option) []Option {
	return append([]Option{
		WithClock(f.clock.Now),
		WithCipher(secret.NewPassphraseCipherWithCost(1 << 4)),
		WithTracker(f.tracker),
		WithCoordinator(f.coordinator),
		WithMetrics(f.metrics),
	}, extra...)
}

func (f *fixture) dashboard(extra ...Option) *Dashboard {
	return NewDashboard(f.store, f.opts(extra...)...)
}

// cacheKeys returns the stored keys other than the session token.
func (f *fixture) cacheKeys(t *testing.T) []string {
	t.Helper()
	keys, err := f.store.Keys(f.ctx)
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	var out []string
	for _, k := range keys {
		if k != store.SessionTokenKey {
			out = append(out, k)
		}
	}
	return out
}

func (f *fixture) mustGet(t *testing.T, key string) string {
	t.Helper()
	v, ok := f.store.GetItem(f.ctx, key)
	if !ok {
		t.Fatalf("key %q not stored", key)
	}
	return v
}

type countingMetrics struct {
	mu     sync.Mutex
	hits   map[string]int
	misses map[string]int
}

func (m *countingMetrics) RecordLookup(_ context.Context, meta observe.ScopeMeta, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.hits == nil {
		m.hits, m.misses = map[string]int{}, map[string]int{}
	}
	if hit {
		m.hits[meta.Scope]++
	} else {
		m.misses[meta.Scope]++
	}
}

func (m *countingMetrics) RecordFetch(context.Context, observe.ScopeMeta, time.Duration, error) {}

func (m *countingMetrics) counts(scope string) (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits[scope], m.misses[scope]
}

func hasPrefix(keys []string, prefix string) bool {
	for _, k := range keys {
		if strings.HasPrefix(k, prefix) {
			return true
		}
	}
	return false
}
