package refresh

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/jonwraymond/dashcache/activity"
	"github.com/jonwraymond/dashcache/cache"
	"github.com/jonwraymond/dashcache/events"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/secret"
	"github.com/jonwraymond/dashcache/store"
)

const (
	testToken  = "abcdef0123456789abcdef0123456789"
	otherToken = "9876543210fedcba9876543210fedcba"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
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

// fakeBackend serves a balance that tests can change, and fails with err
// while it is set.
type fakeBackend struct {
	mu        sync.Mutex
	balance   float64
	analytics string
	err       error

	dashboardCalls atomic.Int32
	analyticsCalls atomic.Int32
	dueDatesCalls  atomic.Int32
	affiliateCalls atomic.Int32
}

func (b *fakeBackend) set(balance float64, err error) {
	b.mu.Lock()
	b.balance, b.err = balance, err
	b.mu.Unlock()
}

func (b *fakeBackend) state() (float64, string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.balance, b.analytics, b.err
}

func (b *fakeBackend) Dashboard(context.Context) (cache.Snapshot, error) {
	b.dashboardCalls.Add(1)
	balance, _, err := b.state()
	if err != nil {
		return cache.Snapshot{}, err
	}
	return cache.Snapshot{
		Investment: json.RawMessage(fmt.Sprintf(`{"total_balance":%g}`, balance)),
		Summary:    json.RawMessage(`{"total_interest":12.5}`),
		User:       json.RawMessage(`{"first_name":"Amara"}`),
	}, nil
}

func (b *fakeBackend) Analytics(context.Context) (json.RawMessage, error) {
	b.analyticsCalls.Add(1)
	_, a, err := b.state()
	if err != nil {
		return nil, err
	}
	if a == "" {
		a = `{"summary_stats":{"total_earned":42}}`
	}
	return json.RawMessage(a), nil
}

func (b *fakeBackend) DueDates(_ context.Context, investorID string) (json.RawMessage, error) {
	b.dueDatesCalls.Add(1)
	if _, _, err := b.state(); err != nil {
		return nil, err
	}
	return json.RawMessage(fmt.Sprintf(`{"investor":%q,"due":["2024-03-08"]}`, investorID)), nil
}

func (b *fakeBackend) Affiliate(context.Context) (json.RawMessage, error) {
	b.affiliateCalls.Add(1)
	if _, _, err := b.state(); err != nil {
		return nil, err
	}
	return json.RawMessage(`{"points_balance":150}`), nil
}

type fixture struct {
	ctx         context.Context
	store       *store.MemoryStore
	clock       *fakeClock
	tracker     *activity.Tracker
	coordinator *resilience.Coordinator
	bus         *events.Recorder
	backend     *fakeBackend
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{now: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)}
	f := &fixture{
		ctx:         context.Background(),
		store:       store.NewMemoryStore(0),
		clock:       clock,
		tracker:     activity.NewTracker(activity.WithClock(clock.Now)),
		coordinator: resilience.NewCoordinator(clock.Now),
		bus:         events.NewRecorder(nil),
		backend:     &fakeBackend{balance: 1000},
	}
	if err := f.store.SetItem(f.ctx, store.SessionTokenKey, testToken); err != nil {
		t.Fatalf("set token: %v", err)
	}
	return f
}

func (f *fixture) service(t *testing.T) *Service {
	t.Helper()
	s, err := New(Config{
		Store:        f.store,
		Backend:      f.backend,
		Bus:          f.bus,
		Coordinator:  f.coordinator,
		Executor:     resilience.NewExecutor(),
		Now:          f.clock.Now,
		CacheOptions: f.cacheOptions(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(s.Wait)
	return s
}

func (f *fixture) cacheOptions() []cache.Option {
	return []cache.Option{
		cache.WithCipher(secret.NewPassphraseCipherWithCost(1 << 4)),
		cache.WithTracker(f.tracker),
	}
}

// staleAndActive ages every cached entry past the stale window and records
// a fresh interaction.
func (f *fixture) staleAndActive() {
	f.clock.Advance(cache.DefaultStaleWindow + time.Minute)
	f.tracker.Touch()
}

func balanceOf(snap cache.Snapshot) float64 {
	return gjson.GetBytes(snap.Investment, "total_balance").Float()
}

func assertOnlySessionToken(t *testing.T, f *fixture) {
	t.Helper()
	keys, err := f.store.Keys(f.ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range keys {
		if k != store.SessionTokenKey {
			t.Errorf("unexpected cache key %q", k)
		}
	}
}
