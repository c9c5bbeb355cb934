package resilience

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestCoordinator_TryStartEnd(t *testing.T) {
	clk := &stepClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	c := NewCoordinator(clk.Now)

	if c.Running() {
		t.Fatal("new coordinator should be idle")
	}
	if !c.LastStart().IsZero() {
		t.Fatal("LastStart should be zero before any start")
	}

	if !c.TryStart() {
		t.Fatal("first TryStart should succeed")
	}
	if !c.LastStart().Equal(clk.Now()) {
		t.Errorf("LastStart = %v, want %v", c.LastStart(), clk.Now())
	}

	clk.Advance(time.Second)
	if c.TryStart() {
		t.Fatal("TryStart while running should fail")
	}
	if !c.LastStart().Equal(clk.Now().Add(-time.Second)) {
		t.Error("failed TryStart must not move LastStart")
	}

	c.End()
	if c.Running() {
		t.Error("End should clear running")
	}
	c.End() // unconditional, no panic
}

func TestCoordinator_Ready(t *testing.T) {
	clk := &stepClock{now: time.Unix(10_000, 0)}
	c := NewCoordinator(clk.Now)
	cooldown := 5 * time.Minute

	if !c.Ready(cooldown) {
		t.Fatal("never-started coordinator should be ready")
	}
	c.TryStart()
	if c.Ready(cooldown) {
		t.Error("running coordinator should not be ready")
	}
	c.End()
	if c.Ready(cooldown) {
		t.Error("should not be ready inside cooldown")
	}
	clk.Advance(cooldown)
	if c.Ready(cooldown) {
		t.Error("should not be ready at exactly cooldown")
	}
	clk.Advance(time.Millisecond)
	if !c.Ready(cooldown) {
		t.Error("should be ready after cooldown")
	}
	if got := c.SinceLastStart(); got != cooldown+time.Millisecond {
		t.Errorf("SinceLastStart = %v", got)
	}
}

func TestCoordinator_RunReleasesOnError(t *testing.T) {
	c := NewCoordinator(nil)
	wantErr := errors.New("backend down")

	started, err := c.Run(context.Background(), func(context.Context) error {
		if !c.Running() {
			t.Error("should be running inside Run")
		}
		return wantErr
	})
	if !started || !errors.Is(err, wantErr) {
		t.Fatalf("Run = (%v, %v)", started, err)
	}
	if c.Running() {
		t.Error("Run must release the flag on error")
	}
}

func TestCoordinator_RunReleasesOnPanic(t *testing.T) {
	c := NewCoordinator(nil)
	func() {
		defer func() { _ = recover() }()
		_, _ = c.Run(context.Background(), func(context.Context) error { panic("boom") })
	}()
	if c.Running() {
		t.Error("Run must release the flag on panic")
	}
}

func TestCoordinator_RunSkipsWhenBusy(t *testing.T) {
	c := NewCoordinator(nil)
	c.TryStart()
	called := false
	started, err := c.Run(context.Background(), func(context.Context) error {
		called = true
		return nil
	})
	if started || err != nil || called {
		t.Errorf("Run while busy = (%v, %v), called=%v", started, err, called)
	}
}

func TestCoordinator_ConcurrentTryStart(t *testing.T) {
	c := NewCoordinator(nil)
	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.TryStart() {
				wins.Add(1)
			}
		}()
	}
	wg.Wait()
	if wins.Load() != 1 {
		t.Errorf("TryStart succeeded %d times, want 1", wins.Load())
	}
}

func TestCoordinator_Reset(t *testing.T) {
	clk := &stepClock{now: time.Unix(500, 0)}
	c := NewCoordinator(nil)
	c.TryStart()
	c.Reset(clk.Now)
	if c.Running() || !c.LastStart().IsZero() {
		t.Error("Reset should clear state")
	}
	c.TryStart()
	if !c.LastStart().Equal(clk.Now()) {
		t.Error("Reset should install the new clock")
	}
}
