package resilience

import (
	"context"
	"sync"
	"time"
)

// Coordinator is a busy flag plus a last-start timestamp that keeps at most
// one background refresh in flight and lets callers throttle how often one
// starts.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Pairing: every TryStart that returns true must be followed by exactly
//     one End, including when the guarded work fails.
//   - Lifetime: state lives in memory only; a restart begins idle.
type Coordinator struct {
	mu        sync.Mutex
	now       func() time.Time
	running   bool
	lastStart time.Time
}

// NewCoordinator creates an idle coordinator. A nil clock means time.Now.
func NewCoordinator(now func() time.Time) *Coordinator {
	if now == nil {
		now = time.Now
	}
	return &Coordinator{now: now}
}

// DefaultCoordinator is the process-wide coordinator.
var DefaultCoordinator = NewCoordinator(nil)

// TryStart marks a refresh as running and records the start time. It
// returns false, changing nothing, if one is already running.
func (c *Coordinator) TryStart() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.running {
		return false
	}
	c.running = true
	c.lastStart = c.now()
	return true
}

// End clears the running flag unconditionally.
func (c *Coordinator) End() {
	c.mu.Lock()
	c.running = false
	c.mu.Unlock()
}

// Running reports whether a refresh is in flight.
func (c *Coordinator) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// LastStart returns when the last refresh started; zero if none has.
func (c *Coordinator) LastStart() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastStart
}

// SinceLastStart returns the time elapsed since LastStart. With no prior
// start it measures from the Unix epoch, which is always past any cooldown.
func (c *Coordinator) SinceLastStart() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastStart.IsZero() {
		return c.now().Sub(time.UnixMilli(0))
	}
	return c.now().Sub(c.lastStart)
}

// Ready reports whether nothing is running and cooldown has elapsed since
// the last start.
func (c *Coordinator) Ready(cooldown time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return false
	}
	if c.lastStart.IsZero() {
		return true
	}
	return c.now().Sub(c.lastStart) > cooldown
}

// Run executes op between TryStart and End. It returns started=false without
// calling op when a refresh is already running. End runs even if op panics.
func (c *Coordinator) Run(ctx context.Context, op func(context.Context) error) (started bool, err error) {
	if !c.TryStart() {
		return false, nil
	}
	defer c.End()
	return true, op(ctx)
}

// Reset returns the coordinator to its initial idle state and optionally
// swaps the clock. Intended for test isolation.
func (c *Coordinator) Reset(now ...func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.running = false
	c.lastStart = time.Time{}
	if len(now) > 0 && now[0] != nil {
		c.now = now[0]
	}
}
