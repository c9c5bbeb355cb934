// Package activity records when the user last interacted with the page, so
// background work can skip data nobody is looking at.
package activity

import (
	"context"
	"sync/atomic"
	"time"
)

// DefaultWindow is how long after the last interaction the user counts as active.
const DefaultWindow = 30 * time.Second

// Signal is a kind of user interaction.
type Signal string

// Interaction signals the tracker listens to.
const (
	PointerDown Signal = "pointerdown"
	KeyDown     Signal = "keydown"
	Scroll      Signal = "scroll"
	TouchStart  Signal = "touchstart"
)

// Signals lists every interaction the tracker treats as activity.
var Signals = []Signal{PointerDown, KeyDown, Scroll, TouchStart}

// Tracker holds the most recent interaction time. Writes are a single atomic
// store, so no debouncing is needed.
type Tracker struct {
	now    func() time.Time
	window time.Duration
	last   atomic.Int64 // unix nanoseconds
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithWindow sets the activity window.
func WithWindow(d time.Duration) Option {
	return func(t *Tracker) {
		if d > 0 {
			t.window = d
		}
	}
}

// NewTracker creates a tracker whose last activity is "now".
func NewTracker(opts ...Option) *Tracker {
	t := &Tracker{now: time.Now, window: DefaultWindow}
	for _, opt := range opts {
		opt(t)
	}
	t.last.Store(t.now().UnixNano())
	return t
}

// Default is the process-wide tracker, initialised at package load.
var Default = NewTracker()

// Record marks an interaction at the current time. Unknown signals are ignored.
func (t *Tracker) Record(s Signal) {
	for _, known := range Signals {
		if s == known {
			t.last.Store(t.now().UnixNano())
			return
		}
	}
}

// Touch marks activity regardless of signal kind.
func (t *Tracker) Touch() {
	t.last.Store(t.now().UnixNano())
}

// LastActivity returns the time of the most recent interaction.
func (t *Tracker) LastActivity() time.Time {
	return time.Unix(0, t.last.Load())
}

// IsActive reports whether the last interaction is within the window.
func (t *Tracker) IsActive() bool {
	return t.now().Sub(t.LastActivity()) < t.window
}

// Window returns the configured activity window.
func (t *Tracker) Window() time.Duration {
	return t.window
}

// Reset sets the last activity back to "now" and optionally swaps the clock.
// Intended for test isolation of the Default tracker.
func (t *Tracker) Reset(opts ...Option) {
	for _, opt := range opts {
		opt(t)
	}
	t.last.Store(t.now().UnixNano())
}

// Listen records every signal from ch until ctx is done or ch is closed.
func (t *Tracker) Listen(ctx context.Context, ch <-chan Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-ch:
			if !ok {
				return
			}
			t.Record(s)
		}
	}
}
