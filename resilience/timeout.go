package resilience

import (
	"context"
	"errors"
	"time"
)

// DefaultFetchTimeout bounds a single backend attempt.
const DefaultFetchTimeout = 15 * time.Second

// Timeout bounds each attempt of a fetch.
type Timeout struct {
	d time.Duration
}

// NewTimeout creates a Timeout. Non-positive d means DefaultFetchTimeout.
func NewTimeout(d time.Duration) *Timeout {
	if d <= 0 {
		d = DefaultFetchTimeout
	}
	return &Timeout{d: d}
}

// Duration returns the limit.
func (t *Timeout) Duration() time.Duration { return t.d }

// Execute runs op with a deadline. If op does not return in time the call
// returns ErrTimeout; op keeps running in the background until it observes
// its cancelled context.
func (t *Timeout) Execute(ctx context.Context, op func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, t.d)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- op(ctx)
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ErrTimeout
		}
		return ctx.Err()
	}
}
