package refresh

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/jonwraymond/dashcache/events"
	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/resilience"
)

// network tracks reachability and publishes network:error and
// network:recovered on transitions only.
type network struct {
	offline atomic.Bool
	bus     events.Bus
	logger  observe.Logger
}

func (n *network) down(ctx context.Context, cause error) {
	if n.offline.CompareAndSwap(false, true) {
		n.logger.Warn(ctx, "backend unreachable", observe.Err(cause))
		n.bus.Publish(events.NetworkError, cause)
	}
}

func (n *network) up(ctx context.Context) {
	if n.offline.CompareAndSwap(true, false) {
		n.logger.Info(ctx, "backend reachable again")
		n.bus.Publish(events.NetworkRecovered, nil)
	}
}

// observe updates reachability from a fetch outcome. Errors that say
// nothing about the transport leave the state alone.
func (n *network) observe(ctx context.Context, err error) {
	switch {
	case err == nil:
		n.up(ctx)
	case errors.Is(err, ErrTransport), errors.Is(err, resilience.ErrCircuitOpen), errors.Is(err, resilience.ErrTimeout):
		n.down(ctx, err)
	}
}

// onBreakerChange is the CircuitBreaker hook for the default executor.
func (n *network) onBreakerChange(from, to resilience.State) {
	ctx := context.Background()
	switch to {
	case resilience.StateOpen:
		n.down(ctx, resilience.ErrCircuitOpen)
	case resilience.StateClosed:
		if from != resilience.StateClosed {
			n.up(ctx)
		}
	}
}
