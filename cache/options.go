package cache

import (
	"time"

	"github.com/jonwraymond/dashcache/activity"
	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/secret"
	"github.com/jonwraymond/dashcache/store"
)

// Option configures the caches and the Validator.
type Option func(*options)

type options struct {
	now         func() time.Time
	policy      Policy
	logger      observe.Logger
	metrics     observe.Metrics
	cipher      secret.Cipher
	tokens      secret.TokenSource
	tracker     *activity.Tracker
	coordinator *resilience.Coordinator
}

// WithClock sets the clock. Default: time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithPolicy sets the thresholds. Zero fields keep their defaults.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p.withDefaults() }
}

// WithLogger sets the logger. Default: no-op.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the lookup metrics sink. Default: no-op.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithCipher sets the cipher for the sensitive partition.
// Default: secret.NewPassphraseCipher().
func WithCipher(c secret.Cipher) Option {
	return func(o *options) {
		if c != nil {
			o.cipher = c
		}
	}
}

// WithTokenSource sets where the session token comes from.
// Default: the session_token entry of the cache's own store.
func WithTokenSource(ts secret.TokenSource) Option {
	return func(o *options) {
		if ts != nil {
			o.tokens = ts
		}
	}
}

// WithTracker sets the activity tracker. Default: activity.Default.
func WithTracker(t *activity.Tracker) Option {
	return func(o *options) {
		if t != nil {
			o.tracker = t
		}
	}
}

// WithCoordinator sets the background refresh coordinator.
// Default: resilience.DefaultCoordinator.
func WithCoordinator(c *resilience.Coordinator) Option {
	return func(o *options) {
		if c != nil {
			o.coordinator = c
		}
	}
}

func buildOptions(s store.Store, opts []Option) options {
	o := options{
		now:         time.Now,
		policy:      DefaultPolicy(),
		logger:      observe.NopLogger(),
		metrics:     observe.NopMetrics(),
		tracker:     activity.Default,
		coordinator: resilience.DefaultCoordinator,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.cipher == nil {
		o.cipher = secret.NewPassphraseCipher()
	}
	if o.tokens == nil {
		o.tokens = secret.NewStoreTokenSource(s).WithClock(o.now)
	}
	return o
}
