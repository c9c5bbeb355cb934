// Package config loads dashcache settings from DASHCACHE_* environment
// variables. Defaults match the constants of the packages they configure.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/jonwraymond/dashcache/cache"
	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/refresh"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/store"
)

// Validation errors.
var (
	ErrNonPositiveWindow = errors.New("config: windows must be positive")
	ErrStaleBeforeFresh  = errors.New("config: stale window must exceed fresh window")
	ErrInvalidLimit      = errors.New("config: limits must not be negative")
)

// Config is the environment-backed configuration.
type Config struct {
	FreshWindow         time.Duration `env:"DASHCACHE_FRESH_WINDOW"          envDefault:"4m"`
	StaleWindow         time.Duration `env:"DASHCACHE_STALE_WINDOW"          envDefault:"10m"`
	Cooldown            time.Duration `env:"DASHCACHE_REFRESH_COOLDOWN"      envDefault:"5m"`
	ActivityWindow      time.Duration `env:"DASHCACHE_ACTIVITY_WINDOW"       envDefault:"30s"`
	DueDatesFreshWindow time.Duration `env:"DASHCACHE_DUE_DATES_FRESH_WINDOW" envDefault:"5m"`

	// StorePath selects a SQLite store. Empty means in memory.
	StorePath string `env:"DASHCACHE_STORE_PATH"`
	// StoreCapacity bounds the in-memory store in bytes. 0 is unlimited.
	StoreCapacity int `env:"DASHCACHE_STORE_CAPACITY" envDefault:"5242880"`

	FetchTimeout        time.Duration `env:"DASHCACHE_FETCH_TIMEOUT"          envDefault:"15s"`
	RetryAttempts       int           `env:"DASHCACHE_RETRY_ATTEMPTS"         envDefault:"2"`
	RetryInitialDelay   time.Duration `env:"DASHCACHE_RETRY_INITIAL_DELAY"    envDefault:"250ms"`
	BreakerMaxFailures  int           `env:"DASHCACHE_BREAKER_MAX_FAILURES"   envDefault:"3"`
	BreakerResetTimeout time.Duration `env:"DASHCACHE_BREAKER_RESET_TIMEOUT"  envDefault:"30s"`

	ServiceName     string  `env:"DASHCACHE_SERVICE_NAME"     envDefault:"dashcache"`
	LogLevel        string  `env:"DASHCACHE_LOG_LEVEL"        envDefault:"info"`
	TracingExporter string  `env:"DASHCACHE_TRACING_EXPORTER" envDefault:"none"`
	TraceSamplePct  float64 `env:"DASHCACHE_TRACE_SAMPLE_PCT" envDefault:"1"`
	MetricsExporter string  `env:"DASHCACHE_METRICS_EXPORTER" envDefault:"none"`
}

// Load parses the process environment and validates the result.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom parses environ instead of the process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks window ordering and limits.
func (c Config) Validate() error {
	for _, w := range []time.Duration{c.FreshWindow, c.StaleWindow, c.Cooldown, c.ActivityWindow, c.DueDatesFreshWindow, c.FetchTimeout} {
		if w <= 0 {
			return ErrNonPositiveWindow
		}
	}
	if c.StaleWindow <= c.FreshWindow {
		return fmt.Errorf("%w: stale %s, fresh %s", ErrStaleBeforeFresh, c.StaleWindow, c.FreshWindow)
	}
	if c.StoreCapacity < 0 || c.RetryAttempts < 0 || c.BreakerMaxFailures < 0 || c.RetryInitialDelay < 0 || c.BreakerResetTimeout < 0 {
		return ErrInvalidLimit
	}
	oc := c.Observe()
	return oc.Validate()
}

// Policy returns the cache thresholds.
func (c Config) Policy() cache.Policy {
	return cache.Policy{
		FreshWindow:         c.FreshWindow,
		StaleWindow:         c.StaleWindow,
		Cooldown:            c.Cooldown,
		ActivityWindow:      c.ActivityWindow,
		DueDatesFreshWindow: c.DueDatesFreshWindow,
	}
}

// Executor returns the fetch resilience settings, for refresh.Config.Resilience.
func (c Config) Executor() refresh.ExecutorSettings {
	return refresh.ExecutorSettings{
		Breaker: resilience.CircuitBreakerConfig{
			MaxFailures:  c.BreakerMaxFailures,
			ResetTimeout: c.BreakerResetTimeout,
		},
		Retry: resilience.RetryConfig{
			MaxAttempts:  c.RetryAttempts,
			InitialDelay: c.RetryInitialDelay,
			Jitter:       true,
		},
		Timeout: c.FetchTimeout,
	}
}

// Observe returns the observer configuration.
func (c Config) Observe() observe.Config {
	return observe.Config{
		ServiceName: c.ServiceName,
		Tracing: observe.TracingConfig{
			Enabled:   c.TracingExporter != "" && c.TracingExporter != "none",
			Exporter:  c.TracingExporter,
			SamplePct: c.TraceSamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.MetricsExporter != "" && c.MetricsExporter != "none",
			Exporter: c.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.LogLevel,
		},
	}
}

// OpenStore opens the SQLite store at StorePath, or a memory store bounded
// by StoreCapacity when no path is set.
func (c Config) OpenStore() (store.Store, error) {
	if c.StorePath == "" {
		return store.NewMemoryStore(c.StoreCapacity), nil
	}
	s, err := store.OpenSQLite(c.StorePath)
	if err != nil {
		return nil, fmt.Errorf("config: open store: %w", err)
	}
	return s, nil
}
