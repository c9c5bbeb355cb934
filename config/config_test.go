package config

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/jonwraymond/dashcache/cache"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/store"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if got, want := cfg.Policy(), cache.DefaultPolicy(); got != want {
		t.Errorf("Policy() = %+v, want %+v", got, want)
	}
	if cfg.FetchTimeout != resilience.DefaultFetchTimeout {
		t.Errorf("FetchTimeout = %s", cfg.FetchTimeout)
	}
	if cfg.ServiceName != "dashcache" || cfg.LogLevel != "info" {
		t.Errorf("ServiceName/LogLevel = %q/%q", cfg.ServiceName, cfg.LogLevel)
	}
	if cfg.StorePath != "" || cfg.StoreCapacity != 5<<20 {
		t.Errorf("store = %q/%d", cfg.StorePath, cfg.StoreCapacity)
	}
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DASHCACHE_FRESH_WINDOW":         "1m",
		"DASHCACHE_STALE_WINDOW":         "2m",
		"DASHCACHE_REFRESH_COOLDOWN":     "90s",
		"DASHCACHE_RETRY_ATTEMPTS":       "4",
		"DASHCACHE_BREAKER_MAX_FAILURES": "7",
		"DASHCACHE_LOG_LEVEL":            "debug",
	})
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	p := cfg.Policy()
	if p.FreshWindow != time.Minute || p.StaleWindow != 2*time.Minute || p.Cooldown != 90*time.Second {
		t.Errorf("Policy() = %+v", p)
	}
	ex := cfg.Executor()
	if ex.Retry.MaxAttempts != 4 || ex.Breaker.MaxFailures != 7 || ex.Timeout != 15*time.Second {
		t.Errorf("Executor() = %+v", ex)
	}
	if cfg.Observe().Logging.Level != "debug" {
		t.Errorf("log level = %q", cfg.Observe().Logging.Level)
	}
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr error
	}{
		{"stale not after fresh", map[string]string{"DASHCACHE_STALE_WINDOW": "4m"}, ErrStaleBeforeFresh},
		{"zero window", map[string]string{"DASHCACHE_ACTIVITY_WINDOW": "0s"}, ErrNonPositiveWindow},
		{"negative capacity", map[string]string{"DASHCACHE_STORE_CAPACITY": "-1"}, ErrInvalidLimit},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadFrom_ParseError(t *testing.T) {
	_, err := LoadFrom(map[string]string{"DASHCACHE_FRESH_WINDOW": "soon"})
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("err = %v, want parse env error", err)
	}
}

func TestLoadFrom_BadExporter(t *testing.T) {
	if _, err := LoadFrom(map[string]string{"DASHCACHE_METRICS_EXPORTER": "carrier-pigeon"}); err == nil {
		t.Fatal("expected exporter validation error")
	}
}

func TestLoad_ProcessEnv(t *testing.T) {
	t.Setenv("DASHCACHE_DUE_DATES_FRESH_WINDOW", "7m")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.DueDatesFreshWindow != 7*time.Minute {
		t.Errorf("DueDatesFreshWindow = %s", cfg.DueDatesFreshWindow)
	}
}

func TestOpenStore(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DASHCACHE_STORE_CAPACITY": "64"})
	if err != nil {
		t.Fatal(err)
	}
	s, err := cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore memory: %v", err)
	}
	mem, ok := s.(*store.MemoryStore)
	if !ok {
		t.Fatalf("store = %T, want *store.MemoryStore", s)
	}
	if mem.Usage().Capacity != 64 {
		t.Errorf("capacity = %d, want 64", mem.Usage().Capacity)
	}

	cfg.StorePath = filepath.Join(t.TempDir(), "cache.db")
	s, err = cfg.OpenStore()
	if err != nil {
		t.Fatalf("OpenStore sqlite: %v", err)
	}
	sq, ok := s.(*store.SQLiteStore)
	if !ok {
		t.Fatalf("store = %T, want *store.SQLiteStore", s)
	}
	t.Cleanup(func() { _ = sq.Close() })
}
