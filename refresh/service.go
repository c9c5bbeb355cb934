package refresh

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/dashcache/cache"
	"github.com/jonwraymond/dashcache/events"
	"github.com/jonwraymond/dashcache/observe"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/secret"
	"github.com/jonwraymond/dashcache/store"
)

// Configuration errors.
var (
	ErrNilStore   = errors.New("refresh: store is required")
	ErrNilBackend = errors.New("refresh: backend is required")
)

// Config wires a Service.
type Config struct {
	// Store holds the caches. Required.
	Store store.Store

	// Backend is the remote API. Required.
	Backend Backend

	// Bus receives refresh and network signals. Default: events.Discard
	Bus events.Bus

	// Coordinator guards background refreshes.
	// Default: resilience.DefaultCoordinator
	Coordinator *resilience.Coordinator

	// Executor wraps every backend call. When nil, one is built from
	// Resilience whose breaker drives the network signals.
	Executor *resilience.Executor

	// Resilience tunes the built executor. Default: jittered retries and
	// the resilience package defaults.
	Resilience *ExecutorSettings

	// Middleware instruments every backend call. Default: no-op tracing and
	// metrics with Logger.
	Middleware *observe.Middleware

	// Logger. Default: no-op.
	Logger observe.Logger

	// CacheOptions are passed to every cache (policy, cipher, tracker, ...).
	CacheOptions []cache.Option

	// Now is the clock. Default: time.Now
	Now func() time.Time
}

// Result is what a fetch-flow read returns.
type Result[T any] struct {
	Data T

	// Cached is true when Data came from the cache.
	Cached bool

	// FromCacheDueToError is true when the backend failed and Data is the
	// last cached copy. Err holds the failure.
	FromCacheDueToError bool
	Err                 error
}

// Service is the cache-first fetch flow.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: methods return an error only when there is neither fresh nor
//     cached data to serve.
type Service struct {
	backend     Backend
	store       store.Store
	dashboard   *cache.Dashboard
	affiliate   *cache.Affiliate
	dueDates    *cache.DueDates
	coordinator *resilience.Coordinator
	exec        *resilience.Executor
	mw          *observe.Middleware
	bus         events.Bus
	logger      observe.Logger
	now         func() time.Time
	net         *network

	group singleflight.Group
	wg    sync.WaitGroup
}

// New creates a Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, ErrNilStore
	}
	if cfg.Backend == nil {
		return nil, ErrNilBackend
	}
	if cfg.Bus == nil {
		cfg.Bus = events.Discard
	}
	if cfg.Coordinator == nil {
		cfg.Coordinator = resilience.DefaultCoordinator
	}
	if cfg.Logger == nil {
		cfg.Logger = observe.NopLogger()
	}
	if cfg.Middleware == nil {
		cfg.Middleware = observe.NewMiddleware(nil, nil, cfg.Logger)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	s := &Service{
		backend:     cfg.Backend,
		store:       cfg.Store,
		coordinator: cfg.Coordinator,
		mw:          cfg.Middleware,
		bus:         cfg.Bus,
		logger:      cfg.Logger,
		now:         cfg.Now,
		net:         &network{bus: cfg.Bus, logger: cfg.Logger},
	}
	s.exec = cfg.Executor
	if s.exec == nil {
		settings := defaultSettings()
		if cfg.Resilience != nil {
			settings = *cfg.Resilience
		}
		s.exec = s.net.executor(settings)
	}

	opts := append(append([]cache.Option{}, cfg.CacheOptions...),
		cache.WithCoordinator(cfg.Coordinator),
		cache.WithClock(cfg.Now),
		cache.WithLogger(cfg.Logger),
		cache.WithMetrics(cfg.Middleware.Metrics()),
	)
	s.dashboard = cache.NewDashboard(cfg.Store, opts...)
	s.affiliate = cache.NewAffiliate(cfg.Store, opts...)
	s.dueDates = cache.NewDueDates(cfg.Store, opts...)
	return s, nil
}

// ExecutorSettings tunes the executor New builds. Zero fields take the
// resilience package defaults. A caller-supplied Breaker.OnStateChange runs
// after the network signal is published.
type ExecutorSettings struct {
	Breaker resilience.CircuitBreakerConfig
	Retry   resilience.RetryConfig
	Timeout time.Duration
}

func defaultSettings() ExecutorSettings {
	return ExecutorSettings{Retry: resilience.RetryConfig{Jitter: true}}
}

func (n *network) executor(settings ExecutorSettings) *resilience.Executor {
	breaker := settings.Breaker
	hook := breaker.OnStateChange
	breaker.OnStateChange = func(from, to resilience.State) {
		n.onBreakerChange(from, to)
		if hook != nil {
			hook(from, to)
		}
	}
	timeout := settings.Timeout
	if timeout <= 0 {
		timeout = resilience.DefaultFetchTimeout
	}
	return resilience.NewExecutor(
		resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(breaker)),
		resilience.WithRetry(resilience.NewRetry(settings.Retry)),
		resilience.WithTimeout(timeout),
	)
}

// DashboardCache returns the dashboard cache, for patches and direct reads.
func (s *Service) DashboardCache() *cache.Dashboard { return s.dashboard }

// AffiliateCache returns the affiliate cache.
func (s *Service) AffiliateCache() *cache.Affiliate { return s.affiliate }

// DueDatesCache returns the due-dates cache.
func (s *Service) DueDatesCache() *cache.DueDates { return s.dueDates }

// Online reports whether the last backend call reached the backend.
func (s *Service) Online() bool { return !s.net.offline.Load() }

// Dashboard returns the dashboard snapshot. With useCache a cached snapshot
// is returned immediately and may trigger a background refresh. Otherwise,
// or on a miss, the backend is called.
func (s *Service) Dashboard(ctx context.Context, useCache bool) (Result[cache.Snapshot], error) {
	if useCache {
		if snap, ok := s.dashboard.Get(ctx); ok {
			if s.dashboard.ShouldBackgroundRefresh(ctx) {
				s.background(ctx, cache.NameDashboard, func(ctx context.Context) error {
					_, err := s.sharedDashboard(ctx)
					return err
				})
			}
			return Result[cache.Snapshot]{Data: snap, Cached: true}, nil
		}
	}

	snap, err := s.sharedDashboard(ctx)
	if err != nil {
		if cached, ok := s.dashboard.Get(ctx); ok {
			return Result[cache.Snapshot]{Data: cached, Cached: true, FromCacheDueToError: true, Err: err}, nil
		}
		return Result[cache.Snapshot]{}, err
	}
	return Result[cache.Snapshot]{Data: snap}, nil
}

func (s *Service) sharedDashboard(ctx context.Context) (cache.Snapshot, error) {
	sess := s.session(ctx)
	return shared(ctx, &s.group, flightKey(cache.NameDashboard, sess), func(ctx context.Context) (cache.Snapshot, error) {
		return s.fetchDashboard(ctx, sess)
	})
}

// fetchDashboard calls the backend and saves the result under sess, the
// session key captured before the call. A fetch that outlives its session
// returns cache.ErrSessionChanged and writes nothing.
func (s *Service) fetchDashboard(ctx context.Context, sess secret.Key) (cache.Snapshot, error) {
	snap, err := call(ctx, s, observe.ScopeMeta{Scope: cache.NameDashboard, Operation: "fetch"}, s.backend.Dashboard)
	if err != nil {
		return cache.Snapshot{}, err
	}
	log := s.logger.WithScope(observe.ScopeMeta{Scope: cache.NameDashboard, Operation: "save"})
	if sess == "" {
		log.Warn(ctx, "no session key, dashboard not cached")
		return snap, nil
	}

	var prev *cache.Snapshot
	if old, ok := s.dashboard.Peek(ctx); ok {
		prev = &old
	}
	if err := s.dashboard.SaveWithKey(ctx, sess, snap); err != nil {
		if errors.Is(err, cache.ErrSessionChanged) || errors.Is(err, cache.ErrNoSessionKey) {
			return cache.Snapshot{}, cache.ErrSessionChanged
		}
		log.Warn(ctx, "fetched dashboard not cached", observe.Err(err))
		return snap, nil
	}
	if cache.Changed(&snap, prev) {
		s.bus.Publish(events.DashboardRefreshed, events.RefreshedDetail{LastUpdate: s.now().UnixMilli()})
	}
	return snap, nil
}

// Analytics returns the analytics payload. A cached payload that carries
// only zeros is dropped and refetched. Background refreshes publish
// analytics:refreshed.
func (s *Service) Analytics(ctx context.Context, useCache bool) (Result[json.RawMessage], error) {
	if useCache {
		if a, ok := s.dashboard.Analytics(ctx); ok {
			if !cache.AnalyticsAllZeros(a) {
				if s.dashboard.Validator().ShouldBackgroundRefresh(ctx, cache.ScopeAnalytics) {
					s.background(ctx, cache.NameAnalytics, s.refreshAnalytics)
				}
				return Result[json.RawMessage]{Data: a, Cached: true}, nil
			}
			s.logger.WithScope(observe.ScopeMeta{Scope: cache.NameAnalytics, Operation: "get"}).
				Warn(ctx, "cached analytics are all zeros, dropping")
			if err := s.dashboard.ClearAnalytics(ctx); err != nil {
				s.logger.Warn(ctx, "clear analytics failed", observe.Err(err))
			}
		}
	}

	a, err := s.sharedAnalytics(ctx)
	if err != nil {
		if cached, ok := s.dashboard.Analytics(ctx); ok {
			return Result[json.RawMessage]{Data: cached, Cached: true, FromCacheDueToError: true, Err: err}, nil
		}
		return Result[json.RawMessage]{}, err
	}
	return Result[json.RawMessage]{Data: a}, nil
}

func (s *Service) sharedAnalytics(ctx context.Context) (json.RawMessage, error) {
	sess := s.session(ctx)
	return shared(ctx, &s.group, flightKey(cache.NameAnalytics, sess), func(ctx context.Context) (json.RawMessage, error) {
		a, err := call(ctx, s, observe.ScopeMeta{Scope: cache.NameAnalytics, Operation: "fetch"}, s.backend.Analytics)
		if err != nil {
			return nil, err
		}
		log := s.logger.WithScope(observe.ScopeMeta{Scope: cache.NameAnalytics, Operation: "save"})
		if err := s.sameSession(ctx, sess, log); err != nil {
			return nil, err
		}
		if err := s.dashboard.SaveAnalytics(ctx, a); err != nil {
			log.Warn(ctx, "fetched analytics not cached", observe.Err(err))
		}
		return a, nil
	})
}

func (s *Service) refreshAnalytics(ctx context.Context) error {
	if _, err := s.sharedAnalytics(ctx); err != nil {
		return err
	}
	s.bus.Publish(events.AnalyticsRefreshed, events.RefreshedDetail{LastUpdate: s.now().UnixMilli()})
	return nil
}

// Affiliate returns the affiliate summary, from cache while fresh.
func (s *Service) Affiliate(ctx context.Context, useCache bool) (Result[cache.Entry], error) {
	if useCache && s.affiliate.IsValid(ctx) {
		if e, ok := s.affiliate.Get(ctx); ok {
			return Result[cache.Entry]{Data: e, Cached: true}, nil
		}
	}

	sess := s.session(ctx)
	payload, err := shared(ctx, &s.group, flightKey(cache.NameAffiliate, sess), func(ctx context.Context) (json.RawMessage, error) {
		p, err := call(ctx, s, observe.ScopeMeta{Scope: cache.NameAffiliate, Operation: "fetch"}, s.backend.Affiliate)
		if err != nil {
			return nil, err
		}
		log := s.logger.WithScope(observe.ScopeMeta{Scope: cache.NameAffiliate, Operation: "save"})
		if err := s.sameSession(ctx, sess, log); err != nil {
			return nil, err
		}
		if err := s.affiliate.Save(ctx, p); err != nil {
			log.Warn(ctx, "fetched affiliate summary not cached", observe.Err(err))
		}
		return p, nil
	})
	if err != nil {
		if cached, ok := s.affiliate.Get(ctx); ok {
			return Result[cache.Entry]{Data: cached, Cached: true, FromCacheDueToError: true, Err: err}, nil
		}
		return Result[cache.Entry]{}, err
	}
	return Result[cache.Entry]{Data: cache.Entry{Payload: payload}}, nil
}

// DueDates returns investorID's due-dates schedule, from cache while fresh
// and saved for the same investor.
func (s *Service) DueDates(ctx context.Context, investorID string, useCache bool) (Result[cache.Entry], error) {
	if err := cache.ValidateKey(investorID); err != nil {
		return Result[cache.Entry]{}, fmt.Errorf("refresh: investor id: %w", err)
	}
	if useCache {
		if e, ok := s.dueDates.Get(ctx, investorID); ok {
			return Result[cache.Entry]{Data: e, Cached: true}, nil
		}
	}

	meta := observe.ScopeMeta{Scope: cache.NameDueDates, Operation: "fetch", InvestorID: investorID}
	sess := s.session(ctx)
	payload, err := shared(ctx, &s.group, flightKey(cache.NameDueDates+":"+investorID, sess), func(ctx context.Context) (json.RawMessage, error) {
		p, err := call(ctx, s, meta, func(ctx context.Context) (json.RawMessage, error) {
			return s.backend.DueDates(ctx, investorID)
		})
		if err != nil {
			return nil, err
		}
		log := s.logger.WithScope(meta)
		if err := s.sameSession(ctx, sess, log); err != nil {
			return nil, err
		}
		if err := s.dueDates.Save(ctx, investorID, p); err != nil {
			log.Warn(ctx, "fetched due dates not cached", observe.Err(err))
		}
		return p, nil
	})
	if err != nil {
		return Result[cache.Entry]{}, err
	}
	return Result[cache.Entry]{Data: cache.Entry{Payload: payload}}, nil
}

// Logout clears every cache key. Fetches still in flight are not aborted;
// they see the session change when they finish and write nothing.
func (s *Service) Logout(ctx context.Context) error {
	if err := cache.ClearAll(ctx, s.store); err != nil {
		s.logger.Error(ctx, "clear-all failed", observe.Err(err))
		return err
	}
	return nil
}

// Wait blocks until background refreshes started so far have finished.
func (s *Service) Wait() { s.wg.Wait() }

// background runs fn in its own goroutine through the coordinator, so at
// most one background refresh runs at a time. A panic in fn is logged and
// still releases the coordinator.
func (s *Service) background(ctx context.Context, scope string, fn func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	log := s.logger.WithScope(observe.ScopeMeta{Scope: scope, Operation: "background_refresh"})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		started, err := s.coordinator.Run(ctx, func(ctx context.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					log.Error(ctx, "background refresh panicked", observe.F("panic", fmt.Sprint(r)))
					err = fmt.Errorf("refresh: background %s panicked: %v", scope, r)
				}
			}()
			return fn(ctx)
		})
		switch {
		case !started:
			log.Debug(ctx, "background refresh skipped, another is running",
				observe.F("since_last_start_ms", s.coordinator.SinceLastStart().Milliseconds()))
		case err != nil:
			log.Warn(ctx, "background refresh failed, keeping cached data", observe.Err(err))
		default:
			log.Debug(ctx, "background refresh completed")
		}
	}()
}

// session returns the current session key, or "" with no usable token.
func (s *Service) session(ctx context.Context) secret.Key {
	key, err := s.dashboard.SessionKey(ctx)
	if err != nil {
		return ""
	}
	return key
}

// sameSession reports cache.ErrSessionChanged when the session differs from
// sess, the one a fetch started under.
func (s *Service) sameSession(ctx context.Context, sess secret.Key, log observe.Logger) error {
	if s.session(ctx) == sess {
		return nil
	}
	log.Warn(ctx, "session changed during fetch, result not cached")
	return cache.ErrSessionChanged
}

// flightKey scopes a singleflight key to a session so callers from
// different sessions never share a fetch.
func flightKey(name string, sess secret.Key) string {
	if sess == "" {
		return name
	}
	return name + "@" + string(sess[:16])
}

// call runs one backend call through the middleware and executor and
// updates reachability.
func call[T any](ctx context.Context, s *Service, meta observe.ScopeMeta, get func(context.Context) (T, error)) (T, error) {
	var out T
	err := s.mw.Wrap(meta, func(ctx context.Context) error {
		return s.exec.Execute(ctx, func(ctx context.Context) error {
			v, err := get(ctx)
			if err != nil {
				return err
			}
			out = v
			return nil
		})
	})(ctx)
	s.net.observe(ctx, err)
	return out, err
}

// shared runs fn once per key across concurrent callers. fn runs detached
// from any single caller's cancellation; a caller that gives up gets its
// own ctx error.
func shared[T any](ctx context.Context, g *singleflight.Group, key string, fn func(context.Context) (T, error)) (T, error) {
	detached := context.WithoutCancel(ctx)
	ch := g.DoChan(key, func() (any, error) {
		return fn(detached)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(T), nil
	}
}
