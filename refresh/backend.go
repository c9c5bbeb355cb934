package refresh

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jonwraymond/dashcache/cache"
)

// ErrTransport marks a failure to reach the backend. Backend implementations
// wrap network failures with it; it flips the service into the offline state.
var ErrTransport = errors.New("refresh: transport failure")

// ErrUnsupported is returned by BackendFuncs for a missing function.
var ErrUnsupported = errors.New("refresh: backend operation not supported")

// Backend is the remote API the caches front.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: implementations must honor cancellation.
//   - Errors: transport failures must wrap ErrTransport.
type Backend interface {
	Dashboard(ctx context.Context) (cache.Snapshot, error)
	Analytics(ctx context.Context) (json.RawMessage, error)
	DueDates(ctx context.Context, investorID string) (json.RawMessage, error)
	Affiliate(ctx context.Context) (json.RawMessage, error)
}

// BackendFuncs adapts plain functions to Backend. Nil functions return
// ErrUnsupported.
type BackendFuncs struct {
	DashboardFunc func(ctx context.Context) (cache.Snapshot, error)
	AnalyticsFunc func(ctx context.Context) (json.RawMessage, error)
	DueDatesFunc  func(ctx context.Context, investorID string) (json.RawMessage, error)
	AffiliateFunc func(ctx context.Context) (json.RawMessage, error)
}

func (b BackendFuncs) Dashboard(ctx context.Context) (cache.Snapshot, error) {
	if b.DashboardFunc == nil {
		return cache.Snapshot{}, ErrUnsupported
	}
	return b.DashboardFunc(ctx)
}

func (b BackendFuncs) Analytics(ctx context.Context) (json.RawMessage, error) {
	if b.AnalyticsFunc == nil {
		return nil, ErrUnsupported
	}
	return b.AnalyticsFunc(ctx)
}

func (b BackendFuncs) DueDates(ctx context.Context, investorID string) (json.RawMessage, error) {
	if b.DueDatesFunc == nil {
		return nil, ErrUnsupported
	}
	return b.DueDatesFunc(ctx, investorID)
}

func (b BackendFuncs) Affiliate(ctx context.Context) (json.RawMessage, error) {
	if b.AffiliateFunc == nil {
		return nil, ErrUnsupported
	}
	return b.AffiliateFunc(ctx)
}

var _ Backend = BackendFuncs{}
