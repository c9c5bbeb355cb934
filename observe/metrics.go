package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records cache lookups and backend fetches.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup counts a cache read as a hit or miss.
	RecordLookup(ctx context.Context, meta ScopeMeta, hit bool)

	// RecordFetch records a backend fetch with duration and error status.
	RecordFetch(ctx context.Context, meta ScopeMeta, duration time.Duration, err error)
}

type metricsImpl struct {
	lookups      metric.Int64Counter
	fetches      metric.Int64Counter
	fetchErrors  metric.Int64Counter
	durationHist metric.Float64Histogram
}

// NewMetrics creates instruments on meter. A nil meter yields no-op instruments.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("noop")
	}

	lookups, err := meter.Int64Counter(
		"cache.lookup.total",
		metric.WithDescription("Cache reads by result"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	fetches, err := meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Backend fetches issued by the cache layer"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"cache.fetch.errors",
		metric.WithDescription("Backend fetches that failed"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	durationHist, err := meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Backend fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		lookups:      lookups,
		fetches:      fetches,
		fetchErrors:  fetchErrors,
		durationHist: durationHist,
	}, nil
}

func scopeAttrs(meta ScopeMeta) []attribute.KeyValue {
	attrs := []attribute.KeyValue{attribute.String("cache.scope", meta.Scope)}
	if meta.Operation != "" {
		attrs = append(attrs, attribute.String("cache.operation", meta.Operation))
	}
	return attrs
}

func (m *metricsImpl) RecordLookup(ctx context.Context, meta ScopeMeta, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := append(scopeAttrs(meta), attribute.String("cache.result", result))
	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

func (m *metricsImpl) RecordFetch(ctx context.Context, meta ScopeMeta, duration time.Duration, err error) {
	opt := metric.WithAttributes(scopeAttrs(meta)...)
	m.fetches.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.durationHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// NopMetrics returns a Metrics that records nothing.
func NopMetrics() Metrics { return nopMetrics{} }

type nopMetrics struct{}

func (nopMetrics) RecordLookup(context.Context, ScopeMeta, bool)                {}
func (nopMetrics) RecordFetch(context.Context, ScopeMeta, time.Duration, error) {}
