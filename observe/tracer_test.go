package observe

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingTracer() (Tracer, *tracetest.SpanRecorder) {
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	return NewTracer(tp.Tracer("test")), rec
}

func attrValue(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracer_SpanNameAndAttributes(t *testing.T) {
	tr, rec := newRecordingTracer()
	_, span := tr.StartSpan(context.Background(), ScopeMeta{Scope: "due_dates", Operation: "fetch", InvestorID: "42"})
	tr.EndSpan(span, nil)

	spans := rec.Ended()
	if len(spans) != 1 {
		t.Fatalf("ended spans = %d, want 1", len(spans))
	}
	s := spans[0]
	if s.Name() != "cache.fetch.due_dates" {
		t.Errorf("span name = %q", s.Name())
	}
	if v, ok := attrValue(s.Attributes(), "cache.investor_id"); !ok || v.AsString() != "42" {
		t.Errorf("investor attribute = %v, %v", v, ok)
	}
	if s.Status().Code != codes.Ok {
		t.Errorf("status = %v, want Ok", s.Status().Code)
	}
}

func TestTracer_EndSpanRecordsError(t *testing.T) {
	tr, rec := newRecordingTracer()
	_, span := tr.StartSpan(context.Background(), ScopeMeta{Scope: "dashboard"})
	tr.EndSpan(span, errors.New("offline"))

	s := rec.Ended()[0]
	if s.Name() != "cache.dashboard" {
		t.Errorf("span name = %q", s.Name())
	}
	if s.Status().Code != codes.Error {
		t.Errorf("status = %v, want Error", s.Status().Code)
	}
	if v, _ := attrValue(s.Attributes(), "cache.error"); !v.AsBool() {
		t.Error("cache.error attribute not set")
	}
}
