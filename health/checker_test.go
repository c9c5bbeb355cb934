package health

import (
	"context"
	"errors"
	"testing"
)

func TestStatus_String(t *testing.T) {
	tests := []struct {
		status Status
		want   string
	}{
		{StatusHealthy, "healthy"},
		{StatusDegraded, "degraded"},
		{StatusUnhealthy, "unhealthy"},
		{Status(99), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.status.String(); got != tt.want {
				t.Errorf("String() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResultConstructors(t *testing.T) {
	testErr := errors.New("boom")
	tests := []struct {
		name   string
		result Result
		want   Status
	}{
		{"healthy", Healthy("ok"), StatusHealthy},
		{"degraded", Degraded("slow"), StatusDegraded},
		{"unhealthy", Unhealthy("down", testErr), StatusUnhealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Status != tt.want {
				t.Errorf("Status = %v, want %v", tt.result.Status, tt.want)
			}
			if tt.result.Timestamp.IsZero() {
				t.Error("Timestamp should be set")
			}
		})
	}
	if r := Unhealthy("down", testErr); r.Error != testErr {
		t.Errorf("Error = %v, want %v", r.Error, testErr)
	}
	if r := Healthy("ok").WithDetails(map[string]any{"k": "v"}); r.Details["k"] != "v" {
		t.Errorf("Details = %v", r.Details)
	}
}

func TestCheckerFunc(t *testing.T) {
	checker := NewCheckerFunc("probe", func(ctx context.Context) Result {
		if r, done := cancelled(ctx); done {
			return r
		}
		return Healthy("from func")
	})

	if checker.Name() != "probe" {
		t.Errorf("Name() = %v, want probe", checker.Name())
	}
	if r := checker.Check(context.Background()); r.Status != StatusHealthy || r.Message != "from func" {
		t.Errorf("Check() = %+v", r)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if r := checker.Check(ctx); r.Status != StatusUnhealthy || !errors.Is(r.Error, context.Canceled) {
		t.Errorf("cancelled Check() = %+v", r)
	}
}
