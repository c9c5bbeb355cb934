package health

import (
	"context"
	"fmt"

	"github.com/jonwraymond/dashcache/cache"
)

// FreshnessChecker reports one cache scope: healthy while its data is
// within the freshness window, degraded when stale or empty. A stale scope
// still serves data, so it is never unhealthy.
type FreshnessChecker struct {
	validator *cache.Validator
	scope     cache.Scope
}

// NewFreshnessChecker checks scope through v.
func NewFreshnessChecker(v *cache.Validator, scope cache.Scope) *FreshnessChecker {
	return &FreshnessChecker{validator: v, scope: scope}
}

// Name returns "freshness:<scope>".
func (f *FreshnessChecker) Name() string { return "freshness:" + f.scope.Name }

// Check reports the scope's age against the policy.
func (f *FreshnessChecker) Check(ctx context.Context) Result {
	if r, done := cancelled(ctx); done {
		return r
	}

	age, ok := f.validator.Age(ctx, f.scope)
	if !ok {
		return Degraded(fmt.Sprintf("%s: nothing cached", f.scope.Name))
	}

	policy := f.validator.Policy()
	details := map[string]any{
		"age_ms":          age.Milliseconds(),
		"fresh_window_ms": policy.FreshWindowFor(f.scope).Milliseconds(),
		"stale_window_ms": policy.StaleWindow.Milliseconds(),
	}
	if ago, ok := f.validator.LastUpdateTime(ctx, f.scope); ok {
		details["last_update"] = ago
	}

	switch {
	case f.validator.IsValid(ctx, f.scope):
		return Healthy(fmt.Sprintf("%s: fresh", f.scope.Name)).WithDetails(details)
	case age > policy.StaleWindow:
		return Degraded(fmt.Sprintf("%s: stale, refresh due", f.scope.Name)).WithDetails(details)
	default:
		return Degraded(fmt.Sprintf("%s: aging", f.scope.Name)).WithDetails(details)
	}
}

var _ Checker = (*FreshnessChecker)(nil)
