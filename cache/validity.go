package cache

import (
	"context"
	"time"

	"github.com/jonwraymond/dashcache/activity"
	"github.com/jonwraymond/dashcache/resilience"
	"github.com/jonwraymond/dashcache/store"
)

// Validator evaluates freshness and background-refresh eligibility from
// scope metadata alone. It never reads payloads.
//
// Contract:
//   - Concurrency: safe for concurrent use.
//   - Errors: absent or corrupt metadata reads as "not valid" and
//     "no refresh", never as an error.
type Validator struct {
	meta        *MetadataStore
	now         func() time.Time
	policy      Policy
	tracker     *activity.Tracker
	coordinator *resilience.Coordinator
}

// NewValidator creates a Validator over s.
func NewValidator(s store.Store, opts ...Option) *Validator {
	o := buildOptions(s, opts)
	return newValidator(NewMetadataStore(s, o.logger), o)
}

func newValidator(meta *MetadataStore, o options) *Validator {
	return &Validator{
		meta:        meta,
		now:         o.now,
		policy:      o.policy,
		tracker:     o.tracker,
		coordinator: o.coordinator,
	}
}

// Policy returns the thresholds in effect.
func (v *Validator) Policy() Policy { return v.policy }

// Age returns how long ago scope was last written.
func (v *Validator) Age(ctx context.Context, scope Scope) (time.Duration, bool) {
	md, ok := v.meta.Get(ctx, scope)
	if !ok || md.LastUpdate == 0 {
		return 0, false
	}
	return v.now().Sub(md.Updated()), true
}

// IsValid reports whether scope was written less than its freshness window
// ago. At exactly the window it is no longer valid.
func (v *Validator) IsValid(ctx context.Context, scope Scope) bool {
	age, ok := v.Age(ctx, scope)
	if !ok {
		return false
	}
	return age < v.policy.FreshWindowFor(scope)
}

// ShouldBackgroundRefresh reports whether a background refresh of scope
// should start now. All of these must hold: metadata is present, its age
// exceeds StaleWindow, the user was active within ActivityWindow, no
// background refresh is running, and Cooldown has passed since the last one
// started.
func (v *Validator) ShouldBackgroundRefresh(ctx context.Context, scope Scope) bool {
	age, ok := v.Age(ctx, scope)
	if !ok {
		return false
	}
	if age <= v.policy.StaleWindow {
		return false
	}
	if v.now().Sub(v.tracker.LastActivity()) >= v.policy.ActivityWindow {
		return false
	}
	return v.coordinator.Ready(v.policy.Cooldown)
}

// LastUpdateTime returns a short "Nm ago" string for scope's last write.
func (v *Validator) LastUpdateTime(ctx context.Context, scope Scope) (string, bool) {
	md, ok := v.meta.Get(ctx, scope)
	if !ok || md.LastUpdate == 0 {
		return "", false
	}
	return TimeAgo(md.Updated(), v.now()), true
}

// derived returns the read-time fields for an entry written at md.
func (v *Validator) derived(md Metadata) (lastUpdate int64, timeAgo string, cacheAge int64) {
	now := v.now()
	return md.LastUpdate, TimeAgo(md.Updated(), now), now.Sub(md.Updated()).Milliseconds()
}
