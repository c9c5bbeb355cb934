package cache

import "time"

// Default thresholds.
const (
	DefaultFreshWindow         = 4 * time.Minute
	DefaultStaleWindow         = 10 * time.Minute
	DefaultCooldown            = 5 * time.Minute
	DefaultActivityWindow      = 30 * time.Second
	DefaultDueDatesFreshWindow = 5 * time.Minute
)

// Policy holds the freshness and refresh-throttling thresholds.
type Policy struct {
	// FreshWindow is how long after a save data is served without any
	// refresh consideration. At exactly FreshWindow the entry is invalid.
	FreshWindow time.Duration

	// StaleWindow is the age past which a background refresh may start.
	// It should be larger than FreshWindow.
	StaleWindow time.Duration

	// Cooldown is the minimum time between two background refresh starts.
	Cooldown time.Duration

	// ActivityWindow is how recent user activity must be for a background
	// refresh to be worth it.
	ActivityWindow time.Duration

	// DueDatesFreshWindow replaces FreshWindow for due-dates scopes.
	DueDatesFreshWindow time.Duration
}

// DefaultPolicy returns the default thresholds.
// Fresh: 4m, Stale: 10m, Cooldown: 5m, Activity: 30s, DueDates fresh: 5m
func DefaultPolicy() Policy {
	return Policy{
		FreshWindow:         DefaultFreshWindow,
		StaleWindow:         DefaultStaleWindow,
		Cooldown:            DefaultCooldown,
		ActivityWindow:      DefaultActivityWindow,
		DueDatesFreshWindow: DefaultDueDatesFreshWindow,
	}
}

// withDefaults fills zero fields from DefaultPolicy.
func (p Policy) withDefaults() Policy {
	d := DefaultPolicy()
	if p.FreshWindow <= 0 {
		p.FreshWindow = d.FreshWindow
	}
	if p.StaleWindow <= 0 {
		p.StaleWindow = d.StaleWindow
	}
	if p.Cooldown <= 0 {
		p.Cooldown = d.Cooldown
	}
	if p.ActivityWindow <= 0 {
		p.ActivityWindow = d.ActivityWindow
	}
	if p.DueDatesFreshWindow <= 0 {
		p.DueDatesFreshWindow = d.DueDatesFreshWindow
	}
	return p
}

// FreshWindowFor returns the freshness window that applies to scope.
func (p Policy) FreshWindowFor(scope Scope) time.Duration {
	if scope.Name == NameDueDates {
		return p.DueDatesFreshWindow
	}
	return p.FreshWindow
}
