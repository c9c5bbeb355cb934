package health

import (
	"context"
	"fmt"

	"github.com/dustin/go-humanize"

	"github.com/jonwraymond/dashcache/store"
)

// StoreUsageConfig configures the store usage checker.
type StoreUsageConfig struct {
	// WarningThreshold is the used/capacity ratio that triggers degraded
	// status. Between 0 and 1. Default: 0.8
	WarningThreshold float64

	// CriticalThreshold is the ratio that triggers unhealthy status.
	// Between 0 and 1. Default: 0.95
	CriticalThreshold float64
}

// StoreUsageChecker reports how full a quota-bound store is. Near the
// quota, saves start failing with store.ErrQuotaExceeded.
type StoreUsageChecker struct {
	store  store.UsageReporter
	config StoreUsageConfig
}

// NewStoreUsageChecker creates a checker for s.
func NewStoreUsageChecker(s store.UsageReporter, config StoreUsageConfig) *StoreUsageChecker {
	if config.WarningThreshold <= 0 || config.WarningThreshold >= 1 {
		config.WarningThreshold = 0.8
	}
	if config.CriticalThreshold <= 0 || config.CriticalThreshold >= 1 {
		config.CriticalThreshold = 0.95
	}
	if config.CriticalThreshold < config.WarningThreshold {
		config.CriticalThreshold = min(config.WarningThreshold+0.1, 0.99)
	}
	return &StoreUsageChecker{store: s, config: config}
}

// Name returns "store".
func (c *StoreUsageChecker) Name() string { return "store" }

// Check compares usage with the thresholds. Unbounded stores are healthy.
func (c *StoreUsageChecker) Check(ctx context.Context) Result {
	if r, done := cancelled(ctx); done {
		return r
	}

	u := c.store.Usage()
	details := map[string]any{
		"used_bytes":     u.Used,
		"capacity_bytes": u.Capacity,
		"used":           humanize.IBytes(uint64(u.Used)),
	}
	if u.Capacity <= 0 {
		return Healthy("store unbounded").WithDetails(details)
	}

	ratio := u.Ratio()
	details["usage_percent"] = ratio * 100
	details["capacity"] = humanize.IBytes(uint64(u.Capacity))

	switch {
	case ratio >= c.config.CriticalThreshold:
		return Unhealthy(fmt.Sprintf("store usage critical: %.1f%%", ratio*100), ErrCheckFailed).WithDetails(details)
	case ratio >= c.config.WarningThreshold:
		return Degraded(fmt.Sprintf("store usage high: %.1f%%", ratio*100)).WithDetails(details)
	default:
		return Healthy(fmt.Sprintf("store usage normal: %.1f%%", ratio*100)).WithDetails(details)
	}
}

var _ Checker = (*StoreUsageChecker)(nil)
