package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jonwraymond/dashcache/store"
)

// ClearPrefixes lists the key prefixes ClearAll sweeps.
var ClearPrefixes = []string{"dashboard_", "notifications_", "affiliate_", DueDatesKeyPrefix}

var knownKeys = []string{
	KeyFinancial,
	KeyUser,
	KeyDashboardMeta,
	KeyAnalytics,
	KeyAnalyticsMeta,
	KeyAffiliate,
	KeyAffiliateMeta,
}

// ClearAll removes every cache key: the known keys plus every key under
// ClearPrefixes. It runs on logout so no cached data leaks across accounts
// sharing a store. It keeps going past individual failures and returns
// them joined.
func ClearAll(ctx context.Context, s store.Store) error {
	errs := []error{removeKeys(ctx, s, knownKeys...)}

	keys, err := s.Keys(ctx)
	if err != nil {
		return errors.Join(append(errs, fmt.Errorf("%w: list keys: %w", ErrStore, err))...)
	}
	var sweep []string
	for _, k := range keys {
		if hasClearPrefix(k) {
			sweep = append(sweep, k)
		}
	}
	errs = append(errs, removeKeys(ctx, s, sweep...))
	return errors.Join(errs...)
}

func hasClearPrefix(key string) bool {
	for _, p := range ClearPrefixes {
		if strings.HasPrefix(key, p) {
			return true
		}
	}
	return false
}
