// Package health reports whether the cache layer is serving useful data.
//
// A Checker reports one component as Healthy, Degraded or Unhealthy.
// FreshnessChecker looks at one cache scope's age; StoreUsageChecker looks at
// how close a quota-bound store is to full, since a full store makes every
// save fail. Aggregator runs several checkers and folds their results.
//
//	agg := health.NewAggregator()
//	agg.Register("dashboard", health.NewFreshnessChecker(d.Validator(), cache.ScopeDashboard))
//	agg.Register("store", health.NewStoreUsageChecker(mem, health.StoreUsageConfig{}))
//	report := agg.CheckAll(ctx)
//	if report.Status != health.StatusHealthy { ... }
package health
