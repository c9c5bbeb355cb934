// Package resilience keeps backend fetches from piling up.
//
// Coordinator is the process-wide busy flag and cooldown clock for
// background refreshes: at most one runs at a time, and a new one only
// starts once the cooldown since the previous start has passed.
//
// Foreground and background fetches go through an Executor that composes:
//
//   - CircuitBreaker: after repeated transport failures, fail fast until a
//     probe succeeds. Its state changes drive the network:error and
//     network:recovered signals.
//   - Retry: a small number of attempts with backoff, honouring ctx.
//   - Timeout: bound a single attempt.
//
// Usage:
//
//	exec := resilience.NewExecutor(
//	    resilience.WithCircuitBreaker(resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
//	        MaxFailures:  3,
//	        ResetTimeout: 30 * time.Second,
//	    })),
//	    resilience.WithRetry(resilience.NewRetry(resilience.RetryConfig{MaxAttempts: 2})),
//	    resilience.WithTimeout(10*time.Second),
//	)
//
//	started, err := resilience.DefaultCoordinator.Run(ctx, func(ctx context.Context) error {
//	    return exec.Execute(ctx, fetchDashboard)
//	})
package resilience
