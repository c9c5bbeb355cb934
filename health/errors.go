package health

import "errors"

var (
	// ErrCheckFailed marks an unhealthy result.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is the error of a check cut off by the aggregator timeout.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for an unknown name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
