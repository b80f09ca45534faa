package reconcile

import "errors"

var (
	// ErrProbeFailed means the external probe call failed or timed out.
	ErrProbeFailed = errors.New("probe failed")
	// ErrConfigUnavailable means plugin settings could not be loaded.
	ErrConfigUnavailable = errors.New("configuration unavailable")
	// ErrProbeInFlight means a probe for the item is already queued or running.
	ErrProbeInFlight = errors.New("probe already in flight")
	// ErrSuppressed means the circuit breaker is open for the item.
	ErrSuppressed = errors.New("probe suppressed by circuit breaker")
)
