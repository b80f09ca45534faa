package library

import "errors"

var (
	// ErrItemNotFound means no item exists with the requested ID or path.
	ErrItemNotFound = errors.New("item not found")
	// ErrProbeQueueFull means the probe worker pool cannot accept more work.
	ErrProbeQueueFull = errors.New("probe queue full")
	// ErrHostStopped means the host no longer accepts probe requests.
	ErrHostStopped = errors.New("library host stopped")
)
