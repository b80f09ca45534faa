// Package reconcile provides the decision and gating primitives of the
// mediainfo reconciliation engine.
//
// The package has no I/O of its own. Callers (the event reconciler and the
// bulk sweep in feature/mediainfo) combine these pieces:
//
//  1. Classify: a pure decision table mapping an item's observable state and
//     backup presence to Restore, Probe, Backup or NoOp.
//
//  2. Tracker: a per-item circuit breaker gating probe attempts. Attempts closer
//     than the short cooldown wait out the remainder; after MaxRetries failed
//     probes further probes are suppressed until the reset interval has elapsed.
//     A queued probe stays pending until the item is evaluated again, and only a
//     new request on top of a pending one counts as a failure.
//
//  3. Debouncer: a per-item cancel-and-replace timer collapsing bursts of
//     update notifications into a single evaluation.
//
// # Concurrency
//
// Tracker and Debouncer are safe for concurrent use. All state is keyed by item
// ID and held in memory only; a restart resets every breaker.
//
// # Usage Example
//
//	tracker := reconcile.NewTracker(cfg.Reconcile, reconcile.RealClock())
//	decision := reconcile.Classify(reconcile.State{HasAV: false, BackupExists: false})
//	if decision.Action == reconcile.ActionProbe {
//	    if _, err := tracker.Attempt(ctx, item.ID); errors.Is(err, reconcile.ErrSuppressed) {
//	        return
//	    }
//	    if err := host.RequestProbe(ctx, item.ID, opts); err == nil {
//	        tracker.Requested(item.ID)
//	    }
//	}
package reconcile
