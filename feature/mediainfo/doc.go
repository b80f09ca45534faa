// Package mediainfo implements the reconciliation engine that keeps probed
// media metadata restorable.
//
// # Event Path
//
// The Reconciler consumes item notifications from a bounded queue. Added
// items are evaluated at once; updated items are debounced so a burst of
// saves yields one evaluation of the latest state. Each evaluation applies
// reconcile.Classify and performs one of:
//
//   - Restore: repopulate the item from its backup.
//   - Backup: write the freshly probed metadata to the backup store.
//   - Probe: ask the host to re-probe, gated by the circuit breaker.
//   - NoOp: the item is healthy and cached.
//
// Errors and panics are contained per evaluation and logged.
//
// # Sweep
//
// The Sweeper walks items modified since the persisted watermark with a
// bounded worker pool (weighted semaphore) and a single shared rate limiter
// spacing probe requests. Items that already have streams are skipped and
// left to the event path. The watermark only moves after a clean run.
//
// # HTTP
//
//   - POST /mediainfo/events     host notification ingress
//   - POST /mediainfo/sweep      start a sweep (full, dry_run, wait)
//   - GET  /mediainfo/sweep      progress and last report
//   - GET  /mediainfo/items/:id  decision for one item
//   - GET  /mediainfo/failures   circuit breaker entries
//   - GET  /mediainfo/stats      reconciler counters
package mediainfo
