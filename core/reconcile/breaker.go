package reconcile

import (
	"context"
	"sort"
	"sync"
	"time"
)

// FailureEntry is the breaker state of one item that failed at least once.
type FailureEntry struct {
	ItemID string `json:"item_id" yaml:"item_id"`
	// Attempts is the number of failed probes in the current window.
	Attempts    int       `json:"attempts" yaml:"attempts"`
	LastAttempt time.Time `json:"last_attempt" yaml:"last_attempt"`
	// Pending is set while the outcome of the latest probe request is unknown.
	Pending bool `json:"pending" yaml:"pending"`
}

// Attempt describes a granted probe attempt.
type Attempt struct {
	// Count is the attempt number within the current reset window, starting at 1.
	Count int `json:"count"`
	// Waited is the cooldown time spent before the attempt was granted.
	Waited time.Duration `json:"waited"`
}

// Tracker is the per-item probe circuit breaker.
//
// A probe request is pending until the item is evaluated again. Reset marks
// it successful. A second request for the same item means the first one did
// not heal it, so Requested counts it as a failure. Items whose probes
// succeed never get an entry.
type Tracker struct {
	mu      sync.Mutex
	entries map[string]FailureEntry
	pending map[string]time.Time

	maxRetries int
	reset      time.Duration
	cooldown   time.Duration
	clock      Clock
}

// NewTracker creates a Tracker from cfg. MaxRetries below 1 is treated as 1.
func NewTracker(cfg Config, clock Clock) *Tracker {
	if clock == nil {
		clock = RealClock()
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Tracker{
		entries:    make(map[string]FailureEntry),
		pending:    make(map[string]time.Time),
		maxRetries: maxRetries,
		reset:      cfg.ResetInterval(),
		cooldown:   cfg.Cooldown(),
		clock:      clock,
	}
}

// window returns the attempt count and the time of the latest attempt,
// counting a pending request as a failure. Callers hold t.mu.
func (t *Tracker) window(id string) (int, time.Time) {
	e := t.entries[id]
	count, last := e.Attempts, e.LastAttempt
	if requestedAt, ok := t.pending[id]; ok {
		count++
		if requestedAt.After(last) {
			last = requestedAt
		}
	}
	return count, last
}

// Attempt gates a probe for id. Nothing is counted until Requested.
//
// When the item has used up its retries it returns ErrSuppressed, unless the
// last attempt is older than the reset interval, in which case the count
// restarts at zero in the same pass. When the previous attempt is within the
// cooldown, Attempt sleeps out the remainder (returning ctx.Err() if cancelled)
// and re-evaluates.
func (t *Tracker) Attempt(ctx context.Context, id string) (Attempt, error) {
	var waited time.Duration
	for {
		t.mu.Lock()
		now := t.clock.Now()
		count, last := t.window(id)

		if count >= t.maxRetries {
			if now.Sub(last) <= t.reset {
				t.mu.Unlock()
				return Attempt{}, ErrSuppressed
			}
			delete(t.entries, id)
			delete(t.pending, id)
			count, last = 0, time.Time{}
		}

		var wait time.Duration
		if !last.IsZero() {
			if elapsed := now.Sub(last); elapsed < t.cooldown {
				wait = t.cooldown - elapsed
			}
		}
		t.mu.Unlock()

		if wait <= 0 {
			return Attempt{Count: count + 1, Waited: waited}, nil
		}
		if err := t.clock.Sleep(ctx, wait); err != nil {
			return Attempt{}, err
		}
		waited += wait
	}
}

// Requested records that a new probe for id was queued. A request still
// pending from before is counted as a failed attempt.
func (t *Tracker) Requested(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if requestedAt, ok := t.pending[id]; ok {
		e := t.entries[id]
		e.ItemID = id
		e.Attempts++
		e.LastAttempt = requestedAt
		t.entries[id] = e
	}
	t.pending[id] = t.clock.Now()
}

// Suppressed reports whether an attempt for id would currently be refused.
func (t *Tracker) Suppressed(id string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	count, last := t.window(id)
	return count >= t.maxRetries && t.clock.Now().Sub(last) <= t.reset
}

// Reset removes the entry and any pending request for id. The item is healthy again.
func (t *Tracker) Reset(id string) {
	t.mu.Lock()
	delete(t.entries, id)
	delete(t.pending, id)
	t.mu.Unlock()
}

// Entry returns the breaker state for id. Only items with a failed probe have one.
func (t *Tracker) Entry(id string) (FailureEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.entries[id]
	if ok {
		_, e.Pending = t.pending[id]
	}
	return e, ok
}

// Snapshot returns every tracked entry sorted by item ID.
func (t *Tracker) Snapshot() []FailureEntry {
	t.mu.Lock()
	out := make([]FailureEntry, 0, len(t.entries))
	for id, e := range t.entries {
		_, e.Pending = t.pending[id]
		out = append(out, e)
	}
	t.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ItemID < out[j].ItemID
	})
	return out
}

// Len returns the number of items with a failure entry.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
