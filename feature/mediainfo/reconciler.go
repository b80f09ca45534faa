package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"go.uber.org/zap"
)

// ErrQueueFull is returned by TryPublish when the event queue has no room.
var ErrQueueFull = errors.New("event queue full")

// Result is how an evaluation ended.
type Result string

const (
	ResultDone       Result = "done"
	ResultSuppressed Result = "suppressed"
	ResultFailed     Result = "failed"
)

// Outcome describes one evaluation.
type Outcome struct {
	ItemID   string             `json:"item_id"`
	State    reconcile.State    `json:"state"`
	Decision reconcile.Decision `json:"decision"`
	Result   Result             `json:"result"`
	Err      error              `json:"-"`
}

// Stats are the reconciler counters since start.
type Stats struct {
	Received   int64 `json:"received"`
	Dropped    int64 `json:"dropped"`
	Evaluated  int64 `json:"evaluated"`
	Restored   int64 `json:"restored"`
	Probed     int64 `json:"probed"`
	Coalesced  int64 `json:"coalesced"`
	BackedUp   int64 `json:"backed_up"`
	NoOp       int64 `json:"noop"`
	Suppressed int64 `json:"suppressed"`
	Failed     int64 `json:"failed"`
	Pending    int   `json:"pending"`
	Queued     int   `json:"queued"`
}

type counters struct {
	received, dropped, evaluated     atomic.Int64
	restored, probed, backedUp, noop atomic.Int64
	coalesced, suppressed, failed    atomic.Int64
}

// Reconciler consumes item notifications and heals items one at a time.
type Reconciler struct {
	*actions
	events    chan media.Event
	debouncer *reconcile.Debouncer
	delay     time.Duration
	stats     counters
}

// NewReconciler creates a Reconciler. Call Run to start consuming events.
func NewReconciler(lib Library, backups Backups, tracker *reconcile.Tracker, cfg reconcile.Config, opts media.ProbeOptions, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	size := cfg.QueueSize
	if size < 1 {
		size = 1
	}
	return &Reconciler{
		actions: &actions{
			lib:     lib,
			backups: backups,
			tracker: tracker,
			opts:    opts,
			logger:  logger,
		},
		events:    make(chan media.Event, size),
		debouncer: reconcile.NewDebouncer(),
		delay:     cfg.DebounceDelay(),
	}
}

// Publish queues evt, blocking until there is room or ctx is done.
func (r *Reconciler) Publish(ctx context.Context, evt media.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	select {
	case r.events <- evt:
		r.stats.received.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TryPublish queues evt without blocking.
func (r *Reconciler) TryPublish(evt media.Event) error {
	if err := evt.Validate(); err != nil {
		return err
	}
	select {
	case r.events <- evt:
		r.stats.received.Add(1)
		return nil
	default:
		r.stats.dropped.Add(1)
		return fmt.Errorf("%w: %s %s", ErrQueueFull, evt.Kind, evt.ItemID)
	}
}

// Run dispatches queued events until ctx is done, then waits for
// running evaluations. Pending debounced evaluations are dropped.
func (r *Reconciler) Run(ctx context.Context) error {
	defer r.debouncer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case evt := <-r.events:
			r.dispatch(ctx, evt)
		}
	}
}

// dispatch routes through the debouncer so evaluations of one item never overlap.
// Added items are evaluated right away, updated items after the quiet period.
func (r *Reconciler) dispatch(ctx context.Context, evt media.Event) {
	delay := r.delay
	if evt.Kind == media.EventItemAdded {
		delay = 0
	}
	r.debouncer.Schedule(evt.ItemID, delay, func() {
		r.handle(ctx, evt)
	})
}

func (r *Reconciler) handle(ctx context.Context, evt media.Event) {
	if ctx.Err() != nil {
		return
	}
	item := evt.Item
	if item == nil {
		var err error
		item, err = r.lib.GetItem(ctx, evt.ItemID)
		if err != nil {
			r.stats.failed.Add(1)
			r.logger.Warn("Failed to load item for evaluation",
				zap.String("item_id", evt.ItemID),
				zap.String("event", string(evt.Kind)),
				zap.Error(err))
			return
		}
	}
	r.Evaluate(ctx, *item)
}

// Evaluate classifies item and performs the chosen action. Errors and panics
// are logged and reported in the Outcome, never propagated.
func (r *Reconciler) Evaluate(ctx context.Context, item media.Item) (out Outcome) {
	out.ItemID = item.ID
	log := r.logger.With(zap.String("item_id", item.ID))

	defer func() {
		if p := recover(); p != nil {
			out.Result = ResultFailed
			out.Err = fmt.Errorf("evaluation panicked: %v", p)
			r.stats.failed.Add(1)
			log.Error("Evaluation panicked", zap.Any("panic", p), zap.Stack("stack"))
		}
	}()

	r.stats.evaluated.Add(1)

	state, rec, err := r.observe(ctx, item)
	out.State = state
	if err != nil {
		return r.fail(log, out, "Failed to inspect item state", err)
	}

	out.Decision = reconcile.Classify(state)
	log = log.With(zap.String("action", string(out.Decision.Action)))

	switch out.Decision.Action {
	case reconcile.ActionRestore:
		if err := r.restore(ctx, item, rec); err != nil {
			return r.fail(log, out, "Restore failed", err)
		}
		r.stats.restored.Add(1)
	case reconcile.ActionBackup:
		if err := r.backup(ctx, item); err != nil {
			return r.fail(log, out, "Backup failed", err)
		}
		r.stats.backedUp.Add(1)
	case reconcile.ActionProbe:
		err := r.probe(ctx, item, out.Decision, nil)
		if errors.Is(err, reconcile.ErrSuppressed) {
			r.stats.suppressed.Add(1)
			out.Result = ResultSuppressed
			out.Err = err
			log.Debug("Probe suppressed by circuit breaker")
			return out
		}
		if errors.Is(err, reconcile.ErrProbeInFlight) {
			r.stats.coalesced.Add(1)
			log.Debug("Probe already in flight")
			break
		}
		if err != nil {
			return r.fail(log, out, "Probe request failed", err)
		}
		r.stats.probed.Add(1)
	default:
		r.tracker.Reset(item.ID)
		r.stats.noop.Add(1)
		log.Debug("Item healthy")
	}

	out.Result = ResultDone
	return out
}

func (r *Reconciler) fail(log *zap.Logger, out Outcome, msg string, err error) Outcome {
	r.stats.failed.Add(1)
	out.Result = ResultFailed
	out.Err = err
	if errors.Is(err, context.Canceled) {
		log.Debug(msg, zap.Error(err))
	} else {
		log.Error(msg, zap.Error(err))
	}
	return out
}

// Inspect returns the state and decision for item without acting.
func (r *Reconciler) Inspect(ctx context.Context, item media.Item) (reconcile.State, reconcile.Decision, error) {
	state, _, err := r.observe(ctx, item)
	if err != nil {
		return state, reconcile.Decision{}, err
	}
	return state, reconcile.Classify(state), nil
}

// Stats returns a snapshot of the counters.
func (r *Reconciler) Stats() Stats {
	return Stats{
		Received:   r.stats.received.Load(),
		Dropped:    r.stats.dropped.Load(),
		Evaluated:  r.stats.evaluated.Load(),
		Restored:   r.stats.restored.Load(),
		Probed:     r.stats.probed.Load(),
		Coalesced:  r.stats.coalesced.Load(),
		BackedUp:   r.stats.backedUp.Load(),
		NoOp:       r.stats.noop.Load(),
		Suppressed: r.stats.suppressed.Load(),
		Failed:     r.stats.failed.Load(),
		Pending:    r.debouncer.Pending(),
		Queued:     len(r.events),
	}
}
