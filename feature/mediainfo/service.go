package mediainfo

import (
	"context"
	"errors"
	"sync"
	"time"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// ErrServiceStopped is returned when background work is requested after Stop.
var ErrServiceStopped = errors.New("mediainfo service stopped")

// Inspection is the reconciliation view of one item.
type Inspection struct {
	ItemID     string                  `json:"item_id" yaml:"item_id"`
	Path       string                  `json:"path" yaml:"path"`
	BackupPath string                  `json:"backup_path" yaml:"backup_path"`
	State      reconcile.State         `json:"state" yaml:"state"`
	Decision   reconcile.Decision      `json:"decision" yaml:"decision"`
	Suppressed bool                    `json:"suppressed" yaml:"suppressed"`
	Failure    *reconcile.FailureEntry `json:"failure,omitempty" yaml:"failure,omitempty"`
}

// SweepState is the sweep view exposed over HTTP.
type SweepState struct {
	Running  bool         `json:"running"`
	Progress Progress     `json:"progress"`
	Last     *SweepReport `json:"last,omitempty"`
}

// Service owns the event reconciler, the sweeper and the sweep scheduler.
type Service struct {
	lib        Library
	backups    Backups
	tracker    *reconcile.Tracker
	reconciler *Reconciler
	sweeper    *Sweeper
	interval   time.Duration
	logger     *zap.Logger

	group singleflight.Group

	mu       sync.Mutex
	running  int
	progress Progress
	last     *SweepReport
	ctx      context.Context
	cancel   context.CancelFunc
	stopped  bool
	wg       sync.WaitGroup
}

// NewService wires the engine. Both paths share one failure tracker.
func NewService(lib Library, backups Backups, rcfg reconcile.Config, scfg reconcile.SweepConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	tracker := reconcile.NewTracker(rcfg, reconcile.RealClock())
	opts := media.ProbeOptions{FullRefresh: scfg.FullRefresh, ReplaceAllMetadata: scfg.ReplaceAllMetadata}

	s := &Service{
		lib:        lib,
		backups:    backups,
		tracker:    tracker,
		reconciler: NewReconciler(lib, backups, tracker, rcfg, opts, logger),
		sweeper:    NewSweeper(lib, backups, tracker, scfg, logger),
		interval:   scfg.Interval(),
		logger:     logger,
	}
	s.sweeper.OnProgress(func(p Progress) {
		s.mu.Lock()
		s.progress = p
		s.mu.Unlock()
	})
	return s
}

// Reconciler returns the event reconciler.
func (s *Service) Reconciler() *Reconciler {
	return s.reconciler
}

// Ingest queues a host notification without blocking.
func (s *Service) Ingest(evt media.Event) error {
	return s.reconciler.TryPublish(evt)
}

// Start runs the reconciler and, when an interval is configured, the sweep scheduler.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return ErrServiceStopped
	}
	if s.cancel != nil {
		return nil
	}
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_ = s.reconciler.Run(s.ctx)
	}()

	if s.interval > 0 {
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.schedule(s.ctx, s.interval)
		}()
		s.logger.Info("Sweep scheduler started", zap.Duration("interval", s.interval))
	}
	return nil
}

// Stop cancels background work and waits for it. Later triggers are refused.
func (s *Service) Stop() {
	s.mu.Lock()
	s.stopped = true
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Service) schedule(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = s.Sweep(ctx, SweepOptions{})
		}
	}
}

// Sweep runs a sweep and waits for it. Concurrent calls with the same
// options share one run and its result.
func (s *Service) Sweep(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	key := "sweep"
	if opts.Full {
		key += ":full"
	}
	if opts.DryRun {
		key += ":dry"
	}

	v, err, shared := s.group.Do(key, func() (any, error) {
		s.mu.Lock()
		s.running++
		s.progress = Progress{}
		s.mu.Unlock()

		report, err := s.sweeper.Run(ctx, opts)

		s.mu.Lock()
		s.running--
		s.last = report
		s.mu.Unlock()
		return report, err
	})
	if shared {
		s.logger.Debug("Joined running sweep", zap.String("key", key))
	}
	report, _ := v.(*SweepReport)
	return report, err
}

// Trigger starts a sweep in the background, bound to the service lifetime.
// It returns ErrServiceStopped once Stop was called or the service context ended.
func (s *Service) Trigger(opts SweepOptions) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped || (s.ctx != nil && s.ctx.Err() != nil) {
		return ErrServiceStopped
	}
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	// Added under mu so that Stop never waits on a counter that is still growing.
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		_, _ = s.Sweep(ctx, opts)
	}()
	return nil
}

// SweepState returns the current sweep progress and the last report.
func (s *Service) SweepState() SweepState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SweepState{Running: s.running > 0, Progress: s.progress, Last: s.last}
}

// Inspect returns the decision the reconciler would take for an item.
func (s *Service) Inspect(ctx context.Context, id string) (*Inspection, error) {
	item, err := s.lib.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	state, decision, err := s.reconciler.Inspect(ctx, *item)
	if err != nil {
		return nil, err
	}

	out := &Inspection{
		ItemID:     item.ID,
		Path:       item.Path,
		BackupPath: s.backups.Path(*item),
		State:      state,
		Decision:   decision,
		Suppressed: s.tracker.Suppressed(item.ID),
	}
	if e, ok := s.tracker.Entry(item.ID); ok {
		out.Failure = &e
	}
	return out, nil
}

// Failures returns the circuit breaker entries.
func (s *Service) Failures() []reconcile.FailureEntry {
	return s.tracker.Snapshot()
}

// Stats returns the reconciler counters.
func (s *Service) Stats() Stats {
	return s.reconciler.Stats()
}
