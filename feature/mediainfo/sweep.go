package mediainfo

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"
	"mediainfo-keeper/core/utils"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// SweepStatus is the terminal state of a sweep run.
type SweepStatus string

const (
	SweepRunning   SweepStatus = "running"
	SweepCompleted SweepStatus = "completed"
	SweepCancelled SweepStatus = "cancelled"
	SweepFailed    SweepStatus = "failed"
)

// SweepOptions controls one sweep run.
type SweepOptions struct {
	// Full ignores the watermark and scans every reference item.
	Full bool `json:"full" yaml:"full"`
	// DryRun classifies items without acting or moving the watermark.
	DryRun bool `json:"dry_run" yaml:"dry_run"`
}

// PlannedAction is one dry-run classification.
type PlannedAction struct {
	ItemID   string             `json:"item_id" yaml:"item_id"`
	Path     string             `json:"path" yaml:"path"`
	Decision reconcile.Decision `json:"decision" yaml:"decision"`
}

// SweepReport summarizes a sweep run.
type SweepReport struct {
	Status     SweepStatus     `json:"status" yaml:"status"`
	Options    SweepOptions    `json:"options" yaml:"options"`
	Since      time.Time       `json:"since" yaml:"since"`
	StartedAt  time.Time       `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time       `json:"finished_at" yaml:"finished_at"`
	Watermark  *time.Time      `json:"watermark,omitempty" yaml:"watermark,omitempty"`
	Total      int             `json:"total" yaml:"total"`
	Processed  int             `json:"processed" yaml:"processed"`
	Restored   int             `json:"restored" yaml:"restored"`
	Probed     int             `json:"probed" yaml:"probed"`
	Skipped    int             `json:"skipped" yaml:"skipped"`
	Suppressed int             `json:"suppressed" yaml:"suppressed"`
	Failed     int             `json:"failed" yaml:"failed"`
	Error      string          `json:"error,omitempty" yaml:"error,omitempty"`
	Planned    []PlannedAction `json:"planned,omitempty" yaml:"planned,omitempty"`
}

// Progress is a point-in-time view of a running sweep.
type Progress struct {
	Processed int `json:"processed"`
	Total     int `json:"total"`
}

// Sweeper runs bulk reconciliation over the library.
type Sweeper struct {
	*actions
	cfg        reconcile.SweepConfig
	limiter    *rate.Limiter
	now        func() time.Time
	onProgress func(Progress)
}

// NewSweeper creates a Sweeper. One limiter paces probe requests across
// every worker and every run of this Sweeper.
func NewSweeper(lib Library, backups Backups, tracker *reconcile.Tracker, cfg reconcile.SweepConfig, logger *zap.Logger) *Sweeper {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	limit := rate.Inf
	if interval := cfg.RateInterval(); interval > 0 {
		limit = rate.Every(interval)
	}
	return &Sweeper{
		actions: &actions{
			lib:     lib,
			backups: backups,
			tracker: tracker,
			opts: media.ProbeOptions{
				FullRefresh:        cfg.FullRefresh,
				ReplaceAllMetadata: cfg.ReplaceAllMetadata,
			},
			logger: logger.With(zap.String("component", "sweep")),
		},
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
	}
}

// OnProgress registers fn to be called after every processed item.
func (s *Sweeper) OnProgress(fn func(Progress)) {
	s.onProgress = fn
}

// Run sweeps the items modified since the watermark (every item when
// opts.Full is set). On clean completion the watermark moves past the
// start of the run. On cancellation the report is returned with ctx.Err().
func (s *Sweeper) Run(ctx context.Context, opts SweepOptions) (*SweepReport, error) {
	report := &SweepReport{
		Status:    SweepRunning,
		Options:   opts,
		StartedAt: s.now(),
	}

	if !opts.Full {
		since, err := s.lib.LoadWatermark(ctx)
		if err != nil {
			return s.finish(report, fmt.Errorf("load watermark: %w", err))
		}
		report.Since = since
	}

	items, err := s.lib.ItemsModifiedSince(ctx, report.Since, func(path string) bool {
		return utils.MatchBase(s.cfg.Pattern, path)
	})
	if err != nil {
		return s.finish(report, fmt.Errorf("list items: %w", err))
	}
	report.Total = len(items)

	s.logger.Info("Sweep started",
		zap.Int("items", len(items)),
		zap.Time("since", report.Since),
		zap.Bool("full", opts.Full),
		zap.Bool("dry_run", opts.DryRun))

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = semaphore.NewWeighted(int64(s.cfg.Concurrency))
	)
	for _, item := range items {
		if ctx.Err() != nil {
			break
		}
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		wg.Add(1)
		go func(item media.Item) {
			defer wg.Done()
			defer sem.Release(1)
			s.process(ctx, item, opts, report, &mu)
		}(item)
	}
	wg.Wait()

	sort.Slice(report.Planned, func(i, j int) bool {
		return report.Planned[i].ItemID < report.Planned[j].ItemID
	})

	if err := ctx.Err(); err != nil {
		return s.finish(report, err)
	}

	if !opts.DryRun {
		mark := s.now()
		if !mark.After(report.StartedAt) {
			mark = report.StartedAt.Add(time.Nanosecond)
		}
		if err := s.lib.SaveWatermark(ctx, mark); err != nil {
			return s.finish(report, fmt.Errorf("save watermark: %w", err))
		}
		report.Watermark = &mark
	}
	return s.finish(report, nil)
}

func (s *Sweeper) finish(report *SweepReport, err error) (*SweepReport, error) {
	report.FinishedAt = s.now()
	fields := []zap.Field{
		zap.Int("total", report.Total),
		zap.Int("processed", report.Processed),
		zap.Int("restored", report.Restored),
		zap.Int("probed", report.Probed),
		zap.Int("skipped", report.Skipped),
		zap.Int("suppressed", report.Suppressed),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", report.FinishedAt.Sub(report.StartedAt)),
	}

	switch {
	case err == nil:
		report.Status = SweepCompleted
		s.logger.Info("Sweep completed", fields...)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		report.Status = SweepCancelled
		report.Error = err.Error()
		s.logger.Warn("Sweep cancelled, watermark unchanged", fields...)
	default:
		report.Status = SweepFailed
		report.Error = err.Error()
		s.logger.Error("Sweep failed, watermark unchanged", append(fields, zap.Error(err))...)
	}
	return report, err
}

// process handles one item. Per-item errors are counted, never returned.
func (s *Sweeper) process(ctx context.Context, item media.Item, opts SweepOptions, report *SweepReport, mu *sync.Mutex) {
	log := s.logger.With(zap.String("item_id", item.ID))
	count := func(field *int) {
		mu.Lock()
		if field != nil {
			*field++
		}
		report.Processed++
		p := Progress{Processed: report.Processed, Total: report.Total}
		mu.Unlock()
		if s.onProgress != nil {
			s.onProgress(p)
		}
	}

	defer func() {
		if p := recover(); p != nil {
			log.Error("Sweep item panicked", zap.Any("panic", p), zap.Stack("stack"))
			count(&report.Failed)
		}
	}()

	if ctx.Err() != nil {
		return
	}

	state, rec, err := s.observe(ctx, item)
	if err != nil {
		log.Error("Failed to inspect item state", zap.Error(err))
		count(&report.Failed)
		return
	}
	d := reconcile.Classify(state)

	if opts.DryRun {
		mu.Lock()
		report.Planned = append(report.Planned, PlannedAction{ItemID: item.ID, Path: item.Path, Decision: d})
		mu.Unlock()
		count(nil)
		return
	}

	switch d.Action {
	case reconcile.ActionRestore:
		if err := s.restore(ctx, item, rec); err != nil {
			log.Error("Restore failed", zap.Error(err))
			count(&report.Failed)
			return
		}
		count(&report.Restored)
	case reconcile.ActionProbe:
		err := s.probe(ctx, item, d, s.limiter.Wait)
		switch {
		case err == nil:
			count(&report.Probed)
		case errors.Is(err, reconcile.ErrProbeInFlight):
			log.Debug("Probe already in flight")
			count(&report.Skipped)
		case errors.Is(err, reconcile.ErrSuppressed):
			log.Debug("Probe suppressed by circuit breaker")
			count(&report.Suppressed)
		case ctx.Err() != nil:
			// Abandoned with the run.
		default:
			log.Error("Probe request failed", zap.Error(err))
			count(&report.Failed)
		}
	default:
		// Items with streams are left to the event path.
		count(&report.Skipped)
	}
}
