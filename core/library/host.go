package library

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"go.uber.org/zap"
)

type probeJob struct {
	id   string
	opts media.ProbeOptions
}

// Host exposes the library to the reconciliation engine and runs probes.
type Host struct {
	repo   *Repository
	prober Prober
	cfg    Config
	logger *zap.Logger
	now    func() time.Time

	mu        sync.Mutex
	listeners []func(media.Event)
	inflight  map[string]struct{}
	started   bool
	stopped   bool
	cancel    context.CancelFunc

	queue chan probeJob
	wg    sync.WaitGroup
}

// NewHost creates a Host. Call Start before requesting probes.
func NewHost(repo *Repository, prober Prober, cfg Config, logger *zap.Logger) *Host {
	if cfg.ProbeWorkers <= 0 {
		cfg.ProbeWorkers = 1
	}
	if cfg.ProbeQueue <= 0 {
		cfg.ProbeQueue = 256
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Host{
		repo:     repo,
		prober:   prober,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		inflight: make(map[string]struct{}),
		queue:    make(chan probeJob, cfg.ProbeQueue),
	}
}

// Repository returns the backing repository.
func (h *Host) Repository() *Repository {
	return h.repo
}

// Subscribe registers fn for every item notification. fn must not block.
func (h *Host) Subscribe(fn func(media.Event)) {
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

// Publish delivers evt to all subscribers.
func (h *Host) Publish(evt media.Event) {
	if evt.At.IsZero() {
		evt.At = h.now()
	}
	h.mu.Lock()
	listeners := append([]func(media.Event){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(evt)
	}
}

// Start launches the probe workers. They stop when ctx is done or Stop is called.
func (h *Host) Start(ctx context.Context) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.started || h.stopped {
		return
	}
	h.started = true

	ctx, h.cancel = context.WithCancel(ctx)
	for i := 0; i < h.cfg.ProbeWorkers; i++ {
		h.wg.Add(1)
		go h.worker(ctx)
	}
	h.logger.Info("Probe workers started", zap.Int("workers", h.cfg.ProbeWorkers))
}

// Stop cancels running probes and waits for the workers to exit.
func (h *Host) Stop() {
	h.mu.Lock()
	h.stopped = true
	cancel := h.cancel
	h.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	h.wg.Wait()
}

// GetItem returns the current state of an item.
func (h *Host) GetItem(ctx context.Context, id string) (*media.Item, error) {
	return h.repo.Get(ctx, id)
}

// ItemsModifiedSince returns items modified after since whose path satisfies match.
func (h *Host) ItemsModifiedSince(ctx context.Context, since time.Time, match func(string) bool) ([]media.Item, error) {
	return h.repo.ModifiedSince(ctx, since, match)
}

// Restore repopulates an item from a backup record.
func (h *Host) Restore(ctx context.Context, id string, rec *backup.Record) error {
	return h.repo.ApplySnapshot(ctx, id, rec)
}

// LoadWatermark returns the persisted sweep watermark.
func (h *Host) LoadWatermark(ctx context.Context) (time.Time, error) {
	return h.repo.LoadWatermark(ctx)
}

// SaveWatermark persists the sweep watermark.
func (h *Host) SaveWatermark(ctx context.Context, t time.Time) error {
	return h.repo.SaveWatermark(ctx, t)
}

// RequestProbe enqueues a probe and returns without waiting for it.
// A request for an item already queued or probing is coalesced and reported
// as reconcile.ErrProbeInFlight. The outcome is reported through an updated
// notification.
func (h *Host) RequestProbe(_ context.Context, id string, opts media.ProbeOptions) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.stopped {
		return ErrHostStopped
	}
	if _, ok := h.inflight[id]; ok {
		return fmt.Errorf("%w: %s", reconcile.ErrProbeInFlight, id)
	}

	select {
	case h.queue <- probeJob{id: id, opts: opts}:
		h.inflight[id] = struct{}{}
		return nil
	default:
		return fmt.Errorf("%w: %s", ErrProbeQueueFull, id)
	}
}

// Probing returns the number of queued or running probes.
func (h *Host) Probing() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.inflight)
}

func (h *Host) worker(ctx context.Context) {
	defer h.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case job := <-h.queue:
			h.runProbe(ctx, job)
		}
	}
}

func (h *Host) runProbe(ctx context.Context, job probeJob) {
	// Released before the notification goes out so that the evaluation it
	// triggers can request the next probe.
	released := false
	release := func() {
		if released {
			return
		}
		released = true
		h.mu.Lock()
		delete(h.inflight, job.id)
		h.mu.Unlock()
	}
	defer release()

	log := h.logger.With(zap.String("item_id", job.id))
	item, err := h.repo.Get(ctx, job.id)
	if err != nil {
		log.Warn("Probe skipped: item unavailable", zap.Error(err))
		return
	}

	if job.opts.ReplaceAllMetadata {
		if err := h.repo.ClearStreams(ctx, job.id); err != nil {
			log.Error("Failed to clear metadata before probe", zap.Error(err))
		}
	}

	probeCtx, cancel := ctx, context.CancelFunc(func() {})
	if timeout := h.cfg.ProbeTimeout(); timeout > 0 {
		probeCtx, cancel = context.WithTimeout(ctx, timeout)
	}
	start := h.now()
	src, err := h.prober.Probe(probeCtx, *item)
	cancel()

	if err != nil {
		log.Warn("Probe failed", zap.String("path", item.Path), zap.Duration("duration", h.now().Sub(start)), zap.Error(err))
	} else if err := h.repo.SaveProbeResult(ctx, job.id, src); err != nil {
		log.Error("Failed to save probe result", zap.Error(err))
	} else {
		log.Info("Probe completed",
			zap.String("path", item.Path),
			zap.Int("streams", len(src.Streams)),
			zap.Duration("duration", h.now().Sub(start)))
	}

	if _, err := h.refreshSubtitles(ctx, *item); err != nil {
		log.Warn("Failed to refresh external subtitles", zap.Error(err))
	}

	release()
	if ctx.Err() != nil {
		return
	}
	h.publishCurrent(ctx, media.EventItemUpdated, job.id)
}

// Discover registers a reference file. New items publish an added event.
// Known items publish an updated event only when their sidecar subtitles
// changed, so a rescan of an unchanged library is silent.
func (h *Host) Discover(ctx context.Context, path string) (*media.Item, bool, error) {
	item, created, err := h.repo.Upsert(ctx, path)
	if err != nil {
		return nil, false, err
	}
	changed, err := h.refreshSubtitles(ctx, *item)
	if err != nil {
		h.logger.Warn("Failed to refresh external subtitles", zap.String("item_id", item.ID), zap.Error(err))
	}

	var kind media.EventKind
	switch {
	case created:
		kind = media.EventItemAdded
		h.logger.Info("Item discovered", zap.String("item_id", item.ID), zap.String("path", item.Path))
	case changed:
		kind = media.EventItemUpdated
	default:
		return item, false, nil
	}
	if current := h.publishCurrent(ctx, kind, item.ID); current != nil {
		item = current
	}
	return item, created, nil
}

// Modified handles a rewritten reference file. A known item is touched and
// announced as updated; an unknown path is discovered.
func (h *Host) Modified(ctx context.Context, path string) (*media.Item, error) {
	item, created, err := h.Discover(ctx, path)
	if err != nil || created {
		return item, err
	}
	if err := h.repo.Touch(ctx, item.ID); err != nil {
		return nil, err
	}
	if current := h.publishCurrent(ctx, media.EventItemUpdated, item.ID); current != nil {
		item = current
	}
	return item, nil
}

// SubtitlesChanged rescans the sidecar subtitles of the item owning refPath
// and publishes an updated event when the set changed.
func (h *Host) SubtitlesChanged(ctx context.Context, refPath string) error {
	item, err := h.repo.FindByPath(ctx, refPath)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return nil
		}
		return err
	}
	changed, err := h.refreshSubtitles(ctx, *item)
	if err != nil || !changed {
		return err
	}
	h.publishCurrent(ctx, media.EventItemUpdated, item.ID)
	return nil
}

func (h *Host) refreshSubtitles(ctx context.Context, item media.Item) (bool, error) {
	if item.Path == "" {
		return false, nil
	}
	return h.repo.ReplaceExternalSubtitles(ctx, item.ID, DiscoverSubtitles(item.Path))
}

func (h *Host) publishCurrent(ctx context.Context, kind media.EventKind, id string) *media.Item {
	item, err := h.repo.Get(ctx, id)
	if err != nil {
		h.logger.Warn("Failed to load item for notification", zap.String("item_id", id), zap.Error(err))
		h.Publish(media.Event{Kind: kind, ItemID: id})
		return nil
	}
	h.Publish(media.Event{Kind: kind, ItemID: id, Item: item})
	return item
}
