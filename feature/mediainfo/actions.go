package mediainfo

import (
	"context"
	"errors"
	"fmt"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"go.uber.org/zap"
)

// actions performs the classifier decisions. Shared by the event path and the sweep.
type actions struct {
	lib     Library
	backups Backups
	tracker *reconcile.Tracker
	opts    media.ProbeOptions
	logger  *zap.Logger
}

// observe builds the classifier input for item. Unreadable backups count as absent.
func (a *actions) observe(ctx context.Context, item media.Item) (reconcile.State, *backup.Record, error) {
	state := reconcile.State{
		HasAV:                        item.HasAudioVideo(),
		CurrentExternalSubtitleCount: item.ExternalSubtitleCount(),
	}

	rec, err := a.backups.Read(ctx, item)
	switch {
	case err == nil:
		state.BackupExists = true
		state.SavedSubtitleCount = rec.ExternalSubtitleCount
		return state, rec, nil
	case errors.Is(err, backup.ErrNotFound):
		return state, nil, nil
	case errors.Is(err, backup.ErrCorrupt), errors.Is(err, backup.ErrIncompatibleSchema):
		// Logged by the store; re-derived by the next probe or backup.
		return state, nil, nil
	default:
		return state, nil, err
	}
}

func (a *actions) restore(ctx context.Context, item media.Item, rec *backup.Record) error {
	if err := a.lib.Restore(ctx, item.ID, rec); err != nil {
		return fmt.Errorf("restore %s: %w", item.ID, err)
	}
	a.tracker.Reset(item.ID)
	a.logger.Info("Metadata restored from backup",
		zap.String("item_id", item.ID),
		zap.String("path", item.Path),
		zap.Int("sources", len(rec.MediaSources)))
	return nil
}

func (a *actions) backup(ctx context.Context, item media.Item) error {
	if err := a.backups.Write(ctx, item, backup.NewRecord(item)); err != nil {
		return err
	}
	a.tracker.Reset(item.ID)
	a.logger.Info("Metadata backed up",
		zap.String("item_id", item.ID),
		zap.String("backup", a.backups.Path(item)))
	return nil
}

// probe deletes a stale backup if asked to, then passes the breaker and the
// optional pacer before requesting the probe. Only queued requests are
// recorded with the breaker; a request coalesced with a running probe
// returns reconcile.ErrProbeInFlight.
func (a *actions) probe(ctx context.Context, item media.Item, d reconcile.Decision, pace func(context.Context) error) error {
	if d.DeleteBackup {
		if err := a.backups.Delete(ctx, item); err != nil {
			return err
		}
		a.logger.Info("Stale backup deleted", zap.String("item_id", item.ID), zap.String("reason", d.Reason))
	}

	attempt, err := a.tracker.Attempt(ctx, item.ID)
	if err != nil {
		return err
	}
	if pace != nil {
		if err := pace(ctx); err != nil {
			return err
		}
	}

	if err := a.lib.RequestProbe(ctx, item.ID, a.opts); err != nil {
		if errors.Is(err, reconcile.ErrProbeInFlight) {
			return err
		}
		return fmt.Errorf("%w: %w", reconcile.ErrProbeFailed, err)
	}
	a.tracker.Requested(item.ID)
	a.logger.Info("Probe requested",
		zap.String("item_id", item.ID),
		zap.String("path", item.Path),
		zap.Int("attempt", attempt.Count),
		zap.Duration("cooldown", attempt.Waited))
	return nil
}
