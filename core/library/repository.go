package library

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WatermarkKey is the plugin setting holding the last successful sweep completion.
const WatermarkKey = "mediainfo.last_sweep"

// Repository persists library items through GORM.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository creates a Repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Migrate creates or updates the library tables.
func (r *Repository) Migrate() error {
	if err := r.db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate library tables: %w", err)
	}
	return nil
}

func (r *Repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Streams", func(db *gorm.DB) *gorm.DB { return db.Order("is_external, stream_index, id") }).
		Preload("Chapters", func(db *gorm.DB) *gorm.DB { return db.Order("start_position_ticks, id") })
}

// Get returns the item with the given ID.
func (r *Repository) Get(ctx context.Context, id string) (*media.Item, error) {
	var m ItemModel
	err := r.preloaded(ctx).Where("id = ?", id).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item %s: %w", id, err)
	}
	item := m.toItem()
	return &item, nil
}

// FindByPath returns the item whose reference file is path.
func (r *Repository) FindByPath(ctx context.Context, path string) (*media.Item, error) {
	var m ItemModel
	err := r.preloaded(ctx).Where("path = ?", filepath.Clean(path)).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrItemNotFound, path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load item at %s: %w", path, err)
	}
	item := m.toItem()
	return &item, nil
}

// ModifiedSince returns items modified strictly after since, oldest first.
// A zero since returns every item. match filters by path when non-nil.
func (r *Repository) ModifiedSince(ctx context.Context, since time.Time, match func(path string) bool) ([]media.Item, error) {
	q := r.preloaded(ctx).Order("date_modified, id")
	if !since.IsZero() {
		q = q.Where("date_modified > ?", since.UTC())
	}

	var rows []ItemModel
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query modified items: %w", err)
	}

	items := make([]media.Item, 0, len(rows))
	for _, m := range rows {
		if match != nil && !match(m.Path) {
			continue
		}
		items = append(items, m.toItem())
	}
	return items, nil
}

// Upsert registers a reference file. Existing items are returned as stored,
// their modification time is left alone.
// Returns the item and whether it was created.
func (r *Repository) Upsert(ctx context.Context, path string) (*media.Item, bool, error) {
	path = filepath.Clean(path)
	existing, err := r.FindByPath(ctx, path)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, ErrItemNotFound) {
		return nil, false, err
	}

	m := ItemModel{
		ID:               uuid.NewString(),
		Path:             path,
		ContainingFolder: filepath.Dir(path),
		DateModified:     r.now().UTC(),
	}
	// A concurrent discovery of the same path keeps the first row.
	res := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&m)
	if res.Error != nil {
		return nil, false, fmt.Errorf("failed to create item for %s: %w", path, res.Error)
	}
	if res.RowsAffected == 0 {
		item, err := r.FindByPath(ctx, path)
		return item, false, err
	}
	item := m.toItem()
	return &item, true, nil
}

// Touch bumps the modification time of an item.
func (r *Repository) Touch(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&ItemModel{}).Where("id = ?", id).Update("date_modified", r.now().UTC())
	if res.Error != nil {
		return fmt.Errorf("failed to touch item %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	return nil
}

// ApplySnapshot restores technical metadata from a backup record.
// The first usable media source wins; external subtitles are left untouched.
func (r *Repository) ApplySnapshot(ctx context.Context, id string, rec *backup.Record) error {
	for _, snap := range rec.MediaSources {
		if len(snap.Streams) == 0 {
			continue
		}
		return r.replaceSource(ctx, id, snap.ToMediaSource())
	}
	return backup.ErrIncompatibleSchema
}

// SaveProbeResult stores freshly probed metadata.
// Only embedded streams are taken from src; external subtitles are left untouched.
func (r *Repository) SaveProbeResult(ctx context.Context, id string, src media.MediaSource) error {
	return r.replaceSource(ctx, id, src)
}

// ClearStreams drops all embedded streams and chapters, as if the host forgot them.
func (r *Repository) ClearStreams(ctx context.Context, id string) error {
	return r.replaceSource(ctx, id, media.MediaSource{})
}

func (r *Repository) replaceSource(ctx context.Context, id string, src media.MediaSource) error {
	now := r.now().UTC()
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&ItemModel{}).Where("id = ?", id).Updates(map[string]any{
			"protocol":        src.Protocol,
			"container":       src.Container,
			"run_time_ticks":  src.RunTimeTicks,
			"bitrate":         src.Bitrate,
			"size":            src.Size,
			"date_modified":   now,
			"date_last_saved": now,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to update item %s: %w", id, res.Error)
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: %s", ErrItemNotFound, id)
		}

		if err := tx.Where("item_id = ? AND is_external = ?", id, false).Delete(&StreamModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear streams of %s: %w", id, err)
		}
		if err := tx.Where("item_id = ?", id).Delete(&ChapterModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear chapters of %s: %w", id, err)
		}

		var streams []StreamModel
		for _, s := range src.Streams {
			if s.IsExternal {
				continue
			}
			streams = append(streams, fromStream(id, s))
		}
		if len(streams) > 0 {
			if err := tx.Create(&streams).Error; err != nil {
				return fmt.Errorf("failed to save streams of %s: %w", id, err)
			}
		}

		chapters := make([]ChapterModel, 0, len(src.Chapters))
		for _, c := range src.Chapters {
			chapters = append(chapters, ChapterModel{ItemID: id, StartPositionTicks: c.StartPositionTicks, Name: c.Name})
		}
		if len(chapters) > 0 {
			if err := tx.Create(&chapters).Error; err != nil {
				return fmt.Errorf("failed to save chapters of %s: %w", id, err)
			}
		}
		return nil
	})
}

// ReplaceExternalSubtitles swaps the item's external subtitle streams.
// Reports whether the set changed.
func (r *Repository) ReplaceExternalSubtitles(ctx context.Context, id string, subs []media.MediaStream) (bool, error) {
	changed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current []StreamModel
		if err := tx.Where("item_id = ? AND is_external = ?", id, true).Order("path").Find(&current).Error; err != nil {
			return fmt.Errorf("failed to load subtitles of %s: %w", id, err)
		}
		if sameSubtitlePaths(current, subs) {
			return nil
		}
		changed = true

		if err := tx.Where("item_id = ? AND is_external = ?", id, true).Delete(&StreamModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear subtitles of %s: %w", id, err)
		}
		if len(subs) > 0 {
			rows := make([]StreamModel, 0, len(subs))
			for _, s := range subs {
				s.IsExternal = true
				rows = append(rows, fromStream(id, s))
			}
			if err := tx.Create(&rows).Error; err != nil {
				return fmt.Errorf("failed to save subtitles of %s: %w", id, err)
			}
		}
		return tx.Model(&ItemModel{}).Where("id = ?", id).Update("date_modified", r.now().UTC()).Error
	})
	return changed, err
}

func sameSubtitlePaths(current []StreamModel, next []media.MediaStream) bool {
	if len(current) != len(next) {
		return false
	}
	seen := make(map[string]struct{}, len(current))
	for _, s := range current {
		seen[s.Path] = struct{}{}
	}
	for _, s := range next {
		if _, ok := seen[s.Path]; !ok {
			return false
		}
	}
	return true
}

// LoadWatermark returns the last successful sweep completion time, or zero.
// An unreadable value wraps reconcile.ErrConfigUnavailable.
func (r *Repository) LoadWatermark(ctx context.Context) (time.Time, error) {
	var s SettingModel
	err := r.db.WithContext(ctx).Where(clause.Eq{Column: clause.Column{Name: "key"}, Value: WatermarkKey}).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %w", reconcile.ErrConfigUnavailable, err)
	}
	if s.Value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.Value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid %s %q: %w", reconcile.ErrConfigUnavailable, WatermarkKey, s.Value, err)
	}
	return t, nil
}

// SaveWatermark persists the sweep watermark.
func (r *Repository) SaveWatermark(ctx context.Context, t time.Time) error {
	s := SettingModel{Key: WatermarkKey, Value: t.UTC().Format(time.RFC3339Nano)}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&s).Error
	if err != nil {
		return fmt.Errorf("failed to save %s: %w", WatermarkKey, err)
	}
	return nil
}
