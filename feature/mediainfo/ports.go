package mediainfo

import (
	"context"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/media"
)

// Library is the host surface the engine reads and drives.
// library.Host implements it.
type Library interface {
	GetItem(ctx context.Context, id string) (*media.Item, error)
	ItemsModifiedSince(ctx context.Context, since time.Time, match func(path string) bool) ([]media.Item, error)
	Restore(ctx context.Context, id string, rec *backup.Record) error
	// RequestProbe returns once the probe is scheduled. Completion is
	// reported by an updated notification.
	RequestProbe(ctx context.Context, id string, opts media.ProbeOptions) error
	LoadWatermark(ctx context.Context) (time.Time, error)
	SaveWatermark(ctx context.Context, t time.Time) error
}

// Backups is the backup store surface. backup.Store implements it.
type Backups interface {
	Path(item media.Item) string
	Read(ctx context.Context, item media.Item) (*backup.Record, error)
	Write(ctx context.Context, item media.Item, rec *backup.Record) error
	Delete(ctx context.Context, item media.Item) error
}
