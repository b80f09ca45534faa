package checks

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/utils"

	"golang.org/x/sync/errgroup"
)

// ItemSource lists library items. library.Host implements it.
type ItemSource interface {
	ItemsModifiedSince(ctx context.Context, since time.Time, match func(path string) bool) ([]media.Item, error)
}

// BackupReport summarizes backup coverage of the reference items.
type BackupReport struct {
	Total   int      `json:"total"`
	Covered int      `json:"covered"`
	Missing []string `json:"missing"`
	Stale   []string `json:"stale"`
	Corrupt []string `json:"corrupt"`
	Status  string   `json:"status"` // "ok", "warning"
}

// CheckBackups reads the backup of every reference item matching pattern.
// Items with streams and no backup, stale subtitle counts and unreadable
// records are listed by path.
func CheckBackups(ctx context.Context, items ItemSource, store *backup.Store, pattern string) (*BackupReport, error) {
	list, err := items.ItemsModifiedSince(ctx, time.Time{}, func(path string) bool {
		return utils.MatchBase(pattern, path)
	})
	if err != nil {
		return nil, err
	}

	report := &BackupReport{
		Total:   len(list),
		Missing: []string{},
		Stale:   []string{},
		Corrupt: []string{},
		Status:  "ok",
	}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(8)

	for _, item := range list {
		g.Go(func() error {
			exists, err := store.Exists(ctx, item)
			if err != nil {
				return err
			}
			if !exists {
				if item.HasAudioVideo() {
					mu.Lock()
					report.Missing = append(report.Missing, item.Path)
					mu.Unlock()
				}
				return nil
			}

			rec, err := store.Read(ctx, item)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case errors.Is(err, backup.ErrCorrupt), errors.Is(err, backup.ErrIncompatibleSchema):
				report.Corrupt = append(report.Corrupt, item.Path)
			case err != nil:
				return err
			case rec.ExternalSubtitleCount != item.ExternalSubtitleCount():
				report.Stale = append(report.Stale, item.Path)
			default:
				report.Covered++
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Strings(report.Missing)
	sort.Strings(report.Stale)
	sort.Strings(report.Corrupt)
	if len(report.Missing)+len(report.Stale)+len(report.Corrupt) > 0 {
		report.Status = "warning"
	}
	return report, nil
}
