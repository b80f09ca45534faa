package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mediainfo-keeper/core/utils"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher discovers reference files under the library roots.
type Watcher struct {
	host    *Host
	roots   []string
	pattern string
	logger  *zap.Logger
}

// NewWatcher creates a Watcher for files matching pattern (e.g. "*.strm").
func NewWatcher(host *Host, roots []string, pattern string, logger *zap.Logger) *Watcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Watcher{host: host, roots: roots, pattern: pattern, logger: logger}
}

// Scan walks every root and registers all reference files.
// Returns the number of newly created items.
func (w *Watcher) Scan(ctx context.Context) (int, error) {
	created := 0
	for _, root := range w.roots {
		n, err := w.scanTree(ctx, root)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}

func (w *Watcher) scanTree(ctx context.Context, root string) (int, error) {
	created := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == root {
				w.logger.Warn("Library root does not exist", zap.String("root", root))
				return filepath.SkipDir
			}
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !utils.MatchBase(w.pattern, path) {
			return nil
		}
		_, isNew, err := w.host.Discover(ctx, path)
		if err != nil {
			w.logger.Error("Failed to register reference file", zap.String("path", path), zap.Error(err))
			return nil
		}
		if isNew {
			created++
		}
		return nil
	})
	return created, err
}

// Run watches the roots until ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	for _, root := range w.roots {
		if err := w.addTree(fsw, root); err != nil {
			w.logger.Warn("Failed to watch library root", zap.String("root", root), zap.Error(err))
		}
	}
	w.logger.Info("Watching library roots", zap.Strings("roots", w.roots))

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, fsw, ev)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ctx context.Context, fsw *fsnotify.Watcher, ev fsnotify.Event) {
	if ev.Has(fsnotify.Create) {
		if fi, err := os.Stat(ev.Name); err == nil && fi.IsDir() {
			if err := w.addTree(fsw, ev.Name); err != nil {
				w.logger.Warn("Failed to watch folder", zap.String("path", ev.Name), zap.Error(err))
			}
			// Files may have landed before the watch was added.
			if _, err := w.scanTree(ctx, ev.Name); err != nil {
				w.logger.Warn("Failed to scan new folder", zap.String("path", ev.Name), zap.Error(err))
			}
			return
		}
	}

	switch {
	case utils.MatchBase(w.pattern, ev.Name):
		if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
			return
		}
		if _, err := w.host.Modified(ctx, ev.Name); err != nil {
			w.logger.Error("Failed to register reference file", zap.String("path", ev.Name), zap.Error(err))
		}
	case IsSubtitleFile(ev.Name):
		if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
			return
		}
		ref, ok := ReferenceFor(ev.Name, w.pattern)
		if !ok {
			return
		}
		if err := w.host.SubtitlesChanged(ctx, ref); err != nil {
			w.logger.Error("Failed to refresh subtitles", zap.String("path", ref), zap.Error(err))
		}
	}
}

func (w *Watcher) addTree(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return fsw.Add(path)
	})
}
