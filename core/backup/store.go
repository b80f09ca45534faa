package backup

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/utils"

	"go.uber.org/zap"
)

// Store reads and writes backup records for library items.
type Store struct {
	fs     FileSystem
	cfg    Config
	roots  []string
	logger *zap.Logger
}

// NewStore creates a Store. roots are the library roots used to compute
// the relative folder layout in centralized mode.
func NewStore(fs FileSystem, cfg Config, roots []string, logger *zap.Logger) *Store {
	if cfg.Extension == "" {
		cfg.Extension = "mediainfo.json"
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{fs: fs, cfg: cfg, roots: roots, logger: logger}
}

// Config returns the placement configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Path computes where the item's record lives.
//
// Side-by-side: <dir of path>/<stem>.<ext>.
// Centralized: <root>/<path relative to its library root>/<stem>.<ext>, falling
// back to side-by-side when the path is outside every library root.
// Items without a path use <containing folder>/<id>.<ext>.
func (s *Store) Path(item media.Item) string {
	ext := strings.TrimPrefix(s.cfg.Extension, ".")
	if item.Path == "" {
		return filepath.Join(item.ContainingFolder, item.ID+"."+ext)
	}

	name := utils.Stem(item.Path) + "." + ext
	if s.cfg.Mode == ModeCentralized && s.cfg.Root != "" {
		if _, rel, ok := utils.LongestRoot(s.roots, item.Path); ok {
			return filepath.Join(s.cfg.Root, filepath.Dir(rel), name)
		}
	}
	return filepath.Join(filepath.Dir(item.Path), name)
}

// Exists reports whether a record is present for the item.
func (s *Store) Exists(ctx context.Context, item media.Item) (bool, error) {
	ok, err := s.fs.Exists(ctx, s.Path(item))
	if err != nil {
		return false, fmt.Errorf("%w: stat %s: %w", ErrPersistence, s.Path(item), err)
	}
	return ok, nil
}

// Read loads the item's record.
func (s *Store) Read(ctx context.Context, item media.Item) (*Record, error) {
	path := s.Path(item)
	data, err := s.fs.ReadFile(ctx, path)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: read %s: %w", ErrPersistence, path, err)
	}

	rec, err := Decode(data)
	if err != nil {
		s.logger.Warn("Unusable backup record",
			zap.String("item_id", item.ID),
			zap.String("path", path),
			zap.Error(err))
		return nil, err
	}
	return rec, nil
}

// Write persists rec as the item's record, replacing any previous one.
func (s *Store) Write(ctx context.Context, item media.Item, rec *Record) error {
	path := s.Path(item)
	data, err := Encode(rec)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if err := s.fs.WriteFile(ctx, path, data); err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrPersistence, path, err)
	}
	s.logger.Debug("Backup written",
		zap.String("item_id", item.ID),
		zap.String("path", path),
		zap.Int("sources", len(rec.MediaSources)))
	return nil
}

// Delete removes the item's record. Missing records are ignored.
func (s *Store) Delete(ctx context.Context, item media.Item) error {
	path := s.Path(item)
	if err := s.fs.Remove(ctx, path); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrPersistence, path, err)
	}
	s.logger.Debug("Backup deleted", zap.String("item_id", item.ID), zap.String("path", path))
	return nil
}

// SavedExternalSubtitleCount returns the external subtitle count stored in
// the item's record, or 0 when there is no readable record.
func (s *Store) SavedExternalSubtitleCount(ctx context.Context, item media.Item) int {
	rec, err := s.Read(ctx, item)
	if err != nil {
		return 0
	}
	return rec.ExternalSubtitleCount
}
