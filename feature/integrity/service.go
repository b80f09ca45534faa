package integrity

import (
	"context"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/feature/integrity/checks"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service handles integrity checks.
type Service struct {
	target  checks.StorageTarget
	items   checks.ItemSource
	store   *backup.Store
	pattern string
	db      *gorm.DB
	logger  *zap.Logger
}

// NewService creates a new integrity service.
func NewService(target checks.StorageTarget, items checks.ItemSource, store *backup.Store, pattern string, db *gorm.DB, logger *zap.Logger) *Service {
	return &Service{
		target:  target,
		items:   items,
		store:   store,
		pattern: pattern,
		db:      db,
		logger:  logger,
	}
}

// CheckStorage reports missing backup locations.
func (s *Service) CheckStorage(ctx context.Context) (*checks.StorageReport, error) {
	return checks.CheckStorage(ctx, s.target)
}

// FixStorage creates the missing backup location.
func (s *Service) FixStorage(ctx context.Context, report *checks.StorageReport) error {
	return checks.FixStorage(ctx, s.target, s.logger, report)
}

// CheckServer validates the library schema.
func (s *Service) CheckServer() (*checks.ServerReport, error) {
	return checks.CheckServerIntegrity(s.db)
}

// CheckBackups reports backup coverage of the reference items.
func (s *Service) CheckBackups(ctx context.Context) (*checks.BackupReport, error) {
	return checks.CheckBackups(ctx, s.items, s.store, s.pattern)
}

// CheckAll runs every check and collects the results by name.
func (s *Service) CheckAll(ctx context.Context) map[string]any {
	report := make(map[string]any)

	if storageReport, err := s.CheckStorage(ctx); err != nil {
		report["storage"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		report["storage"] = storageReport
	}

	if srvReport, err := s.CheckServer(); err != nil {
		report["server"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		report["server"] = srvReport
	}

	if backupReport, err := s.CheckBackups(ctx); err != nil {
		report["backups"] = map[string]any{"status": "error", "error": err.Error()}
	} else {
		report["backups"] = backupReport
	}

	return report
}
