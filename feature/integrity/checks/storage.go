package checks

import (
	"context"
	"fmt"
	"os"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/storage"

	"go.uber.org/zap"
)

// StorageReport describes whether the backup backend can be reached.
type StorageReport struct {
	Backend   string   `json:"backend"`
	Mode      string   `json:"mode"`
	Locations []string `json:"locations"`
	Missing   []string `json:"missing"`
	Status    string   `json:"status"` // "ok", "error"
}

// StorageTarget is everything the storage check needs to know.
type StorageTarget struct {
	Backup backup.Config
	// Roots are the library roots; side-by-side backups live inside them.
	Roots  []string
	Client storage.Client
	Bucket string
	Region string
}

// CheckStorage reports backup locations that do not exist.
// Local side-by-side mode checks the library roots, local centralized mode
// the backup root, and the s3 backend the bucket.
func CheckStorage(ctx context.Context, target StorageTarget) (*StorageReport, error) {
	report := &StorageReport{
		Backend: target.Backup.Backend,
		Mode:    target.Backup.Mode,
		Missing: []string{},
		Status:  "ok",
	}

	switch target.Backup.Backend {
	case backup.BackendS3:
		if target.Client == nil {
			return nil, fmt.Errorf("storage client is not configured")
		}
		report.Locations = []string{target.Bucket}
		exists, err := target.Client.BucketExists(ctx, target.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to check bucket existence: %w", err)
		}
		if !exists {
			report.Missing = append(report.Missing, target.Bucket)
		}
	default:
		report.Locations = target.Roots
		if target.Backup.Mode == backup.ModeCentralized && target.Backup.Root != "" {
			report.Locations = []string{target.Backup.Root}
		}
		for _, dir := range report.Locations {
			info, err := os.Stat(dir)
			if err != nil || !info.IsDir() {
				report.Missing = append(report.Missing, dir)
			}
		}
	}

	if len(report.Missing) > 0 {
		report.Status = "error"
	}
	return report, nil
}

// FixStorage creates the missing bucket or centralized backup root.
// Library roots are never created.
func FixStorage(ctx context.Context, target StorageTarget, logger *zap.Logger, report *StorageReport) error {
	if target.Backup.Backend == backup.BackendS3 {
		if err := storage.EnsureBucket(ctx, target.Client, target.Bucket, target.Region); err != nil {
			logger.Error("Failed to create bucket", zap.String("bucket", target.Bucket), zap.Error(err))
			return err
		}
		logger.Info("Created missing bucket", zap.String("bucket", target.Bucket))
		return nil
	}

	if target.Backup.Mode != backup.ModeCentralized || target.Backup.Root == "" {
		return fmt.Errorf("missing library roots cannot be fixed: %v", report.Missing)
	}
	if err := os.MkdirAll(target.Backup.Root, 0o755); err != nil {
		logger.Error("Failed to create backup root", zap.String("root", target.Backup.Root), zap.Error(err))
		return err
	}
	logger.Info("Created missing backup root", zap.String("root", target.Backup.Root))
	return nil
}
