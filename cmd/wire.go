package cmd

import (
	"context"
	"fmt"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/config"
	"mediainfo-keeper/core/database"
	"mediainfo-keeper/core/library"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/storage"
	"mediainfo-keeper/feature/integrity"
	"mediainfo-keeper/feature/integrity/checks"
	"mediainfo-keeper/feature/mediainfo"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// components is everything a command needs, built once from the configuration.
type components struct {
	cfg       *config.Config
	logger    *zap.Logger
	db        *gorm.DB
	storage   storage.Client
	host      *library.Host
	backups   *backup.Store
	mediainfo *mediainfo.Service
	integrity *integrity.Service
}

// build connects the library database, creates the backup store and wires
// host notifications into the reconciler. Nothing is started.
func build(cfg *config.Config, logg *zap.Logger) (*components, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("database connection required: %w", err)
	}
	logg = logg.With(zap.String("driver", cfg.Database.Driver))

	repo := library.NewRepository(db)
	if err := repo.Migrate(); err != nil {
		return nil, fmt.Errorf("failed to migrate library schema: %w", err)
	}

	client, err := storage.NewClient(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %w", err)
	}
	fs, err := backup.NewFileSystem(cfg.Backup, client, cfg.Storage.Bucket)
	if err != nil {
		return nil, err
	}
	store := backup.NewStore(fs, cfg.Backup, cfg.Library.Roots, logg)

	host := library.NewHost(repo, library.NewFFProbe(cfg.Library.FFProbePath), cfg.Library, logg)
	svc := mediainfo.NewService(host, store, cfg.Reconcile, cfg.Sweep, logg)
	host.Subscribe(func(evt media.Event) {
		if err := svc.Ingest(evt); err != nil {
			logg.Warn("Notification dropped", zap.String("item_id", evt.ItemID), zap.String("kind", string(evt.Kind)), zap.Error(err))
		}
	})

	target := checks.StorageTarget{
		Backup: cfg.Backup,
		Roots:  cfg.Library.Roots,
		Client: client,
		Bucket: cfg.Storage.Bucket,
		Region: cfg.Storage.Region,
	}

	return &components{
		cfg:       cfg,
		logger:    logg,
		db:        db,
		storage:   client,
		host:      host,
		backups:   store,
		mediainfo: svc,
		integrity: integrity.NewService(target, host, store, cfg.Sweep.Pattern, db, logg),
	}, nil
}

// ensureBucket creates the backup bucket when records go to object storage.
func (c *components) ensureBucket(ctx context.Context) error {
	if c.cfg.Backup.Backend != backup.BackendS3 {
		return nil
	}
	return storage.EnsureBucket(ctx, c.storage, c.cfg.Storage.Bucket, c.cfg.Storage.Region)
}

// close releases the database connection.
func (c *components) close() {
	if sqlDB, err := c.db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// drain waits until the host has no probe in flight and the reconciler has
// nothing queued or debounced. Two idle observations in a row are required
// since a finished probe leaves the in-flight set just before its
// notification reaches the reconciler queue.
func (c *components) drain(ctx context.Context, poll time.Duration) error {
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	idle := 0
	for idle < 2 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		stats := c.mediainfo.Stats()
		if c.host.Probing() == 0 && stats.Pending == 0 && stats.Queued == 0 {
			idle++
		} else {
			idle = 0
		}
	}
	return nil
}
