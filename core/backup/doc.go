// Package backup owns the sidecar record that caches probed media metadata.
//
// A Record is written next to the reference file (side-by-side mode) or under
// a central root that mirrors the library folder layout (centralized mode).
// Records are sanitized before persisting: they never carry the item's
// identity, its file path, or any streaming/transcoding URL.
//
// # Storage Backends
//
// The Store is path-addressed and delegates I/O to a FileSystem:
//
//   - LocalFS: temp file + rename in the target directory, so concurrent
//     writers to the same path resolve as last-write-wins without partial files.
//   - ObjectFS: S3-compatible bucket through core/storage. Paths become object keys.
//
// # Errors
//
// Read distinguishes ErrNotFound (expected), ErrCorrupt (unparsable or fails the
// embedded JSON Schema) and ErrIncompatibleSchema (parsed, but no usable media
// source). Write failures wrap ErrPersistence.
//
// # Usage
//
//	store := backup.NewStore(backup.NewLocalFS(), cfg.Backup, cfg.Library.Roots, logger)
//	if err := store.Write(ctx, item, backup.NewRecord(item)); err != nil {
//	    logger.Error("backup failed", zap.Error(err))
//	}
package backup
