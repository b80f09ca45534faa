// Package storage wraps the MinIO Go client for the object storage backup
// backend (AWS S3 or a self-hosted MinIO instance).
//
// The Client interface abstracts the provider so that tests can use the
// testify mock in core/storage/mocks.
//
// # Operations
//
//   - BucketExists / MakeBucket, combined by EnsureBucket at startup.
//   - PutObject, GetObject, StatObject, RemoveObject: single-record access.
//   - ListObjects, filtered by ListKeys for coverage reports.
//
// # Usage
//
//	client, err := storage.NewClient(cfg.Storage)
//	err = storage.EnsureBucket(ctx, client, cfg.Storage.Bucket, cfg.Storage.Region)
package storage
