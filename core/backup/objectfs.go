package backup

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"mediainfo-keeper/core/storage"

	"github.com/minio/minio-go/v7"
)

// ObjectFS stores records in an S3-compatible bucket.
// Record paths are mapped to object keys under Prefix.
type ObjectFS struct {
	client storage.Client
	bucket string
	prefix string
}

// NewObjectFS creates an ObjectFS for the given bucket and key prefix.
func NewObjectFS(client storage.Client, bucket, prefix string) *ObjectFS {
	return &ObjectFS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

// Key returns the object key for a record path.
func (o *ObjectFS) Key(p string) string {
	rel := strings.TrimLeft(filepath.ToSlash(p), "/")
	if len(rel) >= 2 && rel[1] == ':' {
		rel = rel[:1] + rel[2:]
	}
	if o.prefix == "" {
		return path.Clean(rel)
	}
	return path.Join(o.prefix, rel)
}

// Exists implements FileSystem.
func (o *ObjectFS) Exists(ctx context.Context, p string) (bool, error) {
	_, err := o.client.StatObject(ctx, o.bucket, o.Key(p), minio.StatObjectOptions{})
	if err == nil {
		return true, nil
	}
	if isNoSuchKey(err) {
		return false, nil
	}
	return false, err
}

// ReadFile implements FileSystem.
func (o *ObjectFS) ReadFile(ctx context.Context, p string) ([]byte, error) {
	key := o.Key(p)
	obj, err := o.client.GetObject(ctx, o.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	defer obj.Close()

	// minio defers the request until the first read.
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return nil, err
	}
	return data, nil
}

// WriteFile implements FileSystem. PutObject replaces the object atomically.
func (o *ObjectFS) WriteFile(ctx context.Context, p string, data []byte) error {
	_, err := o.client.PutObject(ctx, o.bucket, o.Key(p), bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	return err
}

// Remove implements FileSystem.
func (o *ObjectFS) Remove(ctx context.Context, p string) error {
	err := o.client.RemoveObject(ctx, o.bucket, o.Key(p), minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		return err
	}
	return nil
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}

// NewFileSystem builds the FileSystem selected by cfg.Backend.
// client may be nil for the local backend.
func NewFileSystem(cfg Config, client storage.Client, bucket string) (FileSystem, error) {
	switch cfg.Backend {
	case BackendLocal, "":
		return NewLocalFS(), nil
	case BackendS3:
		if client == nil {
			return nil, fmt.Errorf("backup backend %q requires a storage client", cfg.Backend)
		}
		return NewObjectFS(client, bucket, cfg.Prefix), nil
	default:
		return nil, fmt.Errorf("unknown backup backend %q", cfg.Backend)
	}
}
