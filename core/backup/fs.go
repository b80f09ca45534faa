package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// FileSystem is the path-addressed persistence used by Store.
type FileSystem interface {
	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)
	// ReadFile returns the file content or an error wrapping ErrNotFound.
	ReadFile(ctx context.Context, path string) ([]byte, error)
	// WriteFile replaces the file at path atomically.
	WriteFile(ctx context.Context, path string, data []byte) error
	// Remove deletes the file. Missing files are not an error.
	Remove(ctx context.Context, path string) error
}

// LocalFS stores records on the local file system.
type LocalFS struct {
	// FileMode is applied to written records.
	FileMode os.FileMode
}

// NewLocalFS creates a LocalFS writing 0644 files.
func NewLocalFS() *LocalFS {
	return &LocalFS{FileMode: 0o644}
}

// Exists implements FileSystem.
func (l *LocalFS) Exists(_ context.Context, path string) (bool, error) {
	fi, err := os.Stat(path)
	if err == nil {
		return fi.Mode().IsRegular(), nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

// ReadFile implements FileSystem.
func (l *LocalFS) ReadFile(_ context.Context, path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	return data, err
}

// WriteFile writes to a temp file in the target directory and renames it
// over path, so readers never observe a partial record.
func (l *LocalFS) WriteFile(_ context.Context, path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
	}()

	if _, err := tmp.Write(data); err != nil {
		return err
	}
	if err := tmp.Chmod(l.FileMode); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	syncDir(dir)
	return nil
}

// Remove implements FileSystem.
func (l *LocalFS) Remove(_ context.Context, path string) error {
	err := os.Remove(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// syncDir flushes the directory entry. Best effort: not all platforms support it.
func syncDir(dir string) {
	if runtime.GOOS == "windows" {
		return
	}
	f, err := os.Open(dir)
	if err != nil {
		return
	}
	defer f.Close()
	_ = f.Sync()
}
