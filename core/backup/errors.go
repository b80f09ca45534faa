package backup

import "errors"

var (
	// ErrNotFound means no backup exists for the item. Expected, not an error condition.
	ErrNotFound = errors.New("backup not found")
	// ErrCorrupt means the backup could not be parsed or failed schema validation.
	ErrCorrupt = errors.New("backup corrupt")
	// ErrIncompatibleSchema means the backup parsed but holds no usable media source.
	ErrIncompatibleSchema = errors.New("backup has no usable media source")
	// ErrPersistence wraps file system failures while writing or deleting.
	ErrPersistence = errors.New("backup persistence failed")
)
