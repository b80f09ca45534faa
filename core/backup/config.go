package backup

// Config holds configuration for backup placement and storage.
type Config struct {
	// Mode is the placement policy: side_by_side or centralized.
	Mode string `mapstructure:"mode" default:"side_by_side"`
	// Root is the central directory used in centralized mode.
	Root string `mapstructure:"root" default:""`
	// Extension is appended to the reference file stem, e.g. "Movie.mediainfo.json".
	Extension string `mapstructure:"extension" default:"mediainfo.json"`
	// Backend selects where records are persisted: local or s3.
	Backend string `mapstructure:"backend" default:"local"`
	// Prefix is the object key prefix used by the s3 backend.
	Prefix string `mapstructure:"prefix" default:"mediainfo"`
}

const (
	ModeSideBySide  = "side_by_side"
	ModeCentralized = "centralized"

	BackendLocal = "local"
	BackendS3    = "s3"
)

// IsValidMode checks if the configured placement mode is known.
func (c Config) IsValidMode() bool {
	switch c.Mode {
	case ModeSideBySide, ModeCentralized:
		return true
	default:
		return false
	}
}

// IsValidBackend checks if the configured backend is known.
func (c Config) IsValidBackend() bool {
	switch c.Backend {
	case BackendLocal, BackendS3:
		return true
	default:
		return false
	}
}
