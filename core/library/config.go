package library

import "time"

// Config holds configuration for the library host.
type Config struct {
	// Roots are the library source folders. Separated by commas in env vars.
	Roots []string `mapstructure:"roots" default:"/media"`
	// ProbeWorkers is the number of concurrent probe workers.
	ProbeWorkers int `mapstructure:"probe_workers" default:"2"`
	// ProbeQueue bounds pending probe requests.
	ProbeQueue int `mapstructure:"probe_queue" default:"256"`
	// ProbeTimeoutSeconds bounds a single probe.
	ProbeTimeoutSeconds int `mapstructure:"probe_timeout_seconds" default:"120"`
	// FFProbePath is the ffprobe binary.
	FFProbePath string `mapstructure:"ffprobe_path" default:"ffprobe"`
	// Watch enables file system notifications for the roots.
	Watch bool `mapstructure:"watch" default:"true"`
}

// ProbeTimeout returns the per-probe timeout.
func (c Config) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutSeconds) * time.Second
}
