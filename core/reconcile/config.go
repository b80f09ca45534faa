package reconcile

import "time"

// Config holds configuration for the event reconciler and circuit breaker.
type Config struct {
	// MaxRetries is the number of probe attempts allowed per reset window.
	MaxRetries int `mapstructure:"max_retries" default:"3"`
	// ResetMinutes is the window after which a suppressed item may be probed again.
	ResetMinutes int `mapstructure:"reset_minutes" default:"60"`
	// CooldownSeconds is the minimum spacing between two counted attempts for one item.
	CooldownSeconds int `mapstructure:"cooldown_seconds" default:"10"`
	// DebounceMillis is the quiet period before an updated item is evaluated.
	DebounceMillis int `mapstructure:"debounce_millis" default:"1000"`
	// QueueSize bounds the event queue between the host and the reconciler.
	QueueSize int `mapstructure:"queue_size" default:"1024"`
}

// ResetInterval returns the breaker reset window.
func (c Config) ResetInterval() time.Duration {
	return time.Duration(c.ResetMinutes) * time.Minute
}

// Cooldown returns the short per-item retry cooldown.
func (c Config) Cooldown() time.Duration {
	return time.Duration(c.CooldownSeconds) * time.Second
}

// DebounceDelay returns the debounce quiet period.
func (c Config) DebounceDelay() time.Duration {
	return time.Duration(c.DebounceMillis) * time.Millisecond
}

// SweepConfig holds configuration for the bulk reconciliation sweep.
type SweepConfig struct {
	// Concurrency is the maximum number of items processed at once.
	Concurrency int `mapstructure:"concurrency" default:"2"`
	// RateLimitSeconds spaces probe-triggering actions across all workers. 0 disables.
	RateLimitSeconds float64 `mapstructure:"rate_limit_seconds" default:"3"`
	// IntervalMinutes schedules a sweep periodically. 0 disables the scheduler.
	IntervalMinutes int `mapstructure:"interval_minutes" default:"0"`
	// Pattern restricts the sweep to reference files matching this glob.
	Pattern string `mapstructure:"pattern" default:"*.strm"`
	// FullRefresh is passed to the host when requesting a probe.
	FullRefresh bool `mapstructure:"full_refresh" default:"true"`
	// ReplaceAllMetadata is passed to the host when requesting a probe.
	ReplaceAllMetadata bool `mapstructure:"replace_all_metadata" default:"false"`
}

// RateInterval returns the minimum spacing between probe starts.
func (c SweepConfig) RateInterval() time.Duration {
	if c.RateLimitSeconds <= 0 {
		return 0
	}
	return time.Duration(c.RateLimitSeconds * float64(time.Second))
}

// Interval returns the scheduler period.
func (c SweepConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMinutes) * time.Minute
}
