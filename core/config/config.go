package config

import (
	"fmt"
	"reflect"
	"strings"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/database"
	"mediainfo-keeper/core/library"
	"mediainfo-keeper/core/logger"
	"mediainfo-keeper/core/reconcile"
	"mediainfo-keeper/core/server"
	"mediainfo-keeper/core/storage"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// It is divided into partial configurations for better modularity.
type Config struct {
	// Server holds configuration for the HTTP server.
	Server server.Config `mapstructure:"server"`
	// Storage holds configuration for the object storage backup backend.
	Storage storage.Config `mapstructure:"storage"`
	// Log holds configuration for the logger.
	Log logger.Config `mapstructure:"log"`
	// Database holds configuration for the library database.
	Database database.Config `mapstructure:"database"`
	// Library holds the media roots and probe settings.
	Library library.Config `mapstructure:"library"`
	// Backup holds the backup placement and backend.
	Backup backup.Config `mapstructure:"backup"`
	// Reconcile holds the event path settings (breaker, debounce, queue).
	Reconcile reconcile.Config `mapstructure:"reconcile"`
	// Sweep holds the bulk refresh settings.
	Sweep reconcile.SweepConfig `mapstructure:"sweep"`
}

// LoadConfig loads configuration from environment variables and .env file.
func LoadConfig(path string) (*Config, error) {
	envPath := path + "/.env"
	if path == "." {
		envPath = ".env"
	}

	// Ignore error if file doesn't exist (e.g. production)
	_ = godotenv.Overload(envPath)

	v := viper.New()

	// Recursively parse struct tags to set default values
	bindValues(v, Config{}, "")

	// Map environment variables to nested keys (e.g. BACKUP_MODE -> backup.mode)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects settings that would make the engine misbehave.
func (c *Config) Validate() error {
	if !c.Backup.IsValidMode() {
		return fmt.Errorf("invalid backup mode %q", c.Backup.Mode)
	}
	if !c.Backup.IsValidBackend() {
		return fmt.Errorf("invalid backup backend %q", c.Backup.Backend)
	}
	if c.Backup.Mode == backup.ModeCentralized && c.Backup.Root == "" && c.Backup.Backend == backup.BackendLocal {
		return fmt.Errorf("backup mode %s requires backup.root", backup.ModeCentralized)
	}
	if c.Sweep.Concurrency < 1 {
		return fmt.Errorf("sweep concurrency must be at least 1, got %d", c.Sweep.Concurrency)
	}
	if c.Sweep.RateLimitSeconds < 0 {
		return fmt.Errorf("sweep rate limit must not be negative, got %v", c.Sweep.RateLimitSeconds)
	}
	if c.Reconcile.QueueSize < 1 {
		return fmt.Errorf("reconcile queue size must be at least 1, got %d", c.Reconcile.QueueSize)
	}
	return nil
}

// bindValues uses reflection to iterate over the struct and set default values in Viper
// based on the 'default' and 'mapstructure' tags.
func bindValues(v *viper.Viper, iface any, prefix string) {
	t := reflect.TypeOf(iface)

	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag := field.Tag.Get("mapstructure")

		if tag == "" {
			continue
		}

		key := tag
		if prefix != "" {
			key = prefix + "." + tag
		}

		if field.Type.Kind() == reflect.Struct {
			bindValues(v, reflect.New(field.Type).Elem().Interface(), key)
			continue
		}

		// Always set default (even if empty) to register the key for AutomaticEnv
		v.SetDefault(key, field.Tag.Get("default"))
	}
}
