// Package config loads the application configuration.
//
// Values come from struct tag defaults, an optional .env file (godotenv) and
// environment variables (viper), with dots mapped to underscores:
// LIBRARY_ROOTS=/media/movies,/media/shows sets library.roots.
//
// # Sections
//
//   - Server: HTTP port, API key, shutdown bound
//   - Database: library database driver (sqlite, mysql, postgres)
//   - Storage: S3/MinIO credentials for the s3 backup backend
//   - Log: level and format
//   - Library: media roots, watcher and ffprobe settings
//   - Backup: placement mode, root, extension, backend
//   - Reconcile: failure breaker, debounce and queue size
//   - Sweep: bulk refresh concurrency, rate limit and schedule
//
// # Usage
//
//	cfg, err := config.LoadConfig(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
package config
