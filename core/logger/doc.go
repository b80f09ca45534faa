// Package logger builds the zap logger shared by the server, the CLI and the
// reconciliation engine.
//
// The debug level selects zap's development config with ISO8601 timestamps;
// any other level selects the production config. An unknown level is an error.
//
// # Request Correlation
//
// WithRayID copies the ray id set by the rayid middleware into a child
// logger, so every line logged while handling a request can be correlated:
//
//	l := logger.WithRayID(log, c)
//	l.Error("Sweep failed", zap.Error(err))
//
// # Configuration
//
//   - LOG_LEVEL: debug, info, warn, error
//   - LOG_FORMAT: json or console
package logger
