// Package server holds the HTTP server configuration.
//
// The entry point (cmd/start.go) owns the Fiber app; this package only
// defines the listen port, the optional API key and the shutdown bound.
package server
