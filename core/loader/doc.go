// Package loader registers HTTP features and runs their background work.
//
// A Feature mounts its routes on the router passed to Load. A Feature that
// also implements Runner (the mediainfo engine: event consumer and sweep
// scheduler) is started by StartAll after the routes are loaded and stopped
// by StopAll in reverse registration order.
//
// Disabled features are neither loaded nor started.
package loader
