// Package library is the host-side model of the media library.
//
// It stores items, their streams and chapters, and plugin settings through
// GORM (tables library_items, library_streams, library_chapters and
// plugin_settings), and provides the capabilities the reconciliation engine
// consumes from its host:
//
//   - Repository: item lookup, incremental queries by modification time,
//     snapshot restore, probe result persistence, and the sweep watermark.
//   - Host: a bounded probe worker pool. RequestProbe returns immediately;
//     every finished probe, successful or not, publishes an updated event.
//   - FFProbe: the Prober that resolves a reference file to its target and
//     runs ffprobe against it.
//   - Watcher: fsnotify-based discovery of reference files and sidecar
//     subtitles under the configured library roots.
//
// # Reference Files
//
// A reference file (*.strm) holds a single line naming the real media
// location, either a URL or a local path. Lines starting with '#' are ignored.
package library
