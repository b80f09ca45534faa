// Package media defines the host-side view of a library item that the
// reconciliation engine reads and writes.
//
// The types mirror what a media server knows about an item whose canonical
// file is a reference (.strm) file: its identity, paths, and the technical
// metadata produced by probing (media sources, streams, chapters).
//
// # Observable State
//
// Two derived signals drive every reconciliation decision:
//
//   - HasAudioVideo: at least one known stream is audio or video.
//   - ExternalSubtitleCount: number of subtitle streams loaded from sidecar files.
//
// # Events
//
// Event is the typed change notification pushed by the host (or by the
// library watcher) into the reconciler's bounded queue.
package media
