package media

import "time"

// StreamType identifies the kind of a media stream.
type StreamType string

const (
	// StreamAudio is an audio stream.
	StreamAudio StreamType = "audio"
	// StreamVideo is a video stream.
	StreamVideo StreamType = "video"
	// StreamSubtitle is a subtitle stream, embedded or external.
	StreamSubtitle StreamType = "subtitle"
	// StreamEmbeddedImage is cover art carried inside the container.
	StreamEmbeddedImage StreamType = "embedded_image"
	// StreamData is any other stream (timecode, attachments).
	StreamData StreamType = "data"
)

// Item is a library item as seen by the reconciler.
// ID is the stable identity; all per-item state is keyed by it.
type Item struct {
	// ID is the opaque unique identifier assigned by the host.
	ID string `json:"id"`

	// Path is the canonical file path (the reference file). May be empty.
	Path string `json:"path"`

	// ContainingFolder is the folder holding the item, used when Path is empty.
	ContainingFolder string `json:"containing_folder"`

	// DateModified is the last time the host changed the item.
	DateModified time.Time `json:"date_modified"`

	// DateLastSaved is the last time technical metadata was saved for the item.
	DateLastSaved time.Time `json:"date_last_saved"`

	// MediaSources holds the currently known technical metadata.
	MediaSources []MediaSource `json:"media_sources"`
}

// MediaSource is one playable version of an item with its technical metadata.
type MediaSource struct {
	ID              string        `json:"id"`
	Path            string        `json:"path"`
	Protocol        string        `json:"protocol"`
	TranscodingURL  string        `json:"transcoding_url,omitempty"`
	DirectStreamURL string        `json:"direct_stream_url,omitempty"`
	Container       string        `json:"container"`
	RunTimeTicks    int64         `json:"run_time_ticks"`
	Bitrate         int           `json:"bitrate"`
	Size            int64         `json:"size"`
	Streams         []MediaStream `json:"streams"`
	Chapters        []Chapter     `json:"chapters"`
}

// MediaStream describes a single decoded stream.
type MediaStream struct {
	Index       int        `json:"index"`
	Type        StreamType `json:"type"`
	Codec       string     `json:"codec"`
	Language    string     `json:"language,omitempty"`
	Title       string     `json:"title,omitempty"`
	IsExternal  bool       `json:"is_external"`
	IsDefault   bool       `json:"is_default"`
	IsForced    bool       `json:"is_forced"`
	Path        string     `json:"path,omitempty"`
	DeliveryURL string     `json:"delivery_url,omitempty"`
	Channels    int        `json:"channels,omitempty"`
	SampleRate  int        `json:"sample_rate,omitempty"`
	Width       int        `json:"width,omitempty"`
	Height      int        `json:"height,omitempty"`
	BitRate     int        `json:"bit_rate,omitempty"`
	FrameRate   float64    `json:"frame_rate,omitempty"`
	Profile     string     `json:"profile,omitempty"`
	PixelFormat string     `json:"pixel_format,omitempty"`
}

// Chapter marks a named position in the runtime.
type Chapter struct {
	StartPositionTicks int64  `json:"start_position_ticks"`
	Name               string `json:"name"`
}

// Streams returns every stream across all media sources.
func (i Item) Streams() []MediaStream {
	var out []MediaStream
	for _, src := range i.MediaSources {
		out = append(out, src.Streams...)
	}
	return out
}

// HasAudioVideo reports whether at least one known stream is audio or video.
func (i Item) HasAudioVideo() bool {
	for _, s := range i.Streams() {
		if s.Type == StreamAudio || s.Type == StreamVideo {
			return true
		}
	}
	return false
}

// ExternalSubtitleCount returns the number of subtitle streams loaded from external files.
func (i Item) ExternalSubtitleCount() int {
	n := 0
	for _, s := range i.Streams() {
		if s.Type == StreamSubtitle && s.IsExternal {
			n++
		}
	}
	return n
}

// ProbeOptions controls how the host refreshes an item's technical metadata.
type ProbeOptions struct {
	// FullRefresh forces a full metadata refresh instead of a validation pass.
	FullRefresh bool `json:"full_refresh"`
	// ReplaceAllMetadata discards previously known streams before probing.
	ReplaceAllMetadata bool `json:"replace_all_metadata"`
}
