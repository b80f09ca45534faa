package backup

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mediainfo-keeper/core/media"
)

const (
	// Producer identifies records written by this service.
	Producer = "mediainfo-keeper"
	// FormatVersion is bumped when the record layout changes incompatibly.
	FormatVersion = "1"
)

// ProducerVersion is stamped into every record. Overridden at build time.
var ProducerVersion = "dev"

// Record is the persisted snapshot of an item's technical metadata.
// It holds no identity, paths, or URLs so it stays valid across hosts.
type Record struct {
	Producer              string                `json:"producer"`
	ProducerVersion       string                `json:"producer_version"`
	FormatVersion         string                `json:"format_version"`
	ExternalSubtitleCount int                   `json:"external_subtitle_count"`
	MediaSources          []MediaSourceSnapshot `json:"media_sources"`
}

// MediaSourceSnapshot is a sanitized media.MediaSource.
type MediaSourceSnapshot struct {
	Protocol     string           `json:"protocol,omitempty"`
	Container    string           `json:"container"`
	RunTimeTicks int64            `json:"run_time_ticks"`
	Bitrate      int              `json:"bitrate"`
	Size         int64            `json:"size"`
	Streams      []StreamSnapshot `json:"streams"`
	Chapters     []media.Chapter  `json:"chapters"`
}

// StreamSnapshot is a sanitized embedded media.MediaStream.
type StreamSnapshot struct {
	Index       int              `json:"index"`
	Type        media.StreamType `json:"type"`
	Codec       string           `json:"codec"`
	Language    string           `json:"language,omitempty"`
	Title       string           `json:"title,omitempty"`
	IsDefault   bool             `json:"is_default"`
	IsForced    bool             `json:"is_forced"`
	Channels    int              `json:"channels,omitempty"`
	SampleRate  int              `json:"sample_rate,omitempty"`
	Width       int              `json:"width,omitempty"`
	Height      int              `json:"height,omitempty"`
	BitRate     int              `json:"bit_rate,omitempty"`
	FrameRate   float64          `json:"frame_rate,omitempty"`
	Profile     string           `json:"profile,omitempty"`
	PixelFormat string           `json:"pixel_format,omitempty"`
}

// NewRecord snapshots the item's current technical metadata.
// External subtitle streams are counted but not stored: the host rediscovers
// them from the sidecar files, and their identity is a file path.
func NewRecord(item media.Item) *Record {
	rec := &Record{
		Producer:              Producer,
		ProducerVersion:       ProducerVersion,
		FormatVersion:         FormatVersion,
		ExternalSubtitleCount: item.ExternalSubtitleCount(),
		MediaSources:          make([]MediaSourceSnapshot, 0, len(item.MediaSources)),
	}
	for _, src := range item.MediaSources {
		snap := MediaSourceSnapshot{
			Protocol:     src.Protocol,
			Container:    src.Container,
			RunTimeTicks: src.RunTimeTicks,
			Bitrate:      src.Bitrate,
			Size:         src.Size,
			Streams:      make([]StreamSnapshot, 0, len(src.Streams)),
			Chapters:     append([]media.Chapter{}, src.Chapters...),
		}
		for _, s := range src.Streams {
			if s.IsExternal {
				continue
			}
			snap.Streams = append(snap.Streams, StreamSnapshot{
				Index:       s.Index,
				Type:        s.Type,
				Codec:       s.Codec,
				Language:    s.Language,
				Title:       s.Title,
				IsDefault:   s.IsDefault,
				IsForced:    s.IsForced,
				Channels:    s.Channels,
				SampleRate:  s.SampleRate,
				Width:       s.Width,
				Height:      s.Height,
				BitRate:     s.BitRate,
				FrameRate:   s.FrameRate,
				Profile:     s.Profile,
				PixelFormat: s.PixelFormat,
			})
		}
		rec.MediaSources = append(rec.MediaSources, snap)
	}
	return rec
}

// HasUsableSource reports whether at least one media source carries streams.
func (r *Record) HasUsableSource() bool {
	for _, src := range r.MediaSources {
		if len(src.Streams) > 0 {
			return true
		}
	}
	return false
}

// ToMediaSource rebuilds a host media source from the snapshot.
// Identity and paths are left for the host to fill in.
func (s MediaSourceSnapshot) ToMediaSource() media.MediaSource {
	out := media.MediaSource{
		Protocol:     s.Protocol,
		Container:    s.Container,
		RunTimeTicks: s.RunTimeTicks,
		Bitrate:      s.Bitrate,
		Size:         s.Size,
		Streams:      make([]media.MediaStream, 0, len(s.Streams)),
		Chapters:     append([]media.Chapter{}, s.Chapters...),
	}
	for _, st := range s.Streams {
		out.Streams = append(out.Streams, media.MediaStream{
			Index:       st.Index,
			Type:        st.Type,
			Codec:       st.Codec,
			Language:    st.Language,
			Title:       st.Title,
			IsDefault:   st.IsDefault,
			IsForced:    st.IsForced,
			Channels:    st.Channels,
			SampleRate:  st.SampleRate,
			Width:       st.Width,
			Height:      st.Height,
			BitRate:     st.BitRate,
			FrameRate:   st.FrameRate,
			Profile:     st.Profile,
			PixelFormat: st.PixelFormat,
		})
	}
	return out
}

// Encode serializes the record deterministically: fixed field order,
// two-space indent, trailing newline, no timestamps.
func Encode(rec *Record) ([]byte, error) {
	norm := *rec
	if norm.MediaSources == nil {
		norm.MediaSources = []MediaSourceSnapshot{}
	}
	sources := make([]MediaSourceSnapshot, len(norm.MediaSources))
	for i, src := range norm.MediaSources {
		if src.Streams == nil {
			src.Streams = []StreamSnapshot{}
		}
		if src.Chapters == nil {
			src.Chapters = []media.Chapter{}
		}
		sources[i] = src
	}
	norm.MediaSources = sources

	data, err := json.MarshalIndent(&norm, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode backup record: %w", err)
	}
	return append(data, '\n'), nil
}

// Decode parses and validates a record.
// Returns ErrCorrupt for malformed or schema-invalid data and
// ErrIncompatibleSchema when no usable media source is present.
func Decode(data []byte) (*Record, error) {
	if err := validateRecord(data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	var rec Record
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if !rec.HasUsableSource() {
		return nil, ErrIncompatibleSchema
	}
	return &rec, nil
}
