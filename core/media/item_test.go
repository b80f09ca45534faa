package media_test

import (
	"testing"

	"mediainfo-keeper/core/media"

	"github.com/stretchr/testify/assert"
)

func TestItem_HasAudioVideo(t *testing.T) {
	tests := []struct {
		name    string
		streams []media.MediaStream
		want    bool
	}{
		{"NoStreams", nil, false},
		{"SubtitlesOnly", []media.MediaStream{{Type: media.StreamSubtitle, IsExternal: true}}, false},
		{"Audio", []media.MediaStream{{Type: media.StreamAudio}}, true},
		{"Video", []media.MediaStream{{Type: media.StreamSubtitle}, {Type: media.StreamVideo}}, true},
		{"ImageOnly", []media.MediaStream{{Type: media.StreamEmbeddedImage}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := media.Item{ID: "1", MediaSources: []media.MediaSource{{Streams: tt.streams}}}
			assert.Equal(t, tt.want, item.HasAudioVideo())
		})
	}
}

func TestItem_ExternalSubtitleCount(t *testing.T) {
	item := media.Item{
		ID: "1",
		MediaSources: []media.MediaSource{
			{Streams: []media.MediaStream{
				{Type: media.StreamVideo},
				{Type: media.StreamSubtitle, IsExternal: true},
				{Type: media.StreamSubtitle, IsExternal: false},
			}},
			{Streams: []media.MediaStream{
				{Type: media.StreamSubtitle, IsExternal: true},
			}},
		},
	}

	assert.Equal(t, 2, item.ExternalSubtitleCount())
	assert.Len(t, item.Streams(), 4)
}

func TestEvent_Validate(t *testing.T) {
	assert.NoError(t, media.Event{Kind: media.EventItemAdded, ItemID: "a"}.Validate())
	assert.NoError(t, media.Event{Kind: media.EventItemUpdated, ItemID: "a", Item: &media.Item{ID: "a"}}.Validate())

	assert.Error(t, media.Event{Kind: "removed", ItemID: "a"}.Validate())
	assert.Error(t, media.Event{Kind: media.EventItemAdded}.Validate())
	assert.Error(t, media.Event{Kind: media.EventItemUpdated, ItemID: "a", Item: &media.Item{ID: "b"}}.Validate())
}
