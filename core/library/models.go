package library

import (
	"time"

	"mediainfo-keeper/core/media"
)

// ItemModel is a library item with its single media source flattened in.
type ItemModel struct {
	ID               string         `gorm:"column:id;type:varchar(64);primaryKey"`
	Path             string         `gorm:"column:path;type:varchar(512);uniqueIndex"`
	ContainingFolder string         `gorm:"column:containing_folder;type:varchar(512)"`
	Protocol         string         `gorm:"column:protocol;type:varchar(16)"`
	Container        string         `gorm:"column:container;type:varchar(64)"`
	RunTimeTicks     int64          `gorm:"column:run_time_ticks"`
	Bitrate          int            `gorm:"column:bitrate"`
	Size             int64          `gorm:"column:size"`
	DateModified     time.Time      `gorm:"column:date_modified;index"`
	DateLastSaved    *time.Time     `gorm:"column:date_last_saved"`
	Streams          []StreamModel  `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
	Chapters         []ChapterModel `gorm:"foreignKey:ItemID;constraint:OnDelete:CASCADE"`
}

func (ItemModel) TableName() string {
	return "library_items"
}

// StreamModel is one stream of an item.
type StreamModel struct {
	ID          uint    `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID      string  `gorm:"column:item_id;type:varchar(64);index"`
	StreamIndex int     `gorm:"column:stream_index"`
	Type        string  `gorm:"column:type;type:varchar(32)"`
	Codec       string  `gorm:"column:codec;type:varchar(64)"`
	Language    string  `gorm:"column:language;type:varchar(16)"`
	Title       string  `gorm:"column:title;type:varchar(255)"`
	IsExternal  bool    `gorm:"column:is_external"`
	IsDefault   bool    `gorm:"column:is_default"`
	IsForced    bool    `gorm:"column:is_forced"`
	Path        string  `gorm:"column:path;type:varchar(512)"`
	Channels    int     `gorm:"column:channels"`
	SampleRate  int     `gorm:"column:sample_rate"`
	Width       int     `gorm:"column:width"`
	Height      int     `gorm:"column:height"`
	BitRate     int     `gorm:"column:bit_rate"`
	FrameRate   float64 `gorm:"column:frame_rate"`
	Profile     string  `gorm:"column:profile;type:varchar(64)"`
	PixelFormat string  `gorm:"column:pixel_format;type:varchar(32)"`
}

func (StreamModel) TableName() string {
	return "library_streams"
}

// ChapterModel is a chapter marker of an item.
type ChapterModel struct {
	ID                 uint   `gorm:"column:id;primaryKey;autoIncrement"`
	ItemID             string `gorm:"column:item_id;type:varchar(64);index"`
	StartPositionTicks int64  `gorm:"column:start_position_ticks"`
	Name               string `gorm:"column:name;type:varchar(255)"`
}

func (ChapterModel) TableName() string {
	return "library_chapters"
}

// SettingModel is a persisted plugin setting.
type SettingModel struct {
	Key   string `gorm:"column:key;type:varchar(128);primaryKey"`
	Value string `gorm:"column:value;type:text"`
}

func (SettingModel) TableName() string {
	return "plugin_settings"
}

// Models lists every table owned by the library, for migration and integrity checks.
func Models() []any {
	return []any{&ItemModel{}, &StreamModel{}, &ChapterModel{}, &SettingModel{}}
}

// toItem converts a row with preloaded streams and chapters.
func (m ItemModel) toItem() media.Item {
	item := media.Item{
		ID:               m.ID,
		Path:             m.Path,
		ContainingFolder: m.ContainingFolder,
		DateModified:     m.DateModified,
	}
	if m.DateLastSaved != nil {
		item.DateLastSaved = *m.DateLastSaved
	}
	src := media.MediaSource{
		ID:           m.ID,
		Path:         m.Path,
		Protocol:     m.Protocol,
		Container:    m.Container,
		RunTimeTicks: m.RunTimeTicks,
		Bitrate:      m.Bitrate,
		Size:         m.Size,
	}
	for _, s := range m.Streams {
		src.Streams = append(src.Streams, s.toStream())
	}
	for _, c := range m.Chapters {
		src.Chapters = append(src.Chapters, media.Chapter{StartPositionTicks: c.StartPositionTicks, Name: c.Name})
	}
	item.MediaSources = []media.MediaSource{src}
	return item
}

func (s StreamModel) toStream() media.MediaStream {
	return media.MediaStream{
		Index:       s.StreamIndex,
		Type:        media.StreamType(s.Type),
		Codec:       s.Codec,
		Language:    s.Language,
		Title:       s.Title,
		IsExternal:  s.IsExternal,
		IsDefault:   s.IsDefault,
		IsForced:    s.IsForced,
		Path:        s.Path,
		Channels:    s.Channels,
		SampleRate:  s.SampleRate,
		Width:       s.Width,
		Height:      s.Height,
		BitRate:     s.BitRate,
		FrameRate:   s.FrameRate,
		Profile:     s.Profile,
		PixelFormat: s.PixelFormat,
	}
}

func fromStream(itemID string, s media.MediaStream) StreamModel {
	return StreamModel{
		ItemID:      itemID,
		StreamIndex: s.Index,
		Type:        string(s.Type),
		Codec:       s.Codec,
		Language:    s.Language,
		Title:       s.Title,
		IsExternal:  s.IsExternal,
		IsDefault:   s.IsDefault,
		IsForced:    s.IsForced,
		Path:        s.Path,
		Channels:    s.Channels,
		SampleRate:  s.SampleRate,
		Width:       s.Width,
		Height:      s.Height,
		BitRate:     s.BitRate,
		FrameRate:   s.FrameRate,
		Profile:     s.Profile,
		PixelFormat: s.PixelFormat,
	}
}
