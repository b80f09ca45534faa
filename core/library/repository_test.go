package library

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/database"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	db, err := database.Connect(database.Config{Driver: "sqlite", Name: ":memory:"})
	require.NoError(t, err)

	repo := NewRepository(db)
	require.NoError(t, repo.Migrate())
	return repo
}

func sampleSource() media.MediaSource {
	return media.MediaSource{
		Protocol:     "http",
		Container:    "mkv",
		RunTimeTicks: 72000000000,
		Bitrate:      5000000,
		Streams: []media.MediaStream{
			{Index: 0, Type: media.StreamVideo, Codec: "hevc", Width: 3840, Height: 2160},
			{Index: 1, Type: media.StreamAudio, Codec: "eac3", Channels: 6, Language: "eng"},
		},
		Chapters: []media.Chapter{{StartPositionTicks: 0, Name: "Start"}},
	}
}

func TestRepository_UpsertAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	item, created, err := repo.Upsert(ctx, "/media/movies/Heat/Heat.strm")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "/media/movies/Heat", item.ContainingFolder)
	assert.False(t, item.HasAudioVideo())

	again, created, err := repo.Upsert(ctx, "/media/movies/Heat/../Heat/Heat.strm")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, item.ID, again.ID)

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, item.Path, got.Path)

	_, err = repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrItemNotFound)
	assert.ErrorIs(t, repo.Touch(ctx, "missing"), ErrItemNotFound)
}

func TestRepository_SaveProbeResultKeepsExternalSubtitles(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	item, _, err := repo.Upsert(ctx, "/media/a.strm")
	require.NoError(t, err)

	changed, err := repo.ReplaceExternalSubtitles(ctx, item.ID, []media.MediaStream{
		{Type: media.StreamSubtitle, Codec: "subrip", Path: "/media/a.en.srt", Language: "en"},
	})
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, repo.SaveProbeResult(ctx, item.ID, sampleSource()))

	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.HasAudioVideo())
	assert.Equal(t, 1, got.ExternalSubtitleCount())
	assert.Len(t, got.Streams(), 3)
	assert.Equal(t, "mkv", got.MediaSources[0].Container)
	assert.Equal(t, []media.Chapter{{StartPositionTicks: 0, Name: "Start"}}, got.MediaSources[0].Chapters)
	assert.False(t, got.DateLastSaved.IsZero())

	require.NoError(t, repo.ClearStreams(ctx, item.ID))
	got, err = repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.False(t, got.HasAudioVideo())
	assert.Equal(t, 1, got.ExternalSubtitleCount(), "clearing forgets probed streams only")
}

func TestRepository_ApplySnapshot(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	item, _, err := repo.Upsert(ctx, "/media/a.strm")
	require.NoError(t, err)

	probed := *item
	probed.MediaSources = []media.MediaSource{sampleSource()}
	rec := backup.NewRecord(probed)

	require.NoError(t, repo.ApplySnapshot(ctx, item.ID, rec))
	got, err := repo.Get(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, got.HasAudioVideo())
	assert.Equal(t, int64(72000000000), got.MediaSources[0].RunTimeTicks)

	err = repo.ApplySnapshot(ctx, item.ID, &backup.Record{})
	assert.ErrorIs(t, err, backup.ErrIncompatibleSchema)

	err = repo.ApplySnapshot(ctx, "missing", rec)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRepository_ReplaceExternalSubtitlesUnchanged(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)
	item, _, err := repo.Upsert(ctx, "/media/a.strm")
	require.NoError(t, err)

	subs := []media.MediaStream{{Type: media.StreamSubtitle, Path: "/media/a.srt"}}
	changed, err := repo.ReplaceExternalSubtitles(ctx, item.ID, subs)
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = repo.ReplaceExternalSubtitles(ctx, item.ID, subs)
	require.NoError(t, err)
	assert.False(t, changed)

	changed, err = repo.ReplaceExternalSubtitles(ctx, item.ID, nil)
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestRepository_ModifiedSince(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	repo.now = func() time.Time { return clock }

	_, _, err := repo.Upsert(ctx, "/media/old.strm")
	require.NoError(t, err)
	clock = base.Add(time.Hour)
	_, _, err = repo.Upsert(ctx, "/media/new.strm")
	require.NoError(t, err)
	_, _, err = repo.Upsert(ctx, "/media/other.mkv")
	require.NoError(t, err)

	all, err := repo.ModifiedSince(ctx, time.Time{}, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	strm := func(p string) bool { return filepath.Ext(p) == ".strm" }
	recent, err := repo.ModifiedSince(ctx, base.Add(30*time.Minute), strm)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "/media/new.strm", recent[0].Path)

	none, err := repo.ModifiedSince(ctx, base.Add(2*time.Hour), nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestRepository_Watermark(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepository(t)

	wm, err := repo.LoadWatermark(ctx)
	require.NoError(t, err)
	assert.True(t, wm.IsZero())

	first := time.Date(2024, 5, 1, 10, 0, 0, 123456789, time.UTC)
	require.NoError(t, repo.SaveWatermark(ctx, first))
	wm, err = repo.LoadWatermark(ctx)
	require.NoError(t, err)
	assert.True(t, first.Equal(wm))

	second := first.Add(time.Hour)
	require.NoError(t, repo.SaveWatermark(ctx, second))
	wm, err = repo.LoadWatermark(ctx)
	require.NoError(t, err)
	assert.True(t, second.Equal(wm))

	require.NoError(t, repo.db.Model(&SettingModel{}).Where("1 = 1").Update("value", "yesterday").Error)
	_, err = repo.LoadWatermark(ctx)
	assert.ErrorIs(t, err, reconcile.ErrConfigUnavailable)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}
