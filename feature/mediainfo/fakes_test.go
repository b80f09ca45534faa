package mediainfo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/library"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeLibrary is an in-memory Library.
type fakeLibrary struct {
	mu        sync.Mutex
	items     map[string]media.Item
	restored  []string
	probes    []string
	probeErr  error
	panicOn   string
	watermark time.Time
	wmErr     error
	saved     []time.Time
	sinces    []time.Time
	listGate  chan struct{}
	listed    chan struct{}
	onProbe   func(id string)
}

func newFakeLibrary(items ...media.Item) *fakeLibrary {
	l := &fakeLibrary{items: make(map[string]media.Item)}
	for _, it := range items {
		l.items[it.ID] = it
	}
	return l
}

func (l *fakeLibrary) GetItem(_ context.Context, id string) (*media.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	it, ok := l.items[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", library.ErrItemNotFound, id)
	}
	return &it, nil
}

func (l *fakeLibrary) ItemsModifiedSince(_ context.Context, since time.Time, match func(string) bool) ([]media.Item, error) {
	if l.listed != nil {
		l.listed <- struct{}{}
	}
	if l.listGate != nil {
		<-l.listGate
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.sinces = append(l.sinces, since)
	var out []media.Item
	for _, it := range l.items {
		if it.DateModified.After(since) && match(it.Path) {
			out = append(out, it)
		}
	}
	return out, nil
}

func (l *fakeLibrary) Restore(_ context.Context, id string, _ *backup.Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == l.panicOn {
		panic("restore exploded")
	}
	l.restored = append(l.restored, id)
	return nil
}

func (l *fakeLibrary) RequestProbe(_ context.Context, id string, _ media.ProbeOptions) error {
	if l.onProbe != nil {
		l.onProbe(id)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.probeErr != nil {
		return l.probeErr
	}
	l.probes = append(l.probes, id)
	return nil
}

func (l *fakeLibrary) LoadWatermark(context.Context) (time.Time, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.watermark, l.wmErr
}

func (l *fakeLibrary) SaveWatermark(_ context.Context, t time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.watermark = t
	l.saved = append(l.saved, t)
	return nil
}

func (l *fakeLibrary) restoredIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.restored...)
}

func (l *fakeLibrary) probedIDs() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string{}, l.probes...)
}

// refItem builds a reference-file item in dir.
func refItem(dir, id string, av bool, externalSubs int) media.Item {
	path := filepath.Join(dir, id+".strm")
	var streams []media.MediaStream
	if av {
		streams = append(streams,
			media.MediaStream{Index: 0, Type: media.StreamVideo, Codec: "h264", Width: 1920, Height: 1080},
			media.MediaStream{Index: 1, Type: media.StreamAudio, Codec: "aac", Channels: 2},
		)
	}
	for i := 0; i < externalSubs; i++ {
		streams = append(streams, media.MediaStream{
			Index:      10 + i,
			Type:       media.StreamSubtitle,
			Codec:      "srt",
			IsExternal: true,
			Path:       filepath.Join(dir, fmt.Sprintf("%s.%d.srt", id, i)),
		})
	}
	return media.Item{
		ID:               id,
		Path:             path,
		ContainingFolder: dir,
		DateModified:     time.Now(),
		MediaSources: []media.MediaSource{{
			ID:        id,
			Path:      path,
			Protocol:  "file",
			Container: "strm",
			Streams:   streams,
		}},
	}
}

func newTestStore() *backup.Store {
	cfg := backup.Config{Mode: backup.ModeSideBySide, Extension: "mediainfo.json", Backend: backup.BackendLocal}
	return backup.NewStore(backup.NewLocalFS(), cfg, nil, zap.NewNop())
}

// writeBackup stores a backup of an AV item with the given external subtitle count.
func writeBackup(t *testing.T, store *backup.Store, dir, id string, externalSubs int) {
	t.Helper()
	src := refItem(dir, id, true, externalSubs)
	require.NoError(t, store.Write(context.Background(), src, backup.NewRecord(src)))
}

func testConfig() reconcile.Config {
	return reconcile.Config{
		MaxRetries:      3,
		ResetMinutes:    60,
		CooldownSeconds: 0,
		DebounceMillis:  50,
		QueueSize:       16,
	}
}

func newTestReconciler(lib Library, store Backups, cfg reconcile.Config) *Reconciler {
	tracker := reconcile.NewTracker(cfg, reconcile.RealClock())
	return NewReconciler(lib, store, tracker, cfg, media.ProbeOptions{FullRefresh: true}, zap.NewNop())
}
