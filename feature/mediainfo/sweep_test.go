package mediainfo

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mediainfo-keeper/core/backup"
	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testSweepConfig() reconcile.SweepConfig {
	return reconcile.SweepConfig{
		Concurrency:      2,
		RateLimitSeconds: 0,
		Pattern:          "*.strm",
		FullRefresh:      true,
	}
}

func newTestSweeper(lib Library, store Backups, cfg reconcile.SweepConfig) *Sweeper {
	tracker := reconcile.NewTracker(testConfig(), reconcile.RealClock())
	return NewSweeper(lib, store, tracker, cfg, zap.NewNop())
}

func TestSweep_Actions(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	writeBackup(t, store, dir, "restore-me", 0)
	writeBackup(t, store, dir, "healthy", 0)

	other := refItem(dir, "not-a-reference", false, 0)
	other.Path = filepath.Join(dir, "movie.mkv")

	lib := newFakeLibrary(
		refItem(dir, "restore-me", false, 0),
		refItem(dir, "probe-me", false, 0),
		refItem(dir, "leave-me", true, 0),
		refItem(dir, "healthy", true, 0),
		other,
	)

	var updates []Progress
	var mu sync.Mutex
	s := newTestSweeper(lib, store, testSweepConfig())
	s.OnProgress(func(p Progress) {
		mu.Lock()
		updates = append(updates, p)
		mu.Unlock()
	})

	start := time.Now()
	report, err := s.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)

	assert.Equal(t, SweepCompleted, report.Status)
	assert.Equal(t, 4, report.Total)
	assert.Equal(t, 4, report.Processed)
	assert.Equal(t, 1, report.Restored)
	assert.Equal(t, 1, report.Probed)
	assert.Equal(t, 2, report.Skipped)
	assert.Zero(t, report.Failed)

	assert.Equal(t, []string{"restore-me"}, lib.restoredIDs())
	assert.Equal(t, []string{"probe-me"}, lib.probedIDs())

	require.NotNil(t, report.Watermark)
	assert.True(t, report.Watermark.After(report.StartedAt))
	assert.False(t, report.StartedAt.Before(start))
	require.Len(t, lib.saved, 1)
	assert.Equal(t, *report.Watermark, lib.saved[0])

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, updates, 4)
	assert.Equal(t, Progress{Processed: 4, Total: 4}, updates[3])
}

func TestSweep_UsesWatermark(t *testing.T) {
	dir := t.TempDir()
	old := refItem(dir, "old", false, 0)
	old.DateModified = time.Now().Add(-2 * time.Hour)
	fresh := refItem(dir, "fresh", false, 0)

	lib := newFakeLibrary(old, fresh)
	lib.watermark = time.Now().Add(-time.Hour)

	s := newTestSweeper(lib, newTestStore(), testSweepConfig())
	report, err := s.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Total)
	assert.Equal(t, []string{"fresh"}, lib.probedIDs())

	report, err = s.Run(context.Background(), SweepOptions{Full: true})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Total)
	assert.True(t, lib.sinces[1].IsZero())
}

func TestSweep_DryRun(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	writeBackup(t, store, dir, "b", 0)

	lib := newFakeLibrary(refItem(dir, "c", true, 0), refItem(dir, "a", false, 0), refItem(dir, "b", false, 0))
	s := newTestSweeper(lib, store, testSweepConfig())

	report, err := s.Run(context.Background(), SweepOptions{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, 3, report.Processed)
	assert.Nil(t, report.Watermark)
	assert.Empty(t, lib.saved)
	assert.Empty(t, lib.probedIDs())
	assert.Empty(t, lib.restoredIDs())

	require.Len(t, report.Planned, 3)
	assert.Equal(t, "a", report.Planned[0].ItemID)
	assert.Equal(t, reconcile.ActionProbe, report.Planned[0].Decision.Action)
	assert.Equal(t, reconcile.ActionRestore, report.Planned[1].Decision.Action)
	assert.Equal(t, reconcile.ActionBackup, report.Planned[2].Decision.Action)
}

func TestSweep_Cancelled(t *testing.T) {
	dir := t.TempDir()
	lib := newFakeLibrary(refItem(dir, "a", false, 0), refItem(dir, "b", false, 0))
	s := newTestSweeper(lib, newTestStore(), testSweepConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := s.Run(ctx, SweepOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, SweepCancelled, report.Status)
	assert.Zero(t, report.Processed)
	assert.Empty(t, lib.saved)
}

func TestSweep_CancelledMidRun(t *testing.T) {
	dir := t.TempDir()
	var items []media.Item
	for i := 0; i < 10; i++ {
		items = append(items, refItem(dir, fmt.Sprintf("item-%02d", i), false, 0))
	}
	lib := newFakeLibrary(items...)

	cfg := testSweepConfig()
	cfg.Concurrency = 1
	cfg.RateLimitSeconds = 0.05
	s := newTestSweeper(lib, newTestStore(), cfg)

	ctx, cancel := context.WithCancel(context.Background())
	lib.onProbe = func(string) {
		if len(lib.probedIDs()) == 1 {
			cancel()
		}
	}

	report, err := s.Run(ctx, SweepOptions{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, SweepCancelled, report.Status)
	assert.Less(t, report.Processed, 10)
	assert.Empty(t, lib.saved)
}

func TestSweep_WatermarkUnavailable(t *testing.T) {
	lib := newFakeLibrary()
	lib.wmErr = fmt.Errorf("%w: bad value", reconcile.ErrConfigUnavailable)
	s := newTestSweeper(lib, newTestStore(), testSweepConfig())

	report, err := s.Run(context.Background(), SweepOptions{})
	assert.ErrorIs(t, err, reconcile.ErrConfigUnavailable)
	assert.Equal(t, SweepFailed, report.Status)
	assert.NotEmpty(t, report.Error)
}

func TestSweep_SuppressedItems(t *testing.T) {
	dir := t.TempDir()
	lib := newFakeLibrary(refItem(dir, "broken", false, 0))
	s := newTestSweeper(lib, newTestStore(), testSweepConfig())

	for i := 0; i < 3; i++ {
		s.tracker.Requested("broken")
	}

	report, err := s.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Suppressed)
	assert.Empty(t, lib.probedIDs())
}

// gaugeBackups reports no backups and tracks how many items are in flight
// between the first backup lookup and the probe request.
type gaugeBackups struct {
	Backups
	mu     sync.Mutex
	active int
	max    int
}

func (g *gaugeBackups) Read(ctx context.Context, item media.Item) (*backup.Record, error) {
	g.mu.Lock()
	g.active++
	if g.active > g.max {
		g.max = g.active
	}
	g.mu.Unlock()
	return nil, backup.ErrNotFound
}

func (g *gaugeBackups) done(string) {
	time.Sleep(20 * time.Millisecond)
	g.mu.Lock()
	g.active--
	g.mu.Unlock()
}

func TestSweep_BoundedAndPaced(t *testing.T) {
	dir := t.TempDir()
	var items []media.Item
	for i := 0; i < 5; i++ {
		items = append(items, refItem(dir, fmt.Sprintf("item-%d", i), false, 0))
	}
	lib := newFakeLibrary(items...)
	gauge := &gaugeBackups{Backups: newTestStore()}
	lib.onProbe = gauge.done

	cfg := testSweepConfig()
	cfg.Concurrency = 2
	cfg.RateLimitSeconds = 0.1
	s := newTestSweeper(lib, gauge, cfg)

	start := time.Now()
	report, err := s.Run(context.Background(), SweepOptions{})
	require.NoError(t, err)
	elapsed := time.Since(start)

	assert.Equal(t, 5, report.Probed)
	assert.GreaterOrEqual(t, elapsed, 4*100*time.Millisecond)
	assert.LessOrEqual(t, gauge.max, 2)
}
