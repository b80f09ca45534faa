package mediainfo

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"mediainfo-keeper/core/media"
	"mediainfo-keeper/core/reconcile"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate_Restore(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	writeBackup(t, store, dir, "heat", 2)

	item := refItem(dir, "heat", false, 2)
	lib := newFakeLibrary(item)
	r := newTestReconciler(lib, store, testConfig())

	// A prior failure is cleared by a successful restore.
	r.tracker.Requested("heat")
	r.tracker.Requested("heat")
	require.Equal(t, 1, r.tracker.Len())

	out := r.Evaluate(context.Background(), item)
	assert.Equal(t, ResultDone, out.Result)
	assert.Equal(t, reconcile.ActionRestore, out.Decision.Action)
	assert.Equal(t, []string{"heat"}, lib.restoredIDs())
	assert.Equal(t, 0, r.tracker.Len())
	assert.EqualValues(t, 1, r.Stats().Restored)
}

func TestEvaluate_StaleBackup(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	writeBackup(t, store, dir, "heat", 2)

	item := refItem(dir, "heat", false, 3)
	lib := newFakeLibrary(item)
	r := newTestReconciler(lib, store, testConfig())

	out := r.Evaluate(context.Background(), item)
	assert.Equal(t, ResultDone, out.Result)
	assert.Equal(t, reconcile.ActionProbe, out.Decision.Action)
	assert.True(t, out.Decision.DeleteBackup)
	assert.NoFileExists(t, store.Path(item))
	assert.Equal(t, []string{"heat"}, lib.probedIDs())

	// The request is pending, not a failure yet.
	_, ok := r.tracker.Entry("heat")
	assert.False(t, ok)
}

func TestEvaluate_BackupThenNoOp(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	item := refItem(dir, "ronin", true, 1)
	r := newTestReconciler(newFakeLibrary(item), store, testConfig())

	out := r.Evaluate(context.Background(), item)
	assert.Equal(t, reconcile.ActionBackup, out.Decision.Action)
	first, err := os.ReadFile(store.Path(item))
	require.NoError(t, err)

	out = r.Evaluate(context.Background(), item)
	assert.Equal(t, reconcile.ActionNoOp, out.Decision.Action)
	assert.Equal(t, 1, out.State.SavedSubtitleCount)

	// Backing up an unchanged item again is byte-identical.
	require.NoError(t, r.backup(context.Background(), item))
	second, err := os.ReadFile(store.Path(item))
	require.NoError(t, err)
	assert.Equal(t, first, second)

	stats := r.Stats()
	assert.EqualValues(t, 1, stats.BackedUp)
	assert.EqualValues(t, 1, stats.NoOp)
}

func TestEvaluate_ProbeSuppressed(t *testing.T) {
	dir := t.TempDir()
	item := refItem(dir, "broken", false, 0)
	lib := newFakeLibrary(item)
	cfg := testConfig()
	cfg.MaxRetries = 2
	r := newTestReconciler(lib, newTestStore(), cfg)

	for i := 0; i < 2; i++ {
		assert.Equal(t, ResultDone, r.Evaluate(context.Background(), item).Result)
	}
	out := r.Evaluate(context.Background(), item)
	assert.Equal(t, ResultSuppressed, out.Result)
	assert.ErrorIs(t, out.Err, reconcile.ErrSuppressed)
	assert.Len(t, lib.probedIDs(), 2)
	assert.EqualValues(t, 1, r.Stats().Suppressed)
}

func TestEvaluate_CorruptBackupTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	item := refItem(dir, "heat", false, 0)
	require.NoError(t, os.WriteFile(store.Path(item), []byte("{not json"), 0o644))

	lib := newFakeLibrary(item)
	r := newTestReconciler(lib, store, testConfig())

	out := r.Evaluate(context.Background(), item)
	assert.Equal(t, reconcile.ActionProbe, out.Decision.Action)
	assert.False(t, out.State.BackupExists)
	assert.Empty(t, lib.restoredIDs())
	assert.Equal(t, []string{"heat"}, lib.probedIDs())
}

func TestEvaluate_ErrorsAreContained(t *testing.T) {
	dir := t.TempDir()

	t.Run("ProbeRequestFails", func(t *testing.T) {
		item := refItem(dir, "a", false, 0)
		lib := newFakeLibrary(item)
		lib.probeErr = errors.New("queue full")
		r := newTestReconciler(lib, newTestStore(), testConfig())

		out := r.Evaluate(context.Background(), item)
		assert.Equal(t, ResultFailed, out.Result)
		assert.ErrorIs(t, out.Err, reconcile.ErrProbeFailed)
		assert.EqualValues(t, 1, r.Stats().Failed)
	})

	t.Run("Panic", func(t *testing.T) {
		store := newTestStore()
		writeBackup(t, store, dir, "b", 0)
		item := refItem(dir, "b", false, 0)
		lib := newFakeLibrary(item)
		lib.panicOn = "b"
		r := newTestReconciler(lib, store, testConfig())

		var out Outcome
		assert.NotPanics(t, func() { out = r.Evaluate(context.Background(), item) })
		assert.Equal(t, ResultFailed, out.Result)
		assert.ErrorContains(t, out.Err, "restore exploded")
	})
}

func TestRun_DebouncesUpdates(t *testing.T) {
	dir := t.TempDir()
	store := newTestStore()
	bare := refItem(dir, "heat", false, 0)
	probed := refItem(dir, "heat", true, 0)
	lib := newFakeLibrary(probed)
	r := newTestReconciler(lib, store, testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = r.Run(ctx)
		close(done)
	}()

	for i := 0; i < 4; i++ {
		snapshot := bare
		require.NoError(t, r.Publish(ctx, media.Event{Kind: media.EventItemUpdated, ItemID: "heat", Item: &snapshot}))
	}
	require.NoError(t, r.Publish(ctx, media.Event{Kind: media.EventItemUpdated, ItemID: "heat", Item: &probed}))

	assert.Eventually(t, func() bool {
		return r.Stats().Evaluated == 1 && r.Stats().BackedUp == 1
	}, 2*time.Second, 10*time.Millisecond)

	// Only the last state was evaluated: no probe was requested.
	assert.Empty(t, lib.probedIDs())
	assert.FileExists(t, store.Path(probed))

	cancel()
	<-done
	assert.EqualValues(t, 1, r.Stats().Evaluated)
}

func TestRun_AddedWithoutSnapshot(t *testing.T) {
	dir := t.TempDir()
	item := refItem(dir, "new", false, 0)
	lib := newFakeLibrary(item)
	r := newTestReconciler(lib, newTestStore(), testConfig())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	require.NoError(t, r.TryPublish(media.Event{Kind: media.EventItemAdded, ItemID: "new"}))
	require.NoError(t, r.TryPublish(media.Event{Kind: media.EventItemAdded, ItemID: "missing"}))

	assert.Eventually(t, func() bool {
		return len(lib.probedIDs()) == 1 && r.Stats().Failed == 1
	}, time.Second, 5*time.Millisecond)
}

func TestTryPublish(t *testing.T) {
	cfg := testConfig()
	cfg.QueueSize = 1
	r := newTestReconciler(newFakeLibrary(), newTestStore(), cfg)

	require.NoError(t, r.TryPublish(media.Event{Kind: media.EventItemAdded, ItemID: "a"}))
	err := r.TryPublish(media.Event{Kind: media.EventItemAdded, ItemID: "b"})
	assert.ErrorIs(t, err, ErrQueueFull)

	assert.Error(t, r.TryPublish(media.Event{Kind: "deleted", ItemID: "c"}))

	stats := r.Stats()
	assert.EqualValues(t, 1, stats.Received)
	assert.EqualValues(t, 1, stats.Dropped)
	assert.Equal(t, 1, stats.Queued)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, r.Publish(ctx, media.Event{Kind: media.EventItemAdded, ItemID: "d"}), context.Canceled)
}
