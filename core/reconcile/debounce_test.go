package reconcile_test

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"mediainfo-keeper/core/reconcile"

	"github.com/stretchr/testify/assert"
)

func TestDebouncer_CollapsesBurst(t *testing.T) {
	d := reconcile.NewDebouncer()
	defer d.Stop()

	var (
		calls atomic.Int32
		last  atomic.Int32
	)
	for i := 1; i <= 10; i++ {
		state := int32(i)
		d.Schedule("item", 50*time.Millisecond, func() {
			calls.Add(1)
			last.Store(state)
		})
	}
	assert.Equal(t, 1, d.Pending())

	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(10), last.Load(), "evaluation uses the state of the last trigger")
	assert.Equal(t, 0, d.Pending())
}

func TestDebouncer_IndependentKeys(t *testing.T) {
	d := reconcile.NewDebouncer()
	defer d.Stop()

	var calls atomic.Int32
	for _, id := range []string{"a", "b", "c"} {
		d.Schedule(id, 10*time.Millisecond, func() { calls.Add(1) })
	}
	assert.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
}

func TestDebouncer_Cancel(t *testing.T) {
	d := reconcile.NewDebouncer()
	defer d.Stop()

	var calls atomic.Int32
	d.Schedule("item", 30*time.Millisecond, func() { calls.Add(1) })
	assert.True(t, d.Cancel("item"))
	assert.False(t, d.Cancel("item"))

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
}

func TestDebouncer_NoOverlapForSameKey(t *testing.T) {
	d := reconcile.NewDebouncer()
	defer d.Stop()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		calls   atomic.Int32
	)
	work := func() {
		mu.Lock()
		active++
		if active > maxSeen {
			maxSeen = active
		}
		mu.Unlock()

		time.Sleep(60 * time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		calls.Add(1)
	}

	d.Schedule("item", time.Millisecond, work)
	time.Sleep(20 * time.Millisecond)
	d.Schedule("item", time.Millisecond, work)

	assert.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 5*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, maxSeen)
}

func TestDebouncer_Stop(t *testing.T) {
	d := reconcile.NewDebouncer()

	var calls atomic.Int32
	d.Schedule("item", 30*time.Millisecond, func() { calls.Add(1) })
	d.Stop()

	assert.False(t, d.Schedule("other", time.Millisecond, func() { calls.Add(1) }))
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(0), calls.Load())
	assert.Equal(t, 0, d.Pending())
}
