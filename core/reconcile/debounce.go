package reconcile

import (
	"sync"
	"time"
)

// Debouncer runs at most one pending callback per key, restarting the delay on
// every Schedule. Callbacks for the same key never run concurrently.
type Debouncer struct {
	mu      sync.Mutex
	pending map[string]*debounceEntry
	running map[string]chan struct{}
	seq     uint64
	stopped bool
	wg      sync.WaitGroup
}

type debounceEntry struct {
	timer *time.Timer
	gen   uint64
}

// NewDebouncer creates an empty Debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{
		pending: make(map[string]*debounceEntry),
		running: make(map[string]chan struct{}),
	}
}

// Schedule cancels any pending callback for id and arms fn to run after delay.
// Returns false once the debouncer is stopped.
func (d *Debouncer) Schedule(id string, delay time.Duration, fn func()) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return false
	}

	if prev, ok := d.pending[id]; ok {
		prev.timer.Stop()
	}
	d.seq++
	gen := d.seq
	entry := &debounceEntry{gen: gen}
	// fire blocks on d.mu until entry is registered below.
	entry.timer = time.AfterFunc(delay, func() { d.fire(id, gen, fn) })
	d.pending[id] = entry
	return true
}

func (d *Debouncer) fire(id string, gen uint64, fn func()) {
	d.mu.Lock()
	entry, ok := d.pending[id]
	if !ok || entry.gen != gen || d.stopped {
		d.mu.Unlock()
		return
	}
	delete(d.pending, id)

	prev := d.running[id]
	done := make(chan struct{})
	d.running[id] = done
	d.wg.Add(1)
	d.mu.Unlock()

	defer d.wg.Done()
	if prev != nil {
		<-prev
	}
	defer func() {
		d.mu.Lock()
		if d.running[id] == done {
			delete(d.running, id)
		}
		d.mu.Unlock()
		close(done)
	}()

	fn()
}

// Cancel drops the pending callback for id. Reports whether one was pending.
func (d *Debouncer) Cancel(id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	entry, ok := d.pending[id]
	if !ok {
		return false
	}
	entry.timer.Stop()
	delete(d.pending, id)
	return true
}

// Pending returns the number of armed callbacks.
func (d *Debouncer) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// Stop cancels every pending callback and waits for running ones to return.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for id, entry := range d.pending {
		entry.timer.Stop()
		delete(d.pending, id)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
