package watcher

import (
	"sort"
	"sync"
	"time"
)

// DefaultDebounceDuration is the default debounce window.
const DefaultDebounceDuration = 250 * time.Millisecond

// Debouncer coalesces bursts of per-path events. Every Trigger restarts the
// quiet period; when it elapses the callback receives each path touched
// during the burst exactly once, sorted.
type Debouncer struct {
	duration time.Duration
	timer    *time.Timer
	pending  map[string]struct{}
	mu       sync.Mutex
	seq      uint64
}

// NewDebouncer creates a Debouncer. If duration is 0, DefaultDebounceDuration
// is used.
func NewDebouncer(duration time.Duration) *Debouncer {
	if duration <= 0 {
		duration = DefaultDebounceDuration
	}
	return &Debouncer{
		duration: duration,
		pending:  make(map[string]struct{}),
	}
}

// Trigger records path and (re)schedules fire.
func (d *Debouncer) Trigger(path string, fire func(paths []string)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pending[path] = struct{}{}
	d.seq++
	seq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.duration, func() {
		paths, ok := d.take(seq)
		if !ok {
			return
		}
		fire(paths)
	})
}

// take drains the pending set if seq is still the latest trigger. A timer
// that fired concurrently with a newer Trigger or Cancel sees a stale seq
// and does nothing.
func (d *Debouncer) take(seq uint64) ([]string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if seq != d.seq {
		return nil, false
	}
	d.timer = nil
	paths := make([]string, 0, len(d.pending))
	for p := range d.pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	d.pending = make(map[string]struct{})
	return paths, true
}

// Cancel drops any pending callback and the paths collected for it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seq++
	d.pending = make(map[string]struct{})
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Duration returns the debounce duration.
func (d *Debouncer) Duration() time.Duration {
	return d.duration
}
