package clock

import (
	"sync"
	"time"
)

// Debouncer groups rapid successive calls into a single callback that runs
// after a quiet period.
//
// Thread-safety: All methods are safe for concurrent use. The callback is
// never run while the debouncer's lock is held.
type Debouncer struct {
	mu       sync.Mutex
	clock    Clock
	delay    time.Duration
	timer    Timer
	pending  bool
	seq      uint64 // detects stale timer callbacks
	callback func()
}

// NewDebouncer creates a debouncer. A nil clock means Real.
func NewDebouncer(c Clock, delay time.Duration, callback func()) *Debouncer {
	if c == nil {
		c = Real{}
	}
	return &Debouncer{
		clock:    c,
		delay:    delay,
		callback: callback,
	}
}

// Call schedules the callback, restarting the quiet period.
func (d *Debouncer) Call() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = true
	d.seq++
	currentSeq := d.seq

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.pending && d.seq == currentSeq && d.callback != nil {
			d.pending = false
			d.timer = nil
			d.mu.Unlock()
			d.callback()
			return
		}
		d.mu.Unlock()
	})
}

// Flush runs the callback now if a call is pending, cancelling the
// scheduled run. It reports whether the callback ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++

	if d.pending && d.callback != nil {
		d.pending = false
		d.mu.Unlock()
		d.callback()
		return true
	}
	d.mu.Unlock()
	return false
}

// Cancel drops any pending call.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.seq++
	d.pending = false
}

// IsPending reports whether a call is waiting for its quiet period.
func (d *Debouncer) IsPending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// SetDelay changes the quiet period for subsequent calls.
func (d *Debouncer) SetDelay(delay time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.delay = delay
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.delay
}
