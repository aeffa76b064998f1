package history

import (
	"sync"
	"time"

	"github.com/dshills/composer/internal/clock"
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/logging"
)

// DefaultCoalesceDelay is the quiet period that ends a burst of changes.
const DefaultCoalesceDelay = 350 * time.Millisecond

// Recorder coalesces document changes into history entries.
//
// Thread-safety: All methods are safe for concurrent use. With a real
// clock the burst is pushed from a timer goroutine.
type Recorder struct {
	mu sync.Mutex

	stack    *Stack
	debounce *clock.Debouncer
	log      *logging.Logger
	onPush   func(Info)

	// Baseline: the last observed document and its signature.
	last    document.Document
	lastSig string

	// Open burst, if any.
	pending      *document.Snapshot
	pendingLabel string
}

// RecorderOption configures a Recorder.
type RecorderOption func(*recorderConfig)

type recorderConfig struct {
	clock  clock.Clock
	delay  time.Duration
	log    *logging.Logger
	onPush func(Info)
}

// WithClock sets the clock driving the coalescing delay.
func WithClock(c clock.Clock) RecorderOption {
	return func(cfg *recorderConfig) {
		cfg.clock = c
	}
}

// WithDelay sets the coalescing delay.
func WithDelay(d time.Duration) RecorderOption {
	return func(cfg *recorderConfig) {
		if d > 0 {
			cfg.delay = d
		}
	}
}

// WithLogger sets the recorder's logger.
func WithLogger(l *logging.Logger) RecorderOption {
	return func(cfg *recorderConfig) {
		cfg.log = l
	}
}

// WithOnPush registers a function called after each burst is pushed.
func WithOnPush(fn func(Info)) RecorderOption {
	return func(cfg *recorderConfig) {
		cfg.onPush = fn
	}
}

// NewRecorder creates a recorder writing to stack. The baseline starts as
// an empty document; call Reset with the initial document.
func NewRecorder(stack *Stack, opts ...RecorderOption) *Recorder {
	cfg := recorderConfig{
		clock: clock.Real{},
		delay: DefaultCoalesceDelay,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.log == nil {
		cfg.log = logging.Null()
	}

	r := &Recorder{
		stack:  stack,
		log:    cfg.log,
		onPush: cfg.onPush,
	}
	r.debounce = clock.NewDebouncer(cfg.clock, cfg.delay, func() { r.commit() })
	r.lastSig = document.Signature(r.last)
	return r
}

// Stack returns the underlying stack.
func (r *Recorder) Stack() *Stack {
	return r.stack
}

// Reset makes doc the baseline and drops any open burst without pushing it.
func (r *Recorder) Reset(doc document.Document) {
	r.debounce.Cancel()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = nil
	r.pendingLabel = ""
	r.setBaselineLocked(doc)
}

// Observe records a document transition. It reports whether doc differs
// from the previous document in its persistent fields.
func (r *Recorder) Observe(doc document.Document) bool {
	return r.ObserveLabeled(doc, "")
}

// ObserveLabeled is Observe with a description of the change. A burst
// keeps the label of its first change.
func (r *Recorder) ObserveLabeled(doc document.Document, label string) bool {
	sig := document.Signature(doc)

	r.mu.Lock()
	if sig == r.lastSig {
		// Selection-only change.
		r.last = doc
		r.mu.Unlock()
		return false
	}

	if r.pending == nil {
		snap := document.Capture(r.last)
		if shallow := snap.Shallow(); len(shallow) > 0 {
			r.log.Warn("snapshot shares non-cloneable values: %v", shallow)
		}
		r.pending = &snap
		r.pendingLabel = label
	}
	r.last = doc
	r.lastSig = sig
	r.mu.Unlock()

	r.debounce.Call()
	return true
}

// Pending reports whether a burst is waiting for its quiet period.
func (r *Recorder) Pending() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending != nil
}

// Flush pushes the open burst now. It reports whether an entry was pushed.
func (r *Recorder) Flush() bool {
	ran := r.debounce.Flush()

	// The debouncer may already have handed the burst to a timer
	// goroutine; commit is idempotent.
	return r.commit() || ran
}

// commit pushes the open burst, if any.
func (r *Recorder) commit() bool {
	r.mu.Lock()
	if r.pending == nil {
		r.mu.Unlock()
		return false
	}
	snap := *r.pending
	label := r.pendingLabel
	r.pending = nil
	r.pendingLabel = ""
	onPush := r.onPush
	r.mu.Unlock()

	r.stack.PushLabeled(snap, label)
	if onPush != nil {
		onPush(Info{Label: label})
	}
	return true
}

// Undo flushes any open burst and exchanges current for the previous
// state. The result becomes the new baseline. It returns current and
// false when there is nothing to undo.
func (r *Recorder) Undo(current document.Document) (document.Document, bool) {
	r.Flush()

	snap, ok := r.stack.Undo(document.Capture(current))
	if !ok {
		return current, false
	}
	return r.replay(snap, current), true
}

// Redo flushes any open burst and exchanges current for the next state.
// An edit made since the last undo clears the redo stack, so Redo then
// returns false.
func (r *Recorder) Redo(current document.Document) (document.Document, bool) {
	r.Flush()

	snap, ok := r.stack.Redo(document.Capture(current))
	if !ok {
		return current, false
	}
	return r.replay(snap, current), true
}

func (r *Recorder) replay(snap document.Snapshot, current document.Document) document.Document {
	doc := snap.Restore(current)

	r.mu.Lock()
	r.setBaselineLocked(doc)
	r.mu.Unlock()
	return doc
}

// SetDelay changes the coalescing delay for later changes.
func (r *Recorder) SetDelay(d time.Duration) {
	if d > 0 {
		r.debounce.SetDelay(d)
	}
}

// Delay returns the coalescing delay.
func (r *Recorder) Delay() time.Duration {
	return r.debounce.Delay()
}

// Close cancels the timer. An open burst is dropped.
func (r *Recorder) Close() {
	r.debounce.Cancel()

	r.mu.Lock()
	r.pending = nil
	r.mu.Unlock()
}

func (r *Recorder) setBaselineLocked(doc document.Document) {
	r.last = doc
	r.lastSig = document.Signature(doc)
}
