package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/composer/internal/clock"
	"github.com/dshills/composer/internal/logging"
)

// DefaultReloadDelay groups the burst of write events an editor produces
// when saving into one reload.
const DefaultReloadDelay = 100 * time.Millisecond

// Observer receives the new configuration after a successful reload.
type Observer func(cfg Config)

type observerEntry struct {
	id uint64
	fn Observer
}

// Watcher keeps a Config in sync with a file on disk.
//
// The file's directory is watched rather than the file itself, so saves
// that replace the file (write to a temporary file, then rename) are seen.
type Watcher struct {
	mu sync.Mutex

	path    string
	fsw     *fsnotify.Watcher
	log     *logging.Logger
	clk     clock.Clock
	delay   time.Duration
	reload  *clock.Debouncer
	current Config

	observers []observerEntry
	nextID    uint64

	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

// WatchOption configures a Watcher.
type WatchOption func(*Watcher)

// WithWatchLogger sets the watcher's logger.
func WithWatchLogger(l *logging.Logger) WatchOption {
	return func(w *Watcher) {
		if l != nil {
			w.log = l
		}
	}
}

// WithWatchClock sets the clock used to delay reloads.
func WithWatchClock(c clock.Clock) WatchOption {
	return func(w *Watcher) {
		if c != nil {
			w.clk = c
		}
	}
}

// WithReloadDelay sets how long the file must be quiet before a reload.
func WithReloadDelay(d time.Duration) WatchOption {
	return func(w *Watcher) {
		if d >= 0 {
			w.delay = d
		}
	}
}

// Watch loads the file at path and starts watching it for changes.
func Watch(path string, opts ...WatchOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Load(abs)
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		path:    abs,
		log:     logging.Null(),
		clk:     clock.Real{},
		delay:   DefaultReloadDelay,
		current: cfg,
		closeCh: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.log = w.log.WithComponent("config")
	w.reload = clock.NewDebouncer(w.clk, w.delay, func() {
		_ = w.Reload()
	})

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	w.fsw = fsw

	w.wg.Add(1)
	go w.processLoop()
	return w, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string {
	return w.path
}

// Current returns the most recently loaded configuration.
func (w *Watcher) Current() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// OnChange registers fn to run after each reload that changes the
// configuration. The returned function removes it.
func (w *Watcher) OnChange(fn Observer) func() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.nextID++
	id := w.nextID
	w.observers = append(w.observers, observerEntry{id: id, fn: fn})
	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		for i, o := range w.observers {
			if o.id == id {
				w.observers = append(w.observers[:i:i], w.observers[i+1:]...)
				return
			}
		}
	}
}

// Reload loads the file now. On failure the current configuration is kept
// and the error is returned. Observers run only when the loaded
// configuration differs from the current one.
func (w *Watcher) Reload() error {
	cfg, err := Load(w.path)
	if err != nil {
		w.log.Warn("reload of %s failed, keeping previous config: %v", w.path, err)
		return err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWatcherClosed
	}
	if cfg.Equal(w.current) {
		w.mu.Unlock()
		return nil
	}
	w.current = cfg
	observers := make([]observerEntry, len(w.observers))
	copy(observers, w.observers)
	w.mu.Unlock()

	w.log.Info("reloaded %s", w.path)
	for _, o := range observers {
		o.fn(cfg)
	}
	return nil
}

// Close stops watching. It is safe to call more than once.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.reload.Cancel()
	err := w.fsw.Close()
	w.wg.Wait()
	return err
}

func (w *Watcher) processLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.closeCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.reload.Call()
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error: %v", err)
		}
	}
}
