package editor

import (
	"context"
	"sync"

	"github.com/dshills/composer/internal/clock"
	"github.com/dshills/composer/internal/config"
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/event"
	"github.com/dshills/composer/internal/event/topic"
	"github.com/dshills/composer/internal/gesture"
	"github.com/dshills/composer/internal/history"
	"github.com/dshills/composer/internal/input/key"
	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
	"github.com/dshills/composer/internal/logging"
	"github.com/dshills/composer/internal/store"
)

// eventSource is the Metadata.Source of events published by a Session.
const eventSource = "editor"

// Session owns a document and applies commands to it.
//
// Thread-safety: All methods are safe for concurrent use.
type Session struct {
	mu  sync.Mutex
	doc document.Document

	// Set only while editing text; shortcuts are suppressed.
	textEditing     bool
	stickerCategory string

	cfg    config.Config
	store  *store.Store
	rec    *history.Recorder
	bus    *event.Bus
	ownBus bool
	router *gesture.Router
	clock  clock.Clock
	log    *logging.Logger

	// Events raised by router callbacks, which run under the router's
	// locks. They are published once the router call returns.
	qmu    sync.Mutex
	queued []func()
}

// Option configures a Session.
type Option func(*options)

type options struct {
	cfg     config.Config
	doc     *document.Document
	clock   clock.Clock
	log     *logging.Logger
	bus     *event.Bus
	idFunc  store.IDFunc
	measure gesture.MeasureFunc
}

// WithConfig sets the session settings. The default is config.Default().
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithDocument starts the session on doc instead of a new document.
func WithDocument(doc document.Document) Option {
	return func(o *options) {
		o.doc = &doc
	}
}

// WithClock sets the clock used for timestamps and history coalescing.
func WithClock(c clock.Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the session logger.
func WithLogger(l *logging.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

// WithBus publishes on an existing bus. The session does not close it.
func WithBus(b *event.Bus) Option {
	return func(o *options) {
		o.bus = b
	}
}

// WithIDFunc sets the layer id generator.
func WithIDFunc(fn store.IDFunc) Option {
	return func(o *options) {
		o.idFunc = fn
	}
}

// WithMeasure sets how layers are sized for hit testing.
func WithMeasure(fn gesture.MeasureFunc) Option {
	return func(o *options) {
		o.measure = fn
	}
}

// New creates a session.
func New(opts ...Option) *Session {
	o := options{
		cfg:   config.Default(),
		clock: clock.Real{},
		log:   logging.Null(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		cfg:   o.cfg,
		clock: o.clock,
		log:   o.log.WithComponent("editor"),
		bus:   o.bus,
	}
	if s.bus == nil {
		s.bus = event.NewBus(event.WithLogger(o.log))
		s.ownBus = true
	}

	storeOpts := []store.Option{store.WithClock(o.clock), store.WithLogger(o.log)}
	if o.idFunc != nil {
		storeOpts = append(storeOpts, store.WithIDFunc(o.idFunc))
	}
	s.store = store.New(storeOpts...)

	stack := history.NewStack(o.cfg.History.MaxDepth,
		history.WithStackClock(o.clock),
		history.WithStackLogger(o.log),
	)
	s.rec = history.NewRecorder(stack,
		history.WithClock(o.clock),
		history.WithDelay(o.cfg.History.CoalesceDelay.Std()),
		history.WithLogger(o.log),
		history.WithOnPush(func(history.Info) { s.publishHistory() }),
	)

	if o.doc != nil {
		s.doc = *o.doc
	} else {
		s.doc = s.newDocument()
	}
	s.rec.Reset(s.doc)

	routerOpts := []gesture.RouterOption{
		gesture.WithRouterLogger(o.log),
		gesture.WithTransitions(s.onTransition),
	}
	if o.measure != nil {
		routerOpts = append(routerOpts, gesture.WithMeasure(o.measure))
	}
	s.router = gesture.NewRouter(host{s}, o.cfg.GestureSettings(), routerOpts...)
	return s
}

func (s *Session) newDocument() document.Document {
	d := s.cfg.Document
	return document.New(document.Options{
		AspectRatio:    d.AspectRatio,
		BackgroundType: d.Background,
		DurationMs:     d.DefaultDurationMs,
	})
}

// Bus returns the bus the session publishes on.
func (s *Session) Bus() *event.Bus {
	return s.bus
}

// Config returns the current settings.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Document returns the current document.
func (s *Session) Document() document.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Layers returns the derived layers of the current document, bottom
// first. The result must not be modified.
func (s *Session) Layers() []layer.Layer {
	doc := s.Document()
	return s.store.Derive(doc)
}

// Layer returns the layer with the given id.
func (s *Session) Layer(id string) (layer.Layer, bool) {
	return s.store.Get(s.Document(), id)
}

// Selected returns the selected layer.
func (s *Session) Selected() (layer.Layer, bool) {
	return s.store.Selected(s.Document())
}

// SelectedID returns the selected layer id, or "".
func (s *Session) SelectedID() string {
	id, _ := s.Document().Selected()
	return id
}

// Select selects id, or clears the selection when id is "" or unknown.
func (s *Session) Select(id string) {
	s.apply("select", func(doc document.Document) document.Document {
		return s.store.Select(doc, id)
	})
}

// Add adds a layer of kind k and returns its id. The new layer is
// selected. It returns "" for the background kind.
func (s *Session) Add(k layer.Kind, fields map[string]any) string {
	ch := s.apply("add "+k.String(), func(doc document.Document) document.Document {
		return s.store.Add(doc, k, fields)
	})
	if !ch.persistent {
		return ""
	}
	id, _ := ch.next.Selected()
	publish(s, TopicLayerAdded, LayerAdded{ID: id, Kind: k})
	return id
}

// Update merges patch into the layer with the given id.
func (s *Session) Update(id string, patch layer.Patch) {
	s.apply("update", func(doc document.Document) document.Document {
		return s.store.Update(doc, id, patch)
	})
}

// Delete removes the layer with the given id.
func (s *Session) Delete(id string) {
	var kind layer.Kind
	ch := s.apply("delete", func(doc document.Document) document.Document {
		_, kind, _, _ = doc.Find(id)
		return s.store.Delete(doc, id)
	})
	if ch.persistent {
		publish(s, TopicLayerDeleted, LayerDeleted{ID: id, Kind: kind})
	}
}

// DeleteSelected removes the selected layer, if any.
func (s *Session) DeleteSelected() {
	if id := s.SelectedID(); id != "" {
		s.Delete(id)
	}
}

// ToggleVisible flips the layer's visibility.
func (s *Session) ToggleVisible(id string) {
	s.apply("toggle visible", func(doc document.Document) document.Document {
		return s.store.ToggleVisible(doc, id)
	})
}

// ToggleLocked flips the layer's lock.
func (s *Session) ToggleLocked(id string) {
	s.apply("toggle locked", func(doc document.Document) document.Document {
		return s.store.ToggleLocked(doc, id)
	})
}

// Duplicate copies the layer and returns the copy's id, or "".
func (s *Session) Duplicate(id string) string {
	ch := s.apply("duplicate", func(doc document.Document) document.Document {
		return s.store.Duplicate(doc, id)
	})
	if !ch.persistent {
		return ""
	}
	dup, _ := ch.next.Selected()
	_, kind, _, _ := ch.next.Find(dup)
	publish(s, TopicLayerAdded, LayerAdded{ID: dup, Kind: kind})
	return dup
}

// BringForward moves the layer one step up.
func (s *Session) BringForward(id string) {
	s.apply("bring forward", func(doc document.Document) document.Document {
		return s.store.BringForward(doc, id)
	})
}

// SendBackward moves the layer one step down.
func (s *Session) SendBackward(id string) {
	s.apply("send backward", func(doc document.Document) document.Document {
		return s.store.SendBackward(doc, id)
	})
}

// BringToFront moves the layer to the top.
func (s *Session) BringToFront(id string) {
	s.apply("bring to front", func(doc document.Document) document.Document {
		return s.store.BringToFront(doc, id)
	})
}

// SendToBack moves the layer to the bottom, above the background.
func (s *Session) SendToBack(id string) {
	s.apply("send to back", func(doc document.Document) document.Document {
		return s.store.SendToBack(doc, id)
	})
}

// Undo restores the previous state. It returns history.ErrNothingToUndo
// when the undo stack is empty.
func (s *Session) Undo() error {
	return s.step(CauseUndo)
}

// Redo reapplies the next state. It returns history.ErrNothingToRedo when
// the redo stack is empty.
func (s *Session) Redo() error {
	return s.step(CauseRedo)
}

func (s *Session) step(cause Cause) error {
	// Commit an open burst first, outside the session lock, so its
	// history.changed handlers may read the session.
	s.rec.Flush()

	s.mu.Lock()
	prev := s.doc
	var (
		next document.Document
		ok   bool
	)
	if cause == CauseUndo {
		next, ok = s.rec.Undo(prev)
	} else {
		next, ok = s.rec.Redo(prev)
	}
	if ok {
		s.doc = next
	}
	s.mu.Unlock()

	if !ok {
		if cause == CauseUndo {
			return history.ErrNothingToUndo
		}
		return history.ErrNothingToRedo
	}

	s.log.Debug("%s", cause)
	s.publishSelection(prev, next)
	publish(s, TopicDocumentChanged, DocumentChanged{Document: next, Label: cause.String(), Cause: cause})
	s.publishHistory()
	return nil
}

// CanUndo reports whether Undo would succeed, counting an open burst.
func (s *Session) CanUndo() bool {
	return s.rec.Pending() || s.rec.Stack().CanUndo()
}

// CanRedo reports whether Redo would succeed.
func (s *Session) CanRedo() bool {
	return !s.rec.Pending() && s.rec.Stack().CanRedo()
}

// History returns the undo stack.
func (s *Session) History() *history.Stack {
	return s.rec.Stack()
}

// Group runs fn and records every edit it makes as one undo step labelled
// label, however long fn takes. Groups do not nest: a Group inside fn just
// runs its function. fn must not call Undo or Redo.
func (s *Session) Group(label string, fn func()) {
	st := s.rec.Stack()
	if st.IsGrouping() {
		fn()
		return
	}

	s.rec.Flush()
	st.BeginGroup(label)
	defer func() {
		s.rec.Flush()
		st.EndGroup()
		s.publishHistory()
	}()
	fn()
}

// Flush commits an open burst of edits as one undo step now.
func (s *Session) Flush() bool {
	return s.rec.Flush()
}

// Load replaces the document and clears the history.
func (s *Session) Load(doc document.Document) {
	s.router.Cancel()
	s.drain()

	s.mu.Lock()
	prev := s.doc
	s.doc = doc
	s.rec.Reset(doc)
	s.rec.Stack().Clear()
	s.mu.Unlock()

	s.publishSelection(prev, doc)
	publish(s, TopicDocumentChanged, DocumentChanged{Document: doc, Label: "load", Cause: CauseLoad})
	s.publishHistory()
}

// SetTextEditing marks whether a text input has keyboard focus. While set,
// keyboard shortcuts are not handled.
func (s *Session) SetTextEditing(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textEditing = on
}

// TextEditing reports whether a text input has keyboard focus.
func (s *Session) TextEditing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.textEditing
}

// SetStickerCategory changes the sticker panel's category and publishes
// it to the other panels.
func (s *Session) SetStickerCategory(category string) {
	s.mu.Lock()
	if s.stickerCategory == category {
		s.mu.Unlock()
		return
	}
	s.stickerCategory = category
	s.mu.Unlock()

	publish(s, TopicStickerCategory, StickerCategory{Category: category})
}

// StickerCategory returns the sticker panel's category.
func (s *Session) StickerCategory() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stickerCategory
}

// HandleKey runs the shortcut bound to e. It reports whether e was
// handled.
func (s *Session) HandleKey(e key.Event) bool {
	if s.TextEditing() {
		return false
	}
	switch ShortcutFor(e) {
	case ShortcutDelete:
		id := s.SelectedID()
		if id == "" || id == document.BackgroundID {
			return false
		}
		s.Delete(id)
		return true
	case ShortcutUndo:
		// Consumed even when there is nothing to undo.
		_ = s.Undo()
		return true
	case ShortcutRedo:
		_ = s.Redo()
		return true
	case ShortcutNone:
		return false
	default:
		return false
	}
}

// HandlePointer routes a pointer event to the gesture router. It reports
// whether the event was consumed by a gesture.
func (s *Session) HandlePointer(e pointer.Event) bool {
	handled := s.router.HandleEvent(e)
	s.drain()
	return handled
}

// SetCanvas sets the canvas bounding box in device pixels.
func (s *Session) SetCanvas(r pointer.Rect) {
	s.router.SetCanvas(r)
}

// SetPanning engages or releases canvas panning, aborting any gesture.
func (s *Session) SetPanning(on bool) {
	s.router.SetPanning(on)
	s.drain()
}

// ActiveGesture returns the id of the layer under manipulation, or "".
func (s *Session) ActiveGesture() string {
	return s.router.Active()
}

// ApplyConfig applies new settings. History depth, coalescing delay and
// gesture limits take effect immediately; document defaults apply to the
// next new document.
func (s *Session) ApplyConfig(cfg config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()

	s.rec.Stack().SetMaxDepth(cfg.History.MaxDepth)
	s.rec.SetDelay(cfg.History.CoalesceDelay.Std())
	s.router.SetConfig(cfg.GestureSettings())
	s.log.Info("applied config: history depth %d, coalesce %s", cfg.History.MaxDepth, cfg.History.CoalesceDelay)
	s.publishHistory()
}

// Close stops history coalescing and, if the session created its bus,
// closes the bus. An open burst is dropped.
func (s *Session) Close() {
	s.router.Cancel()
	s.drain()
	s.rec.Close()
	if s.ownBus {
		s.bus.Close()
	}
}

// change describes the result of apply.
type change struct {
	label      string
	prev, next document.Document
	persistent bool
}

// apply replaces the document with fn's result, records it and publishes
// the resulting events.
func (s *Session) apply(label string, fn func(document.Document) document.Document) change {
	ch := s.commit(label, fn)
	s.publishChange(ch)
	return ch
}

// applyQueued is apply for router callbacks: the events are queued and
// published by drain.
func (s *Session) applyQueued(label string, fn func(document.Document) document.Document) {
	ch := s.commit(label, fn)
	s.enqueue(func() { s.publishChange(ch) })
}

// commit replaces the document with fn's result and records it.
func (s *Session) commit(label string, fn func(document.Document) document.Document) change {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.doc
	next := fn(prev)
	s.doc = next
	persistent := s.rec.ObserveLabeled(next, label)
	return change{label: label, prev: prev, next: next, persistent: persistent}
}

func (s *Session) publishChange(ch change) {
	s.publishSelection(ch.prev, ch.next)
	if ch.persistent {
		publish(s, TopicDocumentChanged, DocumentChanged{Document: ch.next, Label: ch.label, Cause: CauseEdit})
	}
}

func (s *Session) enqueue(fn func()) {
	s.qmu.Lock()
	s.queued = append(s.queued, fn)
	s.qmu.Unlock()
}

// drain publishes queued events in order. It must not be called with the
// router's lock held.
func (s *Session) drain() {
	for {
		s.qmu.Lock()
		if len(s.queued) == 0 {
			s.queued = nil
			s.qmu.Unlock()
			return
		}
		fn := s.queued[0]
		s.queued = s.queued[1:]
		s.qmu.Unlock()
		fn()
	}
}

func (s *Session) publishSelection(prev, next document.Document) {
	a, _ := prev.Selected()
	b, _ := next.Selected()
	if a != b {
		publish(s, TopicLayerSelected, LayerSelected{ID: b, Previous: a})
	}
}

func (s *Session) publishHistory() {
	st := s.rec.Stack()
	publish(s, TopicHistoryChanged, HistoryChanged{UndoCount: st.UndoCount(), RedoCount: st.RedoCount()})
}

// onTransition runs under the router's lock, so its events are queued.
func (s *Session) onTransition(id string, t gesture.Transition) {
	if t.To.Active() {
		s.enqueue(func() {
			publish(s, TopicGestureStarted, GestureChanged{ID: id, State: t.To, Handle: t.Handle})
		})
		return
	}
	s.enqueue(func() {
		publish(s, TopicGestureEnded, GestureChanged{ID: id, State: t.From, Handle: t.Handle, Aborted: t.Aborted})
	})
}

func publish[T any](s *Session, t topic.Topic, payload T) {
	err := s.bus.Publish(context.Background(), event.NewEvent(t, payload, eventSource))
	if err != nil {
		s.log.Warn("publish %s: %v", t, err)
	}
}
