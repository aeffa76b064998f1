package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

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
	"github.com/dshills/composer/internal/store"
)

const settle = 400 * time.Millisecond

func seqIDs() store.IDFunc {
	n := 0
	return func(k layer.Kind) string {
		n++
		return fmt.Sprintf("%s_%d", k, n)
	}
}

func newTestSession(t *testing.T, opts ...Option) (*Session, *clock.Fake) {
	t.Helper()
	fake := clock.NewFake(time.Unix(0, 0))
	opts = append([]Option{WithClock(fake), WithIDFunc(seqIDs())}, opts...)
	s := New(opts...)
	s.SetCanvas(pointer.Rect{Width: 1000, Height: 500})
	t.Cleanup(s.Close)
	return s, fake
}

// recorder collects events of one payload type.
type recorder[T any] struct {
	mu  sync.Mutex
	got []T
}

func record[T any](t *testing.T, s *Session, tp topic.Topic) *recorder[T] {
	t.Helper()
	r := &recorder[T]{}
	_, err := event.Subscribe[T](s.Bus(), tp, func(_ context.Context, e event.Event[T]) error {
		r.mu.Lock()
		r.got = append(r.got, e.Payload)
		r.mu.Unlock()
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe(%s): %v", tp, err)
	}
	return r
}

func (r *recorder[T]) events() []T {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]T, len(r.got))
	copy(out, r.got)
	return out
}

func xOf(t *testing.T, s *Session, id string) float64 {
	t.Helper()
	l, ok := s.Layer(id)
	if !ok {
		t.Fatalf("layer %s not found", id)
	}
	return l.Payload.FloatOr(layer.KeyX, -1)
}

func TestDragCoalescesIntoOneUndoStep(t *testing.T) {
	s, fake := newTestSession(t)

	id := s.Add(layer.KindSticker, nil)
	if id != "sticker_1" {
		t.Fatalf("id = %q", id)
	}
	fake.Advance(settle)
	if n := s.History().UndoCount(); n != 1 {
		t.Fatalf("UndoCount after add = %d, want 1", n)
	}

	s.Update(id, layer.Patch{layer.KeyX: 60.0})
	if !s.HandlePointer(pointer.Down(pointer.Point{X: 600, Y: 250}, 0)) {
		t.Fatal("press should start a drag")
	}
	for i := 1; i <= 10; i++ {
		s.HandlePointer(pointer.Move(pointer.Point{X: 600 + float64(i*10), Y: 250}, 0))
	}
	s.HandlePointer(pointer.Up(pointer.Point{X: 700, Y: 250}))

	if got := xOf(t, s, id); got != 70 {
		t.Fatalf("x after drag = %v, want 70", got)
	}
	fake.Advance(350 * time.Millisecond)
	if n := s.History().UndoCount(); n != 2 {
		t.Fatalf("UndoCount after drag = %d, want 2", n)
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if got := xOf(t, s, id); got != 50 {
		t.Errorf("x after undo = %v, want 50", got)
	}
	if err := s.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := xOf(t, s, id); got != 70 {
		t.Errorf("x after redo = %v, want 70", got)
	}
}

func TestSelectionDoesNotCreateHistory(t *testing.T) {
	s, fake := newTestSession(t)
	a := s.Add(layer.KindText, nil)
	b := s.Add(layer.KindIcon, nil)
	fake.Advance(settle)
	before := s.History().UndoCount()

	s.Select(a)
	s.Select(b)
	s.Select("")
	fake.Advance(settle)

	if n := s.History().UndoCount(); n != before {
		t.Errorf("UndoCount = %d, want %d", n, before)
	}
}

func TestUndoWithinBurst(t *testing.T) {
	s, _ := newTestSession(t)
	id := s.Add(layer.KindSticker, nil)
	s.Update(id, layer.Patch{layer.KeyX: 70.0})

	// No time passes: the burst is flushed by Undo and undone at once.
	if !s.CanUndo() {
		t.Fatal("CanUndo should count the open burst")
	}
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if n := s.Document().LayerCount(); n != 0 {
		t.Errorf("LayerCount = %d, want 0", n)
	}
	if err := s.Redo(); err != nil {
		t.Fatalf("Redo: %v", err)
	}
	if got := xOf(t, s, id); got != 70 {
		t.Errorf("x after redo = %v, want 70", got)
	}
}

func TestUndoRedoEmpty(t *testing.T) {
	s, _ := newTestSession(t)
	if err := s.Undo(); !errors.Is(err, history.ErrNothingToUndo) {
		t.Errorf("Undo err = %v", err)
	}
	if err := s.Redo(); !errors.Is(err, history.ErrNothingToRedo) {
		t.Errorf("Redo err = %v", err)
	}
}

func TestEditAfterUndoClearsRedo(t *testing.T) {
	s, fake := newTestSession(t)
	id := s.Add(layer.KindSticker, nil)
	fake.Advance(settle)
	s.Update(id, layer.Patch{layer.KeyX: 10.0})
	fake.Advance(settle)

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if !s.CanRedo() {
		t.Fatal("CanRedo should be true after undo")
	}
	s.Update(id, layer.Patch{layer.KeyY: 10.0})
	fake.Advance(settle)

	if s.CanRedo() {
		t.Error("edit after undo should clear redo")
	}
}

func TestUndoKeepsExistingSelection(t *testing.T) {
	s, fake := newTestSession(t)
	a := s.Add(layer.KindSticker, nil)
	fake.Advance(settle)
	b := s.Add(layer.KindSticker, nil)
	fake.Advance(settle)

	s.Select(a)
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if _, ok := s.Layer(b); ok {
		t.Error("undo should remove the second layer")
	}
	if s.SelectedID() != a {
		t.Errorf("selected = %q, want %q", s.SelectedID(), a)
	}

	s.Select(a)
	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	if s.SelectedID() != "" {
		t.Errorf("selection of a removed layer should be cleared, got %q", s.SelectedID())
	}
}

func TestEvents(t *testing.T) {
	s, fake := newTestSession(t)
	added := record[LayerAdded](t, s, TopicLayerAdded)
	deleted := record[LayerDeleted](t, s, TopicLayerDeleted)
	selected := record[LayerSelected](t, s, TopicLayerSelected)
	changed := record[DocumentChanged](t, s, TopicDocumentChanged)
	hist := record[HistoryChanged](t, s, TopicHistoryChanged)

	id := s.Add(layer.KindFrame, nil)
	fake.Advance(settle)
	dup := s.Duplicate(id)
	s.Delete(dup)
	s.Delete("missing")

	if got := added.events(); len(got) != 2 || got[0].ID != id || got[0].Kind != layer.KindFrame || got[1].ID != dup {
		t.Errorf("added = %+v", got)
	}
	if got := deleted.events(); len(got) != 1 || got[0].ID != dup || got[0].Kind != layer.KindFrame {
		t.Errorf("deleted = %+v", got)
	}
	sel := selected.events()
	if len(sel) != 3 || sel[0].ID != id || sel[1].ID != dup || sel[1].Previous != id || sel[2].ID != "" {
		t.Errorf("selected = %+v", sel)
	}
	if got := changed.events(); len(got) != 3 || got[0].Cause != CauseEdit || got[0].Label != "add frame" {
		t.Errorf("changed = %+v", got)
	}
	if got := hist.events(); len(got) != 1 || got[0].UndoCount != 1 || !got[0].CanUndo() {
		t.Errorf("history = %+v", got)
	}

	if err := s.Undo(); err != nil {
		t.Fatalf("Undo: %v", err)
	}
	last := changed.events()
	if c := last[len(last)-1]; c.Cause != CauseUndo {
		t.Errorf("last change cause = %v, want undo", c.Cause)
	}
}

func TestGestureEvents(t *testing.T) {
	s, _ := newTestSession(t)
	started := record[GestureChanged](t, s, TopicGestureStarted)
	ended := record[GestureChanged](t, s, TopicGestureEnded)
	id := s.Add(layer.KindSticker, nil)

	s.HandlePointer(pointer.Down(pointer.Point{X: 500, Y: 250}, 0))
	if s.ActiveGesture() != id {
		t.Fatalf("ActiveGesture = %q", s.ActiveGesture())
	}
	s.HandlePointer(pointer.Move(pointer.Point{X: 520, Y: 250}, 0))
	s.HandlePointer(pointer.Move(pointer.Point{X: 540, Y: 250}, key.ModAlt))

	if got := started.events(); len(got) != 1 || got[0].ID != id || got[0].State != gesture.StateDragging {
		t.Errorf("started = %+v", got)
	}
	got := ended.events()
	if len(got) != 1 || !got[0].Aborted {
		t.Errorf("ended = %+v", got)
	}
	if x := xOf(t, s, id); x != 52 {
		t.Errorf("x = %v, want 52", x)
	}
	if s.ActiveGesture() != "" {
		t.Error("abort should end capture")
	}
}

func TestLockedLayerIsNotMoved(t *testing.T) {
	s, _ := newTestSession(t)
	id := s.Add(layer.KindSticker, nil)
	s.ToggleLocked(id)

	if s.HandlePointer(pointer.Down(pointer.Point{X: 500, Y: 250}, 0)) {
		t.Error("press on a locked layer should not start a gesture")
	}
	s.HandlePointer(pointer.Move(pointer.Point{X: 600, Y: 250}, 0))
	s.Update(id, layer.Patch{layer.KeyX: 10.0})
	if x := xOf(t, s, id); x != 50 {
		t.Errorf("x = %v, want 50", x)
	}
	if s.SelectedID() != id {
		t.Error("locked layer should still be selectable")
	}
}

func TestTextResizeAndRotate(t *testing.T) {
	s, _ := newTestSession(t)
	id := s.Add(layer.KindText, nil)

	// "TEXT" at 72px: 172.8 x 72 around (500, 250).
	if !s.HandlePointer(pointer.Down(pointer.Point{X: 586.4, Y: 286}, 0)) {
		t.Fatal("press on the corner handle should start a resize")
	}
	s.HandlePointer(pointer.Move(pointer.Point{X: 672.8, Y: 322}, 0))
	s.HandlePointer(pointer.Up(pointer.Point{X: 672.8, Y: 322}))

	l, _ := s.Layer(id)
	if got := l.Payload.FloatOr(layer.KeyFontSize, 0); got != 144 {
		t.Errorf("fontSize = %v, want 144", got)
	}

	// Rotate handle sits 24px above the top edge of the 144px box.
	if !s.HandlePointer(pointer.Down(pointer.Point{X: 500, Y: 250 - 72 - 24}, 0)) {
		t.Fatal("press on the rotate handle should start a rotation")
	}
	s.HandlePointer(pointer.Move(pointer.Point{X: 600, Y: 250}, 0))
	s.HandlePointer(pointer.Up(pointer.Point{X: 600, Y: 250}))

	l, _ = s.Layer(id)
	tr := l.Payload.Map(layer.KeyTransform)
	if r, _ := tr[layer.KeyRotation].(float64); r != 90 {
		t.Errorf("transform.rotation = %v, want 90", tr[layer.KeyRotation])
	}
	if l.Payload.Has(layer.KeyRotation) {
		t.Error("text rotation should live in the transform object")
	}
}

func TestPressOnEmptyCanvasDeselects(t *testing.T) {
	s, _ := newTestSession(t)
	s.Add(layer.KindSticker, nil)

	s.HandlePointer(pointer.Down(pointer.Point{X: 10, Y: 10}, 0))
	if s.SelectedID() != "" {
		t.Errorf("selected = %q", s.SelectedID())
	}
}

func TestShortcuts(t *testing.T) {
	s, fake := newTestSession(t)
	id := s.Add(layer.KindSticker, nil)
	fake.Advance(settle)

	s.SetTextEditing(true)
	if s.HandleKey(key.NewSpecialEvent(key.KeyBackspace, 0)) {
		t.Error("backspace should be ignored while editing text")
	}
	if s.HandleKey(key.NewRuneEvent('z', key.ModCtrl)) {
		t.Error("undo should be ignored while editing text")
	}
	s.SetTextEditing(false)

	if !s.HandleKey(key.NewSpecialEvent(key.KeyDelete, 0)) {
		t.Fatal("delete should be handled")
	}
	if _, ok := s.Layer(id); ok {
		t.Fatal("delete should remove the selected layer")
	}
	if s.HandleKey(key.NewSpecialEvent(key.KeyDelete, 0)) {
		t.Error("delete without a selection should not be handled")
	}

	if !s.HandleKey(key.NewRuneEvent('z', key.ModMeta)) {
		t.Fatal("Cmd+Z should be handled")
	}
	if _, ok := s.Layer(id); !ok {
		t.Error("undo should restore the layer")
	}
	s.HandleKey(key.NewRuneEvent('Z', key.ModCtrl|key.ModShift))
	if _, ok := s.Layer(id); ok {
		t.Error("Ctrl+Shift+Z should redo the delete")
	}
	s.HandleKey(key.NewRuneEvent('z', key.ModCtrl))
	s.HandleKey(key.NewRuneEvent('y', key.ModCtrl))
	if _, ok := s.Layer(id); ok {
		t.Error("Ctrl+Y should redo the delete")
	}
}

func TestShortcutFor(t *testing.T) {
	tests := []struct {
		e    key.Event
		want Shortcut
	}{
		{key.NewSpecialEvent(key.KeyDelete, 0), ShortcutDelete},
		{key.NewSpecialEvent(key.KeyBackspace, 0), ShortcutDelete},
		{key.NewSpecialEvent(key.KeyBackspace, key.ModCtrl), ShortcutNone},
		{key.NewRuneEvent('z', key.ModCtrl), ShortcutUndo},
		{key.NewRuneEvent('z', key.ModMeta), ShortcutUndo},
		{key.NewRuneEvent('Z', key.ModMeta|key.ModShift), ShortcutRedo},
		{key.NewRuneEvent('y', key.ModCtrl), ShortcutRedo},
		{key.NewRuneEvent('y', key.ModMeta), ShortcutRedo},
		{key.NewRuneEvent('z', 0), ShortcutNone},
		{key.NewRuneEvent('x', key.ModCtrl), ShortcutNone},
		{key.NewSpecialEvent(key.KeyEscape, 0), ShortcutNone},
	}
	for _, tt := range tests {
		if got := ShortcutFor(tt.e); got != tt.want {
			t.Errorf("ShortcutFor(%s) = %v, want %v", tt.e, got, tt.want)
		}
	}
}

func TestBackgroundIsProtected(t *testing.T) {
	s, _ := newTestSession(t)
	if !s.Document().HasBackground() {
		t.Fatal("default config should enable the background")
	}
	s.Delete(document.BackgroundID)
	s.ToggleVisible(document.BackgroundID)
	if !s.Document().HasBackground() {
		t.Error("background should survive delete")
	}
	layers := s.Layers()
	if len(layers) != 1 || !layers[0].IsBackground() || !layers[0].Visible {
		t.Errorf("layers = %+v", layers)
	}

	s.Select(document.BackgroundID)
	if s.HandleKey(key.NewSpecialEvent(key.KeyDelete, 0)) {
		t.Error("delete with the background targeted should not be handled")
	}

	s.Update(document.BackgroundID, layer.Patch{"type": "gradient"})
	if s.Document().BackgroundType != "gradient" {
		t.Errorf("BackgroundType = %q", s.Document().BackgroundType)
	}
}

func TestApplyConfig(t *testing.T) {
	s, fake := newTestSession(t)
	for i := 0; i < 5; i++ {
		s.Add(layer.KindIcon, nil)
		fake.Advance(settle)
	}

	cfg := config.Default()
	cfg.History.MaxDepth = 3
	cfg.History.CoalesceDelay = config.Duration(time.Second)
	cfg.Gesture.MinSize = 100
	s.ApplyConfig(cfg)

	if n := s.History().UndoCount(); n != 3 {
		t.Errorf("UndoCount = %d, want 3", n)
	}

	s.Add(layer.KindIcon, nil)
	fake.Advance(settle)
	if n := s.History().UndoCount(); n != 3 || !s.CanUndo() {
		t.Errorf("burst should still be open, UndoCount = %d", n)
	}
	fake.Advance(time.Second)
	if s.History().UndoCount() != 3 {
		t.Error("depth limit should hold after the new push")
	}

	// The new minimum size applies to gestures started afterwards.
	id := s.SelectedID()
	s.HandlePointer(pointer.Down(pointer.Point{X: 600, Y: 350}, 0))
	s.HandlePointer(pointer.Move(pointer.Point{X: 501, Y: 251}, 0))
	l, _ := s.Layer(id)
	if w := l.Payload.FloatOr(layer.KeyWidth, 0); w != 100 {
		t.Errorf("width = %v, want 100", w)
	}
}

func TestStickerCategory(t *testing.T) {
	s, _ := newTestSession(t)
	got := record[StickerCategory](t, s, TopicStickerCategory)

	s.SetStickerCategory("animals")
	s.SetStickerCategory("animals")
	s.SetStickerCategory("food")

	ev := got.events()
	if len(ev) != 2 || ev[0].Category != "animals" || ev[1].Category != "food" {
		t.Errorf("events = %+v", ev)
	}
	if s.StickerCategory() != "food" {
		t.Errorf("StickerCategory = %q", s.StickerCategory())
	}
}

func TestLoadClearsHistory(t *testing.T) {
	s, fake := newTestSession(t)
	s.Add(layer.KindSticker, nil)
	fake.Advance(settle)

	doc := document.New(document.Options{Name: "Loaded"})
	s.Load(doc)

	if s.Document().Name != "Loaded" {
		t.Errorf("Name = %q", s.Document().Name)
	}
	if s.CanUndo() || s.CanRedo() {
		t.Error("load should clear history")
	}
	fake.Advance(settle)
	if s.CanUndo() {
		t.Error("loading should not be recorded")
	}
}

func TestGestureHandlersMayCallSession(t *testing.T) {
	s, _ := newTestSession(t)
	id := s.Add(layer.KindSticker, nil)
	s.Select("")

	var selectedDuring, startedDuring string
	moves := 0
	subs := []error{}
	_, err := event.Subscribe[LayerSelected](s.Bus(), TopicLayerSelected, func(_ context.Context, _ event.Event[LayerSelected]) error {
		selectedDuring = s.ActiveGesture()
		return nil
	})
	subs = append(subs, err)
	_, err = event.Subscribe[GestureChanged](s.Bus(), TopicGestureStarted, func(_ context.Context, _ event.Event[GestureChanged]) error {
		startedDuring = s.ActiveGesture()
		return nil
	})
	subs = append(subs, err)
	_, err = event.Subscribe[DocumentChanged](s.Bus(), TopicDocumentChanged, func(_ context.Context, _ event.Event[DocumentChanged]) error {
		if s.ActiveGesture() != "" {
			moves++
			s.SetPanning(true)
		}
		return nil
	})
	subs = append(subs, err)
	for _, err := range subs {
		if err != nil {
			t.Fatal(err)
		}
	}
	ended := record[GestureChanged](t, s, TopicGestureEnded)

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.HandlePointer(pointer.Down(pointer.Point{X: 500, Y: 250}, 0))
		s.HandlePointer(pointer.Move(pointer.Point{X: 520, Y: 250}, 0))
		s.HandlePointer(pointer.Move(pointer.Point{X: 540, Y: 250}, 0))
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("a handler calling back into the session blocked")
	}

	if selectedDuring != id || startedDuring != id {
		t.Errorf("ActiveGesture seen by handlers = %q, %q, want %q", selectedDuring, startedDuring, id)
	}
	if moves != 1 {
		t.Errorf("moves = %d, want 1", moves)
	}
	if got := ended.events(); len(got) != 1 || !got[0].Aborted {
		t.Errorf("ended = %+v", got)
	}
	if x := xOf(t, s, id); x != 52 {
		t.Errorf("x = %v, want 52", x)
	}
	if s.ActiveGesture() != "" {
		t.Error("panning from a handler should end the gesture")
	}
}

func TestGroupRecordsOneStep(t *testing.T) {
	s, fake := newTestSession(t)
	id := s.Add(layer.KindSticker, nil)
	fake.Advance(settle)

	s.Group("arrange", func() {
		s.Update(id, layer.Patch{layer.KeyX: 10.0})
		fake.Advance(settle)
		s.Group("inner", func() {
			s.Update(id, layer.Patch{layer.KeyX: 20.0})
		})
		fake.Advance(settle)
		if s.History().UndoCount() != 1 {
			t.Errorf("UndoCount inside group = %d, want 1", s.History().UndoCount())
		}
	})

	st := s.History()
	if st.UndoCount() != 2 || st.IsGrouping() {
		t.Fatalf("UndoCount = %d, grouping = %v", st.UndoCount(), st.IsGrouping())
	}
	if info, _ := st.PeekUndo(); info.Label != "arrange" {
		t.Errorf("label = %q, want arrange", info.Label)
	}
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if x := xOf(t, s, id); x != 50 {
		t.Errorf("x = %v, want 50", x)
	}
}

func TestHandlerMayReadSession(t *testing.T) {
	s, fake := newTestSession(t)
	var counts []int
	_, err := event.Subscribe[HistoryChanged](s.Bus(), TopicHistoryChanged, func(_ context.Context, _ event.Event[HistoryChanged]) error {
		counts = append(counts, s.Document().LayerCount())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	s.Add(layer.KindSticker, nil)
	fake.Advance(settle)
	s.Add(layer.KindSticker, nil)
	if err := s.Undo(); err != nil {
		t.Fatal(err)
	}
	if len(counts) == 0 {
		t.Error("history handlers should run")
	}
}
