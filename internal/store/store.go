// Package store derives the ordered layer list from a document and
// computes new documents from layer commands.
//
// Every command is a total function: unknown ids, absent arrays and
// commands that do not apply to the background leave the document
// unchanged. Commands never modify their input; they return a new
// document that shares unchanged per-kind arrays with the old one.
package store

import (
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/dshills/composer/internal/clock"
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/layer"
	"github.com/dshills/composer/internal/logging"
)

// DuplicateOffset is the x/y offset, in canvas percent, of a duplicate.
const DuplicateOffset = 2.0

// IDFunc synthesizes a layer id for a kind.
type IDFunc func(k layer.Kind) string

// NewID returns "<kind>_<uuid>".
func NewID(k layer.Kind) string {
	return k.String() + "_" + uuid.NewString()
}

// Store is the layer store. It holds no document state beyond a cache of
// the last derived view and is safe for concurrent use.
type Store struct {
	mu    sync.Mutex
	cache derived

	newID IDFunc
	clock clock.Clock
	log   *logging.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithIDFunc sets the id generator.
func WithIDFunc(fn IDFunc) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithClock sets the clock used for UpdatedAt.
func WithClock(c clock.Clock) Option {
	return func(s *Store) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the store's logger.
func WithLogger(l *logging.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// New creates a store.
func New(opts ...Option) *Store {
	s := &Store{
		newID: NewID,
		clock: clock.Real{},
		log:   logging.Null(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the derived layer with the given id.
func (s *Store) Get(doc document.Document, id string) (layer.Layer, bool) {
	for _, l := range s.Derive(doc) {
		if l.ID == id {
			return l, true
		}
	}
	return layer.Layer{}, false
}

// Selected returns the selected layer.
func (s *Store) Selected(doc document.Document) (layer.Layer, bool) {
	id, ok := doc.Selected()
	if !ok {
		return layer.Layer{}, false
	}
	return s.Get(doc, id)
}

// Select makes id the only selected layer. An empty id clears the
// selection. An unknown id, or the background, also clears it.
func (s *Store) Select(doc document.Document, id string) document.Document {
	out := doc.ClearSelection()
	if id == "" {
		return out
	}
	_, k, _, ok := doc.Find(id)
	if !ok {
		s.log.Debug("select: unknown layer %q", id)
		return out
	}
	return out.WithSelected(k, id)
}

// Add appends a new layer of kind k, built from the kind defaults with
// fields merged over them, and selects it. Reserved keys in fields set
// the record metadata. Adding the background kind is a no-op.
func (s *Store) Add(doc document.Document, k layer.Kind, fields map[string]any) document.Document {
	if !k.IsElement() {
		s.log.Debug("add: %s is not an element kind", k)
		return doc
	}

	id := s.newID(k)
	for id == "" || id == document.BackgroundID || doc.Contains(id) {
		id = NewID(k)
	}

	patch := layer.Patch(layer.Defaults(k))
	for key, v := range fields {
		patch[key] = v
	}
	rec := layer.NewRecord(id, nextZIndex(doc), layer.Payload{}).Apply(patch)

	recs := doc.Layers(k)
	next := make([]layer.Record, len(recs), len(recs)+1)
	copy(next, recs)
	next = append(next, rec)

	out := doc.WithLayers(k, next).ClearSelection().WithSelected(k, id)
	return s.touch(out)
}

// Update merges patch into the layer with the given id. Reserved keys
// update record metadata; other keys are shallow-merged into the payload.
// Geometry keys are dropped when the layer is locked. Patching the
// background id updates the background configuration.
func (s *Store) Update(doc document.Document, id string, patch layer.Patch) document.Document {
	if len(patch) == 0 {
		return doc
	}
	if id == document.BackgroundID {
		if !doc.HasBackground() {
			return doc
		}
		fields := make(map[string]any, len(patch))
		for key, v := range patch {
			if !layer.IsReservedKey(key) {
				fields[key] = v
			}
		}
		if len(fields) == 0 {
			return doc
		}
		doc.Background = doc.Background.With(fields)
		if t, ok := fields["type"].(string); ok && t != "" {
			doc.BackgroundType = t
		}
		return s.touch(doc)
	}

	rec, k, i, ok := doc.Find(id)
	if !ok {
		s.log.Debug("update: unknown layer %q", id)
		return doc
	}
	if rec.Locked && patch.HasGeometry() {
		s.log.Debug("update: dropping geometry for locked layer %q", id)
	}
	return s.touch(replace(doc, k, i, rec.Apply(patch)))
}

// Delete removes the layer with the given id and clears the selection if
// it was selected. The background cannot be deleted.
func (s *Store) Delete(doc document.Document, id string) document.Document {
	if id == document.BackgroundID {
		return doc
	}
	_, k, i, ok := doc.Find(id)
	if !ok {
		return doc
	}

	recs := doc.Layers(k)
	next := make([]layer.Record, 0, len(recs)-1)
	next = append(next, recs[:i]...)
	next = append(next, recs[i+1:]...)

	out := doc.WithLayers(k, next)
	if sel, _ := doc.Selected(); sel == id {
		out = out.ClearSelection()
	}
	return s.touch(out)
}

// ToggleVisible flips the layer's visibility. It applies to locked layers.
func (s *Store) ToggleVisible(doc document.Document, id string) document.Document {
	rec, _, _, ok := doc.Find(id)
	if !ok {
		return doc
	}
	return s.Update(doc, id, layer.Patch{layer.KeyVisible: !rec.Visible})
}

// ToggleLocked flips the layer's lock.
func (s *Store) ToggleLocked(doc document.Document, id string) document.Document {
	rec, _, _, ok := doc.Find(id)
	if !ok {
		return doc
	}
	return s.Update(doc, id, layer.Patch{layer.KeyLocked: !rec.Locked})
}

// Duplicate copies the layer, offsets the copy by DuplicateOffset on both
// axes, places it on top and selects it. The copy is unlocked.
func (s *Store) Duplicate(doc document.Document, id string) document.Document {
	rec, k, _, ok := doc.Find(id)
	if !ok {
		return doc
	}

	dup := rec
	dup.ID = s.newID(k)
	for dup.ID == "" || dup.ID == document.BackgroundID || doc.Contains(dup.ID) {
		dup.ID = NewID(k)
	}
	dup.ZIndex = nextZIndex(doc)
	dup.Locked = false
	if rec.Placement != nil {
		pl := *rec.Placement
		dup.Placement = &pl
	}
	offset := map[string]any{}
	if x, ok := rec.Payload.Float(layer.KeyX); ok {
		offset[layer.KeyX] = x + DuplicateOffset
	}
	if y, ok := rec.Payload.Float(layer.KeyY); ok {
		offset[layer.KeyY] = y + DuplicateOffset
	}
	dup.Payload = rec.Payload.With(offset)

	recs := doc.Layers(k)
	next := make([]layer.Record, len(recs), len(recs)+1)
	copy(next, recs)
	next = append(next, dup)

	out := doc.WithLayers(k, next).ClearSelection().WithSelected(k, dup.ID)
	return s.touch(out)
}

// touch stamps UpdatedAt.
func (s *Store) touch(doc document.Document) document.Document {
	doc.UpdatedAt = s.clock.Now()
	return doc
}

// replace returns doc with record i of kind k replaced by rec.
func replace(doc document.Document, k layer.Kind, i int, rec layer.Record) document.Document {
	recs := doc.Layers(k)
	next := make([]layer.Record, len(recs))
	copy(next, recs)
	next[i] = rec
	return doc.WithLayers(k, next)
}

// nextZIndex returns one more than the largest finite zIndex, never less
// than 1.
func nextZIndex(doc document.Document) float64 {
	max := 0.0
	for _, k := range layer.ElementKinds() {
		for _, r := range doc.Layers(k) {
			if !math.IsInf(r.ZIndex, 0) && !math.IsNaN(r.ZIndex) && r.ZIndex > max {
				max = r.ZIndex
			}
		}
	}
	return max + 1
}

// sortLayers orders layers by zIndex. Ties keep their flattening order.
func sortLayers(layers []layer.Layer) {
	sort.SliceStable(layers, func(i, j int) bool {
		return layers[i].ZIndex < layers[j].ZIndex
	})
}
