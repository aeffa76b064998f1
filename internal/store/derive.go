package store

import (
	"math"

	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/layer"
)

// derived caches the last derived view and the inputs it came from.
type derived struct {
	valid      bool
	arrays     [5]arrayKey
	background layer.Payload
	bgType     string
	durationMs int64
	layers     []layer.Layer
}

// arrayKey identifies a per-kind array by its backing storage.
type arrayKey struct {
	first *layer.Record
	n     int
}

func keyOf(recs []layer.Record) arrayKey {
	if len(recs) == 0 {
		return arrayKey{}
	}
	return arrayKey{first: &recs[0], n: len(recs)}
}

func (c *derived) matches(doc document.Document) bool {
	if !c.valid || c.bgType != doc.BackgroundType || c.durationMs != doc.DurationMs {
		return false
	}
	if !c.background.Same(doc.Background) {
		return false
	}
	for i, k := range layer.ElementKinds() {
		if c.arrays[i] != keyOf(doc.Layers(k)) {
			return false
		}
	}
	return true
}

// Derive flattens every per-kind array into one list ordered by zIndex,
// bottom first. When the background is enabled it is synthesized with id
// "bg" and zIndex -Inf.
//
// Deriving a document whose arrays and background are unchanged returns
// the same slice as the previous call. The result must not be modified.
func (s *Store) Derive(doc document.Document) []layer.Layer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cache.matches(doc) {
		return s.cache.layers
	}

	docDuration := doc.DurationSeconds()
	layers := make([]layer.Layer, 0, doc.LayerCount()+1)
	if doc.HasBackground() {
		layers = append(layers, layer.Layer{
			ID:        document.BackgroundID,
			Kind:      layer.KindBackground,
			ZIndex:    math.Inf(-1),
			Visible:   true,
			Placement: layer.Placement{Start: 0, Duration: docDuration},
			Payload:   doc.Background,
		})
	}
	for _, k := range layer.ElementKinds() {
		for _, r := range doc.Layers(k) {
			layers = append(layers, r.Layer(k, docDuration))
		}
	}
	sortLayers(layers)

	c := derived{
		valid:      true,
		background: doc.Background,
		bgType:     doc.BackgroundType,
		durationMs: doc.DurationMs,
		layers:     layers,
	}
	for i, k := range layer.ElementKinds() {
		c.arrays[i] = keyOf(doc.Layers(k))
	}
	s.cache = c
	return layers
}

// Elements returns the derived layers without the background, bottom
// first.
func (s *Store) Elements(doc document.Document) []layer.Layer {
	all := s.Derive(doc)
	out := make([]layer.Layer, 0, len(all))
	for _, l := range all {
		if !l.IsBackground() {
			out = append(out, l)
		}
	}
	return out
}
