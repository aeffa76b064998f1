package store

import (
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/layer"
)

// BringForward swaps the layer with the one directly above it.
func (s *Store) BringForward(doc document.Document, id string) document.Document {
	return s.reorder(doc, id, func(i, n int) int { return i + 1 })
}

// SendBackward swaps the layer with the one directly below it.
func (s *Store) SendBackward(doc document.Document, id string) document.Document {
	return s.reorder(doc, id, func(i, n int) int { return i - 1 })
}

// BringToFront moves the layer to the top.
func (s *Store) BringToFront(doc document.Document, id string) document.Document {
	return s.reorder(doc, id, func(i, n int) int { return n - 1 })
}

// SendToBack moves the layer to the bottom, above the background.
func (s *Store) SendToBack(doc document.Document, id string) document.Document {
	return s.reorder(doc, id, func(i, n int) int { return 0 })
}

// reorder moves the layer from its position in the derived element order
// to target(i, n) and renumbers every element's zIndex to 1..n. Moves
// past either end are no-ops.
func (s *Store) reorder(doc document.Document, id string, target func(i, n int) int) document.Document {
	if id == document.BackgroundID {
		return doc
	}
	order := s.Elements(doc)
	from := -1
	for i, l := range order {
		if l.ID == id {
			from = i
			break
		}
	}
	if from < 0 {
		return doc
	}
	to := target(from, len(order))
	if to < 0 || to >= len(order) || to == from {
		return doc
	}

	ids := make([]string, 0, len(order))
	for _, l := range order {
		ids = append(ids, l.ID)
	}
	moved := ids[from]
	ids = append(ids[:from], ids[from+1:]...)
	ids = append(ids[:to], append([]string{moved}, ids[to:]...)...)

	rank := make(map[string]float64, len(ids))
	for i, lid := range ids {
		rank[lid] = float64(i + 1)
	}

	out := doc
	for _, k := range layer.ElementKinds() {
		recs := doc.Layers(k)
		if len(recs) == 0 {
			continue
		}
		next := make([]layer.Record, len(recs))
		for i, r := range recs {
			r.ZIndex = rank[r.ID]
			next[i] = r
		}
		out = out.WithLayers(k, next)
	}
	return s.touch(out)
}
