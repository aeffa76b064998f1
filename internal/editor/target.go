package editor

import (
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/gesture"
	"github.com/dshills/composer/internal/layer"
)

// host adapts a Session to gesture.Host.
type host struct {
	s *Session
}

func (h host) Layers() []layer.Layer           { return h.s.Layers() }
func (h host) SelectedID() string              { return h.s.SelectedID() }
func (h host) Target(id string) gesture.Target { return layerTarget{s: h.s, id: id} }

// Select runs under the router's lock, so its events are queued.
func (h host) Select(id string) {
	h.s.applyQueued("select", func(doc document.Document) document.Document {
		return h.s.store.Select(doc, id)
	})
}

// layerTarget is the gesture capability record of one layer. It reads the
// current document on every call, so it stays valid across edits, undo and
// redo.
type layerTarget struct {
	s  *Session
	id string
}

func (t layerTarget) Geometry() layer.Geometry {
	l, ok := t.s.Layer(t.id)
	if !ok {
		return layer.Geometry{}
	}
	return l.Geometry()
}

// SetGeometry writes g through the store. The patch carries the full
// nested transform object for kinds that keep rotation there. It runs
// under the router's lock, so its events are queued.
func (t layerTarget) SetGeometry(g layer.Geometry, fields layer.GeometryField) {
	t.s.applyQueued("transform", func(doc document.Document) document.Document {
		rec, k, _, ok := doc.Find(t.id)
		if !ok {
			return doc
		}
		return t.s.store.Update(doc, t.id, layer.GeometryPatch(k, rec.Payload, g, fields))
	})
}

func (t layerTarget) Locked() bool {
	l, ok := t.s.Layer(t.id)
	return !ok || l.Locked
}

func (t layerTarget) SizeMode() layer.SizeMode {
	l, ok := t.s.Layer(t.id)
	if !ok {
		return layer.SizeNone
	}
	return l.Kind.SizeMode()
}
