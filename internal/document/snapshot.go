package document

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"github.com/dshills/composer/internal/layer"
)

// Snapshot is an immutable copy of a document's persistent fields.
// Selection fields and UpdatedAt are stripped.
type Snapshot struct {
	doc       Document
	signature string
	shallow   []string
}

// Capture returns a snapshot of doc.
//
// Per-kind arrays are copied into fresh backing storage. Payloads are
// immutable and are shared. Any payload value that could not be deep-copied
// when it entered the document is listed by Shallow.
func Capture(doc Document) Snapshot {
	p := persistent(doc)
	for _, k := range layer.ElementKinds() {
		p = p.WithLayers(k, copyRecords(p.Layers(k)))
	}

	s := Snapshot{doc: p, signature: Signature(p)}
	for _, k := range layer.ElementKinds() {
		for _, r := range p.Layers(k) {
			for _, key := range r.Payload.ShallowKeys() {
				s.shallow = append(s.shallow, r.ID+"."+key)
			}
		}
	}
	for _, key := range p.Background.ShallowKeys() {
		s.shallow = append(s.shallow, BackgroundID+"."+key)
	}
	return s
}

// IsZero reports whether s was never captured.
func (s Snapshot) IsZero() bool {
	return s.signature == ""
}

// Signature returns the structural signature of the snapshot.
func (s Snapshot) Signature() string {
	return s.signature
}

// Equal reports whether two snapshots hold structurally equal documents.
func (s Snapshot) Equal(other Snapshot) bool {
	return s.signature == other.signature
}

// Shallow returns "layerID.key" entries whose values are shared with the
// live document rather than copied.
func (s Snapshot) Shallow() []string {
	if len(s.shallow) == 0 {
		return nil
	}
	out := make([]string, len(s.shallow))
	copy(out, s.shallow)
	return out
}

// Document returns the snapshot's document. The per-kind arrays are fresh
// copies, so the caller cannot reach the snapshot's own storage.
func (s Snapshot) Document() Document {
	d := s.doc
	for _, k := range layer.ElementKinds() {
		d = d.WithLayers(k, copyRecords(d.Layers(k)))
	}
	return d
}

// Restore returns the snapshot's persistent fields combined with the
// transient fields of current. The current selection survives only when
// the selected id exists in the restored document.
func (s Snapshot) Restore(current Document) Document {
	d := s.Document()
	d.UpdatedAt = current.UpdatedAt

	if id, ok := current.Selected(); ok {
		if _, k, _, found := d.Find(id); found {
			d = d.WithSelected(k, id)
		}
	}
	return d
}

// Signature computes the structural signature of doc's persistent fields.
// Documents that differ only in selection or UpdatedAt share a signature.
func Signature(doc Document) string {
	p := persistent(doc)

	enc := signatureDoc{
		ProjectID:      p.ProjectID,
		Name:           p.Name,
		AspectRatio:    p.AspectRatio,
		DurationMs:     p.DurationMs,
		BackgroundType: p.BackgroundType,
		Background:     p.Background,
		Layers:         make(map[string][]signatureRecord, len(layer.ElementKinds())),
	}
	for _, k := range layer.ElementKinds() {
		recs := p.Layers(k)
		out := make([]signatureRecord, len(recs))
		for i, r := range recs {
			out[i] = signatureRecord{
				ID:        r.ID,
				ZIndex:    r.ZIndex,
				Visible:   r.Visible,
				Locked:    r.Locked,
				Placement: r.Placement,
				Payload:   r.Payload,
			}
		}
		enc.Layers[k.String()] = out
	}

	data, err := json.Marshal(enc)
	if err != nil {
		// Unencodable payload values (functions, NaN, cycles): fall back to
		// the printed form, which fmt renders with sorted map keys.
		data = []byte(fmt.Sprintf("%v", acyclic(encodeFallback(enc), nil)))
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

type signatureDoc struct {
	ProjectID      string                       `json:"projectId"`
	Name           string                       `json:"name"`
	AspectRatio    string                       `json:"aspectRatio"`
	DurationMs     int64                        `json:"durationMs"`
	BackgroundType string                       `json:"backgroundType"`
	Background     layer.Payload                `json:"background"`
	Layers         map[string][]signatureRecord `json:"layers"`
}

type signatureRecord struct {
	ID        string           `json:"id"`
	ZIndex    float64          `json:"zIndex"`
	Visible   bool             `json:"visible"`
	Locked    bool             `json:"locked"`
	Placement *layer.Placement `json:"placement,omitempty"`
	Payload   layer.Payload    `json:"payload"`
}

// encodeFallback expands payloads into plain maps for fmt.
func encodeFallback(enc signatureDoc) map[string]any {
	layers := make(map[string]any, len(enc.Layers))
	for kind, recs := range enc.Layers {
		out := make([]any, len(recs))
		for i, r := range recs {
			var pl any
			if r.Placement != nil {
				pl = *r.Placement
			}
			out[i] = map[string]any{
				"id":        r.ID,
				"zIndex":    r.ZIndex,
				"visible":   r.Visible,
				"locked":    r.Locked,
				"placement": pl,
				"payload":   r.Payload.ToMap(),
			}
		}
		layers[kind] = out
	}
	return map[string]any{
		"projectId":      enc.ProjectID,
		"name":           enc.Name,
		"aspectRatio":    enc.AspectRatio,
		"durationMs":     enc.DurationMs,
		"backgroundType": enc.BackgroundType,
		"background":     enc.Background.ToMap(),
		"layers":         layers,
	}
}

// cycleMarker replaces a value that refers back to one of its containers.
const cycleMarker = "<cycle>"

type visit struct {
	ptr uintptr
	typ reflect.Type
}

// acyclic returns v with maps, slices and pointers expanded so that fmt
// can print it, replacing every back-reference with cycleMarker. Unexported
// struct fields are dropped, as they are by encoding/json.
func acyclic(v any, path map[visit]bool) any {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer:
		if rv.IsNil() || (rv.Kind() == reflect.Slice && rv.Len() == 0) {
			return v
		}
		k := visit{ptr: rv.Pointer(), typ: rv.Type()}
		if path[k] {
			return cycleMarker
		}
		if path == nil {
			path = make(map[visit]bool)
		}
		path[k] = true
		defer delete(path, k)

		switch rv.Kind() {
		case reflect.Map:
			out := make(map[any]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				out[iter.Key().Interface()] = acyclic(iter.Value().Interface(), path)
			}
			return out
		case reflect.Slice:
			out := make([]any, rv.Len())
			for i := range out {
				out[i] = acyclic(rv.Index(i).Interface(), path)
			}
			return out
		default:
			return acyclic(rv.Elem().Interface(), path)
		}

	case reflect.Array:
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = acyclic(rv.Index(i).Interface(), path)
		}
		return out

	case reflect.Struct:
		if _, ok := v.(time.Time); ok {
			return v
		}
		out := make(map[any]any, rv.NumField())
		for i := 0; i < rv.NumField(); i++ {
			if f := rv.Type().Field(i); f.IsExported() {
				out[f.Name] = acyclic(rv.Field(i).Interface(), path)
			}
		}
		return out

	default:
		return v
	}
}

// persistent strips the transient fields from doc.
func persistent(doc Document) Document {
	doc = doc.ClearSelection()
	doc.UpdatedAt = time.Time{}
	return doc
}

func copyRecords(recs []layer.Record) []layer.Record {
	if recs == nil {
		return nil
	}
	out := make([]layer.Record, len(recs))
	copy(out, recs)
	return out
}
