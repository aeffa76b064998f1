package layer

import "math"

// Placement is a layer's interval on the document timeline, in seconds.
type Placement struct {
	Start    float64
	Duration float64
}

// End returns the end of the interval.
func (p Placement) End() float64 {
	return p.Start + p.Duration
}

// Record is one element as stored in a document's per-kind array.
//
// Records are values and are never modified in place once they are part of
// a document; commands produce new records.
type Record struct {
	ID      string
	ZIndex  float64
	Visible bool
	Locked  bool

	// Placement is nil for layers that span the whole document.
	Placement *Placement

	Payload Payload
}

// NewRecord returns a visible, unlocked record.
func NewRecord(id string, zIndex float64, payload Payload) Record {
	return Record{
		ID:      id,
		ZIndex:  zIndex,
		Visible: true,
		Payload: payload,
	}
}

// Apply returns a copy of r with patch applied.
//
// Reserved keys update record metadata. Other keys are shallow-merged into
// the payload. When r is locked, geometry keys are dropped, so a locked
// record can still be shown, hidden or unlocked but not moved.
func (r Record) Apply(patch Patch) Record {
	if len(patch) == 0 {
		return r
	}

	out := r
	fields := make(map[string]any, len(patch))
	for k, v := range patch {
		switch k {
		case KeyID:
			continue
		case KeyVisible:
			if b, ok := v.(bool); ok {
				out.Visible = b
			}
		case KeyLocked:
			if b, ok := v.(bool); ok {
				out.Locked = b
			}
		case KeyZIndex:
			if f, ok := toFloat(v); ok && !math.IsInf(f, 0) {
				out.ZIndex = f
			}
		case KeyStart, KeyDuration:
			f, ok := toFloat(v)
			if !ok {
				continue
			}
			var pl Placement
			if out.Placement != nil {
				pl = *out.Placement
			}
			if k == KeyStart {
				pl.Start = math.Max(0, f)
			} else {
				pl.Duration = math.Max(0, f)
			}
			out.Placement = &pl
		default:
			if r.Locked && IsGeometryKey(k) {
				continue
			}
			fields[k] = v
		}
	}
	out.Payload = r.Payload.With(fields)
	return out
}

// Layer returns the derived view of r for the given kind. Records without
// their own placement span [0, docDuration).
func (r Record) Layer(kind Kind, docDuration float64) Layer {
	pl := Placement{Start: 0, Duration: docDuration}
	if r.Placement != nil {
		pl = *r.Placement
	}
	return Layer{
		ID:        r.ID,
		Kind:      kind,
		ZIndex:    r.ZIndex,
		Visible:   r.Visible,
		Locked:    r.Locked,
		Placement: pl,
		Payload:   r.Payload,
	}
}

// Layer is the kind-tagged view of a record produced by derivation.
type Layer struct {
	ID        string
	Kind      Kind
	ZIndex    float64
	Visible   bool
	Locked    bool
	Placement Placement
	Payload   Payload
}

// Geometry returns the layer's position, size and rotation.
func (l Layer) Geometry() Geometry {
	return GeometryOf(l.Kind, l.Payload)
}

// IsBackground reports whether l is the background pseudo-layer.
func (l Layer) IsBackground() bool {
	return l.Kind == KindBackground
}
