package document

import (
	"math"

	"github.com/dshills/composer/internal/layer"
)

// Field names of the plain-map form of a document.
const (
	fieldProjectID      = "projectId"
	fieldName           = "name"
	fieldAspectRatio    = "aspectRatio"
	fieldDurationMs     = "durationMs"
	fieldBackgroundType = "backgroundType"
	fieldBackground     = "background"
)

// arrayField returns the plain-map key of the per-kind array for k.
func arrayField(k layer.Kind) string {
	return k.String() + "Layers"
}

// selectedField returns the plain-map key of the selection field for k.
func selectedField(k layer.Kind) string {
	name := k.String()
	return "selected" + string(name[0]-'a'+'A') + name[1:] + "Id"
}

// FromMap builds a document from its plain-map form, as produced by YAML or
// JSON decoding. Absent or malformed per-kind arrays are treated as empty.
// Array entries that are not objects or that lack a string id are skipped,
// and later duplicates of an id are dropped.
func FromMap(m map[string]any) Document {
	var d Document
	d.ProjectID, _ = m[fieldProjectID].(string)
	d.Name, _ = m[fieldName].(string)
	d.AspectRatio, _ = m[fieldAspectRatio].(string)
	if f, ok := number(m[fieldDurationMs]); ok && f > 0 {
		d.DurationMs = int64(f)
	}
	d.BackgroundType, _ = m[fieldBackgroundType].(string)
	if bg, ok := m[fieldBackground].(map[string]any); ok {
		d.Background = layer.NewPayload(bg)
	}

	seen := make(map[string]bool)
	for _, k := range layer.ElementKinds() {
		items, _ := m[arrayField(k)].([]any)
		if len(items) == 0 {
			continue
		}
		recs := make([]layer.Record, 0, len(items))
		for _, item := range items {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			id, _ := fields[layer.KeyID].(string)
			if id == "" || id == BackgroundID || seen[id] {
				continue
			}
			seen[id] = true
			recs = append(recs, recordFromMap(id, fields))
		}
		d = d.WithLayers(k, recs)
	}

	for _, k := range layer.ElementKinds() {
		if id, _ := m[selectedField(k)].(string); id != "" {
			if _, kind, _, ok := d.Find(id); ok && kind == k {
				d = d.ClearSelection().WithSelected(k, id)
				break
			}
		}
	}
	return d
}

func recordFromMap(id string, fields map[string]any) layer.Record {
	z, ok := number(fields[layer.KeyZIndex])
	if !ok || math.IsInf(z, 0) {
		z = 0
	}
	r := layer.NewRecord(id, z, layer.Payload{})
	patch := layer.Patch{}
	for k, v := range fields {
		if k == layer.KeyZIndex {
			continue
		}
		patch[k] = v
	}
	// Apply before setting the lock so geometry fields are not dropped.
	locked, _ := fields[layer.KeyLocked].(bool)
	delete(patch, layer.KeyLocked)
	r = r.Apply(patch)
	r.Locked = locked
	return r
}

// ToMap returns the plain-map form of d. Transient selection fields are
// included; UpdatedAt is not.
func ToMap(d Document) map[string]any {
	m := map[string]any{
		fieldProjectID:      d.ProjectID,
		fieldName:           d.Name,
		fieldAspectRatio:    d.AspectRatio,
		fieldDurationMs:     d.DurationMs,
		fieldBackgroundType: d.BackgroundType,
		fieldBackground:     d.Background.ToMap(),
	}
	for _, k := range layer.ElementKinds() {
		recs := d.Layers(k)
		items := make([]any, len(recs))
		for i, r := range recs {
			item := r.Payload.ToMap()
			item[layer.KeyID] = r.ID
			item[layer.KeyZIndex] = r.ZIndex
			item[layer.KeyVisible] = r.Visible
			item[layer.KeyLocked] = r.Locked
			if r.Placement != nil {
				item[layer.KeyStart] = r.Placement.Start
				item[layer.KeyDuration] = r.Placement.Duration
			}
			items[i] = item
		}
		m[arrayField(k)] = items
		if id := d.SelectedID(k); id != "" {
			m[selectedField(k)] = id
		}
	}
	return m
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n)
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}
