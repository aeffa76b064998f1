// Package document defines the composer project value and its history
// snapshots.
//
// A Document is treated as an immutable value: every command produces a new
// Document and never writes through slices or records of an existing one.
// Per-kind layer arrays may therefore be shared between successive documents
// and between a document and its snapshots.
package document

import (
	"time"

	"github.com/google/uuid"

	"github.com/dshills/composer/internal/layer"
)

// BackgroundID is the id of the synthesized background layer.
const BackgroundID = "bg"

// DefaultDurationMs is the document duration used when none is set.
const DefaultDurationMs = 30000

// Document is a composer project.
type Document struct {
	ProjectID   string
	Name        string
	AspectRatio string
	DurationMs  int64

	// BackgroundType enables the background layer when non-empty.
	BackgroundType string
	// Background holds the background configuration (type, value, alpha, ...).
	Background layer.Payload

	TextLayers    []layer.Record
	StickerLayers []layer.Record
	IconLayers    []layer.Record
	VideoLayers   []layer.Record
	FrameLayers   []layer.Record

	// Selection fields are transient; at most one is non-empty.
	SelectedTextID    string
	SelectedStickerID string
	SelectedIconID    string
	SelectedVideoID   string
	SelectedFrameID   string

	// UpdatedAt is transient and excluded from history.
	UpdatedAt time.Time
}

// Options configures New.
type Options struct {
	Name           string
	AspectRatio    string
	BackgroundType string
	DurationMs     int64
}

// New returns an empty document with a fresh project id.
func New(opts Options) Document {
	if opts.Name == "" {
		opts.Name = "Untitled"
	}
	if opts.AspectRatio == "" {
		opts.AspectRatio = "16:9"
	}
	if opts.DurationMs <= 0 {
		opts.DurationMs = DefaultDurationMs
	}

	doc := Document{
		ProjectID:      "project_" + uuid.NewString(),
		Name:           opts.Name,
		AspectRatio:    opts.AspectRatio,
		DurationMs:     opts.DurationMs,
		BackgroundType: opts.BackgroundType,
	}
	if opts.BackgroundType != "" {
		bg := layer.Defaults(layer.KindBackground)
		bg["type"] = opts.BackgroundType
		if opts.BackgroundType != "transparent" {
			bg["value"] = opts.BackgroundType
		}
		doc.Background = layer.NewPayload(bg)
	}
	return doc
}

// DurationSeconds returns the document duration in seconds.
func (d Document) DurationSeconds() float64 {
	if d.DurationMs <= 0 {
		return DefaultDurationMs / 1000.0
	}
	return float64(d.DurationMs) / 1000.0
}

// HasBackground reports whether the background layer is enabled.
func (d Document) HasBackground() bool {
	return d.BackgroundType != ""
}

// Layers returns the stored records of kind k. A nil slice means the array
// is absent, which is treated the same as empty. The result must not be
// modified.
func (d Document) Layers(k layer.Kind) []layer.Record {
	switch k {
	case layer.KindText:
		return d.TextLayers
	case layer.KindSticker:
		return d.StickerLayers
	case layer.KindIcon:
		return d.IconLayers
	case layer.KindVideo:
		return d.VideoLayers
	case layer.KindFrame:
		return d.FrameLayers
	case layer.KindBackground:
		return nil
	default:
		return nil
	}
}

// WithLayers returns a copy of d whose array for kind k is recs.
func (d Document) WithLayers(k layer.Kind, recs []layer.Record) Document {
	switch k {
	case layer.KindText:
		d.TextLayers = recs
	case layer.KindSticker:
		d.StickerLayers = recs
	case layer.KindIcon:
		d.IconLayers = recs
	case layer.KindVideo:
		d.VideoLayers = recs
	case layer.KindFrame:
		d.FrameLayers = recs
	case layer.KindBackground:
	}
	return d
}

// SelectedID returns the selection field for kind k.
func (d Document) SelectedID(k layer.Kind) string {
	switch k {
	case layer.KindText:
		return d.SelectedTextID
	case layer.KindSticker:
		return d.SelectedStickerID
	case layer.KindIcon:
		return d.SelectedIconID
	case layer.KindVideo:
		return d.SelectedVideoID
	case layer.KindFrame:
		return d.SelectedFrameID
	case layer.KindBackground:
		return ""
	default:
		return ""
	}
}

// WithSelected returns a copy of d whose selection field for kind k is id.
// Other selection fields are left untouched.
func (d Document) WithSelected(k layer.Kind, id string) Document {
	switch k {
	case layer.KindText:
		d.SelectedTextID = id
	case layer.KindSticker:
		d.SelectedStickerID = id
	case layer.KindIcon:
		d.SelectedIconID = id
	case layer.KindVideo:
		d.SelectedVideoID = id
	case layer.KindFrame:
		d.SelectedFrameID = id
	case layer.KindBackground:
	}
	return d
}

// ClearSelection returns a copy of d with every selection field cleared.
func (d Document) ClearSelection() Document {
	d.SelectedTextID = ""
	d.SelectedStickerID = ""
	d.SelectedIconID = ""
	d.SelectedVideoID = ""
	d.SelectedFrameID = ""
	return d
}

// Selected returns the selected layer id. Selection fields are checked in
// kind order and the first non-empty one wins.
func (d Document) Selected() (string, bool) {
	for _, k := range layer.ElementKinds() {
		if id := d.SelectedID(k); id != "" {
			return id, true
		}
	}
	return "", false
}

// Find locates the record with the given id.
func (d Document) Find(id string) (layer.Record, layer.Kind, int, bool) {
	if id == "" {
		return layer.Record{}, 0, -1, false
	}
	for _, k := range layer.ElementKinds() {
		for i, r := range d.Layers(k) {
			if r.ID == id {
				return r, k, i, true
			}
		}
	}
	return layer.Record{}, 0, -1, false
}

// Contains reports whether a record with the given id exists. The
// background id is reported when the background is enabled.
func (d Document) Contains(id string) bool {
	if id == BackgroundID {
		return d.HasBackground()
	}
	_, _, _, ok := d.Find(id)
	return ok
}

// LayerCount returns the number of stored element records.
func (d Document) LayerCount() int {
	n := 0
	for _, k := range layer.ElementKinds() {
		n += len(d.Layers(k))
	}
	return n
}
