package document

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/dshills/composer/internal/layer"
)

func sampleDoc() Document {
	d := New(Options{Name: "Sample", BackgroundType: "white"})
	d = d.WithLayers(layer.KindText, []layer.Record{
		layer.NewRecord("text_1", 1, layer.NewPayload(map[string]any{"x": 10.0, "content": "Hi"})),
	})
	d = d.WithLayers(layer.KindSticker, []layer.Record{
		layer.NewRecord("sticker_1", 2, layer.NewPayload(map[string]any{"x": 20.0, "width": 100.0})),
	})
	return d
}

func TestNewDefaults(t *testing.T) {
	d := New(Options{})
	if !strings.HasPrefix(d.ProjectID, "project_") {
		t.Errorf("ProjectID = %q, want project_ prefix", d.ProjectID)
	}
	if d.Name != "Untitled" {
		t.Errorf("Name = %q", d.Name)
	}
	if d.DurationMs != DefaultDurationMs {
		t.Errorf("DurationMs = %d", d.DurationMs)
	}
	if d.HasBackground() {
		t.Error("empty BackgroundType should not enable the background")
	}
	if d.DurationSeconds() != 30 {
		t.Errorf("DurationSeconds = %v", d.DurationSeconds())
	}

	other := New(Options{})
	if other.ProjectID == d.ProjectID {
		t.Error("project ids should be unique")
	}
}

func TestNewBackground(t *testing.T) {
	d := New(Options{BackgroundType: "gradient"})
	if !d.HasBackground() {
		t.Fatal("background should be enabled")
	}
	if d.Background.String("type") != "gradient" {
		t.Errorf("background type = %q", d.Background.String("type"))
	}
}

func TestLayersAndSelection(t *testing.T) {
	d := sampleDoc()

	if got := len(d.Layers(layer.KindText)); got != 1 {
		t.Errorf("text layers = %d", got)
	}
	if d.Layers(layer.KindVideo) != nil {
		t.Error("absent array should be nil")
	}
	if d.LayerCount() != 2 {
		t.Errorf("LayerCount = %d", d.LayerCount())
	}

	d2 := d.WithSelected(layer.KindSticker, "sticker_1")
	if id, ok := d2.Selected(); !ok || id != "sticker_1" {
		t.Errorf("Selected = %q, %v", id, ok)
	}
	if _, ok := d.Selected(); ok {
		t.Error("WithSelected should not modify the receiver")
	}
	if _, ok := d2.ClearSelection().Selected(); ok {
		t.Error("ClearSelection should clear every field")
	}
}

func TestFind(t *testing.T) {
	d := sampleDoc()

	r, k, i, ok := d.Find("sticker_1")
	if !ok || k != layer.KindSticker || i != 0 || r.ID != "sticker_1" {
		t.Errorf("Find = %v, %v, %d, %v", r.ID, k, i, ok)
	}
	if _, _, _, ok := d.Find("missing"); ok {
		t.Error("unknown id should not be found")
	}
	if _, _, _, ok := d.Find(""); ok {
		t.Error("empty id should not be found")
	}
	if !d.Contains(BackgroundID) {
		t.Error("background should be contained when enabled")
	}
}

func TestSignatureIgnoresTransientFields(t *testing.T) {
	d := sampleDoc()
	sel := d.WithSelected(layer.KindText, "text_1")
	sel.UpdatedAt = time.Now()

	if Signature(d) != Signature(sel) {
		t.Error("selection and UpdatedAt must not change the signature")
	}

	moved := d.WithLayers(layer.KindText, []layer.Record{
		d.TextLayers[0].Apply(layer.Patch{"x": 11.0}),
	})
	if Signature(d) == Signature(moved) {
		t.Error("payload change must change the signature")
	}

	hidden := d.WithLayers(layer.KindText, []layer.Record{
		d.TextLayers[0].Apply(layer.Patch{"visible": false}),
	})
	if Signature(d) == Signature(hidden) {
		t.Error("visibility change must change the signature")
	}
}

func TestSignatureFallsBackForUnencodableValues(t *testing.T) {
	fn := func() {}
	d := sampleDoc()
	d = d.WithLayers(layer.KindIcon, []layer.Record{
		layer.NewRecord("icon_1", 3, layer.NewPayload(map[string]any{"onClick": fn})),
	})

	a := Signature(d)
	if a == "" {
		t.Fatal("signature should not be empty")
	}
	if a != Signature(d) {
		t.Error("fallback signature should be stable for the same document")
	}
}

func TestSignatureHandlesCycles(t *testing.T) {
	m := map[string]any{"n": 1.0}
	m["self"] = m
	base := sampleDoc()
	d := base.WithLayers(layer.KindIcon, []layer.Record{
		layer.NewRecord("icon_1", 3, layer.NewPayload(map[string]any{"meta": m})),
	})

	a := Signature(d)
	if a == "" || a != Signature(d) {
		t.Error("signature of a cyclic payload should be stable")
	}
	if a == Signature(base) {
		t.Error("cyclic payload should still contribute to the signature")
	}

	snap := Capture(d)
	if got := snap.Shallow(); len(got) != 1 || got[0] != "icon_1.meta" {
		t.Errorf("Shallow = %v", got)
	}

	if got := fmt.Sprint(acyclic(m, nil)); got != "map[n:1 self:<cycle>]" {
		t.Errorf("acyclic = %s", got)
	}
}

func TestCaptureIsolation(t *testing.T) {
	d := sampleDoc()
	snap := Capture(d)

	// Replace a record in the live document's backing array.
	d.TextLayers[0] = d.TextLayers[0].Apply(layer.Patch{"x": 99.0})

	restored := snap.Document()
	if got := restored.TextLayers[0].Payload.FloatOr("x", 0); got != 10 {
		t.Errorf("snapshot x = %v, want 10", got)
	}

	// Mutating the returned document must not reach the snapshot either.
	restored.TextLayers[0] = restored.TextLayers[0].Apply(layer.Patch{"x": 1.0})
	if got := snap.Document().TextLayers[0].Payload.FloatOr("x", 0); got != 10 {
		t.Errorf("snapshot x after caller write = %v, want 10", got)
	}
}

func TestCaptureStripsTransientFields(t *testing.T) {
	d := sampleDoc().WithSelected(layer.KindText, "text_1")
	d.UpdatedAt = time.Now()

	got := Capture(d).Document()
	if _, ok := got.Selected(); ok {
		t.Error("snapshot should not carry a selection")
	}
	if !got.UpdatedAt.IsZero() {
		t.Error("snapshot should not carry UpdatedAt")
	}
}

func TestCaptureReportsShallowValues(t *testing.T) {
	d := sampleDoc()
	d = d.WithLayers(layer.KindIcon, []layer.Record{
		layer.NewRecord("icon_1", 3, layer.NewPayload(map[string]any{"onClick": func() {}})),
	})

	snap := Capture(d)
	shallow := snap.Shallow()
	if len(shallow) != 1 || shallow[0] != "icon_1.onClick" {
		t.Errorf("Shallow = %v", shallow)
	}
	if snap.IsZero() {
		t.Error("degraded snapshot should still be recorded")
	}
}

func TestRestoreSelection(t *testing.T) {
	before := sampleDoc()
	snap := Capture(before)

	current := before.WithLayers(layer.KindText, nil).WithSelected(layer.KindSticker, "sticker_1")
	current.UpdatedAt = time.Unix(100, 0)

	d := snap.Restore(current)
	if id, _ := d.Selected(); id != "sticker_1" {
		t.Errorf("selection = %q, want sticker_1", id)
	}
	if len(d.TextLayers) != 1 {
		t.Error("text layer should be restored")
	}
	if !d.UpdatedAt.Equal(current.UpdatedAt) {
		t.Error("UpdatedAt should come from the current document")
	}

	// A selection that no longer exists is dropped.
	added := before.WithLayers(layer.KindVideo, []layer.Record{
		layer.NewRecord("video_1", 4, layer.Payload{}),
	}).WithSelected(layer.KindVideo, "video_1")
	d = snap.Restore(added)
	if _, ok := d.Selected(); ok {
		t.Error("stale selection should be cleared")
	}
}

func TestSnapshotEqual(t *testing.T) {
	a := Capture(sampleDoc())
	b := Capture(sampleDoc().WithSelected(layer.KindText, "text_1"))
	if a.Signature() == "" {
		t.Fatal("empty signature")
	}
	// Different project ids make the documents differ.
	if a.Equal(b) {
		t.Error("documents with different project ids should not be equal")
	}

	d := sampleDoc()
	if !Capture(d).Equal(Capture(d.WithSelected(layer.KindText, "text_1"))) {
		t.Error("selection-only difference should compare equal")
	}
	var zero Snapshot
	if !zero.IsZero() {
		t.Error("zero snapshot should report IsZero")
	}
}

func TestFromMap(t *testing.T) {
	m := map[string]any{
		"projectId":      "p1",
		"name":           "Imported",
		"durationMs":     12000,
		"backgroundType": "white",
		"background":     map[string]any{"type": "white"},
		"textLayers": []any{
			map[string]any{"id": "t1", "zIndex": 2, "x": 30.0, "locked": true},
			"not an object",
			map[string]any{"zIndex": 3},
			map[string]any{"id": "t1", "zIndex": 4},
		},
		"videoLayers":       []any{map[string]any{"id": "v1", "start": 2.5, "duration": 4}},
		"stickerLayers":     "malformed",
		"selectedVideoId":   "v1",
		"selectedStickerId": "ghost",
	}

	d := FromMap(m)
	if d.ProjectID != "p1" || d.Name != "Imported" || d.DurationMs != 12000 {
		t.Errorf("header = %q %q %d", d.ProjectID, d.Name, d.DurationMs)
	}
	if len(d.TextLayers) != 1 {
		t.Fatalf("text layers = %d, want 1", len(d.TextLayers))
	}
	tl := d.TextLayers[0]
	if !tl.Locked || tl.ZIndex != 2 || tl.Payload.FloatOr("x", 0) != 30 {
		t.Errorf("text record = %+v", tl)
	}
	if tl.Payload.Has("locked") || tl.Payload.Has("id") {
		t.Error("reserved keys should not be stored in the payload")
	}
	if d.StickerLayers != nil {
		t.Error("malformed array should be empty")
	}
	v := d.VideoLayers[0]
	if v.Placement == nil || v.Placement.Start != 2.5 || v.Placement.Duration != 4 {
		t.Errorf("video placement = %+v", v.Placement)
	}
	if id, _ := d.Selected(); id != "v1" {
		t.Errorf("selection = %q", id)
	}
}

func TestToMapRoundTrip(t *testing.T) {
	d := sampleDoc().WithSelected(layer.KindSticker, "sticker_1")
	back := FromMap(ToMap(d))

	if Signature(back) != Signature(d) {
		t.Error("round trip changed the persistent fields")
	}
	if id, _ := back.Selected(); id != "sticker_1" {
		t.Errorf("selection = %q", id)
	}
}

func TestYAMLRoundTrip(t *testing.T) {
	d := sampleDoc().WithSelected(layer.KindText, "text_1")
	data, err := EncodeYAML(d)
	if err != nil {
		t.Fatalf("EncodeYAML: %v", err)
	}
	back, err := DecodeYAML(data)
	if err != nil {
		t.Fatalf("DecodeYAML: %v", err)
	}
	if Signature(back) != Signature(d) {
		t.Errorf("round trip changed the document:\n%s", data)
	}
	if id, _ := back.Selected(); id != "text_1" {
		t.Errorf("selection = %q", id)
	}
}

func TestDecodeYAMLErrors(t *testing.T) {
	if _, err := DecodeYAML(nil); err != ErrEmptyDocument {
		t.Errorf("empty input err = %v", err)
	}
	if _, err := DecodeYAML([]byte("a: [")); err == nil {
		t.Error("expected syntax error")
	}

	d, err := DecodeYAML([]byte("name: Bare\n"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(d.ProjectID, "project_") || d.Name != "Bare" {
		t.Errorf("decoded %q %q", d.ProjectID, d.Name)
	}
}
