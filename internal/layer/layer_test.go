package layer

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind     Kind
		expected string
	}{
		{KindBackground, "background"},
		{KindText, "text"},
		{KindSticker, "sticker"},
		{KindIcon, "icon"},
		{KindVideo, "video"},
		{KindFrame, "frame"},
		{Kind(42), "kind(42)"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			if got := tt.kind.String(); got != tt.expected {
				t.Errorf("Kind.String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range append(ElementKinds(), KindBackground) {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Fatalf("ParseKind(%q) error: %v", k, err)
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %v", k, got)
		}
	}

	if _, err := ParseKind("audio"); !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if got, _ := ParseKind("  Sticker "); got != KindSticker {
		t.Errorf("expected case-insensitive parse, got %v", got)
	}
}

func TestElementKindsExcludesBackground(t *testing.T) {
	kinds := ElementKinds()
	if len(kinds) != 5 {
		t.Fatalf("expected 5 element kinds, got %d", len(kinds))
	}
	for _, k := range kinds {
		if !k.IsElement() {
			t.Errorf("%v should be an element kind", k)
		}
	}
	if KindBackground.IsElement() {
		t.Error("background should not be an element kind")
	}

	// Mutating the returned slice must not affect later calls.
	kinds[0] = KindBackground
	if ElementKinds()[0] != KindText {
		t.Error("ElementKinds returned shared storage")
	}
}

func TestKindTextRoundTrip(t *testing.T) {
	data, err := json.Marshal(map[string]Kind{"k": KindVideo})
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"k":"video"}` {
		t.Errorf("unexpected JSON %s", data)
	}

	var out map[string]Kind
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if out["k"] != KindVideo {
		t.Errorf("got %v", out["k"])
	}
}

func TestNewPayloadIsIsolatedFromInput(t *testing.T) {
	nested := map[string]any{"rotation": 10.0}
	list := []any{"a", map[string]any{"b": 1}}
	input := map[string]any{"transform": nested, "list": list, "x": 5}

	p := NewPayload(input)

	nested["rotation"] = 99.0
	list[1].(map[string]any)["b"] = 2
	input["x"] = 100

	if got := p.Map("transform")["rotation"]; got != 10.0 {
		t.Errorf("nested map aliased: rotation = %v", got)
	}
	v, _ := p.Get("list")
	if got := v.([]any)[1].(map[string]any)["b"]; got != 1 {
		t.Errorf("nested slice aliased: b = %v", got)
	}
	if got := p.FloatOr("x", 0); got != 5 {
		t.Errorf("x = %v, want 5", got)
	}
}

func TestPayloadAccessorsReturnCopies(t *testing.T) {
	p := NewPayload(map[string]any{"transform": map[string]any{"rotation": 1.0}})

	m := p.Map("transform")
	m["rotation"] = 2.0

	if got := p.Map("transform")["rotation"]; got != 1.0 {
		t.Errorf("Map() leaked internal storage: %v", got)
	}

	all := p.ToMap()
	all["transform"].(map[string]any)["rotation"] = 3.0
	if got := p.Map("transform")["rotation"]; got != 1.0 {
		t.Errorf("ToMap() leaked internal storage: %v", got)
	}
}

func TestPayloadWithIsShallowMerge(t *testing.T) {
	p := NewPayload(map[string]any{
		"x":         1.0,
		"transform": map[string]any{"rotation": 10.0, "skew": 2.0},
	})

	q := p.With(map[string]any{"x": 2.0, "transform": map[string]any{"rotation": 20.0}})

	if p.FloatOr("x", 0) != 1.0 {
		t.Error("With mutated the receiver")
	}
	if q.FloatOr("x", 0) != 2.0 {
		t.Error("With did not apply x")
	}
	tr := q.Map("transform")
	if _, ok := tr["skew"]; ok {
		t.Error("nested objects must be replaced, not merged")
	}
}

func TestPayloadNonCloneableValuesDegrade(t *testing.T) {
	fn := func() {}
	ch := make(chan int)
	p := NewPayload(map[string]any{"onClick": fn, "events": ch, "x": 1.0})

	keys := p.ShallowKeys()
	if !reflect.DeepEqual(keys, []string{"events", "onClick"}) {
		t.Errorf("ShallowKeys() = %v", keys)
	}
	if !p.Has("onClick") {
		t.Error("non-cloneable value should be kept by reference")
	}

	q := p.With(map[string]any{"onClick": "replaced"})
	if !reflect.DeepEqual(q.ShallowKeys(), []string{"events"}) {
		t.Errorf("ShallowKeys() after replace = %v", q.ShallowKeys())
	}
	if r := q.Without("events"); len(r.ShallowKeys()) != 0 {
		t.Errorf("ShallowKeys() after Without = %v", r.ShallowKeys())
	}
}

type point struct {
	X, Y float64
	Tags []string
}

type opaque struct {
	hidden []int
}

func TestCloneValueReflect(t *testing.T) {
	src := &point{X: 1, Y: 2, Tags: []string{"a"}}
	c, ok := CloneValue(src)
	if !ok {
		t.Fatal("expected exported struct to clone")
	}
	src.Tags[0] = "b"
	if c.(*point).Tags[0] != "a" {
		t.Error("pointer clone shares slice storage")
	}

	if _, ok := CloneValue(opaque{hidden: []int{1}}); ok {
		t.Error("struct with unexported fields should report degraded clone")
	}

	floats := []float64{1, 2}
	cf, ok := CloneValue(floats)
	if !ok {
		t.Fatal("expected []float64 to clone")
	}
	floats[0] = 9
	if cf.([]float64)[0] != 1 {
		t.Error("typed slice clone shares storage")
	}
}

type node struct {
	Name string
	Next *node
}

func TestCloneValueCycles(t *testing.T) {
	m := map[string]any{"x": 1.0}
	m["self"] = m

	c, ok := CloneValue(m)
	if ok {
		t.Error("self-referencing map should report degraded clone")
	}
	cm := c.(map[string]any)
	if cm["x"] != 1.0 {
		t.Errorf("x = %v", cm["x"])
	}
	if reflect.ValueOf(cm["self"]).Pointer() != reflect.ValueOf(m).Pointer() {
		t.Error("back-reference should be shared with the source")
	}

	s := make([]any, 1)
	s[0] = s
	if _, ok := CloneValue(s); ok {
		t.Error("self-referencing slice should report degraded clone")
	}

	n := &node{Name: "a"}
	n.Next = n
	if _, ok := CloneValue(n); ok {
		t.Error("self-referencing pointer should report degraded clone")
	}

	shared := map[string]any{"v": 1.0}
	if _, ok := CloneValue(map[string]any{"a": shared, "b": shared}); !ok {
		t.Error("a value repeated without a cycle should still clone")
	}

	p := NewPayload(map[string]any{"meta": m, "x": 5.0})
	if !reflect.DeepEqual(p.ShallowKeys(), []string{"meta"}) {
		t.Errorf("ShallowKeys() = %v", p.ShallowKeys())
	}
	if p.Map("meta") == nil || p.FloatOr("x", 0) != 5 {
		t.Error("payload with a cyclic value should stay readable")
	}
}

func TestPayloadJSON(t *testing.T) {
	p := NewPayload(map[string]any{"b": 2, "a": "x"})
	data, err := json.Marshal(p)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `{"a":"x","b":2}` {
		t.Errorf("MarshalJSON = %s", data)
	}

	var q Payload
	if err := json.Unmarshal(data, &q); err != nil {
		t.Fatal(err)
	}
	if q.String("a") != "x" || q.FloatOr("b", 0) != 2 {
		t.Errorf("UnmarshalJSON round trip lost data: %v", q.ToMap())
	}

	empty, _ := json.Marshal(Payload{})
	if string(empty) != "{}" {
		t.Errorf("empty payload = %s", empty)
	}
}

func TestRecordApplyRoutesReservedKeys(t *testing.T) {
	r := NewRecord("t1", 3, NewPayload(map[string]any{"x": 10.0}))

	out := r.Apply(Patch{
		KeyID:       "hijack",
		KeyVisible:  false,
		KeyZIndex:   7,
		KeyStart:    1.5,
		KeyDuration: 4.0,
		"color":     "#fff",
	})

	if out.ID != "t1" {
		t.Error("id must not be patchable")
	}
	if out.Visible {
		t.Error("visible not applied")
	}
	if out.ZIndex != 7 {
		t.Errorf("zIndex = %v", out.ZIndex)
	}
	if out.Placement == nil || out.Placement.Start != 1.5 || out.Placement.Duration != 4 {
		t.Errorf("placement = %+v", out.Placement)
	}
	if out.Payload.Has(KeyVisible) || out.Payload.Has(KeyZIndex) {
		t.Error("reserved keys leaked into payload")
	}
	if out.Payload.String("color") != "#fff" {
		t.Error("payload field not merged")
	}
	if !r.Visible || r.Placement != nil {
		t.Error("Apply mutated the receiver")
	}
}

func TestRecordApplyIgnoresBadTypes(t *testing.T) {
	r := NewRecord("t1", 3, Payload{})
	out := r.Apply(Patch{KeyVisible: "no", KeyLocked: 1, KeyZIndex: "top", KeyStart: "soon"})

	if !out.Visible || out.Locked || out.ZIndex != 3 || out.Placement != nil {
		t.Errorf("malformed reserved values should be ignored: %+v", out)
	}
}

func TestRecordApplyLockedDropsGeometry(t *testing.T) {
	r := NewRecord("s1", 1, NewPayload(map[string]any{"x": 50.0, "width": 200.0}))
	r.Locked = true

	out := r.Apply(Patch{"x": 10.0, "width": 5.0, "opacity": 0.5, KeyVisible: false})

	if got := out.Payload.FloatOr("x", 0); got != 50 {
		t.Errorf("locked x changed to %v", got)
	}
	if got := out.Payload.FloatOr("width", 0); got != 200 {
		t.Errorf("locked width changed to %v", got)
	}
	if out.Payload.FloatOr("opacity", 1) != 0.5 {
		t.Error("non-geometry field should still apply")
	}
	if out.Visible {
		t.Error("visibility should still toggle on a locked record")
	}

	unlocked := out.Apply(Patch{KeyLocked: false})
	if unlocked.Locked {
		t.Error("unlock should apply to a locked record")
	}
}

func TestPatchGeometryHelpers(t *testing.T) {
	p := Patch{"x": 1, "color": "red", "transform": map[string]any{}}
	if !p.HasGeometry() {
		t.Error("expected geometry")
	}
	q := p.WithoutGeometry()
	if q.HasGeometry() || q["color"] != "red" {
		t.Errorf("WithoutGeometry() = %v", q)
	}
	if !IsReservedKey(KeyLocked) || IsReservedKey("x") {
		t.Error("IsReservedKey mismatch")
	}
}

func TestRecordLayerPlacement(t *testing.T) {
	r := NewRecord("v1", 2, Payload{})
	l := r.Layer(KindVideo, 30)
	if l.Placement.Start != 0 || l.Placement.Duration != 30 {
		t.Errorf("untimed placement = %+v", l.Placement)
	}

	r.Placement = &Placement{Start: 2, Duration: 5}
	l = r.Layer(KindVideo, 30)
	if l.Placement.End() != 7 {
		t.Errorf("timed placement end = %v", l.Placement.End())
	}
}

func TestGeometryOfBox(t *testing.T) {
	p := NewPayload(map[string]any{"x": 10, "y": 20.5, "width": 300, "height": 150, "rotation": 45})
	g := GeometryOf(KindSticker, p)

	want := Geometry{X: 10, Y: 20.5, Width: 300, Height: 150, Rotation: 45}
	if g != want {
		t.Errorf("GeometryOf = %+v, want %+v", g, want)
	}
	if g.AspectRatio() != 2 {
		t.Errorf("AspectRatio = %v", g.AspectRatio())
	}
}

func TestGeometryOfTextUsesFontAndTransform(t *testing.T) {
	p := NewPayload(Defaults(KindText)).With(map[string]any{
		"fontSize":  40,
		"transform": map[string]any{"rotation": -30.0, "skewX": 4.0},
	})
	g := GeometryOf(KindText, p)

	if g.Width != 40 || g.Height != 40 {
		t.Errorf("text size = %vx%v", g.Width, g.Height)
	}
	if g.Rotation != -30 {
		t.Errorf("text rotation = %v", g.Rotation)
	}
}

func TestGeometryPatchTextKeepsNestedTransform(t *testing.T) {
	p := NewPayload(map[string]any{"transform": map[string]any{"rotation": 0.0, "skewX": 4.0}})
	patch := GeometryPatch(KindText, p, Geometry{Width: 41.6, Rotation: 90}, FieldSize|FieldRotation)

	if patch[KeyFontSize] != 42.0 {
		t.Errorf("fontSize = %v, want rounded 42", patch[KeyFontSize])
	}
	tr, ok := patch[KeyTransform].(map[string]any)
	if !ok {
		t.Fatalf("transform missing from patch: %v", patch)
	}
	if tr["rotation"] != 90.0 || tr["skewX"] != 4.0 {
		t.Errorf("transform = %v, want full merged object", tr)
	}
	if _, ok := patch[KeyX]; ok {
		t.Error("position not requested but present")
	}
}

func TestGeometryPatchBoxAndBackground(t *testing.T) {
	g := Geometry{X: 1, Y: 2, Width: 3, Height: 4, Rotation: 5}
	patch := GeometryPatch(KindFrame, Payload{}, g, FieldAll)
	want := Patch{"x": 1.0, "y": 2.0, "width": 3.0, "height": 4.0, "rotation": 5.0}
	if !reflect.DeepEqual(patch, want) {
		t.Errorf("GeometryPatch = %v, want %v", patch, want)
	}

	if len(GeometryPatch(KindBackground, Payload{}, g, FieldAll)) != 0 {
		t.Error("background has no geometry")
	}
}

func TestDefaultsAreFresh(t *testing.T) {
	d := Defaults(KindText)
	d["x"] = 1.0
	if Defaults(KindText)["x"] != DefaultPosition {
		t.Error("Defaults returned shared map")
	}
}
