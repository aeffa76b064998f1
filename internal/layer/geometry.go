package layer

import "math"

// SizeMode describes how a kind stores its size.
type SizeMode uint8

const (
	// SizeNone means the kind has no size (background).
	SizeNone SizeMode = iota
	// SizeBox stores width and height in device pixels.
	SizeBox
	// SizeFont stores a single font size; width and height mirror it.
	SizeFont
)

// SizeMode returns how layers of kind k store their size.
func (k Kind) SizeMode() SizeMode {
	switch k {
	case KindText:
		return SizeFont
	case KindSticker, KindIcon, KindVideo, KindFrame:
		return SizeBox
	case KindBackground:
		return SizeNone
	default:
		return SizeNone
	}
}

// Geometry is a layer's placement on the canvas.
type Geometry struct {
	// X and Y are the element centre as a percentage of the canvas.
	X, Y float64
	// Width and Height are in device pixels. For font-sized kinds both
	// equal the font size.
	Width, Height float64
	// Rotation is in degrees.
	Rotation float64
}

// AspectRatio returns Width/Height, or 1 when Height is zero.
func (g Geometry) AspectRatio() float64 {
	if g.Height == 0 {
		return 1
	}
	return g.Width / g.Height
}

// GeometryField selects which parts of a Geometry a write touches.
type GeometryField uint8

const (
	FieldPosition GeometryField = 1 << iota
	FieldSize
	FieldRotation

	FieldAll = FieldPosition | FieldSize | FieldRotation
)

// Has reports whether f includes field.
func (f GeometryField) Has(field GeometryField) bool {
	return f&field != 0
}

// GeometryOf reads the geometry of a payload of the given kind.
func GeometryOf(kind Kind, p Payload) Geometry {
	g := Geometry{
		X: p.FloatOr(KeyX, DefaultPosition),
		Y: p.FloatOr(KeyY, DefaultPosition),
	}

	switch kind.SizeMode() {
	case SizeFont:
		size := p.FloatOr(KeyFontSize, DefaultFontSize)
		g.Width, g.Height = size, size
		g.Rotation = p.FloatOr(KeyRotation, 0)
		if t := p.Map(KeyTransform); t != nil {
			if r, ok := toFloat(t[KeyRotation]); ok {
				g.Rotation = r
			}
		}
	case SizeBox:
		g.Width = p.FloatOr(KeyWidth, DefaultBoxSize)
		g.Height = p.FloatOr(KeyHeight, DefaultBoxSize)
		g.Rotation = p.FloatOr(KeyRotation, 0)
	case SizeNone:
		return Geometry{}
	}
	return g
}

// GeometryPatch returns the patch that writes the selected fields of g into
// a payload of the given kind. For text layers rotation lives in the nested
// transform object, so the patch carries the full merged transform.
func GeometryPatch(kind Kind, p Payload, g Geometry, fields GeometryField) Patch {
	patch := Patch{}
	if kind.SizeMode() == SizeNone {
		return patch
	}

	if fields.Has(FieldPosition) {
		patch[KeyX] = g.X
		patch[KeyY] = g.Y
	}

	switch kind.SizeMode() {
	case SizeFont:
		if fields.Has(FieldSize) {
			patch[KeyFontSize] = math.Round(g.Width)
		}
		if fields.Has(FieldRotation) {
			transform := p.Map(KeyTransform)
			if transform == nil {
				transform = make(map[string]any, 1)
			}
			transform[KeyRotation] = g.Rotation
			patch[KeyTransform] = transform
		}
	case SizeBox:
		if fields.Has(FieldSize) {
			patch[KeyWidth] = g.Width
			patch[KeyHeight] = g.Height
		}
		if fields.Has(FieldRotation) {
			patch[KeyRotation] = g.Rotation
		}
	case SizeNone:
	}
	return patch
}
