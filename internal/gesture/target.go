package gesture

import (
	"unicode/utf8"

	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
)

// Target is the capability record a controller manipulates. Each element
// kind supplies one; the controller never sees the kind's payload.
type Target interface {
	// Geometry returns the element's current geometry.
	Geometry() layer.Geometry
	// SetGeometry writes the selected fields of g.
	SetGeometry(g layer.Geometry, fields layer.GeometryField)
	// Locked reports whether geometry changes are suppressed.
	Locked() bool
	// SizeMode reports how the element is sized.
	SizeMode() layer.SizeMode
}

// Frame is the reference frame captured when a gesture starts.
type Frame struct {
	// Canvas is the canvas bounding box in device pixels.
	Canvas pointer.Rect
	// Center is the element centre in device pixels.
	Center pointer.Point
}

// Box is an element's oriented bounding box in device pixels.
type Box struct {
	Center        pointer.Point
	Width, Height float64
	// Rotation is in degrees, clockwise in screen space.
	Rotation float64
}

// Layout places geometry g on canvas. Positions are percentages of the
// canvas size.
func Layout(canvas pointer.Rect, g layer.Geometry) Box {
	return Box{
		Center: pointer.Point{
			X: canvas.X + g.X*canvas.Width/100,
			Y: canvas.Y + g.Y*canvas.Height/100,
		},
		Width:    g.Width,
		Height:   g.Height,
		Rotation: g.Rotation,
	}
}

// textAdvance is the estimated glyph width as a fraction of the font size.
const textAdvance = 0.6

// Measure estimates the box of a layer. Text width is estimated from its
// content length; hosts that can measure glyphs should supply their own
// MeasureFunc.
func Measure(canvas pointer.Rect, l layer.Layer) Box {
	b := Layout(canvas, l.Geometry())
	if l.Kind.SizeMode() == layer.SizeFont {
		n := utf8.RuneCountInString(l.Payload.String("content"))
		if n < 1 {
			n = 1
		}
		b.Width = b.Height * textAdvance * float64(n)
	}
	return b
}

// MeasureFunc returns the box of a layer on the given canvas.
type MeasureFunc func(canvas pointer.Rect, l layer.Layer) Box

// local converts p into the box's unrotated frame, relative to its centre.
func (b Box) local(p pointer.Point) pointer.Point {
	return rotate(p.Sub(b.Center), -b.Rotation)
}

// world converts a point in the box's local frame to device pixels.
func (b Box) world(v pointer.Point) pointer.Point {
	r := rotate(v, b.Rotation)
	return pointer.Point{X: b.Center.X + r.X, Y: b.Center.Y + r.Y}
}

// Contains reports whether p lies inside the box.
func (b Box) Contains(p pointer.Point) bool {
	v := b.local(p)
	return v.X >= -b.Width/2 && v.X <= b.Width/2 && v.Y >= -b.Height/2 && v.Y <= b.Height/2
}

// HandlePoint returns the position of handle h. rotateOffset is the
// distance of the rotate handle above the top edge.
func (b Box) HandlePoint(h Handle, rotateOffset float64) (pointer.Point, bool) {
	hw, hh := b.Width/2, b.Height/2
	var v pointer.Point
	switch h {
	case HandleTopLeft:
		v = pointer.Point{X: -hw, Y: -hh}
	case HandleTopRight:
		v = pointer.Point{X: hw, Y: -hh}
	case HandleBottomLeft:
		v = pointer.Point{X: -hw, Y: hh}
	case HandleBottomRight:
		v = pointer.Point{X: hw, Y: hh}
	case HandleRotate:
		v = pointer.Point{X: 0, Y: -hh - rotateOffset}
	case HandleNone, HandleBody:
		return pointer.Point{}, false
	default:
		return pointer.Point{}, false
	}
	return b.world(v), true
}
