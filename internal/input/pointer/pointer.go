// Package pointer defines device-independent pointer events for mouse and
// touch input, in device pixels.
package pointer

import (
	"math"
	"time"

	"github.com/dshills/composer/internal/input/key"
)

// Button represents a mouse button.
type Button uint8

const (
	// ButtonNone indicates no button.
	ButtonNone Button = iota
	// ButtonPrimary is the left mouse button or a touch contact.
	ButtonPrimary
	// ButtonMiddle is the middle mouse button.
	ButtonMiddle
	// ButtonSecondary is the right mouse button.
	ButtonSecondary
)

// String returns a string representation of the button.
func (b Button) String() string {
	switch b {
	case ButtonPrimary:
		return "primary"
	case ButtonMiddle:
		return "middle"
	case ButtonSecondary:
		return "secondary"
	default:
		return "none"
	}
}

// Action represents the type of pointer action.
type Action uint8

const (
	// ActionNone indicates no action.
	ActionNone Action = iota
	// ActionDown is a button press or touch start.
	ActionDown
	// ActionMove is pointer movement.
	ActionMove
	// ActionUp is a button release or touch end.
	ActionUp
	// ActionCancel is a pointer cancel, such as a lost touch.
	ActionCancel
)

// String returns a string representation of the action.
func (a Action) String() string {
	switch a {
	case ActionDown:
		return "down"
	case ActionMove:
		return "move"
	case ActionUp:
		return "up"
	case ActionCancel:
		return "cancel"
	default:
		return "none"
	}
}

// Source distinguishes mouse from touch input.
type Source uint8

const (
	// SourceMouse is a mouse or pen.
	SourceMouse Source = iota
	// SourceTouch is a touch contact.
	SourceTouch
)

// Point is a position in device pixels.
type Point struct {
	X float64
	Y float64
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the Euclidean distance between p and q.
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

// Rect is an axis-aligned box in device pixels.
type Rect struct {
	X, Y          float64
	Width, Height float64
}

// Center returns the center of r.
func (r Rect) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// Empty reports whether r has no area.
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Event is a pointer input event.
type Event struct {
	// ID identifies the pointer. Mouse events use 0; touch events use the
	// touch identifier.
	ID int

	Source    Source
	Position  Point
	Button    Button
	Action    Action
	Modifiers key.Modifier
	Timestamp time.Time
}

// Down returns a primary-button press at p.
func Down(p Point, mods key.Modifier) Event {
	return Event{Position: p, Button: ButtonPrimary, Action: ActionDown, Modifiers: mods}
}

// Move returns a pointer move to p.
func Move(p Point, mods key.Modifier) Event {
	return Event{Position: p, Button: ButtonPrimary, Action: ActionMove, Modifiers: mods}
}

// Up returns a primary-button release at p.
func Up(p Point) Event {
	return Event{Position: p, Button: ButtonPrimary, Action: ActionUp}
}

// Touch returns a touch event for the given touch id.
func Touch(id int, a Action, p Point) Event {
	return Event{ID: id, Source: SourceTouch, Position: p, Button: ButtonPrimary, Action: a}
}
