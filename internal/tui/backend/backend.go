// Package backend provides the terminal abstraction the composer TUI draws
// on. Terminal wraps a tcell screen; NullBackend records cells in memory.
package backend

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/composer/internal/input/key"
)

// EventType identifies the type of terminal event.
type EventType int

const (
	EventNone EventType = iota
	EventKey
	EventMouse
	EventResize
	EventInterrupt
	// EventClosed is returned by PollEvent after Shutdown.
	EventClosed
)

// MouseButton is the mouse button held during a mouse event.
type MouseButton int

const (
	MouseNone MouseButton = iota
	MouseLeft
	MouseMiddle
	MouseRight
	MouseWheelUp
	MouseWheelDown
)

// Event is a terminal event.
type Event struct {
	Type EventType

	// Key holds key events.
	Key key.Event

	// Mouse event fields, in cells.
	X, Y   int
	Button MouseButton
	Mods   key.Modifier

	// Resize event fields.
	Width, Height int

	// Data carries the payload of an interrupt.
	Data any
}

// Backend is a cell-addressed display with an event queue.
type Backend interface {
	// Init prepares the backend. It must be called before anything else.
	Init() error

	// Shutdown restores the terminal. PollEvent then returns EventClosed.
	Shutdown()

	// Size returns the display size in cells.
	Size() (width, height int)

	// SetContent sets one cell. Positions off the display are ignored.
	SetContent(x, y int, r rune, style tcell.Style)

	// Clear blanks the display.
	Clear()

	// Show flushes pending changes to the display.
	Show()

	// PollEvent blocks until the next event.
	PollEvent() Event

	// Interrupt wakes PollEvent with an EventInterrupt carrying data.
	Interrupt(data any)
}
