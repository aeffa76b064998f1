package gesture

// State is the controller state.
type State uint8

const (
	StateIdle State = iota
	StateDragging
	StateResizing
	StateRotating
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDragging:
		return "dragging"
	case StateResizing:
		return "resizing"
	case StateRotating:
		return "rotating"
	default:
		return "unknown"
	}
}

// Active reports whether s is a gesture state.
func (s State) Active() bool {
	return s != StateIdle
}

// Handle identifies the hit region of a press.
type Handle uint8

const (
	HandleNone Handle = iota
	HandleBody
	HandleTopLeft
	HandleTopRight
	HandleBottomLeft
	HandleBottomRight
	HandleRotate
)

// String returns the handle name.
func (h Handle) String() string {
	switch h {
	case HandleNone:
		return "none"
	case HandleBody:
		return "body"
	case HandleTopLeft:
		return "top-left"
	case HandleTopRight:
		return "top-right"
	case HandleBottomLeft:
		return "bottom-left"
	case HandleBottomRight:
		return "bottom-right"
	case HandleRotate:
		return "rotate"
	default:
		return "unknown"
	}
}

// IsCorner reports whether h is a resize handle.
func (h Handle) IsCorner() bool {
	switch h {
	case HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight:
		return true
	case HandleNone, HandleBody, HandleRotate:
		return false
	default:
		return false
	}
}

// stateFor returns the gesture a press on h starts.
func stateFor(h Handle) State {
	switch {
	case h == HandleBody:
		return StateDragging
	case h.IsCorner():
		return StateResizing
	case h == HandleRotate:
		return StateRotating
	default:
		return StateIdle
	}
}

// corners lists the resize handles in hit-test order.
var corners = []Handle{HandleTopLeft, HandleTopRight, HandleBottomLeft, HandleBottomRight}
