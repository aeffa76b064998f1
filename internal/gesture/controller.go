package gesture

import (
	"math"
	"sync"

	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
)

// Transition describes a state change of a controller.
type Transition struct {
	From   State
	To     State
	Handle Handle
	// Aborted is set when the panning modifier ended the gesture.
	Aborted bool
}

// Controller is the gesture state machine of one element.
//
// Thread-safety: All methods are safe for concurrent use. The target and
// observer are called with the controller's lock held and must not call
// back into the controller.
type Controller struct {
	mu sync.Mutex

	target   Target
	cfg      Config
	observer func(Transition)

	state   State
	handle  Handle
	panning bool
	tracker pointer.Tracker

	// Reference frame, valid while state is active.
	frame      Frame
	start      layer.Geometry
	startDist  float64
	startAngle float64
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithObserver registers a function called on every transition.
func WithObserver(fn func(Transition)) ControllerOption {
	return func(c *Controller) {
		c.observer = fn
	}
}

// NewController creates a controller for target.
func NewController(target Target, cfg Config, opts ...ControllerOption) *Controller {
	c := &Controller{
		target: target,
		cfg:    cfg.normalized(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SetConfig replaces the configuration. A gesture in progress keeps the
// limits it started with until its next move.
func (c *Controller) SetConfig(cfg Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg = cfg.normalized()
}

// SetPanning engages or releases canvas panning. Engaging it aborts a
// gesture in progress.
func (c *Controller) SetPanning(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.panning = on
	if on && c.state.Active() {
		c.endLocked(true)
	}
}

// Begin handles a press on hit region h with the given reference frame.
// It reports whether a gesture started. A press is ignored when a gesture
// is already active, the target is locked, panning is engaged, or the
// region does not start a gesture.
func (c *Controller) Begin(e pointer.Event, h Handle, frame Frame) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state.Active() || e.Action != pointer.ActionDown || e.Button != pointer.ButtonPrimary {
		return false
	}
	if c.panning || e.Modifiers.Has(c.cfg.PanModifier) {
		return false
	}
	if c.target.Locked() || c.target.SizeMode() == layer.SizeNone {
		return false
	}

	next := stateFor(h)
	switch next {
	case StateDragging:
		if frame.Canvas.Empty() {
			return false
		}
	case StateResizing:
		c.startDist = e.Position.Dist(frame.Center)
	case StateRotating:
		c.startAngle = angleDeg(e.Position, frame.Center)
	case StateIdle:
		return false
	}

	c.tracker.Begin(e)
	c.frame = frame
	c.start = c.target.Geometry()
	c.handle = h
	c.setStateLocked(next, false)
	return true
}

// Move handles pointer movement. It reports whether geometry was written.
// Moves from untracked pointers are ignored.
func (c *Controller) Move(e pointer.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() || !c.tracker.Owns(e) {
		return false
	}
	if e.Modifiers.Has(c.cfg.PanModifier) {
		c.endLocked(true)
		return false
	}
	c.tracker.Update(e)

	g := c.start
	var fields layer.GeometryField
	switch c.state {
	case StateDragging:
		d := c.tracker.Delta()
		g.X = c.start.X + d.X/c.frame.Canvas.Width*100
		g.Y = c.start.Y + d.Y/c.frame.Canvas.Height*100
		fields = layer.FieldPosition
	case StateResizing:
		g.Width, g.Height = c.resize(e.Position)
		fields = layer.FieldSize
	case StateRotating:
		g.Rotation = c.rotation(e)
		fields = layer.FieldRotation
	case StateIdle:
		return false
	}

	c.target.SetGeometry(g, fields)
	return true
}

// End handles a release or cancel. Events from untracked pointers and
// releases while idle are ignored. It reports whether a gesture ended.
func (c *Controller) End(e pointer.Event) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() || !c.tracker.Owns(e) {
		return false
	}
	c.endLocked(false)
	return true
}

// Abort returns to Idle without writing anything further.
func (c *Controller) Abort() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active() {
		return false
	}
	c.endLocked(true)
	return true
}

// Handle dispatches a non-press event by action.
func (c *Controller) Handle(e pointer.Event) bool {
	switch e.Action {
	case pointer.ActionMove:
		return c.Move(e)
	case pointer.ActionUp, pointer.ActionCancel:
		return c.End(e)
	case pointer.ActionNone, pointer.ActionDown:
		return false
	default:
		return false
	}
}

// resize computes the new size from the pointer's distance to the centre.
func (c *Controller) resize(p pointer.Point) (float64, float64) {
	scale := 1.0
	if c.startDist > 1e-9 {
		scale = p.Dist(c.frame.Center) / c.startDist
	}

	w, h := c.start.Width, c.start.Height
	if c.target.SizeMode() == layer.SizeFont {
		size := math.Round(clamp(w*scale, c.cfg.MinFontSize, c.cfg.MaxFontSize))
		return size, size
	}
	if w <= 0 || h <= 0 {
		return w, h
	}

	// One factor for both sides keeps the aspect ratio exact.
	lo := math.Max(c.cfg.MinSize/w, c.cfg.MinSize/h)
	hi := math.Min(c.cfg.MaxSize/w, c.cfg.MaxSize/h)
	if lo > hi {
		lo = hi
	}
	f := clamp(scale, lo, hi)
	return w * f, h * f
}

// rotation computes the new rotation from the pointer's angle around the
// centre.
func (c *Controller) rotation(e pointer.Event) float64 {
	r := c.start.Rotation + angleDeg(e.Position, c.frame.Center) - c.startAngle
	if c.cfg.SnapModifier != 0 && e.Modifiers.Has(c.cfg.SnapModifier) {
		r = Snap(r, c.cfg.SnapDegrees)
	}
	return NormalizeAngle(r)
}

func (c *Controller) endLocked(aborted bool) {
	c.tracker.End()
	c.frame = Frame{}
	c.start = layer.Geometry{}
	c.startDist = 0
	c.startAngle = 0
	h := c.handle
	c.handle = HandleNone
	c.setStateLockedWithHandle(StateIdle, h, aborted)
}

func (c *Controller) setStateLocked(to State, aborted bool) {
	c.setStateLockedWithHandle(to, c.handle, aborted)
}

func (c *Controller) setStateLockedWithHandle(to State, h Handle, aborted bool) {
	from := c.state
	c.state = to
	if c.observer != nil && from != to {
		c.observer(Transition{From: from, To: to, Handle: h, Aborted: aborted})
	}
}
