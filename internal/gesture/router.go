package gesture

import (
	"sync"

	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
	"github.com/dshills/composer/internal/logging"
)

// Host is the document owner a Router works against.
type Host interface {
	// Layers returns the derived layers, bottom first.
	Layers() []layer.Layer
	// SelectedID returns the selected layer id, or "".
	SelectedID() string
	// Select selects id, or clears the selection when id is "".
	Select(id string)
	// Target returns the capability record for the layer with the given id.
	Target(id string) Target
}

// Hit is the result of a hit test.
type Hit struct {
	ID     string
	Handle Handle
}

// Router dispatches pointer events to per-layer controllers.
//
// A press is hit-tested against the current layers. Once a gesture starts,
// every later event goes to the capturing controller until it returns to
// Idle, whether or not the pointer is still over the element.
//
// Thread-safety: All methods are safe for concurrent use. The host, the
// targets and the transition observer are called with the router's lock
// held and must not call back into the router.
type Router struct {
	mu sync.Mutex

	host     Host
	cfg      Config
	canvas   pointer.Rect
	measure  MeasureFunc
	observer func(id string, t Transition)
	log      *logging.Logger

	controllers map[string]*Controller
	active      string
	panning     bool
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithMeasure sets the function used to size layers for hit testing.
func WithMeasure(fn MeasureFunc) RouterOption {
	return func(r *Router) {
		if fn != nil {
			r.measure = fn
		}
	}
}

// WithTransitions registers a function called on every controller
// transition.
func WithTransitions(fn func(id string, t Transition)) RouterOption {
	return func(r *Router) {
		r.observer = fn
	}
}

// WithRouterLogger sets the router's logger.
func WithRouterLogger(l *logging.Logger) RouterOption {
	return func(r *Router) {
		if l != nil {
			r.log = l
		}
	}
}

// NewRouter creates a router for host.
func NewRouter(host Host, cfg Config, opts ...RouterOption) *Router {
	r := &Router{
		host:        host,
		cfg:         cfg.normalized(),
		measure:     Measure,
		log:         logging.Null(),
		controllers: make(map[string]*Controller),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// SetCanvas sets the canvas bounding box. A gesture in progress keeps the
// frame it captured at its start.
func (r *Router) SetCanvas(canvas pointer.Rect) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.canvas = canvas
}

// Canvas returns the canvas bounding box.
func (r *Router) Canvas() pointer.Rect {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.canvas
}

// SetConfig replaces the gesture configuration of every controller.
func (r *Router) SetConfig(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.cfg = cfg.normalized()
	for _, c := range r.controllers {
		c.SetConfig(r.cfg)
	}
}

// SetPanning engages or releases canvas panning. Engaging it aborts the
// active gesture.
func (r *Router) SetPanning(on bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.panning = on
	for _, c := range r.controllers {
		c.SetPanning(on)
	}
	if on {
		r.active = ""
	}
}

// Active returns the id of the layer being manipulated, or "".
func (r *Router) Active() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// HandleEvent routes e. It reports whether the event was consumed by a
// gesture.
func (r *Router) HandleEvent(e pointer.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e.Action == pointer.ActionDown {
		return r.pressLocked(e)
	}
	if r.active == "" {
		return false
	}

	c := r.controllers[r.active]
	if c == nil {
		r.active = ""
		return false
	}
	handled := c.Handle(e)
	if !c.State().Active() {
		r.active = ""
	}
	return handled
}

// HitTest returns the region under p. Handles of the selected layer are
// tested first, then the bodies of visible layers from the top down.
func (r *Router) HitTest(p pointer.Point) (Hit, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hitLocked(r.host.Layers(), p)
}

// Cancel aborts the active gesture, if any.
func (r *Router) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c := r.controllers[r.active]; c != nil {
		c.Abort()
	}
	r.active = ""
}

func (r *Router) pressLocked(e pointer.Event) bool {
	if r.active != "" {
		// Only the first pointer drives a gesture.
		return false
	}
	if e.Button != pointer.ButtonPrimary {
		return false
	}

	layers := r.host.Layers()
	r.prune(layers)

	hit, ok := r.hitLocked(layers, e.Position)
	if !ok {
		if r.host.SelectedID() != "" {
			r.host.Select("")
		}
		return false
	}
	if r.host.SelectedID() != hit.ID {
		r.host.Select(hit.ID)
	}

	var box Box
	for _, l := range layers {
		if l.ID == hit.ID {
			box = r.measure(r.canvas, l)
			break
		}
	}

	c := r.controller(hit.ID)
	if !c.Begin(e, hit.Handle, Frame{Canvas: r.canvas, Center: box.Center}) {
		r.log.Debug("press on %s (%s) did not start a gesture", hit.ID, hit.Handle)
		return false
	}
	r.active = hit.ID
	return true
}

func (r *Router) hitLocked(layers []layer.Layer, p pointer.Point) (Hit, bool) {
	if r.canvas.Empty() {
		return Hit{}, false
	}

	if sel := r.host.SelectedID(); sel != "" {
		for _, l := range layers {
			if l.ID != sel || !l.Visible || l.Locked || l.IsBackground() {
				continue
			}
			box := r.measure(r.canvas, l)
			for _, h := range corners {
				if pt, ok := box.HandlePoint(h, r.cfg.RotateHandleOffset); ok && pt.Dist(p) <= r.cfg.HandleRadius {
					return Hit{ID: l.ID, Handle: h}, true
				}
			}
			if pt, ok := box.HandlePoint(HandleRotate, r.cfg.RotateHandleOffset); ok && pt.Dist(p) <= r.cfg.HandleRadius {
				return Hit{ID: l.ID, Handle: HandleRotate}, true
			}
		}
	}

	for i := len(layers) - 1; i >= 0; i-- {
		l := layers[i]
		if !l.Visible || l.IsBackground() {
			continue
		}
		if r.measure(r.canvas, l).Contains(p) {
			return Hit{ID: l.ID, Handle: HandleBody}, true
		}
	}
	return Hit{}, false
}

// controller returns the controller for id, creating it on first use.
func (r *Router) controller(id string) *Controller {
	if c, ok := r.controllers[id]; ok {
		return c
	}
	var opts []ControllerOption
	if r.observer != nil {
		obs := r.observer
		opts = append(opts, WithObserver(func(t Transition) { obs(id, t) }))
	}
	c := NewController(r.host.Target(id), r.cfg, opts...)
	c.SetPanning(r.panning)
	r.controllers[id] = c
	return c
}

// prune drops controllers of layers that no longer exist.
func (r *Router) prune(layers []layer.Layer) {
	if len(r.controllers) == 0 {
		return
	}
	live := make(map[string]bool, len(layers))
	for _, l := range layers {
		live[l.ID] = true
	}
	for id := range r.controllers {
		if !live[id] && id != r.active {
			delete(r.controllers, id)
		}
	}
}
