package tui

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/dshills/composer/internal/editor"
	"github.com/dshills/composer/internal/input/key"
	"github.com/dshills/composer/internal/input/keymap"
	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
	"github.com/dshills/composer/internal/logging"
	"github.com/dshills/composer/internal/tui/backend"
)

// Nudge steps in canvas percent.
const (
	nudgeStep      = 1.0
	nudgeStepLarge = 5.0
)

// redraw is the interrupt payload posted when the session publishes.
type redraw struct{}

// App runs a session in a terminal.
type App struct {
	backend backend.Backend
	session *editor.Session
	log     *logging.Logger
	keys    atomic.Pointer[keymap.Parsed]

	pressed bool
	panning bool
	message string
}

// Option configures an App.
type Option func(*App)

// WithLogger sets the app's logger.
func WithLogger(l *logging.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.log = l
		}
	}
}

// WithKeymap sets the key bindings. The default is keymap.Default.
func WithKeymap(km *keymap.Parsed) Option {
	return func(a *App) {
		if km != nil {
			a.keys.Store(km)
		}
	}
}

// New creates an app drawing session on b. Without WithKeymap it uses the
// default bindings.
func New(b backend.Backend, session *editor.Session, opts ...Option) (*App, error) {
	a := &App{backend: b, session: session, log: logging.Null()}
	for _, opt := range opts {
		opt(a)
	}
	if a.keys.Load() == nil {
		km, err := keymap.Default().Parse()
		if err != nil {
			return nil, fmt.Errorf("default keymap: %w", err)
		}
		a.keys.Store(km)
	}
	a.log = a.log.WithComponent("tui")
	return a, nil
}

// SetKeymap replaces the key bindings. It is safe to call while Run is
// active.
func (a *App) SetKeymap(km *keymap.Parsed) {
	if km != nil {
		a.keys.Store(km)
		a.backend.Interrupt(redraw{})
	}
}

// Run initializes the backend and processes events until the user quits,
// the backend closes or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.backend.Init(); err != nil {
		return err
	}
	defer a.backend.Shutdown()

	sub, err := a.session.Bus().SubscribeFunc("**", func(context.Context, any) error {
		a.backend.Interrupt(redraw{})
		return nil
	})
	if err != nil {
		return err
	}
	defer sub.Cancel()

	stop := context.AfterFunc(ctx, func() { a.backend.Interrupt(ctx) })
	defer stop()

	a.resize()
	a.draw()
	for {
		ev := a.backend.PollEvent()
		if ev.Type == backend.EventClosed {
			return nil
		}
		if ev.Type == backend.EventInterrupt && ctx.Err() != nil {
			return ctx.Err()
		}
		if a.handle(ev) {
			return nil
		}
		a.draw()
	}
}

// handle applies one event. It reports whether the app should quit.
func (a *App) handle(ev backend.Event) bool {
	switch ev.Type {
	case backend.EventKey:
		return a.handleKey(ev.Key)
	case backend.EventMouse:
		a.handleMouse(ev)
	case backend.EventResize:
		a.resize()
	case backend.EventNone, backend.EventInterrupt, backend.EventClosed:
	}
	return false
}

func (a *App) resize() {
	w, h := a.backend.Size()
	a.session.SetCanvas(canvasRect(w, h))
}

func (a *App) handleKey(e key.Event) bool {
	a.message = ""
	s := a.session

	b, ok := a.keys.Load().Lookup(e)
	if !ok {
		if !s.HandleKey(e) {
			a.log.Debug("unbound key %s", e)
		}
		return false
	}

	switch b.Action {
	case keymap.ActionQuit:
		return true
	case keymap.ActionAddText:
		a.add(layer.KindText)
	case keymap.ActionAddSticker:
		a.add(layer.KindSticker)
	case keymap.ActionAddIcon:
		a.add(layer.KindIcon)
	case keymap.ActionAddVideo:
		a.add(layer.KindVideo)
	case keymap.ActionAddFrame:
		a.add(layer.KindFrame)
	case keymap.ActionSelectNext:
		a.cycle(false)
	case keymap.ActionSelectPrev:
		a.cycle(true)
	case keymap.ActionSelectClear:
		s.Select("")
	case keymap.ActionNudgeUp:
		a.nudge(0, -1, e.Modifiers.HasShift())
	case keymap.ActionNudgeDown:
		a.nudge(0, 1, e.Modifiers.HasShift())
	case keymap.ActionNudgeLeft:
		a.nudge(-1, 0, e.Modifiers.HasShift())
	case keymap.ActionNudgeRight:
		a.nudge(1, 0, e.Modifiers.HasShift())
	case keymap.ActionToggleVisible:
		a.withSelected(s.ToggleVisible)
	case keymap.ActionToggleLocked:
		a.withSelected(s.ToggleLocked)
	case keymap.ActionDuplicate:
		a.withSelected(func(id string) { s.Duplicate(id) })
	case keymap.ActionSendBackward:
		a.withSelected(s.SendBackward)
	case keymap.ActionBringForward:
		a.withSelected(s.BringForward)
	case keymap.ActionSendToBack:
		a.withSelected(s.SendToBack)
	case keymap.ActionBringToFront:
		a.withSelected(s.BringToFront)
	case keymap.ActionTogglePanning:
		a.panning = !a.panning
		s.SetPanning(a.panning)
	default:
		a.log.Warn("no handler for action %s", b.Action)
	}
	return false
}

func (a *App) add(k layer.Kind) {
	id := a.session.Add(k, nil)
	a.message = "added " + id
}

func (a *App) withSelected(fn func(id string)) {
	id := a.session.SelectedID()
	if id == "" {
		a.message = "nothing selected"
		return
	}
	fn(id)
}

// cycle selects the next (or previous) element layer in stacking order.
func (a *App) cycle(back bool) {
	var ids []string
	for _, l := range a.session.Layers() {
		if !l.IsBackground() {
			ids = append(ids, l.ID)
		}
	}
	if len(ids) == 0 {
		return
	}

	cur := -1
	sel := a.session.SelectedID()
	for i, id := range ids {
		if id == sel {
			cur = i
			break
		}
	}
	next := 0
	switch {
	case cur < 0 && back:
		next = len(ids) - 1
	case cur >= 0 && back:
		next = (cur - 1 + len(ids)) % len(ids)
	case cur >= 0:
		next = (cur + 1) % len(ids)
	}
	a.session.Select(ids[next])
}

// nudge moves the selected layer by a step of the canvas in direction
// dx, dy.
func (a *App) nudge(dx, dy float64, large bool) {
	l, ok := a.session.Selected()
	if !ok || l.IsBackground() {
		return
	}
	if l.Locked {
		a.message = "layer is locked"
		return
	}

	step := nudgeStep
	if large {
		step = nudgeStepLarge
	}
	g := l.Geometry()
	g.X += dx * step
	g.Y += dy * step
	a.session.Update(l.ID, layer.GeometryPatch(l.Kind, l.Payload, g, layer.FieldPosition))
}

// handleMouse turns terminal mouse reports into pointer events. Terminals
// report presses and drags as events with the button held and a release
// as an event with no button.
func (a *App) handleMouse(ev backend.Event) {
	p := cellCenter(ev.X, ev.Y)
	switch {
	case ev.Button == backend.MouseLeft && !a.pressed:
		a.pressed = true
		a.session.HandlePointer(pointer.Down(p, ev.Mods))
	case ev.Button == backend.MouseLeft:
		a.session.HandlePointer(pointer.Move(p, ev.Mods))
	case ev.Button == backend.MouseNone && a.pressed:
		a.pressed = false
		a.session.HandlePointer(pointer.Up(p))
	}
}
