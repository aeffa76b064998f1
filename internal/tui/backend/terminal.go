package backend

import (
	"sync"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/composer/internal/input/key"
)

// Terminal implements Backend on a tcell screen.
type Terminal struct {
	mu     sync.Mutex
	screen tcell.Screen
}

// NewTerminal creates a backend on the process terminal.
func NewTerminal() (*Terminal, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	return &Terminal{screen: screen}, nil
}

// NewTerminalScreen creates a backend on screen, such as a tcell
// simulation screen.
func NewTerminalScreen(screen tcell.Screen) *Terminal {
	return &Terminal{screen: screen}
}

func (t *Terminal) Init() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnableMouse(tcell.MouseButtonEvents | tcell.MouseDragEvents)
	t.screen.HideCursor()
	return nil
}

func (t *Terminal) Shutdown() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Fini()
}

func (t *Terminal) Size() (int, int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.screen.Size()
}

func (t *Terminal) SetContent(x, y int, r rune, style tcell.Style) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.SetContent(x, y, r, nil, style)
}

func (t *Terminal) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Clear()
}

func (t *Terminal) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.screen.Show()
}

func (t *Terminal) PollEvent() Event {
	ev := t.screen.PollEvent()
	if ev == nil {
		return Event{Type: EventClosed}
	}
	return convertEvent(ev)
}

func (t *Terminal) Interrupt(data any) {
	_ = t.screen.PostEvent(tcell.NewEventInterrupt(data)) // queue may be full
}

// convertEvent converts tcell events to Events.
func convertEvent(ev tcell.Event) Event {
	switch e := ev.(type) {
	case *tcell.EventKey:
		return Event{Type: EventKey, Key: convertKey(e)}

	case *tcell.EventMouse:
		x, y := e.Position()
		return Event{
			Type:   EventMouse,
			X:      x,
			Y:      y,
			Button: convertMouseButton(e.Buttons()),
			Mods:   convertMod(e.Modifiers()),
		}

	case *tcell.EventResize:
		w, h := e.Size()
		return Event{Type: EventResize, Width: w, Height: h}

	case *tcell.EventInterrupt:
		return Event{Type: EventInterrupt, Data: e.Data()}

	default:
		return Event{Type: EventNone}
	}
}

// convertKey converts a tcell key event to a key.Event. Control
// characters arrive from tcell as KeyCtrlA..KeyCtrlZ and are mapped back
// to the letter with ModCtrl.
func convertKey(e *tcell.EventKey) key.Event {
	mods := convertMod(e.Modifiers())

	k := e.Key()
	if k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ {
		switch k {
		case tcell.KeyTab, tcell.KeyEnter, tcell.KeyBackspace:
		default:
			r := 'a' + rune(k-tcell.KeyCtrlA)
			return key.Event{Key: key.KeyRune, Rune: r, Modifiers: mods.With(key.ModCtrl)}
		}
	}

	switch k {
	case tcell.KeyRune:
		if e.Rune() == ' ' {
			return key.Event{Key: key.KeySpace, Modifiers: mods}
		}
		r := e.Rune()
		if mods.HasCtrl() {
			r = unicode.ToLower(r)
		}
		return key.Event{Key: key.KeyRune, Rune: r, Modifiers: mods}
	case tcell.KeyEscape:
		return key.Event{Key: key.KeyEscape, Modifiers: mods}
	case tcell.KeyEnter:
		return key.Event{Key: key.KeyEnter, Modifiers: mods}
	case tcell.KeyTab:
		return key.Event{Key: key.KeyTab, Modifiers: mods}
	case tcell.KeyBacktab:
		return key.Event{Key: key.KeyTab, Modifiers: mods.With(key.ModShift)}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		return key.Event{Key: key.KeyBackspace, Modifiers: mods}
	case tcell.KeyDelete:
		return key.Event{Key: key.KeyDelete, Modifiers: mods}
	case tcell.KeyUp:
		return key.Event{Key: key.KeyUp, Modifiers: mods}
	case tcell.KeyDown:
		return key.Event{Key: key.KeyDown, Modifiers: mods}
	case tcell.KeyLeft:
		return key.Event{Key: key.KeyLeft, Modifiers: mods}
	case tcell.KeyRight:
		return key.Event{Key: key.KeyRight, Modifiers: mods}
	default:
		return key.Event{Key: key.KeyNone, Modifiers: mods}
	}
}

// convertMod converts a tcell modifier mask.
func convertMod(m tcell.ModMask) key.Modifier {
	var result key.Modifier
	if m&tcell.ModShift != 0 {
		result = result.With(key.ModShift)
	}
	if m&tcell.ModCtrl != 0 {
		result = result.With(key.ModCtrl)
	}
	if m&tcell.ModAlt != 0 {
		result = result.With(key.ModAlt)
	}
	if m&tcell.ModMeta != 0 {
		result = result.With(key.ModMeta)
	}
	return result
}

// convertMouseButton converts a tcell button mask.
func convertMouseButton(b tcell.ButtonMask) MouseButton {
	switch {
	case b&tcell.Button1 != 0:
		return MouseLeft
	case b&tcell.Button2 != 0:
		return MouseRight
	case b&tcell.Button3 != 0:
		return MouseMiddle
	case b&tcell.WheelUp != 0:
		return MouseWheelUp
	case b&tcell.WheelDown != 0:
		return MouseWheelDown
	default:
		return MouseNone
	}
}
