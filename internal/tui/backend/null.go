package backend

import (
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
)

// Cell is one cell of a NullBackend.
type Cell struct {
	Rune  rune
	Style tcell.Style
}

// NullBackend is an in-memory backend for tests.
type NullBackend struct {
	mu            sync.Mutex
	width, height int
	cells         [][]Cell
	shows         int
	events        chan Event
	done          chan struct{}
	closeOnce     sync.Once
}

// NewNullBackend creates a null backend with the given dimensions.
func NewNullBackend(width, height int) *NullBackend {
	return &NullBackend{
		width:  width,
		height: height,
		events: make(chan Event, 100),
		done:   make(chan struct{}),
	}
}

func (b *NullBackend) Init() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cells = blank(b.width, b.height)
	return nil
}

func (b *NullBackend) Shutdown() {
	b.closeOnce.Do(func() { close(b.done) })
}

func (b *NullBackend) Size() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.width, b.height
}

func (b *NullBackend) SetContent(x, y int, r rune, style tcell.Style) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		b.cells[y][x] = Cell{Rune: r, Style: style}
	}
}

func (b *NullBackend) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cells = blank(b.width, b.height)
}

func (b *NullBackend) Show() {
	b.mu.Lock()
	b.shows++
	b.mu.Unlock()
}

func (b *NullBackend) PollEvent() Event {
	select {
	case ev := <-b.events:
		return ev
	case <-b.done:
		return Event{Type: EventClosed}
	}
}

func (b *NullBackend) Interrupt(data any) {
	b.Post(Event{Type: EventInterrupt, Data: data})
}

// Post queues ev. Events are dropped when the queue is full.
func (b *NullBackend) Post(ev Event) {
	select {
	case b.events <- ev:
	default:
	}
}

// Cell returns the cell at x, y.
func (b *NullBackend) Cell(x, y int) Cell {
	b.mu.Lock()
	defer b.mu.Unlock()
	if x >= 0 && x < b.width && y >= 0 && y < b.height {
		return b.cells[y][x]
	}
	return Cell{Rune: ' '}
}

// Line returns row y as a string.
func (b *NullBackend) Line(y int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if y < 0 || y >= b.height {
		return ""
	}
	var sb strings.Builder
	for _, c := range b.cells[y] {
		sb.WriteRune(c.Rune)
	}
	return sb.String()
}

// Shows returns how many times Show was called.
func (b *NullBackend) Shows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.shows
}

// Resize changes the size and queues a resize event.
func (b *NullBackend) Resize(width, height int) {
	b.mu.Lock()
	b.width, b.height = width, height
	b.cells = blank(width, height)
	b.mu.Unlock()
	b.Post(Event{Type: EventResize, Width: width, Height: height})
}

func blank(width, height int) [][]Cell {
	cells := make([][]Cell, height)
	for y := range cells {
		cells[y] = make([]Cell, width)
		for x := range cells[y] {
			cells[y][x] = Cell{Rune: ' ', Style: tcell.StyleDefault}
		}
	}
	return cells
}
