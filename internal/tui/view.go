package tui

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/composer/internal/gesture"
	"github.com/dshills/composer/internal/input/pointer"
	"github.com/dshills/composer/internal/layer"
)

// Size of one terminal cell in device pixels.
const (
	CellWidth  = 8.0
	CellHeight = 16.0
)

var (
	styleCanvas = tcell.StyleDefault
	styleLayer  = tcell.StyleDefault.Foreground(tcell.ColorWhite).Background(tcell.ColorNavy)
	styleLocked = styleLayer.Dim(true)
	styleStatus = tcell.StyleDefault.Reverse(true)
)

// canvasRect returns the canvas for a terminal of the given size.
func canvasRect(width, height int) pointer.Rect {
	rows := height - 1
	if rows < 0 {
		rows = 0
	}
	return pointer.Rect{Width: float64(width) * CellWidth, Height: float64(rows) * CellHeight}
}

// cellCenter returns the device-pixel centre of cell x, y.
func cellCenter(x, y int) pointer.Point {
	return pointer.Point{X: (float64(x) + 0.5) * CellWidth, Y: (float64(y) + 0.5) * CellHeight}
}

// draw renders the session onto the backend.
func (a *App) draw() {
	width, height := a.backend.Size()
	a.backend.Clear()

	canvas := canvasRect(width, height)
	selected := a.session.SelectedID()
	for _, l := range a.session.Layers() {
		if !l.Visible || l.IsBackground() {
			continue
		}
		a.drawLayer(canvas, width, height-1, l, l.ID == selected)
	}
	a.drawStatus(width, height-1)
	a.backend.Show()
}

func (a *App) drawLayer(canvas pointer.Rect, cols, rows int, l layer.Layer, selected bool) {
	box := gesture.Measure(canvas, l)

	// Axis-aligned extent of the rotated box, in cells.
	rad := box.Rotation * math.Pi / 180
	ex := (math.Abs(box.Width*math.Cos(rad)) + math.Abs(box.Height*math.Sin(rad))) / 2
	ey := (math.Abs(box.Width*math.Sin(rad)) + math.Abs(box.Height*math.Cos(rad))) / 2
	x0 := clampInt(int(math.Floor((box.Center.X-ex)/CellWidth)), 0, cols)
	x1 := clampInt(int(math.Ceil((box.Center.X+ex)/CellWidth)), 0, cols)
	y0 := clampInt(int(math.Floor((box.Center.Y-ey)/CellHeight)), 0, rows)
	y1 := clampInt(int(math.Ceil((box.Center.Y+ey)/CellHeight)), 0, rows)

	style := styleLayer
	if l.Locked {
		style = styleLocked
	}
	if selected {
		style = style.Reverse(true)
	}

	glyph := unicode.ToUpper(rune(l.Kind.String()[0]))
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			if box.Contains(cellCenter(x, y)) {
				a.backend.SetContent(x, y, glyph, style)
			}
		}
	}

	if l.Kind == layer.KindText {
		cx := int(box.Center.X / CellWidth)
		cy := int(box.Center.Y / CellHeight)
		content := []rune(l.Payload.String("content"))
		start := cx - len(content)/2
		for i, r := range content {
			if x := start + i; x >= 0 && x < cols && cy >= 0 && cy < rows {
				a.backend.SetContent(x, cy, r, style)
			}
		}
	}
}

func (a *App) drawStatus(width, y int) {
	if y < 0 {
		return
	}
	line := a.statusLine()
	runes := []rune(line)
	for x := 0; x < width; x++ {
		r := ' '
		if x < len(runes) {
			r = runes[x]
		}
		a.backend.SetContent(x, y, r, styleStatus)
	}
}

func (a *App) statusLine() string {
	doc := a.session.Document()
	hist := a.session.History()

	parts := []string{
		doc.Name,
		fmt.Sprintf("%d layers", doc.LayerCount()),
	}
	if id := a.session.SelectedID(); id != "" {
		parts = append(parts, "sel "+id)
	}
	parts = append(parts, fmt.Sprintf("undo %d redo %d", hist.UndoCount(), hist.RedoCount()))
	if id := a.session.ActiveGesture(); id != "" {
		parts = append(parts, "gesture "+id)
	}
	if a.panning {
		parts = append(parts, "PAN")
	}
	if a.message != "" {
		parts = append(parts, a.message)
	}
	return " " + strings.Join(parts, " | ")
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
