// Package tui is a terminal front end for an editor session.
//
// The canvas fills the terminal above a one-line status bar. Each cell
// stands for CellWidth by CellHeight device pixels, so layer geometry,
// hit testing and gestures work in the same pixel space as any other
// host. Layers are drawn as filled boxes marked with their kind's initial;
// the selected layer is drawn reversed.
//
// Default keys, which the [keys] configuration section can rebind by
// action name:
//
//	t s i v f     add a text, sticker, icon, video or frame layer
//	tab           select the next layer
//	arrows        nudge the selection (shift for larger steps)
//	h l d         toggle visibility, toggle lock, duplicate
//	[ ] { }       send backward, bring forward, send to back, bring to front
//	p             toggle canvas panning
//	esc           clear the selection
//	q, ctrl+c     quit
//
// Unbound keys go to the session, which handles delete, backspace,
// ctrl+z and ctrl+y (or ctrl+shift+z).
package tui
