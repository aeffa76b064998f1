package editor

import (
	"unicode"

	"github.com/dshills/composer/internal/input/key"
)

// Shortcut is an editor command bound to a key.
type Shortcut uint8

const (
	ShortcutNone Shortcut = iota
	ShortcutDelete
	ShortcutUndo
	ShortcutRedo
)

// String returns the shortcut name.
func (s Shortcut) String() string {
	switch s {
	case ShortcutNone:
		return "none"
	case ShortcutDelete:
		return "delete"
	case ShortcutUndo:
		return "undo"
	case ShortcutRedo:
		return "redo"
	default:
		return "unknown"
	}
}

// ShortcutFor returns the shortcut bound to e:
//
//	Delete, Backspace        delete the selected layer
//	Ctrl+Z, Cmd+Z            undo
//	Ctrl+Y, Cmd+Y            redo
//	Ctrl+Shift+Z, Cmd+Shift+Z redo
func ShortcutFor(e key.Event) Shortcut {
	switch e.Key {
	case key.KeyDelete, key.KeyBackspace:
		if e.Modifiers.HasCommand() || e.Modifiers.HasAlt() {
			return ShortcutNone
		}
		return ShortcutDelete
	case key.KeyRune:
		if !e.Modifiers.HasCommand() {
			return ShortcutNone
		}
		switch unicode.ToLower(e.Rune) {
		case 'z':
			if e.Modifiers.HasShift() {
				return ShortcutRedo
			}
			return ShortcutUndo
		case 'y':
			return ShortcutRedo
		}
	}
	return ShortcutNone
}
