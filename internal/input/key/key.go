// Package key defines keyboard keys, modifiers and key events.
package key

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// Key identifies a keyboard key. Character keys use KeyRune with the
// character in Event.Rune.
type Key uint8

const (
	// KeyNone represents no key.
	KeyNone Key = iota
	// KeyRune is a character key.
	KeyRune
	KeyEscape
	KeyEnter
	KeyTab
	KeyBackspace
	KeyDelete
	KeyUp
	KeyDown
	KeyLeft
	KeyRight
	KeySpace
)

var keyNames = map[Key]string{
	KeyNone:      "None",
	KeyRune:      "Rune",
	KeyEscape:    "Escape",
	KeyEnter:     "Enter",
	KeyTab:       "Tab",
	KeyBackspace: "Backspace",
	KeyDelete:    "Delete",
	KeyUp:        "Up",
	KeyDown:      "Down",
	KeyLeft:      "Left",
	KeyRight:     "Right",
	KeySpace:     "Space",
}

// String returns the key name.
func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Key(%d)", uint8(k))
}

// keyFromName returns the special key with the given name.
func keyFromName(name string) (Key, bool) {
	switch strings.ToLower(name) {
	case "esc", "escape":
		return KeyEscape, true
	case "enter", "return":
		return KeyEnter, true
	case "tab":
		return KeyTab, true
	case "backspace", "bs":
		return KeyBackspace, true
	case "delete", "del":
		return KeyDelete, true
	case "up":
		return KeyUp, true
	case "down":
		return KeyDown, true
	case "left":
		return KeyLeft, true
	case "right":
		return KeyRight, true
	case "space":
		return KeySpace, true
	default:
		return KeyNone, false
	}
}

// Event is a single key press.
type Event struct {
	Key       Key
	Rune      rune
	Modifiers Modifier
	Timestamp time.Time
}

// NewRuneEvent creates a key event for a character.
func NewRuneEvent(r rune, mods Modifier) Event {
	return Event{Key: KeyRune, Rune: r, Modifiers: mods, Timestamp: time.Now()}
}

// NewSpecialEvent creates a key event for a special key.
func NewSpecialEvent(k Key, mods Modifier) Event {
	return Event{Key: k, Modifiers: mods, Timestamp: time.Now()}
}

// IsRune returns true if this is a character key event.
func (e Event) IsRune() bool {
	return e.Key == KeyRune && e.Rune != 0
}

// Matches reports whether e is the same chord as other. Character keys
// compare case-insensitively; Shift is compared through Modifiers.
func (e Event) Matches(other Event) bool {
	if e.Key != other.Key || e.Modifiers != other.Modifiers {
		return false
	}
	if e.Key == KeyRune {
		return unicode.ToLower(e.Rune) == unicode.ToLower(other.Rune)
	}
	return true
}

// String returns a canonical form like "Ctrl+Shift+z" or "Delete".
func (e Event) String() string {
	var name string
	if e.Key == KeyRune {
		name = string(unicode.ToLower(e.Rune))
	} else {
		name = e.Key.String()
	}
	if mods := e.Modifiers.String(); mods != "" {
		return mods + "+" + name
	}
	return name
}

// Parse parses a chord like "ctrl+shift+z", "cmd+z" or "Delete".
func Parse(s string) (Event, error) {
	parts := strings.Split(strings.TrimSpace(s), "+")
	if len(parts) == 0 || parts[len(parts)-1] == "" {
		return Event{}, fmt.Errorf("invalid key %q", s)
	}

	var mods Modifier
	for _, p := range parts[:len(parts)-1] {
		m := ModifierFromName(p)
		if m == ModNone {
			return Event{}, fmt.Errorf("invalid modifier %q in %q", p, s)
		}
		mods = mods.With(m)
	}

	last := parts[len(parts)-1]
	if k, ok := keyFromName(last); ok {
		return Event{Key: k, Modifiers: mods}, nil
	}
	runes := []rune(last)
	if len(runes) != 1 {
		return Event{}, fmt.Errorf("invalid key %q in %q", last, s)
	}
	return Event{Key: KeyRune, Rune: unicode.ToLower(runes[0]), Modifiers: mods}, nil
}
