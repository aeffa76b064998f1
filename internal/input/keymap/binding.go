package keymap

import (
	"fmt"
	"unicode"

	"github.com/dshills/composer/internal/input/key"
)

// Binding maps one chord to an action.
type Binding struct {
	// Keys is the chord, in key.Parse syntax.
	Keys string

	// Action names what the chord does, such as "layer.duplicate".
	Action string

	// Description is shown in help output.
	Description string
}

// chord is the normalized lookup form of a key event.
type chord struct {
	key  key.Key
	r    rune
	mods key.Modifier
}

func chordOf(e key.Event) chord {
	c := chord{key: e.Key, mods: e.Modifiers}
	if e.Key == key.KeyRune {
		c.r = unicode.ToLower(e.Rune)
		c.mods = c.mods.Without(key.ModShift)
	}
	return c
}

func parseChord(keys string) (chord, error) {
	e, err := key.Parse(keys)
	if err != nil {
		return chord{}, fmt.Errorf("binding %q: %w", keys, err)
	}
	return chordOf(e), nil
}
