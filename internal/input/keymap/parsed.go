package keymap

import "github.com/dshills/composer/internal/input/key"

// Parsed is a validated keymap ready for lookup. It is immutable.
type Parsed struct {
	name    string
	byChord map[chord]Binding
}

// Name returns the keymap name.
func (p *Parsed) Name() string {
	return p.name
}

// Lookup returns the binding for e.
func (p *Parsed) Lookup(e key.Event) (Binding, bool) {
	b, ok := p.byChord[chordOf(e)]
	return b, ok
}

// Len returns the number of bound chords.
func (p *Parsed) Len() int {
	return len(p.byChord)
}
