package keymap

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownAction is returned by Rebind for an action with no binding.
var ErrUnknownAction = errors.New("unknown action")

// Keymap is a named, ordered list of bindings.
type Keymap struct {
	Name     string
	Bindings []Binding
}

// NewKeymap creates an empty keymap.
func NewKeymap(name string) *Keymap {
	return &Keymap{Name: name}
}

// Add appends a binding and returns k.
func (k *Keymap) Add(keys, action, description string) *Keymap {
	k.Bindings = append(k.Bindings, Binding{Keys: keys, Action: action, Description: description})
	return k
}

// Clone returns a deep copy of k.
func (k *Keymap) Clone() *Keymap {
	out := &Keymap{Name: k.Name, Bindings: make([]Binding, len(k.Bindings))}
	copy(out.Bindings, k.Bindings)
	return out
}

// Actions returns the distinct actions of k, sorted.
func (k *Keymap) Actions() []string {
	seen := make(map[string]bool)
	var out []string
	for _, b := range k.Bindings {
		if !seen[b.Action] {
			seen[b.Action] = true
			out = append(out, b.Action)
		}
	}
	sort.Strings(out)
	return out
}

// Rebind returns a copy of k with overrides applied. Each override maps
// an action to its new chord and replaces every existing chord of that
// action; an empty chord unbinds it. Unknown actions are reported with
// ErrUnknownAction.
func (k *Keymap) Rebind(overrides map[string]string) (*Keymap, error) {
	known := make(map[string]Binding)
	for _, b := range k.Bindings {
		if _, ok := known[b.Action]; !ok {
			known[b.Action] = b
		}
	}

	actions := make([]string, 0, len(overrides))
	for action := range overrides {
		if _, ok := known[action]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAction, action)
		}
		actions = append(actions, action)
	}
	sort.Strings(actions)

	out := &Keymap{Name: k.Name}
	for _, b := range k.Bindings {
		if _, ok := overrides[b.Action]; !ok {
			out.Bindings = append(out.Bindings, b)
		}
	}
	for _, action := range actions {
		if keys := overrides[action]; keys != "" {
			out.Add(keys, action, known[action].Description)
		}
	}
	return out, nil
}

// Validate reports the first unparsable or conflicting chord.
func (k *Keymap) Validate() error {
	_, err := k.Parse()
	return err
}

// Parse builds the lookup table for k.
func (k *Keymap) Parse() (*Parsed, error) {
	p := &Parsed{name: k.Name, byChord: make(map[chord]Binding, len(k.Bindings))}
	for _, b := range k.Bindings {
		if b.Action == "" {
			return nil, fmt.Errorf("keymap %s: binding %q has no action", k.Name, b.Keys)
		}
		c, err := parseChord(b.Keys)
		if err != nil {
			return nil, fmt.Errorf("keymap %s: %w", k.Name, err)
		}
		if prev, ok := p.byChord[c]; ok && prev.Action != b.Action {
			return nil, fmt.Errorf("keymap %s: %q is bound to both %s and %s", k.Name, b.Keys, prev.Action, b.Action)
		}
		p.byChord[c] = b
	}
	return p, nil
}
