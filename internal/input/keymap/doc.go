// Package keymap maps key chords to named actions.
//
// A Keymap is an ordered list of bindings written as chord strings
// ("ctrl+c", "shift+tab", "["). Parse validates it and builds a lookup
// table; Rebind applies user overrides keyed by action name. Several
// chords may share an action, but a chord has at most one action.
//
// Character keys match case-insensitively and ignore Shift, since
// terminals fold Shift into the character ("{" rather than shift+[).
package keymap
