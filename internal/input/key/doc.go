// Package key defines keyboard keys, modifiers and key events.
//
// Chords are written as modifier names joined to a key with "+":
//
//	ctrl+z
//	cmd+shift+z
//	Delete
//
// Modifier names are case-insensitive; "cmd", "command" and "super" all
// mean Meta, and "option" means Alt.
package key
