// Package layer defines the element model shared by every part of the
// composer engine.
//
// # Kinds
//
// Kind is a closed enumeration of the element types a document can hold:
// background, text, sticker, icon, video and frame. Code that dispatches on
// a kind uses an exhaustive switch so that adding a kind is a compile-visible
// change across the module.
//
// # Records and Layers
//
// A Record is one element as it is stored in a document's per-kind array.
// A Layer is the derived, kind-tagged view of a record that the store hands
// to renderers and gesture controllers.
//
// # Payloads
//
// Payload holds the kind-specific data owned by renderers and panels
// (position, size, colours, effect stacks, media sources). Payloads are
// immutable: NewPayload deep-copies its input and every accessor that returns
// a composite value returns a copy. Because of that, documents and history
// snapshots can share payloads freely.
//
// Values that cannot be deep-copied (functions, channels, structs with
// unexported fields) are kept by reference and reported by ShallowKeys.
//
// # Patches
//
// Patch is a shallow field update. A few keys are reserved for record
// metadata (visible, locked, zIndex, start, duration); everything else is
// merged into the payload. Geometry keys are dropped when the target record
// is locked.
package layer
