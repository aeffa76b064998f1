// Package history provides undo/redo for composer documents.
//
// History is snapshot based: each undo entry is the persistent state of the
// document before an edit, captured with document.Capture. Key concepts:
//
// # Stack
//
// Stack holds two bounded stacks of snapshots:
//
//	stack := NewStack(120)
//
//	stack.Push(document.Capture(before))
//
//	// Undo/redo exchange the current state for a stored one.
//	snap, ok := stack.Undo(document.Capture(current))
//	snap, ok = stack.Redo(document.Capture(current))
//
// Pushing clears the redo stack. When a stack grows past its depth the
// oldest entries are dropped.
//
// # Grouping
//
// Pushes between BeginGroup and EndGroup collapse into one entry holding
// the state before the first of them:
//
//	stack.BeginGroup("import")
//	// ... several pushes ...
//	stack.EndGroup()
//
// # Recorder
//
// Recorder watches document transitions and turns bursts of changes into
// single entries. A change whose signature matches the previous document
// (a selection-only change) is ignored. The first real change of a burst
// captures the document before it; the entry is pushed once no further
// change arrives for the coalescing delay (350ms by default).
//
// Documents produced by Recorder.Undo and Recorder.Redo become the new
// baseline, so observing them does not record history.
package history
