// Package editor hosts a composer document.
//
// A Session owns the current document and is the single writer of it.
// Commands run the layer store against the current document, hand the
// result to the history recorder and publish what changed on the event
// bus. Pointer input is routed through a gesture.Router whose controllers
// write geometry back through the session, so a drag is an ordinary burst
// of updates that the recorder coalesces into one undo step.
//
// Event handlers run synchronously on the publishing goroutine. They may
// call any Session method except HandlePointer, which holds the gesture
// router while it publishes.
package editor
