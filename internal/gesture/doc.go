// Package gesture implements direct manipulation of canvas elements.
//
// A Controller is a state machine shared by every element kind:
//
//	Idle -> Dragging | Resizing | Rotating -> Idle
//
// The press's hit region selects the transition: the element body starts a
// drag, a corner handle a resize and the rotate handle a rotation. The
// reference frame (canvas box, start geometry, element centre) is captured
// once at the press and never recomputed, so a canvas that resizes during
// the gesture does not feed back into it.
//
// Every move writes the new geometry through the element's Target
// immediately. Release, cancel or the panning modifier return the
// controller to Idle.
//
// A Router owns one Controller per element, hit tests presses against the
// derived layer list (topmost first, selected element's handles before any
// body) and keeps routing the captured pointer to the same controller until
// the gesture ends, wherever the pointer goes.
package gesture
