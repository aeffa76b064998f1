package keymap

// Actions bound by Default.
const (
	ActionQuit          = "app.quit"
	ActionAddText       = "layer.add.text"
	ActionAddSticker    = "layer.add.sticker"
	ActionAddIcon       = "layer.add.icon"
	ActionAddVideo      = "layer.add.video"
	ActionAddFrame      = "layer.add.frame"
	ActionSelectNext    = "selection.next"
	ActionSelectPrev    = "selection.prev"
	ActionSelectClear   = "selection.clear"
	ActionNudgeUp       = "layer.nudge.up"
	ActionNudgeDown     = "layer.nudge.down"
	ActionNudgeLeft     = "layer.nudge.left"
	ActionNudgeRight    = "layer.nudge.right"
	ActionToggleVisible = "layer.toggle_visible"
	ActionToggleLocked  = "layer.toggle_locked"
	ActionDuplicate     = "layer.duplicate"
	ActionSendBackward  = "layer.send_backward"
	ActionBringForward  = "layer.bring_forward"
	ActionSendToBack    = "layer.send_to_back"
	ActionBringToFront  = "layer.bring_to_front"
	ActionTogglePanning = "canvas.toggle_pan"
)

// Default returns the terminal editor's bindings.
func Default() *Keymap {
	return NewKeymap("default").
		Add("q", ActionQuit, "Quit").
		Add("ctrl+c", ActionQuit, "Quit").
		Add("t", ActionAddText, "Add a text layer").
		Add("s", ActionAddSticker, "Add a sticker layer").
		Add("i", ActionAddIcon, "Add an icon layer").
		Add("v", ActionAddVideo, "Add a video layer").
		Add("f", ActionAddFrame, "Add a frame layer").
		Add("tab", ActionSelectNext, "Select the next layer").
		Add("shift+tab", ActionSelectPrev, "Select the previous layer").
		Add("esc", ActionSelectClear, "Clear the selection").
		Add("up", ActionNudgeUp, "Nudge up").
		Add("down", ActionNudgeDown, "Nudge down").
		Add("left", ActionNudgeLeft, "Nudge left").
		Add("right", ActionNudgeRight, "Nudge right").
		Add("shift+up", ActionNudgeUp, "Nudge up").
		Add("shift+down", ActionNudgeDown, "Nudge down").
		Add("shift+left", ActionNudgeLeft, "Nudge left").
		Add("shift+right", ActionNudgeRight, "Nudge right").
		Add("h", ActionToggleVisible, "Show or hide the selection").
		Add("l", ActionToggleLocked, "Lock or unlock the selection").
		Add("d", ActionDuplicate, "Duplicate the selection").
		Add("[", ActionSendBackward, "Send backward").
		Add("]", ActionBringForward, "Bring forward").
		Add("{", ActionSendToBack, "Send to back").
		Add("}", ActionBringToFront, "Bring to front").
		Add("p", ActionTogglePanning, "Toggle canvas panning")
}
