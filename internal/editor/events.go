package editor

import (
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/event/topic"
	"github.com/dshills/composer/internal/gesture"
	"github.com/dshills/composer/internal/layer"
)

// Topics published by a Session.
const (
	TopicDocumentChanged topic.Topic = "document.changed"
	TopicLayerSelected   topic.Topic = "layer.selected"
	TopicLayerAdded      topic.Topic = "layer.added"
	TopicLayerDeleted    topic.Topic = "layer.deleted"
	TopicHistoryChanged  topic.Topic = "history.changed"
	TopicGestureStarted  topic.Topic = "gesture.started"
	TopicGestureEnded    topic.Topic = "gesture.ended"
	TopicStickerCategory topic.Topic = "panel.sticker.category"
)

// Cause says how a document change came about.
type Cause uint8

const (
	CauseEdit Cause = iota
	CauseUndo
	CauseRedo
	CauseLoad
)

// String returns the cause name.
func (c Cause) String() string {
	switch c {
	case CauseEdit:
		return "edit"
	case CauseUndo:
		return "undo"
	case CauseRedo:
		return "redo"
	case CauseLoad:
		return "load"
	default:
		return "unknown"
	}
}

// DocumentChanged is published when the persistent fields change.
type DocumentChanged struct {
	Document document.Document
	Label    string
	Cause    Cause
}

// LayerSelected is published when the selection changes. ID is empty when
// the selection was cleared.
type LayerSelected struct {
	ID       string
	Previous string
}

// LayerAdded is published for new and duplicated layers.
type LayerAdded struct {
	ID   string
	Kind layer.Kind
}

// LayerDeleted is published when a layer is removed.
type LayerDeleted struct {
	ID   string
	Kind layer.Kind
}

// HistoryChanged is published when the undo or redo stack changes.
type HistoryChanged struct {
	UndoCount int
	RedoCount int
}

// CanUndo reports whether an undo step is available.
func (h HistoryChanged) CanUndo() bool { return h.UndoCount > 0 }

// CanRedo reports whether a redo step is available.
func (h HistoryChanged) CanRedo() bool { return h.RedoCount > 0 }

// GestureChanged is published on gesture.started and gesture.ended.
type GestureChanged struct {
	ID     string
	State  gesture.State
	Handle gesture.Handle
	// Aborted is set on gesture.ended when panning cut the gesture short.
	Aborted bool
}

// StickerCategory carries the sticker panel's active category between
// panels.
type StickerCategory struct {
	Category string
}
