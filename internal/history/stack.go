package history

import (
	"errors"
	"sync"
	"time"

	"github.com/dshills/composer/internal/clock"
	"github.com/dshills/composer/internal/document"
	"github.com/dshills/composer/internal/logging"
)

// Common errors for history operations.
var (
	ErrNothingToUndo = errors.New("nothing to undo")
	ErrNothingToRedo = errors.New("nothing to redo")
)

// DefaultMaxDepth is the stack depth used when none is given.
const DefaultMaxDepth = 150

// Info describes a stored entry.
type Info struct {
	Label     string
	Timestamp time.Time
}

// entry wraps a snapshot with metadata.
type entry struct {
	snapshot document.Snapshot
	label    string
	at       time.Time
}

func (e *entry) info() Info {
	return Info{Label: e.label, Timestamp: e.at}
}

// Stack manages the undo and redo stacks.
type Stack struct {
	mu sync.Mutex

	undoStack []*entry
	redoStack []*entry

	// Grouping state
	grouping   bool
	groupLabel string
	groupFirst *entry

	// Configuration
	maxDepth int
	clock    clock.Clock
	log      *logging.Logger
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithStackClock sets the clock used to timestamp entries.
func WithStackClock(c clock.Clock) StackOption {
	return func(s *Stack) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithStackLogger sets the stack's logger.
func WithStackLogger(l *logging.Logger) StackOption {
	return func(s *Stack) {
		if l != nil {
			s.log = l
		}
	}
}

// NewStack creates a history stack holding at most maxDepth entries per
// direction.
func NewStack(maxDepth int, opts ...StackOption) *Stack {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	s := &Stack{
		maxDepth: maxDepth,
		clock:    clock.Real{},
		log:      logging.Null(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Push adds a snapshot to the undo stack and clears the redo stack.
func (s *Stack) Push(snap document.Snapshot) {
	s.PushLabeled(snap, "")
}

// PushLabeled adds a snapshot with a description of the edit that follows
// it.
func (s *Stack) PushLabeled(snap document.Snapshot, label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{snapshot: snap, label: label, at: s.clock.Now()}
	if s.grouping {
		if s.groupFirst == nil {
			s.groupFirst = e
		}
		return
	}
	s.pushLocked(e)
}

// pushLocked adds an entry without acquiring the lock.
func (s *Stack) pushLocked(e *entry) {
	s.undoStack = append(s.undoStack, e)
	s.redoStack = nil
	s.undoStack = trim(s.undoStack, s.maxDepth)
	s.log.Debug("history push %q (undo=%d)", e.label, len(s.undoStack))
}

// Undo pops the most recent snapshot and stores current on the redo stack.
// It returns false when there is nothing to undo.
func (s *Stack) Undo(current document.Snapshot) (document.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undoStack) == 0 {
		return document.Snapshot{}, false
	}
	e := s.undoStack[len(s.undoStack)-1]
	s.undoStack = s.undoStack[:len(s.undoStack)-1]

	s.redoStack = append(s.redoStack, &entry{snapshot: current, label: e.label, at: s.clock.Now()})
	s.redoStack = trim(s.redoStack, s.maxDepth)
	s.log.Debug("history undo %q (undo=%d redo=%d)", e.label, len(s.undoStack), len(s.redoStack))
	return e.snapshot, true
}

// Redo pops the most recently undone snapshot and stores current on the
// undo stack. It returns false when there is nothing to redo.
func (s *Stack) Redo(current document.Snapshot) (document.Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redoStack) == 0 {
		return document.Snapshot{}, false
	}
	e := s.redoStack[len(s.redoStack)-1]
	s.redoStack = s.redoStack[:len(s.redoStack)-1]

	s.undoStack = append(s.undoStack, &entry{snapshot: current, label: e.label, at: s.clock.Now()})
	s.undoStack = trim(s.undoStack, s.maxDepth)
	s.log.Debug("history redo %q (undo=%d redo=%d)", e.label, len(s.undoStack), len(s.redoStack))
	return e.snapshot, true
}

// CanUndo returns true if undo is available.
func (s *Stack) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack) > 0
}

// CanRedo returns true if redo is available.
func (s *Stack) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack) > 0
}

// UndoCount returns the number of undo entries.
func (s *Stack) UndoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.undoStack)
}

// RedoCount returns the number of redo entries.
func (s *Stack) RedoCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.redoStack)
}

// BeginGroup starts a group. Nested calls are ignored.
func (s *Stack) BeginGroup(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.grouping {
		return
	}
	s.grouping = true
	s.groupLabel = label
	s.groupFirst = nil
}

// EndGroup finishes a group, pushing its first snapshot as one entry.
func (s *Stack) EndGroup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.grouping {
		return
	}
	s.grouping = false
	first := s.groupFirst
	s.groupFirst = nil
	if first == nil {
		return
	}
	if s.groupLabel != "" {
		first.label = s.groupLabel
	}
	s.pushLocked(first)
}

// IsGrouping returns true if a group is open.
func (s *Stack) IsGrouping() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.grouping
}

// Clear removes all undo/redo history.
func (s *Stack) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.undoStack = nil
	s.redoStack = nil
	s.grouping = false
	s.groupFirst = nil
}

// PeekUndo describes the next undo entry without removing it.
func (s *Stack) PeekUndo() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.undoStack) == 0 {
		return Info{}, false
	}
	return s.undoStack[len(s.undoStack)-1].info(), true
}

// PeekRedo describes the next redo entry without removing it.
func (s *Stack) PeekRedo() (Info, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.redoStack) == 0 {
		return Info{}, false
	}
	return s.redoStack[len(s.redoStack)-1].info(), true
}

// UndoInfo describes every undo entry, oldest first.
func (s *Stack) UndoInfo() []Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Info, len(s.undoStack))
	for i, e := range s.undoStack {
		out[i] = e.info()
	}
	return out
}

// SetMaxDepth changes the maximum depth. Oldest entries beyond it are
// removed from both stacks.
func (s *Stack) SetMaxDepth(max int) {
	if max <= 0 {
		max = DefaultMaxDepth
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.maxDepth = max
	s.undoStack = trim(s.undoStack, max)
	s.redoStack = trim(s.redoStack, max)
}

// MaxDepth returns the maximum depth.
func (s *Stack) MaxDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxDepth
}

// trim drops the oldest entries beyond max.
func trim(entries []*entry, max int) []*entry {
	if len(entries) <= max {
		return entries
	}
	excess := len(entries) - max
	out := make([]*entry, max)
	copy(out, entries[excess:])
	return out
}
