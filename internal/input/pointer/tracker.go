package pointer

// Tracker follows a single pointer from press to release. While one
// pointer is tracked, events from any other pointer are rejected, so a
// second concurrent touch is ignored.
type Tracker struct {
	active  bool
	id      int
	source  Source
	start   Point
	current Point
}

// Begin starts tracking e's pointer. It returns false if a pointer is
// already tracked.
func (t *Tracker) Begin(e Event) bool {
	if t.active {
		return false
	}
	t.active = true
	t.id = e.ID
	t.source = e.Source
	t.start = e.Position
	t.current = e.Position
	return true
}

// Owns reports whether e belongs to the tracked pointer.
func (t *Tracker) Owns(e Event) bool {
	return t.active && e.ID == t.id && e.Source == t.source
}

// Update records the tracked pointer's position. Events from other
// pointers are ignored and reported as false.
func (t *Tracker) Update(e Event) bool {
	if !t.Owns(e) {
		return false
	}
	t.current = e.Position
	return true
}

// End stops tracking.
func (t *Tracker) End() {
	*t = Tracker{}
}

// Active reports whether a pointer is tracked.
func (t *Tracker) Active() bool {
	return t.active
}

// Start returns where the tracked pointer went down.
func (t *Tracker) Start() Point {
	return t.start
}

// Current returns the tracked pointer's latest position.
func (t *Tracker) Current() Point {
	return t.current
}

// Delta returns the distance moved since Begin.
func (t *Tracker) Delta() Point {
	return t.current.Sub(t.start)
}
