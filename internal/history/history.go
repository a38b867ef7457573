// Package history keeps a bounded, linear undo/redo log of content snapshots
// for a single document.
package history

// DefaultMax is the snapshot cap used when none is configured.
const DefaultMax = 100

// Tracker is a linear snapshot log with a cursor.
// Invariant: 0 <= cursor < len(entries), and len(entries) <= max.
// Tracker is not safe for concurrent use; the session serializes access.
type Tracker struct {
	entries []string
	cursor  int
	max     int
}

// New returns a tracker seeded with a single snapshot.
func New(seed string, max int) *Tracker {
	if max <= 0 {
		max = DefaultMax
	}
	return &Tracker{entries: []string{seed}, max: max}
}

// Record appends content after the cursor, discarding any redo branch.
// Content equal to the current snapshot is a no-op and returns false.
func (t *Tracker) Record(content string) bool {
	if content == t.entries[t.cursor] {
		return false
	}
	t.entries = append(t.entries[:t.cursor+1], content)
	t.cursor = len(t.entries) - 1

	if over := len(t.entries) - t.max; over > 0 {
		// Copy so the evicted prefix is released.
		t.entries = append([]string(nil), t.entries[over:]...)
		t.cursor -= over
	}
	return true
}

// Undo moves the cursor back. When nothing is undoable it returns the
// current snapshot and false.
func (t *Tracker) Undo() (string, bool) {
	if t.cursor == 0 {
		return t.entries[0], false
	}
	t.cursor--
	return t.entries[t.cursor], true
}

// Redo moves the cursor forward. When nothing is redoable it returns the
// current snapshot and false.
func (t *Tracker) Redo() (string, bool) {
	if t.cursor == len(t.entries)-1 {
		return t.entries[t.cursor], false
	}
	t.cursor++
	return t.entries[t.cursor], true
}

// Reset replaces the whole log with a single snapshot.
func (t *Tracker) Reset(seed string) {
	t.entries = []string{seed}
	t.cursor = 0
}

func (t *Tracker) CanUndo() bool   { return t.cursor > 0 }
func (t *Tracker) CanRedo() bool   { return t.cursor < len(t.entries)-1 }
func (t *Tracker) Current() string { return t.entries[t.cursor] }
func (t *Tracker) Len() int        { return len(t.entries) }
func (t *Tracker) Cursor() int     { return t.cursor }
func (t *Tracker) Max() int        { return t.max }
