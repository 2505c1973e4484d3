// Package history keeps the list of committed calculations and the
// cursor used to walk through them.
//
// The list always ends with a sentinel entry holding the calculation that
// has not been committed yet. Entering text inserts it just before the
// sentinel; moving the cursor walks over older entries, and edits made
// while an entry is selected are kept apart from its committed text until
// the next Enter.
package history

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultMaxEntries is the capacity used when none is given.
const DefaultMaxEntries = 100

// ErrInvalidState is returned by Restore when entries and cursor do not
// describe a valid history.
var ErrInvalidState = errors.New("invalid history state")

// Entry is one calculation. Base is the committed text; Edited is the
// text as the user has changed it since.
type Entry struct {
	Base   string
	Edited string
}

// NewEntry creates an entry whose edited text equals base.
func NewEntry(base string) Entry {
	return Entry{Base: base, Edited: base}
}

// IsEdited reports whether the entry differs from its committed text.
func (e Entry) IsEdited() bool {
	return e.Edited != e.Base
}

// Observer is told when entries are added or the history is cleared.
type Observer interface {
	HistoryChanged()
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func()

// HistoryChanged implements Observer.
func (f ObserverFunc) HistoryChanged() { f() }

// History is a bounded list of entries with a cursor. It is safe for
// concurrent use.
type History struct {
	mu sync.Mutex

	entries    []Entry
	pos        int
	maxEntries int
	observer   Observer
}

// New creates a history holding only the sentinel entry.
func New(maxEntries int) *History {
	h := &History{maxEntries: capacity(maxEntries)}
	h.reset()
	return h
}

// Restore rebuilds a history from saved entries and cursor. The entries
// slice is copied. Entries beyond capacity are dropped from the front.
func Restore(entries []Entry, pos, maxEntries int) (*History, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no entries", ErrInvalidState)
	}
	if pos < 0 || pos >= len(entries) {
		return nil, fmt.Errorf("%w: cursor %d outside [0,%d)", ErrInvalidState, pos, len(entries))
	}

	h := &History{maxEntries: capacity(maxEntries)}
	h.entries = append([]Entry(nil), entries...)
	h.pos = pos
	if excess := len(h.entries) - h.maxEntries; excess > 0 {
		h.entries = h.entries[excess:]
		h.pos = max(h.pos-excess, 0)
	}
	return h, nil
}

func capacity(n int) int {
	if n < 2 {
		return DefaultMaxEntries
	}
	return n
}

// SetObserver registers the observer notified by Enter and Clear.
func (h *History) SetObserver(o Observer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.observer = o
}

// Clear drops every entry and leaves an empty sentinel.
func (h *History) Clear() {
	h.mu.Lock()
	h.reset()
	o := h.observer
	h.mu.Unlock()

	notify(o)
}

func (h *History) reset() {
	h.entries = []Entry{NewEntry("")}
	h.pos = 0
}

// Enter commits text. Any edit to the selected entry is discarded, text
// is inserted before the sentinel unless it repeats the last committed
// entry, and the cursor moves to the sentinel. The oldest entry is
// evicted when an insert would exceed capacity.
func (h *History) Enter(text string) {
	h.mu.Lock()
	cur := &h.entries[h.pos]
	cur.Edited = cur.Base

	n := len(h.entries)
	if n < 2 || h.entries[n-2].Base != text {
		if n >= h.maxEntries {
			h.entries = h.entries[1:]
		}
		tail := len(h.entries) - 1
		h.entries = append(h.entries[:tail], NewEntry(text), h.entries[tail])
	}
	h.pos = len(h.entries) - 1
	o := h.observer
	h.mu.Unlock()

	notify(o)
}

// Update records text as the edited form of the selected entry. Observers
// are not notified.
func (h *History) Update(text string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries[h.pos].Edited = text
}

// MoveToPrevious moves the cursor to the older entry. It reports whether
// the cursor moved.
func (h *History) MoveToPrevious() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos > 0 {
		h.pos--
		return true
	}
	return false
}

// MoveToNext moves the cursor to the newer entry. It reports whether the
// cursor moved.
func (h *History) MoveToNext() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos < len(h.entries)-1 {
		h.pos++
		return true
	}
	return false
}

// Current returns the selected entry.
func (h *History) Current() Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.entries[h.pos]
}

// Text returns the edited text of the selected entry.
func (h *History) Text() string {
	return h.Current().Edited
}

// Base returns the committed text of the selected entry.
func (h *History) Base() string {
	return h.Current().Base
}

// Entries returns a copy of all entries, oldest first. The last entry is
// the sentinel.
func (h *History) Entries() []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...)
}

// Snapshot returns a copy of the entries together with the cursor, read
// under a single lock.
func (h *History) Snapshot() ([]Entry, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]Entry(nil), h.entries...), h.pos
}

// Len returns the number of entries, sentinel included.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// Pos returns the cursor.
func (h *History) Pos() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos
}

// AtTail reports whether the cursor is on the sentinel entry.
func (h *History) AtTail() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pos == len(h.entries)-1
}

// MaxEntries returns the capacity.
func (h *History) MaxEntries() int {
	return h.maxEntries
}

func notify(o Observer) {
	if o != nil {
		o.HistoryChanged()
	}
}
