package logic

// Scroll hints the direction of a transition when the display text is
// replaced.
type Scroll int

const (
	// ScrollNone replaces the text in place.
	ScrollNone Scroll = iota
	// ScrollUp moves the old text up and out, as when a result arrives.
	ScrollUp
	// ScrollDown moves the old text down, as when an older entry is
	// recalled.
	ScrollDown
)

// String returns the scroll name.
func (s Scroll) String() string {
	switch s {
	case ScrollNone:
		return "none"
	case ScrollUp:
		return "up"
	case ScrollDown:
		return "down"
	default:
		return "unknown"
	}
}

// Display renders the controller's state. It only consumes; the
// controller owns the expression buffer.
type Display interface {
	// SetText replaces the shown expression.
	SetText(text string, scroll Scroll)

	// SetCursor moves the caret to rune offset pos.
	SetCursor(pos int)

	// SetPreview shows the live evaluation of the buffer. Both values
	// are empty when there is nothing to preview.
	SetPreview(value, errText string)

	// LineLength returns how many characters fit on one line. Zero means
	// unknown.
	LineLength() int
}

// DeleteMode tells whether the delete key removes one character or the
// whole buffer.
type DeleteMode int

const (
	// DeleteModeBackspace removes the character before the cursor.
	DeleteModeBackspace DeleteMode = iota
	// DeleteModeClear empties the buffer.
	DeleteModeClear
)

// String returns the mode name.
func (m DeleteMode) String() string {
	if m == DeleteModeClear {
		return "clear"
	}
	return "backspace"
}

// Listener is told when the delete mode changes.
type Listener interface {
	DeleteModeChanged(mode DeleteMode)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(DeleteMode)

// DeleteModeChanged implements Listener.
func (f ListenerFunc) DeleteModeChanged(m DeleteMode) { f(m) }
