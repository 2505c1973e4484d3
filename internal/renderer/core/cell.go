package core

import "github.com/rivo/uniseg"

// Cell is one terminal cell. A wide rune occupies its cell and a
// following continuation cell of width zero.
type Cell struct {
	Rune  rune
	Width int
	Style Style
}

// EmptyCell returns a blank cell in the default style.
func EmptyCell() Cell {
	return Cell{Rune: ' ', Width: 1, Style: DefaultStyle()}
}

// ContinuationCell returns the filler that follows a wide rune.
func ContinuationCell() Cell {
	return Cell{Style: DefaultStyle()}
}

// NewStyledCell creates a cell holding r.
func NewStyledCell(r rune, style Style) Cell {
	return Cell{Rune: r, Width: RuneWidth(r), Style: style}
}

// IsContinuation reports whether c follows a wide rune.
func (c Cell) IsContinuation() bool {
	return c.Width == 0 && c.Rune == 0
}

// Equals reports whether two cells are identical.
func (c Cell) Equals(other Cell) bool {
	return c.Rune == other.Rune && c.Width == other.Width && c.Style.Equals(other.Style)
}

// RuneWidth returns the number of columns r occupies.
func RuneWidth(r rune) int {
	if r < 0x20 || r == 0x7F {
		return 0
	}
	if w := uniseg.StringWidth(string(r)); w > 0 {
		return w
	}
	return 1
}

// StringWidth returns the number of columns s occupies.
func StringWidth(s string) int {
	return uniseg.StringWidth(s)
}

// Rect is a screen rectangle; Right and Bottom are exclusive.
type Rect struct {
	Top, Left, Bottom, Right int
}

// RectFromSize creates a rectangle from its origin and size.
func RectFromSize(top, left, height, width int) Rect {
	return Rect{Top: top, Left: left, Bottom: top + height, Right: left + width}
}

// Width returns the number of columns in r.
func (r Rect) Width() int {
	return max(r.Right-r.Left, 0)
}

// Height returns the number of rows in r.
func (r Rect) Height() int {
	return max(r.Bottom-r.Top, 0)
}

// IsEmpty reports whether r has no cells.
func (r Rect) IsEmpty() bool {
	return r.Width() == 0 || r.Height() == 0
}
