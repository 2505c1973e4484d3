// Package filter decides how a proposed edit to the expression buffer is
// applied.
//
// Every insertion or deletion is routed through a Policy before it reaches
// the buffer. A policy may accept the edit unchanged, reshape it (for
// example by widening the replaced range so a new operator replaces a run
// of old ones), or drop the inserted text. Two policies are provided:
//
//   - Editable: the primary rule set, used by the interactive display.
//   - Builder: a stricter variant that only filters appends at the tail
//     and replaces the whole buffer on the first edit after a result.
//
// Both share the single-character grammar in grammar.go.
package filter

import (
	"errors"
	"fmt"

	"github.com/dshills/keycalc/internal/calc/token"
)

// Policy names accepted by New.
const (
	PolicyEditable = "editable"
	PolicyBuilder  = "builder"
)

// ErrUnknownPolicy is returned by New for an unrecognized policy name.
var ErrUnknownPolicy = errors.New("unknown filter policy")

// Edit is a proposed replacement of the rune range [Start, End) with Text.
type Edit struct {
	Start int
	End   int
	Text  string
}

// Result is the outcome of applying a policy.
type Result struct {
	// Text is the full buffer after the edit.
	Text string

	// Cursor is the rune offset just past the spliced text.
	Cursor int

	// Applied is the edit that was actually spliced in.
	Applied Edit
}

// Changed reports whether the buffer differs from before.
func (r Result) Changed(before string) bool {
	return r.Text != before
}

// Context is the calling state a policy consults. A nil Context accepts
// every insertion.
type Context interface {
	// AcceptInsert reports whether delta may be inserted into the buffer
	// as it stands. Returning false makes the policy clear the buffer
	// before inserting.
	AcceptInsert(delta string) bool

	// Cleared is invoked when the policy discards the buffer because
	// AcceptInsert returned false.
	Cleared()

	// ShowingResult reports whether the buffer currently holds a
	// finished result rather than user input.
	ShowingResult() bool
}

// Policy applies a proposed edit to buf.
type Policy interface {
	Name() string
	Apply(buf string, e Edit, ctx Context) Result
}

// New returns the policy registered under name.
func New(name string, tok *token.Tokenizer) (Policy, error) {
	switch name {
	case "", PolicyEditable:
		return NewEditable(tok), nil
	case PolicyBuilder:
		return NewBuilder(tok), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
}

// splice replaces runes[start:end] with text, clamping the range to the
// buffer.
func splice(runes []rune, start, end int, text string) Result {
	start, end = clampRange(len(runes), start, end)

	ins := []rune(text)
	out := make([]rune, 0, len(runes)-(end-start)+len(ins))
	out = append(out, runes[:start]...)
	out = append(out, ins...)
	out = append(out, runes[end:]...)

	return Result{
		Text:    string(out),
		Cursor:  start + len(ins),
		Applied: Edit{Start: start, End: end, Text: text},
	}
}

func clampRange(n, start, end int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}
	if start > n {
		start = n
	}
	if end < start {
		end = start
	}
	return start, end
}
