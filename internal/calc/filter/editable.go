package filter

import "github.com/dshills/keycalc/internal/calc/token"

// Editable is the primary input policy. Every edit is filtered no matter
// where it lands in the buffer.
type Editable struct {
	grammar
}

// NewEditable creates an Editable policy using the display glyphs of tok.
func NewEditable(tok *token.Tokenizer) *Editable {
	return &Editable{grammar: grammar{g: tok.Glyphs()}}
}

// Name implements Policy.
func (p *Editable) Name() string { return PolicyEditable }

// Apply implements Policy.
//
// A rejected single character still splices an empty string over the
// (possibly widened) range, so a rejected edit can delete a selection or
// a run of operators.
func (p *Editable) Apply(buf string, e Edit, ctx Context) Result {
	runes := []rune(buf)
	start, end := clampRange(len(runes), e.Start, e.End)
	delta := e.Text

	if ctx != nil && !ctx.AcceptInsert(delta) {
		ctx.Cleared()
		start, end = 0, len(runes)
	}

	delta = p.g.Canonicalize(delta)

	if r, ok := singleRune(delta); ok {
		var accepted bool
		start, accepted = p.single(runes, start, r)
		if !accepted {
			return splice(runes, start, end, "")
		}
	}

	return splice(runes, start, end, delta)
}
