package filter

import "github.com/dshills/keycalc/internal/calc/token"

// Builder is the stricter input policy. Only appends at the end of the
// buffer are filtered; an edit anywhere else is taken as the user editing
// the expression by hand and is spliced unchanged. While the buffer shows
// a result, the first non-operator append replaces it.
type Builder struct {
	grammar
	tok *token.Tokenizer
}

// NewBuilder creates a Builder policy.
func NewBuilder(tok *token.Tokenizer) *Builder {
	return &Builder{grammar: grammar{g: tok.Glyphs()}, tok: tok}
}

// Name implements Policy.
func (p *Builder) Name() string { return PolicyBuilder }

// Apply implements Policy.
func (p *Builder) Apply(buf string, e Edit, ctx Context) Result {
	runes := []rune(buf)
	start, end := clampRange(len(runes), e.Start, e.End)

	if start != len(runes) || end != len(runes) {
		return splice(runes, start, end, e.Text)
	}

	edited := ctx == nil || !ctx.ShowingResult()

	// Inserted text may arrive in either form; bring it to display form.
	delta := p.tok.Localize(p.tok.Normalize(e.Text))
	delta = p.g.Canonicalize(delta)

	if r, ok := singleRune(delta); ok {
		s, accepted := p.single(runes, start, r)
		if !accepted {
			return splice(runes, end, end, "")
		}
		start = s
		if p.g.IsOperator(r) {
			// Operators continue from a shown result.
			edited = true
		}
	}

	if !edited && delta != "" {
		start = 0
		if ctx != nil {
			ctx.Cleared()
		}
	}

	return splice(runes, start, end, delta)
}
