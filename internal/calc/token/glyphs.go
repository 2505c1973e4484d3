package token

import "unicode"

// Glyphs are the display runes the input filter reasons about.
type Glyphs struct {
	Plus    rune
	Minus   rune
	Times   rune
	Divide  rune
	Decimal rune
}

// IsOperator reports whether r is a binary operator glyph. ASCII forms are
// accepted as well since they may still appear before canonicalization.
func (g Glyphs) IsOperator(r rune) bool {
	switch r {
	case g.Plus, g.Minus, g.Times, g.Divide, '-', '*', '/':
		return true
	}
	return false
}

// IsDigit reports whether r is a decimal digit in any script.
func (g Glyphs) IsDigit(r rune) bool {
	return unicode.IsDigit(r)
}

// Canonicalize maps the ASCII operator forms onto the display glyphs so the
// buffer holds a single representation of each operator.
func (g Glyphs) Canonicalize(s string) string {
	out := []rune(s)
	for i, r := range out {
		switch r {
		case '-', '−':
			out[i] = g.Minus
		case '*', '×':
			out[i] = g.Times
		case '/', '÷':
			out[i] = g.Divide
		case '.':
			out[i] = g.Decimal
		}
	}
	return string(out)
}
