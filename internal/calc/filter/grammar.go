package filter

import "github.com/dshills/keycalc/internal/calc/token"

// grammar holds the arithmetic-input rules shared by every policy.
type grammar struct {
	g token.Glyphs
}

// runeAt returns runes[i], or 0 when i is out of range.
func runeAt(runes []rune, i int) rune {
	if i < 0 || i >= len(runes) {
		return 0
	}
	return runes[i]
}

// single applies the rules for inserting the single rune r at start.
// It returns the insertion point, which may move left over a run of
// operators, and whether r may be inserted at all. The returned start is
// meaningful even when the insertion is rejected.
func (gr grammar) single(runes []rune, start int, r rune) (int, bool) {
	g := gr.g

	// One decimal point per digit run.
	if r == g.Decimal {
		p := start - 1
		for p >= 0 && g.IsDigit(runes[p]) {
			p--
		}
		return start, runeAt(runes, p) != g.Decimal
	}

	if !g.IsOperator(r) {
		return start, true
	}

	prev := runeAt(runes, start-1)

	// No "−−".
	if r == g.Minus && prev == g.Minus {
		return start, false
	}

	// A new operator replaces the run of operators before it. A minus is
	// a sign and sits next to the operator it follows.
	if r != g.Minus {
		for g.IsOperator(prev) {
			start--
			prev = runeAt(runes, start-1)
		}
	}

	// Only a minus may lead the expression.
	if start == 0 && r != g.Minus {
		return start, false
	}

	return start, true
}

// singleRune returns the only rune of s, if s holds exactly one.
func singleRune(s string) (rune, bool) {
	runes := []rune(s)
	if len(runes) != 1 {
		return 0, false
	}
	return runes[0], true
}
