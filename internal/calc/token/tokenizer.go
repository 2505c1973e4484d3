// Package token converts calculator expressions between their canonical
// ASCII form and the localized form shown on the display.
package token

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/dshills/keycalc/internal/locale"
)

// Canonical tokens.
const (
	Plus     = "+"
	Minus    = "-"
	Times    = "*"
	Divide   = "/"
	Decimal  = "."
	ArgSep   = ","
	Infinity = "Infinity"
)

// FunctionNames lists the canonical names of the built-in functions that
// have localized display names.
var FunctionNames = []string{"sin", "cos", "tan", "ln", "log"}

// pair is one entry of the replacement table.
type pair struct {
	canonical string
	localized string
}

// Tokenizer holds the replacement table for one locale. It is built once
// and is safe for concurrent use.
type Tokenizer struct {
	pairs       []pair
	toCanonical *strings.Replacer
	toLocalized *strings.Replacer
	glyphs      Glyphs
	res         *locale.Resources
}

// New builds the replacement table from res.
func New(res *locale.Resources) *Tokenizer {
	t := &Tokenizer{res: res}

	t.add(Decimal, res.DecimalSeparator)
	t.add(ArgSep, res.ArgumentSeparator)
	for i, d := range res.Digits {
		t.add(string(rune('0'+i)), d)
	}
	t.add(Divide, res.OpDiv)
	t.add(Times, res.OpMul)
	t.add(Minus, res.OpSub)
	for _, name := range FunctionNames {
		t.add(name, res.Functions[name])
	}
	t.add(Infinity, res.Infinity)

	t.toCanonical = t.replacer(func(p pair) (string, string) { return p.localized, p.canonical })
	t.toLocalized = t.replacer(func(p pair) (string, string) { return p.canonical, p.localized })

	t.glyphs = Glyphs{
		Plus:    '+',
		Minus:   firstRune(res.OpSub, '-'),
		Times:   firstRune(res.OpMul, '*'),
		Divide:  firstRune(res.OpDiv, '/'),
		Decimal: firstRune(res.DecimalSeparator, '.'),
	}
	return t
}

// add records a replacement unless it is an identity mapping.
func (t *Tokenizer) add(canonical, localized string) {
	if localized == "" || localized == canonical {
		return
	}
	t.pairs = append(t.pairs, pair{canonical: canonical, localized: localized})
}

// replacer builds a single-pass replacer with the longest source tokens
// first, so multi-character tokens win over their prefixes.
func (t *Tokenizer) replacer(dir func(pair) (string, string)) *strings.Replacer {
	type rule struct{ from, to string }
	rules := make([]rule, 0, len(t.pairs))
	for _, p := range t.pairs {
		from, to := dir(p)
		rules = append(rules, rule{from, to})
	}
	sort.SliceStable(rules, func(i, j int) bool {
		return utf8.RuneCountInString(rules[i].from) > utf8.RuneCountInString(rules[j].from)
	})

	args := make([]string, 0, 2*len(rules))
	for _, r := range rules {
		args = append(args, r.from, r.to)
	}
	return strings.NewReplacer(args...)
}

// Normalize converts localized text to canonical form.
func (t *Tokenizer) Normalize(expr string) string {
	return t.toCanonical.Replace(expr)
}

// Localize converts canonical text to localized form.
func (t *Tokenizer) Localize(expr string) string {
	return t.toLocalized.Replace(expr)
}

// Glyphs returns the single-rune display glyphs used by the input filter.
func (t *Tokenizer) Glyphs() Glyphs {
	return t.glyphs
}

// Resources returns the locale resources the table was built from.
func (t *Tokenizer) Resources() *locale.Resources {
	return t.res
}

func firstRune(s string, fallback rune) rune {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return fallback
	}
	return r
}
