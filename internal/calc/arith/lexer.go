package arith

import (
	"strconv"
	"unicode"
)

type tokenKind uint8

const (
	tokEOF tokenKind = iota
	tokNumber
	tokIdent
	tokPlus
	tokMinus
	tokStar
	tokSlash
	tokCaret
	tokBang
	tokPercent
	tokLParen
	tokRParen
	tokComma
	tokInvalid
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

// lexer splits a canonical expression into tokens. Positions are rune
// offsets into the input.
type lexer struct {
	s []rune
	i int
}

func (l *lexer) next() token {
	for l.i < len(l.s) && unicode.IsSpace(l.s[l.i]) {
		l.i++
	}
	if l.i >= len(l.s) {
		return token{kind: tokEOF, pos: l.i}
	}

	start := l.i
	ch := l.s[l.i]

	if k, ok := punct[ch]; ok {
		l.i++
		return token{kind: k, text: string(ch), pos: start}
	}

	if ch == '.' || unicode.IsDigit(ch) {
		l.i = scanNumber(l.s, l.i)
		txt := string(l.s[start:l.i])
		n, err := strconv.ParseFloat(txt, 64)
		if err != nil {
			return token{kind: tokInvalid, text: txt, pos: start}
		}
		return token{kind: tokNumber, text: txt, num: n, pos: start}
	}

	if isIdentStart(ch) {
		l.i++
		for l.i < len(l.s) && isIdentContinue(l.s[l.i]) {
			l.i++
		}
		return token{kind: tokIdent, text: string(l.s[start:l.i]), pos: start}
	}

	l.i++
	return token{kind: tokInvalid, text: string(ch), pos: start}
}

var punct = map[rune]tokenKind{
	'+': tokPlus,
	'-': tokMinus,
	'*': tokStar,
	'/': tokSlash,
	'^': tokCaret,
	'!': tokBang,
	'%': tokPercent,
	'(': tokLParen,
	')': tokRParen,
	',': tokComma,
}

// scanNumber returns the end of the number starting at i. An exponent is
// only recognized with an upper-case E so that "2e" still reads as 2
// times the constant e.
func scanNumber(s []rune, i int) int {
	for i < len(s) && unicode.IsDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && unicode.IsDigit(s[i]) {
			i++
		}
	}
	if i < len(s) && s[i] == 'E' {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && unicode.IsDigit(s[k]) {
			k++
		}
		if k > j {
			i = k
		}
	}
	return i
}

func isIdentStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isIdentContinue(r rune) bool {
	return isIdentStart(r) || unicode.IsDigit(r)
}
