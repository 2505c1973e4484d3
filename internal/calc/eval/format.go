package eval

import (
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	// maxSignificant is the number of significant digits a float64 can
	// carry reliably.
	maxSignificant = 15

	// guardDigits are dropped from maxSignificant so accumulated binary
	// error (0.1+0.2) does not show up in results.
	guardDigits = 1
)

// FormatNumber renders v in canonical form using at most lineLength
// characters. A lineLength of zero or less means no display limit, in
// which case maxSignificant-guardDigits significant digits are kept.
//
// Rounding is to the nearest representable decimal of the exact binary
// value, as strconv does. Fewer digits are kept until the text fits;
// exponent form ("1.5E20") is used when the magnitude demands it. When
// not even one significant digit fits, the one-digit form is returned and
// is longer than lineLength; a number is never truncated.
func FormatNumber(v float64, lineLength int) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case v == 0:
		return "0"
	}

	digits := maxSignificant - guardDigits
	if lineLength > 0 && digits > lineLength {
		digits = lineLength
	}

	for d := digits; d > 1; d-- {
		candidate := formatSignificant(v, d)
		if lineLength <= 0 || utf8.RuneCountInString(candidate) <= lineLength {
			return candidate
		}
	}
	return formatSignificant(v, 1)
}

// formatSignificant formats v with d significant digits, trailing zeros
// removed and the exponent written as E<n>.
func formatSignificant(v float64, d int) string {
	s := strconv.FormatFloat(v, 'g', d, 64)

	mant, exp, ok := strings.Cut(s, "e")
	if !ok {
		return s
	}

	sign := ""
	switch {
	case strings.HasPrefix(exp, "-"):
		sign = "-"
		exp = exp[1:]
	case strings.HasPrefix(exp, "+"):
		exp = exp[1:]
	}
	exp = strings.TrimLeft(exp, "0")
	if exp == "" {
		return mant
	}
	return mant + "E" + sign + exp
}
