package eval

import (
	"math"
	"strconv"
	"strings"
)

// IsNumericLiteral reports whether s is a plain canonical number: an
// optional minus, digits with at most one decimal point, and an optional
// E exponent. "Infinity" and "-Infinity" count as literals too.
func IsNumericLiteral(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "Infinity" {
		return true
	}

	i, digits := 0, 0
	for i < len(s) && isASCIIDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isASCIIDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && s[i] == 'E' {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isASCIIDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}

func parseLiteral(s string) float64 {
	switch s {
	case "Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
