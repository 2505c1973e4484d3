// Package eval turns the text on the display into a displayable result.
//
// The evaluator normalizes the localized expression, drops trailing
// operators, hands the canonical text to a Parser and classifies what
// comes back: an empty input, a number, a NaN or a syntax error. Numbers
// are formatted to fit the display line and localized again.
package eval

import (
	"math"
	"strings"

	"github.com/dshills/keycalc/internal/calc/token"
)

// Parser evaluates a canonical expression.
type Parser interface {
	Eval(expr string) (float64, error)
}

// Kind classifies an evaluation.
type Kind int

const (
	// KindEmpty means there was nothing to evaluate.
	KindEmpty Kind = iota
	// KindValue means Value holds a displayable result.
	KindValue
	// KindSyntaxError means the parser rejected the expression.
	KindSyntaxError
	// KindNaN means the expression evaluated to NaN.
	KindNaN
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindValue:
		return "value"
	case KindSyntaxError:
		return "syntax-error"
	case KindNaN:
		return "nan"
	default:
		return "unknown"
	}
}

// Result is the outcome of Evaluate. At most one of Value and Error is
// set; both are empty for blank input.
type Result struct {
	// Expr is the canonical text that was evaluated.
	Expr string

	// Value is the localized result.
	Value string

	// Error is the localized error message.
	Error string

	Kind Kind

	// Number is the numeric result for KindValue.
	Number float64

	// Err is the parser error for KindSyntaxError.
	Err error
}

// IsError reports whether the result should be shown as an error.
func (r Result) IsError() bool {
	return r.Kind == KindSyntaxError || r.Kind == KindNaN
}

// Text returns whatever should be displayed: the value or the error.
func (r Result) Text() string {
	if r.IsError() {
		return r.Error
	}
	return r.Value
}

// Evaluator evaluates localized expressions.
type Evaluator struct {
	tok    *token.Tokenizer
	parser Parser
}

// New creates an Evaluator.
func New(tok *token.Tokenizer, parser Parser) *Evaluator {
	return &Evaluator{tok: tok, parser: parser}
}

// Tokenizer returns the tokenizer used for normalization.
func (e *Evaluator) Tokenizer() *token.Tokenizer {
	return e.tok
}

// Evaluate evaluates the localized expression expr. lineLength bounds the
// length of a formatted result; zero or less means unbounded.
func (e *Evaluator) Evaluate(expr string, lineLength int) Result {
	canonical := TrimTrailingOperators(e.tok.Normalize(expr))

	if strings.TrimSpace(canonical) == "" {
		return Result{Kind: KindEmpty}
	}
	if IsNumericLiteral(canonical) {
		v := parseLiteral(canonical)
		return Result{
			Expr:   canonical,
			Value:  e.tok.Localize(canonical),
			Kind:   KindValue,
			Number: v,
		}
	}

	res := e.tok.Resources()
	v, err := e.parser.Eval(canonical)
	if err != nil {
		return Result{Expr: canonical, Error: res.ErrorSyntax, Kind: KindSyntaxError, Err: err}
	}
	if math.IsNaN(v) {
		return Result{Expr: canonical, Error: res.ErrorNaN, Kind: KindNaN, Number: v}
	}

	return Result{
		Expr:   canonical,
		Value:  e.tok.Localize(FormatNumber(v, lineLength)),
		Kind:   KindValue,
		Number: v,
	}
}

// binaryOperators are the canonical operators an expression cannot end
// with.
const binaryOperators = "+-*/"

// TrimTrailingOperators removes trailing binary operators.
func TrimTrailingOperators(expr string) string {
	return strings.TrimRight(expr, binaryOperators)
}
