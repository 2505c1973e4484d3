package eval

import (
	"errors"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/dshills/keycalc/internal/calc/arith"
	"github.com/dshills/keycalc/internal/calc/token"
	"github.com/dshills/keycalc/internal/locale"
)

func newEvaluator(t *testing.T, tag string) *Evaluator {
	t.Helper()
	res, err := locale.Load(tag, false)
	if err != nil {
		t.Fatalf("locale.Load(%q) error = %v", tag, err)
	}
	return New(token.New(res), arith.NewEnv())
}

func TestEvaluate(t *testing.T) {
	ev := newEvaluator(t, "en")

	tests := []struct {
		name string
		expr string
		want Result
	}{
		{"empty", "", Result{Kind: KindEmpty}},
		{"only operators", "+−", Result{Kind: KindEmpty}},
		{"only spaces", "   ", Result{Kind: KindEmpty}},
		{"spaces then operators", " \t+", Result{Kind: KindEmpty}},
		{"precedence", "3+4×5", Result{Expr: "3+4*5", Value: "23", Kind: KindValue, Number: 23}},
		{"trailing operator", "3+", Result{Expr: "3", Value: "3", Kind: KindValue, Number: 3}},
		{"trailing operators", "3×−", Result{Expr: "3", Value: "3", Kind: KindValue, Number: 3}},
		{"literal kept as typed", "1.50", Result{Expr: "1.50", Value: "1.50", Kind: KindValue, Number: 1.5}},
		{"negative literal", "−2", Result{Expr: "-2", Value: "−2", Kind: KindValue, Number: -2}},
		{"guard digit", "0.1+0.2", Result{Expr: "0.1+0.2", Value: "0.3", Kind: KindValue, Number: 0.1 + 0.2}},
		{"negative result", "2−5", Result{Expr: "2-5", Value: "−3", Kind: KindValue, Number: -3}},
		{"division", "1÷4", Result{Expr: "1/4", Value: "0.25", Kind: KindValue, Number: 0.25}},
		{"infinity", "5÷0", Result{Expr: "5/0", Value: "∞", Kind: KindValue, Number: math.Inf(1)}},
		{"negative infinity", "−5÷0", Result{Expr: "-5/0", Value: "−∞", Kind: KindValue, Number: math.Inf(-1)}},
		{"infinity literal", "∞", Result{Expr: "Infinity", Value: "∞", Kind: KindValue, Number: math.Inf(1)}},
		{"function", "sin(0)", Result{Expr: "sin(0)", Value: "0", Kind: KindValue, Number: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ev.Evaluate(tt.expr, 0)
			if diff := cmp.Diff(tt.want, got, cmpopts.EquateApprox(0, 1e-12), cmpopts.IgnoreFields(Result{}, "Err")); diff != "" {
				t.Errorf("Evaluate(%q) mismatch (-want +got):\n%s", tt.expr, diff)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	ev := newEvaluator(t, "en")

	got := ev.Evaluate("0÷0", 0)
	if got.Kind != KindNaN || got.Error != "Not a number" || got.Value != "" {
		t.Errorf("Evaluate(0÷0) = %+v, want NaN error", got)
	}
	if !got.IsError() || got.Text() != "Not a number" {
		t.Errorf("Text() = %q, IsError() = %v", got.Text(), got.IsError())
	}

	got = ev.Evaluate("(1+", 0)
	if got.Kind != KindSyntaxError || got.Error != "Error" {
		t.Errorf("Evaluate((1+) = %+v, want syntax error", got)
	}
	if !errors.Is(got.Err, arith.ErrSyntax) {
		t.Errorf("Err = %v, want arith.ErrSyntax", got.Err)
	}
}

func TestEvaluateLocalized(t *testing.T) {
	ev := newEvaluator(t, "de-DE")

	got := ev.Evaluate("1,5×2", 0)
	if got.Value != "3" || got.Expr != "1.5*2" {
		t.Errorf("Evaluate(1,5×2) = %+v", got)
	}

	got = ev.Evaluate("1÷4", 0)
	if got.Value != "0,25" {
		t.Errorf("Evaluate(1÷4).Value = %q, want 0,25", got.Value)
	}

	got = ev.Evaluate("2+", 0)
	if got.Value != "2" {
		t.Errorf("Evaluate(2+).Value = %q, want 2", got.Value)
	}

	got = ev.Evaluate("(", 0)
	if got.Error != "Fehler" {
		t.Errorf("Evaluate(().Error = %q, want Fehler", got.Error)
	}
}

func TestEvaluateLineLength(t *testing.T) {
	ev := newEvaluator(t, "en")

	got := ev.Evaluate("1÷3", 6)
	if got.Value != "0.3333" {
		t.Errorf("Evaluate(1÷3, 6).Value = %q, want 0.3333", got.Value)
	}

	got = ev.Evaluate("123456789×1", 5)
	if got.Value != "1.2E8" {
		t.Errorf("Evaluate(123456789×1, 5).Value = %q, want 1.2E8", got.Value)
	}
}

type stubParser struct {
	calls int
}

func (p *stubParser) Eval(string) (float64, error) {
	p.calls++
	return 42, nil
}

func TestEvaluateLiteralSkipsParser(t *testing.T) {
	res := locale.MustLoad("en", false)
	p := &stubParser{}
	ev := New(token.New(res), p)

	for _, expr := range []string{"12", "−0.5", ".5", "1.5E3", "∞"} {
		ev.Evaluate(expr, 0)
	}
	if p.calls != 0 {
		t.Errorf("parser called %d times for literals, want 0", p.calls)
	}

	ev.Evaluate("1+1", 0)
	if p.calls != 1 {
		t.Errorf("parser called %d times, want 1", p.calls)
	}
}

func TestTrimTrailingOperators(t *testing.T) {
	tests := map[string]string{
		"":      "",
		"1+":    "1",
		"1*-":   "1",
		"1+2":   "1+2",
		"(1+2)": "(1+2)",
		"5!":    "5!",
		"-":     "",
	}
	for in, want := range tests {
		if got := TrimTrailingOperators(in); got != want {
			t.Errorf("TrimTrailingOperators(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsNumericLiteral(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"12.5", true},
		{"-3", true},
		{".5", true},
		{"5.", true},
		{"1.5E20", true},
		{"1E-7", true},
		{"Infinity", true},
		{"-Infinity", true},
		{"", false},
		{"-", false},
		{".", false},
		{"1e5", false},
		{"1E", false},
		{"0x10", false},
		{"inf", false},
		{"NaN", false},
		{"1.2.3", false},
		{"--1", false},
		{"1+1", false},
	}
	for _, tt := range tests {
		if got := IsNumericLiteral(tt.in); got != tt.want {
			t.Errorf("IsNumericLiteral(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
