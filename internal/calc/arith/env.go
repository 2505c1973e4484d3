// Package arith evaluates canonical arithmetic expressions to a float64.
//
// The accepted language is the usual infix arithmetic with + - * /,
// parentheses, right-associative ^, postfix ! (factorial, extended to
// reals through the gamma function) and postfix % (divide by 100).
// Identifiers name constants (e, pi, π, Infinity) or functions called
// with parentheses. A number, constant, call or parenthesized group
// directly followed by an identifier or "(" is multiplied implicitly, so
// "2π" and "3(1+1)" are valid.
//
// Division by zero follows IEEE 754 and yields an infinity or NaN; only
// malformed input is an error.
package arith

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
)

// ErrSyntax is matched by every error caused by malformed input.
var ErrSyntax = errors.New("syntax error")

// ErrArity is returned when a function is called with the wrong number of
// arguments.
var ErrArity = errors.New("wrong number of arguments")

// SyntaxError describes where parsing failed.
type SyntaxError struct {
	Pos int
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d: %s", e.Pos, e.Msg)
}

// Is makes errors.Is(err, ErrSyntax) true for every SyntaxError.
func (e *SyntaxError) Is(target error) bool {
	return target == ErrSyntax
}

// Variadic marks a function that accepts any number of arguments.
const Variadic = -1

// Func is a callable function. Args has already been checked against the
// declared arity.
type Func func(args []float64) (float64, error)

type function struct {
	arity int
	fn    Func
}

// Env holds the constants and functions visible to expressions. It is
// safe for concurrent use.
type Env struct {
	mu     sync.RWMutex
	consts map[string]float64
	funcs  map[string]function
}

// NewEnv returns an Env with the built-in constants and functions.
func NewEnv() *Env {
	env := &Env{
		consts: map[string]float64{
			"e":        math.E,
			"pi":       math.Pi,
			"π":        math.Pi,
			"Infinity": math.Inf(1),
		},
		funcs: make(map[string]function),
	}

	unary := map[string]func(float64) float64{
		"sin":  math.Sin,
		"cos":  math.Cos,
		"tan":  math.Tan,
		"asin": math.Asin,
		"acos": math.Acos,
		"atan": math.Atan,
		"ln":   math.Log,
		"log":  math.Log10,
		"sqrt": math.Sqrt,
		"abs":  math.Abs,
		"exp":  math.Exp,
	}
	for name, f := range unary {
		f := f
		env.funcs[name] = function{arity: 1, fn: func(a []float64) (float64, error) {
			return f(a[0]), nil
		}}
	}
	env.funcs["min"] = function{arity: Variadic, fn: fold(math.Min)}
	env.funcs["max"] = function{arity: Variadic, fn: fold(math.Max)}

	return env
}

func fold(f func(a, b float64) float64) Func {
	return func(args []float64) (float64, error) {
		if len(args) == 0 {
			return 0, ErrArity
		}
		acc := args[0]
		for _, v := range args[1:] {
			acc = f(acc, v)
		}
		return acc, nil
	}
}

// Define registers or replaces a function.
func (env *Env) Define(name string, arity int, fn Func) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.funcs[name] = function{arity: arity, fn: fn}
}

// Undefine removes a function. Built-ins may be removed as well.
func (env *Env) Undefine(name string) {
	env.mu.Lock()
	defer env.mu.Unlock()
	delete(env.funcs, name)
}

// SetConst registers or replaces a constant.
func (env *Env) SetConst(name string, v float64) {
	env.mu.Lock()
	defer env.mu.Unlock()
	env.consts[name] = v
}

// Functions returns the sorted names of all defined functions.
func (env *Env) Functions() []string {
	env.mu.RLock()
	defer env.mu.RUnlock()

	names := make([]string, 0, len(env.funcs))
	for name := range env.funcs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (env *Env) lookupConst(name string) (float64, bool) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	v, ok := env.consts[name]
	return v, ok
}

func (env *Env) lookupFunc(name string) (function, bool) {
	env.mu.RLock()
	defer env.mu.RUnlock()
	f, ok := env.funcs[name]
	return f, ok
}

// Eval parses and evaluates expr.
func (env *Env) Eval(expr string) (float64, error) {
	p := &parser{env: env, l: lexer{s: []rune(expr)}}
	p.next()
	if p.cur.kind == tokEOF {
		return 0, &SyntaxError{Pos: 0, Msg: "empty expression"}
	}

	v, err := p.parseExpr()
	if err != nil {
		return 0, err
	}
	if p.cur.kind != tokEOF {
		return 0, p.unexpected()
	}
	return v, nil
}
