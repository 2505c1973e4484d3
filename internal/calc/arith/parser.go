package arith

import (
	"fmt"
	"math"
)

// parser is a recursive-descent evaluator. Values are computed while
// parsing; there is no intermediate tree.
type parser struct {
	env *Env
	l   lexer
	cur token
}

func (p *parser) next() { p.cur = p.l.next() }

func (p *parser) unexpected() error {
	if p.cur.kind == tokEOF {
		return &SyntaxError{Pos: p.cur.pos, Msg: "unexpected end of expression"}
	}
	return &SyntaxError{Pos: p.cur.pos, Msg: fmt.Sprintf("unexpected %q", p.cur.text)}
}

func (p *parser) parseExpr() (float64, error) {
	return p.parseSum()
}

func (p *parser) parseSum() (float64, error) {
	left, err := p.parseProduct()
	if err != nil {
		return 0, err
	}
	for p.cur.kind == tokPlus || p.cur.kind == tokMinus {
		op := p.cur.kind
		p.next()
		right, err := p.parseProduct()
		if err != nil {
			return 0, err
		}
		if op == tokPlus {
			left += right
		} else {
			left -= right
		}
	}
	return left, nil
}

func (p *parser) parseProduct() (float64, error) {
	left, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.cur.kind {
		case tokStar, tokSlash:
			op := p.cur.kind
			p.next()
			right, err := p.parseUnary()
			if err != nil {
				return 0, err
			}
			if op == tokStar {
				left *= right
			} else {
				left /= right
			}
		case tokIdent, tokLParen:
			// Implicit multiplication binds like an explicit one.
			right, err := p.parsePower()
			if err != nil {
				return 0, err
			}
			left *= right
		default:
			return left, nil
		}
	}
}

func (p *parser) parseUnary() (float64, error) {
	switch p.cur.kind {
	case tokMinus:
		p.next()
		v, err := p.parseUnary()
		return -v, err
	case tokPlus:
		p.next()
		return p.parseUnary()
	}
	return p.parsePower()
}

func (p *parser) parsePower() (float64, error) {
	base, err := p.parsePostfix()
	if err != nil {
		return 0, err
	}
	if p.cur.kind != tokCaret {
		return base, nil
	}
	p.next()
	exp, err := p.parseUnary()
	if err != nil {
		return 0, err
	}
	return math.Pow(base, exp), nil
}

func (p *parser) parsePostfix() (float64, error) {
	v, err := p.parsePrimary()
	if err != nil {
		return 0, err
	}
	for {
		switch p.cur.kind {
		case tokBang:
			p.next()
			v = factorial(v)
		case tokPercent:
			p.next()
			v /= 100
		default:
			return v, nil
		}
	}
}

func (p *parser) parsePrimary() (float64, error) {
	switch p.cur.kind {
	case tokNumber:
		v := p.cur.num
		p.next()
		return v, nil

	case tokLParen:
		p.next()
		v, err := p.parseExpr()
		if err != nil {
			return 0, err
		}
		if p.cur.kind != tokRParen {
			return 0, &SyntaxError{Pos: p.cur.pos, Msg: "expected ')'"}
		}
		p.next()
		return v, nil

	case tokIdent:
		name, pos := p.cur.text, p.cur.pos
		p.next()
		if p.cur.kind == tokLParen {
			return p.parseCall(name, pos)
		}
		if v, ok := p.env.lookupConst(name); ok {
			return v, nil
		}
		return 0, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unknown name %q", name)}
	}
	return 0, p.unexpected()
}

func (p *parser) parseCall(name string, pos int) (float64, error) {
	fn, ok := p.env.lookupFunc(name)
	if !ok {
		return 0, &SyntaxError{Pos: pos, Msg: fmt.Sprintf("unknown function %q", name)}
	}

	p.next() // (
	var args []float64
	if p.cur.kind != tokRParen {
		for {
			v, err := p.parseExpr()
			if err != nil {
				return 0, err
			}
			args = append(args, v)
			if p.cur.kind != tokComma {
				break
			}
			p.next()
		}
	}
	if p.cur.kind != tokRParen {
		return 0, &SyntaxError{Pos: p.cur.pos, Msg: "expected ')'"}
	}
	p.next()

	if fn.arity != Variadic && len(args) != fn.arity {
		return 0, &SyntaxError{
			Pos: pos,
			Msg: fmt.Sprintf("%s: %v: want %d, got %d", name, ErrArity, fn.arity, len(args)),
		}
	}
	v, err := fn.fn(args)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	return v, nil
}

// factorial extends n! to real arguments as Γ(n+1). Negative integers
// give NaN.
func factorial(v float64) float64 {
	if v == math.Trunc(v) && v >= 0 && v <= 170 {
		r := 1.0
		for i := 2.0; i <= v; i++ {
			r *= i
		}
		return r
	}
	if v < 0 && v == math.Trunc(v) {
		return math.NaN()
	}
	return math.Gamma(v + 1)
}
