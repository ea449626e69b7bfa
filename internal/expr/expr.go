// Package expr evaluates the arithmetic expressions used by algebraic
// aspects. Only numbers, {name} variables, + - * / %, unary signs and
// parentheses are accepted.
package expr

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrSyntax          = errors.New("expr: syntax error")
	ErrUnknownVariable = errors.New("expr: unknown variable")
	ErrDivisionByZero  = errors.New("expr: division by zero")
)

type tokenKind int

const (
	tokNumber tokenKind = iota
	tokVar
	tokOp
	tokLParen
	tokRParen
	tokEOF
)

type token struct {
	kind tokenKind
	text string
	num  float64
	pos  int
}

func tokenize(src string) ([]token, error) {
	var out []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '(':
			out = append(out, token{kind: tokLParen, text: "(", pos: i})
			i++
		case c == ')':
			out = append(out, token{kind: tokRParen, text: ")", pos: i})
			i++
		case strings.IndexByte("+-*/%", c) >= 0:
			out = append(out, token{kind: tokOp, text: string(c), pos: i})
			i++
		case c == '$' || c == '{':
			start := i
			if c == '$' {
				i++
				if i >= len(src) || src[i] != '{' {
					return nil, fmt.Errorf("%w: '$' not followed by '{' at %d", ErrSyntax, start)
				}
			}
			end := strings.IndexByte(src[i:], '}')
			if end < 0 {
				return nil, fmt.Errorf("%w: unterminated variable at %d", ErrSyntax, start)
			}
			name := strings.TrimSpace(src[i+1 : i+end])
			if name == "" {
				return nil, fmt.Errorf("%w: empty variable at %d", ErrSyntax, start)
			}
			out = append(out, token{kind: tokVar, text: name, pos: start})
			i += end + 1
		case (c >= '0' && c <= '9') || c == '.':
			start := i
			for i < len(src) && ((src[i] >= '0' && src[i] <= '9') || src[i] == '.') {
				i++
			}
			// Exponent, e.g. 1e-3.
			if i < len(src) && (src[i] == 'e' || src[i] == 'E') {
				j := i + 1
				if j < len(src) && (src[j] == '+' || src[j] == '-') {
					j++
				}
				if j < len(src) && src[j] >= '0' && src[j] <= '9' {
					for j < len(src) && src[j] >= '0' && src[j] <= '9' {
						j++
					}
					i = j
				}
			}
			v, err := strconv.ParseFloat(src[start:i], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: bad number %q at %d", ErrSyntax, src[start:i], start)
			}
			out = append(out, token{kind: tokNumber, text: src[start:i], num: v, pos: start})
		default:
			return nil, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, c, i)
		}
	}
	out = append(out, token{kind: tokEOF, pos: len(src)})
	return out, nil
}

type parser struct {
	toks []token
	pos  int
	vars map[string]float64
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

// expr := term (('+' | '-') term)*
func (p *parser) expr() (float64, error) {
	left, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "+" && t.text != "-") {
			return left, nil
		}
		p.next()
		right, err := p.term()
		if err != nil {
			return 0, err
		}
		if t.text == "+" {
			left += right
		} else {
			left -= right
		}
	}
}

// term := unary (('*' | '/' | '%') unary)*
func (p *parser) term() (float64, error) {
	left, err := p.unary()
	if err != nil {
		return 0, err
	}
	for {
		t := p.peek()
		if t.kind != tokOp || (t.text != "*" && t.text != "/" && t.text != "%") {
			return left, nil
		}
		p.next()
		right, err := p.unary()
		if err != nil {
			return 0, err
		}
		switch t.text {
		case "*":
			left *= right
		case "/":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left /= right
		case "%":
			if right == 0 {
				return 0, ErrDivisionByZero
			}
			left = floorMod(left, right)
		}
	}
}

// unary := ('+' | '-') unary | primary
func (p *parser) unary() (float64, error) {
	t := p.peek()
	if t.kind == tokOp && (t.text == "+" || t.text == "-") {
		p.next()
		v, err := p.unary()
		if err != nil {
			return 0, err
		}
		if t.text == "-" {
			return -v, nil
		}
		return v, nil
	}
	return p.primary()
}

// primary := number | variable | '(' expr ')'
func (p *parser) primary() (float64, error) {
	t := p.next()
	switch t.kind {
	case tokNumber:
		return t.num, nil
	case tokVar:
		v, ok := p.vars[t.text]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrUnknownVariable, t.text)
		}
		return v, nil
	case tokLParen:
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		if p.next().kind != tokRParen {
			return 0, fmt.Errorf("%w: missing ')' for '(' at %d", ErrSyntax, t.pos)
		}
		return v, nil
	case tokEOF:
		return 0, fmt.Errorf("%w: unexpected end of expression", ErrSyntax)
	default:
		return 0, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
}

// floorMod takes the sign of the divisor, so -7 % 3 == 2.
func floorMod(a, b float64) float64 {
	m := math.Mod(a, b)
	if m != 0 && (m < 0) != (b < 0) {
		m += b
	}
	return m
}

// Eval evaluates src with the given variable values.
func Eval(src string, vars map[string]float64) (float64, error) {
	toks, err := tokenize(src)
	if err != nil {
		return 0, err
	}
	p := &parser{toks: toks, vars: vars}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return 0, fmt.Errorf("%w: unexpected %q at %d", ErrSyntax, t.text, t.pos)
	}
	return v, nil
}

// Substitute replaces each {name} (or ${name}) placeholder in src with the
// text produced by format. It is used to record the equation actually
// evaluated for an image.
func Substitute(src string, format func(name string) string) string {
	var b strings.Builder
	i := 0
	for i < len(src) {
		start := i
		if src[i] == '$' && i+1 < len(src) && src[i+1] == '{' {
			i++
		}
		if src[i] == '{' {
			if end := strings.IndexByte(src[i:], '}'); end >= 0 {
				b.WriteString(format(strings.TrimSpace(src[i+1 : i+end])))
				i += end + 1
				continue
			}
		}
		b.WriteString(src[start : i+1])
		i++
	}
	return b.String()
}
