package symbolic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
)

// Input limits form the trust boundary between user text and the parser.
// Oversized or out-of-charset input is rejected before tokenization.
const (
	MaxExpressionLength = 500
	MaxVariableLength   = 20
)

// Parse converts source text into an expression tree. Both ** and ^
// denote exponentiation; subtraction and division are normalized into
// Add/Mul form. Malformed input fails with *provider.ParseError.
func Parse(text string) (Expr, error) {
	if err := checkInput(text); err != nil {
		return nil, err
	}
	p := &parser{input: text, toks: nil}
	if err := p.lex(); err != nil {
		return nil, err
	}
	e, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.toks) {
		return nil, p.errorf(p.toks[p.pos].pos, "unexpected %q", p.toks[p.pos].text)
	}
	return e, nil
}

// CheckVariable validates a differentiation variable name.
func CheckVariable(name string) error {
	if name == "" {
		return &provider.ParseError{Input: name, Msg: "variable must be non-empty"}
	}
	if len(name) > MaxVariableLength {
		return &provider.ParseError{Input: name, Msg: fmt.Sprintf("variable longer than %d characters", MaxVariableLength)}
	}
	for i, r := range name {
		if r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || i > 0 && r >= '0' && r <= '9' {
			continue
		}
		return &provider.ParseError{Input: name, Pos: i, Msg: "variable must be an identifier"}
	}
	return nil
}

func checkInput(text string) error {
	if strings.TrimSpace(text) == "" {
		return &provider.ParseError{Input: text, Msg: "expression must be non-empty"}
	}
	if len(text) > MaxExpressionLength {
		return &provider.ParseError{Input: text, Msg: fmt.Sprintf("expression longer than %d characters", MaxExpressionLength)}
	}
	for i, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == ' ', r == '\t':
		case strings.ContainsRune("+-*/^().,_", r):
		default:
			return &provider.ParseError{Input: text, Pos: i, Msg: fmt.Sprintf("character %q is not allowed", r)}
		}
	}
	return nil
}

type tokKind int

const (
	tokNumber tokKind = iota + 1
	tokIdent
	tokOp     // + - * / ^ **
	tokLParen
	tokRParen
	tokComma
)

type token struct {
	kind tokKind
	text string
	pos  int
}

type parser struct {
	input string
	toks  []token
	pos   int
}

func (p *parser) errorf(pos int, format string, args ...any) error {
	return &provider.ParseError{Input: p.input, Pos: pos, Msg: fmt.Sprintf(format, args...)}
}

func (p *parser) lex() error {
	s := p.input
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c >= '0' && c <= '9' || c == '.':
			j := i
			dots := 0
			for j < len(s) && (s[j] >= '0' && s[j] <= '9' || s[j] == '.') {
				if s[j] == '.' {
					dots++
				}
				j++
			}
			if dots > 1 || s[i] == '.' && j == i+1 {
				return p.errorf(i, "malformed number %q", s[i:j])
			}
			p.toks = append(p.toks, token{tokNumber, s[i:j], i})
			i = j
		case c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z':
			j := i
			for j < len(s) && (s[j] == '_' || s[j] >= 'a' && s[j] <= 'z' || s[j] >= 'A' && s[j] <= 'Z' || s[j] >= '0' && s[j] <= '9') {
				j++
			}
			p.toks = append(p.toks, token{tokIdent, s[i:j], i})
			i = j
		case c == '*':
			if i+1 < len(s) && s[i+1] == '*' {
				p.toks = append(p.toks, token{tokOp, "**", i})
				i += 2
			} else {
				p.toks = append(p.toks, token{tokOp, "*", i})
				i++
			}
		case c == '+' || c == '-' || c == '/' || c == '^':
			p.toks = append(p.toks, token{tokOp, string(c), i})
			i++
		case c == '(':
			p.toks = append(p.toks, token{tokLParen, "(", i})
			i++
		case c == ')':
			p.toks = append(p.toks, token{tokRParen, ")", i})
			i++
		case c == ',':
			p.toks = append(p.toks, token{tokComma, ",", i})
			i++
		default:
			return p.errorf(i, "unexpected character %q", c)
		}
	}
	return nil
}

func (p *parser) peek() (token, bool) {
	if p.pos < len(p.toks) {
		return p.toks[p.pos], true
	}
	return token{}, false
}

func (p *parser) accept(kind tokKind, text string) bool {
	if t, ok := p.peek(); ok && t.kind == kind && (text == "" || t.text == text) {
		p.pos++
		return true
	}
	return false
}

func (p *parser) expect(kind tokKind, text string) (token, error) {
	if t, ok := p.peek(); ok && t.kind == kind && (text == "" || t.text == text) {
		p.pos++
		return t, nil
	}
	if t, ok := p.peek(); ok {
		return token{}, p.errorf(t.pos, "expected %q, found %q", text, t.text)
	}
	return token{}, p.errorf(len(p.input), "unexpected end of expression")
}

// parseExpr := term (('+'|'-') term)*
func (p *parser) parseExpr() (Expr, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	terms := []Expr{left}
	for {
		if p.accept(tokOp, "+") {
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, t)
		} else if p.accept(tokOp, "-") {
			t, err := p.parseTerm()
			if err != nil {
				return nil, err
			}
			terms = append(terms, negate(t))
		} else {
			break
		}
	}
	if len(terms) == 1 {
		return terms[0], nil
	}
	return &Add{Terms: terms}, nil
}

// parseTerm := unary (('*'|'/') unary)*
func (p *parser) parseTerm() (Expr, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	factors := []Expr{left}
	for {
		if p.accept(tokOp, "*") {
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			factors = append(factors, f)
		} else if p.accept(tokOp, "/") {
			f, err := p.parseUnary()
			if err != nil {
				return nil, err
			}
			if n, ok := f.(*Number); ok {
				if n.IsZero() {
					return nil, p.errorf(0, "division by zero")
				}
				factors = append(factors, NewNumber(n.D, n.N))
			} else {
				factors = append(factors, &Pow{Base: f, Exp: Int(-1)})
			}
		} else {
			break
		}
	}
	if len(factors) == 1 {
		return factors[0], nil
	}
	return &Mul{Factors: factors}, nil
}

// parseUnary := ('-'|'+') unary | power
func (p *parser) parseUnary() (Expr, error) {
	if p.accept(tokOp, "-") {
		e, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return negate(e), nil
	}
	if p.accept(tokOp, "+") {
		return p.parseUnary()
	}
	return p.parsePower()
}

// parsePower := atom (('**'|'^') unary)?   right-associative
func (p *parser) parsePower() (Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	if p.accept(tokOp, "**") || p.accept(tokOp, "^") {
		exp, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &Pow{Base: base, Exp: exp}, nil
	}
	return base, nil
}

func (p *parser) parseAtom() (Expr, error) {
	t, ok := p.peek()
	if !ok {
		return nil, p.errorf(len(p.input), "unexpected end of expression")
	}
	switch t.kind {
	case tokNumber:
		p.pos++
		return parseNumber(t.text)
	case tokIdent:
		p.pos++
		if t.text == "Derivative" {
			return p.parseDerivative(t.pos)
		}
		if next, ok := p.peek(); ok && next.kind == tokLParen {
			if t.text == "ln" {
				// ln is an alias for the natural logarithm.
				return p.parseCall("log")
			}
			if !knownFunctions[t.text] {
				return nil, p.errorf(t.pos, "unknown function %q", t.text)
			}
			return p.parseCall(t.text)
		}
		return &Symbol{Name: t.text}, nil
	case tokLParen:
		p.pos++
		e, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, p.errorf(t.pos, "unexpected %q", t.text)
	}
}

// parseCall parses the argument list of fn(...). All known functions are
// unary; extra arguments are rejected.
func (p *parser) parseCall(fn string) (Expr, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	arg, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	return &Call{Fn: fn, Args: []Expr{arg}}, nil
}

// parseDerivative parses Derivative(body, x) or Derivative(body, (x, n)).
// This is the textual form of the unevaluated derivative marker.
func (p *parser) parseDerivative(pos int) (Expr, error) {
	if _, err := p.expect(tokLParen, "("); err != nil {
		return nil, err
	}
	body, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(tokComma, ","); err != nil {
		return nil, err
	}

	variable := ""
	order := 1
	if p.accept(tokLParen, "(") {
		v, err := p.expect(tokIdent, "")
		if err != nil {
			return nil, err
		}
		variable = v.text
		if _, err := p.expect(tokComma, ","); err != nil {
			return nil, err
		}
		n, err := p.expect(tokNumber, "")
		if err != nil {
			return nil, err
		}
		ord, convErr := strconv.Atoi(n.text)
		if convErr != nil || ord < 1 {
			return nil, p.errorf(n.pos, "derivative order must be a positive integer")
		}
		order = ord
		if _, err := p.expect(tokRParen, ")"); err != nil {
			return nil, err
		}
	} else {
		v, err := p.expect(tokIdent, "")
		if err != nil {
			return nil, err
		}
		variable = v.text
	}
	if _, err := p.expect(tokRParen, ")"); err != nil {
		return nil, err
	}
	if err := CheckVariable(variable); err != nil {
		return nil, p.errorf(pos, "bad derivative variable %q", variable)
	}
	return &Derivative{Body: body, Var: variable, Order: order}, nil
}

// parseNumber converts an integer or decimal literal to an exact
// rational. 1.5 becomes 3/2; there is no floating point.
func parseNumber(text string) (Expr, error) {
	if i := strings.IndexByte(text, '.'); i >= 0 {
		whole, frac := text[:i], text[i+1:]
		n, err := strconv.ParseInt(whole+frac, 10, 64)
		if err != nil {
			return nil, &provider.ParseError{Input: text, Msg: "number out of range"}
		}
		d := int64(1)
		for range frac {
			var ok bool
			d, ok = mulInt64(d, 10)
			if !ok {
				return nil, &provider.ParseError{Input: text, Msg: "number out of range"}
			}
		}
		return NewNumber(n, d), nil
	}
	n, err := strconv.ParseInt(text, 10, 64)
	if err != nil {
		return nil, &provider.ParseError{Input: text, Msg: "number out of range"}
	}
	return Int(n), nil
}

// negate multiplies by -1, folding numbers directly.
func negate(e Expr) Expr {
	if n, ok := e.(*Number); ok {
		return NewNumber(-n.N, n.D)
	}
	if m, ok := e.(*Mul); ok {
		if n, ok := m.Factors[0].(*Number); ok {
			factors := append([]Expr{NewNumber(-n.N, n.D)}, m.Factors[1:]...)
			return &Mul{Factors: factors}
		}
	}
	return &Mul{Factors: []Expr{Int(-1), e}}
}
