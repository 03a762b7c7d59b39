package symbolic

import (
	"fmt"
	"strings"
)

// Operator precedence levels for parenthesization.
const (
	precAdd  = 1
	precMul  = 2
	precPow  = 3
	precAtom = 4
)

// Render produces the canonical textual form of an expression. Rendering
// is deterministic and round-trips through Parse: term and factor order
// is preserved exactly as constructed.
//
// The notation follows the classic CAS style: ** for powers, ln for the
// natural logarithm, Derivative(u, x) for unevaluated markers.
func Render(e Expr) string {
	return render(e, precAdd)
}

func render(e Expr, parent int) string {
	var s string
	prec := precedence(e)
	switch v := e.(type) {
	case *Number:
		if v.IsInt() {
			s = fmt.Sprintf("%d", v.N)
		} else {
			s = fmt.Sprintf("%d/%d", v.N, v.D)
			prec = precMul
		}
	case *Symbol:
		s = v.Name
	case *Add:
		var b strings.Builder
		for i, t := range v.Terms {
			part := render(t, precAdd+1)
			if i == 0 {
				b.WriteString(part)
			} else if strings.HasPrefix(part, "-") {
				b.WriteString(" - ")
				b.WriteString(part[1:])
			} else {
				b.WriteString(" + ")
				b.WriteString(part)
			}
		}
		s = b.String()
	case *Mul:
		s = renderMul(v)
	case *Pow:
		// A standalone negative power reads as a reciprocal: 1/x**2,
		// not x**(-2). The form contains a division, so it takes
		// product precedence.
		if en, ok := v.Exp.(*Number); ok && en.N < 0 {
			inv := &Pow{Base: v.Base, Exp: NewNumber(-en.N, en.D)}
			if IsOne(inv.Exp) {
				s = "1/" + render(v.Base, precMul+1)
			} else {
				s = "1/" + render(inv, precMul+1)
			}
			prec = precMul
		} else {
			s = renderPow(v)
		}
	case *Call:
		fn := v.Fn
		if fn == "log" {
			fn = "ln"
		}
		args := make([]string, len(v.Args))
		for i, a := range v.Args {
			args[i] = render(a, precAdd)
		}
		s = fn + "(" + strings.Join(args, ", ") + ")"
	case *Derivative:
		if v.Order > 1 {
			s = fmt.Sprintf("Derivative(%s, (%s, %d))", render(v.Body, precAdd), v.Var, v.Order)
		} else {
			s = fmt.Sprintf("Derivative(%s, %s)", render(v.Body, precAdd), v.Var)
		}
	default:
		s = fmt.Sprintf("<unknown %T>", e)
	}

	if prec < parent || parent == precPow && strings.HasPrefix(s, "-") {
		return "(" + s + ")"
	}
	return s
}

// renderMul writes a product, folding a leading -1 into a sign and
// rendering negative-exponent powers as division for readability.
func renderMul(m *Mul) string {
	factors := m.Factors
	sign := ""
	if n, ok := factors[0].(*Number); ok && n.N == -1 && n.D == 1 && len(factors) > 1 {
		sign = "-"
		factors = factors[1:]
	}

	var num, den []string
	for _, f := range factors {
		if p, ok := f.(*Pow); ok {
			if e, ok := p.Exp.(*Number); ok && e.N < 0 {
				inv := &Pow{Base: p.Base, Exp: NewNumber(-e.N, e.D)}
				var part string
				if en, okn := inv.Exp.(*Number); okn && en.IsOne() {
					part = render(p.Base, precMul+1)
				} else {
					part = render(inv, precMul+1)
				}
				den = append(den, part)
				continue
			}
		}
		num = append(num, render(f, precMul+1))
	}

	var s string
	switch {
	case len(num) == 0:
		s = "1"
	default:
		s = strings.Join(num, "*")
	}
	if len(den) > 0 {
		d := strings.Join(den, "*")
		if len(den) > 1 {
			d = "(" + d + ")"
		}
		s = s + "/" + d
	}
	return sign + s
}

func renderPow(p *Pow) string {
	base := render(p.Base, precPow)
	// A composite base always needs parens: (x + 1)**2, (2*x)**3.
	switch p.Base.(type) {
	case *Add, *Mul, *Pow, *Derivative:
		if !strings.HasPrefix(base, "(") {
			base = "(" + base + ")"
		}
	case *Number:
		if strings.ContainsAny(base, "-/") {
			base = "(" + base + ")"
		}
	}
	exp := render(p.Exp, precPow)
	switch p.Exp.(type) {
	case *Add, *Mul, *Pow:
		if !strings.HasPrefix(exp, "(") {
			exp = "(" + exp + ")"
		}
	case *Number:
		if strings.ContainsAny(exp, "-/") {
			exp = "(" + exp + ")"
		}
	}
	return base + "**" + exp
}

func precedence(e Expr) int {
	switch e.(type) {
	case *Add:
		return precAdd
	case *Mul:
		return precMul
	case *Pow:
		return precPow
	default:
		return precAtom
	}
}
