package symbolic

import "fmt"

// Diff differentiates e with respect to variable once. The result is
// structurally correct but unsimplified; callers run Simplify on it.
// Unknown function calls are differentiated by wrapping them back into
// a derivative marker so the caller can see the residual.
func Diff(e Expr, variable string) Expr {
	switch v := e.(type) {
	case *Number:
		return Int(0)
	case *Symbol:
		if v.Name == variable {
			return Int(1)
		}
		return Int(0)
	case *Add:
		terms := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = Diff(t, variable)
		}
		return &Add{Terms: terms}
	case *Mul:
		return diffProduct(v.Factors, variable)
	case *Pow:
		return diffPower(v, variable)
	case *Call:
		return diffCall(v, variable)
	case *Derivative:
		inner := EvalDerivatives(v, variable)
		return Diff(inner, variable)
	}
	panic(fmt.Sprintf("symbolic: diff of unknown node %T", e))
}

// EvalDerivatives evaluates every derivative marker in e, innermost
// first, applying each marker's own variable and order. The fallback
// path uses this to finish whatever the decomposed rules left behind.
func EvalDerivatives(e Expr, _ string) Expr {
	switch v := e.(type) {
	case *Number, *Symbol:
		return e
	case *Add:
		terms := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = EvalDerivatives(t, "")
		}
		return &Add{Terms: terms}
	case *Mul:
		factors := make([]Expr, len(v.Factors))
		for i, f := range v.Factors {
			factors[i] = EvalDerivatives(f, "")
		}
		return &Mul{Factors: factors}
	case *Pow:
		return &Pow{Base: EvalDerivatives(v.Base, ""), Exp: EvalDerivatives(v.Exp, "")}
	case *Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = EvalDerivatives(a, "")
		}
		return &Call{Fn: v.Fn, Args: args}
	case *Derivative:
		body := EvalDerivatives(v.Body, "")
		for i := 0; i < v.Order; i++ {
			body = Simplify(Diff(body, v.Var))
		}
		return body
	}
	panic(fmt.Sprintf("symbolic: eval of unknown node %T", e))
}

// diffProduct applies the general Leibniz product rule over n factors:
// sum over i of f_i' * product of the remaining factors.
func diffProduct(factors []Expr, variable string) Expr {
	terms := make([]Expr, 0, len(factors))
	for i := range factors {
		parts := make([]Expr, 0, len(factors))
		for j, f := range factors {
			if i == j {
				parts = append(parts, Diff(f, variable))
			} else {
				parts = append(parts, f)
			}
		}
		terms = append(terms, &Mul{Factors: parts})
	}
	if len(terms) == 1 {
		return terms[0]
	}
	return &Add{Terms: terms}
}

func diffPower(p *Pow, variable string) Expr {
	baseDep := ContainsSymbol(p.Base, variable)
	expDep := ContainsSymbol(p.Exp, variable)
	switch {
	case !baseDep && !expDep:
		return Int(0)
	case baseDep && !expDep:
		// d/dx u**n = n * u**(n-1) * u'
		return &Mul{Factors: []Expr{
			p.Exp,
			&Pow{Base: p.Base, Exp: &Add{Terms: []Expr{p.Exp, Int(-1)}}},
			Diff(p.Base, variable),
		}}
	case !baseDep && expDep:
		// d/dx a**u = a**u * ln(a) * u'
		return &Mul{Factors: []Expr{
			p,
			&Call{Fn: "log", Args: []Expr{p.Base}},
			Diff(p.Exp, variable),
		}}
	default:
		// u**v = exp(v*ln(u)); differentiate the exponential form.
		return &Mul{Factors: []Expr{
			p,
			Diff(&Mul{Factors: []Expr{p.Exp, &Call{Fn: "log", Args: []Expr{p.Base}}}}, variable),
		}}
	}
}

// OuterDerivative returns d/du f(u) for a known unary function, with u
// substituted in. The second return is false for functions without a
// closed-form entry.
func OuterDerivative(fn string, u Expr) (Expr, bool) {
	switch fn {
	case "sin":
		return &Call{Fn: "cos", Args: []Expr{u}}, true
	case "cos":
		return &Mul{Factors: []Expr{Int(-1), &Call{Fn: "sin", Args: []Expr{u}}}}, true
	case "tan":
		return &Pow{Base: &Call{Fn: "sec", Args: []Expr{u}}, Exp: Int(2)}, true
	case "sec":
		return &Mul{Factors: []Expr{
			&Call{Fn: "sec", Args: []Expr{u}},
			&Call{Fn: "tan", Args: []Expr{u}},
		}}, true
	case "csc":
		return &Mul{Factors: []Expr{
			Int(-1),
			&Call{Fn: "csc", Args: []Expr{u}},
			&Call{Fn: "cot", Args: []Expr{u}},
		}}, true
	case "cot":
		return &Mul{Factors: []Expr{
			Int(-1),
			&Pow{Base: &Call{Fn: "csc", Args: []Expr{u}}, Exp: Int(2)},
		}}, true
	case "exp":
		return &Call{Fn: "exp", Args: []Expr{u}}, true
	case "log":
		return &Pow{Base: u, Exp: Int(-1)}, true
	case "sqrt":
		return &Mul{Factors: []Expr{
			NewNumber(1, 2),
			&Pow{Base: &Call{Fn: "sqrt", Args: []Expr{u}}, Exp: Int(-1)},
		}}, true
	case "asin":
		return &Pow{
			Base: &Add{Terms: []Expr{Int(1), &Mul{Factors: []Expr{Int(-1), &Pow{Base: u, Exp: Int(2)}}}}},
			Exp:  NewNumber(-1, 2),
		}, true
	case "acos":
		return &Mul{Factors: []Expr{
			Int(-1),
			&Pow{
				Base: &Add{Terms: []Expr{Int(1), &Mul{Factors: []Expr{Int(-1), &Pow{Base: u, Exp: Int(2)}}}}},
				Exp:  NewNumber(-1, 2),
			},
		}}, true
	case "atan":
		return &Pow{
			Base: &Add{Terms: []Expr{Int(1), &Pow{Base: u, Exp: Int(2)}}},
			Exp:  Int(-1),
		}, true
	case "sinh":
		return &Call{Fn: "cosh", Args: []Expr{u}}, true
	case "cosh":
		return &Call{Fn: "sinh", Args: []Expr{u}}, true
	case "tanh":
		return &Add{Terms: []Expr{
			Int(1),
			&Mul{Factors: []Expr{Int(-1), &Pow{Base: &Call{Fn: "tanh", Args: []Expr{u}}, Exp: Int(2)}}},
		}}, true
	}
	return nil, false
}

func diffCall(c *Call, variable string) Expr {
	if len(c.Args) != 1 {
		// No multi-argument functions have derivative entries; leave a
		// marker so callers can surface the residual.
		return &Derivative{Body: c, Var: variable, Order: 1}
	}
	u := c.Args[0]
	outer, ok := OuterDerivative(c.Fn, u)
	if !ok {
		return &Derivative{Body: c, Var: variable, Order: 1}
	}
	return &Mul{Factors: []Expr{outer, Diff(u, variable)}}
}
