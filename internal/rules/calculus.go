package rules

import (
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
)

// Rule priorities. Specific forms outrank structural decompositions,
// which outrank the catch-all evaluation fallback.
const (
	prioExpandHigherOrder = 150
	prioDirect            = 100
	prioConstantMultiple  = 95
	prioSum               = 90
	prioPowerChain        = 85
	prioProductQuotient   = 80
	prioSimplifyResult    = 10
	prioFallback          = -100
)

func deriv(body symbolic.Expr, variable string) symbolic.Expr {
	return &symbolic.Derivative{Body: body, Var: variable, Order: 1}
}

// isConstant reports whether e does not depend on the variable.
func isConstant(e symbolic.Expr, variable string) bool {
	return !symbolic.ContainsSymbol(e, variable)
}

func expandHigherOrderRule() *markerRule {
	return &markerRule{
		name:     "expand_higher_order",
		priority: prioExpandHigherOrder,
		pattern: func(d *symbolic.Derivative) bool {
			return d.Order > 1
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			inner := deriv(d.Body, d.Var)
			return &symbolic.Derivative{Body: inner, Var: d.Var, Order: d.Order - 1}
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			return explanation{
				concise: fmt.Sprintf("Rewrite the order-%d derivative as a repeated first derivative", d.Order),
				detailed: fmt.Sprintf(
					"The derivative of order %d with respect to %s is the derivative of order %d applied to the first derivative. Differentiating one order at a time keeps each step elementary.",
					d.Order, d.Var, d.Order-1),
				teacher: fmt.Sprintf(
					"A %d-th derivative is just differentiating %d times in a row. We peel off one derivative, work it out, and repeat.",
					d.Order, d.Order),
			}
		},
	}
}

func diffConstantRule() *markerRule {
	return &markerRule{
		name:     "diff_constant",
		priority: prioDirect,
		pattern: func(d *symbolic.Derivative) bool {
			return firstOrder(d) && isConstant(d.Body, d.Var)
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			return symbolic.Int(0)
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			body := symbolic.Render(d.Body)
			return explanation{
				concise: fmt.Sprintf("The derivative of the constant %s is 0", body),
				detailed: fmt.Sprintf(
					"%s does not depend on %s, so its rate of change with respect to %s is zero.",
					body, d.Var, d.Var),
				teacher: fmt.Sprintf(
					"%s never changes as %s changes, and the derivative measures change. No change means the derivative is 0.",
					body, d.Var),
			}
		},
	}
}

func diffIdentityRule() *markerRule {
	return &markerRule{
		name:     "diff_identity",
		priority: prioDirect,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			s, ok := d.Body.(*symbolic.Symbol)
			return ok && s.Name == d.Var
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			return symbolic.Int(1)
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			return explanation{
				concise: fmt.Sprintf("The derivative of %s with respect to itself is 1", d.Var),
				detailed: fmt.Sprintf(
					"d/d%s %s = 1: the variable changes at exactly the rate of itself.",
					d.Var, d.Var),
				teacher: fmt.Sprintf(
					"How fast does %s change as %s changes? One for one. The derivative is 1.",
					d.Var, d.Var),
			}
		},
	}
}

// splitConstantFactors partitions a product's factors into those free
// of the variable and those depending on it.
func splitConstantFactors(m *symbolic.Mul, variable string) (constant, dependent []symbolic.Expr) {
	for _, f := range m.Factors {
		if isConstant(f, variable) {
			constant = append(constant, f)
		} else {
			dependent = append(dependent, f)
		}
	}
	return constant, dependent
}

// trivialConstant reports whether the constant factors multiply to the
// literal 1, in which case factoring them out would be a no-op step.
func trivialConstant(constant []symbolic.Expr) bool {
	prod := symbolic.Int(1)
	for _, c := range constant {
		n, ok := c.(*symbolic.Number)
		if !ok {
			return false
		}
		prod = symbolic.MulNumbers(prod, n)
	}
	return prod.IsOne()
}

func constantMultipleRule() *markerRule {
	return &markerRule{
		name:     "constant_multiple",
		priority: prioConstantMultiple,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			m, ok := d.Body.(*symbolic.Mul)
			if !ok {
				return false
			}
			constant, dependent := splitConstantFactors(m, d.Var)
			return len(constant) > 0 && len(dependent) > 0 && !trivialConstant(constant)
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			m := d.Body.(*symbolic.Mul)
			constant, dependent := splitConstantFactors(m, d.Var)
			rest := mulOf(dependent)
			factors := append(append([]symbolic.Expr{}, constant...), deriv(rest, d.Var))
			return &symbolic.Mul{Factors: factors}
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			m := d.Body.(*symbolic.Mul)
			constant, dependent := splitConstantFactors(m, d.Var)
			c := symbolic.Render(mulOf(constant))
			u := symbolic.Render(mulOf(dependent))
			return explanation{
				concise: fmt.Sprintf("Factor the constant %s out of the derivative", c),
				detailed: fmt.Sprintf(
					"d/d%s [%s * %s] = %s * d/d%s [%s]: constant factors pass through differentiation.",
					d.Var, c, u, c, d.Var, u),
				teacher: fmt.Sprintf(
					"%s is just a constant multiplier here, so we can set it aside, differentiate %s, and multiply the %s back in at the end.",
					c, u, c),
			}
		},
	}
}

func sumRule() *markerRule {
	return &markerRule{
		name:     "sum_rule",
		priority: prioSum,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			_, ok := d.Body.(*symbolic.Add)
			return ok
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			add := d.Body.(*symbolic.Add)
			terms := make([]symbolic.Expr, len(add.Terms))
			for i, t := range add.Terms {
				terms[i] = deriv(t, d.Var)
			}
			return &symbolic.Add{Terms: terms}
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			n := len(d.Body.(*symbolic.Add).Terms)
			return explanation{
				concise: "Apply the sum rule: differentiate each term separately",
				detailed: fmt.Sprintf(
					"The derivative of a sum is the sum of the derivatives, so the %d terms can be differentiated independently.", n),
				teacher: fmt.Sprintf(
					"Differentiation distributes over addition. We split the sum into its %d terms and handle each one on its own.", n),
			}
		},
	}
}

func powerRule() *markerRule {
	return &markerRule{
		name:     "power_rule",
		priority: prioPowerChain,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			p, ok := d.Body.(*symbolic.Pow)
			return ok && isConstant(p.Exp, d.Var) && !isConstant(p.Base, d.Var)
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			p := d.Body.(*symbolic.Pow)
			newExp := &symbolic.Add{Terms: []symbolic.Expr{p.Exp, symbolic.Int(-1)}}
			factors := []symbolic.Expr{p.Exp, &symbolic.Pow{Base: p.Base, Exp: newExp}}
			if !isVariable(p.Base, d.Var) {
				factors = append(factors, deriv(p.Base, d.Var))
			}
			return &symbolic.Mul{Factors: factors}
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			p := d.Body.(*symbolic.Pow)
			base := symbolic.Render(p.Base)
			exp := symbolic.Render(p.Exp)
			ex := explanation{
				concise: fmt.Sprintf("Apply the power rule to %s**%s", base, exp),
				detailed: fmt.Sprintf(
					"d/d%s u**n = n * u**(n-1) * du/d%s with u = %s and n = %s.",
					d.Var, d.Var, base, exp),
				teacher: fmt.Sprintf(
					"The power rule: bring the exponent %s down as a factor and lower the power by one.", exp),
			}
			if !isVariable(p.Base, d.Var) {
				ex.teacher += fmt.Sprintf(" Because the base %s is itself a function of %s, the chain rule adds a factor of its derivative.", base, d.Var)
			}
			return ex
		},
	}
}

// chainRuleFunctions are the unary functions with dedicated chain
// rules. Functions outside this list are handled by the evaluation
// fallback.
var chainRuleFunctions = []string{
	"sin", "cos", "tan", "exp", "log", "sqrt",
	"asin", "atan", "sinh", "cosh", "tanh",
}

func chainRule(fn string) *markerRule {
	display := fn
	if fn == "log" {
		display = "ln"
	}
	return &markerRule{
		name:     "chain_rule_" + fn,
		priority: prioPowerChain,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			c, ok := d.Body.(*symbolic.Call)
			return ok && c.Fn == fn && len(c.Args) == 1 && !isConstant(c.Args[0], d.Var)
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			c := d.Body.(*symbolic.Call)
			u := c.Args[0]
			outer, _ := symbolic.OuterDerivative(fn, u)
			if isVariable(u, d.Var) {
				return outer
			}
			return &symbolic.Mul{Factors: []symbolic.Expr{outer, deriv(u, d.Var)}}
		},
		explain: func(d *symbolic.Derivative, out symbolic.Expr) explanation {
			c := d.Body.(*symbolic.Call)
			u := symbolic.Render(c.Args[0])
			if isVariable(c.Args[0], d.Var) {
				return explanation{
					concise: fmt.Sprintf("Differentiate %s(%s) directly", display, u),
					detailed: fmt.Sprintf(
						"d/d%s %s(%s) = %s.", d.Var, display, u, symbolic.Render(out)),
					teacher: fmt.Sprintf(
						"This is a standard derivative worth memorizing: the derivative of %s(%s) is %s.",
						display, u, symbolic.Render(out)),
				}
			}
			return explanation{
				concise: fmt.Sprintf("Apply the chain rule to %s(%s)", display, u),
				detailed: fmt.Sprintf(
					"With the inner function u = %s, d/d%s %s(u) is the outer derivative times du/d%s.",
					u, d.Var, display, d.Var),
				teacher: fmt.Sprintf(
					"%s(%s) is a function of a function. The chain rule says: differentiate the outside leaving the inside alone, then multiply by the derivative of the inside (%s).",
					display, u, u),
			}
		},
	}
}

// splitQuotient partitions a product into numerator factors and
// denominator factors, inverting the negative exponents. The second
// return is nil when nothing is in the denominator.
func splitQuotient(m *symbolic.Mul) (num []symbolic.Expr, den []symbolic.Expr) {
	for _, f := range m.Factors {
		if p, ok := f.(*symbolic.Pow); ok {
			if n, ok := p.Exp.(*symbolic.Number); ok && n.N < 0 {
				inverted := symbolic.NewNumber(-n.N, n.D)
				if inverted.IsOne() {
					den = append(den, p.Base)
				} else {
					den = append(den, &symbolic.Pow{Base: p.Base, Exp: inverted})
				}
				continue
			}
		}
		num = append(num, f)
	}
	return num, den
}

func mulOf(factors []symbolic.Expr) symbolic.Expr {
	switch len(factors) {
	case 0:
		return symbolic.Int(1)
	case 1:
		return factors[0]
	default:
		return &symbolic.Mul{Factors: factors}
	}
}

func quotientRule() *markerRule {
	dependentDenominator := func(d *symbolic.Derivative) ([]symbolic.Expr, []symbolic.Expr, bool) {
		m, ok := d.Body.(*symbolic.Mul)
		if !ok {
			return nil, nil, false
		}
		num, den := splitQuotient(m)
		if len(den) == 0 || isConstant(mulOf(den), d.Var) {
			return nil, nil, false
		}
		return num, den, true
	}
	return &markerRule{
		name:     "quotient_rule",
		priority: prioProductQuotient,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			_, _, ok := dependentDenominator(d)
			return ok
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			num, den, _ := dependentDenominator(d)
			u := mulOf(num)
			v := mulOf(den)
			top := &symbolic.Add{Terms: []symbolic.Expr{
				&symbolic.Mul{Factors: []symbolic.Expr{deriv(u, d.Var), v}},
				&symbolic.Mul{Factors: []symbolic.Expr{symbolic.Int(-1), u, deriv(v, d.Var)}},
			}}
			return &symbolic.Mul{Factors: []symbolic.Expr{
				top,
				&symbolic.Pow{Base: v, Exp: symbolic.Int(-2)},
			}}
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			num, den, _ := dependentDenominator(d)
			u := symbolic.Render(mulOf(num))
			v := symbolic.Render(mulOf(den))
			return explanation{
				concise: fmt.Sprintf("Apply the quotient rule to %s over %s", u, v),
				detailed: fmt.Sprintf(
					"d/d%s (u/v) = (u'v - uv') / v**2 with u = %s and v = %s.",
					d.Var, u, v),
				teacher: fmt.Sprintf(
					"This is a quotient: top %s, bottom %s. The quotient rule is \"low d-high minus high d-low, over low squared\".",
					u, v),
			}
		},
	}
}

func productRule() *markerRule {
	return &markerRule{
		name:     "product_rule",
		priority: prioProductQuotient,
		pattern: func(d *symbolic.Derivative) bool {
			if !firstOrder(d) {
				return false
			}
			m, ok := d.Body.(*symbolic.Mul)
			if !ok {
				return false
			}
			_, dependent := splitConstantFactors(m, d.Var)
			return len(dependent) >= 2
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			m := d.Body.(*symbolic.Mul)
			_, dependent := splitConstantFactors(m, d.Var)
			u := dependent[0]
			v := mulOf(dependent[1:])
			return &symbolic.Add{Terms: []symbolic.Expr{
				&symbolic.Mul{Factors: []symbolic.Expr{deriv(u, d.Var), v}},
				&symbolic.Mul{Factors: []symbolic.Expr{u, deriv(v, d.Var)}},
			}}
		},
		explain: func(d *symbolic.Derivative, _ symbolic.Expr) explanation {
			m := d.Body.(*symbolic.Mul)
			_, dependent := splitConstantFactors(m, d.Var)
			u := symbolic.Render(dependent[0])
			v := symbolic.Render(mulOf(dependent[1:]))
			return explanation{
				concise: fmt.Sprintf("Apply the product rule to %s times %s", u, v),
				detailed: fmt.Sprintf(
					"d/d%s (uv) = u'v + uv' with u = %s and v = %s.",
					d.Var, u, v),
				teacher: fmt.Sprintf(
					"Two functions of %s are multiplied. The product rule: differentiate the first (%s) and keep the second, then keep the first and differentiate the second (%s), and add.",
					d.Var, u, v),
			}
		},
	}
}

func fallbackRule() *markerRule {
	return &markerRule{
		name:     "evaluate_derivative_fallback",
		priority: prioFallback,
		pattern: func(d *symbolic.Derivative) bool {
			return true
		},
		rewrite: func(d *symbolic.Derivative) symbolic.Expr {
			return symbolic.EvalDerivatives(d, "")
		},
		explain: func(d *symbolic.Derivative, out symbolic.Expr) explanation {
			body := symbolic.Render(d.Body)
			return explanation{
				concise: fmt.Sprintf("Evaluate the derivative of %s directly", body),
				detailed: fmt.Sprintf(
					"No decomposition rule matches %s, so the derivative is evaluated in full: %s.",
					body, symbolic.Render(out)),
				teacher: fmt.Sprintf(
					"This one does not fit a named rule, so we compute the derivative of %s outright and get %s.",
					body, symbolic.Render(out)),
			}
		},
	}
}

func isVariable(e symbolic.Expr, variable string) bool {
	s, ok := e.(*symbolic.Symbol)
	return ok && s.Name == variable
}
