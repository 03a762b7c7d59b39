package symbolic

import "sort"

// Simplify applies a bounded set of structural rewrites: constant
// folding, flattening of nested sums and products, identity removal,
// like-term collection and same-base power merging. It is deterministic
// and order-preserving: combined terms keep the position of their first
// appearance. It never expands products; see Expand for that.
func Simplify(e Expr) Expr {
	// Rewrites can cascade (folding a product may enable folding a sum
	// above it), so run to a fixed point with a small bound.
	for i := 0; i < 8; i++ {
		next := simplifyOnce(e)
		if Equal(next, e) {
			return next
		}
		e = next
	}
	return e
}

func simplifyOnce(e Expr) Expr {
	switch v := e.(type) {
	case *Number, *Symbol:
		return e
	case *Add:
		terms := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = simplifyOnce(t)
		}
		return simplifyAdd(terms)
	case *Mul:
		factors := make([]Expr, len(v.Factors))
		for i, f := range v.Factors {
			factors[i] = simplifyOnce(f)
		}
		return simplifyMul(factors)
	case *Pow:
		return simplifyPow(simplifyOnce(v.Base), simplifyOnce(v.Exp))
	case *Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = simplifyOnce(a)
		}
		return &Call{Fn: v.Fn, Args: args}
	case *Derivative:
		return &Derivative{Body: simplifyOnce(v.Body), Var: v.Var, Order: v.Order}
	}
	return e
}

// splitCoefficient separates a numeric coefficient from the rest of a
// term, so 3*x and x and 2*x all key on "x".
func splitCoefficient(e Expr) (*Number, Expr) {
	switch v := e.(type) {
	case *Number:
		return v, Int(1)
	case *Mul:
		num := Int(1)
		rest := make([]Expr, 0, len(v.Factors))
		for _, f := range v.Factors {
			if n, ok := f.(*Number); ok {
				num = mulNum(num, n)
			} else {
				rest = append(rest, f)
			}
		}
		switch len(rest) {
		case 0:
			return num, Int(1)
		case 1:
			return num, rest[0]
		default:
			return num, &Mul{Factors: rest}
		}
	default:
		return Int(1), e
	}
}

func simplifyAdd(terms []Expr) Expr {
	// Flatten nested sums first so collection sees every term.
	flat := make([]Expr, 0, len(terms))
	for _, t := range terms {
		if a, ok := t.(*Add); ok {
			flat = append(flat, a.Terms...)
		} else {
			flat = append(flat, t)
		}
	}

	type bucket struct {
		coef *Number
		body Expr
	}
	order := make([]string, 0, len(flat))
	buckets := make(map[string]*bucket, len(flat))
	constant := Int(0)
	for _, t := range flat {
		coef, body := splitCoefficient(t)
		if IsOne(body) {
			constant = addNum(constant, coef)
			continue
		}
		key := Render(body)
		b, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{coef: coef, body: body}
			order = append(order, key)
			continue
		}
		b.coef = addNum(b.coef, coef)
	}

	out := make([]Expr, 0, len(order)+1)
	for _, key := range order {
		b := buckets[key]
		switch {
		case IsZero(b.coef):
		case IsOne(b.coef):
			out = append(out, b.body)
		default:
			out = append(out, &Mul{Factors: []Expr{b.coef, b.body}})
		}
	}
	if !IsZero(constant) {
		out = append(out, constant)
	}

	switch len(out) {
	case 0:
		return Int(0)
	case 1:
		return out[0]
	default:
		return &Add{Terms: out}
	}
}

func factorRank(base Expr) int {
	if _, ok := base.(*Symbol); ok {
		return 0
	}
	return 1
}

// splitBase separates base and exponent so x and x**2 key together.
func splitBase(e Expr) (Expr, Expr) {
	if p, ok := e.(*Pow); ok {
		return p.Base, p.Exp
	}
	return e, Int(1)
}

func simplifyMul(factors []Expr) Expr {
	flat := make([]Expr, 0, len(factors))
	for _, f := range factors {
		if m, ok := f.(*Mul); ok {
			flat = append(flat, m.Factors...)
		} else {
			flat = append(flat, f)
		}
	}

	type bucket struct {
		base Expr
		exp  Expr
	}
	order := make([]string, 0, len(flat))
	buckets := make(map[string]*bucket, len(flat))
	coef := Int(1)
	for _, f := range flat {
		if n, ok := f.(*Number); ok {
			coef = mulNum(coef, n)
			continue
		}
		base, exp := splitBase(f)
		key := Render(base)
		b, ok := buckets[key]
		if !ok {
			buckets[key] = &bucket{base: base, exp: exp}
			order = append(order, key)
			continue
		}
		b.exp = simplifyOnce(&Add{Terms: []Expr{b.exp, exp}})
	}

	if IsZero(coef) {
		return Int(0)
	}

	// Factor order is canonical: symbol bases before function calls and
	// other composites, then by rendered base. This makes x*y and y*x
	// collapse to the same form, so like terms collect above.
	sort.SliceStable(order, func(i, j int) bool {
		ri, rj := factorRank(buckets[order[i]].base), factorRank(buckets[order[j]].base)
		if ri != rj {
			return ri < rj
		}
		return order[i] < order[j]
	})

	out := make([]Expr, 0, len(order)+1)
	if !IsOne(coef) {
		out = append(out, coef)
	}
	for _, key := range order {
		b := buckets[key]
		out = append(out, simplifyPow(b.base, b.exp))
	}

	switch len(out) {
	case 0:
		return Int(1)
	case 1:
		return out[0]
	default:
		if len(out) == 2 {
			if _, ok := out[0].(*Number); ok && IsOne(out[1]) {
				return out[0]
			}
		}
		return &Mul{Factors: out}
	}
}

func simplifyPow(base, exp Expr) Expr {
	if IsOne(exp) {
		return base
	}
	if IsZero(exp) {
		return Int(1)
	}
	if IsOne(base) {
		return Int(1)
	}
	if IsZero(base) {
		if n, ok := exp.(*Number); ok && n.N > 0 {
			return Int(0)
		}
	}
	// Fold integer powers of rationals while the result stays in range.
	if bn, ok := base.(*Number); ok {
		if en, ok := exp.(*Number); ok && en.IsInt() {
			if folded, ok := powNum(bn, en.N); ok {
				return folded
			}
		}
	}
	// (u**a)**b with numeric a, b collapses to u**(a*b).
	if inner, ok := base.(*Pow); ok {
		if a, aok := inner.Exp.(*Number); aok {
			if b, bok := exp.(*Number); bok {
				return simplifyPow(inner.Base, mulNum(a, b))
			}
		}
	}
	return &Pow{Base: base, Exp: exp}
}

// powNum raises a rational to an integer power, reporting false when
// the intermediate values would overflow int64.
func powNum(base *Number, exp int64) (*Number, bool) {
	if exp == 0 {
		return Int(1), true
	}
	neg := exp < 0
	if neg {
		if base.N == 0 {
			return nil, false
		}
		exp = -exp
	}
	n, d := int64(1), int64(1)
	for i := int64(0); i < exp; i++ {
		var ok bool
		n, ok = mulInt64(n, base.N)
		if !ok {
			return nil, false
		}
		d, ok = mulInt64(d, base.D)
		if !ok {
			return nil, false
		}
	}
	if neg {
		n, d = d, n
	}
	if d == 0 {
		return nil, false
	}
	return NewNumber(n, d), true
}

func mulInt64(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

// Expand distributes products over sums and expands small positive
// integer powers of sums, then simplifies the result. Powers above
// degree 12 are left alone to keep output readable.
func Expand(e Expr) Expr {
	return Simplify(expandOnce(e))
}

const maxExpandDegree = 12

func expandOnce(e Expr) Expr {
	switch v := e.(type) {
	case *Number, *Symbol:
		return e
	case *Add:
		terms := make([]Expr, len(v.Terms))
		for i, t := range v.Terms {
			terms[i] = expandOnce(t)
		}
		return &Add{Terms: terms}
	case *Mul:
		factors := make([]Expr, len(v.Factors))
		for i, f := range v.Factors {
			factors[i] = expandOnce(f)
		}
		return distribute(factors)
	case *Pow:
		base := expandOnce(v.Base)
		exp := expandOnce(v.Exp)
		if n, ok := exp.(*Number); ok && n.IsInt() && n.N >= 2 && n.N <= maxExpandDegree {
			if _, isAdd := base.(*Add); isAdd {
				factors := make([]Expr, n.N)
				for i := range factors {
					factors[i] = base
				}
				return distribute(factors)
			}
		}
		return &Pow{Base: base, Exp: exp}
	case *Call:
		args := make([]Expr, len(v.Args))
		for i, a := range v.Args {
			args[i] = expandOnce(a)
		}
		return &Call{Fn: v.Fn, Args: args}
	case *Derivative:
		return &Derivative{Body: expandOnce(v.Body), Var: v.Var, Order: v.Order}
	}
	return e
}

// distribute multiplies out factors pairwise, splitting on sums. Term
// order follows the left-to-right cross product, so output is stable.
func distribute(factors []Expr) Expr {
	acc := []Expr{Int(1)}
	for _, f := range factors {
		var parts []Expr
		if a, ok := f.(*Add); ok {
			parts = a.Terms
		} else {
			parts = []Expr{f}
		}
		next := make([]Expr, 0, len(acc)*len(parts))
		for _, left := range acc {
			for _, p := range parts {
				next = append(next, &Mul{Factors: []Expr{left, p}})
			}
		}
		acc = next
	}
	if len(acc) == 1 {
		return acc[0]
	}
	return &Add{Terms: acc}
}
