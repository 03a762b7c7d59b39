package symbolic

// FirstDerivative returns the first unevaluated derivative marker in
// preorder (node before children, children left to right) that satisfies
// the predicate, or nil. Preorder makes rule targeting deterministic:
// every rule that rewrites "the first matching derivative" agrees on
// which one that is.
func FirstDerivative(e Expr, pred func(*Derivative) bool) *Derivative {
	switch v := e.(type) {
	case *Derivative:
		if pred(v) {
			return v
		}
		return FirstDerivative(v.Body, pred)
	case *Add:
		for _, t := range v.Terms {
			if d := FirstDerivative(t, pred); d != nil {
				return d
			}
		}
	case *Mul:
		for _, f := range v.Factors {
			if d := FirstDerivative(f, pred); d != nil {
				return d
			}
		}
	case *Pow:
		if d := FirstDerivative(v.Base, pred); d != nil {
			return d
		}
		return FirstDerivative(v.Exp, pred)
	case *Call:
		for _, a := range v.Args {
			if d := FirstDerivative(a, pred); d != nil {
				return d
			}
		}
	}
	return nil
}

// ReplaceNode rebuilds the tree with the pointer-identical target node
// substituted by replacement. Untouched subtrees are shared, not copied.
// If target does not occur, the original tree is returned unchanged.
func ReplaceNode(e, target, replacement Expr) Expr {
	if e == target {
		return replacement
	}
	switch v := e.(type) {
	case *Add:
		terms, changed := replaceInSlice(v.Terms, target, replacement)
		if changed {
			return &Add{Terms: terms}
		}
	case *Mul:
		factors, changed := replaceInSlice(v.Factors, target, replacement)
		if changed {
			return &Mul{Factors: factors}
		}
	case *Pow:
		base := ReplaceNode(v.Base, target, replacement)
		exp := ReplaceNode(v.Exp, target, replacement)
		if base != v.Base || exp != v.Exp {
			return &Pow{Base: base, Exp: exp}
		}
	case *Call:
		args, changed := replaceInSlice(v.Args, target, replacement)
		if changed {
			return &Call{Fn: v.Fn, Args: args}
		}
	case *Derivative:
		body := ReplaceNode(v.Body, target, replacement)
		if body != v.Body {
			return &Derivative{Body: body, Var: v.Var, Order: v.Order}
		}
	}
	return e
}

func replaceInSlice(in []Expr, target, replacement Expr) ([]Expr, bool) {
	changed := false
	out := make([]Expr, len(in))
	for i, e := range in {
		out[i] = ReplaceNode(e, target, replacement)
		if out[i] != e {
			changed = true
		}
	}
	if !changed {
		return in, false
	}
	return out, true
}
