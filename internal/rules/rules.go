// Package rules holds the built-in rewrite rules: the step-by-step
// calculus set for differentiation plus the algebraic simplify and
// expand operations.
//
// Differentiation is decomposed pedagogically. A request wraps the
// input in an unevaluated Derivative(u, x) marker; each rule targets
// the first remaining marker in preorder and rewrites exactly one
// layer of it (sum rule, product rule, one chain-rule step). The final
// rule simplifies the expression once no markers remain. Because every
// rule is gated on markers or on simplification making progress, a
// fully reduced expression matches no rule and a rerun over it yields
// an empty step graph.
package rules

import (
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// Operation names understood by the built-in rule set.
const (
	OpDifferentiate = "differentiate"
	OpSimplify      = "simplify"
	OpExpand        = "expand"
)

// explanation carries the three verbosity variants of a step account.
type explanation struct {
	concise  string
	detailed string
	teacher  string
}

// markerRule is a differentiation rule keyed on the first unevaluated
// derivative marker: pattern inspects it, rewrite replaces it.
type markerRule struct {
	name     string
	priority int

	// pattern reports whether this rule handles the marker. Only
	// called on the first marker in preorder.
	pattern func(d *symbolic.Derivative) bool

	// rewrite produces the marker's replacement.
	rewrite func(d *symbolic.Derivative) symbolic.Expr

	// explain renders the step account from the marker and its
	// replacement.
	explain func(d *symbolic.Derivative, out symbolic.Expr) explanation
}

var _ registry.Rule = (*markerRule)(nil)

func (r *markerRule) Name() string      { return r.name }
func (r *markerRule) Operation() string { return OpDifferentiate }
func (r *markerRule) Priority() int     { return r.priority }
func (r *markerRule) Domains() []string { return []string{"calculus"} }

func (r *markerRule) Applicable(expr string) bool {
	e, err := symbolic.Parse(expr)
	if err != nil {
		return false
	}
	d := firstMarker(e)
	return d != nil && r.pattern(d)
}

func (r *markerRule) Apply(expr string) (registry.Application, error) {
	e, err := symbolic.Parse(expr)
	if err != nil {
		return registry.Application{}, err
	}
	d := firstMarker(e)
	if d == nil || !r.pattern(d) {
		// Selection guarantees applicability; reaching here means the
		// expression changed between the two calls.
		return registry.Application{}, fmt.Errorf("rule %s no longer applies to %q", r.name, expr)
	}
	replacement := r.rewrite(d)
	out := symbolic.ReplaceNode(e, d, replacement)

	ex := r.explain(d, replacement)
	return registry.Application{
		Output:      symbolic.Render(out),
		Explanation: ex.concise,
		Explanations: trace.Explanations{
			Detailed: ex.detailed,
			Teacher:  ex.teacher,
		},
		Metadata: map[string]string{
			"variable": d.Var,
		},
	}, nil
}

// firstMarker returns the first innermost derivative marker in
// preorder: the first marker whose body holds no further marker.
// Targeting innermost markers makes nested derivatives resolve inside
// out, which is both correct and the natural reading order of a
// worked solution.
func firstMarker(e symbolic.Expr) *symbolic.Derivative {
	return symbolic.FirstDerivative(e, func(d *symbolic.Derivative) bool {
		return !symbolic.ContainsDerivative(d.Body)
	})
}

// firstOrder reports whether the marker is a plain first derivative.
// Higher orders are handled exclusively by the expansion rule.
func firstOrder(d *symbolic.Derivative) bool {
	return d.Order == 1
}
