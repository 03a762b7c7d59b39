package rules

import (
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// algebraRule is a whole-expression rewrite gated on the transform
// changing the rendered form. The gate is what makes these rules
// terminate: once the transform is a fixed point the rule no longer
// applies.
type algebraRule struct {
	name      string
	operation string
	priority  int
	transform func(symbolic.Expr) symbolic.Expr
	explain   func(in, out string) explanation

	// requireNoMarkers defers the rule until every derivative marker
	// has been resolved.
	requireNoMarkers bool
}

var _ registry.Rule = (*algebraRule)(nil)

func (r *algebraRule) Name() string      { return r.name }
func (r *algebraRule) Operation() string { return r.operation }
func (r *algebraRule) Priority() int     { return r.priority }
func (r *algebraRule) Domains() []string { return []string{"algebra"} }

func (r *algebraRule) Applicable(expr string) bool {
	e, err := symbolic.Parse(expr)
	if err != nil {
		return false
	}
	if r.requireNoMarkers && symbolic.ContainsDerivative(e) {
		return false
	}
	return symbolic.Render(r.transform(e)) != expr
}

func (r *algebraRule) Apply(expr string) (registry.Application, error) {
	e, err := symbolic.Parse(expr)
	if err != nil {
		return registry.Application{}, err
	}
	out := symbolic.Render(r.transform(e))
	ex := r.explain(expr, out)
	return registry.Application{
		Output:      out,
		Explanation: ex.concise,
		Explanations: trace.Explanations{
			Detailed: ex.detailed,
			Teacher:  ex.teacher,
		},
	}, nil
}

// simplifyResultRule tidies a finished derivation: it fires only after
// the last marker is gone, and only when simplification changes the
// expression.
func simplifyResultRule() *algebraRule {
	return &algebraRule{
		name:             "simplify_result",
		operation:        OpDifferentiate,
		priority:         prioSimplifyResult,
		transform:        symbolic.Simplify,
		requireNoMarkers: true,
		explain: func(in, out string) explanation {
			return explanation{
				concise: "Simplify the result",
				detailed: fmt.Sprintf(
					"All derivatives are resolved; collecting terms and folding constants turns %s into %s.", in, out),
				teacher: fmt.Sprintf(
					"The calculus is done. The last step is algebra: tidy %s up into %s.", in, out),
			}
		},
	}
}

func simplifyRule() *algebraRule {
	return &algebraRule{
		name:      "simplify",
		operation: OpSimplify,
		priority:  prioDirect,
		transform: symbolic.Simplify,
		explain: func(in, out string) explanation {
			return explanation{
				concise: "Simplify the expression",
				detailed: fmt.Sprintf(
					"Folding constants, flattening nested sums and products and collecting like terms reduces %s to %s.", in, out),
				teacher: fmt.Sprintf(
					"We combine everything that can be combined: %s becomes %s.", in, out),
			}
		},
	}
}

func expandRule() *algebraRule {
	return &algebraRule{
		name:      "expand_expression",
		operation: OpExpand,
		priority:  prioDirect,
		transform: symbolic.Expand,
		explain: func(in, out string) explanation {
			return explanation{
				concise: "Expand products and powers",
				detailed: fmt.Sprintf(
					"Distributing products over sums and multiplying out integer powers rewrites %s as %s.", in, out),
				teacher: fmt.Sprintf(
					"We multiply everything out term by term: %s becomes %s.", in, out),
			}
		},
	}
}
