package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

func newEngine(t *testing.T) *engine.Engine {
	t.Helper()
	return engine.New(NewRegistry(), symbolic.Provider{})
}

func differentiate(t *testing.T, expr, variable string, order int) *engine.Result {
	t.Helper()
	req, err := DifferentiateRequest(expr, variable, order)
	require.NoError(t, err)
	res, err := newEngine(t).Run(context.Background(), req)
	require.NoError(t, err)
	return res
}

func ruleNames(g *trace.Graph) []string {
	names := make([]string, 0, g.Len())
	for _, n := range g.Nodes() {
		names = append(names, n.Rule)
	}
	return names
}

// TestDifferentiate_PowerRule walks d/dx x**2 through its two steps.
func TestDifferentiate_PowerRule(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "x**2", "x", 1)
	assert.Equal(t, "2*x", res.Output)
	assert.Equal(t, []string{"power_rule", "simplify_result"}, ruleNames(res.Graph))

	nodes := res.Graph.Nodes()
	assert.Equal(t, "Derivative(x**2, x)", nodes[0].Input)
	assert.Equal(t, "2*x**(2 - 1)", nodes[0].Output)
	assert.Equal(t, "x", nodes[0].Metadata["variable"])
	assert.NotEmpty(t, nodes[0].Explanation)
	assert.NotEmpty(t, nodes[0].Explanations.Teacher)
}

// TestDifferentiate_Polynomial checks the full decomposition of a
// quadratic: sum rule, then per-term rules, then final simplification.
func TestDifferentiate_Polynomial(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "x**2 + 3*x + 1", "x", 1)
	assert.Equal(t, "2*x + 3", res.Output)
	assert.Equal(t, []string{
		"sum_rule",
		"power_rule",
		"constant_multiple",
		"diff_identity",
		"diff_constant",
		"simplify_result",
	}, ruleNames(res.Graph))
}

// TestDifferentiate_KnownFunctions spot-checks outputs across the
// chain-rule set.
func TestDifferentiate_KnownFunctions(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"sin(x)":    "cos(x)",
		"cos(x)":    "-sin(x)",
		"exp(x)":    "exp(x)",
		"ln(x)":     "1/x",
		"sin(x**2)": "2*x*cos(x**2)",
		"exp(3*x)":  "3*exp(3*x)",
	}
	for in, want := range cases {
		res := differentiate(t, in, "x", 1)
		assert.Equal(t, want, res.Output, in)
	}
}

// TestDifferentiate_ChainRuleSteps verifies the chain rule leaves an
// inner derivative marker that later steps resolve.
func TestDifferentiate_ChainRuleSteps(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "sin(x**2)", "x", 1)
	assert.Equal(t, []string{
		"chain_rule_sin",
		"power_rule",
		"simplify_result",
	}, ruleNames(res.Graph))

	// The chain-rule step's output still contains the inner marker.
	assert.Contains(t, res.Graph.Nodes()[0].Output, "Derivative(x**2, x)")
}

// TestDifferentiate_ProductRule walks d/dx x*sin(x).
func TestDifferentiate_ProductRule(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "x*sin(x)", "x", 1)
	assert.Equal(t, "sin(x) + x*cos(x)", res.Output)
	assert.Equal(t, []string{
		"product_rule",
		"diff_identity",
		"chain_rule_sin",
		"simplify_result",
	}, ruleNames(res.Graph))
}

// TestDifferentiate_QuotientRule checks a variable denominator selects
// the quotient rule over the product rule.
func TestDifferentiate_QuotientRule(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "x**2/(x + 1)", "x", 1)
	assert.Equal(t, "quotient_rule", res.Graph.Nodes()[0].Rule)
	assert.Equal(t, "(2*x*(x + 1) - x**2)/(x + 1)**2", res.Output)
}

// TestDifferentiate_ConstantAndIdentity covers the direct rules.
func TestDifferentiate_ConstantAndIdentity(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "7", "x", 1)
	assert.Equal(t, "0", res.Output)
	assert.Equal(t, []string{"diff_constant"}, ruleNames(res.Graph))

	res = differentiate(t, "x", "x", 1)
	assert.Equal(t, "1", res.Output)
	assert.Equal(t, []string{"diff_identity"}, ruleNames(res.Graph))

	// A foreign symbol is a constant.
	res = differentiate(t, "y", "x", 1)
	assert.Equal(t, "0", res.Output)
	assert.Equal(t, []string{"diff_constant"}, ruleNames(res.Graph))
}

// TestDifferentiate_HigherOrder exercises the order expansion.
func TestDifferentiate_HigherOrder(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "x**3", "x", 2)
	assert.Equal(t, "6*x", res.Output)
	assert.Equal(t, "expand_higher_order", res.Graph.Nodes()[0].Rule)

	res = differentiate(t, "sin(x)", "x", 4)
	assert.Equal(t, "sin(x)", res.Output)
}

// TestDifferentiate_FallbackRule routes a function without a dedicated
// chain rule through the evaluation fallback.
func TestDifferentiate_FallbackRule(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "sec(x)", "x", 1)
	assert.Contains(t, ruleNames(res.Graph), "evaluate_derivative_fallback")
	assert.Equal(t, "sec(x)*tan(x)", res.Output)
}

// TestDifferentiate_RerunIsEmpty re-runs the operation on a final
// output and expects an empty graph: the terminal state is stable.
func TestDifferentiate_RerunIsEmpty(t *testing.T) {
	t.Parallel()

	res := differentiate(t, "x**2", "x", 1)
	require.Equal(t, "2*x", res.Output)

	again, err := newEngine(t).Run(context.Background(), engine.Request{
		Operation:  OpDifferentiate,
		Expression: res.Output,
	})
	require.NoError(t, err)
	assert.Equal(t, "2*x", again.Output)
	assert.Equal(t, 0, again.Graph.Len())
}

// TestDifferentiate_Deterministic compares fingerprints across repeated
// runs of the same request.
func TestDifferentiate_Deterministic(t *testing.T) {
	t.Parallel()

	want, err := trace.Fingerprint(differentiate(t, "x**2 + sin(x)", "x", 1).Graph)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		got, err := trace.Fingerprint(differentiate(t, "x**2 + sin(x)", "x", 1).Graph)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

// TestSimplifyOperation runs the standalone simplify operation.
func TestSimplifyOperation(t *testing.T) {
	t.Parallel()

	req, err := SimplifyRequest("x + x + 2*3")
	require.NoError(t, err)
	res, err := newEngine(t).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "2*x + 6", res.Output)
	assert.Equal(t, []string{"simplify"}, ruleNames(res.Graph))

	// Already-simplified input yields an empty graph.
	req, err = SimplifyRequest("2*x + 6")
	require.NoError(t, err)
	res, err = newEngine(t).Run(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Graph.Len())
}

// TestExpandOperation runs the standalone expand operation.
func TestExpandOperation(t *testing.T) {
	t.Parallel()

	req, err := ExpandRequest("(x + 1)*(x + 2)")
	require.NoError(t, err)
	res, err := newEngine(t).Run(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "x**2 + 3*x + 2", res.Output)
	assert.Equal(t, []string{"expand_expression"}, ruleNames(res.Graph))
}

// TestDifferentiateRequest_Validation covers the request guards.
func TestDifferentiateRequest_Validation(t *testing.T) {
	t.Parallel()

	_, err := DifferentiateRequest("x +", "x", 1)
	assert.True(t, provider.IsParseError(err))

	_, err = DifferentiateRequest("x**2", "2bad", 1)
	assert.True(t, provider.IsParseError(err))

	_, err = DifferentiateRequest("Derivative(x, x)", "x", 1)
	assert.True(t, provider.IsParseError(err))

	_, err = DifferentiateRequest("x**2", "x", MaxOrder+1)
	assert.ErrorContains(t, err, "exceeds the maximum")

	req, err := DifferentiateRequest("x**2", "x", 0)
	require.NoError(t, err)
	assert.Equal(t, 1, req.Order)
	assert.Equal(t, "Derivative(x**2, x)", req.Expression)

	req, err = DifferentiateRequest("x**2", "x", 3)
	require.NoError(t, err)
	assert.Equal(t, "Derivative(x**2, (x, 3))", req.Expression)
}

// TestBuiltins_StableOrder pins the canonical registration order of the
// differentiation rules.
func TestBuiltins_StableOrder(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	var names []string
	for _, r := range reg.RulesFor(OpDifferentiate) {
		names = append(names, r.Name())
	}
	assert.Equal(t, []string{
		"expand_higher_order",
		"diff_constant",
		"diff_identity",
		"constant_multiple",
		"sum_rule",
		"power_rule",
		"chain_rule_sin",
		"chain_rule_cos",
		"chain_rule_tan",
		"chain_rule_exp",
		"chain_rule_log",
		"chain_rule_sqrt",
		"chain_rule_asin",
		"chain_rule_atan",
		"chain_rule_sinh",
		"chain_rule_cosh",
		"chain_rule_tanh",
		"quotient_rule",
		"product_rule",
		"simplify_result",
		"evaluate_derivative_fallback",
	}, names)
}

// TestBuiltins_Domains checks the domain tags: derivative rules are
// calculus, the whole-expression rewrites are algebra.
func TestBuiltins_Domains(t *testing.T) {
	t.Parallel()

	for _, r := range Builtins() {
		switch r.Name() {
		case "simplify_result", "simplify", "expand_expression":
			assert.Equal(t, []string{"algebra"}, r.Domains(), r.Name())
		default:
			assert.Equal(t, []string{"calculus"}, r.Domains(), r.Name())
		}
	}
}
