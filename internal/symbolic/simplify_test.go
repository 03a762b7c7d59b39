package symbolic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func simplifyString(t *testing.T, text string) string {
	t.Helper()
	return Render(Simplify(mustParse(t, text)))
}

// TestSimplify_Folding covers constant folding and identity removal.
func TestSimplify_Folding(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"2 + 3":        "5",
		"2*3*x":        "6*x",
		"x + 0":        "x",
		"1*x":          "x",
		"0*x":          "0",
		"x**1":         "x",
		"x**0":         "1",
		"2**3":         "8",
		"(1/2)*(2/3)":  "1/3",
		"x - x":        "0",
		"x + x":        "2*x",
		"3*x - x":      "2*x",
		"x*x":          "x**2",
		"x**2*x**3":    "x**5",
		"x + 2*x + 3":  "3*x + 3",
		"sin(x) + 0*x": "sin(x)",
	}
	for in, want := range cases {
		assert.Equal(t, want, simplifyString(t, in), in)
	}
}

// TestSimplify_IsIdempotent verifies that a second pass is a no-op.
func TestSimplify_IsIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"2*x**3 - 5*x + 7",
		"sin(x)*cos(x) + x*x",
		"x**2/(x + 1)",
		"Derivative(x**2 + x**2, x)",
	}
	for _, in := range inputs {
		once := Simplify(mustParse(t, in))
		twice := Simplify(once)
		assert.Equal(t, Render(once), Render(twice), in)
	}
}

// TestSimplify_PreservesMarkers checks that derivative markers are
// simplified inside but never evaluated.
func TestSimplify_PreservesMarkers(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Derivative(2*x**2, x)", simplifyString(t, "Derivative(x**2 + x**2, x)"))
	assert.True(t, ContainsDerivative(Simplify(mustParse(t, "Derivative(x, x)"))))
}

// TestExpand_Distribution covers product distribution and small integer
// powers of sums.
func TestExpand_Distribution(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"(x + 1)*(x + 2)": "x**2 + 3*x + 2",
		"(x + 1)**2":      "x**2 + 2*x + 1",
		"(x + y)**2":      "x**2 + 2*x*y + y**2",
		"2*(x + 3)":       "2*x + 6",
		"(x - 1)*(x + 1)": "x**2 - 1",
		"x*(x + 1) - x":   "x**2",
	}
	for in, want := range cases {
		assert.Equal(t, want, Render(Expand(mustParse(t, in))), in)
	}
}

// TestExpand_LeavesLargePowers confirms the degree cutoff.
func TestExpand_LeavesLargePowers(t *testing.T) {
	t.Parallel()

	got := Render(Expand(mustParse(t, "(x + 1)**40")))
	assert.Equal(t, "(x + 1)**40", got)
}
