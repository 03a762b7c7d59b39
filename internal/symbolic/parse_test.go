package symbolic

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
)

// TestParse_RoundTrip verifies that rendering a parsed expression and
// parsing it again is a fixed point.
func TestParse_RoundTrip(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"x",
		"42",
		"3/2",
		"x + 1",
		"x**2",
		"2*x**3 - 5*x + 7",
		"sin(x)*cos(x)",
		"sin(x**2 + 1)",
		"x**2/(x + 1)",
		"exp(x) + ln(x)",
		"-x + 3",
		"sqrt(x)",
		"Derivative(x**2, x)",
		"Derivative(sin(x), (x, 3))",
	}
	for _, in := range inputs {
		t.Run(in, func(t *testing.T) {
			t.Parallel()

			e, err := Parse(in)
			require.NoError(t, err)
			first := Render(e)

			e2, err := Parse(first)
			require.NoError(t, err)
			assert.Equal(t, first, Render(e2))
		})
	}
}

// TestParse_Normalization checks renderings for a few forms the parser
// rewrites, caret exponents and decimals included.
func TestParse_Normalization(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"x^2":        "x**2",
		"0.5":        "1/2",
		"2.25*x":     "(9/4)*x",
		"ln(x)":      "ln(x)",
		"x - x + x":  "x - x + x",
		"1/x":        "1/x",
		"(x+1)*(x2)": "(x + 1)*x2",
		// 18 fractional digits is the densest decimal int64 can hold.
		"0.000000000000000001": "1/1000000000000000000",
	}
	for in, want := range cases {
		e, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, Render(e), in)
	}
}

// TestParse_Rejects covers the input guards: empty input, oversized
// input, the character allowlist, unbalanced parens, bad functions and
// division by a literal zero.
func TestParse_Rejects(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"empty":            "",
		"whitespace":       "   ",
		"too long":         strings.Repeat("x+", 300) + "x",
		"bad character":    "x + $",
		"unbalanced":       "(x + 1",
		"trailing":         "x + 1)",
		"unknown function": "foo(x)",
		"dangling op":      "x *",
		"zero divisor":     "x/0",
		"huge integer":     "99999999999999999999",
		// 19 fractional digits push the denominator past int64.
		"tiny decimal": "0.0000000000000000001",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Parse(in)
			require.Error(t, err)
			assert.True(t, provider.IsParseError(err))
		})
	}
}

// TestCheckVariable_Limits exercises the variable-name guard.
func TestCheckVariable_Limits(t *testing.T) {
	t.Parallel()

	assert.NoError(t, CheckVariable("x"))
	assert.NoError(t, CheckVariable("theta_1"))
	assert.Error(t, CheckVariable(""))
	assert.Error(t, CheckVariable("2x"))
	assert.Error(t, CheckVariable("x y"))
	assert.Error(t, CheckVariable(strings.Repeat("a", 21)))
}

// TestParse_PowerIsRightAssociative pins down 2**3**2 == 2**(3**2).
func TestParse_PowerIsRightAssociative(t *testing.T) {
	t.Parallel()

	e, err := Parse("x**3**2")
	require.NoError(t, err)
	assert.Equal(t, "x**(3**2)", Render(e))

	p, ok := e.(*Pow)
	require.True(t, ok)
	_, ok = p.Exp.(*Pow)
	assert.True(t, ok, "exponent should itself be a power")
}
