package trace

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMarshalCanonical_KeyOrdering tests RFC 8785 key sorting.
func TestMarshalCanonical_KeyOrdering(t *testing.T) {
	out, err := MarshalCanonical(map[string]any{
		"b": "2",
		"a": "1",
		"c": "3",
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":"1","b":"2","c":"3"}`, string(out))
}

// TestMarshalCanonical_NoHTMLEscaping tests that < > & stay literal.
func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	out, err := MarshalCanonical("a < b && c > d")
	require.NoError(t, err)
	assert.Equal(t, `"a < b && c > d"`, string(out))
}

// TestMarshalCanonical_RejectsFloats tests the no-float rule.
func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(map[string]any{"x": 1.5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "floats are forbidden")
}

// TestMarshalCanonical_RejectsNull tests the no-null rule.
func TestMarshalCanonical_RejectsNull(t *testing.T) {
	_, err := MarshalCanonical(nil)
	require.Error(t, err)
}

// TestMarshalCanonical_NFCNormalization tests that composed and
// decomposed forms of the same text serialize identically.
func TestMarshalCanonical_NFCNormalization(t *testing.T) {
	composed, err := MarshalCanonical("café")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("café")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

// TestMarshalCanonical_LineSeparators tests RFC 8785 treatment of
// U+2028/U+2029 versus a literal backslash-u sequence.
func TestMarshalCanonical_LineSeparators(t *testing.T) {
	out, err := MarshalCanonical("a b")
	require.NoError(t, err)
	assert.Equal(t, "\"a b\"", string(out))

	out, err = MarshalCanonical(`a b`)
	require.NoError(t, err)
	assert.Equal(t, `"a\\u2028b"`, string(out))
}

// TestFingerprint_Deterministic tests that equal graphs hash equally and
// differing graphs do not.
func TestFingerprint_Deterministic(t *testing.T) {
	build := func(output string) *Graph {
		g := NewGraph()
		n := node("step_001")
		n.Output = output
		n.Metadata = map[string]string{"domain": "calculus", "backend": "builtin"}
		require.NoError(t, g.Append(n))
		require.NoError(t, g.Seal())
		return g
	}

	a := MustFingerprint(build("2*x"))
	b := MustFingerprint(build("2*x"))
	c := MustFingerprint(build("3*x"))

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64)
}

// TestFingerprint_EmptyGraph tests that the empty graph has a stable,
// non-empty fingerprint distinct from any populated graph.
func TestFingerprint_EmptyGraph(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Seal())

	fp := MustFingerprint(g)
	assert.Len(t, fp, 64)

	g2 := NewGraph()
	require.NoError(t, g2.Append(node("step_001")))
	assert.NotEqual(t, fp, MustFingerprint(g2))
}

// TestNodeDigest_SensitiveToContent tests tamper detection for archived steps.
func TestNodeDigest_SensitiveToContent(t *testing.T) {
	n := node("step_001")
	d1, err := NodeDigest(n)
	require.NoError(t, err)

	n.Output = "tampered"
	d2, err := NodeDigest(n)
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
}
