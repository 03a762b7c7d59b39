package trace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func node(id string, deps ...string) StepNode {
	return StepNode{
		ID:          id,
		Operation:   "differentiate",
		Rule:        "power_rule",
		Input:       "Derivative(x**2, x)",
		Output:      "2*x",
		Explanation: "Apply the power rule.",
		Dependencies: deps,
	}
}

// TestGraph_AppendOrdered tests the normal append path.
func TestGraph_AppendOrdered(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Append(node("step_001")))
	require.NoError(t, g.Append(node("step_002", "step_001")))

	assert.Equal(t, 2, g.Len())

	last, ok := g.Last()
	require.True(t, ok)
	assert.Equal(t, "step_002", last.ID)
	assert.Equal(t, []string{"step_001"}, last.Dependencies)
}

// TestGraph_AppendDuplicateID tests id collision rejection.
func TestGraph_AppendDuplicateID(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Append(node("step_001")))

	err := g.Append(node("step_001"))
	require.Error(t, err)

	var dup *DuplicateIDError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "step_001", dup.ID)
}

// TestGraph_AppendUnknownDependency tests forward/unknown reference rejection.
func TestGraph_AppendUnknownDependency(t *testing.T) {
	g := NewGraph()

	err := g.Append(node("step_001", "step_999"))
	require.Error(t, err)

	var de *DependencyError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "step_001", de.NodeID)
	assert.Equal(t, "step_999", de.Missing)
}

// TestGraph_SealFreezes tests that no mutation is possible after Seal.
func TestGraph_SealFreezes(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Append(node("step_001")))
	require.NoError(t, g.Seal())
	assert.True(t, g.Sealed())

	err := g.Append(node("step_002", "step_001"))
	require.ErrorIs(t, err, ErrSealed)

	// Sealing twice is a no-op.
	require.NoError(t, g.Seal())
}

// TestGraph_EmptySealValid tests that a zero-application run yields an
// explicit empty-but-valid graph.
func TestGraph_EmptySealValid(t *testing.T) {
	g := NewGraph()
	require.NoError(t, g.Seal())
	assert.Equal(t, 0, g.Len())
	require.NoError(t, Validate(g))
}

// TestGraph_NodesAreCopies tests that appended nodes cannot be mutated
// through retained or returned values.
func TestGraph_NodesAreCopies(t *testing.T) {
	g := NewGraph()
	n := node("step_001")
	n.Metadata = map[string]string{"domain": "calculus"}
	require.NoError(t, g.Append(n))

	// Mutating the caller's copy must not affect the graph.
	n.Metadata["domain"] = "tampered"
	n.Dependencies = append(n.Dependencies, "bogus")

	got, ok := g.Node("step_001")
	require.True(t, ok)
	assert.Equal(t, "calculus", got.Metadata["domain"])
	assert.Empty(t, got.Dependencies)

	// Mutating a returned copy must not affect the graph either.
	got.Metadata["domain"] = "tampered"
	again, _ := g.Node("step_001")
	assert.Equal(t, "calculus", again.Metadata["domain"])
}

// TestGraph_JSONRoundTrip tests serialization for the run archive.
func TestGraph_JSONRoundTrip(t *testing.T) {
	g := NewGraph()
	first := node("step_001")
	first.Explanations = Explanations{Detailed: "d", Teacher: "t"}
	first.Metadata = map[string]string{"domain": "calculus"}
	require.NoError(t, g.Append(first))
	require.NoError(t, g.Append(node("step_002", "step_001")))
	require.NoError(t, g.Seal())

	data, err := json.Marshal(g)
	require.NoError(t, err)

	var back Graph
	require.NoError(t, json.Unmarshal(data, &back))
	require.NoError(t, Validate(&back))

	assert.Equal(t, g.Len(), back.Len())
	orig, _ := g.Node("step_001")
	restored, _ := back.Node("step_001")
	assert.Equal(t, orig, restored)

	// A deserialized graph is unsealed until revalidated and sealed.
	assert.False(t, back.Sealed())
	require.NoError(t, back.Seal())
}
