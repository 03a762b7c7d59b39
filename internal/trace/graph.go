package trace

import (
	"encoding/json"
	"fmt"
)

// Graph is the append-only, ordered record of one computation.
//
// Lifecycle: created empty by NewGraph, grown one node per rule
// application via Append, then frozen by Seal once the run terminates.
// Append enforces the cheap local invariants (unique id, no forward
// dependency references); Seal runs the full Validate pass before
// freezing.
//
// A Graph is owned by exactly one run while open. A sealed Graph is
// immutable and therefore safe to share across goroutines.
type Graph struct {
	nodes  []StepNode
	index  map[string]int // node id -> position in nodes
	sealed bool
}

// NewGraph creates an empty, unsealed graph.
func NewGraph() *Graph {
	return &Graph{index: make(map[string]int)}
}

// Append adds a node to the graph.
//
// Fails with DuplicateIDError if the id is already present, with
// DependencyError if any dependency does not already exist in the graph
// (forward references are structurally impossible in an append-only
// record), and with ErrSealed after Seal.
func (g *Graph) Append(node StepNode) error {
	if g.sealed {
		return ErrSealed
	}
	if node.ID == "" {
		return &ValidationError{Reason: "step node id must be non-empty"}
	}
	if _, exists := g.index[node.ID]; exists {
		return &DuplicateIDError{ID: node.ID}
	}
	for _, dep := range node.Dependencies {
		if _, exists := g.index[dep]; !exists {
			return &DependencyError{NodeID: node.ID, Missing: dep}
		}
	}
	g.index[node.ID] = len(g.nodes)
	g.nodes = append(g.nodes, node.clone())
	return nil
}

// Seal validates the full graph and freezes it. Any Append after a
// successful Seal fails with ErrSealed. Sealing an already sealed graph
// is a no-op.
//
// An empty graph seals successfully: a computation whose input is
// already terminal yields an empty-but-valid graph, not an error.
func (g *Graph) Seal() error {
	if g.sealed {
		return nil
	}
	if err := ValidateNodes(g.nodes); err != nil {
		return err
	}
	g.sealed = true
	return nil
}

// Sealed reports whether the graph has been frozen.
func (g *Graph) Sealed() bool {
	return g.sealed
}

// Len returns the number of recorded steps.
func (g *Graph) Len() int {
	return len(g.nodes)
}

// Node returns a copy of the node with the given id.
func (g *Graph) Node(id string) (StepNode, bool) {
	i, ok := g.index[id]
	if !ok {
		return StepNode{}, false
	}
	return g.nodes[i].clone(), true
}

// Nodes returns copies of all nodes in append order. Append order is the
// authoritative reasoning order; consumers must preserve it.
func (g *Graph) Nodes() []StepNode {
	out := make([]StepNode, len(g.nodes))
	for i, n := range g.nodes {
		out[i] = n.clone()
	}
	return out
}

// Last returns a copy of the most recently appended node.
func (g *Graph) Last() (StepNode, bool) {
	if len(g.nodes) == 0 {
		return StepNode{}, false
	}
	return g.nodes[len(g.nodes)-1].clone(), true
}

// graphJSON is the serialized shape of a Graph.
type graphJSON struct {
	Nodes []StepNode `json:"nodes"`
}

// MarshalJSON serializes the graph as {"nodes": [...]}.
func (g *Graph) MarshalJSON() ([]byte, error) {
	return json.Marshal(graphJSON{Nodes: g.nodes})
}

// UnmarshalJSON deserializes a graph. The result is unsealed and NOT
// validated: callers receiving graphs from untrusted sources must run
// Validate (or Seal) before use.
func (g *Graph) UnmarshalJSON(data []byte) error {
	var raw graphJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("unmarshal step graph: %w", err)
	}
	*g = Graph{index: make(map[string]int, len(raw.Nodes))}
	for i, n := range raw.Nodes {
		if _, exists := g.index[n.ID]; exists {
			return &DuplicateIDError{ID: n.ID}
		}
		g.index[n.ID] = i
	}
	g.nodes = raw.Nodes
	return nil
}

// FromNodes builds an unsealed graph from deserialized nodes, re-checking
// the append-time invariants in order. Used when loading archived runs.
func FromNodes(nodes []StepNode) (*Graph, error) {
	g := NewGraph()
	for _, n := range nodes {
		if err := g.Append(n); err != nil {
			return nil, err
		}
	}
	return g, nil
}
