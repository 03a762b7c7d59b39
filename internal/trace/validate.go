package trace

import "fmt"

// Validate checks the full set of graph invariants:
//
//  1. every node id is unique
//  2. every dependency id resolves to a node in the graph
//  3. the dependency relation is acyclic
//
// Checks run in that order and the first violation wins. Validate is
// called automatically by Graph.Seal and is also exposed standalone so
// consumers that receive a serialized graph from an untrusted source can
// re-validate defensively before trusting it.
func Validate(g *Graph) error {
	return ValidateNodes(g.nodes)
}

// ValidateNodes validates a node sequence directly. The sequence is
// interpreted in append order, as Graph stores it.
func ValidateNodes(nodes []StepNode) error {
	seen := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		if err := validateNode(n); err != nil {
			return err
		}
		if seen[n.ID] {
			return &ValidationError{Reason: fmt.Sprintf("duplicate node id %s", n.ID)}
		}
		seen[n.ID] = true
	}

	// Dependencies must resolve to nodes appended earlier. Checking
	// against the prefix rather than the whole graph also rejects
	// forward references, which an append-only record cannot contain.
	deps := make(map[string][]string, len(nodes))
	prior := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		for _, d := range n.Dependencies {
			if !prior[d] {
				return &ValidationError{Reason: fmt.Sprintf("node %s references unknown dependency %s", n.ID, d)}
			}
		}
		deps[n.ID] = n.Dependencies
		prior[n.ID] = true
	}

	// DFS cycle check with an explicit recursion-stack set.
	const (
		unvisited = 0
		inStack   = 1
		done      = 2
	)
	state := make(map[string]int, len(nodes))

	var visit func(id string) error
	visit = func(id string) error {
		switch state[id] {
		case done:
			return nil
		case inStack:
			return &ValidationError{Reason: fmt.Sprintf("dependency cycle through node %s", id)}
		}
		state[id] = inStack
		for _, d := range deps[id] {
			if err := visit(d); err != nil {
				return err
			}
		}
		state[id] = done
		return nil
	}

	for _, n := range nodes {
		if err := visit(n.ID); err != nil {
			return err
		}
	}
	return nil
}

// validateNode checks the per-node required fields.
func validateNode(n StepNode) error {
	switch {
	case n.ID == "":
		return &ValidationError{Reason: "node id must be non-empty"}
	case n.Operation == "":
		return &ValidationError{Reason: fmt.Sprintf("node %s: operation must be non-empty", n.ID)}
	case n.Rule == "":
		return &ValidationError{Reason: fmt.Sprintf("node %s: rule must be non-empty", n.ID)}
	}
	return nil
}
