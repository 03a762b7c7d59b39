package trace

// Explanations carries the alternate verbosity variants of a step
// explanation. The concise form lives on StepNode.Explanation; these two
// are optional refinements used by renderers at higher verbosity levels.
type Explanations struct {
	Detailed string `json:"detailed,omitempty"`
	Teacher  string `json:"teacher,omitempty"`
}

// StepNode records one rule application: the expression before and after
// the rule fired, the rule that fired, and the prior steps it builds on.
//
// Input and Output are snapshots in the Expression Provider's rendered
// form. The trace layer never interprets them; they are opaque strings
// owned by whichever provider produced them.
//
// A StepNode is immutable once appended to a Graph. Graph.Append stores a
// defensive copy, and accessors return copies, so holding a StepNode
// value never aliases graph state.
type StepNode struct {
	ID           string            `json:"id"`
	Operation    string            `json:"operation"`
	Rule         string            `json:"rule"`
	Input        string            `json:"input"`
	Output       string            `json:"output"`
	Explanation  string            `json:"explanation"`
	Explanations Explanations      `json:"explanations,omitzero"`
	Dependencies []string          `json:"dependencies,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// clone returns a deep copy of the node.
func (n StepNode) clone() StepNode {
	c := n
	if n.Dependencies != nil {
		c.Dependencies = make([]string, len(n.Dependencies))
		copy(c.Dependencies, n.Dependencies)
	}
	if n.Metadata != nil {
		c.Metadata = make(map[string]string, len(n.Metadata))
		for k, v := range n.Metadata {
			c.Metadata[k] = v
		}
	}
	return c
}

// CanonicalMap converts the node to a map suitable for MarshalCanonical.
// Empty optional fields are omitted so the canonical form is minimal and
// stable across serialization round trips.
func (n StepNode) CanonicalMap() map[string]any {
	m := map[string]any{
		"id":          n.ID,
		"operation":   n.Operation,
		"rule":        n.Rule,
		"input":       n.Input,
		"output":      n.Output,
		"explanation": n.Explanation,
	}
	if n.Explanations.Detailed != "" || n.Explanations.Teacher != "" {
		expl := map[string]any{}
		if n.Explanations.Detailed != "" {
			expl["detailed"] = n.Explanations.Detailed
		}
		if n.Explanations.Teacher != "" {
			expl["teacher"] = n.Explanations.Teacher
		}
		m["explanations"] = expl
	}
	if len(n.Dependencies) > 0 {
		deps := make([]any, len(n.Dependencies))
		for i, d := range n.Dependencies {
			deps[i] = d
		}
		m["dependencies"] = deps
	}
	if len(n.Metadata) > 0 {
		meta := make(map[string]any, len(n.Metadata))
		for k, v := range n.Metadata {
			meta[k] = v
		}
		m["metadata"] = meta
	}
	return m
}
