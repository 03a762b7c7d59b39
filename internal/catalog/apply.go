package catalog

import (
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
)

// UnknownRuleError reports an override naming a rule that is not in
// the rule set. Catching typos here beats silently ignoring them.
type UnknownRuleError struct {
	Rule      string
	Operation string
}

func (e *UnknownRuleError) Error() string {
	if e.Operation != "" {
		return fmt.Sprintf("override names unknown rule %q for operation %q", e.Rule, e.Operation)
	}
	return fmt.Sprintf("override names unknown rule %q", e.Rule)
}

// prioritized wraps a rule with an overridden priority.
type prioritized struct {
	registry.Rule
	priority int
}

func (p prioritized) Priority() int { return p.priority }

// Apply returns the rule set with the catalog's overrides applied, in
// the original slice order. Disabled rules are dropped; priority
// overrides wrap the rule. Overrides apply in file order, so a later
// override of the same rule wins.
func (c *Catalog) Apply(rules []registry.Rule) ([]registry.Rule, error) {
	type adjustment struct {
		priority *int
		enabled  *bool
	}
	// Rule identity matches the registry's: (operation, name). An
	// override without an operation adjusts every operation's rule of
	// that name.
	key := func(op, name string) string { return op + "\x00" + name }
	byKey := make(map[string]*adjustment)
	namedOps := make(map[string][]string)
	for _, r := range rules {
		byKey[key(r.Operation(), r.Name())] = &adjustment{}
		namedOps[r.Name()] = append(namedOps[r.Name()], r.Operation())
	}

	for _, o := range c.Overrides {
		ops := namedOps[o.Rule]
		if o.Operation != "" {
			ops = []string{o.Operation}
		}
		if len(ops) == 0 {
			return nil, &UnknownRuleError{Rule: o.Rule}
		}
		for _, op := range ops {
			adj, ok := byKey[key(op, o.Rule)]
			if !ok {
				return nil, &UnknownRuleError{Rule: o.Rule, Operation: op}
			}
			if o.Priority != nil {
				adj.priority = o.Priority
			}
			if o.Enabled != nil {
				adj.enabled = o.Enabled
			}
		}
	}

	out := make([]registry.Rule, 0, len(rules))
	for _, r := range rules {
		adj := byKey[key(r.Operation(), r.Name())]
		if adj.enabled != nil && !*adj.enabled {
			continue
		}
		if adj.priority != nil {
			out = append(out, prioritized{Rule: r, priority: *adj.priority})
			continue
		}
		out = append(out, r)
	}
	return out, nil
}
