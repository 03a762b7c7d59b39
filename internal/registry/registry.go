// Package registry holds the rule catalog: named rewrite rules grouped
// by operation and ordered by priority. Registration order is part of
// the contract — rules with equal priority are consulted in the order
// they were registered, so a registry built from the same sequence of
// Register calls always yields the same rule ordering.
package registry

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// Application is the outcome of applying a rule to an expression.
type Application struct {
	// Output is the rewritten expression. An output equal to the input
	// means the rule declined to make progress; the engine treats that
	// as a terminal state rather than recording an empty step.
	Output string

	// Explanation is the concise human-readable account of the step.
	Explanation string

	// Explanations carries the optional longer variants. Zero values
	// fall back to Explanation at render time.
	Explanations trace.Explanations

	// Dependencies names earlier step ids this step builds on. Empty
	// means the step depends on the immediately preceding one.
	Dependencies []string

	// Metadata is free-form annotation copied onto the step node.
	Metadata map[string]string
}

// Rule is a single rewrite rule. Implementations must be deterministic:
// Applicable and Apply depend only on the expression text.
type Rule interface {
	// Name identifies the rule within its operation.
	Name() string

	// Operation names the operation this rule belongs to, for example
	// "differentiate".
	Operation() string

	// Priority orders rules within an operation; higher fires first.
	// Negative priorities are valid and mark fallbacks.
	Priority() int

	// Domains tags the rule's area of applicability, for example
	// "calculus" or "algebra". Domains never affect selection; they
	// exist for listing and filtering rule sets.
	Domains() []string

	// Applicable reports whether the rule can rewrite expr. It must be
	// side-effect free.
	Applicable(expr string) bool

	// Apply rewrites expr. It is only called when Applicable returned
	// true for the same expr.
	Apply(expr string) (Application, error)
}

// DuplicateRuleError reports a second registration of an (operation,
// name) pair.
type DuplicateRuleError struct {
	Operation string
	Name      string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q already registered for operation %q", e.Name, e.Operation)
}

// IsDuplicateRule reports whether err is a duplicate registration.
func IsDuplicateRule(err error) bool {
	var d *DuplicateRuleError
	return errors.As(err, &d)
}

type entry struct {
	rule Rule
	seq  int
}

// Registry is the rule catalog. The zero value is not usable; construct
// with New. A Registry is not safe for concurrent mutation; build it up
// front, then share it read-only.
type Registry struct {
	byOp map[string][]entry
	seen map[string]struct{}
	next int
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		byOp: make(map[string][]entry),
		seen: make(map[string]struct{}),
	}
}

// Register adds a rule to the catalog. Registering two rules with the
// same operation and name fails with *DuplicateRuleError.
func (r *Registry) Register(rule Rule) error {
	key := rule.Operation() + "\x00" + rule.Name()
	if _, dup := r.seen[key]; dup {
		return &DuplicateRuleError{Operation: rule.Operation(), Name: rule.Name()}
	}
	r.seen[key] = struct{}{}
	r.byOp[rule.Operation()] = append(r.byOp[rule.Operation()], entry{rule: rule, seq: r.next})
	r.next++
	return nil
}

// MustRegister is Register that panics on error, for static rule sets
// wired at startup.
func (r *Registry) MustRegister(rules ...Rule) {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
}

// RulesFor returns the rules for an operation ordered by descending
// priority, ties broken by registration order. Unknown operations yield
// an empty slice, not an error: an engine run over them produces an
// empty graph.
func (r *Registry) RulesFor(operation string) []Rule {
	entries := r.byOp[operation]
	sorted := make([]entry, len(entries))
	copy(sorted, entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].rule.Priority() != sorted[j].rule.Priority() {
			return sorted[i].rule.Priority() > sorted[j].rule.Priority()
		}
		return sorted[i].seq < sorted[j].seq
	})
	out := make([]Rule, len(sorted))
	for i, e := range sorted {
		out[i] = e.rule
	}
	return out
}

// Select returns the first applicable rule for expr under the
// operation's ordering, or nil when no rule applies.
func (r *Registry) Select(operation, expr string) Rule {
	for _, rule := range r.RulesFor(operation) {
		if rule.Applicable(expr) {
			return rule
		}
	}
	return nil
}

// Operations lists the registered operation names in sorted order.
func (r *Registry) Operations() []string {
	ops := make([]string, 0, len(r.byOp))
	for op := range r.byOp {
		ops = append(ops, op)
	}
	sort.Strings(ops)
	return ops
}

// Len reports the total number of registered rules.
func (r *Registry) Len() int {
	n := 0
	for _, entries := range r.byOp {
		n += len(entries)
	}
	return n
}
