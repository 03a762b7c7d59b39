// Package testutil provides stub rules and a pass-through expression
// provider for engine and registry tests. Stubs are deterministic and
// operate on plain strings, so tests can exercise selection, ordering
// and termination without a real rule set.
package testutil

import (
	"strings"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
)

// StubRule is a hand-wired rule for tests.
type StubRule struct {
	RuleName     string
	RuleOp       string
	RulePriority int
	RuleDomains  []string

	// Matches gates applicability. Nil means always applicable.
	Matches func(expr string) bool

	// Output computes the rewrite. Nil echoes the input, which the
	// engine treats as a terminal no-op.
	Output func(expr string) string

	// Fail, when set, makes Apply return this error.
	Fail error

	// AppliedTo records every expression Apply saw, in order.
	AppliedTo []string
}

var _ registry.Rule = (*StubRule)(nil)

func (s *StubRule) Name() string      { return s.RuleName }
func (s *StubRule) Operation() string { return s.RuleOp }
func (s *StubRule) Priority() int     { return s.RulePriority }
func (s *StubRule) Domains() []string { return s.RuleDomains }

func (s *StubRule) Applicable(expr string) bool {
	if s.Matches == nil {
		return true
	}
	return s.Matches(expr)
}

func (s *StubRule) Apply(expr string) (registry.Application, error) {
	s.AppliedTo = append(s.AppliedTo, expr)
	if s.Fail != nil {
		return registry.Application{}, s.Fail
	}
	out := expr
	if s.Output != nil {
		out = s.Output(expr)
	}
	return registry.Application{
		Output:      out,
		Explanation: "applied " + s.RuleName,
	}, nil
}

// Doubler returns a rule that rewrites expr to expr+expr whenever it is
// shorter than limit. With a tight iteration budget this is the
// canonical non-convergence driver; with a generous one it terminates
// once the expression outgrows the limit.
func Doubler(op, name string, priority, limit int) *StubRule {
	return &StubRule{
		RuleName:     name,
		RuleOp:       op,
		RulePriority: priority,
		Matches:      func(expr string) bool { return len(expr) < limit },
		Output:       func(expr string) string { return expr + expr },
	}
}

// Rewriter returns a rule that rewrites the expression from one exact
// string to another.
func Rewriter(op, name string, priority int, from, to string) *StubRule {
	return &StubRule{
		RuleName:     name,
		RuleOp:       op,
		RulePriority: priority,
		Matches:      func(expr string) bool { return expr == from },
		Output:       func(string) string { return to },
	}
}

// EchoProvider is a pass-through expression provider: any non-empty
// string parses to itself, whitespace-trimmed. It lets engine tests use
// arbitrary tokens as expressions.
type EchoProvider struct{}

var _ provider.Provider = EchoProvider{}

func (EchoProvider) Parse(text string) (provider.Expr, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, &provider.ParseError{Input: text, Msg: "expression must be non-empty"}
	}
	return trimmed, nil
}

func (EchoProvider) Render(expr provider.Expr) string {
	s, _ := expr.(string)
	return s
}
