package engine

import (
	"errors"
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// RuleApplicationError wraps a failure inside a selected rule's Apply,
// or a failure recording its step. The engine stops at the first such
// failure; nothing after the failing step is evaluated.
type RuleApplicationError struct {
	Operation  string
	Rule       string
	Expression string
	Err        error
}

func (e *RuleApplicationError) Error() string {
	return fmt.Sprintf("rule %q (operation %q) failed on %q: %v", e.Rule, e.Operation, e.Expression, e.Err)
}

func (e *RuleApplicationError) Unwrap() error {
	return e.Err
}

// IsRuleApplication reports whether err is a rule application failure.
func IsRuleApplication(err error) bool {
	var r *RuleApplicationError
	return errors.As(err, &r)
}

// NonConvergenceError reports an evaluation that spent its whole
// iteration budget with rules still applicable. Partial holds the
// sealed graph of the steps taken, for diagnosis.
type NonConvergenceError struct {
	Operation  string
	Input      string
	Iterations int
	Partial    *trace.Graph
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("operation %q on %q did not converge after %d iterations", e.Operation, e.Input, e.Iterations)
}

// IsNonConvergence reports whether err is a non-convergence failure.
func IsNonConvergence(err error) bool {
	var n *NonConvergenceError
	return errors.As(err, &n)
}
