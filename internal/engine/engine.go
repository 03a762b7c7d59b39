// Package engine drives the step loop: select a rule, apply it, record
// a step node, repeat until no rule applies or the iteration budget is
// spent.
//
// INVARIANTS:
//   - Rule selection is greedy first-match over the registry ordering
//     (descending priority, registration order on ties).
//   - The loop is single-threaded; all determinism flows from the
//     registry ordering and the rules themselves being pure.
//   - Every recorded step's output becomes the next iteration's input.
//   - The returned graph is sealed and validated, including the partial
//     graph carried by a non-convergence failure.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/provider"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/registry"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// DefaultMaxIterations bounds the step loop. Rule sets are expected to
// converge well under this; hitting the cap means a rule cycle, not a
// long derivation.
const DefaultMaxIterations = 64

// Engine evaluates requests against a rule registry. Construct with
// New; the zero value is not usable. An Engine is safe for concurrent
// Run calls: it holds no mutable state between requests.
type Engine struct {
	registry *registry.Registry
	provider provider.Provider
	logger   *slog.Logger
	maxIter  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxIterations overrides the iteration budget.
//
// Use a small value like 3 to exercise non-convergence handling in
// tests. Values below 1 are ignored.
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n >= 1 {
			e.maxIter = n
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// New creates an Engine over a registry and an expression provider.
func New(reg *registry.Registry, prov provider.Provider, opts ...Option) *Engine {
	e := &Engine{
		registry: reg,
		provider: prov,
		logger:   slog.Default(),
		maxIter:  DefaultMaxIterations,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Request describes one evaluation.
type Request struct {
	// Operation selects the rule set, for example "differentiate".
	Operation string

	// Expression is the input expression text.
	Expression string

	// Variable is the operation's variable, where one applies.
	Variable string

	// Order is the derivative order for differentiation requests.
	// Zero means 1.
	Order int
}

// Result is a completed evaluation: the final expression and the sealed
// step graph that produced it.
type Result struct {
	Operation string
	Input     string
	Output    string
	Graph     *trace.Graph
}

// Run evaluates a request. The returned graph is sealed; an empty graph
// means no rule applied to the input, which for an already-final
// expression is the expected outcome, not an error.
//
// Context is checked once per iteration. Cancellation surfaces as
// ctx.Err(); the partial work is discarded.
//
// Error cases:
//   - malformed input: *provider.ParseError
//   - a selected rule failing: *RuleApplicationError
//   - iteration budget exhausted: *NonConvergenceError carrying the
//     sealed partial graph
func (e *Engine) Run(ctx context.Context, req Request) (*Result, error) {
	parsed, err := e.provider.Parse(req.Expression)
	if err != nil {
		return nil, err
	}
	current := e.provider.Render(parsed)

	graph := trace.NewGraph()
	prevID := ""
	converged := false

	for iter := 0; iter < e.maxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rule := e.registry.Select(req.Operation, current)
		if rule == nil {
			converged = true
			break
		}

		app, err := rule.Apply(current)
		if err != nil {
			return nil, &RuleApplicationError{
				Operation:  req.Operation,
				Rule:       rule.Name(),
				Expression: current,
				Err:        err,
			}
		}
		if app.Output == current {
			// The rule declined: treat as terminal, record nothing.
			e.logger.Debug("rule produced no-op, stopping",
				"operation", req.Operation, "rule", rule.Name(), "iteration", iter)
			converged = true
			break
		}

		node := trace.StepNode{
			ID:           fmt.Sprintf("step_%03d", graph.Len()+1),
			Operation:    req.Operation,
			Rule:         rule.Name(),
			Input:        current,
			Output:       app.Output,
			Explanation:  app.Explanation,
			Explanations: app.Explanations,
			Dependencies: app.Dependencies,
			Metadata:     app.Metadata,
		}
		if len(node.Dependencies) == 0 && prevID != "" {
			node.Dependencies = []string{prevID}
		}
		if err := graph.Append(node); err != nil {
			return nil, &RuleApplicationError{
				Operation:  req.Operation,
				Rule:       rule.Name(),
				Expression: current,
				Err:        err,
			}
		}

		e.logger.Debug("step recorded",
			"operation", req.Operation, "rule", rule.Name(),
			"step", node.ID, "output", app.Output)

		prevID = node.ID
		current = app.Output
	}

	// Spending the whole budget is only a failure if more work remains.
	if !converged && e.registry.Select(req.Operation, current) != nil {
		if err := graph.Seal(); err != nil {
			return nil, err
		}
		return nil, &NonConvergenceError{
			Operation:  req.Operation,
			Input:      req.Expression,
			Iterations: e.maxIter,
			Partial:    graph,
		}
	}

	if err := graph.Seal(); err != nil {
		return nil, err
	}

	e.logger.Info("run complete",
		"operation", req.Operation, "steps", graph.Len(), "output", current)

	return &Result{
		Operation: req.Operation,
		Input:     req.Expression,
		Output:    current,
		Graph:     graph,
	}, nil
}
