package harness

import (
	"context"
	"fmt"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/rules"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/symbolic"
)

// Run executes a scenario against a fresh engine with the built-in rule
// set and returns the result. Each scenario gets its own engine, so
// scenarios cannot influence one another.
func Run(ctx context.Context, s *Scenario) (*engine.Result, error) {
	req, err := buildRequest(s)
	if err != nil {
		return nil, err
	}

	var opts []engine.Option
	if s.MaxIterations > 0 {
		opts = append(opts, engine.WithMaxIterations(s.MaxIterations))
	}
	eng := engine.New(rules.NewRegistry(), symbolic.Provider{}, opts...)

	res, err := eng.Run(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", s.Name, err)
	}
	return res, nil
}

func buildRequest(s *Scenario) (engine.Request, error) {
	variable := s.Variable
	if variable == "" {
		variable = "x"
	}
	switch s.Operation {
	case rules.OpDifferentiate:
		return rules.DifferentiateRequest(s.Expression, variable, s.Order)
	case rules.OpSimplify:
		return rules.SimplifyRequest(s.Expression)
	case rules.OpExpand:
		return rules.ExpandRequest(s.Expression)
	}
	return engine.Request{}, fmt.Errorf("scenario %s: unknown operation %q", s.Name, s.Operation)
}

// Verify checks a result against the scenario's expectations. Unset
// expectation fields are skipped.
func Verify(s *Scenario, res *engine.Result) error {
	if s.Expect.Output != "" && res.Output != s.Expect.Output {
		return fmt.Errorf("scenario %s: output %q, want %q", s.Name, res.Output, s.Expect.Output)
	}
	if s.Expect.Rules != nil {
		nodes := res.Graph.Nodes()
		if len(nodes) != len(s.Expect.Rules) {
			return fmt.Errorf("scenario %s: %d steps, want %d", s.Name, len(nodes), len(s.Expect.Rules))
		}
		for i, want := range s.Expect.Rules {
			if nodes[i].Rule != want {
				return fmt.Errorf("scenario %s: step %d fired %s, want %s", s.Name, i+1, nodes[i].Rule, want)
			}
		}
	}
	return nil
}
