package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// snapshot flattens a result into the canonical map serialized to the
// golden file. The trace fingerprint is derived from the same canonical
// step encoding, so the golden file pins the fingerprint input too.
func snapshot(s *Scenario, res *engine.Result) map[string]any {
	nodes := res.Graph.Nodes()
	steps := make([]any, len(nodes))
	for i, n := range nodes {
		steps[i] = n.CanonicalMap()
	}
	return map[string]any{
		"scenario":  s.Name,
		"operation": res.Operation,
		"input":     res.Input,
		"output":    res.Output,
		"steps":     steps,
	}
}

// AssertGolden compares a result's trace against the scenario's golden
// file in testdata/golden. Regenerate with:
//
//	go test ./internal/harness -update
func AssertGolden(t *testing.T, s *Scenario, res *engine.Result) error {
	t.Helper()

	data, err := trace.MarshalCanonical(snapshot(s, res))
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, s.Name, data)
	return nil
}

// RunWithGolden runs a scenario, verifies its expectations and compares
// the trace against its golden file.
func RunWithGolden(t *testing.T, s *Scenario) error {
	t.Helper()

	res, err := Run(t.Context(), s)
	if err != nil {
		return err
	}
	if err := Verify(s, res); err != nil {
		return err
	}
	return AssertGolden(t, s, res)
}
