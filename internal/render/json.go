package render

import (
	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// JSONRenderer writes the result as canonical JSON (RFC 8785 key
// ordering, no insignificant whitespace). Byte-identical output for
// identical results makes the form safe to diff, hash and store.
type JSONRenderer struct{}

// Render serializes the result. The document embeds the graph
// fingerprint so consumers can verify integrity without recomputing.
func (JSONRenderer) Render(res *engine.Result) ([]byte, error) {
	fp, err := trace.Fingerprint(res.Graph)
	if err != nil {
		return nil, err
	}

	steps := make([]any, 0, res.Graph.Len())
	for _, n := range res.Graph.Nodes() {
		steps = append(steps, n.CanonicalMap())
	}

	doc := map[string]any{
		"operation":   res.Operation,
		"input":       res.Input,
		"output":      res.Output,
		"fingerprint": fp,
		"steps":       steps,
	}
	return trace.MarshalCanonical(doc)
}
