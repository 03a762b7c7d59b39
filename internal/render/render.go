// Package render turns engine results into presentation forms: a plain
// step-by-step text listing at three verbosity levels, and a stable
// JSON document for machine consumers.
package render

import (
	"fmt"
	"strings"

	"github.com/Dumbo-programmer/Calcora-sub000/internal/engine"
	"github.com/Dumbo-programmer/Calcora-sub000/internal/trace"
)

// Verbosity selects which explanation variant the text renderer shows.
type Verbosity string

const (
	// Concise shows the one-line account of each step.
	Concise Verbosity = "concise"

	// Detailed shows the fuller account, falling back to the concise
	// one when a rule provides no detailed variant.
	Detailed Verbosity = "detailed"

	// Teacher shows the conversational account aimed at a student.
	Teacher Verbosity = "teacher"
)

// ParseVerbosity validates a verbosity name.
func ParseVerbosity(s string) (Verbosity, error) {
	switch Verbosity(s) {
	case Concise, Detailed, Teacher:
		return Verbosity(s), nil
	}
	return "", fmt.Errorf("unknown verbosity %q (want concise, detailed or teacher)", s)
}

// explanationFor picks the variant for the verbosity, falling back to
// the concise explanation when the variant is empty.
func explanationFor(n trace.StepNode, v Verbosity) string {
	switch v {
	case Detailed:
		if n.Explanations.Detailed != "" {
			return n.Explanations.Detailed
		}
	case Teacher:
		if n.Explanations.Teacher != "" {
			return n.Explanations.Teacher
		}
	}
	return n.Explanation
}

// TextRenderer writes a human-readable step listing.
type TextRenderer struct {
	Verbosity Verbosity
}

// Render formats the result as a worked solution. An empty graph
// renders as a single line stating the input is already final.
func (r TextRenderer) Render(res *engine.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %s\n", res.Operation, res.Input)

	nodes := res.Graph.Nodes()
	if len(nodes) == 0 {
		fmt.Fprintf(&b, "  already in final form\n")
	}
	for i, n := range nodes {
		fmt.Fprintf(&b, "\nStep %d (%s):\n", i+1, n.Rule)
		fmt.Fprintf(&b, "  %s\n", explanationFor(n, r.Verbosity))
		fmt.Fprintf(&b, "  %s  =>  %s\n", n.Input, n.Output)
	}

	fmt.Fprintf(&b, "\nResult: %s\n", res.Output)
	return b.String()
}
