// Package harness runs YAML-defined evaluation scenarios against the
// built-in rule set and compares their step traces to golden files.
//
// A scenario names an operation and an input expression, and optionally
// pins the expected output, the exact rule sequence, and an iteration
// budget. Scenarios live in testdata/scenarios and their golden traces
// in testdata/golden.
package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// Scenario is one end-to-end evaluation case.
type Scenario struct {
	// Name uniquely identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what the scenario exercises.
	Description string `yaml:"description,omitempty"`

	// Operation is the evaluation to run: differentiate, simplify or
	// expand.
	Operation string `yaml:"operation"`

	// Expression is the input in provider syntax.
	Expression string `yaml:"expression"`

	// Variable is the differentiation variable. Defaults to "x".
	Variable string `yaml:"variable,omitempty"`

	// Order is the derivative order. Defaults to 1.
	Order int `yaml:"order,omitempty"`

	// MaxIterations overrides the engine's step budget when positive.
	MaxIterations int `yaml:"max_iterations,omitempty"`

	// Expect pins the outcome. Zero-valued fields are not checked.
	Expect Expect `yaml:"expect"`
}

// Expect describes the outcome a scenario requires.
type Expect struct {
	// Output is the expected final rendered expression.
	Output string `yaml:"output,omitempty"`

	// Rules is the expected rule sequence, one name per recorded step.
	Rules []string `yaml:"rules,omitempty"`
}

// validate checks the required scenario fields.
func (s *Scenario) validate() error {
	if s.Name == "" {
		return fmt.Errorf("scenario has no name")
	}
	if s.Operation == "" {
		return fmt.Errorf("scenario %s has no operation", s.Name)
	}
	if s.Expression == "" {
		return fmt.Errorf("scenario %s has no expression", s.Name)
	}
	return nil
}

// LoadScenario reads and validates a single scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario: %w", err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if err := s.validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

// LoadScenarios reads every *.yaml scenario in dir, sorted by filename
// so test ordering is stable.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var out []*Scenario
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}
