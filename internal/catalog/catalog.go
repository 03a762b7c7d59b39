// Package catalog loads rule-set configuration from CUE. A catalog
// file can retune a built-in rule's priority, disable it outright, and
// set the engine's iteration budget, without touching Go code.
package catalog

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Override adjusts one named rule. Nil fields leave the built-in value
// untouched. Rule identity is (operation, name); an override with no
// operation adjusts the rule under every operation carrying the name.
type Override struct {
	Rule      string
	Operation string
	Priority  *int
	Enabled   *bool
}

// Catalog is the decoded configuration.
type Catalog struct {
	// MaxIterations overrides the engine's iteration budget when
	// positive.
	MaxIterations int

	// Overrides apply in file order.
	Overrides []Override
}

// CompileError reports a malformed catalog with source position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s: %s: %s", e.Pos, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Load parses and validates CUE source. The source must define a
// top-level catalog struct; see schema.cue for the shape.
func Load(source string) (*Catalog, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	value := ctx.CompileString(source, cue.Filename("catalog.cue"))
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	unified := schema.Unify(value)
	if err := unified.Validate(cue.Concrete(false)); err != nil {
		return nil, formatCUEError(err)
	}

	// Existence is checked on the user's value: the schema alone makes
	// the path exist in the unified result.
	if !value.LookupPath(cue.ParsePath("catalog")).Exists() {
		return nil, &CompileError{Field: "catalog", Message: "catalog struct is required"}
	}
	root := unified.LookupPath(cue.ParsePath("catalog"))

	c := &Catalog{}

	if mi := root.LookupPath(cue.ParsePath("max_iterations")); mi.Exists() {
		n, err := mi.Int64()
		if err != nil {
			return nil, formatCUEError(err)
		}
		c.MaxIterations = int(n)
	}

	overrides := root.LookupPath(cue.ParsePath("overrides"))
	if overrides.Exists() {
		iter, err := overrides.List()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			o, err := parseOverride(iter.Value())
			if err != nil {
				return nil, err
			}
			c.Overrides = append(c.Overrides, o)
		}
	}

	return c, nil
}

func parseOverride(v cue.Value) (Override, error) {
	var o Override

	ruleVal := v.LookupPath(cue.ParsePath("rule"))
	if !ruleVal.Exists() {
		return o, &CompileError{Field: "rule", Message: "rule name is required", Pos: v.Pos()}
	}
	rule, err := ruleVal.String()
	if err != nil {
		return o, formatCUEError(err)
	}
	o.Rule = rule

	if ov := v.LookupPath(cue.ParsePath("operation")); ov.Exists() {
		op, err := ov.String()
		if err != nil {
			return o, formatCUEError(err)
		}
		o.Operation = op
	}
	if pv := v.LookupPath(cue.ParsePath("priority")); pv.Exists() {
		p, err := pv.Int64()
		if err != nil {
			return o, formatCUEError(err)
		}
		pi := int(p)
		o.Priority = &pi
	}
	if ev := v.LookupPath(cue.ParsePath("enabled")); ev.Exists() {
		e, err := ev.Bool()
		if err != nil {
			return o, formatCUEError(err)
		}
		o.Enabled = &e
	}
	if o.Priority == nil && o.Enabled == nil {
		return o, &CompileError{
			Field:   o.Rule,
			Message: "override must set priority or enabled",
			Pos:     v.Pos(),
		}
	}
	return o, nil
}

// formatCUEError converts a CUE error into a CompileError with the
// first position attached.
func formatCUEError(err error) error {
	var pos token.Pos
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		pos = positions[0]
	}
	return &CompileError{
		Field:   "cue",
		Message: cueerrors.Details(err, nil),
		Pos:     pos,
	}
}
