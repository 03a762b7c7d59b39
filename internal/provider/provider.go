// Package provider defines the Expression Provider contract: the
// symbolic-computation capability the step engine consumes but does not
// implement. The engine only ever parses and renders through this seam;
// the actual transformations live in rules, which are free to reach into
// a concrete provider implementation directly.
package provider

import (
	"errors"
	"fmt"
)

// Expr is an opaque expression tree owned by a provider implementation.
// The engine and the trace layer never inspect it.
type Expr any

// Provider parses source text into expression trees and renders trees
// back to text. Implementations must be deterministic: parsing and
// re-rendering the same input always yields the same string.
type Provider interface {
	// Parse converts source text into an expression tree. Malformed
	// input fails with *ParseError.
	Parse(text string) (Expr, error)

	// Render converts an expression tree back to source text in the
	// provider's canonical form.
	Render(expr Expr) string
}

// ParseError reports malformed input text. It is a user-input error, not
// a bug: callers surface it immediately and never retry.
type ParseError struct {
	Input string
	Pos   int
	Msg   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %q: %s (at offset %d)", e.Input, e.Msg, e.Pos)
}

// IsParseError reports whether err is (or wraps) a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
