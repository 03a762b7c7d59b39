package trace

import (
	"errors"
	"fmt"
)

// ErrSealed is returned by Append after a graph has been sealed.
// Sealing is one-way; a sealed graph cannot be reopened.
var ErrSealed = errors.New("step graph is sealed")

// DuplicateIDError is returned when a node id collides with an existing
// node. This is a rule-author or engine bug, never a user-input problem.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate step node id: %s", e.ID)
}

// DependencyError is returned when a node references a dependency id not
// present in the graph at append time.
type DependencyError struct {
	NodeID  string
	Missing string
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("step node %s references unknown dependency %s", e.NodeID, e.Missing)
}

// ValidationError is returned by Validate on a malformed graph. It always
// indicates an engine or rule bug: user input cannot produce one.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid step graph: " + e.Reason
}

// IsValidationError reports whether err is (or wraps) a graph validation
// failure, including the append-time invariant errors.
func IsValidationError(err error) bool {
	var ve *ValidationError
	var de *DependencyError
	var due *DuplicateIDError
	return errors.As(err, &ve) || errors.As(err, &de) || errors.As(err, &due)
}
