package codegen

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownBackend is returned when no backend is registered for a target.
	ErrUnknownBackend = errors.New("codegen: unknown backend")
	// ErrChildrenNotAccepted reports children under an adapter that forbids
	// them.
	ErrChildrenNotAccepted = errors.New("implementation does not accept children")
	// ErrInvalidBinding reports a reference whose path cannot be lowered.
	ErrInvalidBinding = errors.New("invalid binding")
	// ErrDuplicateID reports a node id used more than once.
	ErrDuplicateID = errors.New("duplicate node id")
	// ErrUnknownState reports a state reference with no declaration when
	// strict state checking is enabled.
	ErrUnknownState = errors.New("undeclared state")
)

// LoweringError identifies the node that could not be lowered. Generation
// produces no output when it is returned.
type LoweringError struct {
	NodeID string
	// Path is the child index path from the root ("0/2/1").
	Path string
	Err  error
}

func (e *LoweringError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("codegen: lower node %q at %s: %v", e.NodeID, e.Path, e.Err)
}

func (e *LoweringError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
