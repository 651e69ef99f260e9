package schema

import (
	"errors"
	"fmt"
)

var (
	// ErrFrozen is returned when registering into a registry already in use.
	ErrFrozen = errors.New("schema registry is frozen")

	// ErrUnknownKind is returned for kinds that were never registered.
	ErrUnknownKind = errors.New("unknown node kind")
)

// ConflictError reports a second registration of a kind with a different
// content pattern.
type ConflictError struct {
	Kind      NodeKind
	Existing  Pattern
	Attempted Pattern
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("schema conflict for %s: registered %q, attempted %q", e.Kind, e.Existing, e.Attempted)
}
