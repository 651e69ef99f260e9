package doctree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dgallion1/blockdoc/internal/schema"
)

var (
	// ErrOutOfRange is returned for positions outside [0, Size()].
	ErrOutOfRange = errors.New("position out of range")

	// ErrInvalidRange is returned for from > to or ranges whose ends do not
	// share a container.
	ErrInvalidRange = errors.New("invalid range")

	// ErrNoNode is returned when no node starts at a position.
	ErrNoNode = errors.New("no node at position")
)

// SchemaViolation reports a mutation or construction that would break the
// registry's content, mark or attribute rules. Nothing is changed when it is
// returned.
type SchemaViolation struct {
	Kind      schema.NodeKind
	Attempted []schema.NodeKind
	Reason    string
}

func (e *SchemaViolation) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("schema violation in %s: %s", e.Kind, e.Reason)
	}
	names := make([]string, len(e.Attempted))
	for i, k := range e.Attempted {
		names[i] = k.Name()
	}
	return fmt.Sprintf("schema violation in %s: children [%s] do not match content", e.Kind, strings.Join(names, " "))
}

func outOfRange(p, size int) error {
	return fmt.Errorf("%w: %d not in [0, %d]", ErrOutOfRange, p, size)
}
