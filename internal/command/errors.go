package command

import (
	"errors"
	"fmt"

	"github.com/dgallion1/blockdoc/internal/doctree"
	"github.com/dgallion1/blockdoc/internal/markup"
)

var (
	// ErrMarkNotAllowed is returned when formatting targets text whose block
	// does not accept marks.
	ErrMarkNotAllowed = errors.New("mark not allowed here")

	// ErrUnknownCommand is returned by Decode for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrNoTarget is returned when no node of the kind a command edits is
	// found at its position or range.
	ErrNoTarget = errors.New("no target node")

	// ErrNotReorderable is returned when moving a node whose kind cannot be
	// dragged.
	ErrNotReorderable = errors.New("node is not reorderable")

	// ErrCharacterLimit is returned when a run would exceed the character
	// limit.
	ErrCharacterLimit = errors.New("character limit exceeded")

	// ErrInvalidParams is returned for missing or malformed parameters.
	ErrInvalidParams = errors.New("invalid parameters")
)

// Code classifies a CommandError for the shell.
type Code string

const (
	CodeSchemaViolation Code = "schema_violation"
	CodeOutOfRange      Code = "out_of_range"
	CodeInvalidRange    Code = "invalid_range"
	CodeMarkNotAllowed  Code = "mark_not_allowed"
	CodeUnknownCommand  Code = "unknown_command"
	CodeInvalidParams   Code = "invalid_params"
	CodeParse           Code = "parse_error"
	CodeNoTarget        Code = "no_target"
	CodeNotReorderable  Code = "not_reorderable"
	CodeCharacterLimit  Code = "character_limit"
	CodeInternal        Code = "internal"
)

// CommandError wraps the failure of one command in a chain.
type CommandError struct {
	Command string
	Step    int
	Code    Code
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s (step %d): %s: %v", e.Command, e.Step, e.Code, e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// Wrap classifies err into a CommandError for command name.
func Wrap(name string, step int, err error) *CommandError {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce
	}
	return &CommandError{Command: name, Step: step, Code: classify(err), Err: err}
}

func classify(err error) Code {
	var (
		sv *doctree.SchemaViolation
		pe *markup.ParseError
	)
	switch {
	case errors.As(err, &sv):
		return CodeSchemaViolation
	case errors.As(err, &pe):
		return CodeParse
	case errors.Is(err, doctree.ErrOutOfRange):
		return CodeOutOfRange
	case errors.Is(err, doctree.ErrInvalidRange):
		return CodeInvalidRange
	case errors.Is(err, ErrMarkNotAllowed):
		return CodeMarkNotAllowed
	case errors.Is(err, ErrUnknownCommand):
		return CodeUnknownCommand
	case errors.Is(err, ErrInvalidParams):
		return CodeInvalidParams
	case errors.Is(err, ErrNoTarget), errors.Is(err, doctree.ErrNoNode):
		return CodeNoTarget
	case errors.Is(err, ErrNotReorderable):
		return CodeNotReorderable
	case errors.Is(err, ErrCharacterLimit):
		return CodeCharacterLimit
	}
	return CodeInternal
}

// CodeOf returns the code of a CommandError in err's chain, or "".
func CodeOf(err error) Code {
	var ce *CommandError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}
