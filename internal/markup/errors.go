package markup

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a ParseError.
type ErrorKind int

const (
	UnknownTag ErrorKind = iota + 1
	AttributeParseFailure
	SchemaViolation
	Malformed
)

func (k ErrorKind) String() string {
	switch k {
	case UnknownTag:
		return "unknown tag"
	case AttributeParseFailure:
		return "attribute parse failure"
	case SchemaViolation:
		return "schema violation"
	case Malformed:
		return "malformed markup"
	}
	return "parse error"
}

// ParseError is returned by every decoding entry point of the package.
type ParseError struct {
	Kind ErrorKind
	Tag  string
	Attr string
	Err  error
}

func (e *ParseError) Error() string {
	msg := e.Kind.String()
	if e.Tag != "" {
		msg += fmt.Sprintf(" <%s>", e.Tag)
	}
	if e.Attr != "" {
		msg += fmt.Sprintf(" %s", e.Attr)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsKind reports whether err is a ParseError of kind k.
func IsKind(err error, k ErrorKind) bool {
	var pe *ParseError
	return errors.As(err, &pe) && pe.Kind == k
}
