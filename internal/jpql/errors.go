package jpql

import (
	"errors"
	"fmt"
)

// Sentinel error kinds. Every error returned by the renderer wraps exactly
// one of these; use errors.Is to test for a kind.
var (
	// ErrUnsupportedNodeKind indicates a node type outside the closed
	// variant set, usually a builder/renderer version mismatch.
	ErrUnsupportedNodeKind = errors.New("unsupported node kind")

	// ErrUnsupportedOperator indicates a Dyadic operator outside the known
	// enumeration.
	ErrUnsupportedOperator = errors.New("unsupported operator")

	// ErrUnsupportedFunction indicates an Invoke operation that matches no
	// catalog entry.
	ErrUnsupportedFunction = errors.New("unsupported function")

	// ErrMalformedNode indicates a known node that violates a structural
	// invariant (missing operand, CAST without type name, ...).
	ErrMalformedNode = errors.New("malformed node")
)

// Stable kind names, used by the render log and conformance scenarios.
const (
	KindUnsupportedNodeKind = "UnsupportedNodeKind"
	KindUnsupportedOperator = "UnsupportedOperator"
	KindUnsupportedFunction = "UnsupportedFunction"
	KindMalformedNode       = "MalformedNode"
)

// RenderError is returned when a tree cannot be rendered.
//
// Subject names the offending construct (operator, function name or node
// type) so callers can report it against the original query source.
type RenderError struct {
	Kind    error  // one of the Err* sentinels
	Subject string // offending operator, function or node type
	Message string // optional detail
}

// Error implements the error interface.
func (e *RenderError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%v %s: %s", e.Kind, e.Subject, e.Message)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Subject)
}

// Unwrap returns the sentinel kind.
func (e *RenderError) Unwrap() error {
	return e.Kind
}

// ErrorKind returns the stable kind name of a render error, or "" when err
// is nil or not a render error.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrUnsupportedNodeKind):
		return KindUnsupportedNodeKind
	case errors.Is(err, ErrUnsupportedOperator):
		return KindUnsupportedOperator
	case errors.Is(err, ErrUnsupportedFunction):
		return KindUnsupportedFunction
	case errors.Is(err, ErrMalformedNode):
		return KindMalformedNode
	default:
		return ""
	}
}

func unsupportedNode(subject string) error {
	return &RenderError{Kind: ErrUnsupportedNodeKind, Subject: subject}
}

func unsupportedOperator(subject string) error {
	return &RenderError{Kind: ErrUnsupportedOperator, Subject: subject}
}

func unsupportedFunction(subject string) error {
	return &RenderError{Kind: ErrUnsupportedFunction, Subject: subject}
}

func malformed(subject, format string, args ...any) error {
	return &RenderError{Kind: ErrMalformedNode, Subject: subject, Message: fmt.Sprintf(format, args...)}
}
