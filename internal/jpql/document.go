package jpql

import (
	"github.com/roach88/jpqlc/internal/ir"
)

// KindInvalidDocument is the outcome kind for node documents that fail to
// decode. It is not a render error kind: the renderer never saw a tree.
const KindInvalidDocument = "InvalidDocument"

// Outcome is the result of rendering one serialized tree, in the shape the
// render log and conformance scenarios record.
type Outcome struct {
	Output       string `json:"output,omitempty"`
	ErrorKind    string `json:"error_kind,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
}

// Failed reports whether rendering did not produce text.
func (o Outcome) Failed() bool {
	return o.ErrorKind != ""
}

// RenderDocument decodes a node document and renders it as a selection.
func RenderDocument(n *ir.Node) Outcome {
	sel, err := ir.Decode(n)
	if err != nil {
		return Outcome{ErrorKind: KindInvalidDocument, ErrorMessage: err.Error()}
	}
	out, err := RenderSelection(sel)
	if err != nil {
		return Outcome{ErrorKind: ErrorKind(err), ErrorMessage: err.Error()}
	}
	return Outcome{Output: out}
}
