package ir

import (
	"bytes"
	"encoding/json"
)

// Node kinds. They match expr.Kind for the corresponding node type.
const (
	KindDyadic    = "dyadic"
	KindPath      = "path"
	KindLiteral   = "literal"
	KindParameter = "parameter"
	KindInvoke    = "invoke"
	KindVariable  = "variable"
	KindSubquery  = "subquery"
	KindCompound  = "compound"

	// KindRef names another fragment by its name field. References are
	// inlined before decoding; see compiler.ResolveReferences.
	KindRef = "ref"
)

// TypeChar marks a literal whose single-character string value is a
// character constant rather than a string.
const TypeChar = "char"

// Node is the serialized form of one tree node.
//
// Fields by kind:
//
//	dyadic     op, left, right
//	path       path, id
//	literal    value, type
//	parameter  name, position
//	invoke     target, operation, args
//	variable   id
//	subquery   keyword, inner
//	compound   items
//	ref        name (fragment files only)
//
// A literal without a value is the null literal. A parameter without a
// position is named.
type Node struct {
	Kind string `json:"kind" yaml:"kind"`

	Op    string `json:"op,omitempty" yaml:"op,omitempty"`
	Left  *Node  `json:"left,omitempty" yaml:"left,omitempty"`
	Right *Node  `json:"right,omitempty" yaml:"right,omitempty"`

	Path *Node  `json:"path,omitempty" yaml:"path,omitempty"`
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`

	Value any    `json:"value,omitempty" yaml:"value,omitempty"`
	Type  string `json:"type,omitempty" yaml:"type,omitempty"`

	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Position *int   `json:"position,omitempty" yaml:"position,omitempty"`

	Target    *Node   `json:"target,omitempty" yaml:"target,omitempty"`
	Operation string  `json:"operation,omitempty" yaml:"operation,omitempty"`
	Args      []*Node `json:"args,omitempty" yaml:"args,omitempty"`

	Keyword string `json:"keyword,omitempty" yaml:"keyword,omitempty"`
	Inner   *Node  `json:"inner,omitempty" yaml:"inner,omitempty"`

	Items []*Node `json:"items,omitempty" yaml:"items,omitempty"`
}

// MarshalJSON writes float literals with a decimal point or exponent
// ("3.0", not "3") so that decoding with UseNumber and NormalizeValue gives
// back a float and the TreeID is unchanged.
func (n Node) MarshalJSON() ([]byte, error) {
	type plain Node
	p := plain(n)
	switch v := n.Value.(type) {
	case float64:
		text, err := FloatText(v, 64)
		if err != nil {
			return nil, err
		}
		p.Value = json.Number(text)
	case float32:
		text, err := FloatText(float64(v), 32)
		if err != nil {
			return nil, err
		}
		p.Value = json.Number(text)
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(p); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Fragment is a named tree, the unit of rendering in fragment files and
// the render log.
type Fragment struct {
	Name string `json:"name" yaml:"name"`
	Tree *Node  `json:"tree" yaml:"tree"`
}

// IntPtr returns a pointer to n, for building parameter nodes.
func IntPtr(n int) *int {
	return &n
}
