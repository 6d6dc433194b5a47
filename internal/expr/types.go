package expr

import (
	"fmt"
	"strings"
)

// Selection is anything that may appear in a SELECT list: a single
// Expression or a CompoundSelection.
type Selection interface {
	// IsCompound reports whether the selection is a multi-valued tuple
	// projection.
	IsCompound() bool
}

// Expression is a renderable node of the expression tree.
//
// This is a sealed interface - only the pointer node types in this package
// implement it.
type Expression interface {
	Selection
	expressionNode() // Marker method - seals interface to this package
}

// Operator is the operator carried by a Dyadic node.
type Operator int

// Operators understood by the renderer. The zero value is not a valid
// operator.
const (
	OpAdd Operator = iota + 1
	OpSub
	OpMul
	OpDiv
	OpAnd
	OpOr
	OpEq
	OpNotEq
	OpGt
	OpLt
	OpGtEq
	OpLtEq
	OpCast
	OpDistinct
)

var operatorNames = [...]string{
	OpAdd:      "ADD",
	OpSub:      "SUB",
	OpMul:      "MUL",
	OpDiv:      "DIV",
	OpAnd:      "AND",
	OpOr:       "OR",
	OpEq:       "EQ",
	OpNotEq:    "NOTEQ",
	OpGt:       "GT",
	OpLt:       "LT",
	OpGtEq:     "GTEQ",
	OpLtEq:     "LTEQ",
	OpCast:     "CAST",
	OpDistinct: "DISTINCT",
}

// Valid reports whether op is one of the known operators.
func (op Operator) Valid() bool {
	return op >= OpAdd && op <= OpDistinct
}

func (op Operator) String() string {
	if op.Valid() {
		return operatorNames[op]
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// ParseOperator looks up an operator by its name (ADD, NOTEQ, ...).
// Matching is case-insensitive.
func ParseOperator(name string) (Operator, bool) {
	upper := strings.ToUpper(strings.TrimSpace(name))
	for op := OpAdd; op <= OpDistinct; op++ {
		if operatorNames[op] == upper {
			return op, true
		}
	}
	return 0, false
}

// Dyadic is a binary operator node.
//
// Right is nil for unary-like operators (DISTINCT). For OpCast, Right must
// be a *Literal whose value is the target type name.
type Dyadic struct {
	Left  Expression
	Op    Operator
	Right Expression
}

// Primary is a navigable attribute reference: Path.Identifier, or a bare
// Identifier when Path is nil.
type Primary struct {
	Path       Expression
	Identifier string
}

// Char is a single-character literal value. It renders quoted like a string.
type Char rune

// Literal holds a constant value: nil, string, Char, bool, or any other
// printable value (numbers, enums, fmt.Stringer).
type Literal struct {
	Value any
}

// NoPosition marks a Parameter as named rather than positional.
const NoPosition = -1

// Parameter is a query parameter. Position >= 0 denotes a positional
// parameter (?1); otherwise the parameter is named (:name).
type Parameter struct {
	Name     string
	Position int
}

// IsPositional reports whether the parameter is positional.
func (p *Parameter) IsPositional() bool {
	return p.Position >= 0
}

// Invoke is a function or method call. Operation is matched
// case-insensitively against the renderer's function catalog; argument
// order is significant per operation.
type Invoke struct {
	Target    Expression
	Operation string
	Arguments []Expression
}

// Variable is a bare symbolic name, such as a correlation variable.
type Variable struct {
	Identifier string
}

// Subquery prefixes an inner expression with a quantifier or existence
// keyword (ANY, ALL, SOME, EXISTS).
type Subquery struct {
	Keyword string
	Inner   Expression
}

func (*Dyadic) expressionNode()    {}
func (*Primary) expressionNode()   {}
func (*Literal) expressionNode()   {}
func (*Parameter) expressionNode() {}
func (*Invoke) expressionNode()    {}
func (*Variable) expressionNode()  {}
func (*Subquery) expressionNode()  {}

func (*Dyadic) IsCompound() bool    { return false }
func (*Primary) IsCompound() bool   { return false }
func (*Literal) IsCompound() bool   { return false }
func (*Parameter) IsCompound() bool { return false }
func (*Invoke) IsCompound() bool    { return false }
func (*Variable) IsCompound() bool  { return false }
func (*Subquery) IsCompound() bool  { return false }

// Kind returns a short name for the node's variant, used in diagnostics.
func Kind(s Selection) string {
	switch s.(type) {
	case nil:
		return "nil"
	case *Dyadic:
		return "dyadic"
	case *Primary:
		return "path"
	case *Literal:
		return "literal"
	case *Parameter:
		return "parameter"
	case *Invoke:
		return "invoke"
	case *Variable:
		return "variable"
	case *Subquery:
		return "subquery"
	case *CompoundSelection:
		return "compound"
	default:
		return fmt.Sprintf("%T", s)
	}
}
