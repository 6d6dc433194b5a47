package expr

import (
	"fmt"
	"strings"
)

// Validation error codes.
const (
	ErrCodeNilNode          = "E201" // required child expression is nil
	ErrCodeUnknownNode      = "E202" // node type outside the closed variant set
	ErrCodeInvalidOperator  = "E203" // Dyadic operator not in the known set
	ErrCodeInvalidCast      = "E204" // CAST right side is not a type-name Literal
	ErrCodeEmptyIdentifier  = "E205" // Primary or Variable without identifier
	ErrCodeInvalidParameter = "E206" // parameter both or neither named and positional
	ErrCodeEmptyOperation   = "E207" // Invoke without operation name
	ErrCodeEmptyKeyword     = "E208" // Subquery without keyword
)

// ValidationError describes one structural invariant violation.
type ValidationError struct {
	Code    string `json:"code"`
	Path    string `json:"path"`    // location in the tree, e.g. "$.left.args[1]"
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// Validate checks the structural invariants of a whole tree.
//
// Every violation is collected; an empty result means the tree is
// well-formed. Validate is a pure function with no side effects.
func Validate(sel Selection) []*ValidationError {
	v := &validator{}
	v.validateSelection(sel, "$")
	return v.errs
}

// Check validates a tree and returns the first violation, or nil.
func Check(sel Selection) error {
	if errs := Validate(sel); len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// checkShallow validates a single node's own invariants without descending
// into its children beyond checking they are present.
func checkShallow(e Expression) error {
	v := &validator{shallow: true}
	v.validateExpr(e, "$")
	if len(v.errs) > 0 {
		return v.errs[0]
	}
	return nil
}

// validator accumulates errors during traversal.
type validator struct {
	errs    []*ValidationError
	shallow bool
}

func (v *validator) add(code, path, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{
		Code:    code,
		Path:    path,
		Message: fmt.Sprintf(format, args...),
	})
}

func (v *validator) validateSelection(sel Selection, path string) {
	if c, ok := sel.(*CompoundSelection); ok {
		if c == nil {
			v.add(ErrCodeNilNode, path, "nil compound selection")
			return
		}
		for i, item := range c.items {
			v.validateExpr(item, fmt.Sprintf("%s[%d]", path, i))
		}
		return
	}
	if sel == nil {
		v.add(ErrCodeNilNode, path, "nil selection")
		return
	}
	e, ok := sel.(Expression)
	if !ok {
		v.add(ErrCodeUnknownNode, path, "unsupported selection type %T", sel)
		return
	}
	v.validateExpr(e, path)
}

// child validates a required child expression.
func (v *validator) child(e Expression, path string) {
	if IsNil(e) {
		v.add(ErrCodeNilNode, path, "expression is required")
		return
	}
	if !v.shallow {
		v.validateExpr(e, path)
	}
}

// optional validates a child expression that may be absent.
func (v *validator) optional(e Expression, path string) {
	if IsNil(e) || v.shallow {
		return
	}
	v.validateExpr(e, path)
}

func (v *validator) validateExpr(e Expression, path string) {
	if IsNil(e) {
		v.add(ErrCodeNilNode, path, "nil expression")
		return
	}

	switch n := e.(type) {
	case *Dyadic:
		v.validateDyadic(n, path)
	case *Primary:
		if n.Identifier == "" {
			v.add(ErrCodeEmptyIdentifier, path, "path identifier is empty")
		}
		v.optional(n.Path, path+".path")
	case *Literal:
		// Any value is acceptable.
	case *Parameter:
		v.validateParameter(n, path)
	case *Invoke:
		if strings.TrimSpace(n.Operation) == "" {
			v.add(ErrCodeEmptyOperation, path, "invoke operation is empty")
		}
		v.optional(n.Target, path+".target")
		for i, arg := range n.Arguments {
			v.child(arg, fmt.Sprintf("%s.args[%d]", path, i))
		}
	case *Variable:
		if n.Identifier == "" {
			v.add(ErrCodeEmptyIdentifier, path, "variable identifier is empty")
		}
	case *Subquery:
		if strings.TrimSpace(n.Keyword) == "" {
			v.add(ErrCodeEmptyKeyword, path, "subquery keyword is empty")
		}
		v.child(n.Inner, path+".inner")
	default:
		v.add(ErrCodeUnknownNode, path, "unsupported node type %T", e)
	}
}

func (v *validator) validateDyadic(d *Dyadic, path string) {
	if !d.Op.Valid() {
		v.add(ErrCodeInvalidOperator, path, "unknown operator %s", d.Op)
	}
	v.child(d.Left, path+".left")

	if d.Op != OpCast {
		v.optional(d.Right, path+".right")
		return
	}
	if _, ok := CastTypeName(d); !ok {
		v.add(ErrCodeInvalidCast, path+".right", "CAST requires a Literal type name, got %s", Kind(d.Right))
	}
}

func (v *validator) validateParameter(p *Parameter, path string) {
	switch {
	case p.Position >= 0 && p.Name != "":
		v.add(ErrCodeInvalidParameter, path, "parameter %q is both named and positional (position %d)", p.Name, p.Position)
	case p.Position < 0 && p.Name == "":
		v.add(ErrCodeInvalidParameter, path, "parameter is neither named nor positional")
	}
}

// CastTypeName returns the type name carried by a CAST node's right
// operand. ok is false when the right operand is not a non-empty string
// Literal.
func CastTypeName(d *Dyadic) (string, bool) {
	lit, isLit := d.Right.(*Literal)
	if !isLit || lit == nil {
		return "", false
	}
	name, isString := lit.Value.(string)
	if !isString || name == "" {
		return "", false
	}
	return name, true
}

// IsNil reports whether e is nil or a typed nil node pointer.
func IsNil(e Expression) bool {
	switch n := e.(type) {
	case nil:
		return true
	case *Dyadic:
		return n == nil
	case *Primary:
		return n == nil
	case *Literal:
		return n == nil
	case *Parameter:
		return n == nil
	case *Invoke:
		return n == nil
	case *Variable:
		return n == nil
	case *Subquery:
		return n == nil
	default:
		return false
	}
}
