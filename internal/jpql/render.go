package jpql

import (
	"fmt"
	"strings"

	"github.com/roach88/jpqlc/internal/expr"
	"github.com/roach88/jpqlc/internal/ir"
)

// Infix text for the operators rendered as (left op right).
var operatorText = map[expr.Operator]string{
	expr.OpAnd:   "AND",
	expr.OpOr:    "OR",
	expr.OpAdd:   "+",
	expr.OpSub:   "-",
	expr.OpMul:   "*",
	expr.OpDiv:   "/",
	expr.OpEq:    "=",
	expr.OpGt:    ">",
	expr.OpLt:    "<",
	expr.OpGtEq:  ">=",
	expr.OpLtEq:  "<=",
	expr.OpNotEq: "<>",
}

// Render converts an expression tree to JPQL text.
//
// Render is pure: the same tree always yields byte-identical text, and it
// is safe to call concurrently. It fails fast on the first unsupported or
// malformed construct and never returns partial output.
func Render(e expr.Expression) (string, error) {
	return render(e)
}

func render(e expr.Expression) (string, error) {
	if expr.IsNil(e) {
		return "", malformed("expression", "missing expression")
	}

	switch n := e.(type) {
	case *expr.Dyadic:
		return renderDyadic(n)
	case *expr.Primary:
		return renderPrimary(n)
	case *expr.Literal:
		return renderLiteral(n)
	case *expr.Parameter:
		return renderParameter(n)
	case *expr.Invoke:
		return renderInvoke(n)
	case *expr.Variable:
		if n.Identifier == "" {
			return "", malformed("variable", "identifier is empty")
		}
		return n.Identifier, nil
	case *expr.Subquery:
		return renderSubquery(n)
	default:
		return "", unsupportedNode(fmt.Sprintf("%T", e))
	}
}

// renderDyadic renders a binary operator node.
// CAST and the null-comparison rewrite are checked before the generic
// infix form.
func renderDyadic(d *expr.Dyadic) (string, error) {
	if !d.Op.Valid() {
		return "", unsupportedOperator(d.Op.String())
	}

	left, err := render(d.Left)
	if err != nil {
		return "", err
	}

	switch d.Op {
	case expr.OpCast:
		typeName, ok := expr.CastTypeName(d)
		if !ok {
			return "", malformed("CAST", "right operand must be a type-name literal, got %s", expr.Kind(d.Right))
		}
		return "TREAT(" + left + " AS " + typeName + ")", nil
	case expr.OpDistinct:
		return "DISTINCT " + left, nil
	}

	if isNullLiteral(d.Right) {
		switch d.Op {
		case expr.OpEq:
			return "(" + left + " IS NULL)", nil
		case expr.OpNotEq:
			return "(" + left + " IS NOT NULL)", nil
		}
	}

	if expr.IsNil(d.Right) {
		return "(" + left + ")", nil
	}

	right, err := render(d.Right)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + operatorText[d.Op] + " " + right + ")", nil
}

func isNullLiteral(e expr.Expression) bool {
	lit, ok := e.(*expr.Literal)
	return ok && lit != nil && lit.Value == nil
}

func renderPrimary(p *expr.Primary) (string, error) {
	if p.Identifier == "" {
		return "", malformed("path", "identifier is empty")
	}
	if expr.IsNil(p.Path) {
		return p.Identifier, nil
	}
	path, err := render(p.Path)
	if err != nil {
		return "", err
	}
	return path + "." + p.Identifier, nil
}

// renderLiteral renders a constant. Strings and characters are quoted with
// embedded quotes doubled; nil renders as NULL. Floats keep a decimal point
// so 2.0 does not turn into the integer literal 2.
func renderLiteral(l *expr.Literal) (string, error) {
	switch v := l.Value.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quote(v), nil
	case expr.Char:
		return quote(string(rune(v))), nil
	case bool:
		if v {
			return "TRUE", nil
		}
		return "FALSE", nil
	case float64:
		return floatLiteral(v, 64)
	case float32:
		return floatLiteral(float64(v), 32)
	default:
		return fmt.Sprint(v), nil
	}
}

func floatLiteral(f float64, bitSize int) (string, error) {
	s, err := ir.FloatText(f, bitSize)
	if err != nil {
		return "", malformed("literal", "%v", err)
	}
	return s, nil
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func renderParameter(p *expr.Parameter) (string, error) {
	if p.Position >= 0 {
		return fmt.Sprintf("?%d", p.Position), nil
	}
	if p.Name == "" {
		return "", malformed("parameter", "named parameter has no name")
	}
	return ":" + p.Name, nil
}

func renderSubquery(s *expr.Subquery) (string, error) {
	if strings.TrimSpace(s.Keyword) == "" {
		return "", malformed("subquery", "keyword is empty")
	}
	inner, err := render(s.Inner)
	if err != nil {
		return "", err
	}
	return s.Keyword + " " + inner, nil
}
