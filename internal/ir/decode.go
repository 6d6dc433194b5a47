package ir

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/roach88/jpqlc/internal/expr"
)

// DecodeError reports a node document that cannot be turned into a tree.
// Path locates the node, e.g. "$.left.args[1]".
type DecodeError struct {
	Path    string
	Message string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Decode converts a node document into an expression tree.
//
// Decode checks the document's shape (known kinds, operators and value
// types) but not the tree's structural invariants: a CAST without a type
// name decodes fine and fails later in expr.Validate or at render time.
// That keeps render failures observable from fragment files.
func Decode(n *Node) (expr.Selection, error) {
	if n == nil {
		return nil, &DecodeError{Path: "$", Message: "missing node"}
	}
	if n.Kind == KindCompound {
		items := make([]expr.Expression, 0, len(n.Items))
		for i, item := range n.Items {
			e, err := decodeExpr(item, fmt.Sprintf("$[%d]", i))
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		return expr.NewCompoundSelection(items...), nil
	}
	return decodeExpr(n, "$")
}

// DecodeExpression is Decode for documents that must not be compound.
func DecodeExpression(n *Node) (expr.Expression, error) {
	return decodeExpr(n, "$")
}

func decodeExpr(n *Node, path string) (expr.Expression, error) {
	if n == nil {
		return nil, &DecodeError{Path: path, Message: "missing node"}
	}

	switch n.Kind {
	case KindDyadic:
		op, ok := expr.ParseOperator(n.Op)
		if !ok {
			return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unknown operator %q", n.Op)}
		}
		left, err := decodeOptional(n.Left, path+".left")
		if err != nil {
			return nil, err
		}
		right, err := decodeOptional(n.Right, path+".right")
		if err != nil {
			return nil, err
		}
		return &expr.Dyadic{Left: left, Op: op, Right: right}, nil

	case KindPath:
		parent, err := decodeOptional(n.Path, path+".path")
		if err != nil {
			return nil, err
		}
		return &expr.Primary{Path: parent, Identifier: n.ID}, nil

	case KindLiteral:
		return decodeLiteral(n, path)

	case KindParameter:
		p := &expr.Parameter{Name: n.Name, Position: expr.NoPosition}
		if n.Position != nil {
			if *n.Position < 0 {
				return nil, &DecodeError{Path: path + ".position", Message: "position must be >= 0"}
			}
			p.Position = *n.Position
		}
		return p, nil

	case KindInvoke:
		target, err := decodeOptional(n.Target, path+".target")
		if err != nil {
			return nil, err
		}
		var args []expr.Expression
		for i, a := range n.Args {
			arg, err := decodeExpr(a, fmt.Sprintf("%s.args[%d]", path, i))
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &expr.Invoke{Target: target, Operation: n.Operation, Arguments: args}, nil

	case KindVariable:
		return &expr.Variable{Identifier: n.ID}, nil

	case KindSubquery:
		inner, err := decodeOptional(n.Inner, path+".inner")
		if err != nil {
			return nil, err
		}
		return &expr.Subquery{Keyword: n.Keyword, Inner: inner}, nil

	case KindCompound:
		return nil, &DecodeError{Path: path, Message: "compound selection is only allowed at the root"}

	case KindRef:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unresolved fragment reference %q", n.Name)}

	case "":
		return nil, &DecodeError{Path: path, Message: "missing kind"}

	default:
		return nil, &DecodeError{Path: path, Message: fmt.Sprintf("unknown kind %q", n.Kind)}
	}
}

func decodeOptional(n *Node, path string) (expr.Expression, error) {
	if n == nil {
		return nil, nil
	}
	return decodeExpr(n, path)
}

func decodeLiteral(n *Node, path string) (expr.Expression, error) {
	v, err := NormalizeValue(n.Value)
	if err != nil {
		return nil, errors.Wrapf(err, "%s.value", path)
	}

	switch n.Type {
	case "":
		return &expr.Literal{Value: v}, nil
	case TypeChar:
		s, ok := v.(string)
		if !ok || utf8.RuneCountInString(s) != 1 {
			return nil, &DecodeError{Path: path + ".value", Message: "char literal must be a single-character string"}
		}
		r, _ := utf8.DecodeRuneInString(s)
		return &expr.Literal{Value: expr.Char(r)}, nil
	default:
		return nil, &DecodeError{Path: path + ".type", Message: fmt.Sprintf("unknown literal type %q", n.Type)}
	}
}
