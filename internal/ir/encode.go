package ir

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/roach88/jpqlc/internal/expr"
)

// Encode converts an expression tree into its node document.
// Decode(Encode(t)) reproduces t up to literal value normalization
// (int becomes int64, float32 becomes float64).
func Encode(sel expr.Selection) (*Node, error) {
	if c, ok := sel.(*expr.CompoundSelection); ok {
		items := c.Items()
		n := &Node{Kind: KindCompound, Items: make([]*Node, 0, len(items))}
		for i, item := range items {
			child, err := encodeExpr(item)
			if err != nil {
				return nil, errors.Wrapf(err, "item %d", i)
			}
			n.Items = append(n.Items, child)
		}
		return n, nil
	}
	e, ok := sel.(expr.Expression)
	if !ok {
		return nil, fmt.Errorf("unsupported selection type: %T", sel)
	}
	return encodeExpr(e)
}

func encodeExpr(e expr.Expression) (*Node, error) {
	if expr.IsNil(e) {
		return nil, errors.New("cannot encode nil expression")
	}

	switch n := e.(type) {
	case *expr.Dyadic:
		if !n.Op.Valid() {
			return nil, fmt.Errorf("unsupported operator: %s", n.Op)
		}
		left, err := encodeOptional(n.Left)
		if err != nil {
			return nil, errors.Wrap(err, "left")
		}
		right, err := encodeOptional(n.Right)
		if err != nil {
			return nil, errors.Wrap(err, "right")
		}
		return &Node{Kind: KindDyadic, Op: n.Op.String(), Left: left, Right: right}, nil

	case *expr.Primary:
		parent, err := encodeOptional(n.Path)
		if err != nil {
			return nil, errors.Wrap(err, "path")
		}
		return &Node{Kind: KindPath, Path: parent, ID: n.Identifier}, nil

	case *expr.Literal:
		if c, ok := n.Value.(expr.Char); ok {
			return &Node{Kind: KindLiteral, Value: string(rune(c)), Type: TypeChar}, nil
		}
		v, err := NormalizeValue(n.Value)
		if err != nil {
			return nil, err
		}
		return &Node{Kind: KindLiteral, Value: v}, nil

	case *expr.Parameter:
		out := &Node{Kind: KindParameter, Name: n.Name}
		if n.Position >= 0 {
			out.Position = IntPtr(n.Position)
		}
		return out, nil

	case *expr.Invoke:
		target, err := encodeOptional(n.Target)
		if err != nil {
			return nil, errors.Wrap(err, "target")
		}
		out := &Node{Kind: KindInvoke, Target: target, Operation: n.Operation}
		for i, a := range n.Arguments {
			arg, err := encodeExpr(a)
			if err != nil {
				return nil, errors.Wrapf(err, "args[%d]", i)
			}
			out.Args = append(out.Args, arg)
		}
		return out, nil

	case *expr.Variable:
		return &Node{Kind: KindVariable, ID: n.Identifier}, nil

	case *expr.Subquery:
		inner, err := encodeOptional(n.Inner)
		if err != nil {
			return nil, errors.Wrap(err, "inner")
		}
		return &Node{Kind: KindSubquery, Keyword: n.Keyword, Inner: inner}, nil

	default:
		return nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

func encodeOptional(e expr.Expression) (*Node, error) {
	if expr.IsNil(e) {
		return nil, nil
	}
	return encodeExpr(e)
}
