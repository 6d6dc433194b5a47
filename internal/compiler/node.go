package compiler

import (
	"fmt"
	"strings"

	"cuelang.org/go/cue"

	"github.com/roach88/jpqlc/internal/ir"
)

// CompileNode parses a CUE value into a node document.
// Uses CUE SDK's Go API directly (not CLI subprocess).
//
// The value must be a struct shaped like ir.Node:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`{kind: "path", id: "age"}`)
//	node, err := CompileNode(v)
//
// Unknown fields are rejected so typos surface at compile time instead of
// silently producing a different tree.
func CompileNode(v cue.Value) (*ir.Node, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(err)
	}
	return compileNode(v, "tree")
}

func compileNode(v cue.Value, field string) (*ir.Node, error) {
	if v.IncompleteKind() != cue.StructKind {
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("node must be a struct, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}

	n := &ir.Node{}
	scalars := map[string]*string{
		"kind":      &n.Kind,
		"op":        &n.Op,
		"id":        &n.ID,
		"type":      &n.Type,
		"name":      &n.Name,
		"operation": &n.Operation,
		"keyword":   &n.Keyword,
	}
	children := map[string]**ir.Node{
		"left":   &n.Left,
		"right":  &n.Right,
		"path":   &n.Path,
		"target": &n.Target,
		"inner":  &n.Inner,
	}
	lists := map[string]*[]*ir.Node{
		"args":  &n.Args,
		"items": &n.Items,
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, fromCUE(err)
	}

	for iter.Next() {
		label := iter.Label()
		fv := iter.Value()
		sub := field + "." + label

		if dst, ok := scalars[label]; ok {
			s, err := fv.String()
			if err != nil {
				return nil, &CompileError{Field: sub, Message: "must be a string", Pos: fv.Pos()}
			}
			*dst = s
			continue
		}
		if dst, ok := children[label]; ok {
			child, err := compileNode(fv, sub)
			if err != nil {
				return nil, err
			}
			*dst = child
			continue
		}
		if dst, ok := lists[label]; ok {
			list, err := compileList(fv, sub)
			if err != nil {
				return nil, err
			}
			*dst = list
			continue
		}

		switch label {
		case "value":
			val, err := compileValue(fv, sub)
			if err != nil {
				return nil, err
			}
			n.Value = val
		case "position":
			pos, err := fv.Int64()
			if err != nil {
				return nil, &CompileError{Field: sub, Message: "must be an integer", Pos: fv.Pos()}
			}
			n.Position = ir.IntPtr(int(pos))
		default:
			return nil, &CompileError{
				Field:   sub,
				Message: fmt.Sprintf("unknown node field %q", label),
				Pos:     fv.Pos(),
			}
		}
	}

	if n.Kind == "" {
		return nil, &CompileError{Field: field + ".kind", Message: "kind is required", Pos: v.Pos()}
	}
	return n, nil
}

func compileList(v cue.Value, field string) ([]*ir.Node, error) {
	iter, err := v.List()
	if err != nil {
		return nil, &CompileError{Field: field, Message: "must be a list of nodes", Pos: v.Pos()}
	}
	var out []*ir.Node
	for i := 0; iter.Next(); i++ {
		child, err := compileNode(iter.Value(), fmt.Sprintf("%s[%d]", field, i))
		if err != nil {
			return nil, err
		}
		out = append(out, child)
	}
	return out, nil
}

// compileValue extracts a concrete literal value. Floats are allowed here:
// they are literal constants, not identity-bearing fields.
func compileValue(v cue.Value, field string) (any, error) {
	switch v.Kind() {
	case cue.NullKind:
		return nil, nil
	case cue.StringKind:
		return v.String()
	case cue.BoolKind:
		return v.Bool()
	case cue.IntKind:
		n, err := v.Int64()
		if err != nil {
			return nil, fromCUE(err)
		}
		return n, nil
	case cue.FloatKind:
		f, err := v.Float64()
		if err != nil {
			return nil, fromCUE(err)
		}
		return f, nil
	default:
		return nil, &CompileError{
			Field:   field,
			Message: fmt.Sprintf("value must be a concrete scalar, got %v", v.IncompleteKind()),
			Pos:     v.Pos(),
		}
	}
}

// fragmentName returns the label a fragment was declared under.
// Quoted labels (fragment: "active-users": {...}) are unquoted.
func fragmentName(v cue.Value) string {
	selectors := v.Path().Selectors()
	if len(selectors) == 0 {
		return ""
	}
	return strings.Trim(selectors[len(selectors)-1].String(), `"`)
}
