package compiler

import (
	"cuelang.org/go/cue"

	"github.com/roach88/jpqlc/internal/ir"
)

// CompileFragment parses one fragment declaration.
//
// The CUE value should be the fragment struct itself, e.g.:
//
//	ctx := cuecontext.New()
//	v := ctx.CompileString(`fragment: adults: {kind: "dyadic", op: "GT", ...}`)
//	frag, err := CompileFragment(v.LookupPath(cue.ParsePath("fragment.adults")))
func CompileFragment(v cue.Value) (*ir.Fragment, error) {
	if err := v.Err(); err != nil {
		return nil, fromCUE(err)
	}

	name := fragmentName(v)
	if name == "" {
		return nil, &CompileError{Field: "fragment", Message: "fragment name is required", Pos: v.Pos()}
	}

	tree, err := compileNode(v, "fragment."+name)
	if err != nil {
		return nil, err
	}
	return &ir.Fragment{Name: name, Tree: tree}, nil
}

// CompileFragments compiles every fragment under the top-level "fragment"
// field of v, in declaration order. A missing field yields no fragments.
func CompileFragments(v cue.Value) ([]ir.Fragment, error) {
	fragVal := v.LookupPath(cue.ParsePath("fragment"))
	if !fragVal.Exists() {
		return nil, nil
	}

	iter, err := fragVal.Fields()
	if err != nil {
		return nil, fromCUE(err)
	}

	var frags []ir.Fragment
	for iter.Next() {
		frag, err := CompileFragment(iter.Value())
		if err != nil {
			return nil, err
		}
		frags = append(frags, *frag)
	}
	return frags, nil
}
