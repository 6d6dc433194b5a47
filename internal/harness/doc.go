// Package harness runs conformance scenarios against the JPQL renderer.
//
// A scenario is a YAML file listing cases. Each case carries a serialized
// tree and either the exact text it must render to or the error kind
// rendering must fail with:
//
//	name: null_comparisons
//	description: Comparisons against a null literal use IS [NOT] NULL
//	cases:
//	  - name: equals_null
//	    tree:
//	      kind: dyadic
//	      op: EQ
//	      left: {kind: path, id: deleted}
//	      right: {kind: literal}
//	    expect: (deleted IS NULL)
//	  - name: soundex
//	    tree:
//	      kind: invoke
//	      operation: soundex
//	      target: {kind: path, id: name}
//	    error: UnsupportedFunction
//
// Run renders every case in order and reports each mismatch. Every case is
// rendered twice; differing outcomes fail the case, since rendering must be
// a pure function of the tree.
//
// Snapshot produces a canonical JSON record of every case outcome, which
// RunWithGolden and the CLI's --update mode compare against golden files.
package harness
