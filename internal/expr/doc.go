// Package expr defines the typed expression tree that the JPQL renderer
// consumes.
//
// A tree is built bottom-up by a query builder and handed to
// jpql.Render once finalized. Nodes own their children exclusively (a tree,
// never a DAG) and are treated as immutable after construction.
//
// SEALED INTERFACES:
//
// Expression is sealed with an unexported marker method implemented on
// pointer receivers. Only the node types in this package implement it,
// which lets the renderer use an exhaustive type switch:
//
//	switch n := e.(type) {
//	case *Dyadic:
//	case *Primary:
//	case *Literal:
//	case *Parameter:
//	case *Invoke:
//	case *Variable:
//	case *Subquery:
//	default:
//	    // a node from a newer builder than this renderer understands
//	}
//
// CompoundSelection is deliberately not an Expression. It is an ordered
// aggregate of independently rendered items and can only appear where a
// Selection is accepted.
//
// CONSTRUCTION:
//
// Nodes may be built as struct literals or through the New* constructors.
// The constructors enforce the structural invariants up front (for example a
// CAST whose right operand is not a type-name Literal is rejected). Trees
// built as literals can be checked with Validate; the renderer re-checks the
// same invariants defensively.
package expr
