// Package jpql renders expr trees into JPQL text.
//
// The renderer is a pure recursive function over the closed node set in
// package expr:
//
//	[query builder] → [expr tree] → jpql.Render → "(p.age > 18)"
//
// It holds no state between calls, performs no I/O and is safe for
// concurrent use. Clause assembly (SELECT lists, WHERE, ORDER BY) is the
// caller's concern; RenderSelection and RenderQuery are thin helpers for
// callers that want the conventional layout.
//
// RENDERING RULES:
//
//	Dyadic CAST         TREAT(left AS TypeName)
//	Dyadic EQ  null     (left IS NULL)
//	Dyadic NOTEQ null   (left IS NOT NULL)
//	Dyadic DISTINCT     DISTINCT left
//	Dyadic other        (left op right), or (left) without a right operand
//	Primary             path.identifier or identifier
//	Parameter           ?position or :name
//	Literal             'text' (quotes doubled), TRUE/FALSE, NULL, or value text
//	Variable            identifier
//	Subquery            KEYWORD inner
//	Invoke              per function catalog (see functions.go)
//
// Function names are matched case-insensitively. trimRight (alias trimEnd)
// renders TRAILING trimming.
//
// ERRORS:
//
// Failures are deterministic and never partial. Every error is a
// *RenderError wrapping ErrUnsupportedNodeKind, ErrUnsupportedOperator,
// ErrUnsupportedFunction or ErrMalformedNode; ErrorKind maps them to stable
// names.
package jpql
