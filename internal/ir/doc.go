// Package ir provides the serialized document form of expression trees.
//
// A Node is the on-disk shape of an expr.Selection. Fragment files (YAML,
// JSON, CUE), the render log and conformance scenarios all carry Nodes;
// Decode turns one into a live tree and Encode goes the other way.
//
// Key design constraints:
//   - Node is a plain tagged record; the kind field selects which other
//     fields are meaningful
//   - Literal values normalize to nil, string, bool, int64 or float64
//   - TreeID hashes the RFC 8785 canonical form, so the same tree has the
//     same identity whichever file format it came from
//   - ir imports expr and nothing else internal
package ir
