package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/jpqlc/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRun inserts a run with default versions.
func createTestRun(t *testing.T, s *Store, id string) Run {
	t.Helper()
	run, err := s.CreateRun(context.Background(), Run{ID: id, Source: "testdata/" + id + ".cue"})
	if err != nil {
		t.Fatalf("CreateRun(%q) failed: %v", id, err)
	}
	return run
}

// adultsTree is "(age > 18)".
func adultsTree() *ir.Node {
	return &ir.Node{
		Kind:  ir.KindDyadic,
		Op:    "GT",
		Left:  &ir.Node{Kind: ir.KindPath, ID: "age"},
		Right: &ir.Node{Kind: ir.KindLiteral, Value: int64(18)},
	}
}

// nameTree is "p.name".
func nameTree() *ir.Node {
	return &ir.Node{
		Kind: ir.KindPath,
		Path: &ir.Node{Kind: ir.KindVariable, ID: "p"},
		ID:   "name",
	}
}

// invalidTree calls a function the renderer does not support.
func invalidTree() *ir.Node {
	return &ir.Node{
		Kind:      ir.KindInvoke,
		Operation: "soundex",
		Target:    &ir.Node{Kind: ir.KindPath, ID: "name"},
	}
}
