package store

import (
	"math"
	"reflect"
	"testing"

	"github.com/roach88/jpqlc/internal/ir"
)

func TestCompressTree_RoundTrip(t *testing.T) {
	tree := &ir.Node{
		Kind: ir.KindCompound,
		Items: []*ir.Node{
			{Kind: ir.KindLiteral, Value: int64(1) << 60},
			{Kind: ir.KindLiteral, Value: 2.5},
			{Kind: ir.KindLiteral, Value: 3.0},
			{Kind: ir.KindLiteral, Value: -1e21},
			{Kind: ir.KindLiteral, Value: "O'Brien <&>"},
			{Kind: ir.KindLiteral, Value: "x", Type: ir.TypeChar},
			{Kind: ir.KindLiteral, Value: true},
			{Kind: ir.KindLiteral},
			{Kind: ir.KindParameter, Position: ir.IntPtr(0)},
			{Kind: ir.KindParameter, Name: "minAge"},
		},
	}

	blob, err := compressTree(tree)
	if err != nil {
		t.Fatalf("compressTree() failed: %v", err)
	}
	got, err := decompressTree(blob)
	if err != nil {
		t.Fatalf("decompressTree() failed: %v", err)
	}

	if !reflect.DeepEqual(got, tree) {
		t.Errorf("round trip mismatch:\n got  %+v\n want %+v", got, tree)
	}
	if ir.MustTreeID(got) != ir.MustTreeID(tree) {
		t.Error("TreeID changed across round trip")
	}
}

func TestCompressTree_IntegralFloatStaysFloat(t *testing.T) {
	tree := &ir.Node{
		Kind:  ir.KindDyadic,
		Op:    "DIV",
		Left:  &ir.Node{Kind: ir.KindPath, ID: "x"},
		Right: &ir.Node{Kind: ir.KindLiteral, Value: 3.0},
	}

	blob, err := compressTree(tree)
	if err != nil {
		t.Fatalf("compressTree() failed: %v", err)
	}
	got, err := decompressTree(blob)
	if err != nil {
		t.Fatalf("decompressTree() failed: %v", err)
	}

	if v, ok := got.Right.Value.(float64); !ok || v != 3 {
		t.Errorf("literal value = %#v, want float64(3)", got.Right.Value)
	}
	if ir.MustTreeID(got) != ir.MustTreeID(tree) {
		t.Error("TreeID changed across round trip")
	}
}

func TestCompressTree_RejectsNonFiniteFloat(t *testing.T) {
	tree := &ir.Node{Kind: ir.KindLiteral, Value: math.Inf(1)}
	if _, err := compressTree(tree); err == nil {
		t.Error("compressTree() with +Inf literal should fail")
	}
}

func TestDecompressTree_Corrupt(t *testing.T) {
	if _, err := decompressTree([]byte("not zstd")); err == nil {
		t.Error("decompressTree() on garbage should fail")
	}
}
