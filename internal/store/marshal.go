package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/klauspost/compress/zstd"

	"github.com/roach88/jpqlc/internal/ir"
)

// Shared codecs. EncodeAll and DecodeAll are safe for concurrent use.
var (
	treeEncoder, _ = zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
	treeDecoder, _ = zstd.NewReader(nil)
)

// compressTree serializes a node document to compact JSON and compresses it.
func compressTree(n *ir.Node) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(n); err != nil {
		return nil, fmt.Errorf("marshal tree: %w", err)
	}
	return treeEncoder.EncodeAll(buf.Bytes(), nil), nil
}

// decompressTree reverses compressTree. Numbers are decoded with UseNumber
// and then normalized, so integers above 2^53 survive the round trip.
func decompressTree(blob []byte) (*ir.Node, error) {
	data, err := treeDecoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("decompress tree: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var n ir.Node
	if err := dec.Decode(&n); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	if err := ir.NormalizeNode(&n); err != nil {
		return nil, fmt.Errorf("unmarshal tree: %w", err)
	}
	return &n, nil
}
