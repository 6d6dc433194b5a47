package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainTree   = "jpqlc/tree/v1"
	DomainRender = "jpqlc/render/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
// The null byte separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// TreeID computes the content-addressed ID of a node document.
// Equal trees get equal IDs regardless of source format or map ordering.
func TreeID(n *Node) (string, error) {
	c, err := Canonical(n)
	if err != nil {
		return "", fmt.Errorf("TreeID: %w", err)
	}
	data, err := MarshalCanonical(c)
	if err != nil {
		return "", fmt.Errorf("TreeID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainTree, data), nil
}

// RenderID identifies one rendering outcome: the tree, the renderer version
// and the produced text (or error kind).
func RenderID(treeID, rendererVersion, output, errorKind string) (string, error) {
	obj := map[string]any{
		"tree_id":          treeID,
		"renderer_version": rendererVersion,
		"output":           output,
		"error_kind":       errorKind,
	}
	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("RenderID: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainRender, data), nil
}

// MustTreeID is like TreeID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustTreeID(n *Node) string {
	id, err := TreeID(n)
	if err != nil {
		panic(err)
	}
	return id
}
