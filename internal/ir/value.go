package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// NormalizeValue maps a decoded literal value onto the closed set the rest
// of the module works with: nil, string, bool, int64 or float64.
//
// YAML decodes integers as int, encoding/json with UseNumber yields
// json.Number, and CUE hands back int64/float64; all of them land on the
// same representation here so TreeID is format independent.
func NormalizeValue(v any) (any, error) {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val, nil
	case int:
		return int64(val), nil
	case int8:
		return int64(val), nil
	case int16:
		return int64(val), nil
	case int32:
		return int64(val), nil
	case uint8:
		return int64(val), nil
	case uint16:
		return int64(val), nil
	case uint32:
		return int64(val), nil
	case uint:
		return uintValue(uint64(val))
	case uint64:
		return uintValue(val)
	case float32:
		return float64(val), nil
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n, nil
		}
		f, err := val.Float64()
		if err != nil {
			return nil, errors.Wrapf(err, "invalid number %q", val.String())
		}
		return f, nil
	default:
		return nil, fmt.Errorf("unsupported literal value type: %T", v)
	}
}

func uintValue(u uint64) (any, error) {
	if u > math.MaxInt64 {
		return nil, fmt.Errorf("integer literal %d overflows int64", u)
	}
	return int64(u), nil
}

// formatFloat renders f as the shortest decimal string that round-trips.
func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// FloatText renders f as a decimal literal that still reads as a float:
// the shortest round-tripping form at bitSize (32 or 64), with ".0"
// appended when that form has neither a fraction nor an exponent. NaN and
// the infinities have no literal form and are rejected.
func FloatText(f float64, bitSize int) (string, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", fmt.Errorf("float literal %v has no decimal form", f)
	}
	s := strconv.FormatFloat(f, 'g', -1, bitSize)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s, nil
}

// NormalizeNode normalizes every literal value in the tree in place.
// Documents read back from JSON carry json.Number values; after
// NormalizeNode they compare equal to the documents that were written.
func NormalizeNode(n *Node) error {
	if n == nil {
		return nil
	}
	v, err := NormalizeValue(n.Value)
	if err != nil {
		return err
	}
	n.Value = v
	for _, child := range []*Node{n.Left, n.Right, n.Path, n.Target, n.Inner} {
		if err := NormalizeNode(child); err != nil {
			return err
		}
	}
	for _, list := range [][]*Node{n.Args, n.Items} {
		for _, child := range list {
			if err := NormalizeNode(child); err != nil {
				return err
			}
		}
	}
	return nil
}
