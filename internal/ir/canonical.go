package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for hashing.
// This is the only serialization used for content-addressed identity.
//
// Accepted values: string, int, int64, bool, []any and map[string]any.
//
// Differences from json.Marshal:
// 1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
// 2. No HTML escaping (< > & are NOT escaped)
// 3. Strings are NFC normalized
// 4. No floats (returns error); callers carry them as decimal strings
// 5. No null (returns error); callers omit the key instead
func MarshalCanonical(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeCanonical(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeCanonical(buf *bytes.Buffer, v any) error {
	switch val := v.(type) {
	case nil:
		return fmt.Errorf("null is forbidden in canonical JSON")
	case string:
		return writeCanonicalString(buf, val)
	case int64:
		fmt.Fprintf(buf, "%d", val)
	case int:
		fmt.Fprintf(buf, "%d", val)
	case bool:
		if val {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case []any:
		buf.WriteByte('[')
		for i, elem := range val {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonical(buf, elem); err != nil {
				return fmt.Errorf("array[%d]: %w", i, err)
			}
		}
		buf.WriteByte(']')
	case map[string]any:
		buf.WriteByte('{')
		for i, k := range sortedKeys(val) {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeCanonicalString(buf, k); err != nil {
				return fmt.Errorf("key %q: %w", k, err)
			}
			buf.WriteByte(':')
			if err := writeCanonical(buf, val[k]); err != nil {
				return fmt.Errorf("value for key %q: %w", k, err)
			}
		}
		buf.WriteByte('}')
	case float64, float32:
		return fmt.Errorf("floats are forbidden in canonical JSON: %v", val)
	default:
		return fmt.Errorf("unsupported type for canonical JSON: %T", v)
	}
	return nil
}

// writeCanonicalString writes s NFC-normalized, escaping only control
// characters, backslash and quote. U+2028 and U+2029 stay literal.
func writeCanonicalString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(norm.NFC.String(s)); err != nil {
		return err
	}
	out := bytes.TrimSuffix(tmp.Bytes(), []byte{'\n'})
	buf.Write(unescapeLineSeparators(out))
	return nil
}

// unescapeLineSeparators turns the encoder's \u2028 and \u2029 escapes back
// into literal characters. An escape preceded by an odd run of backslashes
// is literal text ("\\u2028") and is left alone.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}
	out := make([]byte, 0, len(data))
	backslashes := 0
	for i := 0; i < len(data); i++ {
		if data[i] == '\\' && backslashes%2 == 0 && i+6 <= len(data) &&
			(string(data[i:i+6]) == `\u2028` || string(data[i:i+6]) == `\u2029`) {
			if data[i+5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			backslashes = 0
			continue
		}
		if data[i] == '\\' {
			backslashes++
		} else {
			backslashes = 0
		}
		out = append(out, data[i])
	}
	return out
}

// sortedKeys returns keys in RFC 8785 order (UTF-16 code units), which
// differs from Go's UTF-8 byte order for characters above the BMP.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

// Canonical returns the hashing form of a node document. Literal values are
// normalized first; floats become decimal strings tagged with type "float"
// and the null literal simply has no value key.
func Canonical(n *Node) (map[string]any, error) {
	if n == nil {
		return nil, fmt.Errorf("nil node")
	}
	m := map[string]any{"kind": n.Kind}

	setString := func(key, v string) {
		if v != "" {
			m[key] = v
		}
	}
	setString("op", n.Op)
	setString("id", n.ID)
	setString("type", n.Type)
	setString("name", n.Name)
	setString("operation", n.Operation)
	setString("keyword", n.Keyword)

	for key, child := range map[string]*Node{
		"left": n.Left, "right": n.Right, "path": n.Path, "target": n.Target, "inner": n.Inner,
	} {
		if child == nil {
			continue
		}
		c, err := Canonical(child)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		m[key] = c
	}

	for key, list := range map[string][]*Node{"args": n.Args, "items": n.Items} {
		if len(list) == 0 {
			continue
		}
		arr := make([]any, len(list))
		for i, child := range list {
			c, err := Canonical(child)
			if err != nil {
				return nil, fmt.Errorf("%s[%d]: %w", key, i, err)
			}
			arr[i] = c
		}
		m[key] = arr
	}

	if n.Position != nil {
		m["position"] = int64(*n.Position)
	}

	v, err := NormalizeValue(n.Value)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case nil:
	case float64:
		m["value"] = formatFloat(val)
		m["type"] = "float"
	default:
		m["value"] = val
	}

	return m, nil
}
