// Package fieldpath reads and writes values at dotted key paths inside nested
// JSON-shaped records (map[string]any). It is the thin addressing shim between
// declarative field schemas and the typed cloud record.
//
// Paths are plain dot-separated segments; literal dots inside a key cannot be
// escaped.
package fieldpath

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Get returns the value reachable from root by following path. The second
// result is false when any segment is missing or an intermediate node is not a
// record.
func Get(root map[string]any, path string) (any, bool) {
	if root == nil || path == "" {
		return nil, false
	}
	segs := strings.Split(path, ".")
	var cur any = root
	for _, seg := range segs {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

// Set returns a new root in which path holds value. Records along the path are
// copied, missing or non-record intermediates become empty records, and root
// itself is left untouched.
func Set(root map[string]any, path string, value any) map[string]any {
	segs := strings.Split(path, ".")
	return setIn(root, segs, value)
}

func setIn(node map[string]any, segs []string, value any) map[string]any {
	out := make(map[string]any, len(node)+1)
	for k, v := range node {
		out[k] = v
	}
	head := segs[0]
	if len(segs) == 1 {
		out[head] = value
		return out
	}
	child, _ := out[head].(map[string]any)
	out[head] = setIn(child, segs[1:], value)
	return out
}

// Clone deep-copies a JSON-shaped value. Slices of strings are kept as
// []string so typed list values survive a copy.
func Clone(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = Clone(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = Clone(val)
		}
		return out
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// Merge returns a copy of base with overlay laid over it. Records present on
// both sides merge key by key; any other overlay value replaces what base
// holds, including false and empty values.
func Merge(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(overlay))
	for k, v := range base {
		out[k] = Clone(v)
	}
	for k, v := range overlay {
		if om, ok := v.(map[string]any); ok {
			if bm, ok := out[k].(map[string]any); ok {
				out[k] = Merge(bm, om)
				continue
			}
		}
		out[k] = Clone(v)
	}
	return out
}

// FromStruct converts v into a record through its JSON encoding.
func FromStruct(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return m, nil
}

// ToStruct decodes the record m into out through its JSON encoding.
func ToStruct(m map[string]any, out any) error {
	b, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decoding record: %w", err)
	}
	return nil
}

// Strings converts a list value (as produced by JSON decoding or by field
// renderers) into a []string. Non-list values yield nil.
func Strings(v any) []string {
	switch t := v.(type) {
	case []string:
		out := make([]string, len(t))
		copy(out, t)
		return out
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// Truthy reports whether v is a populated value: non-empty string or list,
// true bool, non-zero number, or non-empty record.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case int:
		return t != 0
	case []any:
		return len(t) > 0
	case []string:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
