// Package config - tree.go
//
// This file defines the ConfigTree: a nested mapping of named sections to
// key/value entries, decoded from TOML or YAML documents.
//
// Value Shapes:
//   - scalars: int64, float64, string, bool
//   - lists: []any (points, regions, colors, nested phases)
//   - mappings: map[string]any (sections, list items carrying a "region")
//
// A Tree goes through two stages. Authored trees hold fractions in [0,1];
// resolved trees hold integer pixels for one resolution. Every operation in
// this package returns a new tree and never mutates its inputs, so a resolved
// tree can be shared read-only by every detector and builder call.
package config

import "sort"

// Tree is the root of a configuration document
type Tree map[string]any

// Clone returns a deep copy of the tree
func (t Tree) Clone() Tree {
	if t == nil {
		return Tree{}
	}
	return Tree(cloneMap(t))
}

// Keys returns section names in sorted order
func (t Tree) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return cloneMap(val)
	case Tree:
		return cloneMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return val
	}
}

// normalize converts decoder-specific shapes into the shapes above:
// ints become int64, typed slices become []any, nested tables become
// map[string]any.
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if ks, ok := k.(string); ok {
				out[ks] = normalize(item)
			}
		}
		return out
	case []map[string]any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalize(item)
		}
		return out
	case int:
		return int64(val)
	case int32:
		return int64(val)
	case uint64:
		return int64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}

// number converts a numeric leaf to float64
func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case int:
		return float64(n), true
	case float64:
		return n, true
	case int32:
		return float64(n), true
	case float32:
		return float64(n), true
	}
	return 0, false
}

// isFloat reports whether a leaf was authored with a decimal point
func isFloat(v any) bool {
	switch v.(type) {
	case float64, float32:
		return true
	}
	return false
}
