// Package config - accessors.go
//
// Typed reads over a resolved tree. Every accessor takes a default, so a
// missing or malformed key degrades to a known value instead of failing.
package config

import (
	"errors"
	"fmt"

	"clash-bot/pixel"
)

// ErrSectionMissing is returned by MustSection
var ErrSectionMissing = errors.New("config section missing")

// Section returns the named sub-mapping, or an empty tree
func (t Tree) Section(name string) Tree {
	if m, ok := t[name].(map[string]any); ok {
		return Tree(m)
	}
	return Tree{}
}

// MustSection returns the named sub-mapping or ErrSectionMissing
func (t Tree) MustSection(name string) (Tree, error) {
	m, ok := t[name].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSectionMissing, name)
	}
	return Tree(m), nil
}

// Raw returns the value stored at key
func (t Tree) Raw(key string) (any, bool) {
	v, ok := t[key]
	return v, ok
}

// Int reads an integer (floats are truncated)
func (t Tree) Int(key string, def int) int {
	if n, ok := number(t[key]); ok {
		return int(n)
	}
	return def
}

// Float reads a number
func (t Tree) Float(key string, def float64) float64 {
	if n, ok := number(t[key]); ok {
		return n
	}
	return def
}

// String reads a string
func (t Tree) String(key string, def string) string {
	if s, ok := t[key].(string); ok {
		return s
	}
	return def
}

// Bool reads a boolean
func (t Tree) Bool(key string, def bool) bool {
	if b, ok := t[key].(bool); ok {
		return b
	}
	return def
}

// Ints reads a flat list of numbers
func (t Tree) Ints(key string) []int {
	v, _ := ints(t[key])
	return v
}

// Point reads an [x, y] pair
func (t Tree) Point(key string, def pixel.Point) pixel.Point {
	v, ok := ints(t[key])
	if !ok || len(v) != 2 {
		return def
	}
	return pixel.NewPoint(v[0], v[1])
}

// Points reads a list of [x, y] pairs. A single pair is returned as a list
// of one point.
func (t Tree) Points(key string) []pixel.Point {
	if p, ok := ints(t[key]); ok && len(p) == 2 {
		return []pixel.Point{pixel.NewPoint(p[0], p[1])}
	}
	list, ok := t[key].([]any)
	if !ok {
		return nil
	}
	points := make([]pixel.Point, 0, len(list))
	for _, item := range list {
		p, ok := ints(item)
		if ok && len(p) == 2 {
			points = append(points, pixel.NewPoint(p[0], p[1]))
		}
	}
	return points
}

// Region reads an [x1, y1, x2, y2] list
func (t Tree) Region(key string, def pixel.Region) pixel.Region {
	v, ok := ints(t[key])
	if !ok {
		return def
	}
	if r, ok := pixel.RegionFromSlice(v); ok {
		return r
	}
	return def
}

// Regions reads a list of regions
func (t Tree) Regions(key string) []pixel.Region {
	list, ok := t[key].([]any)
	if !ok {
		return nil
	}
	var out []pixel.Region
	for _, item := range list {
		v, ok := ints(item)
		if !ok {
			continue
		}
		if r, ok := pixel.RegionFromSlice(v); ok {
			out = append(out, r)
		}
	}
	return out
}

// Items reads a list of mappings such as [{type = "gold", region = [...]}].
// Non-mapping entries are skipped.
func (t Tree) Items(key string) []Tree {
	list, ok := t[key].([]any)
	if !ok {
		return nil
	}
	var out []Tree
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, Tree(m))
		}
	}
	return out
}

// Colors reads a list of [r, g, b] colors. A single color is accepted too.
func (t Tree) Colors(key string) []pixel.Color {
	if v, ok := ints(t[key]); ok {
		if c, ok := pixel.ColorFromSlice(v); ok {
			return []pixel.Color{c}
		}
		return nil
	}
	list, ok := t[key].([]any)
	if !ok {
		return nil
	}
	var out []pixel.Color
	for _, item := range list {
		v, ok := ints(item)
		if !ok {
			continue
		}
		if c, ok := pixel.ColorFromSlice(v); ok {
			out = append(out, c)
		}
	}
	return out
}

// Range reads a [[r,g,b], [r,g,b]] min/max pair
func (t Tree) Range(key string) (pixel.RGBRange, bool) {
	list, ok := t[key].([]any)
	if !ok || len(list) != 2 {
		return pixel.RGBRange{}, false
	}
	lo, okLo := ints(list[0])
	hi, okHi := ints(list[1])
	if !okLo || !okHi {
		return pixel.RGBRange{}, false
	}
	minC, okMin := pixel.ColorFromSlice(lo)
	maxC, okMax := pixel.ColorFromSlice(hi)
	if !okMin || !okMax {
		return pixel.RGBRange{}, false
	}
	return pixel.RGBRange{Min: minC, Max: maxC}, true
}

// ints converts a flat numeric list; ok is false when any element is not a number
func ints(v any) ([]int, bool) {
	list, ok := v.([]any)
	if !ok {
		return nil, false
	}
	out := make([]int, len(list))
	for i, item := range list {
		n, ok := number(item)
		if !ok {
			return nil, false
		}
		out[i] = int(n)
	}
	return out, true
}
