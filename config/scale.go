// Package config - scale.go
//
// Coordinate scaling engine. Walks a ConfigTree and converts fractional
// coordinates into absolute pixels for one target resolution.
//
// Scaling Rules:
//   1. Only coordinate-bearing sections are touched: names ending with a
//      configured suffix ("Attacks", "Positions") or listed in Sections.
//      SpecificKeys opts single keys of other sections in.
//   2. Inside a list, a number at an even index scales by width and a
//      number at an odd index scales by height ([x, y] or [x1, y1, x2, y2]).
//   3. A lone scalar is scaled only when its key is in ScalarX or ScalarY.
//   4. A mapping inside a list has only its "region" entry scaled.
//   5. Values with magnitude above 1 are treated as pixels already and are
//      passed through unchanged.
//
// Resolve must run exactly once on authored data: a second pass over a
// resolved tree would rescale any pixel value of 0 or 1.
package config

import (
	"math"
	"strings"
)

// Resolution is a target width/height in pixels
type Resolution struct {
	Width  int
	Height int
}

// DefaultResolution is used when the game window cannot be measured
var DefaultResolution = Resolution{Width: 1728, Height: 1080}

// Valid reports whether both dimensions pass the sanity check used for
// detected window sizes
func (r Resolution) Valid() bool {
	return r.Width > 100 && r.Height > 100
}

// Scale converts a pixel coordinate authored at DefaultResolution into this
// resolution. Used for built-in defaults that are written in pixels.
func (r Resolution) Scale(baseX, baseY int) (int, int) {
	scaleX := float64(r.Width) / float64(DefaultResolution.Width)
	scaleY := float64(r.Height) / float64(DefaultResolution.Height)
	return int(math.Round(float64(baseX) * scaleX)), int(math.Round(float64(baseY) * scaleY))
}

// ScaleRules selects which parts of a tree are spatial
type ScaleRules struct {
	SectionSuffixes []string            // e.g. "Attacks", "Positions"
	Sections        []string            // explicit coordinate sections
	SpecificKeys    map[string][]string // section -> keys scaled outside coordinate sections
	ScalarX         []string            // lone scalars scaled by width
	ScalarY         []string            // lone scalars scaled by height
}

// DefaultScaleRules returns the rules for the game's configuration layout
func DefaultScaleRules() ScaleRules {
	return ScaleRules{
		SectionSuffixes: []string{"Attacks", "Positions"},
		Sections: []string{
			"HomeBaseStaticClickPositions",
			"BuilderBaseStaticClickPositions",
			"HomeBaseCoordinates",
			"BuilderBaseCoordinates",
			"RecordAttackCoordinates",
			"ObjectDetectionCoordinates",
			"General",
			"HomeBaseAttacks",
			"BuilderBaseAttacks",
			"HomeBaseDynamicClickPositions",
			"BuilderBaseDynamicClickPositions",
		},
		SpecificKeys: map[string][]string{
			"HomeBaseGeneral": {"special_troop_drop"},
		},
		ScalarX: []string{"pet_step_x"},
		ScalarY: []string{
			"builder_upgrade_step_y",
			"research_upgrade_step_y",
			"builder_upgrade_step_y_small",
			"account_switch_y_offset",
			"selection_bar_y",
		},
	}
}

// axis tags a lone scalar
type axis int

const (
	axisNone axis = iota
	axisX
	axisY
)

// Resolve scales tree with DefaultScaleRules
func Resolve(tree Tree, res Resolution) Tree {
	return DefaultScaleRules().Resolve(tree, res)
}

// Resolve returns a copy of tree with every coordinate converted to pixels.
// Sections outside the rules are copied untouched.
func (r ScaleRules) Resolve(tree Tree, res Resolution) Tree {
	out := make(Tree, len(tree))
	for name, raw := range tree {
		section, isSection := raw.(map[string]any)
		switch {
		case !isSection:
			out[name] = cloneValue(raw)
		case r.isCoordinateSection(name):
			scaled := make(map[string]any, len(section))
			for key, value := range section {
				scaled[key] = scaleValue(value, res, r.scalarAxis(key))
			}
			out[name] = scaled
		case len(r.SpecificKeys[name]) > 0:
			scaled := cloneMap(section)
			for _, key := range r.SpecificKeys[name] {
				if value, ok := section[key]; ok {
					scaled[key] = scaleValue(value, res, axisNone)
				}
			}
			out[name] = scaled
		default:
			out[name] = cloneMap(section)
		}
	}
	return out
}

// isCoordinateSection reports whether Resolve scales the named section
func (r ScaleRules) isCoordinateSection(name string) bool {
	for _, suffix := range r.SectionSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	for _, s := range r.Sections {
		if s == name {
			return true
		}
	}
	return false
}

func (r ScaleRules) scalarAxis(key string) axis {
	for _, k := range r.ScalarY {
		if k == key {
			return axisY
		}
	}
	for _, k := range r.ScalarX {
		if k == key {
			return axisX
		}
	}
	return axisNone
}

// scaleValue converts one entry of a coordinate section
func scaleValue(v any, res Resolution, scalar axis) any {
	switch val := v.(type) {
	case []any:
		return scaleList(val, res)
	case map[string]any:
		return cloneMap(val)
	}

	n, ok := number(v)
	if !ok {
		return v
	}
	switch scalar {
	case axisX:
		return scaleNumber(v, n, res.Width)
	case axisY:
		return scaleNumber(v, n, res.Height)
	}
	return v
}

func scaleList(list []any, res Resolution) []any {
	out := make([]any, len(list))
	for i, item := range list {
		switch val := item.(type) {
		case []any:
			out[i] = scaleList(val, res)
		case map[string]any:
			m := cloneMap(val)
			if region, ok := val["region"]; ok {
				m["region"] = scaleValue(region, res, axisNone)
			}
			out[i] = m
		default:
			n, ok := number(item)
			if !ok {
				out[i] = item
				continue
			}
			if i%2 == 0 {
				out[i] = scaleNumber(item, n, res.Width)
			} else {
				out[i] = scaleNumber(item, n, res.Height)
			}
		}
	}
	return out
}

// scaleNumber rounds n*dim, passing pixel values through
func scaleNumber(orig any, n float64, dim int) any {
	if math.Abs(n) > 1 {
		return orig
	}
	return int64(math.Round(n * float64(dim)))
}
