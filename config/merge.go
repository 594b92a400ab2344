// Package config - merge.go
//
// Config layering: right-biased deep merge of a base layer with a profile
// override, and the guard that decides whether an override was authored in
// percentages.
package config

import "github.com/rs/zerolog"

// PercentageSections are the override sections inspected by UsesPercentages.
// Only spatial sections are checked so that thresholds such as 0.8 in other
// sections do not trigger scaling.
var PercentageSections = []string{
	"HomeBaseAttacks",
	"BuilderBaseAttacks",
	"HomeBaseDynamicClickPositions",
	"BuilderBaseDynamicClickPositions",
}

// Merge deep-merges override onto base and returns a new tree.
//
// Keys present in both as mappings merge recursively. For every other
// combination the override value wins outright; lists are replaced, never
// spliced. Neither input is modified.
func Merge(base, override Tree) Tree {
	out := base.Clone()
	for key, value := range override {
		out[key] = mergeValue(out[key], value)
	}
	return out
}

func mergeValue(base, override any) any {
	bm, baseIsMap := base.(map[string]any)
	om, overIsMap := override.(map[string]any)
	if !baseIsMap || !overIsMap {
		return cloneValue(override)
	}
	merged := cloneMap(bm)
	for key, value := range om {
		merged[key] = mergeValue(merged[key], value)
	}
	return merged
}

// UsesPercentages reports whether any numeric leaf in the spatial sections of
// tree is a float in (0, 1].
//
// An absolute profile that happens to hold 1.0 is misread as percentage
// authored; integers are never counted, so pixel profiles written with
// integer literals are safe.
func UsesPercentages(tree Tree, sections []string) bool {
	for _, name := range sections {
		if value, ok := tree[name]; ok && hasFraction(value) {
			return true
		}
	}
	return false
}

func hasFraction(v any) bool {
	switch val := v.(type) {
	case map[string]any:
		for _, item := range val {
			if hasFraction(item) {
				return true
			}
		}
	case []any:
		for _, item := range val {
			if hasFraction(item) {
				return true
			}
		}
	default:
		if isFloat(val) {
			n, _ := number(val)
			return n > 0 && n <= 1
		}
	}
	return false
}

// Layer builds the effective tree for one profile.
//
// base must already be resolved. The profile is resolved first when
// UsesPercentages detects fractional coordinates, then merged over base.
func Layer(base, profile Tree, res Resolution, log zerolog.Logger) Tree {
	if UsesPercentages(profile, PercentageSections) {
		log.Debug().Int("width", res.Width).Int("height", res.Height).
			Msg("profile uses percentages, scaling")
		profile = Resolve(profile, res)
	}
	if len(base) == 0 {
		return profile.Clone()
	}
	return Merge(base, profile)
}
