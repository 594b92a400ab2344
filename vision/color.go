// Package vision - color.go
//
// Color-membership detectors: mean color of a region tested against a
// configured RGB range or a prioritized list of target colors.
package vision

import (
	"image"

	"github.com/rs/zerolog"

	"clash-bot/pixel"
)

// InRange reports whether the mean color of region lies inside rng.
// An empty crop is outside every range.
func InRange(frame image.Image, region pixel.Region, rng pixel.RGBRange) bool {
	c, ok := pixel.AverageColor(frame, region)
	if !ok {
		return false
	}
	return rng.Contains(c)
}

// TargetGroup is a named list of colors sharing one tolerance
type TargetGroup struct {
	Name      string
	Colors    []pixel.Color
	Tolerance int
}

// Targets expands the group into per-channel ColorTargets
func (g TargetGroup) Targets() []pixel.ColorTarget {
	out := make([]pixel.ColorTarget, len(g.Colors))
	for i, c := range g.Colors {
		out[i] = pixel.NewColorTarget(c, g.Tolerance)
	}
	return out
}

// Classify samples the mean color of region and returns the name of the
// first group with a matching color. Groups are tried in order; no match
// returns "" so callers fall back to their conservative default.
func Classify(frame image.Image, region pixel.Region, groups []TargetGroup, log zerolog.Logger) string {
	c, ok := pixel.AverageColor(frame, region)
	if !ok {
		log.Debug().Str("region", region.String()).Msg("color sample outside frame")
		return ""
	}
	for _, g := range groups {
		if pixel.MatchAny(g.Targets(), c) >= 0 {
			log.Debug().Str("region", region.String()).Str("color", c.String()).Str("match", g.Name).Msg("color classified")
			return g.Name
		}
	}
	log.Debug().Str("region", region.String()).Str("color", c.String()).Msg("no color target matched")
	return ""
}

// PixelMatches samples one pixel and reports whether any target matches it
func PixelMatches(frame image.Image, p pixel.Point, targets []pixel.ColorTarget) (pixel.Color, bool) {
	c, ok := pixel.ColorAt(frame, p)
	if !ok {
		return pixel.Color{}, false
	}
	return c, pixel.MatchAny(targets, c) >= 0
}
