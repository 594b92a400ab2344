// Package attack - special.go
//
// Special-unit position check. A special event unit that is already trained
// occupies the first tray slot; one pixel at the anchor center decides
// whether its sequence goes before or after the regular troops.
package attack

import (
	"image"

	"github.com/rs/zerolog"

	"clash-bot/config"
	"clash-bot/pixel"
	"clash-bot/vision"
)

// SpecialColorTolerance accepts channel differences below 40
const SpecialColorTolerance = 39

// SpecialConfig holds the special-unit settings of HomeBaseGeneral
type SpecialConfig struct {
	Count     int           // special_troop_event
	RefColors []pixel.Color // special_troop_event_rgb
}

// SpecialFromConfig reads the special-unit settings
func SpecialFromConfig(tree config.Tree) SpecialConfig {
	general := tree.Section("HomeBaseGeneral")
	return SpecialConfig{
		Count:     general.Int("special_troop_event", 0),
		RefColors: general.Colors("special_troop_event_rgb"),
	}
}

// DetectSpecialAtStart samples the anchor center once. No match, or a
// center outside the frame, means the unit is not at the start.
func DetectSpecialAtStart(frame image.Image, anchor vision.Tile, refs []pixel.Color, annotate *vision.Annotator, log zerolog.Logger) bool {
	targets := make([]pixel.ColorTarget, len(refs))
	for i, c := range refs {
		targets[i] = pixel.NewColorTarget(c, SpecialColorTolerance)
	}

	if frame == nil || !anchor.Center.In(frame.Bounds()) {
		log.Warn().Str("pos", anchor.Center.String()).Msg("special unit check out of bounds")
		return false
	}
	c, matched := vision.PixelMatches(frame, anchor.Center, targets)

	mark := vision.ColorBlue
	if matched {
		mark = vision.ColorRed
		log.Debug().Str("pos", anchor.Center.String()).Str("color", c.String()).Msg("special unit detected at start")
	} else {
		log.Debug().Str("pos", anchor.Center.String()).Str("color", c.String()).Int("refs", len(refs)).Msg("special unit not at start")
	}
	annotate.Save("special_unit_check", frame, nil, []vision.Marker{{Point: anchor.Center, Color: mark}})
	return matched
}
