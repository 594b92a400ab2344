// Package attack - visualize.go
//
// Debug overlay of a plan: every click is boxed in its phase color and
// numbered in click order.
package attack

import (
	"fmt"
	"image"
	"image/color"

	"clash-bot/pixel"
	"clash-bot/vision"
)

// phaseColors indexed by PhaseKind
var phaseColors = []color.RGBA{
	vision.ColorBlue,
	vision.ColorYellow,
	vision.ColorGreen,
	vision.ColorRed,
	vision.ColorMagenta,
}

func phaseColor(k PhaseKind) color.RGBA {
	if int(k) < len(phaseColors) {
		return phaseColors[k]
	}
	return vision.ColorCyan
}

// markerSize is used for drop points and for selects of unanchored plans
const markerSize = 20

// PlanBoxes returns one labelled box per click. Selects of an anchored plan
// get the anchor's tile size.
func PlanBoxes(plan Plan) []vision.Box {
	var boxes []vision.Box
	n := 0
	for _, ph := range plan.Phases {
		c := phaseColor(ph.Kind)
		for _, p := range ph.Points() {
			n++
			w, h := markerSize, markerSize
			if plan.Anchored && IsSelect(p, plan.SelectThreshold) {
				w, h = plan.Anchor.Width, plan.Anchor.Height
			}
			boxes = append(boxes, vision.Box{
				Region:    pixel.NewRegion(p.X-w/2, p.Y-h/2, p.X+w/2, p.Y+h/2),
				Color:     c,
				Label:     fmt.Sprintf("%s %d", ph.Kind, n),
				Thickness: 2,
			})
		}
	}
	return boxes
}

// SavePlan writes the overlay of plan on frame and returns the path, or ""
// when annotation is disabled
func SavePlan(annotate *vision.Annotator, frame image.Image, plan Plan) string {
	if !annotate.Enabled() {
		return ""
	}
	var markers []vision.Marker
	if plan.Anchored {
		markers = append(markers, vision.Marker{Point: plan.Anchor.Center, Color: vision.ColorCyan, Radius: 6})
	}
	return annotate.Save("army_plan", frame, PlanBoxes(plan), markers)
}
