// Package vision - annotate.go
//
// Annotated debug frames. Detectors and the plan visualizer draw boxes,
// labels and markers over a copy of the frame and write it next to the
// screenshots, so a failed detection can be checked by eye.
package vision

import (
	"image"
	"image/color"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"clash-bot/pixel"
)

// Common annotation colors
var (
	ColorGreen   = color.RGBA{0, 255, 0, 255}
	ColorRed     = color.RGBA{255, 0, 0, 255}
	ColorBlue    = color.RGBA{0, 0, 255, 255}
	ColorYellow  = color.RGBA{255, 255, 0, 255}
	ColorCyan    = color.RGBA{0, 255, 255, 255}
	ColorMagenta = color.RGBA{255, 0, 255, 255}
)

// Box is a labeled rectangle
type Box struct {
	Region    pixel.Region
	Color     color.RGBA
	Label     string
	Thickness int
}

// Marker is a circle around a sampled pixel
type Marker struct {
	Point  pixel.Point
	Color  color.RGBA
	Radius int
}

// Draw renders boxes and markers over a copy of frame. The caller closes
// the returned matrix.
func Draw(frame image.Image, boxes []Box, markers []Marker) (gocv.Mat, error) {
	mat, err := toMat(frame)
	if err != nil {
		return mat, err
	}
	off := frame.Bounds().Min
	for _, b := range boxes {
		thickness := b.Thickness
		if thickness <= 0 {
			thickness = 2
		}
		rect := b.Region.Normalize().Rect().Sub(off)
		gocv.Rectangle(&mat, rect, b.Color, thickness)
		if b.Label != "" {
			gocv.PutText(&mat, b.Label, image.Pt(rect.Min.X, rect.Min.Y-5), gocv.FontHersheySimplex, 0.5, b.Color, 1)
		}
	}
	for _, m := range markers {
		radius := m.Radius
		if radius <= 0 {
			radius = 5
		}
		gocv.Circle(&mat, image.Pt(m.Point.X-off.X, m.Point.Y-off.Y), radius, m.Color, 2)
	}
	return mat, nil
}

// Annotator writes annotated frames into a ScreenshotStore. A nil or
// disabled Annotator does nothing.
type Annotator struct {
	store   *ScreenshotStore
	enabled bool
	log     zerolog.Logger
}

// NewAnnotator creates an annotator; enabled is usually "log level is debug"
func NewAnnotator(store *ScreenshotStore, enabled bool, log zerolog.Logger) *Annotator {
	return &Annotator{store: store, enabled: enabled, log: log}
}

// Enabled reports whether frames are written
func (a *Annotator) Enabled() bool {
	return a != nil && a.enabled && a.store != nil
}

// Save draws and writes one annotated frame under name. It returns the
// written path or "" when disabled or on failure.
func (a *Annotator) Save(name string, frame image.Image, boxes []Box, markers []Marker) string {
	if !a.Enabled() || frame == nil {
		return ""
	}
	mat, err := Draw(frame, boxes, markers)
	defer mat.Close()
	if err != nil {
		a.log.Debug().Err(err).Str("name", name).Msg("annotation skipped")
		return ""
	}
	path, err := a.store.NewPath(name + "_annotated")
	if err != nil {
		a.log.Warn().Err(err).Msg("failed to prepare annotation path")
		return ""
	}
	if ok := gocv.IMWrite(path, mat); !ok {
		a.log.Warn().Str("path", path).Msg("failed to write annotated frame")
		return ""
	}
	a.log.Debug().Str("path", path).Msg("annotated frame saved")
	return path
}
