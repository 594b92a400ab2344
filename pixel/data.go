// Package pixel - data.go
//
// This file defines the geometric and colorimetric primitives shared by the
// detectors, the tile locator and the attack builder.
//
// Major Types:
//
// 1. Geometric Types:
//    - Point: 2D coordinate in absolute pixel space of one frame
//    - Region: axis-aligned rectangle (x1, y1, x2, y2)
//
// 2. Color Types:
//    - Color: RGB color with per-channel and Euclidean comparison
//    - ColorTarget: reference color + tolerance + comparison rule
//    - RGBRange: inclusive [min, max] box used by membership detectors
//
// All types are value types and should be copied when shared.
package pixel

import (
	"fmt"
	"image"
	"math"
)

// Point represents a 2D coordinate in screen space.
//
// Used for:
//   - Click targets handed to the input sink
//   - Anchor of the first army tile
//   - Single-pixel color samples
type Point struct {
	X int
	Y int
}

// NewPoint creates a new Point
func NewPoint(x, y int) Point {
	return Point{X: x, Y: y}
}

// Distance calculates Euclidean distance to another point
func (p Point) Distance(other Point) float64 {
	dx := float64(p.X - other.X)
	dy := float64(p.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// In reports whether the point lies inside the image bounds
func (p Point) In(bounds image.Rectangle) bool {
	return p.X >= bounds.Min.X && p.X < bounds.Max.X &&
		p.Y >= bounds.Min.Y && p.Y < bounds.Max.Y
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// Region represents a rectangle in absolute pixel space.
//
// X2/Y2 are exclusive. A degenerate region (x2 <= x1 or y2 <= y1) is
// widened to 1px by Normalize before any sampling.
type Region struct {
	X1 int
	Y1 int
	X2 int
	Y2 int
}

// NewRegion creates a new Region
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// RegionFromSlice builds a region from a resolved [x1, y1, x2, y2] list.
func RegionFromSlice(v []int) (Region, bool) {
	if len(v) != 4 {
		return Region{}, false
	}
	return Region{X1: v[0], Y1: v[1], X2: v[2], Y2: v[3]}, true
}

// Normalize widens degenerate regions so that width and height are at least 1
func (r Region) Normalize() Region {
	if r.X2 <= r.X1 {
		r.X2 = r.X1 + 1
	}
	if r.Y2 <= r.Y1 {
		r.Y2 = r.Y1 + 1
	}
	return r
}

// Width returns the width of the region
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the height of the region
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// Center returns the center point of the region
func (r Region) Center() Point {
	return Point{X: r.X1 + r.Width()/2, Y: r.Y1 + r.Height()/2}
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X1, r.Y1, r.X2, r.Y2)
}

// Offset moves the region by dx, dy
func (r Region) Offset(dx, dy int) Region {
	return Region{X1: r.X1 + dx, Y1: r.Y1 + dy, X2: r.X2 + dx, Y2: r.Y2 + dy}
}

// Scale multiplies every corner by factor (used to map OCR boxes back from an
// upscaled crop).
func (r Region) Scale(factor float64) Region {
	return Region{
		X1: int(float64(r.X1) * factor),
		Y1: int(float64(r.Y1) * factor),
		X2: int(float64(r.X2) * factor),
		Y2: int(float64(r.Y2) * factor),
	}
}

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", r.X1, r.Y1, r.X2, r.Y2)
}

// Color represents an RGB color
type Color struct {
	R uint8
	G uint8
	B uint8
}

// NewColor creates a new Color
func NewColor(r, g, b uint8) Color {
	return Color{R: r, G: g, B: b}
}

// ColorFromSlice builds a color from a configured [r, g, b] list.
// Channel values are clamped to 0..255.
func ColorFromSlice(v []int) (Color, bool) {
	if len(v) < 3 {
		return Color{}, false
	}
	return Color{R: clamp8(v[0]), G: clamp8(v[1]), B: clamp8(v[2])}, true
}

// Matches checks if another color matches within tolerance on every channel
func (c Color) Matches(other Color, tolerance int) bool {
	return absDiff(c.R, other.R) <= tolerance &&
		absDiff(c.G, other.G) <= tolerance &&
		absDiff(c.B, other.B) <= tolerance
}

// Distance returns the Euclidean distance between two colors
func (c Color) Distance(other Color) float64 {
	dr := float64(c.R) - float64(other.R)
	dg := float64(c.G) - float64(other.G)
	db := float64(c.B) - float64(other.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func (c Color) String() string {
	return fmt.Sprintf("rgb(%d,%d,%d)", c.R, c.G, c.B)
}

// IsColorClose reports whether all channels of a and b differ by at most tol.
// The relation is symmetric.
func IsColorClose(a, b Color, tol int) bool {
	return a.Matches(b, tol)
}

// ColorDistance returns the Euclidean distance between a and b.
func ColorDistance(a, b Color) float64 {
	return a.Distance(b)
}

// CompareRule selects how a ColorTarget compares a sample with its reference
type CompareRule int

const (
	RuleChannels  CompareRule = iota // every channel within tolerance
	RuleEuclidean                    // Euclidean distance within tolerance
)

// ColorTarget is a reference color loaded from configuration
type ColorTarget struct {
	Color     Color
	Tolerance int
	Rule      CompareRule
}

// NewColorTarget creates a per-channel target
func NewColorTarget(c Color, tolerance int) ColorTarget {
	return ColorTarget{Color: c, Tolerance: tolerance, Rule: RuleChannels}
}

// Matches checks a sampled color against the target
func (t ColorTarget) Matches(sample Color) bool {
	if t.Rule == RuleEuclidean {
		return t.Color.Distance(sample) <= float64(t.Tolerance)
	}
	return t.Color.Matches(sample, t.Tolerance)
}

// MatchAny returns the index of the first target that matches sample, or -1
func MatchAny(targets []ColorTarget, sample Color) int {
	for i, t := range targets {
		if t.Matches(sample) {
			return i
		}
	}
	return -1
}

// RGBRange is an inclusive per-channel color box
type RGBRange struct {
	Min Color
	Max Color
}

// Contains checks if c lies inside the range on every channel
func (r RGBRange) Contains(c Color) bool {
	return c.R >= r.Min.R && c.R <= r.Max.R &&
		c.G >= r.Min.G && c.G <= r.Max.G &&
		c.B >= r.Min.B && c.B <= r.Max.B
}

// AverageColor returns the mean color of region in img.
//
// The region is normalized (degenerate rects widened by 1px) and clipped to
// the image bounds. ok is false when nothing is left to sample.
func AverageColor(img image.Image, region Region) (c Color, ok bool) {
	if img == nil {
		return Color{}, false
	}
	rect := region.Normalize().Rect().Intersect(img.Bounds())
	if rect.Empty() {
		return Color{}, false
	}

	var sumR, sumG, sumB, n uint64
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			sumR += uint64(r >> 8)
			sumG += uint64(g >> 8)
			sumB += uint64(b >> 8)
			n++
		}
	}
	return Color{
		R: uint8(sumR / n),
		G: uint8(sumG / n),
		B: uint8(sumB / n),
	}, true
}

// ColorAt samples a single pixel. ok is false outside the image.
func ColorAt(img image.Image, p Point) (Color, bool) {
	if img == nil || !p.In(img.Bounds()) {
		return Color{}, false
	}
	r, g, b, _ := img.At(p.X, p.Y).RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}, true
}

// absDiff returns absolute difference between two uint8 values
func absDiff(a, b uint8) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func clamp8(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
