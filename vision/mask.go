// Package vision - mask.go
//
// Masked-pixel-ratio detectors. A region is converted to HSV, a binary mask
// is built per hue band, and the set pixels are counted. Used where overlaid
// text corrupts a plain average-color read.
package vision

import (
	"image"

	"gocv.io/x/gocv"

	"clash-bot/pixel"
)

// HSVBand is an inclusive OpenCV HSV range (H 0-180, S/V 0-255)
type HSVBand struct {
	Lower [3]float64
	Upper [3]float64
}

// Red wraps around hue 0, so it takes two bands
var (
	RedBands = []HSVBand{
		{Lower: [3]float64{0, 70, 50}, Upper: [3]float64{10, 255, 255}},
		{Lower: [3]float64{170, 70, 50}, Upper: [3]float64{180, 255, 255}},
	}
	WhiteBands = []HSVBand{
		{Lower: [3]float64{0, 0, 180}, Upper: [3]float64{180, 50, 255}},
	}
)

// Label is a classification result
type Label string

const (
	LabelUnknown Label = "unknown"
	LabelRed     Label = "red"
	LabelWhite   Label = "white"
	LabelGrey    Label = "grey"
)

// DefaultMaskThreshold is the absolute pixel count a label needs
const DefaultMaskThreshold = 100

// CountInBands counts pixels of region that fall in any of bands.
// total is the number of pixels examined. ok is false on an empty crop.
func CountInBands(frame image.Image, region pixel.Region, bands []HSVBand) (count, total int, ok bool) {
	bgr, err := regionMat(frame, region)
	if err != nil {
		bgr.Close()
		return 0, 0, false
	}
	defer bgr.Close()

	hsv := gocv.NewMat()
	defer hsv.Close()
	gocv.CvtColor(bgr, &hsv, gocv.ColorBGRToHSV)

	mask := bandMask(hsv, bands)
	defer mask.Close()

	return gocv.CountNonZero(mask), hsv.Rows() * hsv.Cols(), true
}

// bandMask ORs the masks of all bands. The caller closes the result.
func bandMask(hsv gocv.Mat, bands []HSVBand) gocv.Mat {
	mask := gocv.Zeros(hsv.Rows(), hsv.Cols(), gocv.MatTypeCV8U)
	for _, b := range bands {
		part := gocv.NewMat()
		lower := gocv.NewScalar(b.Lower[0], b.Lower[1], b.Lower[2], 0)
		upper := gocv.NewScalar(b.Upper[0], b.Upper[1], b.Upper[2], 0)
		gocv.InRangeWithScalar(hsv, lower, upper, &part)
		gocv.BitwiseOr(mask, part, &mask)
		part.Close()
	}
	return mask
}

// RedOrWhite classifies region by competing red and white masks.
//
// Red wins when red > 0.5*white and red > threshold; otherwise white wins
// when white > red and white > threshold. Anything else is unknown.
func RedOrWhite(frame image.Image, region pixel.Region, threshold int) Label {
	if threshold <= 0 {
		threshold = DefaultMaskThreshold
	}
	red, _, okRed := CountInBands(frame, region, RedBands)
	white, _, okWhite := CountInBands(frame, region, WhiteBands)
	if !okRed || !okWhite {
		return LabelUnknown
	}
	return classifyRedWhite(red, white, threshold)
}

func classifyRedWhite(red, white, threshold int) Label {
	switch {
	case float64(red) > 0.5*float64(white) && red > threshold:
		return LabelRed
	case white > red && white > threshold:
		return LabelWhite
	default:
		return LabelUnknown
	}
}

// IsRed reports whether more than a seventh of region is red
func IsRed(frame image.Image, region pixel.Region) bool {
	red, total, ok := CountInBands(frame, region, RedBands)
	if !ok {
		return false
	}
	return red > total/7
}
