// Package vision - frame.go
//
// Frame helpers shared by the detectors: cropping a region out of a captured
// image, upscaling crops for OCR and converting to gocv matrices.
//
// Frames are transient: detectors read them and never retain them.
package vision

import (
	"errors"
	"image"

	"gocv.io/x/gocv"
	xdraw "golang.org/x/image/draw"

	"clash-bot/pixel"
)

// ErrEmptyFrame is returned when a frame or crop holds no pixels
var ErrEmptyFrame = errors.New("empty frame")

// Crop copies region of frame into a new RGBA image anchored at (0,0).
// The region is normalized and clipped to the frame bounds.
func Crop(frame image.Image, region pixel.Region) (*image.RGBA, error) {
	if frame == nil {
		return nil, ErrEmptyFrame
	}
	rect := region.Normalize().Rect().Intersect(frame.Bounds())
	if rect.Empty() {
		return nil, ErrEmptyFrame
	}
	dst := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	xdraw.Draw(dst, dst.Bounds(), frame, rect.Min, xdraw.Src)
	return dst, nil
}

// Upscale resizes img by factor with a cubic (Catmull-Rom) kernel
func Upscale(img image.Image, factor float64) *image.RGBA {
	b := img.Bounds()
	w := int(float64(b.Dx()) * factor)
	h := int(float64(b.Dy()) * factor)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// toMat converts an image to a BGR gocv matrix. The caller closes it.
func toMat(img image.Image) (gocv.Mat, error) {
	if img == nil || img.Bounds().Empty() {
		return gocv.NewMat(), ErrEmptyFrame
	}
	if img.Bounds().Min != (image.Point{}) {
		rgba := image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		xdraw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, xdraw.Src)
		img = rgba
	}
	return gocv.ImageToMatRGB(img)
}

// regionMat crops region and converts it to a BGR matrix
func regionMat(frame image.Image, region pixel.Region) (gocv.Mat, error) {
	crop, err := Crop(frame, region)
	if err != nil {
		return gocv.NewMat(), err
	}
	return toMat(crop)
}

// FullRegion returns a region covering the whole frame
func FullRegion(frame image.Image) pixel.Region {
	b := frame.Bounds()
	return pixel.NewRegion(b.Min.X, b.Min.Y, b.Max.X, b.Max.Y)
}
