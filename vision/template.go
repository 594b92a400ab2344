// Package vision - template.go
//
// Template-match detector. A small reference image is matched against the
// frame with normalized cross-correlation; the reference is shrunk first if
// it does not fit.
package vision

import (
	"fmt"
	"image"
	"os"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// DefaultMatchThreshold is the peak correlation that counts as a match
const DefaultMatchThreshold = 0.8

// DefaultGoldPassTemplate is the reference image of the gold pass overlay
const DefaultGoldPassTemplate = "data/templates/gold_pass_reference.png"

// Match is the result of a template search
type Match struct {
	Found bool
	Score float32
	Loc   image.Point // top-left of the best match in frame coordinates
}

// MatchTemplate searches frame for reference and reports the best match.
// A Match with Found false is returned on any conversion failure.
func MatchTemplate(frame, reference image.Image, threshold float32, log zerolog.Logger) Match {
	if threshold <= 0 {
		threshold = DefaultMatchThreshold
	}
	img, err := toMat(frame)
	if err != nil {
		img.Close()
		log.Debug().Err(err).Msg("template match skipped: empty frame")
		return Match{}
	}
	defer img.Close()

	ref, err := toMat(reference)
	if err != nil {
		ref.Close()
		log.Debug().Err(err).Msg("template match skipped: empty reference")
		return Match{}
	}
	defer ref.Close()

	return matchMats(img, ref, threshold, log)
}

func matchMats(img, ref gocv.Mat, threshold float32, log zerolog.Logger) Match {
	iw, ih := img.Cols(), img.Rows()
	rw, rh := ref.Cols(), ref.Rows()

	if rw > iw || rh > ih {
		w, h := fitReference(rw, rh, iw, ih)
		log.Debug().Int("ref_w", rw).Int("ref_h", rh).Int("w", w).Int("h", h).Msg("resizing template reference")
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(ref, &resized, image.Pt(w, h), 0, 0, gocv.InterpolationLinear)
		ref = resized
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()
	gocv.MatchTemplate(img, ref, &result, gocv.TmCcoeffNormed, mask)

	_, maxVal, _, maxLoc := gocv.MinMaxLoc(result)
	log.Debug().Float32("score", maxVal).Msg("template match")
	return Match{Found: maxVal > threshold, Score: maxVal, Loc: maxLoc}
}

// fitReference scales (rw, rh) by width ratio, then by height ratio if the
// result is still taller than the frame
func fitReference(rw, rh, iw, ih int) (int, int) {
	scale := float64(iw) / float64(rw)
	w, h := int(float64(rw)*scale), int(float64(rh)*scale)
	if h > ih {
		scale = float64(ih) / float64(rh)
		w, h = int(float64(rw)*scale), int(float64(rh)*scale)
	}
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// LoadReference reads a reference image from disk as BGR
func LoadReference(path string) (gocv.Mat, error) {
	if _, err := os.Stat(path); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to find reference %s: %w", path, err)
	}
	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		return mat, fmt.Errorf("failed to decode reference %s: %w", path, ErrEmptyFrame)
	}
	return mat, nil
}

// TemplateTrigger is a kill-switch detector backed by a reference file.
// The reference is loaded on first use and kept for the process lifetime.
type TemplateTrigger struct {
	Path      string
	Threshold float32
	ref       gocv.Mat
	loaded    bool
	log       zerolog.Logger
}

// NewTemplateTrigger creates a trigger for the reference at path
func NewTemplateTrigger(path string, log zerolog.Logger) *TemplateTrigger {
	return &TemplateTrigger{Path: path, Threshold: DefaultMatchThreshold, log: log}
}

// Check reports whether the reference is visible in frame. A missing
// reference disables the trigger for this call.
func (t *TemplateTrigger) Check(frame image.Image) bool {
	if !t.loaded {
		ref, err := LoadReference(t.Path)
		if err != nil {
			ref.Close()
			t.log.Warn().Err(err).Msg("template reference unavailable")
			return false
		}
		t.ref = ref
		t.loaded = true
	}
	img, err := toMat(frame)
	if err != nil {
		img.Close()
		return false
	}
	defer img.Close()

	m := matchMats(img, t.ref, t.Threshold, t.log)
	if m.Found {
		t.log.Info().Float32("score", m.Score).Str("reference", t.Path).Msg("template trigger matched")
	}
	return m.Found
}

// Close releases the cached reference
func (t *TemplateTrigger) Close() error {
	if t.loaded {
		t.loaded = false
		return t.ref.Close()
	}
	return nil
}
