// Package vision - text.go
//
// Text detectors. Regions are upscaled before OCR, digit confusions are
// corrected before numeric runs are extracted, and words can be fuzzy
// matched against a target with a similarity ratio.
//
// OCR is reached through TextReader so detectors stay testable without a
// tesseract installation. TesseractReader is the production reader.
package vision

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"unicode"

	"github.com/otiai10/gosseract"
	"github.com/pmezard/go-difflib/difflib"
	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"clash-bot/pixel"
)

// Page segmentation modes used by the detectors
const (
	PSMSingleBlock = 6
	PSMSingleLine  = 7
)

// Defaults for word search
const (
	DefaultFuzzyThreshold = 0.6
	minWordConfidence     = 30
	wordSearchScale       = 2.0
)

// OCROptions configures one OCR call
type OCROptions struct {
	PageSegMode int    // tesseract --psm
	Whitelist   string // allowed characters, empty for all
}

// Word is one OCR word with its box in the coordinates of the image read
type Word struct {
	Text       string
	Box        pixel.Region
	Confidence float64
}

// TextReader runs OCR over an image
type TextReader interface {
	ReadText(img image.Image, opts OCROptions) (string, error)
	ReadWords(img image.Image, opts OCROptions) ([]Word, error)
}

// TesseractReader reads text with gosseract. A single client is reused and
// guarded by a mutex because tesseract handles are not goroutine safe.
type TesseractReader struct {
	client *gosseract.Client
	mu     sync.Mutex
}

// NewTesseractReader creates a reader for English text
func NewTesseractReader() *TesseractReader {
	client := gosseract.NewClient()
	client.SetLanguage("eng")
	return &TesseractReader{client: client}
}

// Close releases the tesseract client
func (r *TesseractReader) Close() error {
	return r.client.Close()
}

func (r *TesseractReader) prepare(img image.Image, opts OCROptions) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return fmt.Errorf("failed to encode ocr image: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to set ocr image: %w", err)
	}
	psm := opts.PageSegMode
	if psm == 0 {
		psm = PSMSingleBlock
	}
	if err := r.client.SetPageSegMode(gosseract.PageSegMode(psm)); err != nil {
		return fmt.Errorf("failed to set page seg mode: %w", err)
	}
	if err := r.client.SetWhitelist(opts.Whitelist); err != nil {
		return fmt.Errorf("failed to set whitelist: %w", err)
	}
	return nil
}

// ReadText returns the recognized text
func (r *TesseractReader) ReadText(img image.Image, opts OCROptions) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.prepare(img, opts); err != nil {
		return "", err
	}
	text, err := r.client.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

// ReadWords returns recognized words with boxes and confidences
func (r *TesseractReader) ReadWords(img image.Image, opts OCROptions) ([]Word, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.prepare(img, opts); err != nil {
		return nil, err
	}
	boxes, err := r.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("failed to read words: %w", err)
	}
	words := make([]Word, 0, len(boxes))
	for _, b := range boxes {
		words = append(words, Word{
			Text:       b.Word,
			Box:        pixel.NewRegion(b.Box.Min.X, b.Box.Min.Y, b.Box.Max.X, b.Box.Max.Y),
			Confidence: b.Confidence,
		})
	}
	return words, nil
}

// ReadRegionText crops region, upscales it by scale and runs OCR.
// Failures return "" and are logged; OCR noise is never fatal.
func ReadRegionText(frame image.Image, region pixel.Region, reader TextReader, scale float64, opts OCROptions, log zerolog.Logger) string {
	crop, err := Crop(frame, region)
	if err != nil {
		log.Debug().Str("region", region.String()).Msg("ocr region outside frame")
		return ""
	}
	var img image.Image = crop
	if scale > 1 {
		img = Upscale(crop, scale)
	}
	text, err := reader.ReadText(img, opts)
	if err != nil {
		log.Warn().Err(err).Str("region", region.String()).Msg("ocr failed")
		return ""
	}
	return strings.TrimSpace(text)
}

// NormalizeWord lowercases s and strips punctuation and spaces
func NormalizeWord(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FuzzyRatio returns the SequenceMatcher similarity of two normalized words
func FuzzyRatio(a, b string) float64 {
	a, b = NormalizeWord(a), NormalizeWord(b)
	if a == "" && b == "" {
		return 1
	}
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// WordMatch is a fuzzy hit of WordInRegion
type WordMatch struct {
	Word       string
	Box        pixel.Region // frame coordinates
	Confidence float64
	Similarity float64
}

// WordSearch configures WordInRegion
type WordSearch struct {
	Target    string
	TextColor Label   // LabelRed selects the red-text preprocessing
	Threshold float64 // similarity needed, default 0.6
}

// WordInRegion OCRs region and returns every word similar to the target.
//
// Steps:
//   1. Upscale the crop 2x (cubic)
//   2. Red text: boost the red channel, bilateral filter, equalize and
//      adaptive threshold. Other text: grayscale + bilateral filter
//   3. Read words, skip confidence < 30
//   4. Keep words with similarity >= threshold, boxes mapped back to frame
func WordInRegion(frame image.Image, region pixel.Region, reader TextReader, search WordSearch, log zerolog.Logger) []WordMatch {
	threshold := search.Threshold
	if threshold <= 0 {
		threshold = DefaultFuzzyThreshold
	}
	region = region.Normalize()

	prepared, err := preprocessText(frame, region, search.TextColor)
	if err != nil {
		log.Debug().Err(err).Str("region", region.String()).Msg("word search skipped")
		return nil
	}

	words, err := reader.ReadWords(prepared, OCROptions{PageSegMode: PSMSingleBlock})
	if err != nil {
		log.Warn().Err(err).Str("target", search.Target).Msg("word search ocr failed")
		return nil
	}

	var found []WordMatch
	for _, w := range words {
		if strings.TrimSpace(w.Text) == "" || w.Confidence < minWordConfidence {
			continue
		}
		sim := FuzzyRatio(search.Target, w.Text)
		if sim < threshold {
			continue
		}
		box := pixel.Region{
			X1: region.X1 + int(float64(w.Box.X1)/wordSearchScale),
			Y1: region.Y1 + int(float64(w.Box.Y1)/wordSearchScale),
			X2: region.X1 + int(float64(w.Box.X2)/wordSearchScale),
			Y2: region.Y1 + int(float64(w.Box.Y2)/wordSearchScale),
		}
		found = append(found, WordMatch{Word: w.Text, Box: box, Confidence: w.Confidence, Similarity: sim})
	}
	log.Debug().Str("target", search.Target).Int("found", len(found)).Msg("word search")
	return found
}

// preprocessText prepares a region for word OCR
func preprocessText(frame image.Image, region pixel.Region, textColor Label) (image.Image, error) {
	bgr, err := regionMat(frame, region)
	if err != nil {
		bgr.Close()
		return nil, err
	}
	defer bgr.Close()

	up := gocv.NewMat()
	defer up.Close()
	gocv.Resize(bgr, &up, image.Point{}, wordSearchScale, wordSearchScale, gocv.InterpolationCubic)

	gray := gocv.NewMat()
	defer gray.Close()
	filtered := gocv.NewMat()
	defer filtered.Close()

	if textColor == LabelRed {
		channels := gocv.Split(up)
		defer func() {
			for _, c := range channels {
				c.Close()
			}
		}()
		b, g, r := channels[0], channels[1], channels[2]

		inverted := gocv.NewMat()
		defer inverted.Close()
		gocv.BitwiseNot(r, &inverted)

		boosted := gocv.NewMat()
		defer boosted.Close()
		gocv.AddWeighted(r, 2.0, inverted, -0.5, 0, &boosted)

		mixed := gocv.NewMat()
		defer mixed.Close()
		gocv.AddWeighted(boosted, 0.7, g, 0.3, 0, &mixed)
		gocv.AddWeighted(mixed, 1.0, b, -0.3, 0, &gray)

		gocv.BilateralFilter(gray, &filtered, 7, 50, 50)

		equalized := gocv.NewMat()
		defer equalized.Close()
		gocv.EqualizeHist(filtered, &equalized)
		gocv.AdaptiveThreshold(equalized, &filtered, 255, gocv.AdaptiveThresholdGaussian, gocv.ThresholdBinary, 11, 2)
	} else {
		gocv.CvtColor(up, &gray, gocv.ColorBGRToGray)
		gocv.BilateralFilter(gray, &filtered, 7, 50, 50)
	}

	img, err := filtered.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert preprocessed text: %w", err)
	}
	return img, nil
}
