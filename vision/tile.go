// Package vision - tile.go
//
// Tile Locator. Finds the leftmost army tile in the deployment tray at the
// bottom of the frame and returns a standardized rectangle around its center.
// The tile is the anchor every select coordinate of an attack is derived from.
package vision

import (
	"image"
	"sort"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"

	"clash-bot/config"
	"clash-bot/pixel"
)

// Frames shorter than this are treated as tray crops
const cropHeightLimit = 400

// Contours may start this far above min_y_pos
const tilePositionSlack = 50

// Tile is a detected army tile
type Tile struct {
	Center   pixel.Point
	Width    int // standardized width
	Height   int // standardized height
	Standard pixel.Region
}

// TileParams are the TileDetection fractions. Widths are fractions of the
// frame width, heights and min_y_pos fractions of the (simulated) frame height.
type TileParams struct {
	TargetW float64
	TargetH float64
	MinW    float64
	MaxW    float64
	MinH    float64
	MaxH    float64
	MinYPos float64
}

// DefaultTileParams fit the tray at 1728x1080
var DefaultTileParams = TileParams{
	TargetW: 0.05,
	TargetH: 0.11,
	MinW:    0.035,
	MaxW:    0.075,
	MinH:    0.08,
	MaxH:    0.16,
	MinYPos: 0.8,
}

// TileParamsFromConfig reads the TileDetection section, keeping defaults
// for missing keys
func TileParamsFromConfig(tree config.Tree) TileParams {
	s := tree.Section("TileDetection")
	d := DefaultTileParams
	return TileParams{
		TargetW: s.Float("target_w", d.TargetW),
		TargetH: s.Float("target_h", d.TargetH),
		MinW:    s.Float("min_w", d.MinW),
		MaxW:    s.Float("max_w", d.MaxW),
		MinH:    s.Float("min_h", d.MinH),
		MaxH:    s.Float("max_h", d.MaxH),
		MinYPos: s.Float("min_y_pos", d.MinYPos),
	}
}

// tileLimits are TileParams resolved to pixels for one frame
type tileLimits struct {
	targetW, targetH int
	minW, maxW       int
	minH, maxH       int
	minY             int
	crop             bool
}

func (p TileParams) limits(w, h int) tileLimits {
	crop := h < cropHeightLimit
	simH := float64(h)
	if crop {
		simH = float64(config.DefaultResolution.Height) * float64(w) / float64(config.DefaultResolution.Width)
	}
	fw := float64(w)
	return tileLimits{
		targetW: int(fw * p.TargetW),
		targetH: int(simH * p.TargetH),
		minW:    int(fw * p.MinW),
		maxW:    int(fw * p.MaxW),
		minH:    int(simH * p.MinH),
		maxH:    int(simH * p.MaxH),
		minY:    int(simH * p.MinYPos),
		crop:    crop,
	}
}

// roiTop returns the first row of the tray region of interest
func roiTop(h int) int {
	if h < cropHeightLimit {
		return 0
	}
	return int(float64(h) * 0.75)
}

// accepts checks one bounding box given in ROI coordinates
func (l tileLimits) accepts(r image.Rectangle, top int) bool {
	w, h := r.Dx(), r.Dy()
	if w < l.minW || w > l.maxW || h < l.minH || h > l.maxH {
		return false
	}
	if l.crop {
		return true
	}
	return top+r.Min.Y > l.minY-tilePositionSlack
}

// selectTile picks the leftmost accepted box. Boxes are in ROI
// coordinates; the returned tile is in frame coordinates.
func selectTile(boxes []image.Rectangle, top int, l tileLimits) (Tile, []image.Rectangle, bool) {
	var candidates []image.Rectangle
	for _, b := range boxes {
		if l.accepts(b, top) {
			candidates = append(candidates, b)
		}
	}
	if len(candidates) == 0 {
		return Tile{}, nil, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Min.X < candidates[j].Min.X
	})

	win := candidates[0]
	cx := win.Min.X + win.Dx()/2
	cy := top + win.Min.Y + win.Dy()/2
	return NewTile(pixel.NewPoint(cx, cy), l.targetW, l.targetH), candidates, true
}

// NewTile builds a tile of the given standardized size around center
func NewTile(center pixel.Point, w, h int) Tile {
	x := center.X - w/2
	y := center.Y - h/2
	return Tile{
		Center:   center,
		Width:    w,
		Height:   h,
		Standard: pixel.NewRegion(x, y, x+w, y+h),
	}
}

// TileResult carries the located tile and the candidates for annotation
type TileResult struct {
	Tile       Tile
	Candidates []image.Rectangle // ROI coordinates
	ROITop     int
}

// LocateFirstTile finds the leftmost army tile in frame.
// ok is false when no contour passes the size and position filters.
func LocateFirstTile(frame image.Image, params TileParams, log zerolog.Logger) (TileResult, bool) {
	if frame == nil || frame.Bounds().Empty() {
		return TileResult{}, false
	}
	w, h := frame.Bounds().Dx(), frame.Bounds().Dy()
	top := roiTop(h)
	roi := pixel.NewRegion(0, top, w, h).Offset(frame.Bounds().Min.X, frame.Bounds().Min.Y)

	boxes, err := trayContours(frame, roi)
	if err != nil {
		log.Debug().Err(err).Msg("tile locator skipped")
		return TileResult{}, false
	}

	l := params.limits(w, h)
	log.Debug().
		Int("min_w", l.minW).Int("max_w", l.maxW).
		Int("min_h", l.minH).Int("max_h", l.maxH).
		Int("min_y", l.minY).Int("contours", len(boxes)).
		Msg("tile detection params")

	tile, candidates, ok := selectTile(boxes, top, l)
	if !ok {
		log.Warn().Int("contours", len(boxes)).Msg("no army tile detected")
		return TileResult{}, false
	}
	log.Info().Str("center", tile.Center.String()).Int("w", tile.Width).Int("h", tile.Height).Msg("first army tile detected")
	return TileResult{Tile: tile, Candidates: candidates, ROITop: top}, true
}

// trayContours runs gray, blur, Canny and external contour extraction over
// roi and returns the contour bounding boxes
func trayContours(frame image.Image, roi pixel.Region) ([]image.Rectangle, error) {
	bgr, err := regionMat(frame, roi)
	if err != nil {
		bgr.Close()
		return nil, err
	}
	defer bgr.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(bgr, &gray, gocv.ColorBGRToGray)

	blurred := gocv.NewMat()
	defer blurred.Close()
	gocv.GaussianBlur(gray, &blurred, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	edges := gocv.NewMat()
	defer edges.Close()
	gocv.Canny(blurred, &edges, 50, 150)

	contours := gocv.FindContours(edges, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	boxes := make([]image.Rectangle, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		boxes = append(boxes, gocv.BoundingRect(contours.At(i)))
	}
	return boxes, nil
}

// FallbackTile derives an anchor from resolution fractions when detection
// fails. The center sits at (0.115, 0.916) of the resolution.
func FallbackTile(res config.Resolution, params TileParams) Tile {
	center := pixel.NewPoint(
		int(float64(res.Width)*0.115),
		int(float64(res.Height)*0.916),
	)
	return NewTile(center, int(float64(res.Width)*params.TargetW), int(float64(res.Height)*params.TargetH))
}
