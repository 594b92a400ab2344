package vision

import (
	"image"
	"testing"

	"github.com/rs/zerolog"

	"clash-bot/config"
	"clash-bot/pixel"
)

func TestTileLimits(t *testing.T) {
	l := DefaultTileParams.limits(1728, 1080)
	if l.targetW != 86 || l.targetH != 118 {
		t.Errorf("target = %dx%d, want 86x118", l.targetW, l.targetH)
	}
	if l.minW != 60 || l.maxW != 129 || l.minH != 86 || l.maxH != 172 || l.minY != 864 {
		t.Errorf("limits = %+v", l)
	}
	if l.crop {
		t.Error("full frame treated as crop")
	}

	crop := DefaultTileParams.limits(1728, 300)
	if !crop.crop || crop.targetH != 118 {
		t.Errorf("crop limits = %+v, want simulated height 1080", crop)
	}
}

func TestSelectTileLeftmost(t *testing.T) {
	l := DefaultTileParams.limits(1728, 1080)
	top := roiTop(1080)
	if top != 810 {
		t.Fatalf("roiTop = %d, want 810", top)
	}

	boxes := []image.Rectangle{
		image.Rect(300, 80, 390, 190), // valid, further right
		image.Rect(5, 5, 15, 15),      // noise
		image.Rect(100, 80, 190, 190), // valid, leftmost
		image.Rect(50, 0, 140, 100),   // too high: global y 810 is not > 814
	}
	tile, candidates, ok := selectTile(boxes, top, l)
	if !ok {
		t.Fatal("expected a tile")
	}
	if len(candidates) != 2 {
		t.Errorf("candidates = %d, want 2", len(candidates))
	}
	if tile.Center != pixel.NewPoint(145, 945) {
		t.Errorf("center = %v, want (145, 945)", tile.Center)
	}
	if tile.Standard != pixel.NewRegion(102, 886, 188, 1004) {
		t.Errorf("standard = %v", tile.Standard)
	}
}

func TestSelectTileStandardizedSize(t *testing.T) {
	l := DefaultTileParams.limits(1728, 1080)
	sizes := []image.Rectangle{
		image.Rect(100, 60, 161, 147), // near minimum
		image.Rect(100, 60, 228, 231), // near maximum
		image.Rect(100, 60, 190, 170),
	}
	for _, box := range sizes {
		tile, _, ok := selectTile([]image.Rectangle{box}, 810, l)
		if !ok {
			t.Fatalf("box %v rejected", box)
		}
		if tile.Standard.Width() != 86 || tile.Standard.Height() != 118 {
			t.Errorf("box %v: standard %dx%d, want 86x118", box, tile.Standard.Width(), tile.Standard.Height())
		}
	}
}

func TestSelectTileTieKeepsScanOrder(t *testing.T) {
	l := DefaultTileParams.limits(1728, 1080)
	first := image.Rect(100, 80, 190, 190)
	second := image.Rect(100, 70, 190, 180)
	tile, _, ok := selectTile([]image.Rectangle{first, second}, 810, l)
	if !ok {
		t.Fatal("expected a tile")
	}
	if tile.Center.Y != 810+80+55 {
		t.Errorf("tie picked %v, want first-seen contour", tile.Center)
	}
}

func TestSelectTileCropSkipsPosition(t *testing.T) {
	l := DefaultTileParams.limits(1728, 300)
	tile, _, ok := selectTile([]image.Rectangle{image.Rect(10, 0, 100, 110)}, roiTop(300), l)
	if !ok {
		t.Fatal("crop contour rejected by position check")
	}
	if tile.Center != pixel.NewPoint(55, 55) {
		t.Errorf("center = %v", tile.Center)
	}
}

func TestSelectTileNone(t *testing.T) {
	l := DefaultTileParams.limits(1728, 1080)
	if _, _, ok := selectTile([]image.Rectangle{image.Rect(0, 0, 5, 5)}, 810, l); ok {
		t.Error("noise contour accepted")
	}
	if _, _, ok := selectTile(nil, 810, l); ok {
		t.Error("empty contour list accepted")
	}
}

func TestLocateFirstTileBlankFrameFallsBack(t *testing.T) {
	frame := image.NewRGBA(image.Rect(0, 0, 1728, 1080))
	if _, ok := LocateFirstTile(frame, DefaultTileParams, zerolog.Nop()); ok {
		t.Fatal("blank frame produced a tile")
	}

	tile := FallbackTile(config.DefaultResolution, DefaultTileParams)
	if tile.Center != pixel.NewPoint(198, 989) {
		t.Errorf("fallback center = %v, want (198, 989)", tile.Center)
	}
	if tile.Width != 86 || tile.Height != 118 {
		t.Errorf("fallback size = %dx%d", tile.Width, tile.Height)
	}
}

func TestTileParamsFromConfig(t *testing.T) {
	tree := config.Tree{"TileDetection": map[string]any{"target_w": 0.06}}
	p := TileParamsFromConfig(tree)
	if p.TargetW != 0.06 || p.TargetH != DefaultTileParams.TargetH {
		t.Errorf("params = %+v", p)
	}
}
