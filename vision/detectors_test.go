package vision

import (
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clash-bot/config"
	"clash-bot/pixel"
)

// fakeReader returns canned OCR output
type fakeReader struct {
	text  string
	words []Word
	calls int
}

func (f *fakeReader) ReadText(img image.Image, opts OCROptions) (string, error) {
	f.calls++
	return f.text, nil
}

func (f *fakeReader) ReadWords(img image.Image, opts OCROptions) ([]Word, error) {
	f.calls++
	return f.words, nil
}

func solidFrame(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

func newTestDetectors(tree config.Tree, reader TextReader) *Detectors {
	return NewDetectors(tree, config.DefaultResolution, reader, nil, nil, zerolog.Nop())
}

func TestFuzzyRatio(t *testing.T) {
	tests := []struct {
		a, b string
		min  float64
		max  float64
	}{
		{"Home", "home!", 1, 1},
		{"Return", "Retum", 0.72, 0.73},
		{"attack", "home", 0, 0},
		{"", "", 1, 1},
	}
	for _, tt := range tests {
		got := FuzzyRatio(tt.a, tt.b)
		if got < tt.min || got > tt.max {
			t.Errorf("FuzzyRatio(%q, %q) = %.3f, want [%.2f, %.2f]", tt.a, tt.b, got, tt.min, tt.max)
		}
	}
}

func TestNormalizeWord(t *testing.T) {
	if got := NormalizeWord(" Re-turn!\""); got != "return" {
		t.Errorf("NormalizeWord = %q", got)
	}
}

func TestClassifyRedWhite(t *testing.T) {
	tests := []struct {
		red, white int
		want       Label
	}{
		{500, 600, LabelRed},   // red text with white outline
		{50, 600, LabelWhite},  // white text
		{80, 40, LabelUnknown}, // below threshold
		{150, 400, LabelWhite}, // red not significant
		{0, 0, LabelUnknown},
	}
	for _, tt := range tests {
		if got := classifyRedWhite(tt.red, tt.white, 100); got != tt.want {
			t.Errorf("classifyRedWhite(%d, %d) = %s, want %s", tt.red, tt.white, got, tt.want)
		}
	}
}

func TestIsRedSolidFrames(t *testing.T) {
	region := pixel.NewRegion(0, 0, 20, 20)
	if !IsRed(solidFrame(20, 20, color.RGBA{230, 10, 10, 255}), region) {
		t.Error("red frame not detected")
	}
	if IsRed(solidFrame(20, 20, color.RGBA{10, 200, 10, 255}), region) {
		t.Error("green frame detected as red")
	}
	if got := RedOrWhite(solidFrame(20, 20, color.RGBA{250, 250, 250, 255}), region, 100); got != LabelWhite {
		t.Errorf("RedOrWhite(white) = %s", got)
	}
}

func TestClassifyButton(t *testing.T) {
	tests := []struct {
		c    pixel.Color
		want Label
	}{
		{pixel.NewColor(200, 60, 50), LabelRed},
		{pixel.NewColor(130, 128, 135), LabelGrey},
		{pixel.NewColor(240, 240, 240), LabelUnknown},
		{pixel.NewColor(20, 200, 20), LabelUnknown},
	}
	for _, tt := range tests {
		if got := classifyButton(tt.c); got != tt.want {
			t.Errorf("classifyButton(%v) = %s, want %s", tt.c, got, tt.want)
		}
	}
}

func TestAvailableCount(t *testing.T) {
	tests := []struct {
		nums   []string
		goblin int
		reject int
		want   int
	}{
		{[]string{"3", "6"}, 7, 0, 3},
		{[]string{"1", "7"}, 7, 0, 0},
		{nil, 7, 0, 0},
		{[]string{"1", "2"}, 2, 2, 0},
		{[]string{"2"}, 2, 2, 0},
		{[]string{"1"}, 2, 2, 1},
	}
	for _, tt := range tests {
		if got := availableCount(tt.nums, tt.goblin, tt.reject); got != tt.want {
			t.Errorf("availableCount(%v) = %d, want %d", tt.nums, got, tt.want)
		}
	}
}

func TestResourcesOCR(t *testing.T) {
	reader := &fakeReader{text: "1 2S4 O00"}
	d := newTestDetectors(config.Tree{}, reader)
	gold, elixir, dark := d.Resources(solidFrame(1728, 1080, color.RGBA{0, 0, 0, 255}))
	if gold != 1254000 || elixir != 1254000 || dark != 1254000 {
		t.Errorf("Resources = %d, %d, %d", gold, elixir, dark)
	}
	if reader.calls != 3 {
		t.Errorf("ocr calls = %d, want 3", reader.calls)
	}
}

func TestAvailabilityCorrectsOCRDigits(t *testing.T) {
	frame := solidFrame(1728, 1080, color.RGBA{0, 0, 0, 255})
	tests := []struct {
		name string
		text string
		read func(*Detectors, image.Image) int
		want int
	}{
		{"goblin builder", "l/7", (*Detectors).BuildersAvailable, 0},
		{"free builders", "S/6", (*Detectors).BuildersAvailable, 5},
		{"goblin researcher", "l/2", (*Detectors).ResearchAvailable, 0},
		{"free lab", "I", (*Detectors).ResearchAvailable, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDetectors(config.Tree{}, &fakeReader{text: tt.text})
			if got := tt.read(d, frame); got != tt.want {
				t.Errorf("%q read as %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestDetectorsWithoutReader(t *testing.T) {
	d := newTestDetectors(config.Tree{}, nil)
	frame := solidFrame(1728, 1080, color.RGBA{0, 0, 0, 255})
	if n := d.BuildersAvailable(frame); n != 0 {
		t.Errorf("BuildersAvailable = %d", n)
	}
	if n := d.SpecialUnitCount(frame, NewTile(pixel.NewPoint(200, 990), 86, 118)); n != 0 {
		t.Errorf("SpecialUnitCount = %d", n)
	}
}

func TestSpecialUnitCount(t *testing.T) {
	d := newTestDetectors(config.Tree{}, &fakeReader{text: "x2\n"})
	frame := solidFrame(1728, 1080, color.RGBA{40, 40, 40, 255})
	if n := d.SpecialUnitCount(frame, NewTile(pixel.NewPoint(200, 990), 86, 118)); n != 2 {
		t.Errorf("SpecialUnitCount = %d, want 2", n)
	}
}

func TestBaseLocation(t *testing.T) {
	tree := config.Tree{
		SectionCoords: map[string]any{"base_determination_check_pos": []any{int64(5), int64(5)}},
		SectionColors: map[string]any{
			"builder_base_rgb_targets": []any{[]any{int64(90), int64(120), int64(160)}},
			"home_base_rgb_targets":    []any{[]any{int64(60), int64(140), int64(40)}, []any{int64(200), int64(200), int64(200)}},
		},
	}
	d := newTestDetectors(tree, nil)
	tests := []struct {
		c    color.RGBA
		want BaseKind
	}{
		{color.RGBA{100, 110, 170, 255}, BaseBuilder},
		{color.RGBA{190, 210, 200, 255}, BaseHome},
		{color.RGBA{0, 0, 0, 255}, BaseUnknown},
	}
	for _, tt := range tests {
		if got := d.BaseLocation(solidFrame(10, 10, tt.c)); got != tt.want {
			t.Errorf("BaseLocation(%v) = %s, want %s", tt.c, got, tt.want)
		}
	}
	if got := d.BaseLocation(solidFrame(3, 3, color.RGBA{100, 110, 170, 255})); got != BaseUnknown {
		t.Errorf("out of bounds check = %s", got)
	}
}

func TestHeroesAvailable(t *testing.T) {
	frame := solidFrame(100, 20, color.RGBA{120, 120, 120, 255})
	draw.Draw(frame, image.Rect(0, 0, 20, 20), &image.Uniform{C: color.RGBA{150, 60, 200, 255}}, image.Point{}, draw.Src)
	draw.Draw(frame, image.Rect(40, 0, 60, 20), &image.Uniform{C: color.RGBA{140, 70, 190, 255}}, image.Point{}, draw.Src)

	tree := config.Tree{
		SectionCoords: map[string]any{
			"heroes_available_regions": []any{
				[]any{int64(0), int64(0), int64(20), int64(20)},
				[]any{int64(40), int64(0), int64(60), int64(20)},
				[]any{int64(70), int64(0), int64(90), int64(20)},
			},
		},
		SectionColors: map[string]any{
			"hero_available_target_purple": []any{[]any{int64(150), int64(60), int64(200)}},
			"hero_unavailable_target_grey": []any{int64(120), int64(120), int64(120)},
		},
	}
	if got := newTestDetectors(tree, nil).HeroesAvailable(frame); got != 2 {
		t.Errorf("HeroesAvailable = %d, want 2", got)
	}
}

func TestResourcesMaxed(t *testing.T) {
	frame := solidFrame(40, 10, color.RGBA{240, 200, 30, 255})
	tree := config.Tree{
		SectionCoords: map[string]any{
			"home_resources_check_regions_map": []any{
				map[string]any{"type": "gold", "region": []any{int64(0), int64(0), int64(10), int64(10)}},
				map[string]any{"type": "elixir", "region": []any{int64(10), int64(0), int64(20), int64(10)}},
			},
		},
		SectionRanges: map[string]any{
			"resource_gold_max_rgb_range":   []any{[]any{int64(200), int64(150), int64(0)}, []any{int64(255), int64(255), int64(80)}},
			"resource_elixir_max_rgb_range": []any{[]any{int64(150), int64(0), int64(150)}, []any{int64(255), int64(100), int64(255)}},
		},
	}
	flags := newTestDetectors(tree, nil).ResourcesMaxed(frame)
	if len(flags) != 2 || !flags[0].Maxed || flags[1].Maxed {
		t.Errorf("flags = %+v", flags)
	}
	if AllMaxed(flags) || AllMaxed(nil) {
		t.Error("AllMaxed true with an unfilled storage")
	}
}

func TestBaseLoaded(t *testing.T) {
	d := newTestDetectors(config.Tree{}, nil)
	if d.BaseLoaded(solidFrame(1728, 1080, color.RGBA{254, 254, 254, 255})) {
		t.Error("clouds reported as loaded")
	}
	if !d.BaseLoaded(solidFrame(1728, 1080, color.RGBA{80, 140, 60, 255})) {
		t.Error("grass reported as clouds")
	}
}

func TestReturnHomeColorGate(t *testing.T) {
	reader := &fakeReader{text: "Return Home"}
	d := newTestDetectors(config.Tree{}, reader)
	if d.ReturnHomeVisible(nil) {
		t.Error("nil frame reported return home")
	}
	if d.ReturnHomeVisible(solidFrame(1728, 1080, color.RGBA{20, 20, 20, 255})) {
		t.Error("dark region passed the color gate")
	}
	if reader.calls != 0 {
		t.Errorf("ocr ran %d times before color matched", reader.calls)
	}
	if !d.ReturnHomeVisible(solidFrame(1728, 1080, color.RGBA{250, 250, 250, 255})) {
		t.Error("return home not detected")
	}
}

func TestFitReference(t *testing.T) {
	if w, h := fitReference(200, 100, 100, 100); w != 100 || h != 50 {
		t.Errorf("fit by width = %dx%d", w, h)
	}
	if w, h := fitReference(100, 400, 200, 100); w != 25 || h != 100 {
		t.Errorf("fit by height = %dx%d", w, h)
	}
}

func TestTemplateTriggerMissingReference(t *testing.T) {
	trig := NewTemplateTrigger(filepath.Join(t.TempDir(), "missing.png"), zerolog.Nop())
	defer trig.Close()
	if trig.Check(solidFrame(10, 10, color.RGBA{0, 0, 0, 255})) {
		t.Error("missing reference matched")
	}
}

func TestScreenshotStoreRotation(t *testing.T) {
	dir := t.TempDir()
	store := NewScreenshotStore(dir, zerolog.Nop())
	store.Limit = 3
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	store.Now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}

	for i := 0; i < 5; i++ {
		path, err := store.NewPath("base_load_check")
		if err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("png"), 0644); err != nil {
			t.Fatal(err)
		}
		mod := base.Add(time.Duration(i) * time.Minute)
		if err := os.Chtimes(path, mod, mod); err != nil {
			t.Fatal(err)
		}
	}

	files, err := store.Files("base_load_check")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 3 {
		t.Fatalf("kept %d files, want 3", len(files))
	}
	if filepath.Base(files[2]) != "base_load_check_20250101_120005.000000.png" {
		t.Errorf("newest = %s", files[2])
	}
}

func TestAverageColorUsedByInRange(t *testing.T) {
	frame := solidFrame(10, 10, color.RGBA{100, 100, 100, 255})
	rng := pixel.RGBRange{Min: pixel.NewColor(90, 90, 90), Max: pixel.NewColor(110, 110, 110)}
	if !InRange(frame, pixel.NewRegion(0, 0, 10, 10), rng) {
		t.Error("grey not in range")
	}
	if InRange(frame, pixel.NewRegion(50, 50, 60, 60), rng) {
		t.Error("region outside frame reported in range")
	}
}
