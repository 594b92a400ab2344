// Package vision - detectors.go
//
// Game detector catalog. Each detector maps one captured frame to a typed
// fact using regions and colors from the resolved configuration:
//
//   BaseLocation        home / builder / unknown from one pixel
//   Resources           enemy loot via OCR
//   BuildersAvailable   free builders via OCR
//   ResearchAvailable   free laboratory via OCR
//   ResourcesMaxed      storage-full flags via RGB ranges
//   HeroesAvailable     count of ready heroes via target colors
//   AttackButtonColor   red / grey / unknown
//   ReturnHomeVisible   battle-end button (color, OCR, fuzzy word)
//   BaseLoaded          clouds gone from the check pixel
//   GoldPass            template kill-switch
//   SpecialUnitCount    unit count printed on the first tile
//
// Detectors never return errors. Missing data yields the conservative
// fact (zero, false, unknown) and a log line.
package vision

import (
	"image"
	"strings"

	"github.com/rs/zerolog"

	"clash-bot/config"
	"clash-bot/pixel"
)

// Config sections read by the detectors
const (
	SectionCoords = "ObjectDetectionCoordinates"
	SectionColors = "ObjectDetectionColors"
	SectionRanges = "ObjectDetectionRanges"
	SectionHome   = "HomeBaseCoordinates"
	SectionMisc   = "Colors"
)

// BaseKind is the village currently on screen
type BaseKind string

const (
	BaseUnknown BaseKind = "unknown"
	BaseHome    BaseKind = "home"
	BaseBuilder BaseKind = "builder"
)

// ResourceFlag is one storage-full reading
type ResourceFlag struct {
	Type  string
	Maxed bool
}

// Detectors evaluates the catalog against frames
type Detectors struct {
	coords config.Tree
	colors config.Tree
	ranges config.Tree
	home   config.Tree
	misc   config.Tree

	res      config.Resolution
	reader   TextReader
	trigger  *TemplateTrigger
	annotate *Annotator
	log      zerolog.Logger
}

// NewDetectors binds the catalog to a resolved config tree.
// trigger and annotate may be nil.
func NewDetectors(tree config.Tree, res config.Resolution, reader TextReader, trigger *TemplateTrigger, annotate *Annotator, log zerolog.Logger) *Detectors {
	return &Detectors{
		coords:   tree.Section(SectionCoords),
		colors:   tree.Section(SectionColors),
		ranges:   tree.Section(SectionRanges),
		home:     tree.Section(SectionHome),
		misc:     tree.Section(SectionMisc),
		res:      res,
		reader:   reader,
		trigger:  trigger,
		annotate: annotate,
		log:      log,
	}
}

// region reads a configured region, defaulting to one authored at 1728x1080
func (d *Detectors) region(section config.Tree, key string, x1, y1, x2, y2 int) pixel.Region {
	ax, ay := d.res.Scale(x1, y1)
	bx, by := d.res.Scale(x2, y2)
	return section.Region(key, pixel.NewRegion(ax, ay, bx, by))
}

// point reads a configured point, defaulting to one authored at 1728x1080
func (d *Detectors) point(section config.Tree, key string, x, y int) pixel.Point {
	px, py := d.res.Scale(x, y)
	return section.Point(key, pixel.NewPoint(px, py))
}

func (d *Detectors) colorOr(section config.Tree, key string, def pixel.Color) pixel.Color {
	if cs := section.Colors(key); len(cs) > 0 {
		return cs[0]
	}
	return def
}

// readNumbers OCRs region and returns its corrected digit runs
func (d *Detectors) readNumbers(frame image.Image, region pixel.Region) (string, []string) {
	if d.reader == nil {
		return "", nil
	}
	text := ReadRegionText(frame, region, d.reader, 2, OCROptions{PageSegMode: PSMSingleBlock}, d.log)
	return text, pixel.ExtractNumbers(pixel.CorrectOCRDigits(text))
}

// BaseLocation decides which village is shown from one pixel. Builder
// targets are tried before home targets.
func (d *Detectors) BaseLocation(frame image.Image) BaseKind {
	p := d.point(d.coords, "base_determination_check_pos", 1669, 149)
	c, ok := pixel.ColorAt(frame, p)
	if !ok {
		d.log.Error().Str("pos", p.String()).Msg("base check position outside frame")
		return BaseUnknown
	}
	tol := d.colors.Int("base_determination_tolerance", 20)
	groups := []TargetGroup{
		{Name: string(BaseBuilder), Colors: d.colors.Colors("builder_base_rgb_targets"), Tolerance: tol},
		{Name: string(BaseHome), Colors: d.colors.Colors("home_base_rgb_targets"), Tolerance: tol},
	}

	kind := BaseUnknown
	for _, g := range groups {
		if pixel.MatchAny(g.Targets(), c) >= 0 {
			kind = BaseKind(g.Name)
			break
		}
	}
	d.log.Debug().Str("pos", p.String()).Str("color", c.String()).Str("base", string(kind)).Msg("base location")

	mark := ColorRed
	if kind != BaseUnknown {
		mark = ColorGreen
	}
	d.annotate.Save("base_location", frame, nil, []Marker{{Point: p, Color: mark, Radius: 3}})
	return kind
}

// Resources reads gold, elixir and dark elixir. Each value joins every
// digit run in its region; unreadable values are 0.
func (d *Detectors) Resources(frame image.Image) (gold, elixir, dark int) {
	regions := []pixel.Region{
		d.region(d.coords, "resource_collection_regions_gold", 60, 110, 220, 140),
		d.region(d.coords, "resource_collection_regions_elixir", 60, 150, 220, 180),
		d.region(d.coords, "resource_collection_regions_dark", 60, 190, 200, 220),
	}
	values := make([]int, len(regions))
	boxes := make([]Box, len(regions))
	for i, r := range regions {
		text, _ := d.readNumbers(frame, r)
		values[i], _ = pixel.JoinedNumber(text)
		boxes[i] = Box{Region: r, Color: ColorBlue}
	}
	d.log.Debug().Int("gold", values[0]).Int("elixir", values[1]).Int("dark", values[2]).Msg("enemy resources")
	d.annotate.Save("enemy_base_resource_stats", frame, boxes, nil)
	return values[0], values[1], values[2]
}

// BuildersAvailable reads the free builder count. A "1/7" reading is the
// goblin builder counter and means no own builder is free.
func (d *Detectors) BuildersAvailable(frame image.Image) int {
	r := d.region(d.coords, "builders_roi_region", 860, 20, 960, 60)
	_, nums := d.readNumbers(frame, r)
	d.log.Info().Strs("numbers", nums).Msg("builders ocr")
	return availableCount(nums, 7, 0)
}

// ResearchAvailable reads the free laboratory count. "1/2" is the goblin
// researcher and a plain 2 is a misread label; both mean none.
func (d *Detectors) ResearchAvailable(frame image.Image) int {
	r := d.region(d.coords, "research_available_region", 560, 20, 640, 60)
	_, nums := d.readNumbers(frame, r)
	d.log.Info().Strs("numbers", nums).Msg("research ocr")
	return availableCount(nums, 2, 2)
}

// availableCount interprets "<free>/<total>" digit runs. A 1/goblinTotal
// split and a lone value equal to reject return 0.
func availableCount(nums []string, goblinTotal, reject int) int {
	if len(nums) == 0 {
		return 0
	}
	first, ok := pixel.FirstNumber(nums[0])
	if !ok {
		return 0
	}
	if len(nums) > 1 {
		second, _ := pixel.FirstNumber(nums[1])
		if first == 1 && second == goblinTotal {
			return 0
		}
	}
	if reject > 0 && first == reject {
		return 0
	}
	return first
}

// ResourcesMaxed checks each configured storage region against the RGB range
// for its resource type (resource_<type>_max_rgb_range)
func (d *Detectors) ResourcesMaxed(frame image.Image) []ResourceFlag {
	items := d.coords.Items("home_resources_check_regions_map")
	flags := make([]ResourceFlag, 0, len(items))
	var boxes []Box
	for _, item := range items {
		typ := item.String("type", "")
		r := item.Region("region", pixel.Region{})
		rng, ok := d.ranges.Range("resource_" + typ + "_max_rgb_range")
		if !ok {
			d.log.Warn().Str("type", typ).Msg("rgb range not found in config")
		}
		maxed := ok && InRange(frame, r, rng)
		c, _ := pixel.AverageColor(frame, r)
		d.log.Info().Str("type", typ).Str("region", r.String()).Str("color", c.String()).Bool("maxed", maxed).Msg("resource check")
		flags = append(flags, ResourceFlag{Type: typ, Maxed: maxed})
		boxes = append(boxes, Box{Region: r, Color: ColorBlue})
	}
	d.annotate.Save("home_resources", frame, boxes, nil)
	return flags
}

// AllMaxed reports whether every flag is set and at least one exists
func AllMaxed(flags []ResourceFlag) bool {
	if len(flags) == 0 {
		return false
	}
	for _, f := range flags {
		if !f.Maxed {
			return false
		}
	}
	return true
}

// HeroesAvailable counts hero regions matching an available (purple)
// target. Unavailable (grey) targets are checked next only for logging;
// no match is treated as unavailable.
func (d *Detectors) HeroesAvailable(frame image.Image) int {
	regions := d.coords.Regions("heroes_available_regions")
	groups := []TargetGroup{
		{Name: "available", Colors: d.colors.Colors("hero_available_target_purple"), Tolerance: d.colors.Int("hero_available_tolerance", 25)},
		{Name: "unavailable", Colors: d.colors.Colors("hero_unavailable_target_grey"), Tolerance: d.colors.Int("hero_unavailable_tolerance", 15)},
	}
	available := 0
	boxes := make([]Box, 0, len(regions))
	for i, r := range regions {
		state := Classify(frame, r, groups, d.log)
		if state == "available" {
			available++
		}
		if state == "" {
			state = "no match"
		}
		d.log.Debug().Int("hero", i+1).Str("state", state).Msg("hero check")
		boxes = append(boxes, Box{Region: r, Color: ColorMagenta})
	}
	d.annotate.Save("heros_status", frame, boxes, nil)
	return available
}

// AttackButtonColor classifies the mean color of the attack button
func (d *Detectors) AttackButtonColor(frame image.Image) Label {
	r := d.region(d.coords, "attack_button_region", 40, 940, 180, 1040)
	c, ok := pixel.AverageColor(frame, r)
	if !ok {
		return LabelUnknown
	}
	label := classifyButton(c)
	d.log.Debug().Str("color", c.String()).Str("label", string(label)).Msg("attack button")
	return label
}

func classifyButton(c pixel.Color) Label {
	r, g, b := int(c.R), int(c.G), int(c.B)
	switch {
	case r > 100 && r > g+40 && r > b+40:
		return LabelRed
	case abs(r-g) < 30 && abs(r-b) < 30 && r > 80 && r < 200:
		return LabelGrey
	default:
		return LabelUnknown
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// ReturnHomeVisible checks for the battle-end button. The region color is
// checked first; only then OCR looks for "home" or "return", with a fuzzy
// word search as the last try.
func (d *Detectors) ReturnHomeVisible(frame image.Image) bool {
	if frame == nil {
		return false
	}
	r := d.region(d.home, "return_home_region", 788, 888, 945, 974)
	if !r.Rect().In(frame.Bounds()) {
		d.log.Warn().Str("region", r.String()).Msg("return home region out of bounds")
		return false
	}
	target := d.colorOr(d.misc, "return_home_avg_rgb", pixel.NewColor(255, 255, 255))
	c, ok := pixel.AverageColor(frame, r)
	if !ok || !c.Matches(target, 29) {
		d.log.Debug().Str("color", c.String()).Str("target", target.String()).Msg("return home color mismatch")
		return false
	}
	if d.reader == nil {
		return false
	}

	text := NormalizeWord(ReadRegionText(frame, r, d.reader, 1, OCROptions{PageSegMode: PSMSingleBlock}, d.log))
	if containsAny(text, "home", "return") {
		d.log.Info().Str("text", text).Msg("return home detected")
		return true
	}
	for _, word := range []string{"Return", "Home"} {
		if found := WordInRegion(frame, r, d.reader, WordSearch{Target: word}, d.log); len(found) > 0 {
			d.log.Debug().Str("word", found[0].Word).Float64("similarity", found[0].Similarity).Msg("return home word found")
			return true
		}
	}
	return false
}

// ReturnHomeButton is the click point of the battle-end button
func (d *Detectors) ReturnHomeButton() pixel.Point {
	return d.region(d.home, "return_home_region", 788, 888, 945, 974).Center()
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// BaseLoaded reports whether the check pixel moved away from the cloud
// color (Euclidean distance > 10)
func (d *Detectors) BaseLoaded(frame image.Image) bool {
	p := d.point(d.home, "check_base_load_pos", 1669, 149)
	avoid := d.colorOr(d.misc, "white_clouds_rgb", pixel.NewColor(254, 254, 254))
	c, ok := pixel.ColorAt(frame, p)
	if !ok {
		return false
	}
	dist := pixel.ColorDistance(c, avoid)
	d.log.Debug().Str("color", c.String()).Float64("distance", dist).Msg("base load check")
	return dist > 10
}

// GoldPass reports the gold pass overlay. Callers stop the process on true.
func (d *Detectors) GoldPass(frame image.Image) bool {
	if d.trigger == nil {
		return false
	}
	return d.trigger.Check(frame)
}

// SpecialUnitCount reads the count printed in the top-right quarter of the
// tile. Unreadable counts are 0.
func (d *Detectors) SpecialUnitCount(frame image.Image, tile Tile) int {
	if d.reader == nil {
		return 0
	}
	std := tile.Standard
	r := pixel.NewRegion(std.X1+std.Width()/2, std.Y1, std.X2, std.Y1+std.Height()/4)
	text := ReadRegionText(frame, r, d.reader, 4, OCROptions{PageSegMode: PSMSingleLine, Whitelist: "x0123456789"}, d.log)
	n, ok := pixel.FirstNumber(text)
	if !ok {
		d.log.Debug().Str("text", text).Msg("special unit count unreadable")
		return 0
	}
	return n
}
