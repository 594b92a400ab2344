// Package main - bot.go
//
// Bot owns every component of one run and drives the attack cycle:
//
//   1. Start an attack and search for a base with enough loot (search.go)
//   2. Gold pass check (stops the process)
//   3. Locate the first army tile, fall back to resolution fractions
//   4. Read live hero count and special unit position
//   5. Build the plan from the army template and execute it
//   6. Wait for the return-home button (170 s), scroll out and go home
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/rs/zerolog"

	"clash-bot/attack"
	"clash-bot/config"
	"clash-bot/input"
	"clash-bot/logging"
	"clash-bot/pixel"
	"clash-bot/poll"
	"clash-bot/vision"
)

// battleEndScroll zooms the camera out before the return-home click
const battleEndScroll = 20

var errGoldPass = errors.New("gold pass detected")

// exitGoldPass is the process exit code when the gold pass shows up mid attack
const exitGoldPass = 3

// frameSource measures the resolution of a saved frame
type frameSource struct {
	frame image.Image
}

func (f frameSource) WindowSize() (config.Resolution, bool) {
	if f.frame == nil {
		return config.Resolution{}, false
	}
	b := f.frame.Bounds()
	return config.Resolution{Width: b.Dx(), Height: b.Dy()}, true
}

// Bot wires config, vision, attack and input for one profile
type Bot struct {
	logger  *logging.Logger
	log     zerolog.Logger
	res     config.Resolution
	profile config.Profile
	army    string
	dryRun  bool

	sink     input.Sink
	recorder *input.Recorder
	clock    poll.Clock

	reader    *vision.TesseractReader
	trigger   *vision.TemplateTrigger
	store     *vision.ScreenshotStore
	annotate  *vision.Annotator
	det       *vision.Detectors
	tiles     vision.TileParams
	special   attack.SpecialConfig
	heroSlots int

	builder *attack.Builder
	exec    *attack.Executor
	search  searchConfig

	stuckLimit   int
	stuckRetries int
	interval     time.Duration

	running sync.Mutex
	paused  atomic.Bool
	status  atomic.Value // string
	attacks atomic.Int64
}

// NewBot attaches to the game (or loads a saved frame), resolves the
// configuration and builds every component
func NewBot(logger *logging.Logger, opts options, profilePath string) (*Bot, error) {
	b := &Bot{logger: logger, clock: poll.RealClock}
	b.paused.Store(true)
	b.setStatus("starting")

	store := vision.NewScreenshotStore(vision.DefaultScreenshotDir, logger.Logger)
	var src config.ResolutionSource
	if opts.framePath != "" {
		frame, err := store.Load(opts.framePath)
		if err != nil {
			return nil, err
		}
		b.recorder = input.NewRecorder(frame)
		b.sink = b.recorder
		b.dryRun = true
		src = frameSource{frame: frame}
		logger.Info().Str("frame", opts.framePath).Msg("dry run against saved frame")
	} else {
		robot := input.NewRobotSink(opts.window, logger.Logger)
		if !robot.Attach() {
			logger.Warn().Str("title", robot.Title).Msg("game window not found, capturing the primary display")
		}
		b.sink = robot
		src = robot
	}
	b.res = config.DetectResolution(src, logger.Logger)

	profile, err := config.LoadLayered(opts.static, profilePath, b.res, logger.Logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	b.profile = profile
	tree := profile.Tree
	general := tree.Section("General")
	logger.SetLevel(general.String("LogLevel", "info"))
	b.log = logger.Logger
	b.log.Info().Str("profile", profile.Name).Str("path", profile.Path).
		Int("width", b.res.Width).Int("height", b.res.Height).Msg("config resolved")

	store = vision.NewScreenshotStore(vision.DefaultScreenshotDir, b.log)
	store.Limit = general.Int("screenshot_limit", vision.DefaultScreenshotLimit)
	b.store = store
	b.annotate = vision.NewAnnotator(store, b.log.GetLevel() <= zerolog.DebugLevel, b.log)
	b.reader = vision.NewTesseractReader()
	b.trigger = vision.NewTemplateTrigger(general.String("gold_pass_template", vision.DefaultGoldPassTemplate), b.log)
	b.det = vision.NewDetectors(tree, b.res, b.reader, b.trigger, b.annotate, b.log)
	b.tiles = vision.TileParamsFromConfig(tree)
	b.special = attack.SpecialFromConfig(tree)
	b.heroSlots = len(tree.Section(vision.SectionCoords).Regions("heroes_available_regions"))

	section, positions := attack.SectionHomeAttacks, "HomeBaseDynamicClickPositions"
	if general.String("base", "home") == string(vision.BaseBuilder) {
		section, positions = attack.SectionBuilderAttacks, "BuilderBaseDynamicClickPositions"
	}
	b.search = searchFromConfig(tree, positions)
	armies, err := attack.LoadArmies(tree, section)
	if err != nil {
		return nil, fmt.Errorf("failed to load armies: %w", err)
	}
	b.army = opts.army
	if b.army == "" {
		b.army = general.String("army", "")
	}
	if b.army == "" && len(armies) > 0 {
		b.army = armies.Names()[0]
	}
	if _, err := armies.Get(b.army); err != nil {
		return nil, err
	}
	b.builder = attack.NewBuilder(armies, attack.ParamsFromConfig(tree, b.res), b.log)

	b.exec = attack.NewExecutor(b.sink, b.clock, b.log)
	if d := general.Float("click_delay", 0); d > 0 {
		b.exec.ClickDelay = time.Duration(d * float64(time.Second))
	}
	b.exec.Guard = b.goldPassGuard

	b.stuckLimit = general.Int("stuck_limit", 20)
	b.stuckRetries = general.Int("stuck_retries", 3)
	b.interval = time.Duration(general.Int("attack_interval", 30)) * time.Second

	b.log.Info().Str("army", b.army).Strs("armies", armies.Names()).Msg("bot initialized")
	b.setStatus("idle")
	return b, nil
}

// Close releases OCR and template resources
func (b *Bot) Close() {
	if b.reader != nil {
		b.reader.Close()
	}
	if b.trigger != nil {
		b.trigger.Close()
	}
}

func (b *Bot) setStatus(s string) {
	b.status.Store(s)
}

// Status is the current stage for the tray
func (b *Bot) Status() string {
	s, _ := b.status.Load().(string)
	return fmt.Sprintf("%s | %s | attacks %d", s, b.army, b.attacks.Load())
}

func (b *Bot) capture(ctx context.Context) (image.Image, error) {
	frame, err := b.sink.Capture(ctx)
	if err != nil {
		return nil, err
	}
	if frame == nil || frame.Bounds().Empty() {
		return nil, vision.ErrEmptyFrame
	}
	return frame, nil
}

// goldPassGuard runs between attack phases and stops the process when the
// gold pass overlay is on screen
func (b *Bot) goldPassGuard(ctx context.Context) {
	frame, err := b.capture(ctx)
	if err != nil {
		return
	}
	if b.det.GoldPass(frame) {
		b.log.Warn().Msg("gold pass detected during attack, exiting")
		b.store.Save("gold_pass", frame)
		b.logger.Close()
		exit(exitGoldPass)
	}
}

// RunAttack runs one full attack cycle
func (b *Bot) RunAttack(ctx context.Context) error {
	b.running.Lock()
	defer b.running.Unlock()
	defer b.setStatus("idle")

	if b.dryRun {
		b.setStatus("waiting for base")
		b.waitBaseLoaded(ctx)
	} else if err := b.findEnemyBase(ctx); err != nil {
		return err
	}

	frame, err := b.capture(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture frame: %w", err)
	}
	if b.det.GoldPass(frame) {
		b.store.Save("gold_pass", frame)
		return errGoldPass
	}
	b.log.Info().Str("base", string(b.det.BaseLocation(frame))).Msg("base location")

	b.setStatus("planning")
	anchor := b.locateAnchor(frame)

	heroes := -1
	if b.heroSlots > 0 {
		heroes = b.det.HeroesAvailable(frame)
	}
	atStart := false
	if b.special.Count > 0 {
		atStart = attack.DetectSpecialAtStart(frame, anchor, b.special.RefColors, b.annotate, b.log)
	}

	plan, err := b.builder.Build(b.army, &anchor, heroes, b.special.Count, atStart)
	if err != nil {
		return err
	}
	attack.SavePlan(b.annotate, frame, plan)

	b.setStatus("attacking")
	if err := b.exec.Execute(ctx, plan); err != nil {
		return err
	}
	b.attacks.Add(1)

	if b.dryRun {
		b.log.Info().Int("clicks", len(b.recorder.Clicks())).Msg("dry run recorded")
		return nil
	}
	return b.waitBattleEnd(ctx)
}

// locateAnchor returns the first army tile or the resolution fallback
func (b *Bot) locateAnchor(frame image.Image) vision.Tile {
	res, ok := vision.LocateFirstTile(frame, b.tiles, b.log)
	if !ok {
		tile := vision.FallbackTile(b.res, b.tiles)
		b.log.Warn().Str("center", tile.Center.String()).Msg("using fallback anchor tile")
		return tile
	}
	boxes := []vision.Box{{Region: res.Tile.Standard, Color: vision.ColorGreen, Label: "first tile", Thickness: 2}}
	for _, c := range res.Candidates {
		r := pixel.NewRegion(c.Min.X, res.ROITop+c.Min.Y, c.Max.X, res.ROITop+c.Max.Y)
		boxes = append(boxes, vision.Box{Region: r, Color: vision.ColorYellow, Thickness: 1})
	}
	b.annotate.Save("first_tile", frame, boxes, nil)
	return res.Tile
}

// waitBattleEnd polls for the return-home button, then scrolls out and
// clicks it. A battle that outlasts the wait is left the same way.
func (b *Bot) waitBattleEnd(ctx context.Context) error {
	b.setStatus("waiting for battle end")
	ended := poll.WaitUntil(ctx, b.clock, poll.BattleEndTimeout, poll.BattleEndInterval, func() bool {
		frame, err := b.capture(ctx)
		return err == nil && b.det.ReturnHomeVisible(frame)
	})
	if err := ctx.Err(); err != nil {
		return err
	}
	if !ended {
		b.log.Warn().Msg("return home not seen before timeout, going home")
	}
	if err := b.sink.Scroll(ctx, input.ScrollDown, battleEndScroll); err != nil {
		return fmt.Errorf("failed to scroll out: %w", err)
	}
	return b.sink.Click(ctx, b.det.ReturnHomeButton())
}

// Loop runs attacks until ctx is done, skipping while paused
func (b *Bot) Loop(ctx context.Context) {
	for {
		if !b.paused.Load() {
			b.handleAttackError(ctx, b.RunAttack(ctx))
		}
		if err := b.clock.Sleep(ctx, b.interval); err != nil {
			return
		}
	}
}

// handleAttackError exits on the gold pass and pauses on a stuck game
func (b *Bot) handleAttackError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, errGoldPass):
		b.log.Warn().Msg("gold pass detected, exiting")
		b.logger.Close()
		exit(exitGoldPass)
	case errors.Is(err, poll.ErrStuck):
		b.log.Error().Err(err).Msg("game stuck, pausing")
		b.paused.Store(true)
	case err != nil && ctx.Err() == nil:
		b.log.Error().Err(err).Msg("attack failed")
	}
}

// SaveScreenshot stores the current frame
func (b *Bot) SaveScreenshot(ctx context.Context) (string, error) {
	frame, err := b.capture(ctx)
	if err != nil {
		return "", err
	}
	return b.store.Save("manual", frame)
}

// CalibrateSpecial prints the HomeBaseGeneral values for a special unit
// sitting in the first tray slot
func (b *Bot) CalibrateSpecial(ctx context.Context, w io.Writer) error {
	frame, err := b.capture(ctx)
	if err != nil {
		return fmt.Errorf("failed to capture frame: %w", err)
	}
	anchor := b.locateAnchor(frame)
	c, ok := pixel.ColorAt(frame, anchor.Center)
	if !ok {
		return fmt.Errorf("anchor %s outside frame", anchor.Center)
	}
	general := map[string]any{
		"special_troop_event_rgb": [][]int{{int(c.R), int(c.G), int(c.B)}},
	}
	if n := b.det.SpecialUnitCount(frame, anchor); n > 0 {
		general["special_troop_counts"] = []int{n}
	}
	b.log.Info().Str("color", c.String()).Str("center", anchor.Center.String()).Msg("special unit calibrated")
	return toml.NewEncoder(w).Encode(map[string]any{"HomeBaseGeneral": general})
}
