package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"reflect"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"clash-bot/attack"
	"clash-bot/config"
	"clash-bot/input"
	"clash-bot/logging"
	"clash-bot/pixel"
	"clash-bot/poll"
	"clash-bot/vision"
)

// fakeClock advances instantly on Sleep
type fakeClock struct {
	now    time.Time
	sleeps int
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.sleeps++
	c.now = c.now.Add(d)
	return nil
}

// lootReader answers one text per Resources call (three OCR reads) and
// repeats the last one when the script runs out
type lootReader struct {
	texts []string
	calls int
}

func (r *lootReader) ReadText(img image.Image, opts vision.OCROptions) (string, error) {
	text := r.texts[min(r.calls/3, len(r.texts)-1)]
	r.calls++
	return text, nil
}

func (r *lootReader) ReadWords(img image.Image, opts vision.OCROptions) ([]vision.Word, error) {
	return nil, nil
}

var (
	grass = color.RGBA{80, 140, 60, 255}
	white = color.RGBA{250, 250, 250, 255}
)

func newTestBot(c color.RGBA, reader vision.TextReader) (*Bot, *input.Recorder, *fakeClock) {
	frame := image.NewRGBA(image.Rect(0, 0, 1728, 1080))
	draw.Draw(frame, frame.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	rec := input.NewRecorder(frame)
	clock := &fakeClock{now: time.Unix(0, 0)}
	log := zerolog.Nop()
	b := &Bot{
		log:          log,
		res:          config.DefaultResolution,
		sink:         rec,
		recorder:     rec,
		clock:        clock,
		det:          vision.NewDetectors(config.Tree{}, config.DefaultResolution, reader, nil, nil, log),
		exec:         attack.NewExecutor(rec, clock, log),
		stuckLimit:   3,
		stuckRetries: 1,
	}
	return b, rec, clock
}

var (
	startClick = pixel.NewPoint(120, 980)
	nextClick  = pixel.NewPoint(1600, 800)
)

func testSearch() searchConfig {
	return searchConfig{
		startAttack: []pixel.Point{startClick},
		findNext:    []pixel.Point{nextClick},
		minGold:     3000,
		minElixir:   3000,
	}
}

func TestFrameSource(t *testing.T) {
	res, ok := frameSource{frame: image.NewRGBA(image.Rect(0, 0, 1440, 900))}.WindowSize()
	if !ok || res.Width != 1440 || res.Height != 900 {
		t.Errorf("WindowSize = %+v, %v", res, ok)
	}
	if _, ok := (frameSource{}).WindowSize(); ok {
		t.Error("nil frame reported a size")
	}
}

func TestHandleAttackError(t *testing.T) {
	code := -1
	orig := exit
	exit = func(c int) { code = c }
	defer func() { exit = orig }()

	b := &Bot{log: zerolog.Nop(), logger: &logging.Logger{Logger: zerolog.Nop()}}
	b.paused.Store(false)

	b.handleAttackError(context.Background(), fmt.Errorf("failed to find enemy base: %w", poll.ErrStuck))
	if !b.paused.Load() {
		t.Error("stuck game did not pause the loop")
	}
	if code != -1 {
		t.Errorf("exit(%d) on stuck game", code)
	}

	b.handleAttackError(context.Background(), errGoldPass)
	if code != exitGoldPass {
		t.Errorf("exit code = %d, want %d", code, exitGoldPass)
	}
}

func TestFindEnemyBaseSkipsPoorBases(t *testing.T) {
	reader := &lootReader{texts: []string{"100", "200", "4000"}}
	b, rec, _ := newTestBot(grass, reader)
	b.search = testSearch()

	if err := b.findEnemyBase(context.Background()); err != nil {
		t.Fatalf("findEnemyBase: %v", err)
	}
	want := []pixel.Point{startClick, nextClick, nextClick}
	if got := rec.Clicks(); !reflect.DeepEqual(got, want) {
		t.Errorf("clicks = %v, want %v", got, want)
	}
	if reader.calls != 9 {
		t.Errorf("ocr calls = %d, want 9", reader.calls)
	}
}

func TestFindEnemyBaseRestartsOnFrozenLoot(t *testing.T) {
	b, rec, _ := newTestBot(grass, &lootReader{texts: []string{"100"}})
	b.search = testSearch()

	err := b.findEnemyBase(context.Background())
	if !errors.Is(err, poll.ErrStuck) {
		t.Fatalf("err = %v, want ErrStuck", err)
	}
	want := []pixel.Point{startClick, nextClick, nextClick, startClick, nextClick, nextClick}
	if got := rec.Clicks(); !reflect.DeepEqual(got, want) {
		t.Errorf("clicks = %v, want %v", got, want)
	}
}

func TestFindEnemyBaseWithoutFindNext(t *testing.T) {
	b, rec, _ := newTestBot(grass, &lootReader{texts: []string{"100"}})
	b.search = testSearch()
	b.search.findNext = nil

	if err := b.findEnemyBase(context.Background()); err != nil {
		t.Fatalf("findEnemyBase: %v", err)
	}
	if got := rec.Clicks(); !reflect.DeepEqual(got, []pixel.Point{startClick}) {
		t.Errorf("clicks = %v, want only the start click", got)
	}
}

func TestSearchFromConfig(t *testing.T) {
	tree := config.Tree{
		"HomeBaseDynamicClickPositions": map[string]any{
			"start_attack": []any{[]any{120, 980}, []any{1200, 700}},
			"find_next":    []any{1600, 800},
		},
		"HomeBaseGeneral": map[string]any{"enemy_gold_threshold": 500000},
	}
	cfg := searchFromConfig(tree, "HomeBaseDynamicClickPositions")
	if len(cfg.startAttack) != 2 || !reflect.DeepEqual(cfg.findNext, []pixel.Point{nextClick}) {
		t.Errorf("clicks = %v / %v", cfg.startAttack, cfg.findNext)
	}
	if cfg.minGold != 500000 || cfg.minElixir != defaultEnemyElixir {
		t.Errorf("thresholds = %d / %d", cfg.minGold, cfg.minElixir)
	}
}

func TestWaitBattleEnd(t *testing.T) {
	tests := []struct {
		name   string
		frame  color.RGBA
		text   string
		sleeps int
	}{
		{"return home shown", white, "Return Home", 0},
		{"timeout", grass, "", int(poll.BattleEndTimeout / poll.BattleEndInterval)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, rec, clock := newTestBot(tt.frame, &lootReader{texts: []string{tt.text}})
			if err := b.waitBattleEnd(context.Background()); err != nil {
				t.Fatalf("waitBattleEnd: %v", err)
			}
			want := []input.Action{
				{Kind: input.ActionScroll, Dir: input.ScrollDown, Ticks: battleEndScroll},
				{Kind: input.ActionClick, Point: b.det.ReturnHomeButton()},
			}
			if got := rec.Actions(); !reflect.DeepEqual(got, want) {
				t.Errorf("actions = %+v, want %+v", got, want)
			}
			if clock.sleeps != tt.sleeps {
				t.Errorf("sleeps = %d, want %d", clock.sleeps, tt.sleeps)
			}
		})
	}
}
