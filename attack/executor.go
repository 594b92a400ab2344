// Package attack - executor.go
//
// Executor replays a plan through an input sink:
//
//   troops       every coordinate in order
//   clan castle  every coordinate in order
//   heroes       pass 1 select+place per pair, pause, pass 2 select again
//   spells/extra one click group per entry, pause after each group
package attack

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"clash-bot/input"
	"clash-bot/pixel"
	"clash-bot/poll"
)

// Executor timing defaults
const (
	DefaultClickDelay = 500 * time.Millisecond
	DefaultHeroPause  = 3 * time.Second
	DefaultSpellPause = 1 * time.Second
)

// Executor delivers plans
type Executor struct {
	sink  input.Sink
	clock poll.Clock

	ClickDelay time.Duration
	HeroPause  time.Duration
	SpellPause time.Duration

	// Guard runs between phases, e.g. the gold pass kill-switch
	Guard func(ctx context.Context)

	log zerolog.Logger
}

// NewExecutor creates an executor with default timing
func NewExecutor(sink input.Sink, clock poll.Clock, log zerolog.Logger) *Executor {
	if clock == nil {
		clock = poll.RealClock
	}
	return &Executor{
		sink:       sink,
		clock:      clock,
		ClickDelay: DefaultClickDelay,
		HeroPause:  DefaultHeroPause,
		SpellPause: DefaultSpellPause,
		log:        log,
	}
}

// Execute replays every phase of plan in order
func (e *Executor) Execute(ctx context.Context, plan Plan) error {
	for _, ph := range plan.Phases {
		if e.Guard != nil {
			e.Guard(ctx)
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		points := ph.Points()
		e.log.Debug().Str("phase", ph.Kind.String()).Int("points", len(points)).Msg("executing phase")
		if len(points) == 0 {
			e.log.Warn().Str("phase", ph.Kind.String()).Msg("no positions to click")
			continue
		}

		var err error
		switch {
		case ph.TwoPass:
			err = e.heroes(ctx, points)
		case ph.Kind >= PhaseSpells:
			err = e.groups(ctx, ph.Groups())
		default:
			err = e.sink.ClickSequence(ctx, points, e.ClickDelay)
		}
		if err != nil {
			return fmt.Errorf("failed to execute %s phase: %w", ph.Kind, err)
		}
	}
	e.log.Info().Str("army", plan.Army).Msg("attack finished")
	return nil
}

// heroes deploys (select, place) pairs, waits, then re-selects every hero
// to trigger its ability
func (e *Executor) heroes(ctx context.Context, points []pixel.Point) error {
	pairs := len(points) / 2
	if pairs == 0 {
		e.log.Warn().Msg("no hero positions available to execute")
		return nil
	}

	e.log.Info().Int("heroes", pairs).Msg("deploying heroes")
	for i := 0; i < pairs; i++ {
		if err := e.sink.ClickSequence(ctx, points[2*i:2*i+2], e.ClickDelay); err != nil {
			return err
		}
	}
	if err := e.clock.Sleep(ctx, e.HeroPause); err != nil {
		return err
	}

	e.log.Info().Msg("activating hero abilities")
	for i := 0; i < pairs; i++ {
		if err := e.sink.ClickSequence(ctx, points[2*i:2*i+1], e.ClickDelay); err != nil {
			return err
		}
	}
	return nil
}

// groups clicks each group and pauses after it
func (e *Executor) groups(ctx context.Context, groups [][]pixel.Point) error {
	for _, g := range groups {
		if len(g) > 0 {
			if err := e.sink.ClickSequence(ctx, g, e.ClickDelay); err != nil {
				return err
			}
		}
		if err := e.clock.Sleep(ctx, e.SpellPause); err != nil {
			return err
		}
	}
	return nil
}
