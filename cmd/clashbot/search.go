// Package main - search.go
//
// Enemy base search:
//
//   1. Click the start-attack positions and wait for the base to load
//   2. Read the loot on offer (gold, elixir, dark elixir)
//   3. While gold + elixir is below the configured thresholds, click
//      find-next, wait for the next base and read again
//   4. Every reading feeds the safeguard; a frozen readout restarts from
//      step 1 and too many restarts fail the cycle with poll.ErrStuck
package main

import (
	"context"
	"fmt"
	"time"

	"clash-bot/config"
	"clash-bot/pixel"
	"clash-bot/poll"
)

const (
	defaultEnemyGold   = 300000
	defaultEnemyElixir = 300000

	// searchSettle lets the loot counters finish animating after a base load
	searchSettle = time.Second
)

// searchConfig holds the clicks and loot thresholds of the base search
type searchConfig struct {
	startAttack []pixel.Point
	findNext    []pixel.Point
	minGold     int
	minElixir   int
}

// searchFromConfig reads the search clicks from positions and the loot
// thresholds from HomeBaseGeneral
func searchFromConfig(tree config.Tree, positions string) searchConfig {
	pos := tree.Section(positions)
	general := tree.Section("HomeBaseGeneral")
	return searchConfig{
		startAttack: pos.Points("start_attack"),
		findNext:    pos.Points("find_next"),
		minGold:     general.Int("enemy_gold_threshold", defaultEnemyGold),
		minElixir:   general.Int("enemy_elixir_threshold", defaultEnemyElixir),
	}
}

// loot is one enemy resources reading
type loot struct {
	gold, elixir, dark int
}

func (l loot) String() string {
	return fmt.Sprintf("%d/%d/%d", l.gold, l.elixir, l.dark)
}

// findEnemyBase starts an attack and skips bases until one is worth
// attacking
func (b *Bot) findEnemyBase(ctx context.Context) error {
	guard := poll.NewSafeguard(b.stuckLimit, b.stuckRetries)
	for {
		if err := b.startAttack(ctx); err != nil {
			return err
		}
		restart, err := b.searchBases(ctx, guard)
		if err != nil {
			return fmt.Errorf("failed to find enemy base: %w", err)
		}
		if !restart {
			return nil
		}
		b.log.Warn().Int("restarts", guard.Restarts()).Msg("loot readout frozen, restarting attack")
	}
}

func (b *Bot) startAttack(ctx context.Context) error {
	b.setStatus("starting attack")
	if err := b.sink.ClickSequence(ctx, b.search.startAttack, b.exec.ClickDelay); err != nil {
		return fmt.Errorf("failed to start attack: %w", err)
	}
	b.waitBaseLoaded(ctx)
	return nil
}

// searchBases reads bases until the loot reaches the thresholds. restart is
// true when the safeguard saw the same reading too often.
func (b *Bot) searchBases(ctx context.Context, guard *poll.Safeguard) (restart bool, err error) {
	b.setStatus("searching")
	l, restart, err := b.readLoot(ctx, guard)
	if err != nil || restart {
		return restart, err
	}
	if len(b.search.findNext) == 0 {
		b.log.Warn().Msg("find_next not configured, attacking the first base")
		return false, nil
	}

	want := b.search.minGold + b.search.minElixir
	for l.gold+l.elixir < want {
		if err := b.sink.ClickSequence(ctx, b.search.findNext, 0); err != nil {
			return false, err
		}
		b.waitBaseLoaded(ctx)
		if err := b.clock.Sleep(ctx, searchSettle); err != nil {
			return false, err
		}
		if l, restart, err = b.readLoot(ctx, guard); err != nil || restart {
			return restart, err
		}
	}
	b.log.Info().Int("gold", l.gold).Int("elixir", l.elixir).Int("dark", l.dark).Msg("enemy base found")
	return false, nil
}

// readLoot reads the enemy resources and feeds them to guard
func (b *Bot) readLoot(ctx context.Context, guard *poll.Safeguard) (l loot, restart bool, err error) {
	frame, err := b.capture(ctx)
	if err != nil {
		return l, false, fmt.Errorf("failed to capture frame: %w", err)
	}
	l.gold, l.elixir, l.dark = b.det.Resources(frame)
	b.log.Info().Int("gold", l.gold).Int("elixir", l.elixir).Int("dark", l.dark).Msg("enemy loot")

	restart, err = guard.Observe(l.String())
	return l, restart, err
}

// waitBaseLoaded waits for the clouds to clear and continues anyway on
// timeout
func (b *Bot) waitBaseLoaded(ctx context.Context) bool {
	loaded := poll.WaitUntil(ctx, b.clock, poll.BaseLoadTimeout, poll.BaseLoadInterval, func() bool {
		frame, err := b.capture(ctx)
		return err == nil && b.det.BaseLoaded(frame)
	})
	if !loaded {
		b.log.Warn().Msg("base load not confirmed, continuing")
	}
	return loaded
}
