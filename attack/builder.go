// Package attack - builder.go
//
// Attack Sequence Builder. Turns an army template plus live facts into the
// concrete plan for one attack:
//
//   1. Clone the template
//   2. Inject special-unit sequences into the troops phase
//   3. Expand the heroes phase to the live hero count
//   4. Propagate select coordinates from the anchor tile
//
// The builder is deterministic and never fails on empty phases. An unknown
// army key is the only error.
package attack

import (
	"github.com/rs/zerolog"

	"clash-bot/config"
	"clash-bot/pixel"
	"clash-bot/vision"
)

// Builder defaults
const (
	DefaultIntraGap    = 8  // between tiles of one category
	DefaultInterGap    = 24 // between categories
	DefaultRepeatCount = 10 // drops per special unit
	DefaultHeroCount   = 4  // used when the live count is unknown
)

// Params configure the builder. Pixel values are for the resolved resolution.
type Params struct {
	SelectThreshold int // y above this is a select coordinate
	IntraGap        int
	InterGap        int
	DefaultRepeat   int
	RepeatCounts    []int // per special unit index
	SpecialDrop     pixel.Point
	SelectDummy     pixel.Point
}

// DefaultParams returns the defaults scaled to res
func DefaultParams(res config.Resolution) Params {
	_, threshold := res.Scale(0, 900)
	dropX, dropY := res.Scale(382, 298)
	dummyX, dummyY := res.Scale(0, 950)
	return Params{
		SelectThreshold: threshold,
		IntraGap:        DefaultIntraGap,
		InterGap:        DefaultInterGap,
		DefaultRepeat:   DefaultRepeatCount,
		RepeatCounts:    []int{DefaultRepeatCount, DefaultRepeatCount},
		SpecialDrop:     pixel.NewPoint(dropX, dropY),
		SelectDummy:     pixel.NewPoint(dummyX, dummyY),
	}
}

// ParamsFromConfig reads builder parameters from a resolved tree
func ParamsFromConfig(tree config.Tree, res config.Resolution) Params {
	p := DefaultParams(res)
	coords := tree.Section("HomeBaseCoordinates")
	general := tree.Section("HomeBaseGeneral")

	p.SelectThreshold = coords.Int("selection_bar_y", p.SelectThreshold)
	p.SelectDummy = coords.Point("special_troop_select_dummy", p.SelectDummy)
	if drops := general.Points("special_troop_drop"); len(drops) > 0 {
		p.SpecialDrop = drops[0]
	}
	if counts := general.Ints("special_troop_counts"); len(counts) > 0 {
		p.RepeatCounts = counts
	}
	return p
}

// repeatFor returns the drop count for special unit i
func (p Params) repeatFor(i int) int {
	if i < len(p.RepeatCounts) && p.RepeatCounts[i] > 0 {
		return p.RepeatCounts[i]
	}
	if p.DefaultRepeat > 0 {
		return p.DefaultRepeat
	}
	return DefaultRepeatCount
}

// Builder produces plans from army templates
type Builder struct {
	armies Armies
	params Params
	log    zerolog.Logger
}

// NewBuilder creates a builder over armies
func NewBuilder(armies Armies, params Params, log zerolog.Logger) *Builder {
	return &Builder{armies: armies, params: params, log: log}
}

// Params returns the builder parameters
func (b *Builder) Params() Params {
	return b.params
}

// Build returns the plan for army.
//
// anchor may be nil when neither detection nor a fallback produced a tile;
// select coordinates then stay as authored. heroCount < 0 means unknown.
func (b *Builder) Build(army string, anchor *vision.Tile, heroCount, specialCount int, specialAtStart bool) (Plan, error) {
	tmpl, err := b.armies.Get(army)
	if err != nil {
		return Plan{}, err
	}
	plan := tmpl.Plan()
	plan.SelectThreshold = b.params.SelectThreshold
	b.log.Debug().Str("army", army).Int("phases", len(plan.Phases)).Msg("building attack plan")

	b.injectSpecial(&plan, specialCount, specialAtStart)
	b.expandHeroes(&plan, heroCount)
	if anchor != nil {
		plan.Anchor = *anchor
		plan.Anchored = true
		b.propagate(&plan, *anchor)
	} else {
		b.log.Warn().Msg("no anchor tile, using configured coordinates")
	}
	return plan, nil
}

// injectSpecial adds one (select, drop x N) sequence per special unit to
// the troops phase, before the troops when the unit is already in the
// first slot and after them otherwise
func (b *Builder) injectSpecial(plan *Plan, count int, atStart bool) {
	if count <= 0 || len(plan.Phases) == 0 {
		return
	}
	var seq []Node
	for i := 0; i < count; i++ {
		seq = append(seq, PointNode(b.params.SelectDummy))
		for n := b.params.repeatFor(i); n > 0; n-- {
			seq = append(seq, PointNode(b.params.SpecialDrop))
		}
	}

	troops := &plan.Phases[0]
	if atStart {
		troops.Entries = append(seq, troops.Entries...)
	} else {
		troops.Entries = append(troops.Entries, seq...)
	}
	b.log.Debug().Int("units", count).Bool("at_start", atStart).Int("entries", len(seq)).Msg("injected special units")
}

// expandHeroes grows or clears the heroes phase to match the live count.
// The first (select, place) pair is repeated; a template without a select
// in the heroes phase is never expanded.
func (b *Builder) expandHeroes(plan *Plan, heroCount int) {
	if len(plan.Phases) <= int(PhaseHeroes) {
		return
	}
	heroes := &plan.Phases[PhaseHeroes]
	target := heroCount
	if target < 0 {
		target = DefaultHeroCount
	}
	if target == 0 {
		b.log.Debug().Msg("no heroes available, clearing hero slots")
		heroes.Entries = nil
		return
	}

	current := len(heroes.Selects(b.params.SelectThreshold))
	if current == 0 || current >= target || len(heroes.Entries) < 2 {
		return
	}
	unit := []Node{heroes.Entries[0], heroes.Entries[1]}
	for n := target - current; n > 0; n-- {
		heroes.Entries = append(heroes.Entries, unit[0].Clone(), unit[1].Clone())
	}
	b.log.Debug().Int("from", current).Int("to", target).Int("entries", len(heroes.Entries)).Msg("expanded hero slots")
}

// propagate reassigns select coordinates left to right from the anchor.
// Each select advances by tile width + intra gap; a phase that held selects
// widens its last advance to the inter gap.
func (b *Builder) propagate(plan *Plan, anchor vision.Tile) {
	x := anchor.Center.X
	y := anchor.Center.Y
	step := anchor.Width + b.params.IntraGap
	threshold := b.params.SelectThreshold

	for i := range plan.Phases {
		found := false
		ph := &plan.Phases[i]
		for j, e := range ph.Entries {
			ph.Entries[j] = e.mapPoints(func(p pixel.Point) pixel.Point {
				if !IsSelect(p, threshold) {
					return p
				}
				found = true
				out := pixel.NewPoint(x, y)
				x += step
				return out
			})
		}
		if found {
			x += b.params.InterGap - b.params.IntraGap
		}
	}
	b.log.Debug().Str("anchor", anchor.Center.String()).Msg("select coordinates propagated")
}
