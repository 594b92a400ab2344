// Package attack - template.go
//
// Phases, plans and army templates.
//
// A template is the authored, already-resolved list of phases for one army.
// Templates are immutable once loaded: every attack clones its template
// into a fresh Plan and only the Plan is ever modified.
package attack

import (
	"errors"
	"fmt"
	"sort"

	"clash-bot/config"
	"clash-bot/pixel"
	"clash-bot/vision"
)

// ErrUnknownArmy is returned when a requested army has no template
var ErrUnknownArmy = errors.New("unknown army")

// Attack template sections
const (
	SectionHomeAttacks    = "HomeBaseAttacks"
	SectionBuilderAttacks = "BuilderBaseAttacks"
)

// PhaseKind names a phase by its position in the template
type PhaseKind int

const (
	PhaseTroops PhaseKind = iota
	PhaseClanCastle
	PhaseHeroes
	PhaseSpells
	PhaseExtra
)

func (k PhaseKind) String() string {
	switch k {
	case PhaseTroops:
		return "troops"
	case PhaseClanCastle:
		return "clan_castle"
	case PhaseHeroes:
		return "heroes"
	case PhaseSpells:
		return "spells"
	default:
		return "extra"
	}
}

func phaseKind(index int) PhaseKind {
	if index >= int(PhaseExtra) {
		return PhaseExtra
	}
	return PhaseKind(index)
}

// Phase is one ordered stage of an attack
type Phase struct {
	Kind    PhaseKind
	Entries []Node
	// TwoPass marks the heroes phase: all pairs are selected and placed,
	// then every select is clicked again to fire the abilities
	TwoPass bool
}

// Clone returns a deep copy
func (p Phase) Clone() Phase {
	out := Phase{Kind: p.Kind, TwoPass: p.TwoPass, Entries: make([]Node, len(p.Entries))}
	for i, e := range p.Entries {
		out.Entries[i] = e.Clone()
	}
	return out
}

// Points returns every coordinate of the phase in order
func (p Phase) Points() []pixel.Point {
	var out []pixel.Point
	for _, e := range p.Entries {
		out = append(out, e.Flatten()...)
	}
	return out
}

// Groups returns one click group per entry
func (p Phase) Groups() [][]pixel.Point {
	out := make([][]pixel.Point, 0, len(p.Entries))
	for _, e := range p.Entries {
		out = append(out, e.Flatten())
	}
	return out
}

// Selects returns the coordinates below the selection-bar threshold
func (p Phase) Selects(threshold int) []pixel.Point {
	var out []pixel.Point
	for _, pt := range p.Points() {
		if IsSelect(pt, threshold) {
			out = append(out, pt)
		}
	}
	return out
}

// IsSelect reports whether p lies in the unit selection bar
func IsSelect(p pixel.Point, threshold int) bool {
	return p.Y > threshold
}

// Plan is the concrete list of phases for one attack
type Plan struct {
	Army            string
	Phases          []Phase
	SelectThreshold int
	Anchor          vision.Tile
	Anchored        bool // Anchor came from detection or fallback
}

// Phase returns the first phase of kind
func (p Plan) Phase(kind PhaseKind) (Phase, bool) {
	for _, ph := range p.Phases {
		if ph.Kind == kind {
			return ph, true
		}
	}
	return Phase{}, false
}

// Template is an immutable army template
type Template struct {
	name   string
	phases []Phase
}

// Name returns the army key
func (t Template) Name() string {
	return t.name
}

// Len returns the number of phases
func (t Template) Len() int {
	return len(t.phases)
}

// Plan clones the template into a fresh plan
func (t Template) Plan() Plan {
	plan := Plan{Army: t.name, Phases: make([]Phase, len(t.phases))}
	for i, ph := range t.phases {
		plan.Phases[i] = ph.Clone()
	}
	return plan
}

// NewTemplate builds a template from phases; the phases are copied
func NewTemplate(name string, phases ...Phase) Template {
	t := Template{name: name, phases: make([]Phase, len(phases))}
	for i, ph := range phases {
		t.phases[i] = ph.Clone()
		t.phases[i].Kind = phaseKind(i)
		t.phases[i].TwoPass = t.phases[i].Kind == PhaseHeroes
	}
	return t
}

// DecodeTemplate tags a resolved army value (a list of phases)
func DecodeTemplate(name string, raw any) (Template, error) {
	list, ok := raw.([]any)
	if !ok {
		return Template{}, fmt.Errorf("%w: army %s is not a list of phases", ErrBadTemplate, name)
	}
	phases := make([]Phase, 0, len(list))
	for i, v := range list {
		ph, err := decodePhase(v)
		if err != nil {
			return Template{}, fmt.Errorf("failed to decode army %s phase %d: %w", name, i, err)
		}
		phases = append(phases, ph)
	}
	return NewTemplate(name, phases...), nil
}

// decodePhase accepts a list of entries. A bare [x, y] phase is a single
// point; numbers are never valid entries, so this cannot be ambiguous.
func decodePhase(v any) (Phase, error) {
	list, ok := v.([]any)
	if !ok {
		return Phase{}, fmt.Errorf("%w: phase %v is not a list", ErrBadTemplate, v)
	}
	if p, ok := asPoint(list); ok {
		return Phase{Entries: []Node{PointNode(p)}}, nil
	}
	entries := make([]Node, 0, len(list))
	for _, item := range list {
		n, err := decodeNode(item)
		if err != nil {
			return Phase{}, err
		}
		entries = append(entries, n)
	}
	return Phase{Entries: entries}, nil
}

// Armies maps army keys to templates
type Armies map[string]Template

// LoadArmies decodes every army of a resolved attack section
func LoadArmies(tree config.Tree, section string) (Armies, error) {
	s, err := tree.MustSection(section)
	if err != nil {
		return nil, err
	}
	armies := make(Armies, len(s))
	for _, key := range s.Keys() {
		raw, _ := s.Raw(key)
		t, err := DecodeTemplate(key, raw)
		if err != nil {
			return nil, err
		}
		armies[key] = t
	}
	return armies, nil
}

// Get returns the template for army or ErrUnknownArmy
func (a Armies) Get(army string) (Template, error) {
	t, ok := a[army]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownArmy, army)
	}
	return t, nil
}

// Names returns the army keys sorted
func (a Armies) Names() []string {
	names := make([]string, 0, len(a))
	for k := range a {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
