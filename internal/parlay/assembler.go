// Package parlay builds ranked same-game and multi-game parlays from a prop pool.
package parlay

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"prop-parlay-engine/internal/mathutil"
	"prop-parlay-engine/internal/props"
)

// Type tags a generated parlay.
type Type string

const (
	TypeSGP      Type = "SGP"
	TypeStandard Type = "Standard"
)

// Kind selects which parlay types to build.
type Kind string

const (
	KindSGP      Kind = "sgp"
	KindStandard Kind = "standard"
	KindAll      Kind = "all"
)

// CapMode decides which combinations survive ComboCap.
type CapMode string

const (
	// CapEnumeration keeps the first ComboCap combinations in enumeration order.
	CapEnumeration CapMode = "enumeration"
	// CapRanked scans every combination and keeps the ComboCap highest-priced ones.
	CapRanked CapMode = "ranked"
)

const (
	MinLegs = 2
	MaxLegs = 6

	DefaultDisplayCap      = 500
	DefaultRankedScanLimit = 1_000_000
)

// Options controls a Build.
type Options struct {
	Legs       int
	Kind       Kind
	MinOdds    *int   // drop parlays priced below this; nil keeps everything
	Book       string // price legs at this book where quoted; "all" for best price
	Comparator Comparator
	ComboCap   int
	DisplayCap int
	CapMode    CapMode
	// RankedScanLimit bounds how many combinations CapRanked visits per enumeration.
	RankedScanLimit int
}

// DefaultOptions returns a 2-leg build over every parlay type at best prices.
func DefaultOptions() Options {
	return Options{
		Legs:            MinLegs,
		Kind:            KindAll,
		Book:            props.AllValue,
		Comparator:      ByAmericanValue,
		ComboCap:        DefaultComboCap,
		DisplayCap:      DefaultDisplayCap,
		CapMode:         CapEnumeration,
		RankedScanLimit: DefaultRankedScanLimit,
	}
}

var (
	ErrInvalidLegs    = errors.New("invalid leg count")
	ErrInvalidKind    = errors.New("invalid parlay type")
	ErrInvalidCapMode = errors.New("invalid cap mode")
)

// Validate checks that options are within supported ranges.
func (o Options) Validate() error {
	if o.Legs < MinLegs || o.Legs > MaxLegs {
		return fmt.Errorf("%w: must be between %d and %d, got %d", ErrInvalidLegs, MinLegs, MaxLegs, o.Legs)
	}
	switch o.Kind {
	case KindSGP, KindStandard, KindAll:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, o.Kind)
	}
	switch o.CapMode {
	case CapEnumeration, CapRanked:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidCapMode, o.CapMode)
	}
	if o.ComboCap < 0 || o.DisplayCap < 0 {
		return errors.New("caps must be non-negative")
	}
	return nil
}

// Parlay is one priced combination of legs.
type Parlay struct {
	Type            Type         `json:"type"`
	Game            string       `json:"game"`
	Legs            []props.Prop `json:"legs"`
	TotalOdds       int          `json:"total_odds"`
	AvgPercentAbove *float64     `json:"avg_percent_above"`
	Pricing         []LegPrice   `json:"pricing"`
	MixedPricing    bool         `json:"mixed_pricing"`
}

// Key identifies a parlay by its legs.
func (p Parlay) Key() string {
	parts := make([]string, len(p.Legs))
	for i, leg := range p.Legs {
		parts[i] = fmt.Sprintf("%s|%s|%g", leg.Player, strings.ToLower(leg.Market), leg.Line)
	}
	return strings.Join(parts, ";")
}

// Result is the outcome of a Build.
type Result struct {
	Parlays []Parlay `json:"parlays"`
	// Generated counts combinations that were priced, before odds filtering.
	Generated int `json:"generated"`
	// Truncated is set when a combination or display cap dropped results.
	Truncated bool `json:"truncated"`
}

// Build deduplicates the pool, enumerates same-game and multi-game combinations,
// prices them, filters by MinOdds, sorts by total odds descending and trims
// to DisplayCap. Degenerate input yields an empty result, never an error.
func Build(pool []props.Prop, opts Options) Result {
	b := builder{opts: opts}
	if b.opts.Comparator == nil {
		b.opts.Comparator = ByAmericanValue
	}
	if b.opts.RankedScanLimit <= 0 {
		b.opts.RankedScanLimit = DefaultRankedScanLimit
	}

	deduped := Dedupe(pool, b.opts.Comparator)

	if opts.Kind != KindStandard {
		games, byGame := groupByGame(deduped)
		for _, game := range games {
			legs := byGame[game]
			if len(legs) < opts.Legs {
				continue
			}
			b.enumerate(legs, TypeSGP)
		}
	}

	if opts.Kind != KindSGP && len(deduped) >= opts.Legs {
		b.enumerate(deduped, TypeStandard)
	}

	filtered := make([]Parlay, 0, len(b.parlays))
	for _, p := range b.parlays {
		if opts.MinOdds != nil && p.TotalOdds < *opts.MinOdds {
			continue
		}
		filtered = append(filtered, p)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].TotalOdds > filtered[j].TotalOdds
	})

	if opts.DisplayCap > 0 && len(filtered) > opts.DisplayCap {
		filtered = filtered[:opts.DisplayCap]
		b.truncated = true
	}

	return Result{
		Parlays:   filtered,
		Generated: b.generated,
		Truncated: b.truncated,
	}
}

type builder struct {
	opts      Options
	parlays   []Parlay
	generated int
	truncated bool
}

// enumerate generates size-Legs combinations from legs and prices the ones that fit typ.
func (b *builder) enumerate(legs []props.Prop, typ Type) {
	if b.opts.CapMode == CapRanked {
		b.enumerateRanked(legs, typ)
		return
	}

	if b.opts.ComboCap > 0 && mathutil.Binomial(len(legs), b.opts.Legs) > b.opts.ComboCap {
		b.truncated = true
	}
	for _, combo := range Combinations(legs, b.opts.Legs, b.opts.ComboCap) {
		label, ok := parlayLabel(combo, typ)
		if !ok {
			continue
		}
		pricing, err := Price(combo, b.opts.Book)
		if err != nil {
			continue
		}
		b.generated++
		b.parlays = append(b.parlays, newParlay(combo, typ, label, pricing))
	}
}

// enumerateRanked keeps the ComboCap highest-priced qualifying combinations.
func (b *builder) enumerateRanked(legs []props.Prop, typ Type) {
	top := newTopParlays(b.opts.ComboCap)
	scanned := 0

	EachCombination(legs, b.opts.Legs, func(combo []props.Prop) bool {
		if scanned >= b.opts.RankedScanLimit {
			b.truncated = true
			return false
		}
		scanned++

		label, ok := parlayLabel(combo, typ)
		if !ok {
			return true
		}
		pricing, err := Price(combo, b.opts.Book)
		if err != nil {
			return true
		}
		b.generated++

		if !top.accepts(pricing.TotalOdds) {
			b.truncated = true
			return true
		}
		// combo is reused by the walk; only copy what enters the heap
		c := make([]props.Prop, len(combo))
		copy(c, combo)
		if evicted := top.push(newParlay(c, typ, label, pricing)); evicted {
			b.truncated = true
		}
		return true
	})

	b.parlays = append(b.parlays, top.drain()...)
}

// parlayLabel names a combination: the game for SGP, the first two games for Standard.
// A Standard combination inside a single game has no label.
func parlayLabel(combo []props.Prop, typ Type) (string, bool) {
	if typ == TypeSGP {
		return combo[0].Game, true
	}
	games := firstGames(combo, 2)
	if len(games) < 2 {
		return "", false
	}
	return strings.Join(games, " + "), true
}

func newParlay(combo []props.Prop, typ Type, label string, pricing Pricing) Parlay {
	return Parlay{
		Type:            typ,
		Game:            label,
		Legs:            combo,
		TotalOdds:       pricing.TotalOdds,
		AvgPercentAbove: avgPercentAbove(combo),
		Pricing:         pricing.Legs,
		MixedPricing:    pricing.Mixed,
	}
}

// avgPercentAbove averages PercentAbove over legs with a usable line; nil when none has one.
func avgPercentAbove(legs []props.Prop) *float64 {
	values := make([]float64, 0, len(legs))
	for _, leg := range legs {
		if v, ok := leg.PercentAbove(); ok {
			values = append(values, v)
		}
	}
	mean, ok := mathutil.Mean(values)
	if !ok {
		return nil
	}
	return &mean
}

// groupByGame buckets props by game, returning games in first-seen order.
func groupByGame(all []props.Prop) ([]string, map[string][]props.Prop) {
	var order []string
	byGame := make(map[string][]props.Prop)
	for _, p := range all {
		if _, ok := byGame[p.Game]; !ok {
			order = append(order, p.Game)
		}
		byGame[p.Game] = append(byGame[p.Game], p)
	}
	return order, byGame
}

// firstGames returns up to n distinct games in leg order.
func firstGames(legs []props.Prop, n int) []string {
	var games []string
	seen := make(map[string]bool)
	for _, leg := range legs {
		if seen[leg.Game] {
			continue
		}
		seen[leg.Game] = true
		games = append(games, leg.Game)
		if len(games) == n {
			break
		}
	}
	return games
}

