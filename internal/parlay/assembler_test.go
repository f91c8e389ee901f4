package parlay

import (
	"errors"
	"math"
	"testing"

	"prop-parlay-engine/internal/props"
)

func intPtr(v int) *int { return &v }

func prop(player, game string, odds int) props.Prop {
	return props.Prop{
		Player:        player,
		Market:        "Player Receptions Alternate",
		Line:          4,
		Game:          game,
		SeasonAverage: 5,
		Bookmakers:    []props.Quote{quote("draftkings", odds)},
	}
}

func buildOpts(legs int, kind Kind) Options {
	opts := DefaultOptions()
	opts.Legs = legs
	opts.Kind = kind
	return opts
}

func TestBuildSGPAndStandard(t *testing.T) {
	pool := []props.Prop{
		prop("p1", "G1", -110),
		prop("p2", "G1", -120),
		prop("p3", "G2", -130),
	}

	result := Build(pool, buildOpts(2, KindAll))

	var sgp, standard []Parlay
	for _, p := range result.Parlays {
		switch p.Type {
		case TypeSGP:
			sgp = append(sgp, p)
		case TypeStandard:
			standard = append(standard, p)
		}
	}

	if len(sgp) != 1 {
		t.Fatalf("got %d SGP parlays, want 1", len(sgp))
	}
	if sgp[0].Game != "G1" || sgp[0].Legs[0].Player != "p1" || sgp[0].Legs[1].Player != "p2" {
		t.Errorf("SGP = %s %s+%s, want G1 p1+p2", sgp[0].Game, sgp[0].Legs[0].Player, sgp[0].Legs[1].Player)
	}

	if len(standard) != 2 {
		t.Fatalf("got %d Standard parlays, want 2", len(standard))
	}
	for _, p := range standard {
		if p.Game != "G1 + G2" {
			t.Errorf("Standard label = %q, want %q", p.Game, "G1 + G2")
		}
		if p.Legs[1].Player != "p3" {
			t.Errorf("Standard parlay %s+%s should pair with p3", p.Legs[0].Player, p.Legs[1].Player)
		}
	}

	if result.Generated != 3 || result.Truncated {
		t.Errorf("Generated=%d Truncated=%v, want 3 and false", result.Generated, result.Truncated)
	}
}

func TestBuildKindFilters(t *testing.T) {
	pool := []props.Prop{
		prop("p1", "G1", -110),
		prop("p2", "G1", -120),
		prop("p3", "G2", -130),
	}

	if got := Build(pool, buildOpts(2, KindSGP)).Parlays; len(got) != 1 || got[0].Type != TypeSGP {
		t.Errorf("sgp build returned %d parlays", len(got))
	}
	if got := Build(pool, buildOpts(2, KindStandard)).Parlays; len(got) != 2 {
		t.Errorf("standard build returned %d parlays, want 2", len(got))
	}
}

func TestBuildSortedDescending(t *testing.T) {
	pool := []props.Prop{
		prop("a", "G1", -200),
		prop("b", "G1", 150),
		prop("c", "G2", -110),
		prop("d", "G2", 300),
	}

	result := Build(pool, buildOpts(2, KindAll))
	if len(result.Parlays) == 0 {
		t.Fatal("expected parlays")
	}
	for i := 1; i < len(result.Parlays); i++ {
		if result.Parlays[i].TotalOdds > result.Parlays[i-1].TotalOdds {
			t.Fatalf("parlay %d (%d) ranks above parlay %d (%d)",
				i, result.Parlays[i].TotalOdds, i-1, result.Parlays[i-1].TotalOdds)
		}
	}
	// b (+150) with d (+300): 2.5 * 4 = 10 → +900
	if result.Parlays[0].TotalOdds != 900 {
		t.Errorf("top parlay = %d, want +900", result.Parlays[0].TotalOdds)
	}
}

func TestBuildMinOddsKeepsTies(t *testing.T) {
	pool := []props.Prop{
		prop("A", "G1", -400),
		prop("B", "G1", -300),
		prop("C", "G1", -400),
		prop("D", "G1", -300),
	}

	opts := buildOpts(2, KindSGP)
	opts.MinOdds = intPtr(-150)
	result := Build(pool, opts)

	// AC prices at -178 and is dropped; four pairs price exactly -150, BD at -129
	if len(result.Parlays) != 5 {
		t.Fatalf("got %d parlays, want 5", len(result.Parlays))
	}
	if result.Parlays[0].TotalOdds != -129 {
		t.Errorf("top parlay = %d, want -129", result.Parlays[0].TotalOdds)
	}
	ties := 0
	for _, p := range result.Parlays {
		if p.TotalOdds < -150 {
			t.Errorf("parlay priced %d survived a -150 floor", p.TotalOdds)
		}
		if p.TotalOdds == -150 {
			ties++
		}
	}
	if ties != 4 {
		t.Errorf("kept %d parlays at exactly -150, want 4", ties)
	}
}

func TestBuildDedupesBeforeCombining(t *testing.T) {
	dup := prop("p1", "G1", 200)
	dup.Line = 6
	pool := []props.Prop{
		prop("p1", "G1", -110),
		dup,
		prop("p2", "G1", -120),
	}

	result := Build(pool, buildOpts(2, KindSGP))
	if len(result.Parlays) != 1 {
		t.Fatalf("got %d parlays, want 1 after dedupe", len(result.Parlays))
	}
	if result.Parlays[0].Legs[0].Line != 6 {
		t.Errorf("kept line %v for p1, want the +200 offer at 6", result.Parlays[0].Legs[0].Line)
	}
}

func TestBuildAvgPercentAbove(t *testing.T) {
	a := prop("a", "G1", -110)
	a.Line, a.SeasonAverage = 50, 60 // +20%
	b := prop("b", "G1", -110)
	b.Line, b.SeasonAverage = 4, 3 // -25%
	zero := prop("z", "G2", -110)
	zero.Line = 0
	zero2 := prop("z2", "G2", -110)
	zero2.Line = 0

	result := Build([]props.Prop{a, b, zero, zero2}, buildOpts(2, KindSGP))

	byGame := map[string]Parlay{}
	for _, p := range result.Parlays {
		byGame[p.Game] = p
	}

	g1, ok := byGame["G1"]
	if !ok || g1.AvgPercentAbove == nil {
		t.Fatal("G1 parlay should carry an average")
	}
	if math.Abs(*g1.AvgPercentAbove-(-2.5)) > 1e-9 {
		t.Errorf("G1 avg = %v, want -2.5", *g1.AvgPercentAbove)
	}

	g2, ok := byGame["G2"]
	if !ok {
		t.Fatal("G2 parlay missing")
	}
	if g2.AvgPercentAbove != nil {
		t.Errorf("G2 avg = %v, want nil for zero lines", *g2.AvgPercentAbove)
	}
}

func TestBuildEmpty(t *testing.T) {
	tests := []struct {
		name string
		pool []props.Prop
		kind Kind
	}{
		{"No props", nil, KindAll},
		{"Too few legs", []props.Prop{prop("a", "G1", 100)}, KindAll},
		{"No cross-game spread", []props.Prop{prop("a", "G1", 100), prop("b", "G1", 100)}, KindStandard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Build(tt.pool, buildOpts(2, tt.kind))
			if result.Parlays == nil || len(result.Parlays) != 0 {
				t.Errorf("got %v, want an empty non-nil list", result.Parlays)
			}
		})
	}
}

func TestBuildDisplayCap(t *testing.T) {
	var pool []props.Prop
	for i, name := range []string{"a", "b", "c", "d", "e", "f"} {
		pool = append(pool, prop(name, "G1", -110-10*i))
	}

	opts := buildOpts(2, KindSGP)
	opts.DisplayCap = 4
	result := Build(pool, opts)

	if len(result.Parlays) != 4 {
		t.Errorf("got %d parlays, want display cap 4", len(result.Parlays))
	}
	if !result.Truncated {
		t.Error("display cap should mark the result truncated")
	}
	if result.Generated != 15 {
		t.Errorf("Generated = %d, want 15", result.Generated)
	}
}

func rankingPool() []props.Prop {
	return []props.Prop{
		prop("p0", "G1", -500),
		prop("p1", "G1", -400),
		prop("p2", "G1", -300),
		prop("p3", "G1", 200),
		prop("p4", "G1", 300),
	}
}

func TestBuildEnumerationCap(t *testing.T) {
	opts := buildOpts(2, KindSGP)
	opts.ComboCap = 3
	result := Build(rankingPool(), opts)

	if len(result.Parlays) != 3 || !result.Truncated {
		t.Fatalf("got %d parlays truncated=%v, want 3 and true", len(result.Parlays), result.Truncated)
	}
	// enumeration keeps (p0,p1) (p0,p2) (p0,p3); best of those is p0+p3: 1.2*3 = 3.6 → +260
	if result.Parlays[0].TotalOdds != 260 {
		t.Errorf("top parlay = %d, want +260", result.Parlays[0].TotalOdds)
	}
}

func TestBuildRankedCap(t *testing.T) {
	opts := buildOpts(2, KindSGP)
	opts.ComboCap = 3
	opts.CapMode = CapRanked
	result := Build(rankingPool(), opts)

	if len(result.Parlays) != 3 || !result.Truncated {
		t.Fatalf("got %d parlays truncated=%v, want 3 and true", len(result.Parlays), result.Truncated)
	}
	// p3+p4: 3*4 = 12 → +1100; p2+p4: 5.333 → +433; p1+p4: 5 → +400
	want := []int{1100, 433, 400}
	for i, w := range want {
		if result.Parlays[i].TotalOdds != w {
			t.Errorf("parlay %d = %d, want %d", i, result.Parlays[i].TotalOdds, w)
		}
	}
	if result.Generated != 10 {
		t.Errorf("Generated = %d, want all 10 combinations priced", result.Generated)
	}
}

func TestBuildMixedPricingFlag(t *testing.T) {
	a := prop("a", "G1", -110)
	a.Bookmakers = append(a.Bookmakers, quote("fanduel", -105))
	b := prop("b", "G1", 120)

	opts := buildOpts(2, KindSGP)
	opts.Book = "fanduel"
	result := Build([]props.Prop{a, b}, opts)

	if len(result.Parlays) != 1 {
		t.Fatalf("got %d parlays, want 1", len(result.Parlays))
	}
	p := result.Parlays[0]
	if !p.MixedPricing {
		t.Error("parlay with an uncovered leg should be flagged mixed")
	}
	if p.Pricing[0].Odds != -105 || p.Pricing[0].Source != SourceSelectedBook {
		t.Errorf("leg a priced %+v, want fanduel -105", p.Pricing[0])
	}
}

func TestOptionsValidate(t *testing.T) {
	if err := DefaultOptions().Validate(); err != nil {
		t.Fatalf("default options invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Options)
		want   error
	}{
		{"One leg", func(o *Options) { o.Legs = 1 }, ErrInvalidLegs},
		{"Seven legs", func(o *Options) { o.Legs = 7 }, ErrInvalidLegs},
		{"Bad kind", func(o *Options) { o.Kind = "teaser" }, ErrInvalidKind},
		{"Bad cap mode", func(o *Options) { o.CapMode = "random" }, ErrInvalidCapMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			tt.mutate(&opts)
			if err := opts.Validate(); !errors.Is(err, tt.want) {
				t.Errorf("Validate() = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestParlayKey(t *testing.T) {
	p := Parlay{Legs: []props.Prop{prop("a", "G1", 100), prop("b", "G1", 100)}}
	if p.Key() != "a|player receptions alternate|4;b|player receptions alternate|4" {
		t.Errorf("Key = %q", p.Key())
	}
}
