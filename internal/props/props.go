// Package props holds the player-prop data model served by the prop feed
// and the filters applied before parlays are assembled.
package props

import (
	"sort"
	"strings"
)

// AllValue disables a game or book filter.
const AllValue = "all"

// Quote is one sportsbook's price on a prop.
type Quote struct {
	Name string `json:"name"`
	Odds int    `json:"odds"`
}

// Record is a prop's historical hit count.
type Record struct {
	Hit   int `json:"hit"`
	Total int `json:"total"`
}

// Prop is one player/market/line offer in one game, quoted by one or more books.
type Prop struct {
	Player        string    `json:"player"`
	Market        string    `json:"market"`
	Line          float64   `json:"line"`
	Game          string    `json:"game"`
	GameTime      string    `json:"game_time"`
	SeasonAverage float64   `json:"season_avg"`
	WeeklyValues  []float64 `json:"weekly_values"`
	Bookmakers    []Quote   `json:"bookmakers"`
	TeamID        string    `json:"team_id,omitempty"`
	Record        *Record   `json:"record,omitempty"`
}

// BestOdds returns the numerically largest American price across books.
// Props with no quotes are dropped upstream; an empty prop returns 0.
func (p Prop) BestOdds() int {
	if len(p.Bookmakers) == 0 {
		return 0
	}
	best := p.Bookmakers[0].Odds
	for _, q := range p.Bookmakers[1:] {
		if q.Odds > best {
			best = q.Odds
		}
	}
	return best
}

// BestQuote returns the quote carrying BestOdds.
func (p Prop) BestQuote() (Quote, bool) {
	if len(p.Bookmakers) == 0 {
		return Quote{}, false
	}
	best := p.Bookmakers[0]
	for _, q := range p.Bookmakers[1:] {
		if q.Odds > best.Odds {
			best = q
		}
	}
	return best, true
}

// QuoteFor returns the price offered by a specific book.
func (p Prop) QuoteFor(book string) (int, bool) {
	for _, q := range p.Bookmakers {
		if q.Name == book {
			return q.Odds, true
		}
	}
	return 0, false
}

// PercentAbove returns how far the season average sits above the line, in percent.
// A non-positive line has no meaningful ratio and reports false.
func (p Prop) PercentAbove() (float64, bool) {
	if p.Line <= 0 {
		return 0, false
	}
	return (p.SeasonAverage - p.Line) / p.Line * 100, true
}

// HitRate returns hit/total, or 0 without a usable record.
func (p Prop) HitRate() float64 {
	if p.Record == nil || p.Record.Total <= 0 {
		return 0
	}
	return float64(p.Record.Hit) / float64(p.Record.Total)
}

// Valid reports whether the prop can take part in pricing.
func (p Prop) Valid() bool {
	if p.Player == "" || len(p.Bookmakers) == 0 {
		return false
	}
	for _, q := range p.Bookmakers {
		if q.Odds == 0 {
			return false
		}
	}
	return true
}

// Filter narrows a prop list the way the prop board does.
type Filter struct {
	Search  string // case-insensitive substring of player or game
	Game    string // exact game label, "all" or empty for every game
	Book    string // keep props quoted by this book, "all" or empty for any
	MinOdds *int   // keep props whose best odds are at least this
}

// Apply returns the props that pass every filter, in input order.
func Apply(all []Prop, f Filter) []Prop {
	query := strings.ToLower(strings.TrimSpace(f.Search))
	out := make([]Prop, 0, len(all))

	for _, p := range all {
		if !p.Valid() {
			continue
		}
		if query != "" &&
			!strings.Contains(strings.ToLower(p.Player), query) &&
			!strings.Contains(strings.ToLower(p.Game), query) {
			continue
		}
		if isSet(f.Game) && p.Game != f.Game {
			continue
		}
		if isSet(f.Book) {
			if _, ok := p.QuoteFor(f.Book); !ok {
				continue
			}
		}
		if f.MinOdds != nil && p.BestOdds() < *f.MinOdds {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isSet(v string) bool {
	return v != "" && v != AllValue
}

// Bookmakers returns every book quoting at least one prop, sorted.
func Bookmakers(all []Prop) []string {
	seen := make(map[string]bool)
	for _, p := range all {
		for _, q := range p.Bookmakers {
			seen[q.Name] = true
		}
	}
	books := make([]string, 0, len(seen))
	for name := range seen {
		books = append(books, name)
	}
	sort.Strings(books)
	return books
}

// Recommend returns the best-hitting props for a matchup.
// A prop matches when its team contains, or is contained by, either team name.
func Recommend(all []Prop, awayTeam, homeTeam string, limit int) []Prop {
	teams := []string{strings.ToLower(awayTeam), strings.ToLower(homeTeam)}

	var matched []Prop
	for _, p := range all {
		if p.TeamID == "" {
			continue
		}
		team := strings.ToLower(p.TeamID)
		for _, t := range teams {
			if t == "" {
				continue
			}
			if strings.Contains(team, t) || strings.Contains(t, team) {
				matched = append(matched, p)
				break
			}
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].HitRate() > matched[j].HitRate()
	})

	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}
