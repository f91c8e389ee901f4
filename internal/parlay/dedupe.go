package parlay

import (
	"fmt"
	"strings"

	"prop-parlay-engine/internal/odds"
	"prop-parlay-engine/internal/props"
)

// Comparator reports whether candidate should replace incumbent for the same player and market.
type Comparator func(candidate, incumbent props.Prop) bool

// Comparator names accepted by ComparatorByName.
const (
	ComparatorAmerican    = "american"
	ComparatorProbability = "probability"
)

// ByAmericanValue keeps the offer with the numerically largest best price.
// Across the sign boundary this prefers the longer shot: +120 replaces -150.
func ByAmericanValue(candidate, incumbent props.Prop) bool {
	return candidate.BestOdds() > incumbent.BestOdds()
}

// ByImpliedProbability keeps the offer most likely to hit: -150 replaces +120.
func ByImpliedProbability(candidate, incumbent props.Prop) bool {
	return odds.AmericanToImplied(candidate.BestOdds()) > odds.AmericanToImplied(incumbent.BestOdds())
}

// ComparatorByName resolves a configured comparator; empty selects ByAmericanValue.
func ComparatorByName(name string) (Comparator, error) {
	switch strings.ToLower(name) {
	case "", ComparatorAmerican:
		return ByAmericanValue, nil
	case ComparatorProbability:
		return ByImpliedProbability, nil
	default:
		return nil, fmt.Errorf("unknown comparator %q", name)
	}
}

func dedupeKey(p props.Prop) string {
	return p.Player + "\x00" + strings.ToLower(p.Market)
}

// Dedupe collapses offers for the same player and market (case-insensitive) to one.
// The line is not part of the key. A later offer replaces the stored one only when
// better is true for it; ties keep the first. Output follows first-seen key order.
func Dedupe(all []props.Prop, better Comparator) []props.Prop {
	if better == nil {
		better = ByAmericanValue
	}

	index := make(map[string]int, len(all))
	out := make([]props.Prop, 0, len(all))

	for _, p := range all {
		key := dedupeKey(p)
		i, seen := index[key]
		if !seen {
			index[key] = len(out)
			out = append(out, p)
			continue
		}
		if better(p, out[i]) {
			out[i] = p
		}
	}
	return out
}
