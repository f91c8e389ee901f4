package server

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"prop-parlay-engine/internal/parlay"
	"prop-parlay-engine/internal/props"
)

// defaultPropMinOdds hides heavy favourites from the prop board.
const defaultPropMinOdds = -600

const defaultRecommendLimit = 10

// parseOdds reads an American price such as "-150" or "+1000". Empty,
// "highest" and "none" mean no floor.
func parseOdds(q url.Values, key string) (*int, error) {
	v := strings.TrimSpace(q.Get(key))
	switch strings.ToLower(v) {
	case "", "highest", "none":
		return nil, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(v, "+"))
	if err != nil {
		return nil, fmt.Errorf("%s must be American odds, got %q", key, v)
	}
	return &n, nil
}

func parseInt(q url.Values, key string, def int) (int, error) {
	v := strings.TrimSpace(q.Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, v)
	}
	return n, nil
}

// propFilter reads search, game, book and the given min-odds key.
func propFilter(q url.Values, minOddsKey string, defaultMin *int) (props.Filter, error) {
	f := props.Filter{
		Search: q.Get("search"),
		Game:   q.Get("game"),
		Book:   q.Get("book"),
	}
	if !q.Has(minOddsKey) {
		f.MinOdds = defaultMin
		return f, nil
	}
	minOdds, err := parseOdds(q, minOddsKey)
	if err != nil {
		return props.Filter{}, err
	}
	f.MinOdds = minOdds
	return f, nil
}

// parlayOptions overlays query parameters on the configured defaults.
func parlayOptions(q url.Values, defaults parlay.Options) (parlay.Options, error) {
	opts := defaults

	legs, err := parseInt(q, "legs", parlay.MinLegs)
	if err != nil {
		return opts, err
	}
	opts.Legs = legs

	if v := q.Get("type"); v != "" {
		opts.Kind = parlay.Kind(strings.ToLower(v))
	}
	if v := q.Get("book"); v != "" {
		opts.Book = v
	}
	if opts.MinOdds, err = parseOdds(q, "minOdds"); err != nil {
		return opts, err
	}
	if v := q.Get("capMode"); v != "" {
		opts.CapMode = parlay.CapMode(strings.ToLower(v))
	}
	if v := q.Get("comparator"); v != "" {
		cmp, err := parlay.ComparatorByName(v)
		if err != nil {
			return opts, err
		}
		opts.Comparator = cmp
	}

	return opts, opts.Validate()
}

func intPtr(n int) *int { return &n }
