package parlay

import (
	"errors"
	"fmt"

	"prop-parlay-engine/internal/odds"
	"prop-parlay-engine/internal/props"
)

// PriceSource tells where a leg's price came from.
type PriceSource string

const (
	SourceSelectedBook  PriceSource = "selected_book"
	SourceBestAvailable PriceSource = "best_available"
)

// LegPrice is the price used for one leg of a parlay.
type LegPrice struct {
	Odds   int         `json:"odds"`
	Book   string      `json:"book"`
	Source PriceSource `json:"source"`
}

// Pricing is the combined price of a set of legs.
type Pricing struct {
	TotalOdds int        `json:"total_odds"`
	Legs      []LegPrice `json:"legs"`
	// Mixed is set when a book was selected but at least one leg had to fall
	// back to the best available price elsewhere, so the total is not
	// bookable as a single slip at that book.
	Mixed bool `json:"mixed"`
}

var errNoLegs = errors.New("parlay has no legs")

// Price computes the combined American odds for legs. With a specific book, each
// leg uses that book's quote when it has one and its best price otherwise;
// with "all" or an empty book every leg uses its best price.
func Price(legs []props.Prop, book string) (Pricing, error) {
	if len(legs) == 0 {
		return Pricing{}, errNoLegs
	}

	selected := book != "" && book != props.AllValue
	pricing := Pricing{Legs: make([]LegPrice, len(legs))}
	prices := make([]int, len(legs))

	for i, leg := range legs {
		var lp LegPrice
		if selected {
			if price, ok := leg.QuoteFor(book); ok {
				lp = LegPrice{Odds: price, Book: book, Source: SourceSelectedBook}
			}
		}
		if lp.Source == "" {
			best, ok := leg.BestQuote()
			if !ok {
				return Pricing{}, fmt.Errorf("leg %s %s has no quotes", leg.Player, leg.Market)
			}
			lp = LegPrice{Odds: best.Odds, Book: best.Name, Source: SourceBestAvailable}
			if selected {
				pricing.Mixed = true
			}
		}

		pricing.Legs[i] = lp
		prices[i] = lp.Odds
	}

	total, err := odds.ParlayAmerican(prices)
	if err != nil {
		return Pricing{}, fmt.Errorf("combining %d legs: %w", len(legs), err)
	}
	pricing.TotalOdds = total
	return pricing, nil
}
