// Package calculator prices a hand-entered parlay and rates it against a sportsbook's offer.
package calculator

import (
	"math"

	"github.com/shopspring/decimal"

	"prop-parlay-engine/internal/odds"
)

// Value ratings, from the fair-vs-book difference clamped to 0..200.
const (
	RatingGreat = "Great Value"
	RatingOkay  = "Okay Value"
	RatingPoor  = "Poor Value"

	greatMax  = 66
	okayMax   = 133
	sliderMax = 200
)

// Result is a priced manual parlay.
type Result struct {
	// Legs counts the legs that carried a price.
	Legs int `json:"legs"`
	// Odds is the fair combined American price, 0 when no leg is priced.
	Odds    int             `json:"odds"`
	Decimal decimal.Decimal `json:"decimal"`
	// Difference is fair minus book odds, set only when book odds are given.
	Difference *int            `json:"difference"`
	Rating     string          `json:"rating"`
	Stake      decimal.Decimal `json:"stake"`
	Payout     decimal.Decimal `json:"payout"`
	Profit     decimal.Decimal `json:"profit"`
	BookPayout decimal.Decimal `json:"book_payout"`
}

// Calculate combines legs into fair parlay odds, compares them with bookOdds
// when non-zero, and prices stake at both. Zero legs are ignored.
func Calculate(legs []int, bookOdds int, stake decimal.Decimal) Result {
	res := Result{
		Stake:  stake.Round(2),
		Rating: RatingGreat,
	}

	var priced []int
	for _, leg := range legs {
		if leg != 0 {
			priced = append(priced, leg)
		}
	}
	res.Legs = len(priced)
	if len(priced) == 0 {
		return res
	}

	combined := odds.Combine(priced)
	product := decimal.NewFromFloat(combined)
	res.Decimal = product.Round(4)

	fair, err := odds.CombinedToAmerican(combined)
	if err != nil {
		return res
	}
	res.Odds = fair
	res.Payout = stake.Mul(product).Round(2)
	res.Profit = res.Payout.Sub(res.Stake)

	if bookOdds != 0 {
		diff := int(math.Round(float64(fair - bookOdds)))
		res.Difference = &diff
		res.Rating = Rate(diff)
		res.BookPayout = stake.Mul(decimal.NewFromFloat(odds.ToDecimal(bookOdds))).Round(2)
	}
	return res
}

// Rate classifies how much better the fair price is than the book's.
func Rate(difference int) string {
	v := difference
	if v < 0 {
		v = 0
	}
	if v > sliderMax {
		v = sliderMax
	}

	switch {
	case v <= greatMax:
		return RatingGreat
	case v <= okayMax:
		return RatingOkay
	default:
		return RatingPoor
	}
}
