package odds

import (
	"errors"
	"math"
	"strconv"
)

// ErrInvalidDecimal is returned when a decimal product cannot be expressed as American odds.
var ErrInvalidDecimal = errors.New("decimal odds must be greater than 1")

// ToDecimal converts American odds to a decimal multiplier (stake included).
// Example: -150 → 1.667, +120 → 2.2
func ToDecimal(american int) float64 {
	if american < 0 {
		return 100.0/math.Abs(float64(american)) + 1
	}
	return float64(american)/100.0 + 1
}

// CombinedToAmerican converts a product of decimal multipliers back to American odds.
// Products of 2.0 or more become positive prices, anything below becomes negative.
// Example: 3.667 → +267, 1.5 → -200
func CombinedToAmerican(decimalProduct float64) (int, error) {
	if !(decimalProduct > 1) || math.IsInf(decimalProduct, 0) {
		return 0, ErrInvalidDecimal
	}

	if decimalProduct >= 2 {
		return int(math.Round((decimalProduct - 1) * 100)), nil
	}
	return int(math.Round(-100 / (decimalProduct - 1))), nil
}

// Combine multiplies the decimal odds of every leg. No legs gives 1.
func Combine(legs []int) float64 {
	product := 1.0
	for _, leg := range legs {
		product *= ToDecimal(leg)
	}
	return product
}

// ParlayAmerican returns the combined American price of legs.
func ParlayAmerican(legs []int) (int, error) {
	return CombinedToAmerican(Combine(legs))
}

// AmericanToImplied converts American odds to implied probability
// Example: -150 → 0.6 (60%), +150 → 0.4 (40%)
func AmericanToImplied(odds int) float64 {
	if odds == 0 {
		return 0
	}

	if odds > 0 {
		// Underdog: probability = 100 / (odds + 100)
		return 100.0 / (float64(odds) + 100.0)
	}
	// Favorite: probability = |odds| / (|odds| + 100)
	return math.Abs(float64(odds)) / (math.Abs(float64(odds)) + 100.0)
}

// Format renders American odds with an explicit sign for positive prices.
func Format(american int) string {
	if american > 0 {
		return "+" + strconv.Itoa(american)
	}
	return strconv.Itoa(american)
}
