package mathutil

import "math"

// Binomial returns C(n, k), the number of k-element subsets of an n-element set.
// Returns 0 when k is out of range. Saturates at math.MaxInt instead of overflowing,
// which is enough for comparing against a result cap.
func Binomial(n, k int) int {
	if k < 0 || n < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}

	result := 1
	for i := 1; i <= k; i++ {
		// result * (n-k+i) / i is always an integer at this step
		next := n - k + i
		if result > math.MaxInt/next {
			return math.MaxInt
		}
		result = result * next / i
	}
	return result
}

// Mean returns the arithmetic mean of values, or false for an empty slice.
func Mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}
