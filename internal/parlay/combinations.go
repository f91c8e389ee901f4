package parlay

// DefaultComboCap bounds how many combinations one enumeration produces.
const DefaultComboCap = 2000

// EachCombination visits every size-element subset of items in lexicographic index
// order. The slice passed to visit is reused between calls; copy it to keep it.
// Returning false from visit stops the walk.
func EachCombination[T any](items []T, size int, visit func([]T) bool) {
	if size <= 0 || size > len(items) {
		return
	}

	prefix := make([]T, 0, size)
	var walk func(start int) bool
	walk = func(start int) bool {
		// leave room for the elements still needed after this one
		last := len(items) - (size - len(prefix))
		for i := start; i <= last; i++ {
			prefix = append(prefix, items[i])
			ok := true
			if len(prefix) == size {
				ok = visit(prefix)
			} else {
				ok = walk(i + 1)
			}
			prefix = prefix[:len(prefix)-1]
			if !ok {
				return false
			}
		}
		return true
	}
	walk(0)
}

// Combinations returns up to limit size-element subsets of items, in the order
// EachCombination visits them. A limit of zero or less means no cap.
// When capped, the result is the deterministic prefix of the full enumeration.
func Combinations[T any](items []T, size, limit int) [][]T {
	var out [][]T
	EachCombination(items, size, func(combo []T) bool {
		if limit > 0 && len(out) >= limit {
			return false
		}
		c := make([]T, len(combo))
		copy(c, combo)
		out = append(out, c)
		return limit <= 0 || len(out) < limit
	})
	return out
}
