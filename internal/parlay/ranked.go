package parlay

import (
	"container/heap"
	"sort"
)

type rankedParlay struct {
	Parlay
	seq int
}

// parlayHeap is a min-heap on TotalOdds; among equal odds the latest enumerated sits on top.
type parlayHeap []rankedParlay

func (h parlayHeap) Len() int { return len(h) }
func (h parlayHeap) Less(i, j int) bool {
	if h[i].TotalOdds != h[j].TotalOdds {
		return h[i].TotalOdds < h[j].TotalOdds
	}
	return h[i].seq > h[j].seq
}
func (h parlayHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *parlayHeap) Push(x any)   { *h = append(*h, x.(rankedParlay)) }
func (h *parlayHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topParlays retains the capacity highest-priced parlays pushed into it.
type topParlays struct {
	capacity int
	items    parlayHeap
	seq      int
}

func newTopParlays(capacity int) *topParlays {
	return &topParlays{capacity: capacity}
}

// accepts reports whether a parlay priced at totalOdds would be kept.
// Ties with the current floor lose to the earlier-enumerated incumbent.
func (t *topParlays) accepts(totalOdds int) bool {
	if t.capacity <= 0 || len(t.items) < t.capacity {
		return true
	}
	return totalOdds > t.items[0].TotalOdds
}

// push adds p if it beats the current floor and reports whether a parlay was evicted.
func (t *topParlays) push(p Parlay) bool {
	if !t.accepts(p.TotalOdds) {
		return false
	}
	heap.Push(&t.items, rankedParlay{Parlay: p, seq: t.seq})
	t.seq++
	if t.capacity > 0 && len(t.items) > t.capacity {
		heap.Pop(&t.items)
		return true
	}
	return false
}

// drain returns the retained parlays in enumeration order and empties the set.
func (t *topParlays) drain() []Parlay {
	items := []rankedParlay(t.items)
	sort.Slice(items, func(i, j int) bool { return items[i].seq < items[j].seq })

	out := make([]Parlay, len(items))
	for i, item := range items {
		out[i] = item.Parlay
	}
	t.items = nil
	return out
}
