package query

import "container/heap"

// Result is a single scored document.
type Result struct {
	DocID uint32
	Score float64
}

// topKHeap is a bounded min-heap over Results, ordered by ascending score
// (so the lowest-scoring survivor sits at the root and is the first to be
// evicted), with ties broken by the larger docID sorting first so a
// deterministic candidate (the larger docID) is evicted under equal scores.
type topKHeap []Result

func (h topKHeap) Len() int { return len(h) }

func (h topKHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].DocID > h[j].DocID
}

func (h topKHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *topKHeap) Push(x interface{}) {
	*h = append(*h, x.(Result))
}

func (h *topKHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// topKCollector accumulates the K highest-scoring results seen via Offer,
// then drains them in descending score order.
type topKCollector struct {
	k int
	h topKHeap
}

func newTopKCollector(k int) *topKCollector {
	c := &topKCollector{k: k, h: make(topKHeap, 0, k)}
	heap.Init(&c.h)
	return c
}

// Offer considers one candidate result for inclusion in the top-K set.
func (c *topKCollector) Offer(r Result) {
	if c.k <= 0 {
		return
	}
	if c.h.Len() < c.k {
		heap.Push(&c.h, r)
		return
	}
	if r.Score > c.h[0].Score {
		heap.Pop(&c.h)
		heap.Push(&c.h, r)
	}
}

// Drain returns the collected results sorted by descending score (ties
// broken by ascending docID), consuming the collector's internal heap.
func (c *topKCollector) Drain() []Result {
	out := make([]Result, c.h.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&c.h).(Result)
	}
	return out
}
