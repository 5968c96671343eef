// Package topk provides a bounded selector for the k smallest distances
// seen during candidate verification.
package topk

import "math"

// Item is a candidate held by the selector.
type Item struct {
	ID       uint32 // entry ID, assigned in insertion order
	Distance int    // exact Hamming distance to the query
}

// worse reports whether a orders after b, i.e. a is the poorer candidate.
// Distance decides first; equal distances resolve to the higher ID so that
// earlier insertions win ties.
func worse(a, b Item) bool {
	if a.Distance != b.Distance {
		return a.Distance > b.Distance
	}
	return a.ID > b.ID
}

// Selector keeps the k best items offered to it, ordered by (Distance, ID).
// It is a fixed-capacity binary max-heap over value items: the root is the
// worst kept candidate, so a full selector decides accept/reject against the
// root in O(1) and restores the heap in O(log k).
type Selector struct {
	k     int
	items []Item
}

// New creates a selector that keeps at most k items. k must be >= 1;
// callers validate before constructing.
func New(k int) *Selector {
	return &Selector{
		k:     k,
		items: make([]Item, 0, k),
	}
}

// Offer proposes a candidate. It reports whether the candidate was kept.
// Once the selector is full, a candidate is kept only if it orders strictly
// before the current worst, which it then replaces.
func (s *Selector) Offer(id uint32, distance int) bool {
	it := Item{ID: id, Distance: distance}

	if len(s.items) < s.k {
		s.items = append(s.items, it)
		s.siftUp(len(s.items) - 1)
		return true
	}

	if !worse(s.items[0], it) {
		return false
	}

	s.items[0] = it
	s.siftDown(0)
	return true
}

// WorstDistance returns the distance of the worst kept item. While the
// selector is not yet full it returns math.MaxInt, since any candidate
// would still be accepted.
func (s *Selector) WorstDistance() int {
	if len(s.items) < s.k {
		return math.MaxInt
	}
	return s.items[0].Distance
}

// Len returns the number of kept items.
func (s *Selector) Len() int { return len(s.items) }

// Drain removes and returns all kept items in ascending (Distance, ID)
// order. The result length equals the number of items actually kept; a
// selector that never filled returns fewer than k items. The selector is
// empty afterwards.
func (s *Selector) Drain() []Item {
	out := make([]Item, len(s.items))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = s.pop()
	}
	return out
}

// pop removes and returns the worst kept item.
func (s *Selector) pop() Item {
	n := len(s.items)
	root := s.items[0]
	last := s.items[n-1]
	s.items[n-1] = Item{}
	s.items = s.items[:n-1]
	if n-1 > 0 {
		s.items[0] = last
		s.siftDown(0)
	}
	return root
}

func (s *Selector) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !worse(s.items[i], s.items[p]) {
			return
		}
		s.items[i], s.items[p] = s.items[p], s.items[i]
		i = p
	}
}

func (s *Selector) siftDown(i int) {
	n := len(s.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		next := l
		if r := l + 1; r < n && worse(s.items[r], s.items[l]) {
			next = r
		}
		if !worse(s.items[next], s.items[i]) {
			return
		}
		s.items[i], s.items[next] = s.items[next], s.items[i]
		i = next
	}
}
