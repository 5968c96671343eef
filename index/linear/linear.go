// Package linear provides an exact, exhaustive-scan fingerprint index.
//
// Every entry is a candidate for every query, so recall is 1 by
// construction. It is the ground-truth baseline for the banded index and
// the right choice for small corpora.
package linear

import (
	"context"
	"sync"

	"github.com/hupe1980/simgo/index"
	"github.com/hupe1980/simgo/internal/topk"
	"github.com/hupe1980/simgo/simhash"
)

// Compile time check to ensure Linear satisfies the index.Index interface.
var _ index.Index = (*Linear)(nil)

// Options contains configuration for the linear index.
type Options struct {
	// InitialCapacity preallocates signature storage for the expected
	// corpus size. Zero means no preallocation.
	InitialCapacity int
}

// DefaultOptions holds the default configuration.
var DefaultOptions = Options{
	InitialCapacity: 0,
}

// Linear is an append-only exhaustive-scan index over 64-bit signatures.
// It is safe for concurrent use.
type Linear struct {
	mu   sync.RWMutex
	sigs []uint64
	opts Options
}

// New creates a new linear index.
func New(optFns ...func(o *Options)) *Linear {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.InitialCapacity < 0 {
		opts.InitialCapacity = 0
	}

	return &Linear{
		sigs: make([]uint64, 0, opts.InitialCapacity),
		opts: opts,
	}
}

// Insert appends a signature and returns its assigned ID.
func (l *Linear) Insert(ctx context.Context, sig uint64) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	l.mu.Lock()
	id := uint32(len(l.sigs))
	l.sigs = append(l.sigs, sig)
	l.mu.Unlock()

	return id, nil
}

// snapshot returns the current signature slice. Entries are append-only,
// so the captured prefix never mutates under the caller.
func (l *Linear) snapshot() []uint64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.sigs
}

// KNNSearch performs an exact k-nearest-neighbor scan.
func (l *Linear) KNNSearch(ctx context.Context, q uint64, k int, opts *index.SearchOptions) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, index.ErrInvalidK
	}

	var filter index.FilterFunc
	if opts != nil {
		filter = opts.Filter
	}

	sigs := l.snapshot()
	if len(sigs) == 0 {
		return nil, nil
	}

	actualK := k
	if actualK > len(sigs) {
		actualK = len(sigs)
	}

	sel := topk.New(actualK)

	for id, sig := range sigs {
		if filter != nil && !filter(uint32(id)) {
			continue
		}
		sel.Offer(uint32(id), simhash.Distance(q, sig))
	}

	return searchResults(sel.Drain()), nil
}

// NearestSearch performs an exact single-pass minimum scan. Ties resolve to
// the lowest ID.
func (l *Linear) NearestSearch(ctx context.Context, q uint64, opts *index.SearchOptions) (index.SearchResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return index.SearchResult{}, false, err
	}

	var filter index.FilterFunc
	if opts != nil {
		filter = opts.Filter
	}

	var best index.SearchResult
	found := false

	for id, sig := range l.snapshot() {
		if filter != nil && !filter(uint32(id)) {
			continue
		}
		if d := simhash.Distance(q, sig); !found || d < best.Distance {
			best = index.SearchResult{ID: uint32(id), Distance: d}
			found = true
		}
	}

	return best, found, nil
}

// RangeSearch returns every eligible entry within maxDistance of q, in
// ascending ID order.
func (l *Linear) RangeSearch(ctx context.Context, q uint64, maxDistance int, opts *index.SearchOptions) ([]index.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxDistance < 0 {
		return nil, index.ErrInvalidMaxDistance
	}

	var filter index.FilterFunc
	if opts != nil {
		filter = opts.Filter
	}

	var out []index.SearchResult

	for id, sig := range l.snapshot() {
		if filter != nil && !filter(uint32(id)) {
			continue
		}
		if d := simhash.Distance(q, sig); d <= maxDistance {
			out = append(out, index.SearchResult{ID: uint32(id), Distance: d})
		}
	}

	return out, nil
}

// SignatureByID returns the signature stored under id.
func (l *Linear) SignatureByID(id uint32) (uint64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if int(id) >= len(l.sigs) {
		return 0, index.ErrNotFound
	}

	return l.sigs[id], nil
}

// Count returns the number of stored entries.
func (l *Linear) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.sigs)
}

// Stats returns occupancy statistics. A linear index has no band tables,
// so only Count is populated.
func (l *Linear) Stats() index.Stats {
	return index.Stats{Count: l.Count()}
}

// searchResults converts drained selector items into search results.
func searchResults(items []topk.Item) []index.SearchResult {
	out := make([]index.SearchResult, len(items))
	for i, it := range items {
		out[i] = index.SearchResult{ID: it.ID, Distance: it.Distance}
	}
	return out
}
