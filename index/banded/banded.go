// Package banded provides the banded multi-table LSH index over 64-bit
// SimHash signatures.
//
// Each signature is cut into fixed-width bands and every band value
// addresses a bucket in its own hash table. A query probes one bucket per
// table and verifies the union of their contents with the exact Hamming
// distance, trading probabilistic recall for sub-linear candidate
// retrieval: entries sharing at least one band with the query are
// retrieved, everything else is never looked at.
//
// Recall tuning: more, narrower bands retrieve more candidates (8x8 bits is
// the default); additional permuted signature layouts multiply the tables
// and catch near-misses whose differing bits straddle the default band
// boundaries.
package banded

import (
	"context"
	"math/rand"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/simgo/index"
	"github.com/hupe1980/simgo/internal/topk"
	"github.com/hupe1980/simgo/simhash"
)

// Compile time check to ensure Banded satisfies the index.Index interface.
var _ index.Index = (*Banded)(nil)

// Options contains configuration for the banded index.
type Options struct {
	// Bands is the number of non-overlapping slices each signature layout
	// is cut into. Must divide 64 evenly. More bands retrieve more
	// candidates per query (higher recall, more verification work).
	Bands int

	// Permutations is the number of indexed signature layouts. Layout 0
	// uses the signature bits as stored; every further layout applies an
	// independent seeded bit permutation before banding, raising recall at
	// proportional memory and latency cost. Must be >= 1.
	Permutations int

	// RandomSeed seeds the bit permutations of layouts beyond the first.
	// Indexes built with equal options and seed agree on their candidate
	// sets.
	RandomSeed int64
}

// DefaultOptions holds the default configuration: eight 8-bit bands over
// the identity layout.
var DefaultOptions = Options{
	Bands:        8,
	Permutations: 1,
	RandomSeed:   1,
}

// bandTable maps one (layout, band) position's band values to the entry
// IDs stored under them. Each table carries its own lock, so probes and
// inserts touching different tables do not serialize.
type bandTable struct {
	mu      sync.RWMutex
	buckets map[uint64][]uint32
}

// Banded is an append-only approximate index over 64-bit signatures. It is
// safe for concurrent use; an entry becomes fully visible to queries once
// its Insert returns.
type Banded struct {
	opts  Options
	width int       // bits per band
	mask  uint64    // band extraction mask, width low bits set
	perms [][64]int // bit permutations backing layouts >= 1

	// tables is layout-major: tables[p*Bands+b] holds layout p, band b.
	tables []*bandTable

	sigMu sync.RWMutex
	sigs  []uint64 // position == entry ID
}

// New creates a new banded index.
func New(optFns ...func(o *Options)) (*Banded, error) {
	opts := DefaultOptions

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Bands < 1 || opts.Bands > 64 || 64%opts.Bands != 0 {
		return nil, &index.ErrInvalidBands{Bands: opts.Bands}
	}
	if opts.Permutations < 1 {
		return nil, index.ErrInvalidPermutations
	}

	width := 64 / opts.Bands

	b := &Banded{
		opts:   opts,
		width:  width,
		mask:   (uint64(1) << width) - 1, // width 64 wraps the shift to 0, giving an all-ones mask
		tables: make([]*bandTable, opts.Permutations*opts.Bands),
	}

	for i := range b.tables {
		b.tables[i] = &bandTable{buckets: make(map[uint64][]uint32)}
	}

	if opts.Permutations > 1 {
		rng := rand.New(rand.NewSource(opts.RandomSeed)) // nolint gosec
		b.perms = make([][64]int, opts.Permutations-1)
		for p := range b.perms {
			copy(b.perms[p][:], rng.Perm(64))
		}
	}

	return b, nil
}

// permute rearranges sig's bits for layout p. Layout 0 is the identity.
func (b *Banded) permute(p int, sig uint64) uint64 {
	if p == 0 {
		return sig
	}

	var out uint64
	for src, dst := range b.perms[p-1] {
		out |= ((sig >> src) & 1) << dst
	}

	return out
}

// tableKeys returns the bucket key for every table, layout-major.
func (b *Banded) tableKeys(sig uint64) []uint64 {
	keys := make([]uint64, 0, len(b.tables))

	for p := range b.opts.Permutations {
		laid := b.permute(p, sig)
		for band := range b.opts.Bands {
			keys = append(keys, (laid>>(band*b.width))&b.mask)
		}
	}

	return keys
}

// Insert appends a signature and publishes its ID to one bucket per table.
func (b *Banded) Insert(ctx context.Context, sig uint64) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	// Store the signature before publishing the ID to any bucket, so a
	// probe that retrieves the ID can always resolve its signature.
	b.sigMu.Lock()
	id := uint32(len(b.sigs))
	b.sigs = append(b.sigs, sig)
	b.sigMu.Unlock()

	for i, key := range b.tableKeys(sig) {
		t := b.tables[i]
		t.mu.Lock()
		t.buckets[key] = append(t.buckets[key], id)
		t.mu.Unlock()
	}

	return id, nil
}

// snapshot returns the current signature slice. Entries are append-only,
// so the captured prefix never mutates under the caller.
func (b *Banded) snapshot() []uint64 {
	b.sigMu.RLock()
	defer b.sigMu.RUnlock()

	return b.sigs
}

// candidates returns the deduplicated union of every probed bucket.
// Bitmap iteration is ascending by ID, which makes candidate-discovery
// order equal insertion order and keeps tie-breaking stable.
func (b *Banded) candidates(sig uint64) *roaring.Bitmap {
	set := roaring.New()

	for i, key := range b.tableKeys(sig) {
		t := b.tables[i]
		t.mu.RLock()
		if ids, ok := t.buckets[key]; ok {
			set.AddMany(ids)
		}
		t.mu.RUnlock()
	}

	return set
}

// KNNSearch returns up to k neighbors of q among the banded candidates, in
// ascending (distance, ID) order.
func (b *Banded) KNNSearch(ctx context.Context, q uint64, k int, opts *index.SearchOptions) ([]index.SearchResult, error) {
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

	sigs := b.snapshot()
	if len(sigs) == 0 {
		return nil, nil
	}

	sel := topk.New(min(k, len(sigs)))

	it := b.candidates(q).Iterator()
	for it.HasNext() {
		id := it.Next()
		if int(id) >= len(sigs) {
			continue // published after our snapshot
		}
		if filter != nil && !filter(id) {
			continue
		}
		sel.Offer(id, simhash.Distance(q, sigs[id]))
	}

	return searchResults(sel.Drain()), nil
}

// NearestSearch returns the closest eligible banded candidate via a
// single-pass minimum. Ties resolve to the lowest ID.
func (b *Banded) NearestSearch(ctx context.Context, q uint64, opts *index.SearchOptions) (index.SearchResult, bool, error) {
	if err := ctx.Err(); err != nil {
		return index.SearchResult{}, false, err
	}

	var filter index.FilterFunc
	if opts != nil {
		filter = opts.Filter
	}

	sigs := b.snapshot()

	var best index.SearchResult
	found := false

	it := b.candidates(q).Iterator()
	for it.HasNext() {
		id := it.Next()
		if int(id) >= len(sigs) {
			continue
		}
		if filter != nil && !filter(id) {
			continue
		}
		if d := simhash.Distance(q, sigs[id]); !found || d < best.Distance {
			best = index.SearchResult{ID: id, Distance: d}
			found = true
		}
	}

	return best, found, nil
}

// RangeSearch returns every eligible banded candidate within maxDistance
// of q, in ascending ID order.
func (b *Banded) RangeSearch(ctx context.Context, q uint64, maxDistance int, opts *index.SearchOptions) ([]index.SearchResult, error) {
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

	sigs := b.snapshot()

	var out []index.SearchResult

	it := b.candidates(q).Iterator()
	for it.HasNext() {
		id := it.Next()
		if int(id) >= len(sigs) {
			continue
		}
		if filter != nil && !filter(id) {
			continue
		}
		if d := simhash.Distance(q, sigs[id]); d <= maxDistance {
			out = append(out, index.SearchResult{ID: id, Distance: d})
		}
	}

	return out, nil
}

// SignatureByID returns the signature stored under id.
func (b *Banded) SignatureByID(id uint32) (uint64, error) {
	b.sigMu.RLock()
	defer b.sigMu.RUnlock()

	if int(id) >= len(b.sigs) {
		return 0, index.ErrNotFound
	}

	return b.sigs[id], nil
}

// Count returns the number of stored entries.
func (b *Banded) Count() int {
	b.sigMu.RLock()
	defer b.sigMu.RUnlock()

	return len(b.sigs)
}

// Stats returns occupancy statistics across all band tables.
func (b *Banded) Stats() index.Stats {
	st := index.Stats{
		Count:        b.Count(),
		Bands:        b.opts.Bands,
		BandWidth:    b.width,
		Permutations: b.opts.Permutations,
		Tables:       len(b.tables),
	}

	for _, t := range b.tables {
		t.mu.RLock()
		st.Buckets += len(t.buckets)
		for _, ids := range t.buckets {
			if len(ids) > st.MaxBucketLen {
				st.MaxBucketLen = len(ids)
			}
		}
		t.mu.RUnlock()
	}

	return st
}

// searchResults converts drained selector items into search results.
func searchResults(items []topk.Item) []index.SearchResult {
	out := make([]index.SearchResult, len(items))
	for i, it := range items {
		out[i] = index.SearchResult{ID: it.ID, Distance: it.Distance}
	}
	return out
}
