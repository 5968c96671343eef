// Package simgo provides an embedded near-duplicate index for Go.
//
// Simgo fingerprints feature sets (token multisets) into 64-bit SimHash
// signatures and retrieves neighbors by Hamming distance, with
// production-ready features including:
//
//   - Two index types: Banded (sub-linear LSH retrieval) and Linear (exact scan)
//   - Type-safe fluent builders: Banded[K, V](), Linear[K, V]()
//   - Thread-safe puts and queries with per-band-table locking
//   - Candidate deduplication via Roaring Bitmaps
//   - Pluggable feature hashing: xxHash by default, keyed SipHash for
//     untrusted input, or any custom FeatureHasher
//   - Always-on self-match exclusion keyed on entry keys
//   - Streaming search API with early termination
//   - Structured logging (log/slog) and pluggable metrics
//
// # Index Selection
//
// Choose the right index for your corpus:
//   - Linear: small corpora, recall 1 (exhaustive scan, also the ground
//     truth for recall measurements)
//   - Banded: large corpora; recall is tunable via band count and extra
//     permuted signature layouts
//
// # Quick Start
//
// Create a banded index with the type-safe builder:
//
//	ctx := context.Background()
//	db, err := simgo.Banded[string, string]().
//	    Bands(8).          // Eight 8-bit bands
//	    Permutations(2).   // One extra permuted layout
//	    Build()
//	if err != nil {
//	    panic(err)
//	}
//
// Insert pre-tokenized items:
//
//	id, err := db.Put(ctx, &simgo.Item[string, string]{
//	    Key:      "doc-1",
//	    Value:    "a b c d",
//	    Features: []string{"a", "b", "c", "d"},
//	})
//
// Query with the fluent API:
//
//	neighbors, err := db.Search([]string{"a", "b", "c", "e"}).
//	    Self("doc-2").  // Exclude the query's own key
//	    KNN(5).
//	    Execute(ctx)
//
// Streaming search with early termination:
//
//	for nb, err := range db.Search(features).KNN(100).Stream(ctx) {
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    if nb.Distance > threshold {
//	        break
//	    }
//	    process(nb)
//	}
//
// Compute raw signatures without an index via simhash.Hash, and distances
// via simhash.Distance.
package simgo

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/hupe1980/simgo/index"
	"github.com/hupe1980/simgo/index/banded"
	"github.com/hupe1980/simgo/internal/store"
	"github.com/hupe1980/simgo/simhash"
	"golang.org/x/sync/errgroup"
)

// Simgo is a near-duplicate index over fingerprinted feature sets, pairing
// an index implementation with a key/value entry store.
type Simgo[K comparable, V any] struct {
	writeMu sync.Mutex // Keeps index IDs and store slots aligned
	index   index.Index
	store   *store.Store[K, V]
	hasher  simhash.FeatureHasher
	metrics MetricsCollector
	logger  *Logger
}

// New creates a banded index with default options. Use the Banded or
// Linear builders to configure index parameters.
func New[K comparable, V any](optFns ...Option) (*Simgo[K, V], error) {
	idx, err := banded.New()
	if err != nil {
		return nil, translateError(err)
	}

	return newDB[K, V](idx, optFns...), nil
}

// newDB wires an index implementation to a fresh entry store. Builders and
// New are the public entry points.
func newDB[K comparable, V any](idx index.Index, optFns ...Option) *Simgo[K, V] {
	opts := applyOptions(optFns)

	return &Simgo[K, V]{
		index:   idx,
		store:   store.New[K, V](),
		hasher:  opts.hasher,
		metrics: opts.metricsCollector,
		logger:  opts.logger,
	}
}

// Item represents a pre-tokenized entry to be inserted.
type Item[K comparable, V any] struct {
	// Key identifies the entry. Queries exclude candidates whose key
	// equals the query key (self-match exclusion). Keys need not be
	// unique; duplicates are all excluded together.
	Key K

	// Value is the caller-supplied payload returned with query results.
	Value V

	// Features is the token multiset to fingerprint. Must not be empty.
	Features []string
}

// SelfItem builds an item whose value is its key, for corpora where the
// indexed text is its own payload.
func SelfItem[K comparable](key K, features []string) *Item[K, K] {
	return &Item[K, K]{Key: key, Value: key, Features: features}
}

// Query identifies a query feature set.
type Query[K comparable] struct {
	// Key is the query's identity for self-match exclusion: candidates
	// whose key equals it are never returned. Callers querying from
	// outside the corpus pass any key not present in it.
	Key K

	// Features is the token multiset to fingerprint. Must not be empty.
	Features []string
}

// QueryOptions contains per-query options.
type QueryOptions[K comparable] struct {
	// Filter keeps only candidates whose key passes the predicate. It
	// composes with the always-on self-exclusion of the query key.
	Filter func(key K) bool
}

// Neighbor represents a query result.
type Neighbor[K comparable, V any] struct {
	index.SearchResult

	// Key is the matching entry's key.
	Key K

	// Value is the matching entry's value.
	Value V
}

// Fingerprint computes the signature of a feature set using this
// instance's hasher. Empty feature sets are rejected; use simhash.Hash
// directly for the total function with the degenerate zero signature.
func (sg *Simgo[K, V]) Fingerprint(features []string) (uint64, error) {
	if len(features) == 0 {
		return 0, ErrNoFeatures
	}

	return simhash.HashWith(sg.hasher, features), nil
}

// Get returns the value stored under the given entry ID.
func (sg *Simgo[K, V]) Get(id uint32) (V, error) {
	ent, ok := sg.store.Get(id)
	if !ok {
		var zero V
		return zero, ErrNotFound
	}

	return ent.Value, nil
}

// Put fingerprints an item and inserts it, returning the assigned entry ID.
func (sg *Simgo[K, V]) Put(ctx context.Context, item *Item[K, V]) (uint32, error) {
	start := time.Now()

	id, err := sg.put(ctx, item)
	duration := time.Since(start)
	sg.metrics.RecordPut(duration, err)

	features := 0
	if item != nil {
		features = len(item.Features)
	}
	sg.logger.LogPut(ctx, id, features, err)

	return id, err
}

func (sg *Simgo[K, V]) put(ctx context.Context, item *Item[K, V]) (uint32, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if item == nil {
		return 0, ErrNilItem
	}
	if len(item.Features) == 0 {
		return 0, ErrNoFeatures
	}

	sig := simhash.HashWith(sg.hasher, item.Features)

	sg.writeMu.Lock()
	defer sg.writeMu.Unlock()

	id, err := sg.index.Insert(ctx, sig)
	if err != nil {
		return 0, translateError(err)
	}

	sg.store.Append(item.Key, item.Value)

	return id, nil
}

// BatchPutResult represents the result of a batch put.
type BatchPutResult struct {
	IDs    []uint32 // IDs of successfully inserted items
	Errors []error  // Errors by input position (nil for successful)
}

// BatchPut inserts multiple items. Fingerprints are computed concurrently;
// insertion is sequential in slice order, so IDs of successful items follow
// their input order. Failed items are reported per position and do not
// abort the batch.
func (sg *Simgo[K, V]) BatchPut(ctx context.Context, items []*Item[K, V]) BatchPutResult {
	start := time.Now()

	result := BatchPutResult{
		IDs:    make([]uint32, 0, len(items)),
		Errors: make([]error, len(items)),
	}

	sigs := make([]uint64, len(items))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, item := range items {
		g.Go(func() error {
			switch {
			case item == nil:
				result.Errors[i] = ErrNilItem
			case len(item.Features) == 0:
				result.Errors[i] = ErrNoFeatures
			default:
				sigs[i] = simhash.HashWith(sg.hasher, item.Features)
			}
			return nil
		})
	}

	// Workers only fill their own slots and never fail.
	_ = g.Wait()

	sg.writeMu.Lock()
	for i, item := range items {
		if result.Errors[i] != nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			result.Errors[i] = err
			continue
		}

		id, err := sg.index.Insert(ctx, sigs[i])
		if err != nil {
			result.Errors[i] = translateError(err)
			continue
		}

		sg.store.Append(item.Key, item.Value)
		result.IDs = append(result.IDs, id)
	}
	sg.writeMu.Unlock()

	failed := 0
	for _, e := range result.Errors {
		if e != nil {
			failed++
		}
	}

	duration := time.Since(start)
	sg.metrics.RecordBatchPut(len(items), failed, duration)
	sg.logger.LogBatchPut(ctx, len(items), failed)

	return result
}

// KNN returns up to k nearest neighbors of the query in ascending
// (distance, insertion order), excluding self-matches. Fewer than k
// eligible entries shrink the result, never pad it.
func (sg *Simgo[K, V]) KNN(ctx context.Context, q Query[K], k int, optFns ...func(o *QueryOptions[K])) ([]Neighbor[K, V], error) {
	opts := applyQueryOptions(optFns)

	return sg.knnSearch(ctx, &q.Key, q.Features, k, opts.Filter)
}

func (sg *Simgo[K, V]) knnSearch(ctx context.Context, selfKey *K, features []string, k int, filter func(key K) bool) ([]Neighbor[K, V], error) {
	start := time.Now()

	neighbors, err := sg.knn(ctx, selfKey, features, k, filter)
	duration := time.Since(start)
	sg.metrics.RecordKNN(k, duration, err)
	sg.logger.LogKNN(ctx, k, len(neighbors), err)

	return neighbors, err
}

func (sg *Simgo[K, V]) knn(ctx context.Context, selfKey *K, features []string, k int, filter func(key K) bool) ([]Neighbor[K, V], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if k < 1 {
		return nil, ErrInvalidK
	}

	sig, err := sg.Fingerprint(features)
	if err != nil {
		return nil, err
	}

	results, err := sg.index.KNNSearch(ctx, sig, k, sg.searchOptions(selfKey, filter))
	if err != nil {
		return nil, translateError(err)
	}

	return sg.materialize(results), nil
}

// Nearest returns the closest neighbor of the query, excluding
// self-matches. The second return value reports whether any eligible
// neighbor exists; absence is not an error.
func (sg *Simgo[K, V]) Nearest(ctx context.Context, q Query[K], optFns ...func(o *QueryOptions[K])) (Neighbor[K, V], bool, error) {
	opts := applyQueryOptions(optFns)

	return sg.nearestSearch(ctx, &q.Key, q.Features, opts.Filter)
}

func (sg *Simgo[K, V]) nearestSearch(ctx context.Context, selfKey *K, features []string, filter func(key K) bool) (Neighbor[K, V], bool, error) {
	start := time.Now()

	nb, found, err := sg.nearest(ctx, selfKey, features, filter)
	duration := time.Since(start)
	sg.metrics.RecordNearest(duration, err)
	sg.logger.LogNearest(ctx, found, err)

	return nb, found, err
}

func (sg *Simgo[K, V]) nearest(ctx context.Context, selfKey *K, features []string, filter func(key K) bool) (Neighbor[K, V], bool, error) {
	if err := ctx.Err(); err != nil {
		return Neighbor[K, V]{}, false, err
	}

	sig, err := sg.Fingerprint(features)
	if err != nil {
		return Neighbor[K, V]{}, false, err
	}

	res, found, err := sg.index.NearestSearch(ctx, sig, sg.searchOptions(selfKey, filter))
	if err != nil {
		return Neighbor[K, V]{}, false, translateError(err)
	}
	if !found {
		return Neighbor[K, V]{}, false, nil
	}

	ent, ok := sg.store.Get(res.ID)
	if !ok {
		// The filter admits only stored IDs; a late miss means the entry
		// raced mid-put, so report absence.
		return Neighbor[K, V]{}, false, nil
	}

	return Neighbor[K, V]{SearchResult: res, Key: ent.Key, Value: ent.Value}, true, nil
}

// Range returns every neighbor within maxDistance of the query, excluding
// self-matches, in ascending insertion order.
func (sg *Simgo[K, V]) Range(ctx context.Context, q Query[K], maxDistance int, optFns ...func(o *QueryOptions[K])) ([]Neighbor[K, V], error) {
	opts := applyQueryOptions(optFns)

	return sg.rangeSearch(ctx, &q.Key, q.Features, maxDistance, opts.Filter)
}

func (sg *Simgo[K, V]) rangeSearch(ctx context.Context, selfKey *K, features []string, maxDistance int, filter func(key K) bool) ([]Neighbor[K, V], error) {
	start := time.Now()

	neighbors, err := sg.rangeQuery(ctx, selfKey, features, maxDistance, filter)
	duration := time.Since(start)
	sg.metrics.RecordRange(maxDistance, duration, err)
	sg.logger.LogRange(ctx, maxDistance, len(neighbors), err)

	return neighbors, err
}

func (sg *Simgo[K, V]) rangeQuery(ctx context.Context, selfKey *K, features []string, maxDistance int, filter func(key K) bool) ([]Neighbor[K, V], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if maxDistance < 0 {
		return nil, ErrInvalidMaxDistance
	}

	sig, err := sg.Fingerprint(features)
	if err != nil {
		return nil, err
	}

	results, err := sg.index.RangeSearch(ctx, sig, maxDistance, sg.searchOptions(selfKey, filter))
	if err != nil {
		return nil, translateError(err)
	}

	return sg.materialize(results), nil
}

// Len returns the number of stored entries.
func (sg *Simgo[K, V]) Len() int {
	return sg.index.Count()
}

// Stats returns statistics about the underlying index.
func (sg *Simgo[K, V]) Stats() index.Stats {
	return sg.index.Stats()
}

func applyQueryOptions[K comparable](optFns []func(o *QueryOptions[K])) QueryOptions[K] {
	var opts QueryOptions[K]
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// searchOptions adapts key-level query filtering to the ID-level filter the
// index understands. A nil selfKey disables self-exclusion.
func (sg *Simgo[K, V]) searchOptions(selfKey *K, filter func(key K) bool) *index.SearchOptions {
	return &index.SearchOptions{
		Filter: func(id uint32) bool {
			key, ok := sg.store.Key(id)
			if !ok {
				// Indexed but not yet stored; invisible until its put returns.
				return false
			}
			if selfKey != nil && key == *selfKey {
				return false
			}
			if filter != nil && !filter(key) {
				return false
			}
			return true
		},
	}
}

// materialize joins index results with their stored entries.
func (sg *Simgo[K, V]) materialize(results []index.SearchResult) []Neighbor[K, V] {
	neighbors := make([]Neighbor[K, V], 0, len(results))

	for _, res := range results {
		ent, ok := sg.store.Get(res.ID)
		if !ok {
			// Skip if the entry is not stored yet (index and store might
			// be out of sync mid-put)
			continue
		}

		neighbors = append(neighbors, Neighbor[K, V]{
			SearchResult: res,
			Key:          ent.Key,
			Value:        ent.Value,
		})
	}

	return neighbors
}
