package simgo

import (
	"context"
	"iter"
)

// SearchBuilder provides a fluent interface for queries.
//
// Example:
//
//	neighbors, err := db.Search(features).
//	    Self("doc-1").
//	    KNN(5).
//	    Filter(func(key string) bool { return key != "draft" }).
//	    Execute(ctx)
type SearchBuilder[K comparable, V any] struct {
	db        *Simgo[K, V]
	features  []string
	k         int
	selfKey   K
	hasSelf   bool
	radius    int
	hasRadius bool
	filter    func(key K) bool
}

// Search creates a fluent query for the given feature set. Without Self,
// no candidate is excluded as a self-match.
func (sg *Simgo[K, V]) Search(features []string) *SearchBuilder[K, V] {
	return &SearchBuilder[K, V]{
		db:       sg,
		features: features,
		k:        10, // sensible default
	}
}

// Self marks the query as coming from the entry with the given key, so
// that entry (and any sharing its key) is excluded from the results.
func (sb *SearchBuilder[K, V]) Self(key K) *SearchBuilder[K, V] {
	sb.selfKey = key
	sb.hasSelf = true
	return sb
}

// KNN sets the number of neighbors to return.
func (sb *SearchBuilder[K, V]) KNN(k int) *SearchBuilder[K, V] {
	sb.k = k
	return sb
}

// Radius switches the query to a range search returning every neighbor
// within maxDistance, in insertion order. KNN's k is then ignored.
func (sb *SearchBuilder[K, V]) Radius(maxDistance int) *SearchBuilder[K, V] {
	sb.radius = maxDistance
	sb.hasRadius = true
	return sb
}

// Filter keeps only candidates whose key passes the predicate.
func (sb *SearchBuilder[K, V]) Filter(fn func(key K) bool) *SearchBuilder[K, V] {
	sb.filter = fn
	return sb
}

// Execute runs the query.
func (sb *SearchBuilder[K, V]) Execute(ctx context.Context) ([]Neighbor[K, V], error) {
	var selfKey *K
	if sb.hasSelf {
		selfKey = &sb.selfKey
	}

	if sb.hasRadius {
		return sb.db.rangeSearch(ctx, selfKey, sb.features, sb.radius, sb.filter)
	}

	return sb.db.knnSearch(ctx, selfKey, sb.features, sb.k, sb.filter)
}

// MustExecute runs the query and panics on error. Use only when the query
// parameters are known to be valid.
func (sb *SearchBuilder[K, V]) MustExecute(ctx context.Context) []Neighbor[K, V] {
	neighbors, err := sb.Execute(ctx)
	if err != nil {
		panic(err)
	}

	return neighbors
}

// Stream runs the query and yields results one at a time. Iteration may
// stop early without draining the remainder.
//
// Example:
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
func (sb *SearchBuilder[K, V]) Stream(ctx context.Context) iter.Seq2[Neighbor[K, V], error] {
	return func(yield func(Neighbor[K, V], error) bool) {
		neighbors, err := sb.Execute(ctx)
		if err != nil {
			yield(Neighbor[K, V]{}, err)
			return
		}

		for _, nb := range neighbors {
			if !yield(nb, nil) {
				return
			}
		}
	}
}

// First returns the query's first result, or ErrNotFound if no eligible
// neighbor exists. For KNN queries this is the closest neighbor; for
// radius queries it is the earliest-inserted one within range.
func (sb *SearchBuilder[K, V]) First(ctx context.Context) (Neighbor[K, V], error) {
	if !sb.hasRadius {
		sb.k = 1
	}

	neighbors, err := sb.Execute(ctx)
	if err != nil {
		return Neighbor[K, V]{}, err
	}
	if len(neighbors) == 0 {
		return Neighbor[K, V]{}, ErrNotFound
	}

	return neighbors[0], nil
}

// Count returns the number of results the query would yield.
func (sb *SearchBuilder[K, V]) Count(ctx context.Context) (int, error) {
	neighbors, err := sb.Execute(ctx)
	if err != nil {
		return 0, err
	}

	return len(neighbors), nil
}

// Exists reports whether the query yields at least one result.
func (sb *SearchBuilder[K, V]) Exists(ctx context.Context) (bool, error) {
	if !sb.hasRadius {
		sb.k = 1
	}

	count, err := sb.Count(ctx)
	if err != nil {
		return false, err
	}

	return count > 0, nil
}