package index

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors shared by index implementations.
var (
	// ErrInvalidK is returned when a k-nearest-neighbor search is invoked
	// with k < 1.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidMaxDistance is returned when a range search is invoked with
	// a negative maximum distance.
	ErrInvalidMaxDistance = errors.New("max distance must be non-negative")

	// ErrInvalidPermutations is returned when an index is configured with
	// fewer than one signature layout.
	ErrInvalidPermutations = errors.New("permutations must be positive")

	// ErrNotFound is returned when no entry exists under a requested ID.
	ErrNotFound = errors.New("entry not found")
)

// ErrInvalidBands is a named error type for band counts that cannot slice a
// 64-bit signature evenly.
type ErrInvalidBands struct {
	Bands int // rejected band count
}

// Error returns the error message for an invalid band count.
func (e *ErrInvalidBands) Error() string {
	return fmt.Sprintf("invalid band count %d: must divide 64 evenly", e.Bands)
}

// SearchResult represents a verified search result.
type SearchResult struct {
	// ID is the identifier of the matched entry, assigned densely in
	// insertion order starting at zero.
	ID uint32

	// Distance is the exact Hamming distance between the query signature
	// and the entry's signature, in [0, 64].
	Distance int
}

// FilterFunc is a function type used for filtering candidates before
// verification. Returning false drops the entry from the search.
type FilterFunc func(id uint32) bool

// SearchOptions controls the execution of a search query.
type SearchOptions struct {
	// Filter excludes entries when it returns false. A nil filter keeps
	// every candidate.
	Filter FilterFunc
}

// Stats describes the shape and occupancy of an index.
type Stats struct {
	// Count is the number of stored entries.
	Count int

	// Bands is the number of signature slices per permutation. Zero for
	// exhaustive indexes.
	Bands int

	// BandWidth is the number of bits per band. Zero for exhaustive
	// indexes.
	BandWidth int

	// Permutations is the number of indexed signature layouts. Zero for
	// exhaustive indexes.
	Permutations int

	// Tables is the total number of band tables (Permutations x Bands).
	Tables int

	// Buckets is the number of occupied buckets across all tables.
	Buckets int

	// MaxBucketLen is the length of the fullest bucket.
	MaxBucketLen int
}

// Index is an append-only store of 64-bit signatures supporting exact
// Hamming-distance queries over its candidate sets. Implementations are
// safe for concurrent use.
type Index interface {
	// Insert appends a signature and returns its assigned ID.
	Insert(ctx context.Context, sig uint64) (uint32, error)

	// KNNSearch returns up to k neighbors of q in ascending
	// (distance, ID) order. Fewer than k eligible entries shrink the
	// result; an empty index yields an empty result, not an error.
	KNNSearch(ctx context.Context, q uint64, k int, opts *SearchOptions) ([]SearchResult, error)

	// NearestSearch returns the closest eligible neighbor of q. The
	// boolean reports whether one exists.
	NearestSearch(ctx context.Context, q uint64, opts *SearchOptions) (SearchResult, bool, error)

	// RangeSearch returns every eligible neighbor within maxDistance of q.
	// Result order is unspecified.
	RangeSearch(ctx context.Context, q uint64, maxDistance int, opts *SearchOptions) ([]SearchResult, error)

	// SignatureByID returns the signature stored under id, or ErrNotFound.
	SignatureByID(id uint32) (uint64, error)

	// Count returns the number of stored entries.
	Count() int

	// Stats returns occupancy statistics.
	Stats() Stats
}
