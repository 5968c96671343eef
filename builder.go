package simgo

import (
	"github.com/hupe1980/simgo/index/banded"
	"github.com/hupe1980/simgo/index/linear"
	"github.com/hupe1980/simgo/simhash"
)

// BandedBuilder provides a fluent interface for creating a banded LSH
// index. Builders are value types; each method returns a modified copy.
type BandedBuilder[K comparable, V any] struct {
	bands        int
	permutations int
	randomSeed   int64
	hasher       simhash.FeatureHasher
	logger       *Logger
	metrics      MetricsCollector
}

// Banded starts building a banded LSH index with default options, eight
// 8-bit bands over the single identity layout.
//
// Example:
//
//	db, err := simgo.Banded[string, string]().
//	    Bands(16).
//	    Permutations(2).
//	    Build()
func Banded[K comparable, V any]() BandedBuilder[K, V] {
	return BandedBuilder[K, V]{
		bands:        banded.DefaultOptions.Bands,
		permutations: banded.DefaultOptions.Permutations,
		randomSeed:   banded.DefaultOptions.RandomSeed,
	}
}

// Bands sets the number of bands per signature layout. Must divide 64
// evenly.
func (b BandedBuilder[K, V]) Bands(n int) BandedBuilder[K, V] {
	b.bands = n
	return b
}

// Permutations sets the number of indexed signature layouts. Values above
// one add permuted layouts that raise recall at proportional cost.
func (b BandedBuilder[K, V]) Permutations(n int) BandedBuilder[K, V] {
	b.permutations = n
	return b
}

// RandomSeed seeds the bit permutations of the extra layouts.
func (b BandedBuilder[K, V]) RandomSeed(seed int64) BandedBuilder[K, V] {
	b.randomSeed = seed
	return b
}

// Hasher sets the feature hasher used for fingerprinting.
func (b BandedBuilder[K, V]) Hasher(h simhash.FeatureHasher) BandedBuilder[K, V] {
	b.hasher = h
	return b
}

// Logger sets the logger.
func (b BandedBuilder[K, V]) Logger(l *Logger) BandedBuilder[K, V] {
	b.logger = l
	return b
}

// Metrics sets the metrics collector.
func (b BandedBuilder[K, V]) Metrics(mc MetricsCollector) BandedBuilder[K, V] {
	b.metrics = mc
	return b
}

// Build creates the index.
func (b BandedBuilder[K, V]) Build() (*Simgo[K, V], error) {
	idx, err := banded.New(func(o *banded.Options) {
		o.Bands = b.bands
		o.Permutations = b.permutations
		o.RandomSeed = b.randomSeed
	})
	if err != nil {
		return nil, translateError(err)
	}

	var optFns []Option

	if b.hasher != nil {
		optFns = append(optFns, WithHasher(b.hasher))
	}

	if b.logger != nil {
		optFns = append(optFns, WithLogger(b.logger))
	}

	if b.metrics != nil {
		optFns = append(optFns, WithMetricsCollector(b.metrics))
	}

	return newDB[K, V](idx, optFns...), nil
}

// MustBuild creates the index and panics on invalid configuration.
func (b BandedBuilder[K, V]) MustBuild() *Simgo[K, V] {
	db, err := b.Build()
	if err != nil {
		panic(err)
	}

	return db
}

// LinearBuilder provides a fluent interface for creating an exhaustive
// scan index. Builders are value types; each method returns a modified
// copy.
type LinearBuilder[K comparable, V any] struct {
	initialCapacity int
	hasher          simhash.FeatureHasher
	logger          *Logger
	metrics         MetricsCollector
}

// Linear starts building an exhaustive scan index. It always finds the
// true nearest neighbors, at linear query cost.
//
// Example:
//
//	db := simgo.Linear[string, string]().
//	    InitialCapacity(10_000).
//	    MustBuild()
func Linear[K comparable, V any]() LinearBuilder[K, V] {
	return LinearBuilder[K, V]{
		initialCapacity: linear.DefaultOptions.InitialCapacity,
	}
}

// InitialCapacity preallocates storage for the expected corpus size.
func (b LinearBuilder[K, V]) InitialCapacity(n int) LinearBuilder[K, V] {
	b.initialCapacity = n
	return b
}

// Hasher sets the feature hasher used for fingerprinting.
func (b LinearBuilder[K, V]) Hasher(h simhash.FeatureHasher) LinearBuilder[K, V] {
	b.hasher = h
	return b
}

// Logger sets the logger.
func (b LinearBuilder[K, V]) Logger(l *Logger) LinearBuilder[K, V] {
	b.logger = l
	return b
}

// Metrics sets the metrics collector.
func (b LinearBuilder[K, V]) Metrics(mc MetricsCollector) LinearBuilder[K, V] {
	b.metrics = mc
	return b
}

// Build creates the index.
func (b LinearBuilder[K, V]) Build() (*Simgo[K, V], error) {
	idx := linear.New(func(o *linear.Options) {
		o.InitialCapacity = b.initialCapacity
	})

	var optFns []Option

	if b.hasher != nil {
		optFns = append(optFns, WithHasher(b.hasher))
	}

	if b.logger != nil {
		optFns = append(optFns, WithLogger(b.logger))
	}

	if b.metrics != nil {
		optFns = append(optFns, WithMetricsCollector(b.metrics))
	}

	return newDB[K, V](idx, optFns...), nil
}

// MustBuild creates the index and panics on invalid configuration.
func (b LinearBuilder[K, V]) MustBuild() *Simgo[K, V] {
	db, err := b.Build()
	if err != nil {
		panic(err)
	}

	return db
}
