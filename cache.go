package simgo

import (
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hupe1980/simgo/simhash"
)

// SignatureCache memoizes signatures of raw text behind an LRU, for
// pipelines that fingerprint the same documents repeatedly (re-crawls,
// retries, repeated dedup passes). It is safe for concurrent use.
type SignatureCache struct {
	lru       *lru.Cache[string, uint64]
	extractor FeatureExtractor
	hasher    simhash.FeatureHasher

	hits   atomic.Int64
	misses atomic.Int64
}

// NewSignatureCache creates a cache holding up to size signatures. A nil
// extractor defaults to FieldsExtractor, a nil hasher to
// simhash.DefaultHasher.
func NewSignatureCache(size int, extractor FeatureExtractor, hasher simhash.FeatureHasher) (*SignatureCache, error) {
	if extractor == nil {
		extractor = FieldsExtractor{}
	}

	if hasher == nil {
		hasher = simhash.DefaultHasher
	}

	cache, err := lru.New[string, uint64](size)
	if err != nil {
		return nil, err
	}

	return &SignatureCache{
		lru:       cache,
		extractor: extractor,
		hasher:    hasher,
	}, nil
}

// Signature returns the signature of raw text, computing and caching it on
// first sight. Text with no extractable features gets the degenerate
// all-zero signature, like simhash.Hash.
func (sc *SignatureCache) Signature(raw string) uint64 {
	if sig, ok := sc.lru.Get(raw); ok {
		sc.hits.Add(1)
		return sig
	}

	sc.misses.Add(1)

	sig := simhash.HashWith(sc.hasher, sc.extractor.Features(raw))
	sc.lru.Add(raw, sig)

	return sig
}

// Stats returns the hit and miss counts since creation.
func (sc *SignatureCache) Stats() (hits, misses int64) {
	return sc.hits.Load(), sc.misses.Load()
}

// Len returns the number of cached signatures.
func (sc *SignatureCache) Len() int {
	return sc.lru.Len()
}

// Purge drops all cached signatures. The counters keep counting.
func (sc *SignatureCache) Purge() {
	sc.lru.Purge()
}
