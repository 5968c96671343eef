package simgo_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/simgo"
	"github.com/hupe1980/simgo/simhash"
)

func TestSignatureCache(t *testing.T) {
	t.Run("computes then caches", func(t *testing.T) {
		cache, err := simgo.NewSignatureCache(16, nil, nil)
		require.NoError(t, err)

		raw := "the quick brown fox"
		want := simhash.Hash(simgo.FieldsExtractor{}.Features(raw))

		assert.Equal(t, want, cache.Signature(raw))
		assert.Equal(t, want, cache.Signature(raw))

		hits, misses := cache.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
		assert.Equal(t, 1, cache.Len())
	})

	t.Run("honors extractor and hasher", func(t *testing.T) {
		hasher := simhash.SipHasher(7, 11)
		extractor := simgo.ShingleExtractor{Size: 2, Lowercase: true}

		cache, err := simgo.NewSignatureCache(16, extractor, hasher)
		require.NoError(t, err)

		raw := "The Quick Brown Fox"
		want := simhash.HashWith(hasher, extractor.Features(raw))

		assert.Equal(t, want, cache.Signature(raw))
	})

	t.Run("evicts least recently used", func(t *testing.T) {
		cache, err := simgo.NewSignatureCache(2, nil, nil)
		require.NoError(t, err)

		cache.Signature("first text")
		cache.Signature("second text")
		cache.Signature("third text")

		assert.Equal(t, 2, cache.Len())

		// "first text" was evicted, so this is a fourth miss.
		cache.Signature("first text")

		_, misses := cache.Stats()
		assert.Equal(t, int64(4), misses)
	})

	t.Run("purge keeps counters", func(t *testing.T) {
		cache, err := simgo.NewSignatureCache(8, nil, nil)
		require.NoError(t, err)

		cache.Signature("some text")
		cache.Signature("some text")
		cache.Purge()

		assert.Equal(t, 0, cache.Len())

		hits, misses := cache.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("invalid size", func(t *testing.T) {
		_, err := simgo.NewSignatureCache(0, nil, nil)
		require.Error(t, err)
	})

	t.Run("featureless text maps to zero", func(t *testing.T) {
		cache, err := simgo.NewSignatureCache(8, nil, nil)
		require.NoError(t, err)

		assert.Equal(t, uint64(0), cache.Signature("   "))
	})
}
