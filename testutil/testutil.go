// Package testutil provides testing utilities for Simgo.
//
// It is intended for use in tests and benchmarks only: seeded random
// generation of signatures and synthetic token corpora, plus recall
// computation against an exact baseline.
package testutil

import (
	"math/rand"
	"strconv"
	"sync"

	"github.com/hupe1980/simgo/index"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)), // nolint gosec
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint64 returns a pseudo-random uint64.
func (r *RNG) Uint64() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Uint64()
}

// Signatures returns count pseudo-random signatures.
func (r *RNG) Signatures(count int) []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]uint64, count)
	for i := range out {
		out[i] = r.rand.Uint64()
	}
	return out
}

// FlipBits returns sig with n distinct pseudo-random bits flipped, i.e. a
// signature at exact Hamming distance n from sig. n must be in [0, 64].
func (r *RNG) FlipBits(sig uint64, n int) uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, pos := range r.rand.Perm(64)[:n] {
		sig ^= uint64(1) << pos
	}
	return sig
}

// TokenSet returns size synthetic tokens drawn from a vocabulary of vocab
// distinct tokens. Repeats are possible; SimHash treats the result as a
// multiset.
func (r *RNG) TokenSet(size, vocab int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, size)
	for i := range out {
		out[i] = "tok" + strconv.Itoa(r.rand.Intn(vocab))
	}
	return out
}

// ReplaceTokens returns a copy of tokens with n pseudo-random positions
// replaced by tokens outside the synthetic vocabulary, producing a
// near-duplicate feature set. n must not exceed len(tokens).
func (r *RNG) ReplaceTokens(tokens []string, n int) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := append([]string(nil), tokens...)
	for _, pos := range r.rand.Perm(len(out))[:n] {
		out[pos] = "alt" + strconv.Itoa(r.rand.Int())
	}
	return out
}

// ComputeRecall computes recall by comparing approximate results against
// exact ground truth: the fraction of ground-truth IDs the approximate
// result actually returned.
func ComputeRecall(groundTruth, approximate []index.SearchResult) float64 {
	if len(groundTruth) == 0 {
		if len(approximate) == 0 {
			return 1.0
		}
		return 0.0
	}

	truth := make(map[uint32]struct{}, len(groundTruth))
	for _, res := range groundTruth {
		truth[res.ID] = struct{}{}
	}

	hits := 0
	for _, res := range approximate {
		if _, ok := truth[res.ID]; ok {
			hits++
		}
	}

	return float64(hits) / float64(len(groundTruth))
}
