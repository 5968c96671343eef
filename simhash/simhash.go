// Package simhash implements 64-bit SimHash fingerprints over feature sets
// and the Hamming distance between them.
//
// Similar feature sets produce signatures that differ in few bits; that
// locality property is what banded candidate retrieval builds on. Hashing
// is pure and deterministic: the same feature set always produces the same
// signature.
package simhash

import (
	"math/bits"

	"github.com/cespare/xxhash/v2"
	"github.com/dchest/siphash"
)

// FeatureHasher maps a single feature to a well-distributed 64-bit hash.
type FeatureHasher func(feature string) uint64

// DefaultHasher is the feature hasher used by Hash.
var DefaultHasher FeatureHasher = xxhash.Sum64String

// SipHasher returns a keyed SipHash-2-4 feature hasher. Callers
// fingerprinting untrusted input can use it to keep bucket keys
// unpredictable.
func SipHasher(k0, k1 uint64) FeatureHasher {
	return func(feature string) uint64 {
		return siphash.Hash(k0, k1, []byte(feature))
	}
}

// Feature is a weighted token. Weight scales the token's pull on every
// signature bit; weight 1 equals plain Hash behavior.
type Feature struct {
	Token  string
	Weight int
}

// Hash computes the SimHash signature of a uniformly weighted feature set
// using DefaultHasher.
//
// An empty feature set yields the degenerate all-zero signature. Callers
// that need a meaningful neighborhood must not hash empty input; the index
// facade rejects it outright.
func Hash(features []string) uint64 {
	return HashWith(DefaultHasher, features)
}

// HashWith computes the SimHash signature of a uniformly weighted feature
// set. A nil hasher falls back to DefaultHasher.
func HashWith(hasher FeatureHasher, features []string) uint64 {
	if hasher == nil {
		hasher = DefaultHasher
	}

	var acc [64]int
	for _, f := range features {
		h := hasher(f)
		for b := range 64 {
			if (h>>b)&1 == 1 {
				acc[b]++
			} else {
				acc[b]--
			}
		}
	}

	return fold(&acc)
}

// HashWeighted computes the SimHash signature of a weighted feature set.
// Features with non-positive weights contribute nothing. A nil hasher
// falls back to DefaultHasher.
func HashWeighted(hasher FeatureHasher, features []Feature) uint64 {
	if hasher == nil {
		hasher = DefaultHasher
	}

	var acc [64]int
	for _, f := range features {
		if f.Weight <= 0 {
			continue
		}
		h := hasher(f.Token)
		for b := range 64 {
			if (h>>b)&1 == 1 {
				acc[b] += f.Weight
			} else {
				acc[b] -= f.Weight
			}
		}
	}

	return fold(&acc)
}

// fold collapses the signed accumulator into a signature. Bit b is set iff
// accumulator b is strictly positive; zero resolves to 0, which is also why
// the empty feature set maps to signature 0.
func fold(acc *[64]int) uint64 {
	var sig uint64
	for b := range 64 {
		if acc[b] > 0 {
			sig |= 1 << uint(b)
		}
	}
	return sig
}

// Distance returns the Hamming distance between two signatures: the number
// of differing bits, in [0, 64]. It is symmetric and satisfies the triangle
// inequality.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}
