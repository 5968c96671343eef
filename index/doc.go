// Package index provides fingerprint index interfaces and shared types.
//
// Simgo ships two index kinds:
//
//   - banded: approximate candidate retrieval via banded locality-sensitive
//     hashing over 64-bit SimHash signatures
//   - linear: exact exhaustive scan
//
// # Index Selection
//
// Choose based on corpus size and recall requirements:
//
//   - linear: small corpora, or whenever 100% recall is required
//   - banded: large corpora where sub-linear candidate retrieval matters
//     and probabilistic recall is acceptable
//
// Both implement the same Index interface and identical query semantics;
// they differ only in how the candidate set is produced. Every candidate is
// verified with the exact Hamming distance before it can appear in a
// result, so banded indexes can miss neighbors but never return false
// ones.
//
// # Subpackages
//
//   - banded: banded multi-table LSH index
//   - linear: exhaustive baseline index
package index
