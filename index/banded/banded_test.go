package banded

import (
	"context"
	"fmt"
	"testing"

	"github.com/hupe1980/simgo/index"
	"github.com/hupe1980/simgo/index/linear"
	"github.com/hupe1980/simgo/simhash"
	"github.com/hupe1980/simgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestBandedNew(t *testing.T) {
	t.Run("rejects band counts that do not divide 64", func(t *testing.T) {
		for _, bands := range []int{-1, 0, 3, 5, 63, 65} {
			_, err := New(func(o *Options) {
				o.Bands = bands
			})

			var target *index.ErrInvalidBands
			require.ErrorAs(t, err, &target)
			assert.Equal(t, bands, target.Bands)
		}
	})

	t.Run("accepts every divisor of 64", func(t *testing.T) {
		for _, bands := range []int{1, 2, 4, 8, 16, 32, 64} {
			b, err := New(func(o *Options) {
				o.Bands = bands
			})
			require.NoError(t, err)
			assert.Equal(t, 64/bands, b.width)
		}
	})

	t.Run("rejects non-positive permutations", func(t *testing.T) {
		_, err := New(func(o *Options) {
			o.Permutations = 0
		})
		assert.ErrorIs(t, err, index.ErrInvalidPermutations)
	})

	t.Run("defaults", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		st := b.Stats()
		assert.Equal(t, 8, st.Bands)
		assert.Equal(t, 8, st.BandWidth)
		assert.Equal(t, 1, st.Permutations)
		assert.Equal(t, 8, st.Tables)
	})
}

func TestBanded(t *testing.T) {
	ctx := context.Background()

	t.Run("Insert assigns dense IDs", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		id, err := b.Insert(ctx, 0xDEAD)
		require.NoError(t, err)
		assert.Equal(t, uint32(0), id)

		id, err = b.Insert(ctx, 0xBEEF)
		require.NoError(t, err)
		assert.Equal(t, uint32(1), id)

		assert.Equal(t, 2, b.Count())
	})

	t.Run("exact duplicates are always retrieved", func(t *testing.T) {
		rng := testutil.NewRNG(4711)

		b, err := New()
		require.NoError(t, err)

		for _, sig := range rng.Signatures(200) {
			_, err := b.Insert(ctx, sig)
			require.NoError(t, err)
		}

		q := rng.Uint64()
		dupID, err := b.Insert(ctx, q)
		require.NoError(t, err)

		got, err := b.KNNSearch(ctx, q, 1, nil)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, 0, got[0].Distance)

		in, err := b.RangeSearch(ctx, q, 0, nil)
		require.NoError(t, err)
		assert.Contains(t, in, index.SearchResult{ID: dupID, Distance: 0})
	})

	t.Run("near entries within band tolerance are retrieved in order", func(t *testing.T) {
		rng := testutil.NewRNG(4711)

		b, err := New()
		require.NoError(t, err)

		// Flipping fewer bits than there are bands leaves at least one
		// band untouched, so each entry is a guaranteed candidate.
		q := rng.Uint64()
		for n := range 8 {
			_, err := b.Insert(ctx, rng.FlipBits(q, n))
			require.NoError(t, err)
		}

		got, err := b.KNNSearch(ctx, q, 8, nil)
		require.NoError(t, err)
		require.Len(t, got, 8)

		for n, res := range got {
			assert.Equal(t, index.SearchResult{ID: uint32(n), Distance: n}, res)
		}
	})

	t.Run("filter excludes candidates", func(t *testing.T) {
		rng := testutil.NewRNG(4711)

		b, err := New()
		require.NoError(t, err)

		q := rng.Uint64()
		for n := range 4 {
			_, err := b.Insert(ctx, rng.FlipBits(q, n))
			require.NoError(t, err)
		}

		opts := &index.SearchOptions{Filter: func(id uint32) bool { return id != 0 }}

		got, err := b.KNNSearch(ctx, q, 1, opts)
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, index.SearchResult{ID: 1, Distance: 1}, got[0])

		best, ok, err := b.NearestSearch(ctx, q, opts)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, index.SearchResult{ID: 1, Distance: 1}, best)
	})

	t.Run("KNNSearch rejects non-positive k", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		_, err = b.KNNSearch(ctx, 0x00, 0, nil)
		assert.ErrorIs(t, err, index.ErrInvalidK)
	})

	t.Run("RangeSearch rejects negative distance", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		_, err = b.RangeSearch(ctx, 0x00, -1, nil)
		assert.ErrorIs(t, err, index.ErrInvalidMaxDistance)
	})

	t.Run("empty index", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		got, err := b.KNNSearch(ctx, 0x00, 5, nil)
		require.NoError(t, err)
		assert.Empty(t, got)

		_, ok, err := b.NearestSearch(ctx, 0x00, nil)
		require.NoError(t, err)
		assert.False(t, ok)

		in, err := b.RangeSearch(ctx, 0x00, 64, nil)
		require.NoError(t, err)
		assert.Empty(t, in)
	})

	t.Run("SignatureByID", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		_, _ = b.Insert(ctx, 0xCAFE)

		sig, err := b.SignatureByID(0)
		require.NoError(t, err)
		assert.Equal(t, uint64(0xCAFE), sig)

		_, err = b.SignatureByID(1)
		assert.ErrorIs(t, err, index.ErrNotFound)
	})

	t.Run("canceled context aborts operations", func(t *testing.T) {
		b, err := New()
		require.NoError(t, err)

		_, _ = b.Insert(ctx, 0x00)

		canceled, cancel := context.WithCancel(ctx)
		cancel()

		_, err = b.Insert(canceled, 0x01)
		assert.ErrorIs(t, err, context.Canceled)

		_, err = b.KNNSearch(canceled, 0x00, 1, nil)
		assert.ErrorIs(t, err, context.Canceled)

		_, _, err = b.NearestSearch(canceled, 0x00, nil)
		assert.ErrorIs(t, err, context.Canceled)

		_, err = b.RangeSearch(canceled, 0x00, 1, nil)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("Stats tracks bucket occupancy", func(t *testing.T) {
		b, err := New(func(o *Options) {
			o.Permutations = 2
		})
		require.NoError(t, err)

		assert.Equal(t, index.Stats{Bands: 8, BandWidth: 8, Permutations: 2, Tables: 16}, b.Stats())

		// Identical signatures share every bucket in every layout.
		_, _ = b.Insert(ctx, 0xFACE)
		_, _ = b.Insert(ctx, 0xFACE)

		st := b.Stats()
		assert.Equal(t, 2, st.Count)
		assert.Equal(t, 16, st.Buckets)
		assert.Equal(t, 2, st.MaxBucketLen)
	})
}

// Within a radius smaller than the band count, banding loses nothing: any
// entry that close to the query shares at least one band with it, so the
// banded index must agree with an exhaustive scan exactly.
func TestBandedMatchesExactWithinBandTolerance(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		bands int
	}{
		{name: "eight bands of eight bits", bands: 8},
		{name: "sixteen bands of four bits", bands: 16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rng := testutil.NewRNG(4711)
			tolerance := tt.bands - 1

			b, err := New(func(o *Options) {
				o.Bands = tt.bands
			})
			require.NoError(t, err)

			exact := linear.New()

			q := rng.Uint64()

			insert := func(sig uint64) {
				bandedID, err := b.Insert(ctx, sig)
				require.NoError(t, err)

				exactID, err := exact.Insert(ctx, sig)
				require.NoError(t, err)

				require.Equal(t, exactID, bandedID)
			}

			for _, sig := range rng.Signatures(300) {
				insert(sig)
			}
			for i := range 2 * tt.bands {
				insert(rng.FlipBits(q, i%tt.bands))
			}

			wantRange, err := exact.RangeSearch(ctx, q, tolerance, nil)
			require.NoError(t, err)
			require.NotEmpty(t, wantRange)

			gotRange, err := b.RangeSearch(ctx, q, tolerance, nil)
			require.NoError(t, err)
			assert.Equal(t, wantRange, gotRange)
			assert.Equal(t, 1.0, testutil.ComputeRecall(wantRange, gotRange))

			wantKNN, err := exact.KNNSearch(ctx, q, tt.bands, nil)
			require.NoError(t, err)

			gotKNN, err := b.KNNSearch(ctx, q, tt.bands, nil)
			require.NoError(t, err)
			assert.Equal(t, wantKNN, gotKNN)

			wantBest, wantOK, err := exact.NearestSearch(ctx, q, nil)
			require.NoError(t, err)
			require.True(t, wantOK)

			gotBest, gotOK, err := b.NearestSearch(ctx, q, nil)
			require.NoError(t, err)
			require.True(t, gotOK)
			assert.Equal(t, wantBest, gotBest)
			assert.Equal(t, 0, gotBest.Distance)
		})
	}
}

// The bitwise complement differs in every band of every layout, so it is
// the one entry banding can never retrieve. This is the approximation
// boundary made visible.
func TestBandedComplementNeverRetrieved(t *testing.T) {
	ctx := context.Background()

	for _, permutations := range []int{1, 3} {
		t.Run(fmt.Sprintf("permutations=%d", permutations), func(t *testing.T) {
			b, err := New(func(o *Options) {
				o.Permutations = permutations
			})
			require.NoError(t, err)

			q := uint64(0x0123456789ABCDEF)

			_, err = b.Insert(ctx, ^q)
			require.NoError(t, err)

			got, err := b.KNNSearch(ctx, q, 1, nil)
			require.NoError(t, err)
			assert.Empty(t, got)

			_, ok, err := b.NearestSearch(ctx, q, nil)
			require.NoError(t, err)
			assert.False(t, ok)

			in, err := b.RangeSearch(ctx, q, 64, nil)
			require.NoError(t, err)
			assert.Empty(t, in)
		})
	}
}

// One band of 64 bits means the whole signature is the bucket key: only
// exact duplicates collide.
func TestBandedSingleBandMatchesExactDuplicatesOnly(t *testing.T) {
	ctx := context.Background()

	b, err := New(func(o *Options) {
		o.Bands = 1
	})
	require.NoError(t, err)

	sig := uint64(0xFEEDFACECAFEBEEF)

	_, _ = b.Insert(ctx, sig)
	_, _ = b.Insert(ctx, sig^(1<<5))

	got, err := b.RangeSearch(ctx, sig, 64, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, index.SearchResult{ID: 0, Distance: 0}, got[0])
}

// Sixty-four single-bit bands retrieve every entry that agrees with the
// query in at least one bit position, which is everything except the
// complement.
func TestBandedSingleBitBands(t *testing.T) {
	ctx := context.Background()

	b, err := New(func(o *Options) {
		o.Bands = 64
	})
	require.NoError(t, err)

	q := uint64(0x00FF00FF00FF00FF)

	_, _ = b.Insert(ctx, q^1) // one shared bit short of the complement
	_, _ = b.Insert(ctx, ^q)

	got, err := b.RangeSearch(ctx, q, 64, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, index.SearchResult{ID: 0, Distance: 1}, got[0])
}

// Extra permuted layouts only add tables, so the candidate set of a
// multi-layout index always contains the candidate set of the identity
// layout alone. Recall never degrades when permutations are added.
func TestBandedPermutationsWidenCandidateSets(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)

	single, err := New()
	require.NoError(t, err)

	multi, err := New(func(o *Options) {
		o.Permutations = 4
		o.RandomSeed = 99
	})
	require.NoError(t, err)

	exact := linear.New()

	for _, sig := range rng.Signatures(400) {
		_, err := single.Insert(ctx, sig)
		require.NoError(t, err)
		_, err = multi.Insert(ctx, sig)
		require.NoError(t, err)
		_, err = exact.Insert(ctx, sig)
		require.NoError(t, err)
	}

	for range 25 {
		q := rng.Uint64()

		// Radius 64 verifies nothing away, exposing the raw candidate sets.
		fromSingle, err := single.RangeSearch(ctx, q, 64, nil)
		require.NoError(t, err)

		fromMulti, err := multi.RangeSearch(ctx, q, 64, nil)
		require.NoError(t, err)

		assert.Subset(t, fromMulti, fromSingle)

		truth, err := exact.RangeSearch(ctx, q, 64, nil)
		require.NoError(t, err)

		assert.GreaterOrEqual(t,
			testutil.ComputeRecall(truth, fromMulti),
			testutil.ComputeRecall(truth, fromSingle),
		)
	}
}

func TestBandedCrossInstanceDeterminism(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)

	newIndex := func() *Banded {
		b, err := New(func(o *Options) {
			o.Bands = 16
			o.Permutations = 3
			o.RandomSeed = 7
		})
		require.NoError(t, err)

		return b
	}

	first := newIndex()
	second := newIndex()

	for _, sig := range rng.Signatures(300) {
		_, err := first.Insert(ctx, sig)
		require.NoError(t, err)
		_, err = second.Insert(ctx, sig)
		require.NoError(t, err)
	}

	assert.Equal(t, first.Stats(), second.Stats())

	for range 10 {
		q := rng.Uint64()

		knn1, err := first.KNNSearch(ctx, q, 10, nil)
		require.NoError(t, err)
		knn2, err := second.KNNSearch(ctx, q, 10, nil)
		require.NoError(t, err)
		assert.Equal(t, knn1, knn2)

		in1, err := first.RangeSearch(ctx, q, 32, nil)
		require.NoError(t, err)
		in2, err := second.RangeSearch(ctx, q, 32, nil)
		require.NoError(t, err)
		assert.Equal(t, in1, in2)
	}
}

func TestBandedConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)

	b, err := New()
	require.NoError(t, err)

	q := rng.Uint64()

	const (
		writers   = 4
		readers   = 4
		perWriter = 200
	)

	g, gCtx := errgroup.WithContext(ctx)

	for range writers {
		g.Go(func() error {
			for i := range perWriter {
				if _, err := b.Insert(gCtx, rng.FlipBits(q, i%8)); err != nil {
					return err
				}
			}

			return nil
		})
	}

	for range readers {
		g.Go(func() error {
			for range perWriter {
				results, err := b.KNNSearch(gCtx, q, 5, nil)
				if err != nil {
					return err
				}

				// Every ID a search returns must already have a resolvable
				// signature, and its reported distance must match it.
				for _, res := range results {
					sig, err := b.SignatureByID(res.ID)
					if err != nil {
						return fmt.Errorf("result %d has no signature: %w", res.ID, err)
					}

					if d := simhash.Distance(q, sig); d != res.Distance {
						return fmt.Errorf("result %d: distance %d, want %d", res.ID, res.Distance, d)
					}
				}
			}

			return nil
		})
	}

	require.NoError(t, g.Wait())

	assert.Equal(t, writers*perWriter, b.Count())

	// All inserted signatures sit within seven bits of q, so each is a
	// guaranteed candidate once its insert has returned.
	in, err := b.RangeSearch(ctx, q, 7, nil)
	require.NoError(t, err)
	assert.Len(t, in, writers*perWriter)
}

func BenchmarkBandedKNNSearch(b *testing.B) {
	ctx := context.Background()
	rng := testutil.NewRNG(4711)

	idx, err := New()
	if err != nil {
		b.Fatal(err)
	}

	for _, sig := range rng.Signatures(10000) {
		_, _ = idx.Insert(ctx, sig)
	}

	q := rng.Uint64()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.KNNSearch(ctx, q, 10, nil)
	}
}
