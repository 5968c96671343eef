package simgo

import (
	"errors"
	"fmt"

	"github.com/hupe1980/simgo/index"
)

var (
	// ErrNoFeatures is returned when an empty feature set is passed to an
	// operation that requires a meaningful signature.
	ErrNoFeatures = errors.New("feature set must not be empty")

	// ErrNilItem is returned when a nil item is passed to Put or BatchPut.
	ErrNilItem = errors.New("item must not be nil")

	// ErrInvalidK is returned when k is not positive.
	ErrInvalidK = errors.New("k must be positive")

	// ErrInvalidMaxDistance is returned when a negative search radius is requested.
	ErrInvalidMaxDistance = errors.New("max distance must be non-negative")

	// ErrInvalidPermutations is returned when a non-positive permutation
	// count is configured.
	ErrInvalidPermutations = errors.New("permutations must be positive")

	// ErrNotFound is returned when an entry is not found.
	ErrNotFound = errors.New("not found")
)

// ErrInvalidBands indicates a configured band count that cannot slice a
// 64-bit signature evenly.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrInvalidBands struct {
	Bands int
	cause error
}

func (e *ErrInvalidBands) Error() string {
	return fmt.Sprintf("invalid band count: %d", e.Bands)
}

func (e *ErrInvalidBands) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, index.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	// Configuration and argument normalization.
	var ib *index.ErrInvalidBands
	if errors.As(err, &ib) {
		return &ErrInvalidBands{Bands: ib.Bands, cause: err}
	}
	if errors.Is(err, index.ErrInvalidPermutations) {
		return fmt.Errorf("%w: %w", ErrInvalidPermutations, err)
	}
	if errors.Is(err, index.ErrInvalidK) {
		return fmt.Errorf("%w: %w", ErrInvalidK, err)
	}
	if errors.Is(err, index.ErrInvalidMaxDistance) {
		return fmt.Errorf("%w: %w", ErrInvalidMaxDistance, err)
	}

	return err
}
