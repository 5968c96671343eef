package simgo

import (
	"strings"
)

// FeatureExtractor turns raw text into the feature set that gets
// fingerprinted. Implementations must be deterministic; signatures are
// only comparable when produced by the same extractor and hasher.
type FeatureExtractor interface {
	Features(raw string) []string
}

// FieldsExtractor splits raw text on whitespace, one feature per word.
type FieldsExtractor struct {
	// Lowercase folds the text before splitting, making features
	// case-insensitive.
	Lowercase bool
}

// Features implements the FeatureExtractor interface.
func (e FieldsExtractor) Features(raw string) []string {
	if e.Lowercase {
		raw = strings.ToLower(raw)
	}

	return strings.Fields(raw)
}

// DelimitedExtractor splits raw text on a fixed delimiter, one feature per
// non-empty column. Useful for CSV-ish records and path-like keys.
type DelimitedExtractor struct {
	Delim string
}

// Features implements the FeatureExtractor interface.
func (e DelimitedExtractor) Features(raw string) []string {
	parts := strings.Split(raw, e.Delim)

	features := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			features = append(features, p)
		}
	}

	return features
}

// ShingleExtractor emits overlapping word n-grams (shingles), the classic
// feature set for near-duplicate text detection. Texts shorter than one
// shingle fall back to single words.
type ShingleExtractor struct {
	// Size is the number of words per shingle. Values below 2 degrade to
	// whitespace splitting.
	Size int

	// Lowercase folds the text before shingling.
	Lowercase bool
}

// Features implements the FeatureExtractor interface.
func (e ShingleExtractor) Features(raw string) []string {
	if e.Lowercase {
		raw = strings.ToLower(raw)
	}

	words := strings.Fields(raw)
	if e.Size < 2 || len(words) < e.Size {
		return words
	}

	shingles := make([]string, 0, len(words)-e.Size+1)
	for i := 0; i+e.Size <= len(words); i++ {
		shingles = append(shingles, strings.Join(words[i:i+e.Size], " "))
	}

	return shingles
}
