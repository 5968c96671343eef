package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hupe1980/simgo"
)

func main() {
	ctx := context.Background()

	docs := []string{
		"the quick brown fox jumps over the lazy dog near the river bank",
		"a fast payment service for small online shops with daily settlement",
		"the quick brown fox jumps over the lazy dog near the river bend",
		"breaking news severe storms expected across the northern coast tonight",
		"a fast payment service for small online shops with weekly settlement",
		"recipe for sourdough bread with a long cold overnight fermentation",
		"breaking news severe storms expected across the southern coast tonight",
		"completely unrelated text about compiler design and register allocation",
	}

	db, err := simgo.Banded[int, string]().
		Bands(8).
		Permutations(2).
		Build()
	if err != nil {
		log.Fatal(err)
	}

	extractor := simgo.ShingleExtractor{Size: 2, Lowercase: true}

	items := make([]*simgo.Item[int, string], 0, len(docs))
	for i, doc := range docs {
		items = append(items, &simgo.Item[int, string]{
			Key:      i,
			Value:    doc,
			Features: extractor.Features(doc),
		})
	}

	fmt.Println("--- Insert ---")
	fmt.Println("Documents:", len(items))

	start := time.Now()

	result := db.BatchPut(ctx, items)
	for i, err := range result.Errors {
		if err != nil {
			log.Fatalf("document %d: %v", i, err)
		}
	}

	fmt.Println("Elapsed:", time.Since(start))

	fmt.Println("--- Near duplicates (radius 12) ---")

	start = time.Now()

	for i, doc := range docs {
		neighbors, err := db.Search(extractor.Features(doc)).
			Self(i).
			Radius(12).
			Execute(ctx)
		if err != nil {
			log.Fatal(err)
		}

		for _, nb := range neighbors {
			if nb.Key > i {
				fmt.Printf("#%d ~ #%d (distance %d)\n   %q\n   %q\n", i, nb.Key, nb.Distance, doc, nb.Value)
			}
		}
	}

	fmt.Println("Elapsed:", time.Since(start))

	stats := db.Stats()

	fmt.Println("--- Stats ---")
	fmt.Println("Entries:", stats.Count)
	fmt.Println("Tables:", stats.Tables)
	fmt.Println("Buckets:", stats.Buckets)
	fmt.Println("Max bucket:", stats.MaxBucketLen)
}
