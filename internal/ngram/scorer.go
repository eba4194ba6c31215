// Package ngram computes TF-IDF weights for n-grams across a record corpus.
package ngram

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DefaultLimit is the number of top-weighted n-grams reported by default.
const DefaultLimit = 10

// ScoredGram is an n-gram with its aggregate TF-IDF weight.
type ScoredGram struct {
	Gram   string  `json:"gram"`
	Weight float64 `json:"weight"`
}

// Score computes the aggregate TF-IDF weight of every n-gram in the record
// corpus and returns the limit highest-weighted ones, descending by weight.
//
// Each record is one document. Tokens are maximal non-whitespace runs, case
// preserved; grams are contiguous token sequences of exactly n tokens,
// rejoined with single spaces. Per-gram IDF is ln(D/df)+1 with no smoothing,
// where df counts documents containing the gram at least once. Aggregate
// weight is the sum of per-document tf*idf over all documents.
//
// Equal weights are ordered lexicographically by gram text so that runs are
// reproducible. An empty corpus, or an n exceeding every document's token
// count, yields an empty result.
func Score(records []string, n, limit int) ([]ScoredGram, error) {
	if n < 1 {
		return nil, fmt.Errorf("gram size must be positive, got %d", n)
	}
	if limit < 0 {
		return nil, fmt.Errorf("result limit cannot be negative, got %d", limit)
	}

	docCount := len(records)

	// totalCount accumulates raw occurrences across all documents;
	// docFreq counts documents containing each gram at least once.
	totalCount := make(map[string]int)
	docFreq := make(map[string]int)

	for _, record := range records {
		tokens := strings.Fields(record)
		if len(tokens) < n {
			continue
		}

		seen := make(map[string]struct{})
		for i := 0; i+n <= len(tokens); i++ {
			gram := strings.Join(tokens[i:i+n], " ")
			totalCount[gram]++
			if _, ok := seen[gram]; !ok {
				seen[gram] = struct{}{}
				docFreq[gram]++
			}
		}
	}

	// Aggregate weight folds the per-document sum: sum_d tf(g,d)*idf(g)
	// equals idf(g) times the corpus-wide occurrence count.
	scored := make([]ScoredGram, 0, len(totalCount))
	for gram, count := range totalCount {
		idf := math.Log(float64(docCount)/float64(docFreq[gram])) + 1
		scored = append(scored, ScoredGram{
			Gram:   gram,
			Weight: float64(count) * idf,
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Weight != scored[j].Weight {
			return scored[i].Weight > scored[j].Weight
		}
		return scored[i].Gram < scored[j].Gram
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
