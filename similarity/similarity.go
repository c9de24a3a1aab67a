// Package similarity provides the fuzzy text comparisons used by
// supersession analysis: a character-level matching-block ratio and a
// word-overlap measure. All functions are pure.
package similarity

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// MinBlockSize is the smallest common block that counts as a real match;
// shorter runs are treated as coincidence.
const MinBlockSize = 4

// Ratio returns the fraction of characters in a that participate in a
// common block of at least MinBlockSize characters also present in b.
// Equal inputs always score 1.0 and empty inputs always score 0.0; the
// result is well defined for any pair of strings.
func Ratio(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)

	matched := 0
	for _, d := range diffs {
		if d.Type != diffmatchpatch.DiffEqual {
			continue
		}
		if n := len([]rune(d.Text)); n >= MinBlockSize {
			matched += n
		}
	}

	total := len([]rune(a))
	if total == 0 {
		return 0
	}
	ratio := float64(matched) / float64(total)
	if ratio > 1 {
		ratio = 1
	}
	return ratio
}

// WordOverlap returns the word-level similarity of two fragments: the
// number of shared words divided by the total number of unique words, after
// lowercasing and whitespace splitting. Returns 0 when either fragment has
// no words.
func WordOverlap(a, b string) float64 {
	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0
	}

	shared := 0
	for w := range wordsA {
		if wordsB[w] {
			shared++
		}
	}
	union := len(wordsB)
	for w := range wordsA {
		if !wordsB[w] {
			union++
		}
	}
	return float64(shared) / float64(union)
}

func wordSet(s string) map[string]bool {
	words := strings.Fields(strings.ToLower(s))
	if len(words) == 0 {
		return nil
	}
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[w] = true
	}
	return set
}
