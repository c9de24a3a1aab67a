package supersede

import (
	"context"
	"log/slog"
	"strings"
)

// WordLevelStrategy asks the wiki's own diff engine which words the pending
// revision added over its parent, and which words the stable revision
// carries over the same parent. The retention ratio is the fraction of
// added words that made it into the stable set.
type WordLevelStrategy struct {
	words WordDiffSource
}

func NewWordLevelStrategy(words WordDiffSource) *WordLevelStrategy {
	return &WordLevelStrategy{words: words}
}

func (s *WordLevelStrategy) Name() string { return "wordlevel" }

func (s *WordLevelStrategy) Evaluate(ctx context.Context, in Input) Result {
	if s.words == nil {
		return inconclusive("no word diff source configured")
	}
	if in.ParentID == 0 {
		return inconclusive("revision %d has no parent to diff against", in.PendingID)
	}
	if in.StableID == 0 {
		return inconclusive("no stable revision to compare against")
	}

	added, err := s.words.AddedWords(ctx, in.WikiID, in.ParentID, in.PendingID)
	if err != nil {
		slog.Warn("word diff fetch failed",
			"wiki", in.WikiID, "from", in.ParentID, "to", in.PendingID, "error", err)
		return inconclusive("word diff %d-%d unavailable", in.ParentID, in.PendingID)
	}
	addedSet := foldSet(added)
	if len(addedSet) == 0 {
		return Result{
			Verdict: VerdictVacuous,
			Reason:  "no words added in pending revision",
		}
	}

	stable, err := s.words.AddedWords(ctx, in.WikiID, in.ParentID, in.StableID)
	if err != nil {
		slog.Warn("word diff fetch failed",
			"wiki", in.WikiID, "from", in.ParentID, "to", in.StableID, "error", err)
		return inconclusive("word diff %d-%d unavailable", in.ParentID, in.StableID)
	}

	retained := 0
	stableSet := foldSet(stable)
	for w := range addedSet {
		if stableSet[w] {
			retained++
		}
	}
	retention := float64(retained) / float64(len(addedSet))

	if retention < in.Config.SupersededThreshold {
		return Result{
			Verdict:   VerdictSuperseded,
			Reason:    "added words absent from the stable revision",
			Retention: retention,
			Additions: len(addedSet),
		}
	}
	return Result{
		Verdict:   VerdictNotSuperseded,
		Reason:    "added words retained in the stable revision",
		Retention: retention,
		Additions: len(addedSet),
	}
}

// foldSet lowercases and deduplicates, dropping words too short to be
// meaningful matches.
func foldSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if len([]rune(w)) > 2 {
			set[w] = true
		}
	}
	return set
}
