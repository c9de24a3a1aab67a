package supersede

import (
	"context"
	"log/slog"

	"github.com/wikimedia-suomi/pendingbot/similarity"
	"github.com/wikimedia-suomi/pendingbot/wikitext"
)

// SimilarityStrategy is the character-level strategy: it extracts the
// fragments the pending revision added over its parent, discards likely
// moves and insignificant fragments, and measures how much of each
// remaining fragment still matches the normalized stable text.
type SimilarityStrategy struct {
	texts TextSource
	diffs DiffSource // optional; enables move detection when present
}

// NewSimilarityStrategy builds the strategy. diffs may be nil, in which
// case move detection is skipped.
func NewSimilarityStrategy(texts TextSource, diffs DiffSource) *SimilarityStrategy {
	return &SimilarityStrategy{texts: texts, diffs: diffs}
}

func (s *SimilarityStrategy) Name() string { return "similarity" }

func (s *SimilarityStrategy) Evaluate(ctx context.Context, in Input) Result {
	pending, ok := s.text(ctx, in, in.PendingText, in.PendingID)
	if !ok || pending == "" {
		return inconclusive("pending revision %d has no wikitext to compare", in.PendingID)
	}

	var parent string
	if in.ParentID > 0 {
		parent, ok = s.text(ctx, in, in.ParentText, in.ParentID)
		if !ok {
			return inconclusive("parent revision %d text unavailable", in.ParentID)
		}
	}

	stable, ok := s.text(ctx, in, in.StableText, in.StableID)
	if !ok || stable == "" {
		return inconclusive("stable revision %d text unavailable", in.StableID)
	}

	additions := wikitext.ExtractAdditions(parent, pending)
	additions = s.dropMoves(ctx, in, additions)
	additions = significantOnly(additions, in.Config.SignificantAdditionLength)
	if len(additions) == 0 {
		return Result{
			Verdict: VerdictVacuous,
			Reason:  "no significant additions detected in pending revision",
		}
	}

	normalizedStable := wikitext.Normalize(stable)
	if normalizedStable == "" {
		return inconclusive("stable revision %d normalizes to nothing", in.StableID)
	}

	minRetention := 1.0
	for _, addition := range additions {
		ratio := similarity.Ratio(wikitext.Normalize(addition), normalizedStable)
		if ratio < minRetention {
			minRetention = ratio
		}
	}

	if minRetention < in.Config.SupersededThreshold {
		return Result{
			Verdict:   VerdictSuperseded,
			Reason:    "additions no longer present in the stable text",
			Retention: minRetention,
			Additions: len(additions),
		}
	}
	return Result{
		Verdict:   VerdictNotSuperseded,
		Reason:    "additions still present in the stable text",
		Retention: minRetention,
		Additions: len(additions),
	}
}

// text returns the given text, fetching it when empty. The second return
// is false when the text was needed but could not be fetched.
func (s *SimilarityStrategy) text(ctx context.Context, in Input, have string, revID int64) (string, bool) {
	if have != "" {
		return have, true
	}
	if s.texts == nil || revID == 0 {
		return "", false
	}
	text, err := s.texts.RevisionText(ctx, in.WikiID, revID)
	if err != nil {
		slog.Warn("revision text fetch failed", "wiki", in.WikiID, "revid", revID, "error", err)
		return "", false
	}
	return text, true
}

// dropMoves removes additions that the parent-to-pending diff shows to be
// relocated text. Diff unavailability is not fatal: the additions pass
// through unfiltered.
func (s *SimilarityStrategy) dropMoves(ctx context.Context, in Input, additions []string) []string {
	if s.diffs == nil || len(additions) == 0 || in.ParentID == 0 {
		return additions
	}
	diff, err := s.diffs.CompareRevisions(ctx, in.WikiID, in.ParentID, in.PendingID)
	if err != nil {
		slog.Warn("diff fetch for move detection failed",
			"wiki", in.WikiID, "from", in.ParentID, "to", in.PendingID, "error", err)
		return additions
	}
	return FilterMoves(additions, diff, in.Config)
}

func significantOnly(additions []string, minLength int) []string {
	var significant []string
	for _, a := range additions {
		if len([]rune(wikitext.Normalize(a))) > minLength {
			significant = append(significant, a)
		}
	}
	return significant
}
