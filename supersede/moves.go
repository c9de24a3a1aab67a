package supersede

import (
	"strings"

	"github.com/wikimedia-suomi/pendingbot/similarity"
	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// FilterMoves drops additions that are relocations of text deleted nearby
// in the same diff, rather than new content. An addition is anchored to the
// added diff line that carries it; deletions within the configured window
// of that line are candidate origins, and a word overlap above the move
// similarity threshold classifies the addition as moved.
//
// Move filtering runs before significance filtering so that small moved
// fragments are never misread as small additions.
func FilterMoves(additions []string, diff *wiki.Diff, cfg wiki.Configuration) []string {
	if diff == nil || len(diff.Lines) == 0 {
		return additions
	}

	kept := additions[:0:0]
	for _, addition := range additions {
		if isLikelyMove(addition, diff.Lines, cfg) {
			continue
		}
		kept = append(kept, addition)
	}
	return kept
}

func isLikelyMove(addition string, lines []wiki.DiffLine, cfg wiki.Configuration) bool {
	anchor := anchorLine(addition, lines, cfg.TextMatchThreshold)
	if anchor < 0 {
		return false
	}
	for i, line := range lines {
		if line.Type != wiki.DiffDeleted {
			continue
		}
		if abs(i-anchor) > cfg.MoveProximityWindow {
			continue
		}
		if similarity.WordOverlap(addition, line.Text) > cfg.MoveWordSimilarity {
			return true
		}
	}
	return false
}

// anchorLine finds the added diff line carrying the fragment: a direct
// substring relationship, or a word overlap at or above the match
// threshold.
func anchorLine(addition string, lines []wiki.DiffLine, matchThreshold float64) int {
	trimmed := strings.TrimSpace(addition)
	if trimmed == "" {
		return -1
	}
	for i, line := range lines {
		if line.Type != wiki.DiffAdded {
			continue
		}
		lineText := strings.TrimSpace(line.Text)
		if lineText == "" {
			continue
		}
		if strings.Contains(lineText, trimmed) || strings.Contains(trimmed, lineText) {
			return i
		}
		if similarity.WordOverlap(addition, line.Text) >= matchThreshold {
			return i
		}
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
