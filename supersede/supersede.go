// Package supersede decides whether the text a user added in a pending
// revision still survives in the current stable version of the page. Two
// strategies implement the decision: a character-similarity comparison and
// a word-level diff comparison. Both are first-class; a benchmark harness
// runs them side by side and reports where they disagree.
package supersede

import (
	"context"
	"fmt"

	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// Verdict is the outcome of a supersession evaluation.
type Verdict int

const (
	// VerdictInconclusive means the strategy could not reach an answer,
	// usually because external data was unavailable.
	VerdictInconclusive Verdict = iota
	// VerdictNotSuperseded means the added content still survives.
	VerdictNotSuperseded
	// VerdictSuperseded means the added content is effectively gone.
	VerdictSuperseded
	// VerdictVacuous means the revision added nothing significant, so
	// there is nothing that could persist.
	VerdictVacuous
)

func (v Verdict) String() string {
	switch v {
	case VerdictNotSuperseded:
		return "not-superseded"
	case VerdictSuperseded:
		return "superseded"
	case VerdictVacuous:
		return "superseded-vacuously"
	default:
		return "inconclusive"
	}
}

// Superseded reports whether the verdict allows approving on this check
// alone: either the additions are gone, or there were none to begin with.
func (v Verdict) Superseded() bool {
	return v == VerdictSuperseded || v == VerdictVacuous
}

// Result carries a verdict together with the evidence behind it.
type Result struct {
	Verdict   Verdict
	Reason    string
	Retention float64 // minimum retention ratio across additions, when computed
	Additions int     // number of significant additions considered
}

// TextSource provides raw wikitext for a revision.
type TextSource interface {
	RevisionText(ctx context.Context, wikiID string, revID int64) (string, error)
}

// DiffSource provides a structured line diff between two revisions.
// Failures surface as errors wrapping wiki.ErrDiffUnavailable.
type DiffSource interface {
	CompareRevisions(ctx context.Context, wikiID string, fromID, toID int64) (*wiki.Diff, error)
}

// WordDiffSource provides the literal words added between two revisions,
// as reported by the wiki's own diff engine.
type WordDiffSource interface {
	AddedWords(ctx context.Context, wikiID string, fromID, toID int64) ([]string, error)
}

// Input describes one comparison unit: a revision (or a whole edit block
// collapsed to its endpoints) against the current stable text. Text fields
// may be left empty; strategies fetch what they are missing.
type Input struct {
	WikiID      string
	PageTitle   string
	ParentID    int64 // 0 when the pending revision created the page
	PendingID   int64
	StableID    int64
	ParentText  string
	PendingText string
	StableText  string
	Config      wiki.Configuration
}

// ReviewURL returns the wiki diff link a human can use to audit this unit.
func (in Input) ReviewURL() string {
	return fmt.Sprintf("https://%s.wikipedia.org/w/index.php?diff=%d&oldid=%d",
		in.WikiID, in.PendingID, in.ParentID)
}

// Strategy evaluates one input. Implementations degrade external failures
// to an inconclusive result; they never return errors.
type Strategy interface {
	Name() string
	Evaluate(ctx context.Context, in Input) Result
}

// InputForRevision builds the comparison unit for a single pending
// revision of a page.
func InputForRevision(page *wiki.Page, rev *wiki.Revision, cfg wiki.Configuration) Input {
	return Input{
		WikiID:      page.Wiki,
		PageTitle:   page.Title,
		ParentID:    rev.ParentID,
		PendingID:   rev.ID,
		StableID:    page.StableRevID,
		PendingText: rev.Wikitext,
		Config:      cfg,
	}
}

// InputForBlock builds the comparison unit for an edit block: the block's
// first parent against its last revision, judged as one cumulative
// contribution.
func InputForBlock(page *wiki.Page, block *wiki.EditBlock, cfg wiki.Configuration) Input {
	last := block.Last()
	return Input{
		WikiID:      page.Wiki,
		PageTitle:   page.Title,
		ParentID:    block.FirstParentID(),
		PendingID:   last.ID,
		StableID:    page.StableRevID,
		PendingText: last.Wikitext,
		Config:      cfg,
	}
}

func inconclusive(format string, args ...any) Result {
	return Result{Verdict: VerdictInconclusive, Reason: fmt.Sprintf(format, args...)}
}
