// Package autoreview runs the decision pipeline for pending edits. An
// ordered registry of independent checks inspects one revision (or one
// edit block) at a time; the first check to reach a definitive verdict
// decides, and external failures degrade to inconclusive so that a missing
// auxiliary signal never blocks a legitimate edit.
package autoreview

import (
	"context"
	"log/slog"
	"time"

	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// CheckStatus is the three-valued outcome of a single check, plus an
// explicit skip for checks that do not apply at all.
type CheckStatus int

const (
	// CheckInconclusive means the check could not reach a verdict; the
	// pipeline moves on to the next check.
	CheckInconclusive CheckStatus = iota
	// CheckApprove is a definitive approval; the pipeline stops.
	CheckApprove
	// CheckReject is a definitive rejection; the pipeline stops.
	CheckReject
	// CheckSkip means the check does not apply to this revision.
	CheckSkip
)

func (s CheckStatus) String() string {
	switch s {
	case CheckApprove:
		return "approve"
	case CheckReject:
		return "reject"
	case CheckSkip:
		return "skip"
	default:
		return "inconclusive"
	}
}

// Definitive reports whether the status terminates the pipeline.
func (s CheckStatus) Definitive() bool {
	return s == CheckApprove || s == CheckReject
}

// CheckResult is the immutable outcome of one check applied to one
// revision or block.
type CheckResult struct {
	ID      string
	Title   string
	Status  CheckStatus
	Message string
	// Evidence carries the numeric signal behind the verdict when one
	// exists, such as a model score or a retention ratio.
	Evidence float64
}

// DecisionStatus is the pipeline's resolved outcome for one unit.
type DecisionStatus int

const (
	// NeedsReview means no check reached a definitive verdict; a human
	// has to look at the edit.
	NeedsReview DecisionStatus = iota
	// AutoApprove means the edit can be approved without a human.
	AutoApprove
	// Reject means the edit must not be auto-approved.
	Reject
)

func (s DecisionStatus) String() string {
	switch s {
	case AutoApprove:
		return "auto-approve"
	case Reject:
		return "reject"
	default:
		return "needs-review"
	}
}

// Decision is the pipeline's final output for one revision or block. It
// always carries every CheckResult produced on the way, so a reviewer can
// see why even an inconclusive run ended where it did.
type Decision struct {
	RevisionID int64 // last revision id of the unit
	Status     DecisionStatus
	Reason     string
	Results    []CheckResult
}

// Client is the external collaborator every check draws on. Implementations
// must be safe for concurrent use; all lookups honor the context deadline.
type Client interface {
	RevisionText(ctx context.Context, wikiID string, revID int64) (string, error)
	CompareRevisions(ctx context.Context, wikiID string, fromID, toID int64) (*wiki.Diff, error)
	AddedWords(ctx context.Context, wikiID string, fromID, toID int64) ([]string, error)
	RenderedHTML(ctx context.Context, wikiID string, revID int64) (string, error)
	RenderErrorCount(ctx context.Context, wikiID string, revID int64) (int, error)
	MLScore(ctx context.Context, wikiID string, revID int64, model string) (float64, error)
	ORESScores(ctx context.Context, wikiID string, revID int64, models []string) (map[string]float64, error)
	ManuallyUnapproved(ctx context.Context, wikiID, pageTitle string, revID int64) (bool, error)
	EditorProfile(ctx context.Context, wikiID, username string) (*wiki.EditorProfile, error)
	BlockedAfter(ctx context.Context, wikiID, username string, since time.Time) (bool, error)
	DomainUsed(ctx context.Context, wikiID, domain string) (bool, error)
}

// Context carries everything a check may consume for one unit under
// review. Checks read from it; they never mutate shared state.
type Context struct {
	Client Client
	Page   *wiki.Page
	// Revision is the pending revision under review. In block mode it is
	// the block's last revision.
	Revision *wiki.Revision
	// Block is non-nil when a whole edit block is judged as one unit.
	Block  *wiki.EditBlock
	Config wiki.Configuration
	Logger *slog.Logger

	profile       *wiki.EditorProfile
	profileLoaded bool
}

// ParentID is the base revision the unit diffs against: the revision's own
// parent, or the block's first parent in block mode.
func (c *Context) ParentID() int64 {
	if c.Block != nil {
		return c.Block.FirstParentID()
	}
	return c.Revision.ParentID
}

// Editor returns the username behind the unit.
func (c *Context) Editor() string {
	return c.Revision.User
}

// Profile returns the editor's profile, fetching it once on first use.
// A failed lookup returns nil; callers treat an absent profile as
// "nothing known about this editor".
func (c *Context) Profile(ctx context.Context) *wiki.EditorProfile {
	if c.profileLoaded {
		return c.profile
	}
	c.profileLoaded = true
	if c.Client == nil || c.Editor() == "" {
		return nil
	}
	profile, err := c.Client.EditorProfile(ctx, c.Page.Wiki, c.Editor())
	if err != nil {
		c.log().Warn("editor profile lookup failed",
			"wiki", c.Page.Wiki, "user", c.Editor(), "error", err)
		return nil
	}
	c.profile = profile
	return c.profile
}

// Wikitext returns the unit's pending wikitext, fetching it when the
// revision was handed over without content.
func (c *Context) Wikitext(ctx context.Context) (string, error) {
	if c.Revision.Wikitext != "" {
		return c.Revision.Wikitext, nil
	}
	if c.Client == nil {
		return "", wiki.ErrNoWikitext
	}
	return c.Client.RevisionText(ctx, c.Page.Wiki, c.Revision.ID)
}

func (c *Context) log() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}
