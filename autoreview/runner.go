package autoreview

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/wikimedia-suomi/pendingbot/wiki"
)

// Evaluate runs the given checks over one unit in order. The first
// definitive verdict decides; later checks never run. With no definitive
// verdict the edit stays up for human review.
func Evaluate(ctx context.Context, rc *Context, checks []Check) Decision {
	decision := Decision{RevisionID: rc.Revision.ID}
	for _, check := range checks {
		result := check.Run(ctx, rc)
		decision.Results = append(decision.Results, result)
		if !result.Status.Definitive() {
			continue
		}
		decision.Reason = result.Message
		if result.Status == CheckApprove {
			decision.Status = AutoApprove
		} else {
			decision.Status = Reject
		}
		return decision
	}
	decision.Status = NeedsReview
	decision.Reason = "No check reached a definitive verdict."
	return decision
}

// BatchOptions controls EvaluateBatch.
type BatchOptions struct {
	// UseBlocks groups consecutive same-editor revisions and judges each
	// block as one cumulative contribution.
	UseBlocks bool
	// Checks overrides the wiki configuration's enabled check set.
	Checks []string
	// Concurrency bounds how many units are evaluated at once; <= 0 means
	// sequential. Checks within one unit always run sequentially.
	Concurrency int
	Logger      *slog.Logger
}

// EvaluateBatch runs the pipeline over every pending revision of a page,
// in ascending order. Units share nothing but the client, so they can be
// evaluated concurrently; a unit's external failures degrade its own
// checks and never abort its siblings. Decisions come back in unit order.
func EvaluateBatch(ctx context.Context, client Client, page *wiki.Page, cfg wiki.Configuration, opts BatchOptions) ([]Decision, error) {
	enabled := cfg.EnabledChecks
	if len(opts.Checks) > 0 {
		enabled = opts.Checks
	}
	checks, err := ChecksFor(enabled)
	if err != nil {
		return nil, fmt.Errorf("resolve checks: %w", err)
	}

	page.SortPending()

	type unit struct {
		revision *wiki.Revision
		block    *wiki.EditBlock
	}
	var units []unit
	if opts.UseBlocks {
		for _, block := range wiki.GroupConsecutive(page.Pending) {
			units = append(units, unit{revision: block.Last(), block: block})
		}
	} else {
		for _, rev := range page.Pending {
			units = append(units, unit{revision: rev})
		}
	}

	decisions := make([]Decision, len(units))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, u := range units {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			rc := &Context{
				Client:   client,
				Page:     page,
				Revision: u.revision,
				Block:    u.block,
				Config:   cfg,
				Logger:   opts.Logger,
			}
			decisions[i] = Evaluate(gctx, rc, checks)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return decisions, nil
}
