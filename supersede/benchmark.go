package supersede

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Discrepancy records one input on which the two strategies disagreed.
// Each carries a review URL so a human can audit the case.
type Discrepancy struct {
	RevisionID      int64  `json:"revision_id"`
	PageTitle       string `json:"page_title"`
	WikiID          string `json:"wiki"`
	Primary         string `json:"primary_verdict"`
	Secondary       string `json:"secondary_verdict"`
	PrimaryReason   string `json:"primary_reason"`
	SecondaryReason string `json:"secondary_reason"`
	ReviewURL       string `json:"review_url"`
}

// Report summarizes a side-by-side strategy comparison. Disagreement is
// expected, not a bug: the discrepancy list is the primary output.
type Report struct {
	Total             int           `json:"total"`
	Compared          int           `json:"compared"` // inputs where both strategies reached a verdict
	Agreements        int           `json:"agreements"`
	BothSuperseded    int           `json:"both_superseded"`
	BothNotSuperseded int           `json:"both_not_superseded"`
	PrimaryOnly       int           `json:"primary_only_superseded"`
	SecondaryOnly     int           `json:"secondary_only_superseded"`
	Inconclusive      int           `json:"inconclusive"`
	Discrepancies     []Discrepancy `json:"discrepancies"`
}

// AgreementRate is agreements over compared inputs, 0 when nothing was
// comparable.
func (r Report) AgreementRate() float64 {
	if r.Compared == 0 {
		return 0
	}
	return float64(r.Agreements) / float64(r.Compared)
}

// Comparison runs two strategies over the same inputs and reports how
// often they agree.
type Comparison struct {
	Primary   Strategy
	Secondary Strategy

	// Concurrency bounds how many inputs are evaluated at once; <= 0
	// means sequential. Output ordering is deterministic regardless.
	Concurrency int

	// Progress, when set, is called after each input completes.
	Progress func(done, total int)
}

type comparisonOutcome struct {
	in        Input
	primary   Result
	secondary Result
}

// Run evaluates every input with both strategies. Inputs are processed in
// ascending pending-revision order and the report is identical across runs
// over the same inputs. Cancelling the context stops new evaluations;
// in-flight ones finish on their own.
func (c *Comparison) Run(ctx context.Context, inputs []Input) Report {
	ordered := make([]Input, len(inputs))
	copy(ordered, inputs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PendingID < ordered[j].PendingID
	})

	outcomes := make([]*comparisonOutcome, len(ordered))

	limit := c.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	var mu sync.Mutex
	done := 0
	for i, in := range ordered {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			outcome := &comparisonOutcome{
				in:        in,
				primary:   c.Primary.Evaluate(gctx, in),
				secondary: c.Secondary.Evaluate(gctx, in),
			}
			mu.Lock()
			outcomes[i] = outcome
			done++
			progress := done
			mu.Unlock()
			if c.Progress != nil {
				c.Progress(progress, len(ordered))
			}
			return nil
		})
	}
	_ = g.Wait()

	return c.summarize(outcomes)
}

func (c *Comparison) summarize(outcomes []*comparisonOutcome) Report {
	report := Report{}
	for _, o := range outcomes {
		if o == nil {
			continue // cancelled before evaluation
		}
		report.Total++
		if o.primary.Verdict == VerdictInconclusive || o.secondary.Verdict == VerdictInconclusive {
			report.Inconclusive++
			continue
		}
		report.Compared++

		p, s := o.primary.Verdict.Superseded(), o.secondary.Verdict.Superseded()
		switch {
		case p && s:
			report.Agreements++
			report.BothSuperseded++
		case !p && !s:
			report.Agreements++
			report.BothNotSuperseded++
		default:
			if p {
				report.PrimaryOnly++
			} else {
				report.SecondaryOnly++
			}
			report.Discrepancies = append(report.Discrepancies, Discrepancy{
				RevisionID:      o.in.PendingID,
				PageTitle:       o.in.PageTitle,
				WikiID:          o.in.WikiID,
				Primary:         o.primary.Verdict.String(),
				Secondary:       o.secondary.Verdict.String(),
				PrimaryReason:   o.primary.Reason,
				SecondaryReason: o.secondary.Reason,
				ReviewURL:       o.in.ReviewURL(),
			})
		}
	}
	return report
}
