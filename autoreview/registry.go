package autoreview

import (
	"context"
	"fmt"
)

// Check is one entry of the pipeline: an identifier, a human-readable
// title, and the predicate itself. The registry is a flat ordered table so
// that priority stays explicit and testable.
type Check struct {
	ID    string
	Title string
	// Enabled marks checks that run without being named in a wiki's
	// enabled_checks list.
	Enabled bool
	Run     func(ctx context.Context, rc *Context) CheckResult
}

// Check identifiers, in registry order.
const (
	CheckReferenceOnlyEdit   = "reference-only-edit"
	CheckBrokenWikicode      = "broken-wikicode"
	CheckManualUnapproval    = "manual-unapproval"
	CheckBotUser             = "bot-user"
	CheckBlockedUser         = "blocked-user"
	CheckAutoApprovedGroup   = "auto-approved-group"
	CheckArticleToRedirect   = "article-to-redirect-conversion"
	CheckBlockingCategories  = "blocking-categories"
	CheckRenderErrors        = "new-render-errors"
	CheckRevertRisk          = "revert-risk"
	CheckInvalidISBN         = "invalid-isbn"
	CheckSupersededAdditions = "superseded-additions"
	CheckORESScores          = "ores-scores"
)

// Registry returns the full check table in priority order. Callers get a
// fresh slice; the table itself never changes at runtime.
func Registry() []Check {
	return []Check{
		{ID: CheckReferenceOnlyEdit, Title: "Reference-only edit", Run: checkReferenceOnlyEdit},
		{ID: CheckBrokenWikicode, Title: "Broken wikicode indicators", Run: checkBrokenWikicode},
		{ID: CheckManualUnapproval, Title: "Manual un-approval", Run: checkManualUnapproval},
		{ID: CheckBotUser, Title: "Bot user", Enabled: true, Run: checkBotUser},
		{ID: CheckBlockedUser, Title: "User blocked after edit", Enabled: true, Run: checkBlockedUser},
		{ID: CheckAutoApprovedGroup, Title: "Auto-approved groups", Enabled: true, Run: checkAutoApprovedGroup},
		{ID: CheckArticleToRedirect, Title: "Article-to-redirect conversion", Run: checkArticleToRedirect},
		{ID: CheckBlockingCategories, Title: "Blocking categories", Enabled: true, Run: checkBlockingCategories},
		{ID: CheckRenderErrors, Title: "New render errors", Enabled: true, Run: checkRenderErrors},
		{ID: CheckRevertRisk, Title: "Revert risk", Enabled: true, Run: checkRevertRisk},
		{ID: CheckInvalidISBN, Title: "ISBN checksum validation", Enabled: true, Run: checkInvalidISBN},
		{ID: CheckSupersededAdditions, Title: "Superseded additions", Enabled: true, Run: checkSupersededAdditions},
		{ID: CheckORESScores, Title: "ORES edit quality scores", Run: checkORESScores},
	}
}

// ChecksFor resolves the checks to run for one evaluation. An empty list
// selects every default-enabled check; naming a check enables it even when
// it is off by default. Unknown names are a configuration error.
func ChecksFor(enabled []string) ([]Check, error) {
	all := Registry()
	if len(enabled) == 0 {
		var checks []Check
		for _, c := range all {
			if c.Enabled {
				checks = append(checks, c)
			}
		}
		return checks, nil
	}

	byID := make(map[string]Check, len(all))
	for _, c := range all {
		byID[c.ID] = c
	}
	want := make(map[string]bool, len(enabled))
	for _, id := range enabled {
		if _, ok := byID[id]; !ok {
			return nil, fmt.Errorf("unknown check %q", id)
		}
		want[id] = true
	}
	// Registry order wins over the order names were listed in.
	var checks []Check
	for _, c := range all {
		if want[c.ID] {
			checks = append(checks, c)
		}
	}
	return checks, nil
}
