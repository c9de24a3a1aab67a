package autoreview

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"

	"github.com/wikimedia-suomi/pendingbot/supersede"
	"github.com/wikimedia-suomi/pendingbot/wiki"
	"github.com/wikimedia-suomi/pendingbot/wikitext"
)

func checkBotUser(ctx context.Context, rc *Context) CheckResult {
	bot := rc.Revision.Bot
	if p := rc.Profile(ctx); p != nil && (p.Bot || p.FormerBot) {
		bot = true
	}
	if bot {
		return CheckResult{
			ID:      CheckBotUser,
			Title:   "Bot user",
			Status:  CheckApprove,
			Message: "The user is recognized as a bot.",
		}
	}
	return CheckResult{
		ID:      CheckBotUser,
		Title:   "Bot user",
		Status:  CheckInconclusive,
		Message: "The user is not marked as a bot.",
	}
}

// checkBlockedUser rejects edits whose author was blocked after making
// them. A failed lookup is inconclusive: an unreachable block log must not
// reject an edit on its own.
func checkBlockedUser(ctx context.Context, rc *Context) CheckResult {
	since := rc.Revision.Created
	if rc.Block != nil {
		since = rc.Block.First().Created
	}
	blocked, err := rc.Client.BlockedAfter(ctx, rc.Page.Wiki, rc.Editor(), since)
	if err != nil {
		rc.log().Warn("block log lookup failed",
			"wiki", rc.Page.Wiki, "user", rc.Editor(), "error", err)
		return CheckResult{
			ID:      CheckBlockedUser,
			Title:   "User blocked after edit",
			Status:  CheckInconclusive,
			Message: "Could not verify the user's block status.",
		}
	}
	if blocked {
		return CheckResult{
			ID:      CheckBlockedUser,
			Title:   "User blocked after edit",
			Status:  CheckReject,
			Message: "The user was blocked after making this edit.",
		}
	}
	return CheckResult{
		ID:      CheckBlockedUser,
		Title:   "User blocked after edit",
		Status:  CheckInconclusive,
		Message: "The user has not been blocked since making this edit.",
	}
}

func checkAutoApprovedGroup(ctx context.Context, rc *Context) CheckResult {
	profile := rc.Profile(ctx)

	if len(rc.Config.AutoApprovedGroups) > 0 {
		var groups []string
		if profile != nil {
			groups = profile.Groups
		}
		matched := matchFolded(groups, rc.Config.AutoApprovedGroups)
		if len(matched) > 0 {
			return CheckResult{
				ID:     CheckAutoApprovedGroup,
				Title:  "Auto-approved groups",
				Status: CheckApprove,
				Message: fmt.Sprintf("The user belongs to auto-approved groups: %s.",
					strings.Join(matched, ", ")),
			}
		}
		return CheckResult{
			ID:      CheckAutoApprovedGroup,
			Title:   "Auto-approved groups",
			Status:  CheckInconclusive,
			Message: "The user does not belong to auto-approved groups.",
		}
	}

	if profile != nil && profile.AutoReview {
		return CheckResult{
			ID:      CheckAutoApprovedGroup,
			Title:   "Auto-approved groups",
			Status:  CheckApprove,
			Message: "The user holds autoreview rights.",
		}
	}
	return CheckResult{
		ID:      CheckAutoApprovedGroup,
		Title:   "Auto-approved groups",
		Status:  CheckInconclusive,
		Message: "The user has no default auto-approval rights.",
	}
}

func checkBlockingCategories(_ context.Context, rc *Context) CheckResult {
	hits := matchFolded(rc.Page.Categories, rc.Config.BlockingCategories)
	if len(hits) > 0 {
		return CheckResult{
			ID:     CheckBlockingCategories,
			Title:  "Blocking categories",
			Status: CheckReject,
			Message: fmt.Sprintf("The page belongs to blocking categories: %s.",
				strings.Join(hits, ", ")),
		}
	}
	return CheckResult{
		ID:      CheckBlockingCategories,
		Title:   "Blocking categories",
		Status:  CheckInconclusive,
		Message: "The page is not in any blocking category.",
	}
}

// matchFolded returns the allowed entries that appear in values under case
// folding, sorted, using the allowed list's spelling.
func matchFolded(values, allowed []string) []string {
	if len(values) == 0 || len(allowed) == 0 {
		return nil
	}
	fold := cases.Fold()
	lookup := make(map[string]string, len(allowed))
	for _, a := range allowed {
		lookup[fold.String(a)] = a
	}
	seen := make(map[string]bool)
	var matched []string
	for _, v := range values {
		if name, ok := lookup[fold.String(v)]; ok && !seen[name] {
			seen[name] = true
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched
}

// checkRenderErrors compares the count of class="error" elements in the
// rendered revision against its parent. First revisions have no baseline
// and pass through.
func checkRenderErrors(ctx context.Context, rc *Context) CheckResult {
	parentID := rc.ParentID()
	if parentID == 0 {
		return CheckResult{
			ID:      CheckRenderErrors,
			Title:   "New render errors",
			Status:  CheckSkip,
			Message: "First revision of the page; no baseline to compare against.",
		}
	}

	current, err := rc.Client.RenderErrorCount(ctx, rc.Page.Wiki, rc.Revision.ID)
	if err == nil {
		var previous int
		previous, err = rc.Client.RenderErrorCount(ctx, rc.Page.Wiki, parentID)
		if err == nil {
			if current > previous {
				return CheckResult{
					ID:     CheckRenderErrors,
					Title:  "New render errors",
					Status: CheckReject,
					Message: fmt.Sprintf("The edit introduces new rendering errors (%d, up from %d).",
						current, previous),
					Evidence: float64(current - previous),
				}
			}
			return CheckResult{
				ID:      CheckRenderErrors,
				Title:   "New render errors",
				Status:  CheckInconclusive,
				Message: "The edit does not introduce new rendering errors.",
			}
		}
	}
	rc.log().Warn("rendered html unavailable",
		"wiki", rc.Page.Wiki, "revision", rc.Revision.ID, "error", err)
	return CheckResult{
		ID:      CheckRenderErrors,
		Title:   "New render errors",
		Status:  CheckInconclusive,
		Message: "Could not fetch rendered HTML for comparison.",
	}
}

// checkRevertRisk consults the configured ML models in deterministic name
// order. Any score above its threshold rejects; an unreachable scoring
// service is inconclusive.
func checkRevertRisk(ctx context.Context, rc *Context) CheckResult {
	if len(rc.Config.MLThresholds) == 0 {
		return CheckResult{
			ID:      CheckRevertRisk,
			Title:   "Revert risk",
			Status:  CheckSkip,
			Message: "No ML models configured for this wiki.",
		}
	}

	models := make([]string, 0, len(rc.Config.MLThresholds))
	for model := range rc.Config.MLThresholds {
		models = append(models, model)
	}
	sort.Strings(models)

	var passed []string
	for _, model := range models {
		threshold := rc.Config.MLThresholds[model]
		if threshold <= 0 {
			continue
		}
		score, err := rc.Client.MLScore(ctx, rc.Page.Wiki, rc.Revision.ID, model)
		if err != nil {
			rc.log().Warn("model score unavailable",
				"wiki", rc.Page.Wiki, "revision", rc.Revision.ID, "model", model, "error", err)
			return CheckResult{
				ID:      CheckRevertRisk,
				Title:   "Revert risk",
				Status:  CheckInconclusive,
				Message: fmt.Sprintf("Could not fetch the %s score.", model),
			}
		}
		if score > threshold {
			return CheckResult{
				ID:     CheckRevertRisk,
				Title:  "Revert risk",
				Status: CheckReject,
				Message: fmt.Sprintf("The %s score %.3f exceeds the threshold %.3f.",
					model, score, threshold),
				Evidence: score,
			}
		}
		passed = append(passed, fmt.Sprintf("%s %.3f", model, score))
	}

	if len(passed) == 0 {
		return CheckResult{
			ID:      CheckRevertRisk,
			Title:   "Revert risk",
			Status:  CheckSkip,
			Message: "All configured ML models are disabled.",
		}
	}
	return CheckResult{
		ID:      CheckRevertRisk,
		Title:   "Revert risk",
		Status:  CheckInconclusive,
		Message: fmt.Sprintf("Scores within thresholds: %s.", strings.Join(passed, ", ")),
	}
}

func checkInvalidISBN(ctx context.Context, rc *Context) CheckResult {
	text, err := rc.Wikitext(ctx)
	if err != nil {
		rc.log().Warn("wikitext unavailable",
			"wiki", rc.Page.Wiki, "revision", rc.Revision.ID, "error", err)
		return CheckResult{
			ID:      CheckInvalidISBN,
			Title:   "ISBN checksum validation",
			Status:  CheckInconclusive,
			Message: "Could not fetch the revision's wikitext.",
		}
	}
	invalid := wikitext.FindInvalidISBNs(text)
	if len(invalid) > 0 {
		return CheckResult{
			ID:     CheckInvalidISBN,
			Title:  "ISBN checksum validation",
			Status: CheckReject,
			Message: fmt.Sprintf("The edit contains invalid ISBN(s): %s.",
				strings.Join(invalid, ", ")),
		}
	}
	return CheckResult{
		ID:      CheckInvalidISBN,
		Title:   "ISBN checksum validation",
		Status:  CheckInconclusive,
		Message: "No invalid ISBNs detected.",
	}
}

// checkSupersededAdditions approves an edit whose distinguishing additions
// no longer survive in the stable text. Surviving additions are not a
// verdict on their own; the edit just stays up for review.
func checkSupersededAdditions(ctx context.Context, rc *Context) CheckResult {
	var in supersede.Input
	if rc.Block != nil {
		in = supersede.InputForBlock(rc.Page, rc.Block, rc.Config)
	} else {
		in = supersede.InputForRevision(rc.Page, rc.Revision, rc.Config)
	}

	var strategy supersede.Strategy
	if rc.Config.Strategy == wiki.StrategyWordLevel {
		strategy = supersede.NewWordLevelStrategy(rc.Client)
	} else {
		strategy = supersede.NewSimilarityStrategy(rc.Client, rc.Client)
	}

	result := strategy.Evaluate(ctx, in)
	if result.Verdict.Superseded() {
		return CheckResult{
			ID:       CheckSupersededAdditions,
			Title:    "Superseded additions",
			Status:   CheckApprove,
			Message:  result.Reason,
			Evidence: result.Retention,
		}
	}
	return CheckResult{
		ID:       CheckSupersededAdditions,
		Title:    "Superseded additions",
		Status:   CheckInconclusive,
		Message:  result.Reason,
		Evidence: result.Retention,
	}
}

// checkBrokenWikicode rejects edits whose rendered HTML shows wiki markup
// as visible text that the parent revision did not. Off by default.
func checkBrokenWikicode(ctx context.Context, rc *Context) CheckResult {
	current, err := rc.Client.RenderedHTML(ctx, rc.Page.Wiki, rc.Revision.ID)
	if err != nil {
		rc.log().Warn("rendered html unavailable",
			"wiki", rc.Page.Wiki, "revision", rc.Revision.ID, "error", err)
		return CheckResult{
			ID:      CheckBrokenWikicode,
			Title:   "Broken wikicode indicators",
			Status:  CheckInconclusive,
			Message: "Could not fetch rendered HTML for analysis.",
		}
	}
	currentCounts := wikitext.BrokenMarkup(current, rc.Page.Wiki)

	var parentCounts map[string]int
	if parentID := rc.ParentID(); parentID != 0 {
		parent, err := rc.Client.RenderedHTML(ctx, rc.Page.Wiki, parentID)
		if err != nil {
			rc.log().Warn("parent rendered html unavailable",
				"wiki", rc.Page.Wiki, "revision", parentID, "error", err)
			return CheckResult{
				ID:      CheckBrokenWikicode,
				Title:   "Broken wikicode indicators",
				Status:  CheckInconclusive,
				Message: "Could not fetch the parent revision's rendered HTML.",
			}
		}
		parentCounts = wikitext.BrokenMarkup(parent, rc.Page.Wiki)
	}

	if grown := wikitext.NewBrokenMarkup(currentCounts, parentCounts); len(grown) > 0 {
		return CheckResult{
			ID:     CheckBrokenWikicode,
			Title:  "Broken wikicode indicators",
			Status: CheckReject,
			Message: fmt.Sprintf("The edit introduces broken wikicode (%s).",
				wikitext.FormatIndicatorCounts(grown)),
		}
	}
	return CheckResult{
		ID:      CheckBrokenWikicode,
		Title:   "Broken wikicode indicators",
		Status:  CheckInconclusive,
		Message: "No broken wikicode indicators detected.",
	}
}

// checkManualUnapproval keeps the bot from re-approving a revision a human
// reviewer has explicitly un-approved. Off by default.
func checkManualUnapproval(ctx context.Context, rc *Context) CheckResult {
	unapproved, err := rc.Client.ManuallyUnapproved(ctx, rc.Page.Wiki, rc.Page.Title, rc.Revision.ID)
	if err != nil {
		rc.log().Warn("review log lookup failed",
			"wiki", rc.Page.Wiki, "page", rc.Page.Title, "error", err)
		return CheckResult{
			ID:      CheckManualUnapproval,
			Title:   "Manual un-approval",
			Status:  CheckInconclusive,
			Message: "Could not read the page's review log.",
		}
	}
	if unapproved {
		return CheckResult{
			ID:      CheckManualUnapproval,
			Title:   "Manual un-approval",
			Status:  CheckReject,
			Message: "This revision was manually un-approved by a human reviewer.",
		}
	}
	return CheckResult{
		ID:      CheckManualUnapproval,
		Title:   "Manual un-approval",
		Status:  CheckInconclusive,
		Message: "This revision has not been manually un-approved.",
	}
}

// checkArticleToRedirect rejects edits that turn an article into a
// redirect, a conversion reserved for editors with autoreview rights. Off
// by default.
func checkArticleToRedirect(ctx context.Context, rc *Context) CheckResult {
	text, err := rc.Wikitext(ctx)
	if err != nil {
		rc.log().Warn("wikitext unavailable",
			"wiki", rc.Page.Wiki, "revision", rc.Revision.ID, "error", err)
		return CheckResult{
			ID:      CheckArticleToRedirect,
			Title:   "Article-to-redirect conversion",
			Status:  CheckInconclusive,
			Message: "Could not fetch the revision's wikitext.",
		}
	}
	if !wikitext.IsRedirect(text, rc.Config.RedirectAliases) {
		return CheckResult{
			ID:      CheckArticleToRedirect,
			Title:   "Article-to-redirect conversion",
			Status:  CheckInconclusive,
			Message: "The edit does not turn the page into a redirect.",
		}
	}
	parentID := rc.ParentID()
	if parentID == 0 {
		return CheckResult{
			ID:      CheckArticleToRedirect,
			Title:   "Article-to-redirect conversion",
			Status:  CheckSkip,
			Message: "The page started out as a redirect.",
		}
	}
	parent, err := rc.Client.RevisionText(ctx, rc.Page.Wiki, parentID)
	if err != nil {
		rc.log().Warn("parent wikitext unavailable",
			"wiki", rc.Page.Wiki, "revision", parentID, "error", err)
		return CheckResult{
			ID:      CheckArticleToRedirect,
			Title:   "Article-to-redirect conversion",
			Status:  CheckInconclusive,
			Message: "Could not fetch the parent revision's wikitext.",
		}
	}
	if wikitext.IsRedirect(parent, rc.Config.RedirectAliases) {
		return CheckResult{
			ID:      CheckArticleToRedirect,
			Title:   "Article-to-redirect conversion",
			Status:  CheckInconclusive,
			Message: "The page was already a redirect.",
		}
	}
	return CheckResult{
		ID:      CheckArticleToRedirect,
		Title:   "Article-to-redirect conversion",
		Status:  CheckReject,
		Message: "Converting an article to a redirect requires autoreview rights.",
	}
}

// checkORESScores consults the ORES damaging and goodfaith models. A high
// damaging probability or a low goodfaith probability rejects; an
// unreachable scoring service is inconclusive. Off by default.
func checkORESScores(ctx context.Context, rc *Context) CheckResult {
	damaging := rc.Config.ORESDamagingThreshold
	goodfaith := rc.Config.ORESGoodfaithThreshold
	if damaging <= 0 && goodfaith <= 0 {
		return CheckResult{
			ID:      CheckORESScores,
			Title:   "ORES edit quality scores",
			Status:  CheckSkip,
			Message: "ORES scoring is disabled for this wiki.",
		}
	}

	var models []string
	if damaging > 0 {
		models = append(models, "damaging")
	}
	if goodfaith > 0 {
		models = append(models, "goodfaith")
	}
	scores, err := rc.Client.ORESScores(ctx, rc.Page.Wiki, rc.Revision.ID, models)
	if err != nil {
		rc.log().Warn("ores scores unavailable",
			"wiki", rc.Page.Wiki, "revision", rc.Revision.ID, "error", err)
		return CheckResult{
			ID:      CheckORESScores,
			Title:   "ORES edit quality scores",
			Status:  CheckInconclusive,
			Message: "Could not fetch ORES scores.",
		}
	}

	if score, ok := scores["damaging"]; ok && damaging > 0 && score > damaging {
		return CheckResult{
			ID:     CheckORESScores,
			Title:  "ORES edit quality scores",
			Status: CheckReject,
			Message: fmt.Sprintf("The ORES damaging score %.3f exceeds the threshold %.3f.",
				score, damaging),
			Evidence: score,
		}
	}
	if score, ok := scores["goodfaith"]; ok && goodfaith > 0 && score < goodfaith {
		return CheckResult{
			ID:     CheckORESScores,
			Title:  "ORES edit quality scores",
			Status: CheckReject,
			Message: fmt.Sprintf("The ORES goodfaith score %.3f is below the threshold %.3f.",
				score, goodfaith),
			Evidence: score,
		}
	}

	var parts []string
	for _, model := range models {
		if score, ok := scores[model]; ok {
			parts = append(parts, fmt.Sprintf("%s %.3f", model, score))
		}
	}
	return CheckResult{
		ID:      CheckORESScores,
		Title:   "ORES edit quality scores",
		Status:  CheckInconclusive,
		Message: fmt.Sprintf("ORES scores within thresholds: %s.", strings.Join(parts, ", ")),
	}
}

// checkReferenceOnlyEdit approves edits that only add or change reference
// material, unless the new references point at domains the wiki has never
// cited before. Off by default.
func checkReferenceOnlyEdit(ctx context.Context, rc *Context) CheckResult {
	skip := func(msg string) CheckResult {
		return CheckResult{
			ID:      CheckReferenceOnlyEdit,
			Title:   "Reference-only edit",
			Status:  CheckSkip,
			Message: msg,
		}
	}

	parentID := rc.ParentID()
	if parentID == 0 {
		return skip("First revision of the page cannot be reference-only.")
	}
	pending, err := rc.Wikitext(ctx)
	if err != nil {
		return skip("Could not fetch the revision's wikitext.")
	}
	parent, err := rc.Client.RevisionText(ctx, rc.Page.Wiki, parentID)
	if err != nil {
		return skip("Could not fetch the parent revision's wikitext.")
	}
	if !wikitext.IsReferenceOnlyEdit(parent, pending) {
		return skip("The edit modifies content beyond references.")
	}

	parentRefs := make(map[string]bool)
	for _, ref := range wikitext.ExtractReferences(parent) {
		parentRefs[ref] = true
	}
	var newRefs []string
	for _, ref := range wikitext.ExtractReferences(pending) {
		if !parentRefs[ref] {
			newRefs = append(newRefs, ref)
		}
	}
	if len(newRefs) == 0 {
		return skip("No new or modified references detected.")
	}

	urls := wikitext.ExtractURLs(newRefs)
	if len(urls) == 0 {
		return CheckResult{
			ID:     CheckReferenceOnlyEdit,
			Title:  "Reference-only edit",
			Status: CheckApprove,
			Message: fmt.Sprintf("The edit only modifies references (%d, no external URLs).",
				len(newRefs)),
		}
	}

	var unknown []string
	seen := make(map[string]bool)
	for _, u := range urls {
		domain := wikitext.DomainOf(u)
		if domain == "" || seen[domain] {
			continue
		}
		seen[domain] = true
		used, err := rc.Client.DomainUsed(ctx, rc.Page.Wiki, domain)
		if err != nil {
			rc.log().Warn("domain usage lookup failed",
				"wiki", rc.Page.Wiki, "domain", domain, "error", err)
			return CheckResult{
				ID:      CheckReferenceOnlyEdit,
				Title:   "Reference-only edit",
				Status:  CheckInconclusive,
				Message: fmt.Sprintf("Could not verify whether %s has been cited before.", domain),
			}
		}
		if !used {
			unknown = append(unknown, domain)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return CheckResult{
			ID:     CheckReferenceOnlyEdit,
			Title:  "Reference-only edit",
			Status: CheckInconclusive,
			Message: fmt.Sprintf("The edit cites previously unused domain(s): %s.",
				strings.Join(unknown, ", ")),
		}
	}
	return CheckResult{
		ID:     CheckReferenceOnlyEdit,
		Title:  "Reference-only edit",
		Status: CheckApprove,
		Message: fmt.Sprintf("The edit only modifies references (%d, all domains known).",
			len(newRefs)),
	}
}
