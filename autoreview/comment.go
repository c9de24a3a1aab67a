package autoreview

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// maxCommentLength keeps synthesized comments within the wiki's edit
// summary limit.
const maxCommentLength = 500

// SynthesizeApproval collapses a page's per-unit decisions into the
// highest revision id that can be approved and one consolidated comment.
//
// Approval is a prefix operation: approving a revision accepts everything
// before it, so the walk stops at the first unit that is not auto-approved
// and nothing after that point counts, whatever its own verdict. With no
// approvable prefix the returned id is 0.
func SynthesizeApproval(decisions []Decision, prefix string) (int64, string) {
	ordered := make([]Decision, len(decisions))
	copy(ordered, decisions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].RevisionID < ordered[j].RevisionID
	})

	var approved []Decision
	for _, d := range ordered {
		if d.Status != AutoApprove {
			break
		}
		approved = append(approved, d)
	}
	if len(approved) == 0 {
		return 0, withPrefix(prefix, "No revisions can be approved")
	}

	// Consecutive approvals with the same cleaned reason merge into one
	// clause; a change of reason starts a new one.
	type clause struct {
		reason string
		revIDs []int64
	}
	var clauses []clause
	for _, d := range approved {
		reason := cleanReason(d.Reason)
		if n := len(clauses); n > 0 && clauses[n-1].reason == reason {
			clauses[n-1].revIDs = append(clauses[n-1].revIDs, d.RevisionID)
			continue
		}
		clauses = append(clauses, clause{reason: reason, revIDs: []int64{d.RevisionID}})
	}

	parts := make([]string, 0, len(clauses))
	for _, cl := range clauses {
		ids := make([]string, len(cl.revIDs))
		for i, id := range cl.revIDs {
			ids[i] = strconv.FormatInt(id, 10)
		}
		parts = append(parts, fmt.Sprintf("rev_id %s approved because %s",
			strings.Join(ids, ", "), cl.reason))
	}

	comment := withPrefix(prefix, strings.Join(parts, ", "))
	return approved[len(approved)-1].RevisionID, truncateComment(comment)
}

func withPrefix(prefix, comment string) string {
	if prefix == "" {
		return comment
	}
	return prefix + " " + comment
}

// cleanReason normalizes reason wording so that trivially different
// phrasings of the same reason group into one clause. It also strips the
// trailing period a CheckResult message carries.
func cleanReason(reason string) string {
	cleaned := strings.TrimSpace(reason)
	cleaned = strings.TrimSuffix(cleaned, ".")
	if cleaned == "" {
		return "unknown reason"
	}
	replacements := [][2]string{
		{"The user is recognized as a bot", "the user is a bot"},
		{"The user belongs to auto-approved groups", "the user belongs to auto-approved groups"},
		{"The user holds autoreview rights", "the user holds autoreview rights"},
	}
	for _, r := range replacements {
		if strings.HasPrefix(cleaned, r[0]) {
			return r[1]
		}
	}
	// Reasons built from check messages start a sentence; comments read
	// better in lower case mid-clause.
	r, size := utf8.DecodeRuneInString(cleaned)
	return string(unicode.ToLower(r)) + cleaned[size:]
}

func truncateComment(comment string) string {
	if len(comment) <= maxCommentLength {
		return comment
	}
	const marker = "... (truncated)"
	cut := maxCommentLength - len(marker)
	// Back up to a rune boundary so the cut never splits a multi-byte
	// character.
	for cut > 0 && !utf8.RuneStart(comment[cut]) {
		cut--
	}
	return comment[:cut] + marker
}
