package wikitext

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// ExtractAdditions returns the text fragments present in pending that have
// no matching block in parent. Whitespace-only fragments are dropped.
// An empty parent means everything is an addition; an empty pending means
// nothing is.
func ExtractAdditions(parent, pending string) []string {
	if pending == "" {
		return nil
	}
	if parent == "" {
		return []string{pending}
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(parent, pending, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	var additions []string
	for _, d := range diffs {
		if d.Type == diffmatchpatch.DiffInsert && strings.TrimSpace(d.Text) != "" {
			additions = append(additions, d.Text)
		}
	}
	return additions
}
