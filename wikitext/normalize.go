// Package wikitext holds pure functions over raw wiki markup: normalization
// for similarity comparison, addition extraction between two revisions, and
// reference/ISBN helpers. Nothing here performs I/O.
package wikitext

import (
	"regexp"
	"strings"
)

var (
	refPairRe    = regexp.MustCompile(`(?is)<ref[^>]*>.*?</ref>`)
	refSelfRe    = regexp.MustCompile(`(?i)<ref[^>]*/>`)
	templateRe   = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	commentRe    = regexp.MustCompile(`(?s)<!--.*?-->`)
	categoryRe   = regexp.MustCompile(`(?i)\[\[Category:[^\]]+\]\]`)
	fileRe       = regexp.MustCompile(`(?is)\[\[(?:File|Image):[^\]]+\]\]`)
	pipedLinkRe  = regexp.MustCompile(`\[\[[^\]|]+\|([^\]]+)\]\]`)
	plainLinkRe  = regexp.MustCompile(`\[\[([^\]]+)\]\]`)
	boldItalicRe = regexp.MustCompile(`'{2,}`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// Normalize strips markup that carries no meaning for similarity
// comparison: references and their contents, template invocations, HTML
// comments, category and file links, link targets (keeping display text),
// bold/italic markers. Whitespace collapses to single spaces.
//
// Normalize is idempotent: Normalize(Normalize(t)) == Normalize(t).
func Normalize(text string) string {
	if text == "" {
		return ""
	}
	text = refPairRe.ReplaceAllString(text, "")
	text = refSelfRe.ReplaceAllString(text, "")
	// Each pass unwraps one level of template nesting; repeat until the
	// text stops changing so arbitrarily deep nesting strips completely.
	for {
		stripped := templateRe.ReplaceAllString(text, "")
		if stripped == text {
			break
		}
		text = stripped
	}
	text = commentRe.ReplaceAllString(text, "")
	text = categoryRe.ReplaceAllString(text, "")
	text = fileRe.ReplaceAllString(text, "")
	text = pipedLinkRe.ReplaceAllString(text, "$1")
	text = plainLinkRe.ReplaceAllString(text, "$1")
	text = boldItalicRe.ReplaceAllString(text, "")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}
