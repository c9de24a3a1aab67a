package wikitext

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	referenceRe = regexp.MustCompile(`(?is)<ref(?:\s+[^>]*)?>.*?</ref>|<ref(?:\s+[^>]*)?/>`)
	urlRe       = regexp.MustCompile(`(?i)https?://[^\s\]<>"'|{}]+`)
)

// ExtractReferences returns every <ref> tag in the text, including
// self-closing ones, in document order.
func ExtractReferences(text string) []string {
	if text == "" {
		return nil
	}
	return referenceRe.FindAllString(text, -1)
}

// StripReferences removes every <ref> tag and its contents.
func StripReferences(text string) string {
	if text == "" {
		return ""
	}
	return referenceRe.ReplaceAllString(text, "")
}

// IsReferenceOnlyEdit reports whether the edit from parent to pending only
// adds or changes reference material, leaving the prose untouched. Edits
// that remove every reference, or that touch no references at all, do not
// qualify.
func IsReferenceOnlyEdit(parent, pending string) bool {
	if pending == "" {
		return false
	}

	parentProse := whitespaceRe.ReplaceAllString(StripReferences(parent), " ")
	pendingProse := whitespaceRe.ReplaceAllString(StripReferences(pending), " ")
	if strings.TrimSpace(parentProse) != strings.TrimSpace(pendingProse) {
		return false
	}

	parentRefs := ExtractReferences(parent)
	pendingRefs := ExtractReferences(pending)
	if len(pendingRefs) == 0 {
		return false
	}
	if len(parentRefs) == len(pendingRefs) {
		same := true
		for i := range parentRefs {
			if parentRefs[i] != pendingRefs[i] {
				same = false
				break
			}
		}
		if same {
			return false
		}
	}
	return true
}

// ExtractURLs returns every URL found inside the given reference tags,
// with trailing punctuation trimmed.
func ExtractURLs(references []string) []string {
	var urls []string
	for _, ref := range references {
		for _, match := range urlRe.FindAllString(ref, -1) {
			urls = append(urls, strings.TrimRight(match, ".,;:!?}"))
		}
	}
	return urls
}

// DomainOf extracts the bare domain from a URL: no protocol, port, path,
// or leading "www.". Returns "" for unparseable input.
func DomainOf(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	domain := strings.ToLower(parsed.Hostname())
	return strings.TrimPrefix(domain, "www.")
}
