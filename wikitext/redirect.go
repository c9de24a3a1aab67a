package wikitext

import (
	"regexp"
	"strings"
)

// IsRedirect reports whether the wikitext starts with a redirect directive
// using one of the given magic-word aliases, such as "#REDIRECT" or the
// Finnish "#OHJAUS". Aliases may carry their leading "#"; matching is case
// insensitive and requires a link target.
func IsRedirect(text string, aliases []string) bool {
	if text == "" || len(aliases) == 0 {
		return false
	}
	var words []string
	for _, alias := range aliases {
		alias = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(alias), "#"))
		if alias != "" {
			words = append(words, regexp.QuoteMeta(alias))
		}
	}
	if len(words) == 0 {
		return false
	}
	re := regexp.MustCompile(`(?i)^#[ \t]*(` + strings.Join(words, "|") + `)[ \t]*\[\[[^\]\n\r]+\]\]`)
	return re.MatchString(text)
}
