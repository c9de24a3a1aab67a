package wikitext

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	refOpenRe   = regexp.MustCompile(`(?i)<ref\b`)
	refCloseRe  = regexp.MustCompile(`(?i)</ref>`)
	refBareRe   = regexp.MustCompile(`(?i)\bref>`)
	divOpenRe   = regexp.MustCompile(`(?i)<div\b`)
	divCloseRe  = regexp.MustCompile(`(?i)</div>`)
	divBareRe   = regexp.MustCompile(`(?i)\bdiv>`)
	spanOpenRe  = regexp.MustCompile(`(?i)<span\b`)
	spanCloseRe = regexp.MustCompile(`(?i)</span>`)
	spanBareRe  = regexp.MustCompile(`(?i)\bspan>`)

	// Articles that use math markup legitimately contain "==" and
	// backslashes, so those indicators are skipped for them.
	mathHintRe = regexp.MustCompile(`(?i)class="[^"]*math[^"]*"|<math|\\|\$`)
)

// mediaKeywords maps a wiki language to the localized File/Image/Category
// prefixes whose half-broken link syntax ("[File:" instead of "[[File:")
// shows up as plain text.
var mediaKeywords = map[string][]string{
	"en": {"File", "Image", "Category"},
	"de": {"Datei", "Bild", "Kategorie"},
	"fr": {"Fichier", "Image", "Catégorie"},
	"es": {"Archivo", "Imagen", "Categoría"},
	"it": {"File", "Immagine", "Categoria"},
	"pt": {"Ficheiro", "Imagem", "Categoria"},
	"pl": {"Plik", "Grafika", "Kategoria"},
	"ru": {"Файл", "Изображение", "Категория"},
	"fi": {"Tiedosto", "Kuva", "Luokka"},
}

// BrokenMarkup counts wiki-markup indicators that leaked into rendered
// HTML as visible text: template braces, link brackets, unrendered
// ref/div/span tags, half-broken media links, and stray section markers.
// Callers compare the counts against the parent revision's to flag only
// newly introduced breakage.
func BrokenMarkup(html, lang string) map[string]int {
	if html == "" {
		return nil
	}
	counts := map[string]int{
		"{{":     strings.Count(html, "{{"),
		"}}":     strings.Count(html, "}}"),
		"[[":     strings.Count(html, "[["),
		"]]":     strings.Count(html, "]]"),
		"<ref":   len(refOpenRe.FindAllStringIndex(html, -1)),
		"</ref":  len(refCloseRe.FindAllStringIndex(html, -1)),
		"ref>":   len(refBareRe.FindAllStringIndex(html, -1)),
		"<div":   len(divOpenRe.FindAllStringIndex(html, -1)),
		"</div":  len(divCloseRe.FindAllStringIndex(html, -1)),
		"div>":   len(divBareRe.FindAllStringIndex(html, -1)),
		"<span":  len(spanOpenRe.FindAllStringIndex(html, -1)),
		"</span": len(spanCloseRe.FindAllStringIndex(html, -1)),
		"span>":  len(spanBareRe.FindAllStringIndex(html, -1)),
	}

	keywords, ok := mediaKeywords[lang]
	if !ok {
		keywords = mediaKeywords["en"]
	}
	for _, keyword := range keywords {
		pattern := regexp.MustCompile(`(?i)` + regexp.QuoteMeta("["+keyword+":"))
		counts["["+keyword+":"] = len(pattern.FindAllStringIndex(html, -1))
	}

	if !mathHintRe.MatchString(html) {
		counts["=="] = strings.Count(html, "==")
	}
	return counts
}

// NewBrokenMarkup returns the indicators whose count grew from parent to
// current, with the growth as the value. An empty parent treats every
// indicator in current as new. The result is nil when nothing got worse.
func NewBrokenMarkup(current, parent map[string]int) map[string]int {
	var grown map[string]int
	for key, count := range current {
		if delta := count - parent[key]; delta > 0 {
			if grown == nil {
				grown = make(map[string]int)
			}
			grown[key] = delta
		}
	}
	return grown
}

// FormatIndicatorCounts renders an indicator map as a stable
// comma-separated list for check messages.
func FormatIndicatorCounts(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, fmt.Sprintf("%s: %d", key, counts[key]))
	}
	return strings.Join(parts, ", ")
}
