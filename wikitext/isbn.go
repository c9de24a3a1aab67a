package wikitext

import (
	"regexp"
	"strings"
)

// isbnRe matches "ISBN" markers followed by a candidate number: digits with
// optional hyphen separators, ending in a digit or the ISBN-10 "X" check
// character. Space separators are not accepted so that a year following the
// number is never swallowed into it.
var isbnRe = regexp.MustCompile(`(?i)\bisbn\s*[=:]?\s*([0-9](?:-?[0-9Xx]){8,16})`)

// ValidateISBN10 checks the ISBN-10 checksum. The input must already be
// stripped of separators.
func ValidateISBN10(isbn string) bool {
	if len(isbn) != 10 {
		return false
	}
	total := 0
	for i := 0; i < 9; i++ {
		if isbn[i] < '0' || isbn[i] > '9' {
			return false
		}
		total += int(isbn[i]-'0') * (10 - i)
	}
	var check int
	switch {
	case isbn[9] == 'X' || isbn[9] == 'x':
		check = 10
	case isbn[9] >= '0' && isbn[9] <= '9':
		check = int(isbn[9] - '0')
	default:
		return false
	}
	return total%11 == (11-check)%11
}

// ValidateISBN13 checks the ISBN-13 checksum. The input must already be
// stripped of separators.
func ValidateISBN13(isbn string) bool {
	if len(isbn) != 13 {
		return false
	}
	if !strings.HasPrefix(isbn, "978") && !strings.HasPrefix(isbn, "979") {
		return false
	}
	total := 0
	for i := 0; i < 12; i++ {
		if isbn[i] < '0' || isbn[i] > '9' {
			return false
		}
		digit := int(isbn[i] - '0')
		if i%2 == 1 {
			digit *= 3
		}
		total += digit
	}
	if isbn[12] < '0' || isbn[12] > '9' {
		return false
	}
	return int(isbn[12]-'0') == (10-total%10)%10
}

var isbnSeparatorRe = regexp.MustCompile(`[-\s]`)

// FindInvalidISBNs scans text for ISBN markers and returns the raw form of
// every candidate whose checksum fails, or whose length is neither 10 nor
// 13 after separators are removed.
func FindInvalidISBNs(text string) []string {
	var invalid []string
	for _, match := range isbnRe.FindAllStringSubmatch(text, -1) {
		raw := match[1]
		clean := isbnSeparatorRe.ReplaceAllString(raw, "")
		if clean == "" {
			continue
		}
		valid := (len(clean) == 10 && ValidateISBN10(clean)) ||
			(len(clean) == 13 && ValidateISBN13(clean))
		if !valid {
			invalid = append(invalid, strings.TrimSpace(raw))
		}
	}
	return invalid
}
