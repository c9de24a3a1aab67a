package wikitext

import "testing"

const refA = `<ref name="hs">https://www.hs.fi/article-1</ref>`
const refB = `<ref>https://example.org/paper.pdf.</ref>`

func TestExtractReferences(t *testing.T) {
	text := "Intro. " + refA + " Middle. " + refB + ` End.<ref name="x" />`
	refs := ExtractReferences(text)
	if len(refs) != 3 {
		t.Fatalf("ExtractReferences() found %d refs, want 3", len(refs))
	}
	if refs[0] != refA {
		t.Errorf("first ref = %q, want %q", refs[0], refA)
	}
	if refs[2] != `<ref name="x" />` {
		t.Errorf("third ref = %q, want self-closing tag", refs[2])
	}
}

func TestStripReferences(t *testing.T) {
	text := "Before " + refA + " after."
	if got := StripReferences(text); got != "Before  after." {
		t.Errorf("StripReferences() = %q", got)
	}
	if got := StripReferences(""); got != "" {
		t.Errorf("StripReferences(\"\") = %q, want empty", got)
	}
}

func TestIsReferenceOnlyEdit(t *testing.T) {
	tests := []struct {
		name    string
		parent  string
		pending string
		want    bool
	}{
		{
			name:    "reference appended to unchanged prose",
			parent:  "The cat sat on the mat.",
			pending: "The cat sat on the mat." + refA,
			want:    true,
		},
		{
			name:    "reference replaced",
			parent:  "The cat sat on the mat." + refA,
			pending: "The cat sat on the mat." + refB,
			want:    true,
		},
		{
			name:    "prose changed too",
			parent:  "The cat sat on the mat.",
			pending: "The dog sat on the mat." + refA,
			want:    false,
		},
		{
			name:    "all references removed",
			parent:  "The cat sat on the mat." + refA,
			pending: "The cat sat on the mat.",
			want:    false,
		},
		{
			name:    "no references touched",
			parent:  "The cat sat on the mat.",
			pending: "The cat sat on the mat.",
			want:    false,
		},
		{
			name:    "empty pending",
			parent:  "anything",
			pending: "",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsReferenceOnlyEdit(tt.parent, tt.pending); got != tt.want {
				t.Errorf("IsReferenceOnlyEdit() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestExtractURLs(t *testing.T) {
	urls := ExtractURLs([]string{refA, refB})
	if len(urls) != 2 {
		t.Fatalf("ExtractURLs() = %v, want 2 urls", urls)
	}
	if urls[0] != "https://www.hs.fi/article-1" {
		t.Errorf("first url = %q", urls[0])
	}
	// Trailing punctuation trimmed.
	if urls[1] != "https://example.org/paper.pdf" {
		t.Errorf("second url = %q, want trailing dot removed", urls[1])
	}
}

func TestDomainOf(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{name: "www stripped", url: "https://www.hs.fi/a/b?c=d", want: "hs.fi"},
		{name: "port dropped", url: "http://example.org:8080/x", want: "example.org"},
		{name: "uppercase host folded", url: "https://Example.ORG/x", want: "example.org"},
		{name: "garbage", url: "://not a url", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DomainOf(tt.url); got != tt.want {
				t.Errorf("DomainOf(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
