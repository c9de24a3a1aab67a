package wikitext

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "empty string",
			input:    "",
			expected: "",
		},
		{
			name:     "plain prose untouched",
			input:    "The cat sat on the mat.",
			expected: "The cat sat on the mat.",
		},
		{
			name:     "reference pair stripped",
			input:    `Helsinki is the capital.<ref name="a">Some source</ref>`,
			expected: "Helsinki is the capital.",
		},
		{
			name:     "self-closing reference stripped",
			input:    `Helsinki is the capital.<ref name="a" />`,
			expected: "Helsinki is the capital.",
		},
		{
			name:     "template stripped",
			input:    "Before {{cite web|url=x}} after",
			expected: "Before after",
		},
		{
			name:     "nested template stripped",
			input:    "A {{outer|{{inner}}}} B",
			expected: "A B",
		},
		{
			name:     "deeply nested template stripped",
			input:    "x {{t1|{{t2|{{t3}}}}}} y",
			expected: "x y",
		},
		{
			name:     "html comment stripped",
			input:    "keep <!-- drop\nthis --> keep",
			expected: "keep keep",
		},
		{
			name:     "category link stripped",
			input:    "Text [[Category:Cities in Finland]]",
			expected: "Text",
		},
		{
			name:     "file link stripped",
			input:    "Text [[File:Photo.jpg|thumb|A caption]]",
			expected: "Text",
		},
		{
			name:     "piped link keeps display text",
			input:    "See [[Helsinki|the capital]] today",
			expected: "See the capital today",
		},
		{
			name:     "plain link unwrapped",
			input:    "See [[Helsinki]] today",
			expected: "See Helsinki today",
		},
		{
			name:     "bold and italic markers removed",
			input:    "'''bold''' and ''italic''",
			expected: "bold and italic",
		},
		{
			name:     "whitespace collapsed",
			input:    "a  b\n\nc\td",
			expected: "a b c d",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.expected {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"The cat sat on the mat.",
		`Mixed<ref>ref</ref> {{tmpl}} [[File:x.png]] [[A|b]] '''c''' d  e`,
		"[[Category:X]] trailing",
		"x {{t1|{{t2|{{t3}}}}}} y",
	}
	for _, input := range inputs {
		once := Normalize(input)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}

func TestExtractAdditions(t *testing.T) {
	tests := []struct {
		name     string
		parent   string
		pending  string
		expected []string
	}{
		{
			name:     "identical texts yield nothing",
			parent:   "The cat sat on the mat.",
			pending:  "The cat sat on the mat.",
			expected: nil,
		},
		{
			name:     "empty pending yields nothing",
			parent:   "anything",
			pending:  "",
			expected: nil,
		},
		{
			name:     "empty parent yields whole pending",
			parent:   "",
			pending:  "Brand new article text.",
			expected: []string{"Brand new article text."},
		},
		{
			name:     "appended sentence",
			parent:   "The cat sat on the mat.",
			pending:  "The cat sat on the mat. It was happy.",
			expected: []string{" It was happy."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ExtractAdditions(tt.parent, tt.pending)
			if len(got) != len(tt.expected) {
				t.Fatalf("ExtractAdditions() = %q, want %q", got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("addition %d = %q, want %q", i, got[i], tt.expected[i])
				}
			}
		})
	}
}

func TestExtractAdditionsIgnoresWhitespaceFragments(t *testing.T) {
	additions := ExtractAdditions("a.b.", "a. b. ")
	for _, a := range additions {
		if len(a) > 0 && Normalize(a) == "" {
			t.Errorf("whitespace-only fragment %q reported as an addition", a)
		}
	}
}
