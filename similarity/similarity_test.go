package similarity

import (
	"math"
	"testing"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical texts",
			a:    "The cat sat on the mat.",
			b:    "The cat sat on the mat.",
			want: 1.0,
		},
		{
			name: "identical short texts",
			a:    "ab",
			b:    "ab",
			want: 1.0,
		},
		{
			name: "empty a",
			a:    "",
			b:    "anything",
			want: 0.0,
		},
		{
			name: "empty b",
			a:    "anything",
			b:    "",
			want: 0.0,
		},
		{
			name: "both empty",
			a:    "",
			b:    "",
			want: 0.0,
		},
		{
			name: "no shared characters",
			a:    "aaaa",
			b:    "zzzz",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ratio(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Ratio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRatioPartialMatch(t *testing.T) {
	// The sentence survives inside a larger text.
	got := Ratio("It was happy.", "It was happy. The dog sat on the mat.")
	if got < 0.9 {
		t.Errorf("Ratio() = %v, want near 1.0 for a contained sentence", got)
	}

	// A sentence absent from the other text scores low.
	got = Ratio("Quantum entanglement research", "The dog sat on the mat.")
	if got > 0.3 {
		t.Errorf("Ratio() = %v, want low for unrelated text", got)
	}
}

func TestRatioBounds(t *testing.T) {
	pairs := [][2]string{
		{"short", "a much longer text with short inside it"},
		{"abcdefgh", "abcd efgh"},
		{"x", "x"},
	}
	for _, p := range pairs {
		got := Ratio(p[0], p[1])
		if got < 0 || got > 1 {
			t.Errorf("Ratio(%q, %q) = %v, out of [0, 1]", p[0], p[1], got)
		}
	}
}

func TestWordOverlap(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		want float64
	}{
		{
			name: "identical fragments",
			a:    "the cat sat",
			b:    "the cat sat",
			want: 1.0,
		},
		{
			name: "case insensitive",
			a:    "The Cat",
			b:    "the cat",
			want: 1.0,
		},
		{
			name: "one of three unique words shared",
			a:    "alpha beta",
			b:    "alpha gamma",
			want: 1.0 / 3.0,
		},
		{
			name: "nothing shared",
			a:    "alpha beta",
			b:    "gamma delta",
			want: 0.0,
		},
		{
			name: "empty fragment",
			a:    "",
			b:    "alpha",
			want: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WordOverlap(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("WordOverlap(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
