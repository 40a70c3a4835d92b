package similarity

import (
	"math"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"lowercases", "Refactor Unit Tests", "refactor unit tests"},
		{"strips punctuation", "rework: the parser, (again)!", "rework parser again"},
		{"collapses whitespace", "migrate   the \t docs", "migrate docs"},
		{"drops stopwords", "add a test for the login flow", "test login"},
		{"drops imperative filler", "Write unit tests for login", "unit tests login"},
		{"empty", "", ""},
		{"only stopwords", "the a an of", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.input); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"same", "same", 0},
		{"flaw", "lawn", 2},
	}

	for _, tt := range tests {
		if got := Levenshtein(tt.a, tt.b); got != tt.want {
			t.Errorf("Levenshtein(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEditSimilarity_Symmetric(t *testing.T) {
	pairs := [][2]string{
		{"write unit tests login", "create unit tests login flow"},
		{"kitten", "sitting"},
		{"", "something"},
		{"identical", "identical"},
	}

	for _, p := range pairs {
		ab := EditSimilarity(p[0], p[1])
		ba := EditSimilarity(p[1], p[0])
		if ab != ba {
			t.Errorf("EditSimilarity not symmetric for %q/%q: %f vs %f", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 1 {
			t.Errorf("EditSimilarity(%q, %q) = %f outside [0,1]", p[0], p[1], ab)
		}
	}
}

func TestEditSimilarity_Identical(t *testing.T) {
	if got := EditSimilarity("same text", "same text"); got != 1 {
		t.Errorf("Expected similarity 1 for identical strings, got %f", got)
	}
	if got := EditSimilarity("", ""); got != 1 {
		t.Errorf("Expected similarity 1 for two empty strings, got %f", got)
	}
}

func TestTokenOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b []string
		want float64
	}{
		{"identical", []string{"x", "y"}, []string{"x", "y"}, 1},
		{"disjoint", []string{"x"}, []string{"y"}, 0},
		{"half", []string{"x", "y"}, []string{"y", "z"}, 1.0 / 3.0},
		{"one empty", []string{"x"}, nil, 0},
		{"both empty", nil, nil, 1},
		{"duplicated tokens collapse", []string{"x", "x", "y"}, []string{"x", "y"}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenOverlap(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("TokenOverlap = %f, want %f", got, tt.want)
			}
			if back := TokenOverlap(tt.b, tt.a); back != got {
				t.Errorf("TokenOverlap not symmetric: %f vs %f", got, back)
			}
		})
	}
}
