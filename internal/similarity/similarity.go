// Package similarity provides the text comparison primitives shared by the
// duplicate detector, the conflict detector, and implicit dependency
// inference: description normalization, Levenshtein edit similarity, and
// token-overlap similarity. All scores are symmetric and lie in [0, 1].
package similarity

import (
	"strings"
	"unicode"
)

// stopwords are dropped during normalization. Beyond the usual articles and
// prepositions, the list covers the imperative filler that task descriptions
// lead with ("write X", "create X") and the filler nouns they trail with
// ("the login flow"): the identity of a task lives in its object, not its
// verb.
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true,
	"to": true, "for": true, "of": true, "in": true, "on": true,
	"and": true, "or": true,
	"is": true, "are": true, "be": true,
	"with": true, "this": true, "that": true, "it": true,
	"add": true, "create": true, "implement": true, "make": true,
	"write": true, "update": true, "fix": true, "ensure": true,
	"code": true, "feature": true, "flow": true, "functionality": true,
	"logic": true, "support": true,
}

// Normalize lowercases the text, strips punctuation, collapses whitespace,
// and drops stopwords. The result is the canonical form used for all
// description comparisons.
func Normalize(text string) string {
	return strings.Join(Tokens(text), " ")
}

// Tokens returns the normalized token list for a text: lowercased, stripped
// of punctuation, stopwords removed.
func Tokens(text string) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if !stopwords[f] {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// Levenshtein computes the edit distance between two strings using the
// two-row dynamic programming formulation. Distance is measured in runes.
func Levenshtein(a, b string) int {
	ra := []rune(a)
	rb := []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, min(curr[j-1]+1, prev[j-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// EditSimilarity returns 1 - levenshtein(a,b)/max(len(a),len(b)), the
// normalized edit similarity between two strings. Two empty strings are
// considered identical.
func EditSimilarity(a, b string) float64 {
	longest := max(len([]rune(a)), len([]rune(b)))
	if longest == 0 {
		return 1
	}
	return 1 - float64(Levenshtein(a, b))/float64(longest)
}

// TokenOverlap returns the Jaccard similarity of two token sets:
// |intersection| / |union|. Two empty sets overlap completely.
func TokenOverlap(a, b []string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	setA := make(map[string]bool, len(a))
	for _, tok := range a {
		setA[tok] = true
	}
	setB := make(map[string]bool, len(b))
	for _, tok := range b {
		setB[tok] = true
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}
