package graph

import (
	"regexp"
	"sort"
	"strings"

	"github.com/Iron-Ham/parplan/internal/similarity"
	"github.com/Iron-Ham/parplan/internal/task"
)

// InferredEdge reports an implicit edge with the evidence that produced it,
// so callers can audit false positives. From/To match the corresponding
// graph edge.
type InferredEdge struct {
	From       string  `json:"from"`
	To         string  `json:"to"`
	Phrase     string  `json:"phrase"`
	Reference  string  `json:"reference"`
	Confidence float64 `json:"confidence"`
}

// Hint is a textual ordering signal: the description of task After implies it
// must run after task Before, at the given confidence. Hints at or above the
// implicit-edge threshold become edges; weaker hints feed conflict detection.
type Hint struct {
	Before     string
	After      string
	Phrase     string
	Reference  string
	Confidence float64
}

// orderingPatterns capture the phrases that signal one task following
// another, with the referenced fragment as the first capture group.
var orderingPatterns = []struct {
	phrase string
	re     *regexp.Regexp
}{
	{"once ... is done", regexp.MustCompile(`(?i)\bonce\s+(.+?)\s+(?:is|are|has been|have been)\s+(?:done|complete|completed|finished)\b`)},
	{"depends on", regexp.MustCompile(`(?i)\bdepends\s+on\s+([^,.;]+)`)},
	{"after", regexp.MustCompile(`(?i)\bafter\s+([^,.;]+)`)},
	{"requires", regexp.MustCompile(`(?i)\brequires\s+([^,.;]+)`)},
	{"following", regexp.MustCompile(`(?i)\bfollowing\s+([^,.;]+)`)},
}

// ScanHints extracts ordering hints from every task description, matching the
// referenced fragment against other tasks' ids and normalized description
// prefixes. One hint is kept per ordered pair: the strongest. The result is
// sorted by (After, Before) for determinism.
func ScanHints(tasks []task.Task) []Hint {
	best := make(map[[2]string]Hint)

	for _, t := range tasks {
		for _, pattern := range orderingPatterns {
			for _, match := range pattern.re.FindAllStringSubmatch(t.Description, -1) {
				fragment := strings.TrimSpace(match[1])
				if fragment == "" {
					continue
				}
				for _, other := range tasks {
					if other.ID == t.ID {
						continue
					}
					confidence := matchReference(fragment, other)
					if confidence <= 0 {
						continue
					}
					key := [2]string{other.ID, t.ID}
					if prev, ok := best[key]; !ok || confidence > prev.Confidence {
						best[key] = Hint{
							Before:     other.ID,
							After:      t.ID,
							Phrase:     pattern.phrase,
							Reference:  fragment,
							Confidence: confidence,
						}
					}
				}
			}
		}
	}

	hints := make([]Hint, 0, len(best))
	for _, h := range best {
		hints = append(hints, h)
	}
	sort.Slice(hints, func(i, j int) bool {
		if hints[i].After != hints[j].After {
			return hints[i].After < hints[j].After
		}
		return hints[i].Before < hints[j].Before
	})
	return hints
}

// InferEdges returns the implicit dependency edges: ordering hints whose
// confidence meets the threshold.
func InferEdges(tasks []task.Task, threshold float64) []InferredEdge {
	var inferred []InferredEdge
	for _, h := range ScanHints(tasks) {
		if h.Confidence < threshold {
			continue
		}
		inferred = append(inferred, InferredEdge{
			From:       h.Before,
			To:         h.After,
			Phrase:     h.Phrase,
			Reference:  h.Reference,
			Confidence: h.Confidence,
		})
	}
	return inferred
}

// matchReference scores how strongly a referenced fragment points at a task.
// A fragment naming the task id is a certain match; otherwise the fragment's
// tokens are compared against a prefix of the task's normalized description.
func matchReference(fragment string, t task.Task) float64 {
	fragTokens := similarity.Tokens(fragment)
	for _, tok := range fragTokens {
		if strings.EqualFold(tok, t.ID) {
			return 1
		}
	}
	// Hyphenated ids like "task-1-setup" tokenize into pieces, so match them
	// against the raw fragment as well.
	if strings.ContainsAny(t.ID, "-_.") && strings.Contains(strings.ToLower(fragment), strings.ToLower(t.ID)) {
		return 1
	}

	if len(fragTokens) == 0 {
		return 0
	}

	// Ordering references cite the start of the other task's description
	// ("after the database migration"), so compare against a prefix roughly
	// the fragment's size rather than the whole text.
	prefixLen := len(fragTokens) + 2
	if prefixLen > len(t.Tokens) {
		prefixLen = len(t.Tokens)
	}
	return similarity.TokenOverlap(fragTokens, t.Tokens[:prefixLen])
}
