// Package duplicate flags near-duplicate tasks by comparing normalized
// descriptions with normalized edit distance. Findings are advisory: the
// graph and batches still include every task.
package duplicate

import (
	"github.com/Iron-Ham/parplan/internal/similarity"
	"github.com/Iron-Ham/parplan/internal/task"
)

// DefaultThreshold is the edit similarity at which two descriptions are
// considered the same work.
const DefaultThreshold = 0.8

// Finding reports a near-duplicate pair. Similarity is symmetric; Original is
// the task whose id sorts first, so the same input always yields the same
// finding regardless of input order.
type Finding struct {
	Original   string  `json:"original_task"`
	Duplicate  string  `json:"duplicate_task"`
	Similarity float64 `json:"similarity"`
}

// Detect compares every task pair and returns findings at or above the
// threshold, ordered by (Original, Duplicate). Tasks must already be
// normalized (sorted by id).
func Detect(tasks []task.Task, threshold float64) []Finding {
	var findings []Finding
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			score := similarity.EditSimilarity(tasks[i].Normalized, tasks[j].Normalized)
			if score >= threshold {
				findings = append(findings, Finding{
					Original:   tasks[i].ID,
					Duplicate:  tasks[j].ID,
					Similarity: score,
				})
			}
		}
	}
	return findings
}
