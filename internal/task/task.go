// Package task defines the task record consumed by the analyzer and the
// ingress validation that turns caller input into canonical, immutable tasks.
//
// Validation fails closed: any structural problem (missing id or description,
// duplicated ids) aborts the whole call. No partial task set is ever returned.
package task

import (
	"sort"
	"strings"

	"github.com/Iron-Ham/parplan/internal/errors"
	"github.com/Iron-Ham/parplan/internal/similarity"
)

// DefaultEffort is the estimated effort assigned to tasks that don't state one.
const DefaultEffort = 1.0

// Raw is a task record as supplied by the caller, before validation.
type Raw struct {
	// ID uniquely identifies this task. Required.
	ID string `json:"id" yaml:"id"`

	// Description is the free-text description of the work. Required.
	Description string `json:"description" yaml:"description"`

	// DependsOn lists ids of tasks that must complete before this one.
	DependsOn []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`

	// Effort is the estimated effort for this task. Zero takes DefaultEffort;
	// negative values are rejected at normalization.
	Effort float64 `json:"estimated_effort,omitempty" yaml:"estimated_effort,omitempty"`

	// Files lists paths this task is expected to touch.
	Files []string `json:"files,omitempty" yaml:"files,omitempty"`

	// Resources lists opaque exclusive-resource labels this task holds.
	Resources []string `json:"resource_tags,omitempty" yaml:"resource_tags,omitempty"`
}

// Task is a validated, canonicalized task record. Tasks are values: created
// once per analysis call and never mutated afterwards.
type Task struct {
	ID          string   `json:"id"`
	Description string   `json:"description"`
	DependsOn   []string `json:"depends_on"`
	Effort      float64  `json:"estimated_effort"`
	Files       []string `json:"files"`
	Resources   []string `json:"resource_tags"`

	// Normalized is the canonical form of Description used for all text
	// comparisons. Computed once at ingress.
	Normalized string `json:"-"`

	// Tokens is the normalized token list of Description.
	Tokens []string `json:"-"`
}

// Normalize validates and canonicalizes raw task records. It trims text,
// applies defaults, sorts the set fields, and orders the result by id so that
// the same task set yields the same analysis regardless of input order.
//
// Errors name the offending record by its index in the caller's input.
func Normalize(raws []Raw) ([]Task, error) {
	tasks := make([]Task, 0, len(raws))
	seen := make(map[string]bool, len(raws))

	for i, raw := range raws {
		id := strings.TrimSpace(raw.ID)
		if id == "" {
			return nil, errors.NewInvalidTaskError(i, "id", "must not be empty")
		}

		desc := strings.TrimSpace(raw.Description)
		if desc == "" {
			return nil, errors.NewInvalidTaskError(i, "description", "must not be empty")
		}

		if seen[id] {
			return nil, errors.NewDuplicateIDError(id)
		}
		seen[id] = true

		if raw.Effort < 0 {
			return nil, errors.NewInvalidTaskError(i, "estimated_effort", "must not be negative")
		}
		effort := raw.Effort
		if effort == 0 {
			effort = DefaultEffort
		}

		tasks = append(tasks, Task{
			ID:          id,
			Description: desc,
			DependsOn:   canonicalSet(raw.DependsOn),
			Effort:      effort,
			Files:       canonicalSet(raw.Files),
			Resources:   canonicalSet(raw.Resources),
			Normalized:  similarity.Normalize(desc),
			Tokens:      similarity.Tokens(desc),
		})
	}

	sort.Slice(tasks, func(i, j int) bool { return tasks[i].ID < tasks[j].ID })
	return tasks, nil
}

// IDs returns the sorted ids of a task slice.
func IDs(tasks []Task) []string {
	ids := make([]string, len(tasks))
	for i, t := range tasks {
		ids[i] = t.ID
	}
	return ids
}

// ByID builds an id -> index lookup for a task slice.
func ByID(tasks []Task) map[string]int {
	m := make(map[string]int, len(tasks))
	for i, t := range tasks {
		m[t.ID] = i
	}
	return m
}

// canonicalSet trims, deduplicates, and sorts a set-valued field. Empty
// entries are dropped. The result is never nil so set fields serialize as
// [] rather than null.
func canonicalSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]bool, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
