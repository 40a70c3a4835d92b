// Package conflict detects pairwise hazards between tasks that the dependency
// graph does not already serialize. A conflict between two tasks means they
// must not run in the same batch; it never reorders or removes tasks.
package conflict

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gobwas/glob"

	"github.com/Iron-Ham/parplan/internal/graph"
	"github.com/Iron-Ham/parplan/internal/similarity"
	"github.com/Iron-Ham/parplan/internal/task"
)

// Type classifies what kind of hazard a conflict describes.
type Type string

const (
	// TypeFile marks two tasks declaring overlapping file paths.
	TypeFile Type = "file"
	// TypeResource marks two tasks holding the same exclusive resource tag.
	TypeResource Type = "resource"
	// TypeDependency marks two unordered tasks whose descriptions each claim
	// to follow something in the other's ancestry.
	TypeDependency Type = "dependency"
	// TypeOrdering marks a textual follow signal too weak to become an edge
	// but strong enough to distrust parallel execution.
	TypeOrdering Type = "ordering"
	// TypeSemantic marks two tasks describing overlapping work.
	TypeSemantic Type = "semantic"
)

// Severity grades how firmly a conflict should keep two tasks apart.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Conflict reports one hazard between a pair of tasks. TaskA is always the
// lexicographically smaller id.
type Conflict struct {
	Type      Type     `json:"type"`
	TaskA     string   `json:"task_a"`
	TaskB     string   `json:"task_b"`
	Severity  Severity `json:"severity"`
	Rationale string   `json:"rationale"`
}

// Config holds the detector's tunable thresholds.
type Config struct {
	// SemanticThreshold is the minimum token overlap for a semantic conflict.
	SemanticThreshold float64

	// DuplicateThreshold caps semantic conflicts: pairs at or above it are
	// duplicates, reported elsewhere, not conflicts.
	DuplicateThreshold float64

	// ImplicitThreshold is the confidence at which an ordering hint became a
	// graph edge. Hints at or above it are already serialized.
	ImplicitThreshold float64

	// OrderingHintFloor is the minimum confidence for an ordering hint to be
	// reported as a conflict at all.
	OrderingHintFloor float64

	// AppendOnlyPatterns are glob patterns (with '/' as separator) for paths
	// that tolerate concurrent edits, such as changelogs and log files.
	// File conflicts confined to append-only paths are downgraded to medium.
	AppendOnlyPatterns []string
}

// DefaultConfig returns the detector configuration used when the caller
// specifies nothing.
func DefaultConfig() Config {
	return Config{
		SemanticThreshold:  0.5,
		DuplicateThreshold: 0.8,
		ImplicitThreshold:  0.6,
		OrderingHintFloor:  0.3,
		AppendOnlyPatterns: []string{"**.log", "**CHANGELOG*", "**changelog*"},
	}
}

// Detector runs the pairwise conflict rules over a task set.
type Detector struct {
	cfg        Config
	appendOnly []glob.Glob
}

// NewDetector compiles the configured append-only patterns. An invalid
// pattern fails the whole construction.
func NewDetector(cfg Config) (*Detector, error) {
	compiled := make([]glob.Glob, 0, len(cfg.AppendOnlyPatterns))
	for _, pattern := range cfg.AppendOnlyPatterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compiling append-only pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	return &Detector{cfg: cfg, appendOnly: compiled}, nil
}

// Detect runs every rule over every unordered task pair. Pairs already
// ordered by the graph (a path in either direction) are exempt: the schedule
// serializes them anyway. The result is sorted by (TaskA, TaskB, Type).
//
// Tasks must be sorted by id, as the normalizer returns them. Hints are the
// full ordering-hint scan, including sub-threshold entries.
func (d *Detector) Detect(tasks []task.Task, g *graph.Graph, hints []graph.Hint) []Conflict {
	follows := hintIndex(hints, d.cfg.OrderingHintFloor)

	var conflicts []Conflict
	for i := 0; i < len(tasks); i++ {
		for j := i + 1; j < len(tasks); j++ {
			a, b := tasks[i], tasks[j]
			if g.HasPath(a.ID, b.ID) || g.HasPath(b.ID, a.ID) {
				continue
			}
			conflicts = append(conflicts, d.checkPair(a, b, g, follows)...)
		}
	}

	sort.Slice(conflicts, func(i, j int) bool {
		if conflicts[i].TaskA != conflicts[j].TaskA {
			return conflicts[i].TaskA < conflicts[j].TaskA
		}
		if conflicts[i].TaskB != conflicts[j].TaskB {
			return conflicts[i].TaskB < conflicts[j].TaskB
		}
		return conflicts[i].Type < conflicts[j].Type
	})
	return conflicts
}

// checkPair applies every rule to one unordered pair. All matching rules
// report; a pair can carry several conflicts of different types.
func (d *Detector) checkPair(a, b task.Task, g *graph.Graph, follows map[string][]graph.Hint) []Conflict {
	var out []Conflict

	if c, ok := d.fileConflict(a, b); ok {
		out = append(out, c)
	}
	if shared := intersect(a.Resources, b.Resources); len(shared) > 0 {
		out = append(out, Conflict{
			Type:      TypeResource,
			TaskA:     a.ID,
			TaskB:     b.ID,
			Severity:  SeverityHigh,
			Rationale: fmt.Sprintf("both hold exclusive resources: %s", strings.Join(shared, ", ")),
		})
	}
	if c, ok := d.dependencyConflict(a, b, g, follows); ok {
		out = append(out, c)
	}
	if c, ok := d.orderingConflict(a, b, follows); ok {
		out = append(out, c)
	}
	if c, ok := d.semanticConflict(a, b); ok {
		out = append(out, c)
	}
	return out
}

// fileConflict fires when the pair declares overlapping paths. Severity is
// high unless every shared path matches an append-only pattern.
func (d *Detector) fileConflict(a, b task.Task) (Conflict, bool) {
	shared := intersect(a.Files, b.Files)
	if len(shared) == 0 {
		return Conflict{}, false
	}

	severity := SeverityMedium
	for _, path := range shared {
		if !d.isAppendOnly(path) {
			severity = SeverityHigh
			break
		}
	}

	return Conflict{
		Type:      TypeFile,
		TaskA:     a.ID,
		TaskB:     b.ID,
		Severity:  severity,
		Rationale: fmt.Sprintf("both modify files: %s", strings.Join(shared, ", ")),
	}, true
}

// dependencyConflict fires when each task's description claims to follow a
// task the other transitively depends on (or the other task itself). The two
// claims pull the pair in opposite directions, so neither edge was created,
// yet running them together contradicts at least one of them.
func (d *Detector) dependencyConflict(a, b task.Task, g *graph.Graph, follows map[string][]graph.Hint) (Conflict, bool) {
	ha, okA := followsInto(follows[a.ID], b.ID, g)
	hb, okB := followsInto(follows[b.ID], a.ID, g)
	if !okA || !okB {
		return Conflict{}, false
	}

	return Conflict{
		Type:     TypeDependency,
		TaskA:    a.ID,
		TaskB:    b.ID,
		Severity: SeverityMedium,
		Rationale: fmt.Sprintf("%s claims to follow %s (%q) while %s claims to follow %s (%q)",
			a.ID, ha.Before, ha.Reference, b.ID, hb.Before, hb.Reference),
	}, true
}

// followsInto reports whether any hint points at target or one of target's
// ancestors, returning the strongest such hint.
func followsInto(hints []graph.Hint, target string, g *graph.Graph) (graph.Hint, bool) {
	ancestors := g.Ancestors(target)
	var best graph.Hint
	found := false
	for _, h := range hints {
		if h.Before != target && !ancestors[h.Before] {
			continue
		}
		if !found || h.Confidence > best.Confidence {
			best = h
			found = true
		}
	}
	return best, found
}

// orderingConflict fires on a follow hint between the pair whose confidence
// sits below the implicit-edge threshold: too weak to order them, too strong
// to ignore.
func (d *Detector) orderingConflict(a, b task.Task, follows map[string][]graph.Hint) (Conflict, bool) {
	for _, after := range []task.Task{a, b} {
		before := a
		if after.ID == a.ID {
			before = b
		}
		for _, h := range follows[after.ID] {
			if h.Before != before.ID || h.Confidence >= d.cfg.ImplicitThreshold {
				continue
			}
			return Conflict{
				Type:     TypeOrdering,
				TaskA:    a.ID,
				TaskB:    b.ID,
				Severity: SeverityLow,
				Rationale: fmt.Sprintf("%s mentions following %s (%q, confidence %.2f) but no dependency orders them",
					after.ID, before.ID, h.Reference, h.Confidence),
			}, true
		}
	}
	return Conflict{}, false
}

// semanticConflict fires when the descriptions overlap heavily without being
// near-duplicates: likely the same area of the codebase, worked twice.
func (d *Detector) semanticConflict(a, b task.Task) (Conflict, bool) {
	overlap := similarity.TokenOverlap(a.Tokens, b.Tokens)
	if overlap < d.cfg.SemanticThreshold {
		return Conflict{}, false
	}
	if similarity.EditSimilarity(a.Normalized, b.Normalized) >= d.cfg.DuplicateThreshold {
		return Conflict{}, false
	}
	return Conflict{
		Type:      TypeSemantic,
		TaskA:     a.ID,
		TaskB:     b.ID,
		Severity:  SeverityLow,
		Rationale: fmt.Sprintf("descriptions overlap on shared terms (%.0f%% token overlap)", overlap*100),
	}, true
}

func (d *Detector) isAppendOnly(path string) bool {
	for _, g := range d.appendOnly {
		if g.Match(path) {
			return true
		}
	}
	return false
}

// hintIndex groups hints at or above the floor by the task that carries the
// follow phrase.
func hintIndex(hints []graph.Hint, floor float64) map[string][]graph.Hint {
	byAfter := make(map[string][]graph.Hint)
	for _, h := range hints {
		if h.Confidence < floor {
			continue
		}
		byAfter[h.After] = append(byAfter[h.After], h)
	}
	return byAfter
}

// intersect returns the sorted intersection of two canonical (sorted, unique)
// string sets.
func intersect(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
