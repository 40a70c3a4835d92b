// Package analyzer runs the full parallelization pipeline over a task set:
// validation, dependency graph construction, duplicate and conflict
// detection, batch scheduling, and the speedup estimate that backs the
// parallel-or-sequential recommendation.
//
// The pipeline is pure: no I/O, no clock, no randomness. The same task set
// produces the same Analysis regardless of input order.
package analyzer

import (
	"fmt"

	"github.com/Iron-Ham/parplan/internal/batch"
	"github.com/Iron-Ham/parplan/internal/conflict"
	"github.com/Iron-Ham/parplan/internal/duplicate"
	"github.com/Iron-Ham/parplan/internal/graph"
	"github.com/Iron-Ham/parplan/internal/logging"
	"github.com/Iron-Ham/parplan/internal/task"
)

// Default thresholds. Zero-valued Options fields take these.
const (
	DefaultImplicitThreshold  = 0.6
	DefaultDuplicateThreshold = 0.8
	DefaultSemanticThreshold  = 0.5
	DefaultOrderingHintFloor  = 0.3
	DefaultSpeedupThreshold   = 1.3
)

// epsilon guards the speedup division against a zero critical path.
const epsilon = 1e-9

// Options tunes the analysis. The zero value is valid: every threshold falls
// back to its default, batches are unbounded, and logging is disabled.
//
// A threshold of 0 means "use the default", not "match everything"; there is
// no way to request a literal 0.0 threshold through Options.
type Options struct {
	// ImplicitThreshold is the minimum confidence for a textual ordering hint
	// to become a dependency edge.
	ImplicitThreshold float64

	// DuplicateThreshold is the minimum edit similarity for a duplicate pair.
	DuplicateThreshold float64

	// SemanticThreshold is the minimum token overlap for a semantic conflict.
	SemanticThreshold float64

	// OrderingHintFloor is the minimum confidence for a sub-threshold ordering
	// hint to be reported as a conflict.
	OrderingHintFloor float64

	// SpeedupThreshold is the estimated speedup above which parallel execution
	// is recommended.
	SpeedupThreshold float64

	// MaxBatchSize caps how many tasks share a batch. 0 means unlimited.
	MaxBatchSize int

	// AppendOnlyPatterns overrides the glob patterns for paths that tolerate
	// concurrent edits. Nil keeps the defaults.
	AppendOnlyPatterns []string

	// Logger receives per-stage progress at debug level. Nil disables logging.
	Logger *logging.Logger
}

func (o Options) withDefaults() Options {
	if o.ImplicitThreshold == 0 {
		o.ImplicitThreshold = DefaultImplicitThreshold
	}
	if o.DuplicateThreshold == 0 {
		o.DuplicateThreshold = DefaultDuplicateThreshold
	}
	if o.SemanticThreshold == 0 {
		o.SemanticThreshold = DefaultSemanticThreshold
	}
	if o.OrderingHintFloor == 0 {
		o.OrderingHintFloor = DefaultOrderingHintFloor
	}
	if o.SpeedupThreshold == 0 {
		o.SpeedupThreshold = DefaultSpeedupThreshold
	}
	if o.AppendOnlyPatterns == nil {
		o.AppendOnlyPatterns = conflict.DefaultConfig().AppendOnlyPatterns
	}
	if o.Logger == nil {
		o.Logger = logging.NopLogger()
	}
	return o
}

// Mode is the execution recommendation.
type Mode string

const (
	ModeParallel   Mode = "parallel"
	ModeSequential Mode = "sequential"
)

// Metrics carries the effort arithmetic behind the recommendation.
type Metrics struct {
	// TotalEffort is the sum of every task's estimated effort: the cost of
	// running everything sequentially.
	TotalEffort float64 `json:"total_effort"`

	// CriticalPathEffort is the heaviest dependency chain: the floor on wall
	// time no matter how wide execution goes.
	CriticalPathEffort float64 `json:"critical_path_effort"`

	// CriticalPath lists the task ids along that heaviest chain, in execution
	// order.
	CriticalPath []string `json:"critical_path"`

	// EstimatedSpeedup is TotalEffort / CriticalPathEffort.
	EstimatedSpeedup float64 `json:"estimated_speedup"`
}

// Recommendation is the analyzer's verdict with its reasoning.
type Recommendation struct {
	Mode      Mode   `json:"mode"`
	Reasoning string `json:"reasoning"`
}

// Stats summarizes the schedule shape.
type Stats struct {
	TaskCount  int `json:"task_count"`
	BatchCount int `json:"batch_count"`

	// ParallelismScore grades the schedule from 0 (fully serial) to 100
	// (fully parallel): 100 * (tasks - batches + 1) / tasks, clamped.
	ParallelismScore float64 `json:"parallelism_score"`

	AverageBatchSize float64 `json:"average_batch_size"`

	// BottleneckBatches lists the indices of single-task batches: the points
	// where execution serializes.
	BottleneckBatches []int `json:"bottleneck_batches"`
}

// Analysis is the complete result. All slices are sorted and non-nil, so the
// value marshals to the same JSON for the same task set.
type Analysis struct {
	Tasks          []task.Task          `json:"tasks"`
	Edges          []graph.Edge         `json:"edges"`
	ImplicitEdges  []graph.InferredEdge `json:"implicit_edges"`
	RedundantEdges []graph.Edge         `json:"redundant_edges"`
	Duplicates     []duplicate.Finding  `json:"duplicates"`
	Conflicts      []conflict.Conflict  `json:"conflicts"`
	Batches        [][]string           `json:"batches"`
	Metrics        Metrics              `json:"metrics"`
	Recommendation Recommendation       `json:"recommendation"`
	Stats          Stats                `json:"stats"`
}

// Analyze runs the pipeline. Structural problems in the task set (missing
// fields, duplicate ids, unknown dependencies, cycles) abort with no partial
// result; duplicates and conflicts are findings, not errors.
func Analyze(raws []task.Raw, opts Options) (*Analysis, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	tasks, err := task.Normalize(raws)
	if err != nil {
		return nil, err
	}
	log.WithStage("normalize").Debug("tasks validated", "count", len(tasks))

	g, implicit, err := graph.Build(tasks, opts.ImplicitThreshold)
	if err != nil {
		return nil, err
	}
	log.WithStage("graph").Debug("graph built", "edges", len(g.Edges), "implicit", len(implicit))

	dups := duplicate.Detect(tasks, opts.DuplicateThreshold)
	log.WithStage("duplicates").Debug("duplicate scan done", "findings", len(dups))

	detector, err := conflict.NewDetector(conflict.Config{
		SemanticThreshold:  opts.SemanticThreshold,
		DuplicateThreshold: opts.DuplicateThreshold,
		ImplicitThreshold:  opts.ImplicitThreshold,
		OrderingHintFloor:  opts.OrderingHintFloor,
		AppendOnlyPatterns: opts.AppendOnlyPatterns,
	})
	if err != nil {
		return nil, err
	}
	conflicts := detector.Detect(tasks, g, graph.ScanHints(tasks))
	log.WithStage("conflicts").Debug("conflict scan done", "findings", len(conflicts))

	batches, err := batch.Build(g, conflicts, opts.MaxBatchSize)
	if err != nil {
		return nil, err
	}
	log.WithStage("batches").Debug("schedule built", "batches", len(batches))

	metrics := computeMetrics(tasks, g)
	rec := recommend(metrics, conflicts, opts.SpeedupThreshold, len(batches))

	return &Analysis{
		Tasks:          tasks,
		Edges:          nonNilEdges(g.Edges),
		ImplicitEdges:  nonNilInferred(implicit),
		RedundantEdges: redundantEdges(g),
		Duplicates:     nonNilFindings(dups),
		Conflicts:      nonNilConflicts(conflicts),
		Batches:        nonNilBatches(batches),
		Metrics:        metrics,
		Recommendation: rec,
		Stats:          computeStats(len(tasks), batches),
	}, nil
}

// computeMetrics sums the effort and walks the heaviest dependency chain.
// The chain is found by memoized longest-path search from every source; ties
// resolve to the lexicographically smallest id so the path is stable.
func computeMetrics(tasks []task.Task, g *graph.Graph) Metrics {
	efforts := make(map[string]float64, len(tasks))
	total := 0.0
	for _, t := range tasks {
		efforts[t.ID] = t.Effort
		total += t.Effort
	}

	// downstream[id] is the heaviest effort of any chain starting at id,
	// including id itself.
	downstream := make(map[string]float64, len(tasks))
	next := make(map[string]string, len(tasks))
	var walk func(id string) float64
	walk = func(id string) float64 {
		if cost, ok := downstream[id]; ok {
			return cost
		}
		best := 0.0
		for _, succ := range g.Dependents(id) {
			if cost := walk(succ); cost > best {
				best = cost
				next[id] = succ
			}
		}
		downstream[id] = efforts[id] + best
		return downstream[id]
	}

	critical := 0.0
	start := ""
	for _, id := range g.TaskIDs {
		if cost := walk(id); cost > critical {
			critical = cost
			start = id
		}
	}

	path := []string{}
	for id := start; id != ""; id = next[id] {
		path = append(path, id)
	}

	speedup := 1.0
	if len(tasks) > 0 {
		speedup = total / maxFloat(critical, epsilon)
	}

	return Metrics{
		TotalEffort:        total,
		CriticalPathEffort: critical,
		CriticalPath:       path,
		EstimatedSpeedup:   speedup,
	}
}

// recommend applies the decision rule: parallel only when the speedup clears
// the threshold and no conflict is severe enough to demand isolation. The
// reasoning names whichever factor blocked (or allowed) parallel execution.
func recommend(m Metrics, conflicts []conflict.Conflict, threshold float64, batchCount int) Recommendation {
	if m.TotalEffort == 0 {
		return Recommendation{
			Mode:      ModeSequential,
			Reasoning: "no tasks to schedule",
		}
	}

	high := 0
	for _, c := range conflicts {
		if c.Severity == conflict.SeverityHigh {
			high++
		}
	}

	switch {
	case high > 0:
		return Recommendation{
			Mode:      ModeSequential,
			Reasoning: fmt.Sprintf("%d high-severity conflicts require isolation despite an estimated %.2fx speedup", high, m.EstimatedSpeedup),
		}
	case m.EstimatedSpeedup <= threshold:
		return Recommendation{
			Mode:      ModeSequential,
			Reasoning: fmt.Sprintf("estimated speedup %.2fx does not clear the %.2fx threshold; the dependency chain dominates", m.EstimatedSpeedup, threshold),
		}
	default:
		return Recommendation{
			Mode:      ModeParallel,
			Reasoning: fmt.Sprintf("%d batches cut estimated effort from %.1f to %.1f (%.2fx speedup)", batchCount, m.TotalEffort, m.CriticalPathEffort, m.EstimatedSpeedup),
		}
	}
}

// redundantEdges reports declared edges already implied by the rest of the
// graph: an edge u->v is redundant when some other predecessor of v is
// reachable from u. Implicit edges are advisory and skipped.
func redundantEdges(g *graph.Graph) []graph.Edge {
	redundant := []graph.Edge{}
	for _, e := range g.Edges {
		if e.Kind != graph.EdgeExplicit {
			continue
		}
		for _, other := range g.Dependencies(e.To) {
			if other != e.From && g.HasPath(e.From, other) {
				redundant = append(redundant, e)
				break
			}
		}
	}
	return redundant
}

func computeStats(taskCount int, batches [][]string) Stats {
	stats := Stats{
		TaskCount:         taskCount,
		BatchCount:        len(batches),
		BottleneckBatches: []int{},
	}
	if taskCount == 0 {
		return stats
	}

	score := 100 * float64(taskCount-len(batches)+1) / float64(taskCount)
	stats.ParallelismScore = clamp(score, 0, 100)
	stats.AverageBatchSize = float64(taskCount) / float64(len(batches))
	for i, b := range batches {
		if len(b) == 1 {
			stats.BottleneckBatches = append(stats.BottleneckBatches, i)
		}
	}
	return stats
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func maxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// The non-nil helpers keep empty collections marshaling as [] rather than
// null, so the JSON shape is identical across inputs.

func nonNilEdges(edges []graph.Edge) []graph.Edge {
	if edges == nil {
		return []graph.Edge{}
	}
	return edges
}

func nonNilInferred(edges []graph.InferredEdge) []graph.InferredEdge {
	if edges == nil {
		return []graph.InferredEdge{}
	}
	return edges
}

func nonNilFindings(findings []duplicate.Finding) []duplicate.Finding {
	if findings == nil {
		return []duplicate.Finding{}
	}
	return findings
}

func nonNilConflicts(conflicts []conflict.Conflict) []conflict.Conflict {
	if conflicts == nil {
		return []conflict.Conflict{}
	}
	return conflicts
}

func nonNilBatches(batches [][]string) [][]string {
	if batches == nil {
		return [][]string{}
	}
	return batches
}
