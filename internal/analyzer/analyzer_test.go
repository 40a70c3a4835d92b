package analyzer

import (
	"encoding/json"
	"math"
	"math/rand"
	"reflect"
	"strings"
	"testing"

	"github.com/Iron-Ham/parplan/internal/conflict"
	"github.com/Iron-Ham/parplan/internal/errors"
	"github.com/Iron-Ham/parplan/internal/graph"
	"github.com/Iron-Ham/parplan/internal/task"
)

func analyze(t *testing.T, raws []task.Raw) *Analysis {
	t.Helper()
	a, err := Analyze(raws, Options{})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	return a
}

func TestAnalyze_FileConflictSplitsBatches(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Add users table migration", Files: []string{"schema.sql"}},
		{ID: "t2", Description: "Backfill user rows", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Create audit columns", Files: []string{"schema.sql"}},
	})

	var fileConflicts []conflict.Conflict
	for _, c := range a.Conflicts {
		if c.Type == conflict.TypeFile {
			fileConflicts = append(fileConflicts, c)
		}
	}
	if len(fileConflicts) != 1 || fileConflicts[0].TaskA != "t1" || fileConflicts[0].TaskB != "t3" {
		t.Errorf("file conflicts = %+v, want one between t1 and t3", fileConflicts)
	}

	want := [][]string{{"t1"}, {"t3"}, {"t2"}}
	if !reflect.DeepEqual(a.Batches, want) {
		t.Errorf("Batches = %v, want %v", a.Batches, want)
	}
}

func TestAnalyze_NearDuplicateDescriptions(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Write unit tests for login"},
		{ID: "t2", Description: "Create unit tests for the login flow"},
	})

	if len(a.Duplicates) != 1 {
		t.Fatalf("Duplicates = %+v, want exactly one", a.Duplicates)
	}
	f := a.Duplicates[0]
	if f.Original != "t1" || f.Duplicate != "t2" {
		t.Errorf("pair = (%s, %s), want (t1, t2)", f.Original, f.Duplicate)
	}
	if f.Similarity < 0.8 {
		t.Errorf("Similarity = %v, want >= 0.8", f.Similarity)
	}
}

func TestAnalyze_IndependentTasksRunParallel(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Translate the landing page"},
		{ID: "t2", Description: "Compress the hero images"},
		{ID: "t3", Description: "Minify the stylesheet bundle"},
	})

	want := [][]string{{"t1", "t2", "t3"}}
	if !reflect.DeepEqual(a.Batches, want) {
		t.Errorf("Batches = %v, want %v", a.Batches, want)
	}
	if a.Recommendation.Mode != ModeParallel {
		t.Errorf("Mode = %q (%s), want parallel", a.Recommendation.Mode, a.Recommendation.Reasoning)
	}
	if got := a.Metrics.EstimatedSpeedup; math.Abs(got-3) > 1e-9 {
		t.Errorf("EstimatedSpeedup = %v, want 3", got)
	}
}

func TestAnalyze_CycleAborts(t *testing.T) {
	_, err := Analyze([]task.Raw{
		{ID: "t1", Description: "Stand up the ingest service", DependsOn: []string{"t3"}},
		{ID: "t2", Description: "Stand up the transform service", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Stand up the publish service", DependsOn: []string{"t2"}},
	}, Options{})

	var cycleErr *errors.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("err = %v, want CycleError", err)
	}
	want := []string{"t1", "t2", "t3", "t1"}
	if !reflect.DeepEqual(cycleErr.Path, want) {
		t.Errorf("Path = %v, want %v", cycleErr.Path, want)
	}
}

func TestAnalyze_CriticalPathAndSpeedup(t *testing.T) {
	// Chain t1 -> t2 -> t4 weighs 2+3+2 = 7 against a total of 12.
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Provision the database", Effort: 2},
		{ID: "t2", Description: "Load the reference data", DependsOn: []string{"t1"}, Effort: 3},
		{ID: "t3", Description: "Configure the cache nodes", DependsOn: []string{"t1"}, Effort: 1},
		{ID: "t4", Description: "Verify replication", DependsOn: []string{"t2", "t3"}, Effort: 2},
		{ID: "t5", Description: "Draft the runbook", Effort: 4},
	})

	if a.Metrics.TotalEffort != 12 {
		t.Errorf("TotalEffort = %v, want 12", a.Metrics.TotalEffort)
	}
	if a.Metrics.CriticalPathEffort != 7 {
		t.Errorf("CriticalPathEffort = %v, want 7", a.Metrics.CriticalPathEffort)
	}
	wantPath := []string{"t1", "t2", "t4"}
	if !reflect.DeepEqual(a.Metrics.CriticalPath, wantPath) {
		t.Errorf("CriticalPath = %v, want %v", a.Metrics.CriticalPath, wantPath)
	}
	if got, want := a.Metrics.EstimatedSpeedup, 12.0/7.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("EstimatedSpeedup = %v, want %v", got, want)
	}
}

func TestAnalyze_HighConflictForcesSequential(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Rebuild the search index", Resources: []string{"search-cluster"}},
		{ID: "t2", Description: "Tune the ranking weights", Resources: []string{"search-cluster"}},
		{ID: "t3", Description: "Refresh the synonyms list"},
	})

	if a.Recommendation.Mode != ModeSequential {
		t.Fatalf("Mode = %q, want sequential", a.Recommendation.Mode)
	}
	if !strings.Contains(a.Recommendation.Reasoning, "high-severity") {
		t.Errorf("Reasoning = %q, want the conflicts named", a.Recommendation.Reasoning)
	}
}

func TestAnalyze_ChainForcesSequential(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Export the old records"},
		{ID: "t2", Description: "Convert the export format", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Import into the new store", DependsOn: []string{"t2"}},
	})

	if a.Recommendation.Mode != ModeSequential {
		t.Fatalf("Mode = %q, want sequential", a.Recommendation.Mode)
	}
	if !strings.Contains(a.Recommendation.Reasoning, "speedup") {
		t.Errorf("Reasoning = %q, want the speedup named", a.Recommendation.Reasoning)
	}
	if a.Metrics.EstimatedSpeedup != 1 {
		t.Errorf("EstimatedSpeedup = %v, want 1", a.Metrics.EstimatedSpeedup)
	}
}

func TestAnalyze_RedundantEdgeReported(t *testing.T) {
	// t3 declares both t1 and t2, but t1 already reaches t3 through t2.
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Design the payload shape"},
		{ID: "t2", Description: "Build the encoder", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Build the decoder roundtrip suite", DependsOn: []string{"t1", "t2"}},
	})

	want := []graph.Edge{{From: "t1", To: "t3", Kind: graph.EdgeExplicit}}
	if !reflect.DeepEqual(a.RedundantEdges, want) {
		t.Errorf("RedundantEdges = %+v, want %+v", a.RedundantEdges, want)
	}
}

func TestAnalyze_Stats(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Scaffold the service"},
		{ID: "t2", Description: "Wire request routing", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Wire response encoding", DependsOn: []string{"t1"}},
		{ID: "t4", Description: "Run the end to end suite", DependsOn: []string{"t2", "t3"}},
	})

	// Batches: [t1], [t2 t3], [t4].
	if a.Stats.TaskCount != 4 || a.Stats.BatchCount != 3 {
		t.Fatalf("Stats = %+v, want 4 tasks in 3 batches", a.Stats)
	}
	if got, want := a.Stats.ParallelismScore, 50.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("ParallelismScore = %v, want %v", got, want)
	}
	if got, want := a.Stats.AverageBatchSize, 4.0/3.0; math.Abs(got-want) > 1e-9 {
		t.Errorf("AverageBatchSize = %v, want %v", got, want)
	}
	if want := []int{0, 2}; !reflect.DeepEqual(a.Stats.BottleneckBatches, want) {
		t.Errorf("BottleneckBatches = %v, want %v", a.Stats.BottleneckBatches, want)
	}
}

func TestAnalyze_MaxBatchSize(t *testing.T) {
	a, err := Analyze([]task.Raw{
		{ID: "a", Description: "Translate the landing page"},
		{ID: "b", Description: "Compress the hero images"},
		{ID: "c", Description: "Minify the stylesheet bundle"},
	}, Options{MaxBatchSize: 2})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	want := [][]string{{"a", "b"}, {"c"}}
	if !reflect.DeepEqual(a.Batches, want) {
		t.Errorf("Batches = %v, want %v", a.Batches, want)
	}
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := analyze(t, nil)
	if len(a.Tasks) != 0 || len(a.Batches) != 0 {
		t.Errorf("Analysis = %+v, want empty", a)
	}
	if a.Recommendation.Mode != ModeSequential {
		t.Errorf("Mode = %q, want sequential", a.Recommendation.Mode)
	}
}

func TestAnalyze_EmptyCollectionsMarshalAsArrays(t *testing.T) {
	a := analyze(t, []task.Raw{
		{ID: "t1", Description: "Translate the landing page"},
	})
	data, err := json.Marshal(a)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("marshaled analysis contains null: %s", data)
	}
}

func TestAnalyze_DeterministicAcrossInputOrder(t *testing.T) {
	raws := []task.Raw{
		{ID: "t1", Description: "Add users table migration", Files: []string{"schema.sql"}, Effort: 2},
		{ID: "t2", Description: "Backfill user rows", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Create audit columns", Files: []string{"schema.sql"}},
		{ID: "t4", Description: "Refresh the API docs"},
		{ID: "t5", Description: "Refresh the CLI docs"},
	}

	first, err := json.Marshal(analyze(t, raws))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 10; i++ {
		shuffled := append([]task.Raw(nil), raws...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		again, err := json.Marshal(analyze(t, shuffled))
		if err != nil {
			t.Fatalf("Marshal: %v", err)
		}
		if string(first) != string(again) {
			t.Fatalf("permutation %d produced different analysis:\n%s\nvs\n%s", i, again, first)
		}
	}
}
