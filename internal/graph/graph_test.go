package graph

import (
	"reflect"
	"testing"

	"github.com/Iron-Ham/parplan/internal/errors"
	"github.com/Iron-Ham/parplan/internal/task"
)

func normalize(t *testing.T, raws []task.Raw) []task.Task {
	t.Helper()
	tasks, err := task.Normalize(raws)
	if err != nil {
		t.Fatalf("Normalize returned error: %v", err)
	}
	return tasks
}

func TestBuild_ExplicitEdges(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "Create the schema"},
		{ID: "t2", Description: "Seed data", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Configure caching", DependsOn: []string{"t1", "t2"}},
	})

	g, inferred, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(inferred) != 0 {
		t.Errorf("Expected no inferred edges, got %v", inferred)
	}

	want := []Edge{
		{From: "t1", To: "t2", Kind: EdgeExplicit},
		{From: "t1", To: "t3", Kind: EdgeExplicit},
		{From: "t2", To: "t3", Kind: EdgeExplicit},
	}
	if !reflect.DeepEqual(g.Edges, want) {
		t.Errorf("Edges = %v, want %v", g.Edges, want)
	}
}

func TestBuild_UnknownDependency(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "First", DependsOn: []string{"missing"}},
	})

	_, _, err := Build(tasks, 0.6)
	if err == nil {
		t.Fatal("Expected error for unknown dependency")
	}

	var unknownErr *errors.UnknownDependencyError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("Expected *UnknownDependencyError, got %T", err)
	}
	if unknownErr.TaskID != "t1" || unknownErr.DependencyID != "missing" {
		t.Errorf("Unexpected error detail: %+v", unknownErr)
	}
}

func TestBuild_CycleDetected(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "First", DependsOn: []string{"t3"}},
		{ID: "t2", Description: "Second", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Third", DependsOn: []string{"t2"}},
	})

	_, _, err := Build(tasks, 0.6)
	if err == nil {
		t.Fatal("Expected cycle error")
	}

	var cycleErr *errors.CycleError
	if !errors.As(err, &cycleErr) {
		t.Fatalf("Expected *CycleError, got %T", err)
	}

	want := []string{"t1", "t2", "t3", "t1"}
	if !reflect.DeepEqual(cycleErr.Path, want) {
		t.Errorf("Cycle path = %v, want %v", cycleErr.Path, want)
	}
}

func TestBuild_SelfDependency(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "First", DependsOn: []string{"t1"}},
	})

	_, _, err := Build(tasks, 0.6)
	if !errors.Is(err, errors.ErrDependencyCycle) {
		t.Fatalf("Expected ErrDependencyCycle, got %v", err)
	}
}

func TestBuild_ImplicitEdgeFromIDReference(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "migrate", Description: "Run the database migration"},
		{ID: "seed", Description: "Seed test data after migrate completes"},
	})

	g, inferred, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(inferred) != 1 {
		t.Fatalf("Expected 1 inferred edge, got %d: %v", len(inferred), inferred)
	}
	ie := inferred[0]
	if ie.From != "migrate" || ie.To != "seed" {
		t.Errorf("Inferred edge %s -> %s, want migrate -> seed", ie.From, ie.To)
	}
	if ie.Confidence != 1 {
		t.Errorf("Expected confidence 1 for id reference, got %f", ie.Confidence)
	}

	found := false
	for _, e := range g.Edges {
		if e.From == "migrate" && e.To == "seed" && e.Kind == EdgeImplicit {
			found = true
		}
	}
	if !found {
		t.Errorf("Expected implicit edge in graph, got %v", g.Edges)
	}
}

func TestBuild_ImplicitEdgeFromDescriptionMatch(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "Create the user database schema"},
		{ID: "t2", Description: "Write queries, after the user database schema exists"},
	})

	_, inferred, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if len(inferred) != 1 {
		t.Fatalf("Expected 1 inferred edge, got %d: %v", len(inferred), inferred)
	}
	if inferred[0].From != "t1" || inferred[0].To != "t2" {
		t.Errorf("Inferred edge %s -> %s, want t1 -> t2", inferred[0].From, inferred[0].To)
	}
	if inferred[0].Phrase != "after" {
		t.Errorf("Expected phrase 'after', got %q", inferred[0].Phrase)
	}
}

func TestBuild_ExplicitDeclarationSuppressesImplicit(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "migrate", Description: "Run the database migration"},
		{ID: "seed", Description: "Seed data after migrate completes", DependsOn: []string{"migrate"}},
	})

	g, inferred, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	if len(inferred) != 0 {
		t.Errorf("Expected no inferred edges when declared, got %v", inferred)
	}
	if len(g.Edges) != 1 || g.Edges[0].Kind != EdgeExplicit {
		t.Errorf("Expected single explicit edge, got %v", g.Edges)
	}
}

func TestBuild_ImplicitEdgeParticipatesInCycleDetection(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "alpha", Description: "Build the API after beta is finished", DependsOn: nil},
		{ID: "beta", Description: "Ship the docs", DependsOn: []string{"alpha"}},
	})

	_, _, err := Build(tasks, 0.6)
	if !errors.Is(err, errors.ErrDependencyCycle) {
		t.Fatalf("Expected cycle from mixed explicit/implicit edges, got %v", err)
	}
}

func TestLayers(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "Root"},
		{ID: "t2", Description: "Mid", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Mid sibling", DependsOn: []string{"t1"}},
		{ID: "t4", Description: "Leaf", DependsOn: []string{"t2", "t3"}},
		{ID: "t5", Description: "Independent"},
	})

	g, _, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	want := [][]string{
		{"t1", "t5"},
		{"t2", "t3"},
		{"t4"},
	}
	if !reflect.DeepEqual(g.Layers(), want) {
		t.Errorf("Layers = %v, want %v", g.Layers(), want)
	}
}

func TestHasPath(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "Root"},
		{ID: "t2", Description: "Mid", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Leaf", DependsOn: []string{"t2"}},
		{ID: "t4", Description: "Other"},
	})

	g, _, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if !g.HasPath("t1", "t3") {
		t.Error("Expected path t1 -> t3")
	}
	if g.HasPath("t3", "t1") {
		t.Error("Did not expect reverse path t3 -> t1")
	}
	if g.HasPath("t1", "t4") || g.HasPath("t4", "t1") {
		t.Error("Did not expect any path between t1 and t4")
	}
}

func TestAncestors(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "Root"},
		{ID: "t2", Description: "Mid", DependsOn: []string{"t1"}},
		{ID: "t3", Description: "Leaf", DependsOn: []string{"t2"}},
	})

	g, _, err := Build(tasks, 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	ancestors := g.Ancestors("t3")
	if !ancestors["t1"] || !ancestors["t2"] || len(ancestors) != 2 {
		t.Errorf("Ancestors(t3) = %v, want {t1, t2}", ancestors)
	}
}

func TestScanHints_SubThresholdKept(t *testing.T) {
	tasks := normalize(t, []task.Raw{
		{ID: "t1", Description: "Refactor the authentication middleware layer completely"},
		{ID: "t2", Description: "Update routes after the authentication changes land"},
	})

	hints := ScanHints(tasks)
	if len(hints) == 0 {
		t.Fatal("Expected at least one hint")
	}
	h := hints[0]
	if h.Before != "t1" || h.After != "t2" {
		t.Errorf("Hint %s before %s, want t1 before t2", h.Before, h.After)
	}
	if h.Confidence >= 1 {
		t.Errorf("Expected partial-match confidence below 1, got %f", h.Confidence)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	raws := []task.Raw{
		{ID: "t3", Description: "Third", DependsOn: []string{"t1"}},
		{ID: "t1", Description: "First"},
		{ID: "t2", Description: "Second", DependsOn: []string{"t1"}},
	}
	permuted := []task.Raw{raws[1], raws[2], raws[0]}

	g1, _, err := Build(normalize(t, raws), 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	g2, _, err := Build(normalize(t, permuted), 0.6)
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}

	if !reflect.DeepEqual(g1.Edges, g2.Edges) || !reflect.DeepEqual(g1.TaskIDs, g2.TaskIDs) {
		t.Error("Expected identical graphs for permuted input")
	}
}
