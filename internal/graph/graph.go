// Package graph builds the task dependency graph: explicit edges from
// declared dependencies plus implicit edges inferred from ordering phrases in
// description text. The graph is an arena of sorted task ids with an explicit
// edge list, so it serializes losslessly with no pointer structures.
package graph

import (
	"sort"

	"github.com/Iron-Ham/parplan/internal/errors"
	"github.com/Iron-Ham/parplan/internal/task"
)

// EdgeKind distinguishes declared dependencies from inferred ones. Both kinds
// participate in cycle detection and batching identically; implicit edges are
// additionally reported on the side so callers can audit false positives.
type EdgeKind string

const (
	// EdgeExplicit marks an edge declared in the task's dependency list.
	EdgeExplicit EdgeKind = "explicit"
	// EdgeImplicit marks an edge inferred from description text.
	EdgeImplicit EdgeKind = "implicit"
)

// Edge is a directed constraint: From must complete before To.
type Edge struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Kind EdgeKind `json:"kind"`
}

// Graph is the validated dependency graph over a task set.
// Invariant: acyclic. Build returns an error rather than a cyclic graph.
type Graph struct {
	// TaskIDs is the sorted node set.
	TaskIDs []string `json:"task_ids"`

	// Edges is the sorted edge list.
	Edges []Edge `json:"edges"`

	out map[string][]string
	in  map[string][]string
}

// Build constructs the dependency graph for a normalized task set. Explicit
// edges come from declared dependencies; implicit edges come from ordering
// hints whose confidence meets implicitThreshold. An edge to an unknown id is
// an UnknownDependencyError. A cyclic graph is a CycleError; no graph is
// returned in either case.
//
// The returned InferredEdge list mirrors the implicit edges with their
// matched phrase and confidence.
func Build(tasks []task.Task, implicitThreshold float64) (*Graph, []InferredEdge, error) {
	known := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		known[t.ID] = true
	}

	g := &Graph{
		TaskIDs: task.IDs(tasks),
		out:     make(map[string][]string, len(tasks)),
		in:      make(map[string][]string, len(tasks)),
	}

	edgeSet := make(map[Edge]bool)
	for _, t := range tasks {
		for _, dep := range t.DependsOn {
			if !known[dep] {
				return nil, nil, errors.NewUnknownDependencyError(t.ID, dep)
			}
			if dep == t.ID {
				// A self-dependency is the smallest possible cycle.
				return nil, nil, errors.NewCycleError([]string{t.ID, t.ID})
			}
			edgeSet[Edge{From: dep, To: t.ID, Kind: EdgeExplicit}] = true
		}
	}

	hasExplicit := func(from, to string) bool {
		return edgeSet[Edge{From: from, To: to, Kind: EdgeExplicit}]
	}

	inferred := InferEdges(tasks, implicitThreshold)
	kept := inferred[:0]
	for _, ie := range inferred {
		// An explicit declaration already covers the same constraint.
		if hasExplicit(ie.From, ie.To) {
			continue
		}
		edgeSet[Edge{From: ie.From, To: ie.To, Kind: EdgeImplicit}] = true
		kept = append(kept, ie)
	}
	inferred = kept

	g.Edges = make([]Edge, 0, len(edgeSet))
	for e := range edgeSet {
		g.Edges = append(g.Edges, e)
	}
	sort.Slice(g.Edges, func(i, j int) bool {
		a, b := g.Edges[i], g.Edges[j]
		if a.From != b.From {
			return a.From < b.From
		}
		if a.To != b.To {
			return a.To < b.To
		}
		return a.Kind < b.Kind
	})

	for _, e := range g.Edges {
		g.out[e.From] = append(g.out[e.From], e.To)
		g.in[e.To] = append(g.in[e.To], e.From)
	}

	if cycle := g.detectCycle(); cycle != nil {
		return nil, nil, errors.NewCycleError(cycle)
	}

	return g, inferred, nil
}

// Dependencies returns the direct predecessors of a task, sorted.
func (g *Graph) Dependencies(id string) []string {
	return append([]string(nil), g.in[id]...)
}

// Dependents returns the direct successors of a task, sorted.
func (g *Graph) Dependents(id string) []string {
	return append([]string(nil), g.out[id]...)
}

// HasPath reports whether to is reachable from from by following edges.
func (g *Graph) HasPath(from, to string) bool {
	if from == to {
		return true
	}
	visited := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		for _, next := range g.out[node] {
			if next == to {
				return true
			}
			if !visited[next] {
				visited[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

// Ancestors returns all tasks the given task transitively depends on.
func (g *Graph) Ancestors(id string) map[string]bool {
	ancestors := make(map[string]bool)
	var walk func(string)
	walk = func(node string) {
		for _, dep := range g.in[node] {
			if !ancestors[dep] {
				ancestors[dep] = true
				walk(dep)
			}
		}
	}
	walk(id)
	return ancestors
}

// Layers computes the topological layering of the graph via repeated removal
// of zero-in-degree nodes. Each layer is sorted by id; the layer index is the
// minimum depth a task can occupy given its incoming edges.
//
// The graph is acyclic by construction, so every node lands in a layer.
func (g *Graph) Layers() [][]string {
	inDegree := make(map[string]int, len(g.TaskIDs))
	for _, id := range g.TaskIDs {
		inDegree[id] = len(g.in[id])
	}

	var layers [][]string
	remaining := len(g.TaskIDs)
	var current []string
	for _, id := range g.TaskIDs {
		if inDegree[id] == 0 {
			current = append(current, id)
		}
	}

	for len(current) > 0 {
		sort.Strings(current)
		layers = append(layers, current)
		remaining -= len(current)

		var next []string
		for _, id := range current {
			for _, succ := range g.out[id] {
				inDegree[succ]--
				if inDegree[succ] == 0 {
					next = append(next, succ)
				}
			}
		}
		current = next
	}

	if remaining != 0 {
		// Unreachable for graphs produced by Build; kept as a guard for
		// hand-constructed graphs in tests.
		return nil
	}
	return layers
}

// detectCycle runs a three-color depth-first traversal (unvisited /
// in-progress / done). On the first back edge it reconstructs the full cycle
// as an ordered id list with the entry node repeated at the end.
func (g *Graph) detectCycle() []string {
	const (
		white = iota // unvisited
		gray         // in progress
		black        // done
	)

	color := make(map[string]int, len(g.TaskIDs))
	parent := make(map[string]string, len(g.TaskIDs))

	var cycle []string
	var visit func(string) bool
	visit = func(node string) bool {
		color[node] = gray
		for _, next := range g.out[node] {
			switch color[next] {
			case white:
				parent[next] = node
				if visit(next) {
					return true
				}
			case gray:
				// Back edge: walk parents from node back to next.
				cycle = []string{next}
				for cur := node; cur != next; cur = parent[cur] {
					cycle = append(cycle, cur)
				}
				cycle = append(cycle, next)
				// Parents were recorded walking forward, so reverse into
				// traversal order.
				for i, j := 1, len(cycle)-2; i < j; i, j = i+1, j-1 {
					cycle[i], cycle[j] = cycle[j], cycle[i]
				}
				return true
			}
		}
		color[node] = black
		return false
	}

	for _, id := range g.TaskIDs {
		if color[id] == white && visit(id) {
			return cycle
		}
	}
	return nil
}
