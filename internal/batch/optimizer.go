// Package batch turns the dependency layering and the conflict report into an
// execution schedule: an ordered list of batches where every batch can run in
// parallel. Dependencies order batches; conflicts split tasks within a layer
// into separate batches.
package batch

import (
	"fmt"

	"github.com/Iron-Ham/parplan/internal/conflict"
	"github.com/Iron-Ham/parplan/internal/errors"
	"github.com/Iron-Ham/parplan/internal/graph"
)

// Build computes the batch schedule. Each dependency layer is partitioned so
// that no two conflicting tasks share a batch, then the partitions are
// emitted in layer order. maxBatchSize caps batch width; 0 means unlimited.
//
// The schedule covers every task exactly once. Build re-checks its own output
// against the graph and the conflict set before returning; a violation is a
// bug and surfaces as an internal error rather than a bad schedule.
func Build(g *graph.Graph, conflicts []conflict.Conflict, maxBatchSize int) ([][]string, error) {
	if maxBatchSize < 0 {
		return nil, errors.NewInternalError(fmt.Sprintf("negative max batch size %d", maxBatchSize))
	}

	pairs := conflictPairs(conflicts)

	var batches [][]string
	for _, layer := range g.Layers() {
		for _, group := range splitLayer(layer, pairs) {
			batches = append(batches, chunk(group, maxBatchSize)...)
		}
	}

	if err := validate(batches, g, pairs); err != nil {
		return nil, err
	}
	return batches, nil
}

// splitLayer greedily partitions one layer: each task joins the first group
// it has no conflict with, or opens a new one. The layer arrives sorted by
// id, which fixes both group membership and group order.
func splitLayer(layer []string, pairs map[[2]string]bool) [][]string {
	var groups [][]string
next:
	for _, id := range layer {
		for gi, group := range groups {
			if !conflictsWithAny(id, group, pairs) {
				groups[gi] = append(group, id)
				continue next
			}
		}
		groups = append(groups, []string{id})
	}
	return groups
}

// chunk splits a group into slices of at most size tasks. Size 0 leaves the
// group whole.
func chunk(group []string, size int) [][]string {
	if size == 0 || len(group) <= size {
		return [][]string{group}
	}
	var out [][]string
	for len(group) > size {
		out = append(out, group[:size])
		group = group[size:]
	}
	return append(out, group)
}

// validate re-checks the finished schedule: every task scheduled exactly
// once, no batch holding two conflicting tasks, and every edge crossing
// strictly forward between batches.
func validate(batches [][]string, g *graph.Graph, pairs map[[2]string]bool) error {
	position := make(map[string]int, len(g.TaskIDs))
	for bi, batch := range batches {
		for i, id := range batch {
			if _, dup := position[id]; dup {
				return errors.NewInternalError(fmt.Sprintf("task %s scheduled twice", id))
			}
			position[id] = bi
			for _, other := range batch[:i] {
				if pairs[pairKey(id, other)] {
					return errors.NewInternalError(fmt.Sprintf("batch %d holds conflicting tasks %s and %s", bi, other, id))
				}
			}
		}
	}
	for _, e := range g.Edges {
		if position[e.From] >= position[e.To] {
			return errors.NewInternalError(fmt.Sprintf("dependency %s -> %s not ordered across batches", e.From, e.To))
		}
	}
	if len(position) != len(g.TaskIDs) {
		return errors.NewInternalError(fmt.Sprintf("schedule covers %d of %d tasks", len(position), len(g.TaskIDs)))
	}
	return nil
}

func conflictsWithAny(id string, group []string, pairs map[[2]string]bool) bool {
	for _, member := range group {
		if pairs[pairKey(id, member)] {
			return true
		}
	}
	return false
}

func conflictPairs(conflicts []conflict.Conflict) map[[2]string]bool {
	pairs := make(map[[2]string]bool, len(conflicts))
	for _, c := range conflicts {
		pairs[pairKey(c.TaskA, c.TaskB)] = true
	}
	return pairs
}

func pairKey(a, b string) [2]string {
	if a > b {
		a, b = b, a
	}
	return [2]string{a, b}
}
