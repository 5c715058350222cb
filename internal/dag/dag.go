// Package dag builds the job dependency graph of a workflow from `needs`.
package dag

import (
	"sort"
	"strings"

	"github.com/rendis/wfkit/pkg/schema"
	"github.com/rendis/wfkit/pkg/workflow"
)

// DAG is the job graph of one workflow.
type DAG struct {
	Jobs    map[string]*workflow.Job // job ID → builder
	Order   []string                 // declaration order
	Edges   map[string][]string      // job ID → needs that exist
	Reverse map[string][]string      // job ID → jobs that need it
	Missing map[string][]string      // job ID → needs naming unknown jobs
	Sorted  []string                 // topological order
	Roots   []string                 // jobs without needs
	Levels  [][]string               // jobs that can start together
}

// Parse builds the graph. Needs that name unknown jobs are recorded in
// Missing and otherwise ignored; a job needing itself or any cycle is a
// CYCLE_DETECTED error.
func Parse(w *workflow.Workflow) (*DAG, error) {
	ids := w.JobIDs()
	d := &DAG{
		Jobs:    make(map[string]*workflow.Job, len(ids)),
		Order:   ids,
		Edges:   make(map[string][]string, len(ids)),
		Reverse: make(map[string][]string, len(ids)),
		Missing: map[string][]string{},
	}
	for _, id := range ids {
		j, _ := w.GetJob(id)
		d.Jobs[id] = j
	}

	for _, id := range ids {
		seen := map[string]bool{}
		deps := make([]string, 0, len(d.Jobs[id].NeedsIDs()))
		for _, dep := range d.Jobs[id].NeedsIDs() {
			if dep == id {
				return nil, schema.NewErrorf(schema.ErrCodeCycleDetected, "job %s needs itself", id).
					WithPath("jobs." + id + ".needs")
			}
			if _, ok := d.Jobs[dep]; !ok {
				d.Missing[id] = append(d.Missing[id], dep)
				continue
			}
			if seen[dep] {
				continue
			}
			seen[dep] = true
			deps = append(deps, dep)
			d.Reverse[dep] = append(d.Reverse[dep], id)
		}
		d.Edges[id] = deps
	}

	// Kahn's algorithm: topological sort + cycle detection.
	inDegree := make(map[string]int, len(ids))
	for _, id := range ids {
		inDegree[id] = len(d.Edges[id])
	}
	var queue []string
	for _, id := range ids {
		if inDegree[id] == 0 {
			queue = append(queue, id)
		}
	}
	sort.Strings(queue)
	d.Roots = append([]string(nil), queue...)

	sorted := make([]string, 0, len(ids))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		sorted = append(sorted, node)

		dependents := append([]string(nil), d.Reverse[node]...)
		sort.Strings(dependents)
		for _, dep := range dependents {
			inDegree[dep]--
			if inDegree[dep] == 0 {
				queue = append(queue, dep)
			}
		}
	}

	if len(sorted) != len(ids) {
		var stuck []string
		for _, id := range ids {
			if inDegree[id] > 0 {
				stuck = append(stuck, id)
			}
		}
		return nil, schema.NewErrorf(schema.ErrCodeCycleDetected,
			"jobs form a dependency cycle: %s", strings.Join(stuck, ", ")).
			WithDetails(map[string]any{"jobs": stuck})
	}
	d.Sorted = sorted
	d.Levels = computeLevels(d)
	return d, nil
}

// computeLevels groups jobs by the length of their longest needs chain.
func computeLevels(d *DAG) [][]string {
	if len(d.Sorted) == 0 {
		return nil
	}
	depth := make(map[string]int, len(d.Sorted))
	maxLevel := 0
	for _, id := range d.Sorted {
		level := 0
		for _, dep := range d.Edges[id] {
			if depth[dep]+1 > level {
				level = depth[dep] + 1
			}
		}
		depth[id] = level
		if level > maxLevel {
			maxLevel = level
		}
	}
	levels := make([][]string, maxLevel+1)
	for _, id := range d.Sorted {
		levels[depth[id]] = append(levels[depth[id]], id)
	}
	return levels
}

// Level returns the level index of a job, or -1.
func (d *DAG) Level(id string) int {
	for i, level := range d.Levels {
		for _, j := range level {
			if j == id {
				return i
			}
		}
	}
	return -1
}
