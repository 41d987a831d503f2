// SPDX-License-Identifier: AGPL-3.0-or-later

// Package graph implements the directed dependency graph over plan task IDs:
// cycle enumeration, cross-sprint violation detection, fan-out computation,
// and topological ordering.
package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talyssonoliver/plantools/internal/task"
)

// CycleError is returned when a total order is requested for a graph that
// contains a dependency cycle.
type CycleError struct {
	Cycle []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Cycle, " -> "))
}

// Violation is a cross-sprint dependency: a task in one sprint depending on a
// task scheduled for a later sprint. IsAllowed mirrors the source task's
// cross-sprint flag; the caller decides whether allowed violations are errors.
type Violation struct {
	TaskID           string
	TaskSprint       int
	DependencyID     string
	DependencySprint int
	IsAllowed        bool
}

// Unresolved is an edge whose target is not a known node.
type Unresolved struct {
	TaskID     string
	Dependency string
}

// Graph is an adjacency-list dependency graph. Edges point from a task to the
// tasks it depends on. Edges may reference unknown nodes; the graph tolerates
// this and reports it via FindUnresolved rather than failing to build.
type Graph struct {
	adjacency          map[string][]string
	sprints            map[string]*int
	crossSprintAllowed map[string]bool
	order              []string // node insertion order, for deterministic traversal
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		adjacency:          make(map[string][]string),
		sprints:            make(map[string]*int),
		crossSprintAllowed: make(map[string]bool),
	}
}

// FromTasks builds a graph from an already-overridden task list.
func FromTasks(tasks []task.Task) *Graph {
	g := New()
	for _, t := range tasks {
		g.AddTask(t.ID, t.Dependencies, t.Sprint, t.CrossSprintAllowed)
	}
	return g
}

// AddTask inserts or replaces a node. Dependency targets are not validated
// here; unknown targets surface later as unresolved findings.
func (g *Graph) AddTask(id string, dependencies []string, sprint *int, crossSprintAllowed bool) {
	if _, exists := g.adjacency[id]; !exists {
		g.order = append(g.order, id)
	}
	g.adjacency[id] = append([]string(nil), dependencies...)
	if sprint != nil {
		n := *sprint
		g.sprints[id] = &n
	} else {
		g.sprints[id] = nil
	}
	g.crossSprintAllowed[id] = crossSprintAllowed
}

// Len returns the number of known nodes.
func (g *Graph) Len() int { return len(g.adjacency) }

// Contains reports whether the task is a known node.
func (g *Graph) Contains(id string) bool {
	_, ok := g.adjacency[id]
	return ok
}

// Dependencies returns the declared dependencies of a task.
func (g *Graph) Dependencies(id string) []string {
	return g.adjacency[id]
}

// Sprint returns the sprint of a task and whether one is set.
func (g *Graph) Sprint(id string) (int, bool) {
	s, ok := g.sprints[id]
	if !ok || s == nil {
		return 0, false
	}
	return *s, true
}

// DetectCycles enumerates every distinct cycle in the graph. Each cycle is
// the ordered list of task IDs in the loop with the starting ID repeated at
// the end; a self-loop reports as [X X]. Cycles reached from different start
// points are deduplicated by node set. Edges to unknown nodes are never part
// of a cycle and are not followed.
func (g *Graph) DetectCycles() [][]string {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(g.adjacency))
	var cycles [][]string

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		switch color[node] {
		case gray:
			// Back edge: the cycle runs from node's position in the
			// current path through to here.
			start := 0
			for i, id := range path {
				if id == node {
					start = i
					break
				}
			}
			cycle := append(append([]string(nil), path[start:]...), node)
			cycles = append(cycles, cycle)
			return
		case black:
			return
		}

		color[node] = gray
		path = append(path, node)
		for _, dep := range g.adjacency[node] {
			if _, known := g.adjacency[dep]; known {
				dfs(dep, append([]string(nil), path...))
			}
		}
		color[node] = black
	}

	for _, node := range g.order {
		if color[node] == white {
			dfs(node, nil)
		}
	}

	return dedupeCycles(cycles)
}

// dedupeCycles keeps the first trace seen for each distinct node set. The
// closing node is excluded from the comparison key.
func dedupeCycles(cycles [][]string) [][]string {
	seen := make(map[string]struct{}, len(cycles))
	unique := make([][]string, 0, len(cycles))
	for _, cycle := range cycles {
		nodes := append([]string(nil), cycle[:len(cycle)-1]...)
		sort.Strings(nodes)
		key := strings.Join(nodes, "\x00")
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		unique = append(unique, cycle)
	}
	return unique
}

// DetectCrossSprintViolations finds tasks depending on later-sprint tasks.
// Continuous tasks (no sprint) are never checked on either side. If scope is
// non-nil, only tasks whose own sprint equals *scope are checked as sources;
// their dependency targets are still inspected wherever they live.
func (g *Graph) DetectCrossSprintViolations(scope *int) []Violation {
	var violations []Violation

	for _, taskID := range g.order {
		taskSprint := g.sprints[taskID]
		if taskSprint == nil {
			continue
		}
		if scope != nil && *taskSprint != *scope {
			continue
		}

		for _, depID := range g.adjacency[taskID] {
			depSprint, ok := g.sprints[depID]
			if !ok || depSprint == nil {
				continue
			}
			if *depSprint > *taskSprint {
				violations = append(violations, Violation{
					TaskID:           taskID,
					TaskSprint:       *taskSprint,
					DependencyID:     depID,
					DependencySprint: *depSprint,
					IsAllowed:        g.crossSprintAllowed[taskID],
				})
			}
		}
	}

	return violations
}

// FindUnresolved returns every edge whose target is not a known node.
func (g *Graph) FindUnresolved() []Unresolved {
	var unresolved []Unresolved
	for _, taskID := range g.order {
		for _, dep := range g.adjacency[taskID] {
			if _, known := g.adjacency[dep]; !known {
				unresolved = append(unresolved, Unresolved{TaskID: taskID, Dependency: dep})
			}
		}
	}
	return unresolved
}

// ComputeFanout counts direct dependents for every known node. Leaves with no
// dependents report zero.
func (g *Graph) ComputeFanout() map[string]int {
	fanout := make(map[string]int, len(g.adjacency))
	for id := range g.adjacency {
		fanout[id] = 0
	}
	for _, deps := range g.adjacency {
		for _, dep := range deps {
			if _, known := fanout[dep]; known {
				fanout[dep]++
			}
		}
	}
	return fanout
}

// TopologicalSort returns the task IDs with dependencies before dependents,
// using Kahn's algorithm. It fails with a CycleError carrying the first found
// cycle when the graph is not a DAG; edges to unknown nodes do not count
// toward in-degree.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cycles := g.DetectCycles(); len(cycles) > 0 {
		return nil, &CycleError{Cycle: cycles[0]}
	}

	dependents := make(map[string][]string, len(g.adjacency))
	inDegree := make(map[string]int, len(g.adjacency))
	for _, node := range g.order {
		inDegree[node] = 0
	}

	for _, node := range g.order {
		for _, dep := range g.adjacency[node] {
			if _, known := g.adjacency[dep]; known {
				dependents[dep] = append(dependents[dep], node)
				inDegree[node]++
			}
		}
	}

	var queue []string
	for _, node := range g.order {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.adjacency))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, dependent := range dependents[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}

	return result, nil
}

// TasksForSprint returns all task IDs scheduled for the given sprint, sorted.
func (g *Graph) TasksForSprint(sprint int) []string {
	var ids []string
	for id, s := range g.sprints {
		if s != nil && *s == sprint {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}
