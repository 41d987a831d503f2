// SPDX-License-Identifier: AGPL-3.0-or-later

package graph

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intp(n int) *int { return &n }

func TestDetectCycles_None(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B"}, intp(1), false)
	g.AddTask("B", []string{"C"}, intp(1), false)
	g.AddTask("C", nil, intp(1), false)

	assert.Empty(t, g.DetectCycles())
}

func TestDetectCycles_TwoNodeLoop(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B"}, intp(1), false)
	g.AddTask("B", []string{"A"}, intp(1), false)

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"A", "B", "A"}, cycles[0])
}

func TestDetectCycles_SelfLoop(t *testing.T) {
	g := New()
	g.AddTask("X", []string{"X"}, nil, false)

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"X", "X"}, cycles[0])
}

func TestDetectCycles_LongerLoop(t *testing.T) {
	g := New()
	g.AddTask("IFC-106", []string{"IFC-131"}, intp(2), false)
	g.AddTask("IFC-131", []string{"IFC-106"}, intp(2), false)
	g.AddTask("IFC-072", []string{"IFC-008"}, intp(1), false)
	g.AddTask("IFC-008", nil, intp(1), false)

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Equal(t, []string{"IFC-106", "IFC-131", "IFC-106"}, cycles[0])
}

func TestDetectCycles_DedupedByNodeSet(t *testing.T) {
	// A->B->C->A is one cycle regardless of which node the DFS enters from.
	g := New()
	g.AddTask("A", []string{"B"}, nil, false)
	g.AddTask("B", []string{"C"}, nil, false)
	g.AddTask("C", []string{"A"}, nil, false)

	cycles := g.DetectCycles()
	require.Len(t, cycles, 1)
	assert.Len(t, cycles[0], 4)
}

func TestDetectCycles_UnknownDepsIgnored(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"GHOST"}, nil, false)

	assert.Empty(t, g.DetectCycles())
}

func TestCrossSprintViolations(t *testing.T) {
	g := New()
	g.AddTask("X", []string{"Y"}, intp(1), false)
	g.AddTask("Y", nil, intp(2), false)

	violations := g.DetectCrossSprintViolations(nil)
	require.Len(t, violations, 1)
	v := violations[0]
	assert.Equal(t, "X", v.TaskID)
	assert.Equal(t, 1, v.TaskSprint)
	assert.Equal(t, "Y", v.DependencyID)
	assert.Equal(t, 2, v.DependencySprint)
	assert.False(t, v.IsAllowed)
}

func TestCrossSprintViolations_AllowedFlag(t *testing.T) {
	g := New()
	g.AddTask("X", []string{"Y"}, intp(1), true)
	g.AddTask("Y", nil, intp(2), false)

	violations := g.DetectCrossSprintViolations(nil)
	require.Len(t, violations, 1)
	assert.True(t, violations[0].IsAllowed)
}

func TestCrossSprintViolations_SameOrEarlierSprintOK(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B", "C"}, intp(2), false)
	g.AddTask("B", nil, intp(2), false)
	g.AddTask("C", nil, intp(1), false)

	assert.Empty(t, g.DetectCrossSprintViolations(nil))
}

func TestCrossSprintViolations_ContinuousSkipped(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B"}, nil, false)
	g.AddTask("B", nil, intp(3), false)
	g.AddTask("C", []string{"A"}, intp(1), false)

	assert.Empty(t, g.DetectCrossSprintViolations(nil))
}

func TestCrossSprintViolations_Scoped(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B"}, intp(1), false)
	g.AddTask("B", nil, intp(2), false)
	g.AddTask("C", []string{"D"}, intp(2), false)
	g.AddTask("D", nil, intp(3), false)

	scope := 2
	violations := g.DetectCrossSprintViolations(&scope)
	require.Len(t, violations, 1)
	assert.Equal(t, "C", violations[0].TaskID)
}

func TestFindUnresolved(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B", "MISSING"}, intp(1), false)
	g.AddTask("B", nil, intp(1), false)

	unresolved := g.FindUnresolved()
	require.Len(t, unresolved, 1)
	assert.Equal(t, "A", unresolved[0].TaskID)
	assert.Equal(t, "MISSING", unresolved[0].Dependency)
}

func TestComputeFanout(t *testing.T) {
	g := New()
	g.AddTask("ROOT", nil, intp(1), false)
	for _, id := range []string{"T1", "T2", "T3", "T4", "T5"} {
		g.AddTask(id, []string{"ROOT"}, intp(1), false)
	}

	fanout := g.ComputeFanout()
	assert.Equal(t, 5, fanout["ROOT"])
	assert.Equal(t, 0, fanout["T1"])
}

func TestComputeFanout_UnknownTargetsIgnored(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"GHOST"}, nil, false)

	fanout := g.ComputeFanout()
	assert.Equal(t, 0, fanout["A"])
	_, present := fanout["GHOST"]
	assert.False(t, present)
}

func TestTopologicalSort(t *testing.T) {
	g := New()
	g.AddTask("C", []string{"B"}, intp(1), false)
	g.AddTask("B", []string{"A"}, intp(1), false)
	g.AddTask("A", nil, intp(1), false)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	require.Len(t, order, 3)

	pos := map[string]int{}
	for i, id := range order {
		pos[id] = i
	}
	assert.Less(t, pos["A"], pos["B"])
	assert.Less(t, pos["B"], pos["C"])
}

func TestTopologicalSort_CycleError(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"B"}, nil, false)
	g.AddTask("B", []string{"A"}, nil, false)

	_, err := g.TopologicalSort()
	var cycleErr *CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"A", "B", "A"}, cycleErr.Cycle)
}

func TestTopologicalSort_UnknownDepsDoNotBlock(t *testing.T) {
	g := New()
	g.AddTask("A", []string{"GHOST"}, nil, false)

	order, err := g.TopologicalSort()
	require.NoError(t, err)
	assert.Equal(t, []string{"A"}, order)
}

func TestTasksForSprint(t *testing.T) {
	g := New()
	g.AddTask("B", nil, intp(1), false)
	g.AddTask("A", nil, intp(1), false)
	g.AddTask("C", nil, intp(2), false)
	g.AddTask("D", nil, nil, false)

	assert.Equal(t, []string{"A", "B"}, g.TasksForSprint(1))
	assert.Equal(t, []string{"C"}, g.TasksForSprint(2))
	assert.Empty(t, g.TasksForSprint(3))
}
