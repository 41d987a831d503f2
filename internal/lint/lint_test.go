// SPDX-License-Identifier: AGPL-3.0-or-later

package lint

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talyssonoliver/plantools/internal/rules"
	"github.com/talyssonoliver/plantools/internal/task"
)

func intp(n int) *int { return &n }

func resultsByRule(results []rules.Result, ruleID string) []rules.Result {
	var out []rules.Result
	for _, r := range results {
		if r.RuleID == ruleID {
			out = append(out, r)
		}
	}
	return out
}

func TestRun_CycleFailsTheRun(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{
			{ID: "A", Dependencies: []string{"B"}, Sprint: intp(1)},
			{ID: "B", Dependencies: []string{"A"}, Sprint: intp(1)},
		},
	}

	rep := l.Run()
	require.True(t, rep.HasErrors())
	assert.Equal(t, 1, rep.ExitCode())

	cycles := resultsByRule(rep.Errors, rules.RuleNoCycles)
	require.Len(t, cycles, 1)
	assert.Equal(t, "Dependency cycle detected: A -> B -> A", cycles[0].Message)
}

func TestRun_CrossSprintBlockedThenAllowed(t *testing.T) {
	tasks := []task.Task{
		{ID: "X", Dependencies: []string{"Y"}, Sprint: intp(1)},
		{ID: "Y", Sprint: intp(2)},
	}

	rep := (&Linter{Tasks: tasks}).Run()
	violations := resultsByRule(rep.Errors, rules.RuleNoCrossSprintUnresolved)
	require.Len(t, violations, 1)
	assert.Equal(t, "Cross-sprint dependency: X (Sprint 1) depends on Y (Sprint 2)", violations[0].Message)

	// Flipping the source task's cross-sprint flag clears the error.
	tasks[0].CrossSprintAllowed = true
	rep = (&Linter{Tasks: tasks}).Run()
	assert.Empty(t, resultsByRule(rep.Errors, rules.RuleNoCrossSprintUnresolved))
}

func TestRun_HighFanout(t *testing.T) {
	tasks := []task.Task{{ID: "ROOT", Sprint: intp(1)}}
	for _, id := range []string{"T1", "T2", "T3", "T4", "T5"} {
		tasks = append(tasks, task.Task{ID: id, Dependencies: []string{"ROOT"}, Sprint: intp(1)})
	}

	rep := (&Linter{Tasks: tasks, FanoutThreshold: 3}).Run()
	fanouts := resultsByRule(rep.Warnings, rules.RuleHighFanout)
	require.Len(t, fanouts, 1)
	assert.Equal(t, []string{"ROOT"}, fanouts[0].Tasks)
	assert.Equal(t, 5, fanouts[0].Metadata["fanout"])
}

func TestRun_TierAMissingEverything(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{{ID: "CRIT-1", Tier: task.TierA, Sprint: intp(1)}},
	}

	rep := l.Run()
	for _, ruleID := range []string{
		rules.RuleTierAGatesRequired,
		rules.RuleTierAOwnerRequired,
		rules.RuleTierAEvidenceRequired,
		rules.RuleTierAAcceptanceRequired,
	} {
		assert.Len(t, resultsByRule(rep.Errors, ruleID), 1, ruleID)
	}
	require.Len(t, rep.Errors, 4)
}

func TestRun_TierASatisfiedViaOverride(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{{ID: "CRIT-1", Tier: task.TierA, AcceptanceCriteria: "gates green", Sprint: intp(1)}},
		Overrides: map[string]*task.Override{
			"CRIT-1": {
				GateProfiles:     []string{"strict"},
				AcceptanceOwner:  "qa-lead",
				EvidenceRequired: []string{"report.md"},
			},
		},
	}

	rep := l.Run()
	assert.Empty(t, rep.Errors)
}

func TestRun_DuplicateIDs(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{
			{ID: "T-1", Sprint: intp(1)},
			{ID: "T-1", Sprint: intp(1)},
			{ID: "T-2", Sprint: intp(1)},
		},
	}

	rep := l.Run()
	dupes := resultsByRule(rep.Errors, rules.RuleTaskIDUnique)
	require.Len(t, dupes, 1)
	assert.Equal(t, "Task ID T-1 appears 2 times (must be unique)", dupes[0].Message)
}

func TestRun_PhantomCompletion(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(root, "docs", "guide.md"), []byte("x"), 0o600))

	l := &Linter{
		Tasks: []task.Task{{
			ID:                "T-1",
			Status:            task.StatusCompleted,
			Sprint:            intp(1),
			ArtifactsExpected: []string{"artifacts/misc/guide.md"},
		}},
		ProjectRoot: root,
	}

	rep := l.Run()
	phantoms := resultsByRule(rep.Errors, rules.RulePhantomCompletion)
	require.Len(t, phantoms, 1)
	assert.Contains(t, phantoms[0].Message, "PHANTOM COMPLETION: Task T-1")
	assert.Contains(t, phantoms[0].FixSuggestion, "'artifacts/misc/guide.md' might be at 'docs/guide.md'")
}

func TestRun_PhantomCompletion_ExistingArtifactOK(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "out.md"), []byte("x"), 0o600))

	l := &Linter{
		Tasks: []task.Task{{
			ID:                "T-1",
			Status:            task.StatusCompleted,
			Sprint:            intp(1),
			ArtifactsExpected: []string{"out.md"},
		}},
		ProjectRoot: root,
	}

	assert.Empty(t, resultsByRule(l.Run().Errors, rules.RulePhantomCompletion))
}

func TestRun_ProseArtifactNotDoubleReported(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{{
			ID:                "T-1",
			Status:            task.StatusCompleted,
			Sprint:            intp(1),
			ArtifactsExpected: []string{"the deployment is verified"},
		}},
		ProjectRoot: t.TempDir(),
	}

	rep := l.Run()
	assert.Len(t, resultsByRule(rep.Errors, rules.RuleInvalidArtifactPath), 1)
	assert.Empty(t, resultsByRule(rep.Errors, rules.RulePhantomCompletion))
}

func TestRun_WaiverWindows(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	mk := func(expiry string) *Report {
		l := &Linter{
			Tasks:     []task.Task{{ID: "T-1", Sprint: intp(1)}},
			Overrides: map[string]*task.Override{"T-1": {WaiverExpiry: expiry}},
			Now:       func() time.Time { return now },
		}
		return l.Run()
	}

	// Far future: silent.
	rep := mk("2026-12-01")
	assert.Empty(t, resultsByRule(rep.Warnings, rules.RuleWaiverExpiring))
	assert.Empty(t, resultsByRule(rep.Errors, rules.RuleWaiverExpiring))

	// Inside the 30-day window: warning.
	rep = mk("2026-03-15")
	warns := resultsByRule(rep.Warnings, rules.RuleWaiverExpiring)
	require.Len(t, warns, 1)
	assert.Equal(t, "Task T-1 waiver expires in 13 days", warns[0].Message)

	// Lapsed: error.
	rep = mk("2026-02-01")
	errs := resultsByRule(rep.Errors, rules.RuleWaiverExpiring)
	require.Len(t, errs, 1)
	assert.True(t, rep.HasErrors())
}

func TestRun_SprintScope(t *testing.T) {
	scope := 1
	l := &Linter{
		Tasks: []task.Task{
			{ID: "A", Tier: task.TierA, Sprint: intp(1)},
			{ID: "B", Tier: task.TierA, Sprint: intp(2)},
		},
		SprintScope: &scope,
	}

	rep := l.Run()
	assert.Equal(t, 1, rep.Summary.TotalTasks)
	for _, r := range rep.Errors {
		assert.Equal(t, []string{"A"}, r.Tasks)
	}
}

func TestRun_ReviewQueueOrderingAndReasons(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{
			// Fails validation coverage only: medium.
			{ID: "PLAIN", Sprint: intp(1)},
			// Tier A with everything set: critical, queued for tier alone.
			{
				ID: "CRIT", Tier: task.TierA, Sprint: intp(1), Owner: "dev",
				AcceptanceOwner: "qa", GateProfile: task.GateStrict,
				EvidenceRequired: []string{"e.md"}, AcceptanceCriteria: "done",
			},
			// Unresolved dependency: high.
			{ID: "BROKEN", Dependencies: []string{"GHOST"}, Sprint: intp(1)},
		},
		ValidationCoverage: map[string]struct{}{
			"CRIT": {}, "BROKEN": {},
		},
	}

	rep := l.Run()
	require.Len(t, rep.ReviewQueue, 3)
	assert.Equal(t, "CRIT", rep.ReviewQueue[0].TaskID)
	assert.Equal(t, "critical", rep.ReviewQueue[0].Priority)
	assert.Equal(t, "BROKEN", rep.ReviewQueue[1].TaskID)
	assert.Equal(t, "high", rep.ReviewQueue[1].Priority)
	assert.Equal(t, "PLAIN", rep.ReviewQueue[2].TaskID)
	assert.Equal(t, "medium", rep.ReviewQueue[2].Priority)

	assert.Contains(t, rep.ReviewQueue[0].Reasons, "Tier A task - requires explicit validation")
	assert.Contains(t, rep.ReviewQueue[1].Reasons, "Has 1 error(s)")
	assert.Contains(t, rep.ReviewQueue[2].Reasons, "Missing validation.yaml entry")
}

func TestRun_SummaryStatistics(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{
			{ID: "A", Tier: task.TierA, Sprint: intp(1), AcceptanceOwner: "qa",
				GateProfile: task.GateStrict, EvidenceRequired: []string{"e"}, AcceptanceCriteria: "c"},
			{ID: "B", Tier: task.TierC, Dependencies: []string{"A"}, Sprint: intp(1)},
			{ID: "C", Tier: task.TierC, Sprint: intp(1)},
		},
		ValidationCoverage: map[string]struct{}{"A": {}, "B": {}},
	}

	s := l.Run().Summary
	assert.Equal(t, 3, s.TotalTasks)
	assert.Equal(t, 1, s.TierBreakdown["A"])
	assert.Equal(t, 2, s.TierBreakdown["C"])
	assert.Equal(t, 2, s.ValidationCoverage.TasksWithValidation)
	assert.Equal(t, 67, s.ValidationCoverage.CoveragePercentage)
	assert.Equal(t, 1, s.DependencyStats.TotalDependencies)
	assert.Equal(t, 1, s.DependencyStats.TasksWithDependencies)
	assert.Equal(t, 1, s.DependencyStats.TasksWithDependents)
	assert.Equal(t, 1, s.DependencyStats.OrphanTasks)
}

func TestRun_CoverageRoundsHalfToEven(t *testing.T) {
	var tasks []task.Task
	for _, id := range []string{"T-1", "T-2", "T-3", "T-4", "T-5", "T-6", "T-7", "T-8"} {
		tasks = append(tasks, task.Task{ID: id, Sprint: intp(1)})
	}

	// 1 of 8 = 12.5% rounds down to the even neighbour.
	l := &Linter{Tasks: tasks, ValidationCoverage: map[string]struct{}{"T-1": {}}}
	assert.Equal(t, 12, l.Run().Summary.ValidationCoverage.CoveragePercentage)

	// 3 of 8 = 37.5% rounds up to the even neighbour.
	l = &Linter{Tasks: tasks, ValidationCoverage: map[string]struct{}{
		"T-1": {}, "T-2": {}, "T-3": {},
	}}
	assert.Equal(t, 38, l.Run().Summary.ValidationCoverage.CoveragePercentage)
}

func TestRun_OverridesChangeTheGraph(t *testing.T) {
	l := &Linter{
		Tasks: []task.Task{
			{ID: "A", Dependencies: []string{"B"}, Sprint: intp(1)},
			{ID: "B", Dependencies: []string{"A"}, Sprint: intp(1)},
		},
		Overrides: map[string]*task.Override{
			"B": {DepsRemove: []string{"A"}},
		},
	}

	rep := l.Run()
	assert.Empty(t, resultsByRule(rep.Errors, rules.RuleNoCycles))
}
