// SPDX-License-Identifier: AGPL-3.0-or-later

// Package lint runs the full rule battery against a plan: overrides applied,
// graph rebuilt, hard and soft rules evaluated, review queue and summary
// derived.
package lint

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/talyssonoliver/plantools/internal/graph"
	"github.com/talyssonoliver/plantools/internal/rules"
	"github.com/talyssonoliver/plantools/internal/task"
)

// Default thresholds. Both are explicit fields on Linter so tests can pin
// them; nothing here reads ambient state.
const (
	DefaultFanoutThreshold   = 3
	DefaultWaiverWarningDays = 30
)

// Linter validates a sprint plan. Zero-value thresholds fall back to the
// package defaults; a nil Now uses the wall clock.
type Linter struct {
	Tasks     []task.Task
	Overrides map[string]*task.Override

	// ValidationCoverage is the set of task IDs known to have an external
	// validation definition.
	ValidationCoverage map[string]struct{}

	// SprintScope restricts checks to one sprint when non-nil.
	SprintScope *int

	FanoutThreshold   int
	WaiverWarningDays int

	// ProjectRoot enables filesystem existence checks for artifacts. Empty
	// disables phantom-completion and path-suggestion rules.
	ProjectRoot string

	Now func() time.Time
}

// Run executes every rule check and aggregates the findings. It never fails:
// policy violations are returned as data, not errors.
func (l *Linter) Run() *Report {
	fanoutThreshold := l.FanoutThreshold
	if fanoutThreshold <= 0 {
		fanoutThreshold = DefaultFanoutThreshold
	}
	waiverDays := l.WaiverWarningDays
	if waiverDays <= 0 {
		waiverDays = DefaultWaiverWarningDays
	}
	now := l.Clock()

	report := &Report{}

	resolved := task.ApplyOverrides(l.Tasks, l.Overrides)
	g := graph.FromTasks(resolved)
	scoped := l.scopedTasks(resolved)

	report.Errors = append(report.Errors, l.checkCycles(g, scoped)...)
	report.Errors = append(report.Errors, l.checkCrossSprint(g)...)
	report.Errors = append(report.Errors, l.checkUnresolved(g)...)
	report.Errors = append(report.Errors, l.checkTierA(scoped)...)
	report.Errors = append(report.Errors, l.checkUniqueIDs()...)
	report.Errors = append(report.Errors, l.checkPhantomCompletions(scoped)...)

	report.Warnings = append(report.Warnings, l.checkTierBGates(scoped)...)
	report.Warnings = append(report.Warnings, l.checkHighFanout(g, scoped, fanoutThreshold)...)
	report.Warnings = append(report.Warnings, l.checkValidationCoverage(scoped)...)
	// Lapsed waivers escalate to errors; only waivers still inside the
	// warning window stay advisory.
	for _, r := range l.checkWaivers(scoped, waiverDays, now) {
		if r.IsError() {
			report.Errors = append(report.Errors, r)
		} else {
			report.Warnings = append(report.Warnings, r)
		}
	}
	report.Warnings = append(report.Warnings, l.checkArtifactPaths(scoped)...)

	report.ReviewQueue = l.buildReviewQueue(scoped, g, report.Errors, report.Warnings, fanoutThreshold)
	report.Summary = l.buildSummary(scoped, g, report)

	return report
}

// Clock returns the linter's notion of now, falling back to the wall clock.
func (l *Linter) Clock() time.Time {
	if l.Now != nil {
		return l.Now()
	}
	return time.Now()
}

func (l *Linter) scopedTasks(tasks []task.Task) []task.Task {
	if l.SprintScope == nil {
		return tasks
	}
	var scoped []task.Task
	for _, t := range tasks {
		if t.InSprint(*l.SprintScope) {
			scoped = append(scoped, t)
		}
	}
	return scoped
}

func (l *Linter) checkCycles(g *graph.Graph, scoped []task.Task) []rules.Result {
	cycles := g.DetectCycles()

	if l.SprintScope != nil {
		scopedIDs := make(map[string]struct{}, len(scoped))
		for _, t := range scoped {
			scopedIDs[t.ID] = struct{}{}
		}
		var filtered [][]string
		for _, cycle := range cycles {
			for _, id := range cycle {
				if _, ok := scopedIDs[id]; ok {
					filtered = append(filtered, cycle)
					break
				}
			}
		}
		cycles = filtered
	}

	var errs []rules.Result
	for _, cycle := range cycles {
		errs = append(errs, rules.CycleError(cycle))
	}
	return errs
}

func (l *Linter) checkCrossSprint(g *graph.Graph) []rules.Result {
	var errs []rules.Result
	for _, v := range g.DetectCrossSprintViolations(l.SprintScope) {
		if v.IsAllowed {
			continue
		}
		errs = append(errs, rules.CrossSprintError(v.TaskID, v.TaskSprint, v.DependencyID, v.DependencySprint))
	}
	return errs
}

func (l *Linter) checkUnresolved(g *graph.Graph) []rules.Result {
	var errs []rules.Result
	for _, u := range g.FindUnresolved() {
		errs = append(errs, rules.UnresolvedDepError(u.TaskID, u.Dependency))
	}
	return errs
}

func (l *Linter) checkTierA(scoped []task.Task) []rules.Result {
	var errs []rules.Result
	for _, t := range scoped {
		if t.Tier != task.TierA {
			continue
		}
		override := l.Overrides[t.ID]

		hasGates := t.GateProfile != task.GateNone || override.HasGateProfile()
		hasOwner := t.AcceptanceOwner != "" || (override != nil && override.AcceptanceOwner != "")
		hasEvidence := len(t.EvidenceRequired) > 0 || (override != nil && len(override.EvidenceRequired) > 0)
		hasAcceptance := t.AcceptanceCriteria != "" || (override != nil && len(override.AcceptanceCriteria) > 0)

		if !hasGates {
			errs = append(errs, rules.TierAMissingGates(t.ID))
		}
		if !hasOwner {
			errs = append(errs, rules.TierAMissingOwner(t.ID))
		}
		if !hasEvidence {
			errs = append(errs, rules.TierAMissingEvidence(t.ID))
		}
		if !hasAcceptance {
			errs = append(errs, rules.TierAMissingAcceptance(t.ID))
		}
	}
	return errs
}

// checkUniqueIDs runs over the raw, pre-override task list: duplicates must
// surface even when overrides would otherwise make the copies diverge.
func (l *Linter) checkUniqueIDs() []rules.Result {
	counts := make(map[string]int, len(l.Tasks))
	var firstSeen []string
	for _, t := range l.Tasks {
		if counts[t.ID] == 0 {
			firstSeen = append(firstSeen, t.ID)
		}
		counts[t.ID]++
	}

	var errs []rules.Result
	for _, id := range firstSeen {
		if counts[id] > 1 {
			errs = append(errs, rules.DuplicateIDError(id, counts[id]))
		}
	}
	return errs
}

func (l *Linter) checkPhantomCompletions(scoped []task.Task) []rules.Result {
	if l.ProjectRoot == "" {
		return nil
	}

	var errs []rules.Result
	for _, t := range scoped {
		if t.Status != task.StatusCompleted {
			continue
		}

		expected := l.expectedArtifacts(t)
		invalid, valid := splitValidArtifacts(t.ID, expected)
		errs = append(errs, invalid...)

		var missing []string
		suggestions := make(map[string]string)
		for _, path := range valid {
			if rules.ArtifactExists(l.ProjectRoot, path) {
				continue
			}
			missing = append(missing, path)
			if similar := rules.FindSimilarPaths(path, l.ProjectRoot, 1); len(similar) > 0 {
				suggestions[path] = similar[0]
			}
		}
		if len(missing) > 0 {
			if len(suggestions) == 0 {
				suggestions = nil
			}
			errs = append(errs, rules.PhantomCompletionError(t.ID, missing, suggestions))
		}
	}
	return errs
}

// expectedArtifacts collects the declared artifact paths for a task:
// plan-declared artifacts first, then override evidence, then task evidence,
// deduplicated in that order.
func (l *Linter) expectedArtifacts(t task.Task) []string {
	var expected []string
	seen := make(map[string]struct{})
	appendUnique := func(items []string) {
		for _, item := range items {
			item = strings.TrimSpace(item)
			if item == "" {
				continue
			}
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			expected = append(expected, item)
		}
	}

	appendUnique(t.ArtifactsExpected)
	if override := l.Overrides[t.ID]; override != nil {
		appendUnique(override.EvidenceRequired)
	}
	appendUnique(t.EvidenceRequired)
	return expected
}

// splitValidArtifacts reports prose-looking artifact strings as errors and
// returns the rest. Invalid paths are excluded from existence checks so the
// same artifact is never double-reported.
func splitValidArtifacts(taskID string, paths []string) ([]rules.Result, []string) {
	var errs []rules.Result
	var valid []string
	for _, path := range paths {
		ok, reason := rules.ValidArtifactPath(path)
		if !ok {
			errs = append(errs, rules.InvalidArtifactPathError(taskID, path, reason))
			continue
		}
		valid = append(valid, path)
	}
	return errs, valid
}

// checkArtifactPaths is the preventive variant of the phantom check: it runs
// over all scoped tasks and suggests alternate locations for declared paths
// that do not exist yet. Invalid and glob paths are skipped here.
func (l *Linter) checkArtifactPaths(scoped []task.Task) []rules.Result {
	if l.ProjectRoot == "" {
		return nil
	}

	var warnings []rules.Result
	for _, t := range scoped {
		declared := append([]string(nil), t.ArtifactsExpected...)
		if override := l.Overrides[t.ID]; override != nil {
			declared = append(declared, override.EvidenceRequired...)
		}

		for _, path := range declared {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			if ok, _ := rules.ValidArtifactPath(path); !ok {
				continue
			}
			if strings.Contains(path, "*") {
				continue
			}
			if rules.ArtifactExists(l.ProjectRoot, path) {
				continue
			}
			if similar := rules.FindSimilarPaths(path, l.ProjectRoot, 1); len(similar) > 0 {
				warnings = append(warnings, rules.ArtifactSuggestionWarning(t.ID, path, similar[0]))
			}
		}
	}
	return warnings
}

func (l *Linter) checkTierBGates(scoped []task.Task) []rules.Result {
	var warnings []rules.Result
	for _, t := range scoped {
		if t.Tier != task.TierB {
			continue
		}
		if t.GateProfile != task.GateNone || l.Overrides[t.ID].HasGateProfile() {
			continue
		}
		warnings = append(warnings, rules.TierBMissingGates(t.ID))
	}
	return warnings
}

func (l *Linter) checkHighFanout(g *graph.Graph, scoped []task.Task, threshold int) []rules.Result {
	fanout := g.ComputeFanout()
	var warnings []rules.Result
	for _, t := range scoped {
		if count := fanout[t.ID]; count >= threshold {
			warnings = append(warnings, rules.HighFanoutInfo(t.ID, count))
		}
	}
	return warnings
}

func (l *Linter) checkValidationCoverage(scoped []task.Task) []rules.Result {
	var warnings []rules.Result
	for _, t := range scoped {
		if _, ok := l.ValidationCoverage[t.ID]; ok {
			continue
		}
		warnings = append(warnings, rules.MissingValidationWarning(t.ID, t.Section))
	}
	return warnings
}

func (l *Linter) checkWaivers(scoped []task.Task, warningDays int, now time.Time) []rules.Result {
	var results []rules.Result
	for _, t := range scoped {
		override := l.Overrides[t.ID]
		if override == nil || override.WaiverExpiry == "" {
			continue
		}
		expiry, err := parseWaiverExpiry(override.WaiverExpiry)
		if err != nil {
			continue
		}
		days := int(math.Floor(expiry.Sub(now).Hours() / 24))
		if days > warningDays {
			continue
		}
		results = append(results, rules.WaiverExpiring(t.ID, days))
	}
	return results
}

func parseWaiverExpiry(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized waiver expiry %q", raw)
}

func (l *Linter) buildReviewQueue(
	scoped []task.Task,
	g *graph.Graph,
	errors, warnings []rules.Result,
	fanoutThreshold int,
) []ReviewEntry {
	fanout := g.ComputeFanout()
	taskErrors := indexByTask(errors)
	taskWarnings := indexByTask(warnings)

	var queue []ReviewEntry
	for _, t := range scoped {
		override := l.Overrides[t.ID]
		reasons := l.reviewReasons(t, fanout, taskErrors, taskWarnings, override, fanoutThreshold)
		if len(reasons) == 0 {
			continue
		}

		owner := t.Owner
		waiverExpiry := ""
		if override != nil {
			if override.AcceptanceOwner != "" {
				owner = override.AcceptanceOwner
			}
			waiverExpiry = override.WaiverExpiry
		}

		queue = append(queue, ReviewEntry{
			TaskID:         t.ID,
			Tier:           string(t.Tier),
			Section:        t.Section,
			Status:         string(t.Status),
			Owner:          owner,
			Reasons:        reasons,
			DependentCount: fanout[t.ID],
			WaiverExpiry:   waiverExpiry,
			Priority:       reviewPriority(t, len(taskErrors[t.ID]) > 0),
		})
	}

	priorityOrder := map[string]int{"critical": 0, "high": 1, "medium": 2, "low": 3}
	sort.SliceStable(queue, func(i, j int) bool {
		return priorityOrder[queue[i].Priority] < priorityOrder[queue[j].Priority]
	})
	return queue
}

func (l *Linter) reviewReasons(
	t task.Task,
	fanout map[string]int,
	taskErrors, taskWarnings map[string][]rules.Result,
	override *task.Override,
	fanoutThreshold int,
) []string {
	var reasons []string

	if t.Tier == task.TierA {
		reasons = append(reasons, "Tier A task - requires explicit validation")
	}
	if dependents := fanout[t.ID]; dependents >= fanoutThreshold {
		reasons = append(reasons, fmt.Sprintf("High fan-out (%d dependents)", dependents))
	}
	if n := len(taskErrors[t.ID]); n > 0 {
		reasons = append(reasons, fmt.Sprintf("Has %d error(s)", n))
	}
	if override != nil && (override.DebtAllowed || override.WaiverExpiry != "") {
		reasons = append(reasons, "Has waiver or debt_allowed")
	}
	for _, w := range taskWarnings[t.ID] {
		if w.RuleID == rules.RuleMissingValidation {
			reasons = append(reasons, "Missing validation.yaml entry")
			break
		}
	}

	return reasons
}

func reviewPriority(t task.Task, hasErrors bool) string {
	if t.Tier == task.TierA {
		return "critical"
	}
	if hasErrors {
		return "high"
	}
	return "medium"
}

func indexByTask(results []rules.Result) map[string][]rules.Result {
	index := make(map[string][]rules.Result)
	for _, r := range results {
		for _, id := range r.Tasks {
			index[id] = append(index[id], r)
		}
	}
	return index
}

func (l *Linter) buildSummary(scoped []task.Task, g *graph.Graph, report *Report) Summary {
	tierCounts := make(map[string]int)
	validated := 0
	for _, t := range scoped {
		tierCounts[string(t.Tier)]++
		if _, ok := l.ValidationCoverage[t.ID]; ok {
			validated++
		}
	}

	coveragePct := 0
	if len(scoped) > 0 {
		// Half-even so percentages landing exactly on .5 match the
		// reports other plan tooling produces.
		coveragePct = int(math.RoundToEven(float64(validated) / float64(len(scoped)) * 100))
	}

	scopedIDs := make(map[string]struct{}, len(scoped))
	for _, t := range scoped {
		scopedIDs[t.ID] = struct{}{}
	}

	totalDeps := 0
	tasksWithDeps := 0
	dependedUpon := make(map[string]struct{})
	for id := range scopedIDs {
		deps := g.Dependencies(id)
		totalDeps += len(deps)
		if len(deps) > 0 {
			tasksWithDeps++
		}
		for _, dep := range deps {
			if _, ok := scopedIDs[dep]; ok {
				dependedUpon[dep] = struct{}{}
			}
		}
	}

	linked := 0
	for id := range scopedIDs {
		_, depended := dependedUpon[id]
		if len(g.Dependencies(id)) > 0 || depended {
			linked++
		}
	}

	return Summary{
		TotalTasks:      len(scoped),
		TierBreakdown:   tierCounts,
		ErrorCount:      len(report.Errors),
		WarningCount:    len(report.Warnings),
		ReviewQueueSize: len(report.ReviewQueue),
		ValidationCoverage: CoverageStats{
			TasksWithValidation:    validated,
			TasksWithoutValidation: len(scoped) - validated,
			CoveragePercentage:     coveragePct,
		},
		DependencyStats: DependencyStats{
			TotalDependencies:     totalDeps,
			TasksWithDependencies: tasksWithDeps,
			TasksWithDependents:   len(dependedUpon),
			OrphanTasks:           len(scoped) - linked,
		},
	}
}
