// SPDX-License-Identifier: AGPL-3.0-or-later

package lint

import (
	"github.com/talyssonoliver/plantools/internal/rules"
)

// ReviewEntry is one task queued for human attention. Derived purely for
// output; it never feeds back into validation.
type ReviewEntry struct {
	TaskID         string   `json:"task_id"`
	Tier           string   `json:"tier"`
	Section        string   `json:"section"`
	Status         string   `json:"status"`
	Owner          string   `json:"owner"`
	Reasons        []string `json:"reasons"`
	DependentCount int      `json:"dependent_count"`
	WaiverExpiry   string   `json:"waiver_expiry,omitempty"`
	Priority       string   `json:"priority"`
}

// CoverageStats summarizes how many scoped tasks carry an external validation
// definition.
type CoverageStats struct {
	TasksWithValidation    int `json:"tasks_with_validation"`
	TasksWithoutValidation int `json:"tasks_without_validation"`
	CoveragePercentage     int `json:"coverage_percentage"`
}

// DependencyStats summarizes graph shape over the scoped task set.
type DependencyStats struct {
	TotalDependencies     int `json:"total_dependencies"`
	TasksWithDependencies int `json:"tasks_with_dependencies"`
	TasksWithDependents   int `json:"tasks_with_dependents"`
	OrphanTasks           int `json:"orphan_tasks"`
}

// Summary carries the aggregate statistics of one lint run.
type Summary struct {
	TotalTasks         int             `json:"total_tasks"`
	TierBreakdown      map[string]int  `json:"tier_breakdown"`
	ErrorCount         int             `json:"error_count"`
	WarningCount       int             `json:"warning_count"`
	ReviewQueueSize    int             `json:"review_queue_size"`
	ValidationCoverage CoverageStats   `json:"validation_coverage"`
	DependencyStats    DependencyStats `json:"dependency_stats"`
}

// Report is the full output of a lint run. The orchestrator never fails; all
// findings come back as data here.
type Report struct {
	Errors      []rules.Result `json:"errors"`
	Warnings    []rules.Result `json:"warnings"`
	ReviewQueue []ReviewEntry  `json:"review_queue"`
	Summary     Summary        `json:"summary"`
}

// HasErrors reports whether any hard-rule findings were produced.
func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

// ExitCode maps the report onto the process-level contract: any error-class
// result fails the run, warnings never do.
func (r *Report) ExitCode() int {
	if r.HasErrors() {
		return 1
	}
	return 0
}
