// SPDX-License-Identifier: AGPL-3.0-or-later

// Package rules defines the closed catalog of plan lint rules and the
// structured results they produce. Each rule is a pure function from facts to
// a ValidationResult; nothing in this package raises, results are data for
// the orchestrator to batch and report.
package rules

import (
	"fmt"
	"strings"
)

// Severity classifies how a finding affects the lint run.
type Severity string

const (
	SeverityError   Severity = "error"   // CI must fail
	SeverityWarning Severity = "warning" // review queue only
	SeverityInfo    Severity = "info"    // statistical
)

// Hard rule IDs. Any result carrying one of these fails the run.
const (
	RuleNoCycles                = "NO_CYCLES"
	RuleNoCrossSprintUnresolved = "NO_CROSS_SPRINT_UNRESOLVED"
	RuleDepsResolve             = "DEPS_RESOLVE"
	RuleTierAGatesRequired      = "TIER_A_GATES_REQUIRED"
	RuleTierAOwnerRequired      = "TIER_A_OWNER_REQUIRED"
	RuleTierAEvidenceRequired   = "TIER_A_EVIDENCE_REQUIRED"
	RuleTierAAcceptanceRequired = "TIER_A_ACCEPTANCE_REQUIRED"
	RuleTaskIDUnique            = "TASK_ID_UNIQUE"
	RulePhantomCompletion       = "PHANTOM_COMPLETION"
	RuleInvalidArtifactPath     = "INVALID_ARTIFACT_PATH"
)

// Soft rule IDs. These never fail the run on their own, though WAIVER_EXPIRING
// escalates to an error once the waiver has lapsed.
const (
	RuleMissingValidation      = "MISSING_VALIDATION"
	RuleTierBMissingGates      = "TIER_B_MISSING_GATES"
	RuleHighFanout             = "HIGH_FANOUT"
	RuleWaiverExpiring         = "WAIVER_EXPIRING"
	RuleArtifactPathSuggestion = "ARTIFACT_PATH_SUGGESTION"
)

// Result is one immutable lint finding.
type Result struct {
	RuleID        string         `json:"rule"`
	Severity      Severity       `json:"severity"`
	Message       string         `json:"message"`
	Tasks         []string       `json:"tasks"`
	FixSuggestion string         `json:"fix,omitempty"`
	Priority      string         `json:"priority"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

// IsError reports whether the finding is a hard failure.
func (r Result) IsError() bool { return r.Severity == SeverityError }

// IsWarning reports whether the finding is a soft failure.
func (r Result) IsWarning() bool { return r.Severity == SeverityWarning }

// Rule describes one catalog entry.
type Rule struct {
	ID          string
	Description string
	Severity    Severity
	Threshold   int // only meaningful for HIGH_FANOUT
}

// HardRules is the catalog of rules that fail CI.
func HardRules() []Rule {
	return []Rule{
		{ID: RuleNoCycles, Description: "No dependency cycles allowed", Severity: SeverityError},
		{ID: RuleNoCrossSprintUnresolved, Description: "No unresolved cross-sprint dependencies", Severity: SeverityError},
		{ID: RuleDepsResolve, Description: "All dependencies must exist", Severity: SeverityError},
		{ID: RuleTierAGatesRequired, Description: "Tier A tasks must have a gate profile", Severity: SeverityError},
		{ID: RuleTierAOwnerRequired, Description: "Tier A tasks must have an acceptance owner", Severity: SeverityError},
		{ID: RuleTierAEvidenceRequired, Description: "Tier A tasks must have required evidence", Severity: SeverityError},
		{ID: RuleTierAAcceptanceRequired, Description: "Tier A tasks must have acceptance criteria", Severity: SeverityError},
		{ID: RuleTaskIDUnique, Description: "Task IDs must be unique", Severity: SeverityError},
	}
}

// SoftRules is the catalog of advisory rules.
func SoftRules() []Rule {
	return []Rule{
		{ID: RuleMissingValidation, Description: "Task should have validation commands", Severity: SeverityWarning},
		{ID: RuleTierBMissingGates, Description: "Tier B tasks should have a gate profile", Severity: SeverityWarning},
		{ID: RuleHighFanout, Description: "High fan-out tasks need careful validation", Severity: SeverityInfo, Threshold: 3},
		{ID: RuleWaiverExpiring, Description: "Waiver expiring soon", Severity: SeverityWarning},
	}
}

// CycleError builds the result for one dependency cycle. The cycle carries
// its closing node repeated at the end; the task list excludes it.
func CycleError(cycle []string) Result {
	return Result{
		RuleID:        RuleNoCycles,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Dependency cycle detected: %s", strings.Join(cycle, " -> ")),
		Tasks:         append([]string(nil), cycle[:len(cycle)-1]...),
		FixSuggestion: "Add override_deps_remove in plan-overrides.yaml to break cycle",
		Priority:      "critical",
	}
}

// CrossSprintError builds the result for a disallowed cross-sprint dependency.
func CrossSprintError(taskID string, taskSprint int, depID string, depSprint int) Result {
	return Result{
		RuleID:   RuleNoCrossSprintUnresolved,
		Severity: SeverityError,
		Message: fmt.Sprintf("Cross-sprint dependency: %s (Sprint %d) depends on %s (Sprint %d)",
			taskID, taskSprint, depID, depSprint),
		Tasks:         []string{taskID, depID},
		FixSuggestion: "Add sprint_override or override_deps_remove in plan-overrides.yaml, or set cross_sprint_allowed=Y",
		Priority:      "high",
	}
}

// UnresolvedDepError builds the result for a dependency on an unknown task.
func UnresolvedDepError(taskID, dep string) Result {
	return Result{
		RuleID:        RuleDepsResolve,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Task %s has unresolved dependency: %s", taskID, dep),
		Tasks:         []string{taskID},
		FixSuggestion: "Fix typo in dependency or add missing task to the sprint plan",
		Priority:      "high",
	}
}

// TierAMissingGates builds the result for a Tier A task without a gate profile.
func TierAMissingGates(taskID string) Result {
	return Result{
		RuleID:        RuleTierAGatesRequired,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Tier A task %s missing gate_profile", taskID),
		Tasks:         []string{taskID},
		FixSuggestion: "Add gate_profile to task in plan-overrides.yaml",
		Priority:      "high",
	}
}

// TierAMissingOwner builds the result for a Tier A task without an acceptance owner.
func TierAMissingOwner(taskID string) Result {
	return Result{
		RuleID:        RuleTierAOwnerRequired,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Tier A task %s missing acceptance_owner", taskID),
		Tasks:         []string{taskID},
		FixSuggestion: "Add acceptance_owner to task in plan-overrides.yaml",
		Priority:      "high",
	}
}

// TierAMissingEvidence builds the result for a Tier A task without evidence items.
func TierAMissingEvidence(taskID string) Result {
	return Result{
		RuleID:        RuleTierAEvidenceRequired,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Tier A task %s missing evidence_required", taskID),
		Tasks:         []string{taskID},
		FixSuggestion: "Add evidence_required list to task in plan-overrides.yaml",
		Priority:      "high",
	}
}

// TierAMissingAcceptance builds the result for a Tier A task without acceptance criteria.
func TierAMissingAcceptance(taskID string) Result {
	return Result{
		RuleID:        RuleTierAAcceptanceRequired,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Tier A task %s missing acceptance_criteria", taskID),
		Tasks:         []string{taskID},
		FixSuggestion: "Add an Acceptance Criteria value in the sprint plan",
		Priority:      "high",
	}
}

// DuplicateIDError builds the result for a task ID appearing more than once.
func DuplicateIDError(taskID string, count int) Result {
	return Result{
		RuleID:        RuleTaskIDUnique,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("Task ID %s appears %d times (must be unique)", taskID, count),
		Tasks:         []string{taskID},
		FixSuggestion: "Rename duplicate task IDs in the sprint plan",
		Priority:      "critical",
	}
}

// TierBMissingGates builds the advisory result for a Tier B task without gates.
func TierBMissingGates(taskID string) Result {
	return Result{
		RuleID:   RuleTierBMissingGates,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Tier B task %s missing gate_profile", taskID),
		Tasks:    []string{taskID},
		Priority: "medium",
	}
}

// HighFanoutInfo builds the informational result for a heavily depended-upon task.
func HighFanoutInfo(taskID string, fanout int) Result {
	return Result{
		RuleID:   RuleHighFanout,
		Severity: SeverityInfo,
		Message:  fmt.Sprintf("Task %s has %d direct dependents (high fan-out)", taskID, fanout),
		Tasks:    []string{taskID},
		Priority: "high",
		Metadata: map[string]any{"fanout": fanout},
	}
}

// MissingValidationWarning builds the result for a task absent from the
// validation coverage set.
func MissingValidationWarning(taskID, section string) Result {
	return Result{
		RuleID:   RuleMissingValidation,
		Severity: SeverityWarning,
		Message:  fmt.Sprintf("Task %s has no validation commands in validation.yaml", taskID),
		Tasks:    []string{taskID},
		Priority: "medium",
		Metadata: map[string]any{"section": section},
	}
}

// WaiverExpiring builds the result for a waiver inside the warning window.
// Lapsed waivers (zero or negative days remaining) escalate to errors.
func WaiverExpiring(taskID string, daysUntil int) Result {
	severity := SeverityWarning
	priority := "high"
	if daysUntil <= 0 {
		severity = SeverityError
		priority = "critical"
	}
	return Result{
		RuleID:   RuleWaiverExpiring,
		Severity: severity,
		Message:  fmt.Sprintf("Task %s waiver expires in %d days", taskID, daysUntil),
		Tasks:    []string{taskID},
		Priority: priority,
		Metadata: map[string]any{"days_until_expiry": daysUntil},
	}
}

// PhantomCompletionError builds the result for a Completed task whose declared
// artifacts do not exist on disk. suggestions maps missing paths to probable
// alternates and may be nil.
func PhantomCompletionError(taskID string, missing []string, suggestions map[string]string) Result {
	shown := missing
	if len(shown) > 3 {
		shown = shown[:3]
	}
	list := strings.Join(shown, ", ")
	if len(missing) > 3 {
		list += fmt.Sprintf(" (+%d more)", len(missing)-3)
	}

	fix := "Either create the missing artifacts or revert task status to In Progress"
	if len(suggestions) > 0 {
		var pairs []string
		for _, path := range missing {
			if alt, ok := suggestions[path]; ok {
				pairs = append(pairs, fmt.Sprintf("'%s' might be at '%s'", path, alt))
				if len(pairs) == 2 {
					break
				}
			}
		}
		if len(pairs) > 0 {
			fix = fmt.Sprintf("Possible path corrections: %s. Update the sprint plan or plan-overrides.yaml", strings.Join(pairs, "; "))
		}
	}

	meta := map[string]any{
		"missing_artifacts": missing,
		"missing_count":     len(missing),
	}
	if len(suggestions) > 0 {
		meta["suggestions"] = suggestions
	}

	return Result{
		RuleID:        RulePhantomCompletion,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("PHANTOM COMPLETION: Task %s marked Completed but missing artifacts: %s", taskID, list),
		Tasks:         []string{taskID},
		FixSuggestion: fix,
		Priority:      "critical",
		Metadata:      meta,
	}
}

// InvalidArtifactPathError builds the result for a declared artifact that
// reads as prose rather than a file path.
func InvalidArtifactPathError(taskID, invalidPath, reason string) Result {
	truncated := invalidPath
	if len(truncated) > 50 {
		truncated = truncated[:50]
	}
	return Result{
		RuleID:        RuleInvalidArtifactPath,
		Severity:      SeverityError,
		Message:       fmt.Sprintf("INVALID ARTIFACT PATH: Task %s has non-path artifact: '%s...' (%s)", taskID, truncated, reason),
		Tasks:         []string{taskID},
		FixSuggestion: "Replace prose descriptions with actual file paths in the sprint plan artifact column",
		Priority:      "critical",
		Metadata: map[string]any{
			"invalid_path": invalidPath,
			"reason":       reason,
		},
	}
}

// ArtifactSuggestionWarning builds the result for a declared artifact that is
// missing at its declared path but present at a known alternate location.
func ArtifactSuggestionWarning(taskID, expectedPath, suggestedPath string) Result {
	return Result{
		RuleID:   RuleArtifactPathSuggestion,
		Severity: SeverityWarning,
		Message: fmt.Sprintf("Task %s: artifact '%s' not found, but similar file exists at '%s'",
			taskID, expectedPath, suggestedPath),
		Tasks:         []string{taskID},
		FixSuggestion: fmt.Sprintf("Update the sprint plan or plan-overrides.yaml to use '%s'", suggestedPath),
		Priority:      "medium",
		Metadata: map[string]any{
			"expected_path":  expectedPath,
			"suggested_path": suggestedPath,
		},
	}
}
