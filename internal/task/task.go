// SPDX-License-Identifier: AGPL-3.0-or-later

// Package task defines the plan task entity and its governance metadata.
package task

import (
	"errors"
	"sort"
	"strings"
)

// ErrEmptyID is returned when a task is constructed without an ID.
var ErrEmptyID = errors.New("task id cannot be empty")

// Tier classifies how strictly a task is governed.
type Tier string

const (
	TierA Tier = "A" // critical: full evidence pack, explicit gates
	TierB Tier = "B" // important: recommended gates
	TierC Tier = "C" // standard: default validation
)

// ParseTier parses a tier string, defaulting to C for anything unrecognized.
func ParseTier(raw string) Tier {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "A":
		return TierA
	case "B":
		return TierB
	default:
		return TierC
	}
}

// GateProfile names a predefined set of validation gates.
type GateProfile string

const (
	GateNone     GateProfile = "none"
	GateBasic    GateProfile = "basic"    // plan checks only
	GateStandard GateProfile = "standard" // plan checks + build + lint
	GateStrict   GateProfile = "strict"   // all gates including tests and audit
)

// ParseGateProfile parses a gate profile string. Unrecognized values map to
// none; custom profiles ("custom:<name>") are treated as strict so that a
// named profile never weakens validation.
func ParseGateProfile(raw string) GateProfile {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	if normalized == "" {
		return GateNone
	}
	if strings.HasPrefix(normalized, "custom:") {
		return GateStrict
	}
	switch GateProfile(normalized) {
	case GateNone, GateBasic, GateStandard, GateStrict:
		return GateProfile(normalized)
	default:
		return GateNone
	}
}

// Status is the execution state of a task.
type Status string

const (
	StatusPlanned    Status = "Planned"
	StatusInProgress Status = "In Progress"
	StatusValidating Status = "Validating"
	StatusCompleted  Status = "Completed"
	StatusBlocked    Status = "Blocked"
	StatusFailed     Status = "Failed"
	StatusBacklog    Status = "Backlog"
)

var allStatuses = []Status{
	StatusPlanned, StatusInProgress, StatusValidating,
	StatusCompleted, StatusBlocked, StatusFailed, StatusBacklog,
}

// ParseStatus parses a status string case-insensitively. "Done" is accepted
// as an alias for Completed; anything unrecognized defaults to Planned.
func ParseStatus(raw string) Status {
	normalized := strings.TrimSpace(raw)
	if normalized == "" {
		return StatusPlanned
	}
	for _, s := range allStatuses {
		if strings.EqualFold(string(s), normalized) {
			return s
		}
	}
	if strings.EqualFold(normalized, "done") {
		return StatusCompleted
	}
	return StatusPlanned
}

// Task is a single governance-tracked item in the sprint plan. It is a value
// type: overrides produce new values, the base is never mutated.
type Task struct {
	ID          string
	Section     string
	Description string
	Owner       string

	// Dependencies holds IDs of tasks this task depends on, sorted and
	// deduplicated.
	Dependencies []string

	// Sprint is nil for continuous (unscoped) tasks.
	Sprint *int

	Status             Status
	Tier               Tier
	GateProfile        GateProfile
	AcceptanceOwner    string
	EvidenceRequired   []string
	AcceptanceCriteria string
	ArtifactsExpected  []string
	ADRRequired        bool
	Risk               string
	ReviewRequired     bool
	WaiverPolicy       string
	CrossSprintAllowed bool
	CrossSprintReason  string
	DefinitionOfDone   string
	KPIs               string
	ValidationMethod   string
}

// Validate checks construction invariants. An empty ID is the one case that
// fails fast; every other malformed field degrades to a safe default at parse
// time instead.
func (t Task) Validate() error {
	if t.ID == "" {
		return ErrEmptyID
	}
	return nil
}

// IsTierAComplete reports whether Tier-A requirements are satisfied. Tasks in
// other tiers are always complete.
func (t Task) IsTierAComplete() bool {
	if t.Tier != TierA {
		return true
	}
	return t.AcceptanceOwner != "" &&
		t.GateProfile != GateNone &&
		len(t.EvidenceRequired) > 0 &&
		t.AcceptanceCriteria != ""
}

// RequiresReview reports whether a human must sign off on this task.
func (t Task) RequiresReview() bool {
	return t.ReviewRequired || t.Tier == TierA
}

// SprintNumber returns the task's sprint and whether one is set.
func (t Task) SprintNumber() (int, bool) {
	if t.Sprint == nil {
		return 0, false
	}
	return *t.Sprint, true
}

// InSprint reports whether the task belongs to the given sprint.
func (t Task) InSprint(sprint int) bool {
	return t.Sprint != nil && *t.Sprint == sprint
}

// NormalizeDeps sorts and deduplicates a dependency list.
func NormalizeDeps(deps []string) []string {
	seen := make(map[string]struct{}, len(deps))
	out := make([]string, 0, len(deps))
	for _, d := range deps {
		d = strings.TrimSpace(d)
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
