// SPDX-License-Identifier: AGPL-3.0-or-later

package task

// Override is an externally supplied patch for a single task, keyed by task
// ID. Zero values mean "leave the base task's field alone"; dependency edits
// are applied as remove-then-add set operations.
type Override struct {
	TaskID             string   `yaml:"-"`
	Tier               string   `yaml:"tier"`
	GateProfiles       []string `yaml:"gate_profile"`
	AcceptanceOwner    string   `yaml:"acceptance_owner"`
	AcceptanceCriteria []string `yaml:"acceptance_criteria"`
	EvidenceRequired   []string `yaml:"evidence_required"`
	DepsAdd            []string `yaml:"override_deps_add"`
	DepsRemove         []string `yaml:"override_deps_remove"`
	SprintOverride     *int     `yaml:"sprint_override"`
	ExceptionPolicy    string   `yaml:"exception_policy"`
	DebtAllowed        bool     `yaml:"-"`
	WaiverExpiry       string   `yaml:"waiver_expiry"`
	Notes              string   `yaml:"notes"`
}

// HasGateProfile reports whether the override supplies at least one gate
// profile.
func (o *Override) HasGateProfile() bool {
	return o != nil && len(o.GateProfiles) > 0
}

// WithOverride returns a copy of the task with the override applied. A nil
// override returns the task unchanged. Applying the same override twice
// yields the same result as applying it once.
func (t Task) WithOverride(o *Override) Task {
	if o == nil {
		return t
	}

	out := t

	deps := make(map[string]struct{}, len(t.Dependencies))
	for _, d := range t.Dependencies {
		deps[d] = struct{}{}
	}
	for _, d := range o.DepsRemove {
		delete(deps, d)
	}
	for _, d := range o.DepsAdd {
		deps[d] = struct{}{}
	}
	merged := make([]string, 0, len(deps))
	for d := range deps {
		merged = append(merged, d)
	}
	out.Dependencies = NormalizeDeps(merged)

	if o.SprintOverride != nil {
		sprint := *o.SprintOverride
		out.Sprint = &sprint
	}
	if o.Tier != "" {
		out.Tier = ParseTier(o.Tier)
	}
	if len(o.GateProfiles) > 0 {
		out.GateProfile = ParseGateProfile(o.GateProfiles[0])
	}
	if o.AcceptanceOwner != "" {
		out.AcceptanceOwner = o.AcceptanceOwner
	}
	if len(o.EvidenceRequired) > 0 {
		out.EvidenceRequired = append([]string(nil), o.EvidenceRequired...)
	}

	return out
}

// ApplyOverrides maps each task through its override, leaving tasks without
// an override untouched. The input slice is not modified.
func ApplyOverrides(tasks []Task, overrides map[string]*Override) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.WithOverride(overrides[t.ID]))
	}
	return out
}
