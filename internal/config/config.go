// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config loads the YAML sidecar files that steer a lint run:
// plan-overrides.yaml (per-task patches plus linter settings) and
// validation.yaml (external validation coverage). Missing files are treated
// as empty configuration, never as errors.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/talyssonoliver/plantools/internal/task"
)

// Linter holds the tunable thresholds read from plan-overrides.yaml.
type Linter struct {
	FanoutThreshold   int `yaml:"fanout_threshold"`
	WaiverWarningDays int `yaml:"waiver_warning_days"`
}

// metadata keys in plan-overrides.yaml that are not task IDs
var skipKeys = map[string]struct{}{
	"schema_version": {},
	"last_updated":   {},
	"maintainer":     {},
	"gate_profiles":  {},
	"linter_config":  {},
}

// rawOverride mirrors the YAML shape of one override entry. debt_allowed is
// decoded loosely: the plan files use true, "yes", and "Y" interchangeably.
type rawOverride struct {
	task.Override `yaml:",inline"`
	DebtAllowed   any `yaml:"debt_allowed"`
}

// LoadOverrides reads plan-overrides.yaml into a map keyed by task ID.
func LoadOverrides(path string) (map[string]*task.Override, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]*task.Override{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading overrides file: %w", err)
	}

	var doc map[string]yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing overrides YAML: %w", err)
	}

	overrides := make(map[string]*task.Override)
	for key, node := range doc {
		if strings.HasPrefix(key, "_") {
			continue
		}
		if _, skip := skipKeys[key]; skip {
			continue
		}
		if node.Kind != yaml.MappingNode {
			continue
		}

		var raw rawOverride
		if err := node.Decode(&raw); err != nil {
			return nil, fmt.Errorf("parsing override for %s: %w", key, err)
		}

		o := raw.Override
		o.TaskID = key
		o.DebtAllowed = debtAllowed(raw.DebtAllowed)
		overrides[key] = &o
	}

	return overrides, nil
}

func debtAllowed(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value == "yes" || value == "Y"
	default:
		return false
	}
}

// LoadValidationCoverage reads validation.yaml and returns the set of task
// IDs that have an external validation definition.
func LoadValidationCoverage(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading validation file: %w", err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing validation YAML: %w", err)
	}

	coverage := make(map[string]struct{}, len(doc))
	for key := range doc {
		coverage[key] = struct{}{}
	}
	return coverage, nil
}

// LoadLinterConfig reads the linter_config block from plan-overrides.yaml,
// falling back to the package defaults for anything unset.
func LoadLinterConfig(path string) (Linter, error) {
	cfg := Linter{FanoutThreshold: 3, WaiverWarningDays: 30}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("reading overrides file: %w", err)
	}

	var doc struct {
		LinterConfig Linter `yaml:"linter_config"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return cfg, fmt.Errorf("parsing overrides YAML: %w", err)
	}

	if doc.LinterConfig.FanoutThreshold > 0 {
		cfg.FanoutThreshold = doc.LinterConfig.FanoutThreshold
	}
	if doc.LinterConfig.WaiverWarningDays > 0 {
		cfg.WaiverWarningDays = doc.LinterConfig.WaiverWarningDays
	}
	return cfg, nil
}

// GateProfileDef is one named gate profile definition from plan-overrides.yaml.
type GateProfileDef struct {
	Description string   `yaml:"description"`
	Gates       []string `yaml:"gates"`
}

// LoadGateProfiles reads the gate_profiles block from plan-overrides.yaml.
func LoadGateProfiles(path string) (map[string]GateProfileDef, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]GateProfileDef{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading overrides file: %w", err)
	}

	var doc struct {
		GateProfiles map[string]GateProfileDef `yaml:"gate_profiles"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing overrides YAML: %w", err)
	}
	if doc.GateProfiles == nil {
		return map[string]GateProfileDef{}, nil
	}
	return doc.GateProfiles, nil
}
