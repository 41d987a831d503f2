// SPDX-License-Identifier: AGPL-3.0-or-later

// Package planfile reads and writes the sprint plan CSV, including the
// schema-v2 governance columns and their migration.
package planfile

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/talyssonoliver/plantools/internal/task"
)

// SchemaV2Columns are the governance columns added by the v2 plan schema.
var SchemaV2Columns = []string{
	"Tier",
	"Gate Profile",
	"Evidence Required",
	"Acceptance Criteria",
	"Artifacts Expected",
	"ADR Required",
	"Risk",
	"Review Required",
	"Waiver Policy",
	"CrossSprintAllowed",
	"CrossSprintReason",
}

// SchemaV2Defaults maps each v2 column to the value written for rows that
// predate the column.
var SchemaV2Defaults = map[string]string{
	"Tier":                "",
	"Gate Profile":        "none",
	"Evidence Required":   "",
	"Acceptance Criteria": "",
	"Artifacts Expected":  "",
	"ADR Required":        "N",
	"Risk":                "Low",
	"Review Required":     "",
	"Waiver Policy":       "none",
	"CrossSprintAllowed":  "N",
	"CrossSprintReason":   "",
}

// Repository reads and writes one sprint plan CSV file.
type Repository struct {
	Path string
}

// LoadTasks parses every row of the plan into a Task.
func (r *Repository) LoadTasks() ([]task.Task, error) {
	_, rows, err := r.LoadRaw()
	if err != nil {
		return nil, err
	}

	tasks := make([]task.Task, 0, len(rows))
	for i, row := range rows {
		t, err := rowToTask(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// LoadRaw returns the header list and each row as a header-keyed map,
// tolerating a UTF-8 BOM on the first header.
func (r *Repository) LoadRaw() ([]string, []map[string]string, error) {
	f, err := os.Open(r.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening plan file: %w", err)
	}
	defer func() { _ = f.Close() }()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("parsing plan CSV: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, nil
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make(map[string]string, len(headers))
		for i, header := range headers {
			if i < len(record) {
				row[header] = record[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}
	return headers, rows, nil
}

// Save writes the plan back out with the given header order. When backup is
// set, the previous file is first copied to <path>.bak.
func (r *Repository) Save(headers []string, rows []map[string]string, backup bool) error {
	if backup {
		if err := copyFile(r.Path, r.BackupPath()); err != nil {
			return fmt.Errorf("creating backup: %w", err)
		}
	}

	f, err := os.Create(r.Path)
	if err != nil {
		return fmt.Errorf("writing plan file: %w", err)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(headers); err != nil {
		return err
	}
	for _, row := range rows {
		record := make([]string, len(headers))
		for i, header := range headers {
			record[i] = row[header]
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// BackupPath returns the path the previous plan is copied to before a save.
func (r *Repository) BackupPath() string {
	return r.Path + ".bak"
}

// MissingSchemaV2Columns reports which v2 columns the plan lacks.
func (r *Repository) MissingSchemaV2Columns() ([]string, error) {
	headers, _, err := r.LoadRaw()
	if err != nil {
		return nil, err
	}
	present := make(map[string]struct{}, len(headers))
	for _, h := range headers {
		present[h] = struct{}{}
	}
	var missing []string
	for _, col := range SchemaV2Columns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing, nil
}

func rowToTask(row map[string]string) (task.Task, error) {
	// CleanDependencies is the pre-resolved list; fall back to the raw column.
	depsStr := row["CleanDependencies"]
	if depsStr == "" {
		depsStr = row["Dependencies"]
	}

	var sprint *int
	sprintStr := strings.TrimSpace(row["Target Sprint"])
	if sprintStr != "" && !strings.EqualFold(sprintStr, "continuous") {
		if n, err := strconv.Atoi(sprintStr); err == nil {
			sprint = &n
		}
	}

	artifactsStr := row["Artifacts Expected"]
	if artifactsStr == "" {
		artifactsStr = row["Artifacts To Track"]
	}

	t := task.Task{
		ID:                 strings.TrimSpace(row["Task ID"]),
		Section:            strings.TrimSpace(row["Section"]),
		Description:        strings.TrimSpace(row["Description"]),
		Owner:              strings.TrimSpace(row["Owner"]),
		Dependencies:       task.NormalizeDeps(splitList(depsStr)),
		Sprint:             sprint,
		Status:             task.ParseStatus(row["Status"]),
		Tier:               task.ParseTier(row["Tier"]),
		GateProfile:        task.ParseGateProfile(row["Gate Profile"]),
		AcceptanceOwner:    strings.TrimSpace(row["Acceptance Owner"]),
		EvidenceRequired:   splitList(row["Evidence Required"]),
		AcceptanceCriteria: strings.TrimSpace(row["Acceptance Criteria"]),
		ArtifactsExpected:  splitList(artifactsStr),
		ADRRequired:        yesNo(row["ADR Required"]),
		Risk:               defaultString(row["Risk"], "Low"),
		ReviewRequired:     yesNo(row["Review Required"]),
		WaiverPolicy:       defaultString(row["Waiver Policy"], "none"),
		CrossSprintAllowed: yesNo(row["CrossSprintAllowed"]),
		CrossSprintReason:  strings.TrimSpace(row["CrossSprintReason"]),
		DefinitionOfDone:   strings.TrimSpace(row["Definition of Done"]),
		KPIs:               strings.TrimSpace(row["KPIs"]),
		ValidationMethod:   strings.TrimSpace(row["Validation Method"]),
	}

	if err := t.Validate(); err != nil {
		return task.Task{}, err
	}
	return t, nil
}

func splitList(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func yesNo(raw string) bool {
	return strings.ToUpper(strings.TrimSpace(raw)) == "Y"
}

func defaultString(raw, fallback string) string {
	if raw = strings.TrimSpace(raw); raw != "" {
		return raw
	}
	return fallback
}

func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	return os.WriteFile(dst, data, 0o644)
}
