// SPDX-License-Identifier: AGPL-3.0-or-later

package planfile

import (
	"fmt"
	"strings"
)

// MigrateResult reports what a schema migration did (or would do).
type MigrateResult struct {
	ColumnsAdded []string
	RowsUpdated  int
	BackupPath   string
	Message      string
}

// Migrate adds the missing schema-v2 governance columns with their defaults.
// Running it on an already-migrated plan is a no-op.
func (r *Repository) Migrate(dryRun bool) (*MigrateResult, error) {
	missing, err := r.MissingSchemaV2Columns()
	if err != nil {
		return nil, err
	}
	if len(missing) == 0 {
		return &MigrateResult{
			Message: "Schema already at v2, no migration needed",
		}, nil
	}

	headers, rows, err := r.LoadRaw()
	if err != nil {
		return nil, err
	}

	newHeaders := append(append([]string(nil), headers...), missing...)
	for _, row := range rows {
		for _, col := range missing {
			row[col] = SchemaV2Defaults[col]
		}
	}

	if dryRun {
		return &MigrateResult{
			ColumnsAdded: missing,
			RowsUpdated:  len(rows),
			Message:      fmt.Sprintf("DRY RUN: Would add %d columns to %d rows", len(missing), len(rows)),
		}, nil
	}

	if err := r.Save(newHeaders, rows, true); err != nil {
		return nil, err
	}

	return &MigrateResult{
		ColumnsAdded: missing,
		RowsUpdated:  len(rows),
		BackupPath:   r.BackupPath(),
		Message:      fmt.Sprintf("Added %d columns to %d rows", len(missing), len(rows)),
	}, nil
}

// ComputeTierDefaults fills empty Tier cells heuristically: security tasks
// and root tasks (no dependencies) get Tier A, heavily depended-upon tasks
// get Tier A, environment and AI setup tasks get Tier B, everything else C.
// Rows are modified in place.
func ComputeTierDefaults(rows []map[string]string) {
	depCount := make(map[string]int)
	for _, row := range rows {
		deps := row["CleanDependencies"]
		if deps == "" {
			deps = row["Dependencies"]
		}
		for _, dep := range strings.Split(deps, ",") {
			if dep = strings.TrimSpace(dep); dep != "" {
				depCount[dep]++
			}
		}
	}

	for _, row := range rows {
		if strings.TrimSpace(row["Tier"]) != "" {
			continue
		}

		taskID := row["Task ID"]
		deps := row["CleanDependencies"]
		if deps == "" {
			deps = row["Dependencies"]
		}
		hasDeps := strings.TrimSpace(deps) != ""

		switch {
		case strings.HasPrefix(taskID, "EXC-SEC-"):
			row["Tier"] = "A"
		case !hasDeps:
			row["Tier"] = "A" // root task
		case depCount[taskID] >= 3:
			row["Tier"] = "A" // high fan-out
		case strings.HasPrefix(taskID, "ENV-") || strings.HasPrefix(taskID, "AI-SETUP-"):
			row["Tier"] = "B"
		default:
			row["Tier"] = "C"
		}
	}
}
