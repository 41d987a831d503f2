// SPDX-License-Identifier: AGPL-3.0-or-later

package planfile

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const planV1 = `Task ID,Description,Dependencies,Target Sprint,Status
EXC-SEC-001,Security audit,,1,Planned
ENV-001,Set up staging,EXC-SEC-001,1,Planned
APP-001,Build API,ENV-001,2,Planned
APP-002,Build web,ENV-001,2,Planned
APP-003,Build worker,ENV-001,2,Planned
`

func TestMigrate_DryRun(t *testing.T) {
	repo := writePlan(t, planV1)

	result, err := repo.Migrate(true)
	require.NoError(t, err)
	assert.Equal(t, SchemaV2Columns, result.ColumnsAdded)
	assert.Equal(t, 5, result.RowsUpdated)
	assert.Equal(t, "DRY RUN: Would add 11 columns to 5 rows", result.Message)

	// Nothing written.
	missing, err := repo.MissingSchemaV2Columns()
	require.NoError(t, err)
	assert.Len(t, missing, len(SchemaV2Columns))
	_, err = os.Stat(repo.BackupPath())
	assert.True(t, os.IsNotExist(err))
}

func TestMigrate_AddsColumnsWithDefaults(t *testing.T) {
	repo := writePlan(t, planV1)

	result, err := repo.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, "Added 11 columns to 5 rows", result.Message)
	assert.Equal(t, repo.BackupPath(), result.BackupPath)

	_, err = os.Stat(repo.BackupPath())
	require.NoError(t, err)

	missing, err := repo.MissingSchemaV2Columns()
	require.NoError(t, err)
	assert.Empty(t, missing)

	_, rows, err := repo.LoadRaw()
	require.NoError(t, err)
	assert.Equal(t, "none", rows[0]["Gate Profile"])
	assert.Equal(t, "Low", rows[0]["Risk"])
	assert.Equal(t, "N", rows[0]["CrossSprintAllowed"])
}

func TestMigrate_Idempotent(t *testing.T) {
	repo := writePlan(t, planV1)

	_, err := repo.Migrate(false)
	require.NoError(t, err)

	again, err := repo.Migrate(false)
	require.NoError(t, err)
	assert.Equal(t, "Schema already at v2, no migration needed", again.Message)
	assert.Empty(t, again.ColumnsAdded)
}

func TestComputeTierDefaults(t *testing.T) {
	rows := []map[string]string{
		{"Task ID": "EXC-SEC-001", "Dependencies": "APP-001", "Tier": ""},
		{"Task ID": "ROOT-001", "Dependencies": "", "Tier": ""},
		{"Task ID": "HUB-001", "Dependencies": "ROOT-001", "Tier": ""},
		{"Task ID": "ENV-001", "Dependencies": "ROOT-001", "Tier": ""},
		{"Task ID": "APP-001", "Dependencies": "HUB-001", "Tier": ""},
		{"Task ID": "APP-002", "Dependencies": "HUB-001", "Tier": ""},
		{"Task ID": "APP-003", "Dependencies": "HUB-001", "Tier": ""},
		{"Task ID": "KEEP-001", "Dependencies": "HUB-001", "Tier": "B"},
	}

	ComputeTierDefaults(rows)

	assert.Equal(t, "A", rows[0]["Tier"], "security prefix")
	assert.Equal(t, "A", rows[1]["Tier"], "root task")
	assert.Equal(t, "A", rows[2]["Tier"], "three dependents")
	assert.Equal(t, "B", rows[3]["Tier"], "environment prefix")
	assert.Equal(t, "C", rows[4]["Tier"])
	assert.Equal(t, "B", rows[7]["Tier"], "preset tier untouched")
}
