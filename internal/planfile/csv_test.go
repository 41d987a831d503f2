// SPDX-License-Identifier: AGPL-3.0-or-later

package planfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talyssonoliver/plantools/internal/task"
)

const planV2 = `Task ID,Section,Description,Owner,Dependencies,CleanDependencies,Target Sprint,Status,Tier,Gate Profile,Evidence Required,Acceptance Criteria,Artifacts Expected,ADR Required,Risk,Review Required,Waiver Policy,CrossSprintAllowed,CrossSprintReason
IFC-001,Infra,Provision cluster,devops,,,1,Completed,A,strict,"reports/cluster.md, docs/runbook.md",Cluster reachable,infra/cluster.tf,Y,High,Y,none,N,
IFC-002,Infra,Wire DNS,devops,IFC-001,IFC-001,1,In Progress,C,none,,,,N,,N,,Y,Platform dependency
IFC-003,Docs,Write onboarding guide,docs-team,,,continuous,Planned,,,,,,,,,,,
`

func writePlan(t *testing.T, content string) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return &Repository{Path: path}
}

func TestLoadTasks(t *testing.T) {
	repo := writePlan(t, planV2)

	tasks, err := repo.LoadTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	first := tasks[0]
	assert.Equal(t, "IFC-001", first.ID)
	assert.Equal(t, task.StatusCompleted, first.Status)
	assert.Equal(t, task.TierA, first.Tier)
	assert.Equal(t, task.GateStrict, first.GateProfile)
	assert.Equal(t, []string{"reports/cluster.md", "docs/runbook.md"}, first.EvidenceRequired)
	assert.Equal(t, []string{"infra/cluster.tf"}, first.ArtifactsExpected)
	assert.True(t, first.ADRRequired)
	assert.Equal(t, "High", first.Risk)
	require.NotNil(t, first.Sprint)
	assert.Equal(t, 1, *first.Sprint)

	second := tasks[1]
	assert.Equal(t, []string{"IFC-001"}, second.Dependencies)
	assert.True(t, second.CrossSprintAllowed)
	assert.Equal(t, "Platform dependency", second.CrossSprintReason)
	assert.Equal(t, "Low", second.Risk, "empty risk falls back to Low")
	assert.Equal(t, "none", second.WaiverPolicy)

	third := tasks[2]
	assert.Nil(t, third.Sprint, "continuous tasks carry no sprint")
	assert.Equal(t, task.StatusPlanned, third.Status)
	assert.Equal(t, task.TierC, third.Tier, "empty tier defaults to C")
}

func TestLoadTasks_BOMHeader(t *testing.T) {
	repo := writePlan(t, "\uFEFF"+planV2)

	tasks, err := repo.LoadTasks()
	require.NoError(t, err)
	require.Len(t, tasks, 3)
	assert.Equal(t, "IFC-001", tasks[0].ID)
}

func TestLoadTasks_EmptyIDFails(t *testing.T) {
	repo := writePlan(t, "Task ID,Status\n,Planned\n")

	_, err := repo.LoadTasks()
	require.Error(t, err)
	assert.ErrorIs(t, err, task.ErrEmptyID)
	assert.Contains(t, err.Error(), "row 2")
}

func TestLoadTasks_MissingFile(t *testing.T) {
	repo := &Repository{Path: filepath.Join(t.TempDir(), "nope.csv")}
	_, err := repo.LoadTasks()
	assert.Error(t, err)
}

func TestLoadRaw_RaggedRows(t *testing.T) {
	repo := writePlan(t, "Task ID,Status,Owner\nT-1,Planned\n")

	_, rows, err := repo.LoadRaw()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "", rows[0]["Owner"], "short rows pad with empty strings")
}

func TestSave_RoundTripWithBackup(t *testing.T) {
	repo := writePlan(t, planV2)

	headers, rows, err := repo.LoadRaw()
	require.NoError(t, err)
	rows[0]["Status"] = "Blocked"
	require.NoError(t, repo.Save(headers, rows, true))

	_, err = os.Stat(repo.BackupPath())
	require.NoError(t, err, "backup should exist")

	tasks, err := repo.LoadTasks()
	require.NoError(t, err)
	assert.Equal(t, task.StatusBlocked, tasks[0].Status)
}

func TestMissingSchemaV2Columns(t *testing.T) {
	repo := writePlan(t, "Task ID,Description,Dependencies,Target Sprint,Status\nT-1,Do things,,1,Planned\n")

	missing, err := repo.MissingSchemaV2Columns()
	require.NoError(t, err)
	assert.Equal(t, SchemaV2Columns, missing)

	full := writePlan(t, planV2)
	missing, err = full.MissingSchemaV2Columns()
	require.NoError(t, err)
	assert.Empty(t, missing)
}
