// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/talyssonoliver/plantools/cmd/plantools/internal/clierr"
	"github.com/talyssonoliver/plantools/internal/planfile"
	"github.com/talyssonoliver/plantools/internal/project"
	"github.com/talyssonoliver/plantools/internal/report"
	"github.com/talyssonoliver/plantools/internal/task"
)

// statusBuckets maps task status onto the digest buckets, in display order.
var statusBuckets = []struct {
	name     string
	statuses []task.Status
}{
	{"completed", []task.Status{task.StatusCompleted}},
	{"running", []task.Status{task.StatusInProgress}},
	{"validating", []task.Status{task.StatusValidating}},
	{"blocked", []task.Status{task.StatusBlocked}},
	{"failed", []task.Status{task.StatusFailed}},
	{"ready", []task.Status{task.StatusPlanned, task.StatusBacklog}},
}

// NewDigestCommand returns the `plantools digest` command: per-sprint status
// counts written as a small JSON document.
func NewDigestCommand() *cobra.Command {
	var (
		sprint   int
		planPath string
		rootPath string
		outPath  string
	)

	cmd := &cobra.Command{
		Use:   "digest",
		Short: "Summarize sprint task status into a JSON digest",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootPath
			if root == "" {
				found, err := project.FindRoot(".")
				if err != nil {
					return clierr.Wrap(2, "failed to locate project root", err)
				}
				root = found
			}

			repo := &planfile.Repository{Path: resolvePath(root, planPath, defaultPlanFile)}
			tasks, err := repo.LoadTasks()
			if err != nil {
				return clierr.Wrap(2, "failed to load plan", err)
			}

			buckets := map[string]int{}
			total := 0
			for _, t := range tasks {
				if sprint > 0 && !t.InSprint(sprint) {
					continue
				}
				total++
				buckets[bucketFor(t.Status)]++
			}

			d := report.Digest{
				Sprint:      sprint,
				GeneratedAt: time.Now().UTC().Format(time.RFC3339),
				Buckets:     buckets,
				TotalTasks:  total,
			}

			target := outPath
			if target == "" {
				target = filepath.Join(root, fmt.Sprintf("sprint-%d-digest.json", sprint))
			}
			if err := report.WriteDigest(target, d); err != nil {
				return clierr.Wrap(2, "failed to write digest", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sprint %d: %d task(s)\n", sprint, total)
			for _, b := range statusBuckets {
				if n := buckets[b.name]; n > 0 {
					fmt.Fprintf(out, "  %-11s %d\n", b.name, n)
				}
			}
			fmt.Fprintf(out, "✓ Digest written to %s\n", target)
			return nil
		},
	}

	cmd.Flags().IntVarP(&sprint, "sprint", "s", 0, "Sprint to digest (0 = all tasks)")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan CSV (default <root>/plan.csv)")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Digest output path")

	return cmd
}

func bucketFor(s task.Status) string {
	for _, b := range statusBuckets {
		for _, st := range b.statuses {
			if s == st {
				return b.name
			}
		}
	}
	return "ready"
}
