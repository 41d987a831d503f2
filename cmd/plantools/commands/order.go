// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/talyssonoliver/plantools/cmd/plantools/internal/clierr"
	"github.com/talyssonoliver/plantools/internal/config"
	"github.com/talyssonoliver/plantools/internal/graph"
	"github.com/talyssonoliver/plantools/internal/planfile"
	"github.com/talyssonoliver/plantools/internal/project"
	"github.com/talyssonoliver/plantools/internal/task"
)

// NewOrderCommand returns the `plantools order` command: a topological
// execution order for the plan, or the cycle that prevents one.
func NewOrderCommand() *cobra.Command {
	var (
		sprint    int
		planPath  string
		overrides string
		rootPath  string
	)

	cmd := &cobra.Command{
		Use:   "order",
		Short: "Print a dependency-respecting execution order",
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
			ov, err := config.LoadOverrides(resolvePath(root, overrides, defaultOverridesFile))
			if err != nil {
				return clierr.Wrap(2, "failed to load overrides", err)
			}

			resolved := task.ApplyOverrides(tasks, ov)
			g := graph.FromTasks(resolved)

			order, err := g.TopologicalSort()
			var cycleErr *graph.CycleError
			if errors.As(err, &cycleErr) {
				return clierr.Newf(1, "no valid order: cycle %s", strings.Join(cycleErr.Cycle, " -> "))
			}
			if err != nil {
				return clierr.Wrap(2, "failed to order plan", err)
			}

			sprintByID := map[string]int{}
			for _, t := range resolved {
				if n, ok := t.SprintNumber(); ok {
					sprintByID[t.ID] = n
				}
			}

			out := cmd.OutOrStdout()
			position := 0
			for _, id := range order {
				if sprint > 0 {
					if n, ok := sprintByID[id]; !ok || n != sprint {
						continue
					}
				}
				position++
				fmt.Fprintf(out, "%3d. %s\n", position, id)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&sprint, "sprint", "s", 0, "Only print tasks from one sprint (order stays global)")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan CSV (default <root>/plan.csv)")
	cmd.Flags().StringVar(&overrides, "overrides", "", "Path to plan-overrides.yaml")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")

	return cmd
}
