// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/talyssonoliver/plantools/cmd/plantools/internal/clierr"
	"github.com/talyssonoliver/plantools/internal/planfile"
	"github.com/talyssonoliver/plantools/internal/project"
)

// NewMigrateCommand returns the `plantools migrate` command: upgrade the plan
// CSV to the v2 governance schema in place.
func NewMigrateCommand() *cobra.Command {
	var (
		dryRun   bool
		planPath string
		rootPath string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Add governance columns to the plan CSV",
		Long:  "Migrate adds the v2 governance columns (tier, gate profile, evidence, waiver policy) with computed defaults. The original file is kept as a .bak backup. Idempotent.",
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
			result, err := repo.Migrate(dryRun)
			if err != nil {
				return clierr.Wrap(2, "migration failed", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, result.Message)
			if result.BackupPath != "" {
				fmt.Fprintf(out, "Backup written to %s\n", result.BackupPath)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would change without writing")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan CSV (default <root>/plan.csv)")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")

	return cmd
}
