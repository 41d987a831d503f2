// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"os"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/talyssonoliver/plantools/cmd/plantools/internal/clierr"
	"github.com/talyssonoliver/plantools/internal/planfile"
	"github.com/talyssonoliver/plantools/internal/project"
)

// NewArtifactsCommand returns the `plantools artifacts` command: resolve each
// declared artifact pattern against the working tree and flag declarations
// that match nothing.
func NewArtifactsCommand() *cobra.Command {
	var (
		sprint      int
		onlyMissing bool
		planPath    string
		rootPath    string
	)

	cmd := &cobra.Command{
		Use:   "artifacts",
		Short: "Resolve declared artifact patterns against the working tree",
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

			fsys := os.DirFS(root)
			out := cmd.OutOrStdout()
			unmatched := 0

			for _, t := range tasks {
				if sprint > 0 && !t.InSprint(sprint) {
					continue
				}
				if len(t.ArtifactsExpected) == 0 {
					continue
				}
				for _, pattern := range t.ArtifactsExpected {
					matches, err := doublestar.Glob(fsys, pattern)
					if err != nil {
						fmt.Fprintf(out, "%s: bad pattern %q: %v\n", t.ID, pattern, err)
						unmatched++
						continue
					}
					if len(matches) == 0 {
						unmatched++
						fmt.Fprintf(out, "%s: %s (no matches)\n", t.ID, pattern)
						continue
					}
					if onlyMissing {
						continue
					}
					sort.Strings(matches)
					fmt.Fprintf(out, "%s: %s -> %d file(s)\n", t.ID, pattern, len(matches))
					for _, m := range matches {
						fmt.Fprintf(out, "    %s\n", m)
					}
				}
			}

			if unmatched > 0 {
				return clierr.Newf(1, "%d artifact declaration(s) match nothing", unmatched)
			}
			fmt.Fprintln(out, "✓ All declared artifacts resolve")
			return nil
		},
	}

	cmd.Flags().IntVarP(&sprint, "sprint", "s", 0, "Restrict to one sprint (0 = all)")
	cmd.Flags().BoolVar(&onlyMissing, "missing", false, "Only print declarations with no matches")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan CSV (default <root>/plan.csv)")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")

	return cmd
}
