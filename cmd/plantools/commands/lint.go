// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/talyssonoliver/plantools/cmd/plantools/internal/clierr"
	"github.com/talyssonoliver/plantools/internal/config"
	"github.com/talyssonoliver/plantools/internal/lint"
	"github.com/talyssonoliver/plantools/internal/planfile"
	"github.com/talyssonoliver/plantools/internal/project"
	"github.com/talyssonoliver/plantools/internal/report"
	"github.com/talyssonoliver/plantools/internal/rules"
)

const (
	defaultPlanFile       = "plan.csv"
	defaultOverridesFile  = "plan-overrides.yaml"
	defaultValidationFile = "validation.yaml"

	lintReportFile  = "plan-lint-report.json"
	reviewQueueFile = "review-queue.json"
)

// NewLintCommand returns the `plantools lint` command. Plan findings exit 1;
// failures to load inputs exit 2.
func NewLintCommand() *cobra.Command {
	var (
		sprint         int
		allSprints     bool
		jsonOutput     bool
		planPath       string
		overridesPath  string
		validationPath string
		rootPath       string
		noReport       bool
	)

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Validate the plan against governance rules",
		Long:  "Lint checks dependency cycles, cross-sprint references, Tier A gates, phantom completions, and artifact paths, then emits JSON reports and a review queue.",
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

			overrideFile := resolvePath(root, overridesPath, defaultOverridesFile)
			overrides, err := config.LoadOverrides(overrideFile)
			if err != nil {
				return clierr.Wrap(2, "failed to load overrides", err)
			}
			coverage, err := config.LoadValidationCoverage(resolvePath(root, validationPath, defaultValidationFile))
			if err != nil {
				return clierr.Wrap(2, "failed to load validation coverage", err)
			}
			linterCfg, err := config.LoadLinterConfig(overrideFile)
			if err != nil {
				return clierr.Wrap(2, "failed to load linter config", err)
			}

			linter := &lint.Linter{
				Tasks:              tasks,
				Overrides:          overrides,
				ValidationCoverage: coverage,
				FanoutThreshold:    linterCfg.FanoutThreshold,
				WaiverWarningDays:  linterCfg.WaiverWarningDays,
				ProjectRoot:        root,
			}
			scopeLabel := "all"
			if !allSprints && sprint > 0 {
				s := sprint
				linter.SprintScope = &s
				scopeLabel = fmt.Sprintf("%d", sprint)
			}

			rep := linter.Run()

			verbose, _ := cmd.Flags().GetBool("verbose")
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(rep); err != nil {
					return clierr.Wrap(2, "failed to encode report", err)
				}
			} else {
				printReport(cmd, rep, scopeLabel, verbose)
			}

			if !noReport {
				now := linter.Clock()
				if err := report.WriteLintReport(filepath.Join(root, lintReportFile), rep, scopeLabel, now); err != nil {
					return clierr.Wrap(2, "failed to write lint report", err)
				}
				if err := report.WriteReviewQueue(filepath.Join(root, reviewQueueFile), rep.ReviewQueue, scopeLabel, now); err != nil {
					return clierr.Wrap(2, "failed to write review queue", err)
				}
			}

			if rep.HasErrors() {
				return clierr.Newf(1, "plan lint failed: %d error(s)", len(rep.Errors))
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&sprint, "sprint", "s", 0, "Restrict checks to one sprint (0 = all)")
	cmd.Flags().BoolVarP(&allSprints, "all-sprints", "a", false, "Check every sprint (default)")
	cmd.Flags().BoolVarP(&jsonOutput, "json", "j", false, "Emit the full report as JSON on stdout")
	cmd.Flags().StringVar(&planPath, "plan", "", "Path to the plan CSV (default <root>/plan.csv)")
	cmd.Flags().StringVar(&overridesPath, "overrides", "", "Path to plan-overrides.yaml")
	cmd.Flags().StringVar(&validationPath, "validation", "", "Path to validation.yaml")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")
	cmd.Flags().BoolVar(&noReport, "no-report", false, "Skip writing JSON report files")

	return cmd
}

func resolvePath(root, explicit, fallback string) string {
	if explicit != "" {
		return explicit
	}
	return filepath.Join(root, fallback)
}

func printReport(cmd *cobra.Command, rep *lint.Report, scope string, verbose bool) {
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Plan lint (sprint scope: %s)\n", scope)
	fmt.Fprintf(out, "Checked %d task(s)\n\n", rep.Summary.TotalTasks)

	for _, r := range rep.Errors {
		printResult(out, r)
	}
	for _, r := range rep.Warnings {
		printResult(out, r)
	}

	if len(rep.ReviewQueue) > 0 {
		fmt.Fprintf(out, "\nReview queue (%d):\n", len(rep.ReviewQueue))
		for _, e := range rep.ReviewQueue {
			fmt.Fprintf(out, "  [%s] %s (%s)\n", e.Priority, e.TaskID, joinReasons(e.Reasons))
		}
	}

	if verbose {
		s := rep.Summary
		fmt.Fprintf(out, "\nTier breakdown: A=%d B=%d C=%d\n",
			s.TierBreakdown["A"], s.TierBreakdown["B"], s.TierBreakdown["C"])
		fmt.Fprintf(out, "Validation coverage: %d%% (%d/%d)\n",
			s.ValidationCoverage.CoveragePercentage,
			s.ValidationCoverage.TasksWithValidation,
			s.TotalTasks)
		fmt.Fprintf(out, "Dependencies: %d total, %d orphan task(s)\n",
			s.DependencyStats.TotalDependencies, s.DependencyStats.OrphanTasks)
	}

	fmt.Fprintln(out)
	if len(rep.Errors) == 0 {
		fmt.Fprintf(out, "✓ Plan lint passed (%d warning(s))\n", len(rep.Warnings))
	} else {
		fmt.Fprintf(out, "✗ Plan lint failed: %d error(s), %d warning(s)\n",
			len(rep.Errors), len(rep.Warnings))
	}
}

func printResult(out io.Writer, r rules.Result) {
	marker := "WARN"
	if r.IsError() {
		marker = "ERROR"
	}
	fmt.Fprintf(out, "%s [%s] %s\n", marker, r.RuleID, r.Message)
	if r.FixSuggestion != "" {
		fmt.Fprintf(out, "      fix: %s\n", r.FixSuggestion)
	}
}

func joinReasons(reasons []string) string {
	switch len(reasons) {
	case 0:
		return ""
	case 1:
		return reasons[0]
	}
	out := reasons[0]
	for _, r := range reasons[1:] {
		out += "; " + r
	}
	return out
}
