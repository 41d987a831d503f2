// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/talyssonoliver/plantools/cmd/plantools/internal/clierr"
	"github.com/talyssonoliver/plantools/internal/debt"
	"github.com/talyssonoliver/plantools/internal/project"
	"github.com/talyssonoliver/plantools/internal/report"
)

const debtLedgerFile = "debt-ledger.jsonl"

// NewDebtCommand returns the `plantools debt` command group.
func NewDebtCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debt",
		Short: "Track technical-debt entries against plan tasks",
	}

	cmd.AddCommand(newDebtAddCommand())
	cmd.AddCommand(newDebtListCommand())

	return cmd
}

func newDebtAddCommand() *cobra.Command {
	var (
		taskID      string
		category    string
		severity    string
		owner       string
		description string
		remediation string
		expiry      string
		rootPath    string
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a new debt entry",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootPath
			if root == "" {
				found, err := project.FindRoot(".")
				if err != nil {
					return clierr.Wrap(2, "failed to locate project root", err)
				}
				root = found
			}
			if taskID == "" {
				return clierr.New(2, "--task is required")
			}

			entry := debt.Entry{
				DebtID:      debt.NewID(),
				TaskID:      taskID,
				Category:    debt.Category(category),
				Severity:    debt.Severity(severity),
				Owner:       owner,
				Description: description,
				Remediation: remediation,
				ExpiryDate:  expiry,
				CreatedAt:   time.Now().UTC(),
			}
			if expiry != "" {
				if _, err := time.Parse("2006-01-02", expiry); err != nil {
					return clierr.Wrap(2, "invalid --expiry (want YYYY-MM-DD)", err)
				}
			}

			path := filepath.Join(root, debtLedgerFile)
			if err := report.AppendJSONL(path, entry); err != nil {
				return clierr.Wrap(2, "failed to append debt entry", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Recorded %s against %s\n", entry.DebtID, taskID)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "Task the debt is recorded against")
	cmd.Flags().StringVar(&category, "category", string(debt.CategoryValidation), "Debt category (security|tests|architecture|build|docs|perf|validation)")
	cmd.Flags().StringVar(&severity, "severity", string(debt.SeverityMedium), "Severity (critical|high|medium|low)")
	cmd.Flags().StringVar(&owner, "owner", "", "Remediation owner")
	cmd.Flags().StringVar(&description, "description", "", "What was deferred")
	cmd.Flags().StringVar(&remediation, "remediation", "", "How it will be paid down")
	cmd.Flags().StringVar(&expiry, "expiry", "", "Expiry date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")

	return cmd
}

func newDebtListCommand() *cobra.Command {
	var (
		taskID   string
		expired  bool
		rootPath string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active debt entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			root := rootPath
			if root == "" {
				found, err := project.FindRoot(".")
				if err != nil {
					return clierr.Wrap(2, "failed to locate project root", err)
				}
				root = found
			}

			ledger, err := debt.LoadLedger(filepath.Join(root, debtLedgerFile))
			if err != nil {
				return clierr.Wrap(2, "failed to load debt ledger", err)
			}

			now := time.Now().UTC()
			entries := ledger.Active()
			if taskID != "" {
				entries = filterByTask(entries, taskID)
			}
			if expired {
				entries = filterExpired(entries, now)
			}

			out := cmd.OutOrStdout()
			if len(entries) == 0 {
				fmt.Fprintln(out, "No active debt entries")
				return nil
			}
			for _, e := range entries {
				line := fmt.Sprintf("%s  %-8s %-12s %s", e.DebtID, e.Severity, e.Category, e.TaskID)
				if days, ok := e.DaysUntilExpiry(now); ok {
					if days < 0 {
						line += "  EXPIRED"
					} else {
						line += fmt.Sprintf("  expires in %dd", days)
					}
				}
				fmt.Fprintln(out, line)
			}

			s := ledger.Summarize(now)
			fmt.Fprintf(out, "\n%d active, %d resolved, %d expired, %d expiring soon\n",
				s.TotalActive, s.TotalResolved, s.Expired, s.ExpiringSoon)
			return nil
		},
	}

	cmd.Flags().StringVar(&taskID, "task", "", "Only entries for this task")
	cmd.Flags().BoolVar(&expired, "expired", false, "Only entries past their expiry")
	cmd.Flags().StringVar(&rootPath, "root", "", "Project root (default: auto-detected)")

	return cmd
}

func filterByTask(entries []debt.Entry, taskID string) []debt.Entry {
	var out []debt.Entry
	for _, e := range entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

func filterExpired(entries []debt.Entry, now time.Time) []debt.Entry {
	var out []debt.Entry
	for _, e := range entries {
		if e.IsExpired(now) {
			out = append(out, e)
		}
	}
	return out
}
