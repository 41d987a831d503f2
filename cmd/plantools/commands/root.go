// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands contains the Cobra command tree for the plantools CLI.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd constructs the plantools root Cobra command.
func NewRootCmd() *cobra.Command {
	version := os.Getenv("PLANTOOLS_VERSION")
	if version == "" {
		version = "0.0.0-dev"
	}

	cmd := &cobra.Command{
		Use:           "plantools",
		Short:         "Plan governance and dependency tooling",
		Long:          "Plantools validates sprint plans: dependency cycles, cross-sprint discipline, governance gates, and artifact evidence.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number of plantools",
		Run: func(cmd *cobra.Command, args []string) {
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "plantools version %s\n", version)
		},
	})

	cmd.AddCommand(NewLintCommand())
	cmd.AddCommand(NewOrderCommand())
	cmd.AddCommand(NewDigestCommand())
	cmd.AddCommand(NewMigrateCommand())
	cmd.AddCommand(NewDebtCommand())
	cmd.AddCommand(NewArtifactsCommand())

	return cmd
}
