// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/talyssonoliver/plantools/internal/lint"
)

// RenderHeader renders a Markdown header line.
func RenderHeader(level int, text string) string {
	return fmt.Sprintf("%s %s\n\n", strings.Repeat("#", level), text)
}

// RenderTable renders a Markdown table. Rows are emitted in the order given;
// sort first if determinism matters.
func RenderTable(headers []string, rows [][]string) string {
	var b strings.Builder

	b.WriteString("| " + strings.Join(headers, " | ") + " |\n")
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")
	for _, row := range rows {
		b.WriteString("| " + strings.Join(row, " | ") + " |\n")
	}

	return b.String()
}

// RenderSummary renders the lint outcome as a Markdown document for humans.
func RenderSummary(rep *lint.Report, scope string) string {
	var b strings.Builder

	b.WriteString(RenderHeader(1, fmt.Sprintf("Plan Lint Report (sprint %s)", scope)))

	s := rep.Summary
	tiers := make([]string, 0, len(s.TierBreakdown))
	for tier := range s.TierBreakdown {
		tiers = append(tiers, tier)
	}
	sort.Strings(tiers)
	tierCells := make([]string, 0, len(tiers))
	for _, tier := range tiers {
		tierCells = append(tierCells, fmt.Sprintf("%s=%d", tier, s.TierBreakdown[tier]))
	}

	b.WriteString(RenderTable(
		[]string{"Tasks", "Tiers", "Errors", "Warnings", "Review queue", "Coverage"},
		[][]string{{
			fmt.Sprintf("%d", s.TotalTasks),
			strings.Join(tierCells, " "),
			fmt.Sprintf("%d", s.ErrorCount),
			fmt.Sprintf("%d", s.WarningCount),
			fmt.Sprintf("%d", s.ReviewQueueSize),
			fmt.Sprintf("%d%%", s.ValidationCoverage.CoveragePercentage),
		}},
	))
	b.WriteString("\n")

	if len(rep.Errors) > 0 {
		b.WriteString(RenderHeader(2, "Errors"))
		rows := make([][]string, 0, len(rep.Errors))
		for _, e := range rep.Errors {
			rows = append(rows, []string{e.RuleID, strings.Join(e.Tasks, ", "), e.Message})
		}
		b.WriteString(RenderTable([]string{"Rule", "Tasks", "Message"}, rows))
		b.WriteString("\n")
	}

	if len(rep.ReviewQueue) > 0 {
		b.WriteString(RenderHeader(2, "Review queue"))
		rows := make([][]string, 0, len(rep.ReviewQueue))
		for _, entry := range rep.ReviewQueue {
			rows = append(rows, []string{
				entry.TaskID,
				entry.Tier,
				entry.Priority,
				strings.Join(entry.Reasons, "; "),
			})
		}
		b.WriteString(RenderTable([]string{"Task", "Tier", "Priority", "Reasons"}, rows))
	}

	return b.String()
}
