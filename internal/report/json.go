// SPDX-License-Identifier: AGPL-3.0-or-later

package report

import (
	"time"

	"github.com/talyssonoliver/plantools/internal/lint"
	"github.com/talyssonoliver/plantools/internal/rules"
)

const schemaVersion = "1.0.0"

// Meta is the header block common to every report document.
type Meta struct {
	GeneratedAt   string `json:"generated_at"`
	SchemaVersion string `json:"schema_version,omitempty"`
	SprintScope   string `json:"sprint_scope"`
}

func newMeta(scope string, now time.Time) Meta {
	return Meta{
		GeneratedAt:   now.UTC().Format(time.RFC3339),
		SchemaVersion: schemaVersion,
		SprintScope:   scope,
	}
}

// LintReport is the on-disk shape of plan-lint-report.json.
type LintReport struct {
	Meta        Meta               `json:"meta"`
	Summary     lint.Summary       `json:"summary"`
	Errors      []rules.Result     `json:"errors"`
	Warnings    []rules.Result     `json:"warnings"`
	ReviewQueue []lint.ReviewEntry `json:"review_queue"`
}

// WriteLintReport persists the full lint report.
func WriteLintReport(path string, rep *lint.Report, scope string, now time.Time) error {
	doc := LintReport{
		Meta:        newMeta(scope, now),
		Summary:     rep.Summary,
		Errors:      emptyIfNil(rep.Errors),
		Warnings:    emptyIfNil(rep.Warnings),
		ReviewQueue: rep.ReviewQueue,
	}
	if doc.ReviewQueue == nil {
		doc.ReviewQueue = []lint.ReviewEntry{}
	}
	return writeJSON(path, doc)
}

// ReviewQueueDoc is the on-disk shape of review-queue.json.
type ReviewQueueDoc struct {
	Meta       Meta               `json:"meta"`
	TotalItems int                `json:"total_items"`
	Items      []lint.ReviewEntry `json:"items"`
}

// WriteReviewQueue persists the review queue on its own, for consumers that
// only care about what needs human attention.
func WriteReviewQueue(path string, items []lint.ReviewEntry, scope string, now time.Time) error {
	if items == nil {
		items = []lint.ReviewEntry{}
	}
	doc := ReviewQueueDoc{
		Meta:       newMeta(scope, now),
		TotalItems: len(items),
		Items:      items,
	}
	return writeJSON(path, doc)
}

// Digest is the daily status-bucket summary for one sprint.
type Digest struct {
	Sprint      int            `json:"sprint"`
	GeneratedAt string         `json:"generated_at"`
	Buckets     map[string]int `json:"buckets"`
	TotalTasks  int            `json:"total_tasks"`
}

// WriteDigest persists a daily digest.
func WriteDigest(path string, d Digest) error {
	return writeJSON(path, d)
}

func emptyIfNil(results []rules.Result) []rules.Result {
	if results == nil {
		return []rules.Result{}
	}
	return results
}
