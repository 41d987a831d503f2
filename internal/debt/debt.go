// SPDX-License-Identifier: AGPL-3.0-or-later

// Package debt tracks technical-debt entries: governance exceptions and
// waivers granted against plan tasks, with expiry accounting.
package debt

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Category classifies what kind of debt was taken on.
type Category string

const (
	CategorySecurity     Category = "security"
	CategoryTests        Category = "tests"
	CategoryArchitecture Category = "architecture"
	CategoryBuild        Category = "build"
	CategoryDocs         Category = "docs"
	CategoryPerformance  Category = "perf"
	CategoryValidation   Category = "validation"
)

// Severity ranks how urgent remediation is.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Entry is one recorded piece of technical debt. Expiry dates use the
// "2006-01-02" date layout.
type Entry struct {
	DebtID          string     `json:"debt_id"`
	TaskID          string     `json:"task_id"`
	Category        Category   `json:"category"`
	Severity        Severity   `json:"severity"`
	Owner           string     `json:"owner"`
	Description     string     `json:"description"`
	Remediation     string     `json:"remediation"`
	ExpiryDate      string     `json:"expiry_date,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	EvidenceLinks   []string   `json:"evidence_links,omitempty"`
	ResolvedAt      *time.Time `json:"resolved_at,omitempty"`
	ResolutionNotes string     `json:"resolution_notes,omitempty"`
}

// NewID generates a fresh debt identifier.
func NewID() string {
	return "DEBT-" + strings.ToUpper(uuid.NewString()[:8])
}

// IsResolved reports whether the entry has been closed out.
func (e Entry) IsResolved() bool { return e.ResolvedAt != nil }

// expiry parses the entry's expiry date; ok is false when none is set or the
// value does not parse.
func (e Entry) expiry() (time.Time, bool) {
	if e.ExpiryDate == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse("2006-01-02", e.ExpiryDate)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// IsExpired reports whether the entry's expiry date has passed.
func (e Entry) IsExpired(reference time.Time) bool {
	expiry, ok := e.expiry()
	if !ok {
		return false
	}
	return expiry.Before(reference.Truncate(24 * time.Hour))
}

// DaysUntilExpiry returns the whole days remaining; ok is false when no
// expiry is set.
func (e Entry) DaysUntilExpiry(reference time.Time) (int, bool) {
	expiry, ok := e.expiry()
	if !ok {
		return 0, false
	}
	return int(expiry.Sub(reference.Truncate(24*time.Hour)).Hours() / 24), true
}

// IsExpiringSoon reports whether the entry expires within threshold days but
// has not yet lapsed.
func (e Entry) IsExpiringSoon(thresholdDays int, reference time.Time) bool {
	days, ok := e.DaysUntilExpiry(reference)
	if !ok {
		return false
	}
	return days > 0 && days <= thresholdDays
}

// Ledger is the collection of debt entries for a plan.
type Ledger struct {
	Entries []Entry
}

// Add appends an entry, generating a debt ID when none is set.
func (l *Ledger) Add(e Entry) Entry {
	if e.DebtID == "" {
		e.DebtID = NewID()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	l.Entries = append(l.Entries, e)
	return e
}

// ByTask returns every entry recorded against a task.
func (l *Ledger) ByTask(taskID string) []Entry {
	var out []Entry
	for _, e := range l.Entries {
		if e.TaskID == taskID {
			out = append(out, e)
		}
	}
	return out
}

// Active returns all unresolved entries.
func (l *Ledger) Active() []Entry {
	var out []Entry
	for _, e := range l.Entries {
		if !e.IsResolved() {
			out = append(out, e)
		}
	}
	return out
}

// Expired returns all active entries whose expiry has passed.
func (l *Ledger) Expired(reference time.Time) []Entry {
	var out []Entry
	for _, e := range l.Active() {
		if e.IsExpired(reference) {
			out = append(out, e)
		}
	}
	return out
}

// ExpiringSoon returns active entries within thresholdDays of expiry.
func (l *Ledger) ExpiringSoon(thresholdDays int, reference time.Time) []Entry {
	var out []Entry
	for _, e := range l.Active() {
		if e.IsExpiringSoon(thresholdDays, reference) {
			out = append(out, e)
		}
	}
	return out
}

// Summary aggregates the ledger for reporting.
type Summary struct {
	TotalActive   int            `json:"total_active"`
	TotalResolved int            `json:"total_resolved"`
	Expired       int            `json:"expired"`
	ExpiringSoon  int            `json:"expiring_soon"`
	BySeverity    map[string]int `json:"by_severity"`
	ByCategory    map[string]int `json:"by_category"`
}

// Summarize computes ledger statistics against the reference time.
func (l *Ledger) Summarize(reference time.Time) Summary {
	active := l.Active()
	s := Summary{
		TotalActive:   len(active),
		TotalResolved: len(l.Entries) - len(active),
		Expired:       len(l.Expired(reference)),
		ExpiringSoon:  len(l.ExpiringSoon(30, reference)),
		BySeverity:    map[string]int{},
		ByCategory:    map[string]int{},
	}
	for _, e := range active {
		s.BySeverity[string(e.Severity)]++
		s.ByCategory[string(e.Category)]++
	}
	return s
}

// LoadLedger reads a JSONL debt file. A missing file yields an empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Ledger{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading debt ledger: %w", err)
	}

	ledger := &Ledger{}
	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			return nil, fmt.Errorf("parsing debt ledger line %d: %w", i+1, err)
		}
		ledger.Entries = append(ledger.Entries, e)
	}
	return ledger, nil
}
