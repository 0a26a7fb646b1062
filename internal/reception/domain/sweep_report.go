package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SweepReport aggregates the outcome of one tenant's sweep. It is a pure
// return value: constructed fresh per invocation and never persisted
// (the Redis cache of the latest report is best-effort observability).
type SweepReport struct {
	TenantID    uuid.UUID `json:"tenant_id"`
	DryRun      bool      `json:"dry_run"`
	Checked     int       `json:"checked"`
	Overdue     int       `json:"overdue"`
	Escalated   int       `json:"escalated"`
	AutoHandoff int       `json:"auto_handoff"`
	Errors      int       `json:"errors"`
	MaxLevel    int       `json:"max_level"`
	Notes       []string  `json:"notes,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// NewSweepReport creates an empty report for one tenant run.
func NewSweepReport(tenantID uuid.UUID, dryRun bool, now time.Time) *SweepReport {
	return &SweepReport{
		TenantID:    tenantID,
		DryRun:      dryRun,
		GeneratedAt: now,
	}
}

// Note appends a free-text diagnostic to the report.
func (r *SweepReport) Note(format string, args ...any) {
	r.Notes = append(r.Notes, fmt.Sprintf(format, args...))
}

// ObserveLevel folds a row's effective level into the running maximum.
func (r *SweepReport) ObserveLevel(level int) {
	if level > r.MaxLevel {
		r.MaxLevel = level
	}
}

// SweepTotals reduces per-tenant reports into run-wide totals.
type SweepTotals struct {
	Tenants     int `json:"tenants"`
	Checked     int `json:"checked"`
	Overdue     int `json:"overdue"`
	Escalated   int `json:"escalated"`
	AutoHandoff int `json:"auto_handoff"`
	Errors      int `json:"errors"`
	MaxLevel    int `json:"max_level"`
}

// Add folds one tenant report into the totals.
func (t *SweepTotals) Add(r *SweepReport) {
	t.Tenants++
	t.Checked += r.Checked
	t.Overdue += r.Overdue
	t.Escalated += r.Escalated
	t.AutoHandoff += r.AutoHandoff
	t.Errors += r.Errors
	if r.MaxLevel > t.MaxLevel {
		t.MaxLevel = r.MaxLevel
	}
}
