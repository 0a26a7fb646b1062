// Package services contains the reception application services: the SLA
// sweep executor and tenant discovery.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
	"github.com/frontdeskhq/frontdesk/internal/shared/infrastructure/outbox"
)

// Sweep row bounds. MaxRows is clamped into [MinSweepRows, MaxSweepRows] so
// a bad caller can neither starve the sweep nor make a run unbounded.
const (
	MinSweepRows     = 1
	MaxSweepRows     = 500
	DefaultSweepRows = 150
)

// SweepOptions controls one tenant sweep.
type SweepOptions struct {
	// DryRun computes and reports what would change without persisting
	// anything. Safe against production data at any time.
	DryRun bool

	// MaxRows bounds how many overdue rows one run processes.
	MaxRows int

	// GraceWindow overrides how far the SLA deadline is pushed out on an
	// auto-handoff. Zero means domain.HandoffGraceWindow.
	GraceWindow time.Duration
}

// ClampMaxRows bounds the requested row limit to the safe range.
func ClampMaxRows(n int) int {
	if n <= 0 {
		return DefaultSweepRows
	}
	if n < MinSweepRows {
		return MinSweepRows
	}
	if n > MaxSweepRows {
		return MaxSweepRows
	}
	return n
}

// SweepExecutor runs the SLA escalation sweep for a single tenant: it loads
// overdue requests, applies the escalation policy, persists level/status
// changes, and emits audit events. Safe to re-run arbitrarily often; the
// monotonic level guard makes repeated sweeps within the same bucket no-ops.
type SweepExecutor struct {
	requests domain.RescheduleRequestRepository
	events   domain.AutomationEventRepository
	outbox   outbox.Repository
	logger   *slog.Logger
}

// NewSweepExecutor creates a new sweep executor. The outbox repository is
// optional; without it escalations are audited but not published to the
// broker.
func NewSweepExecutor(
	requests domain.RescheduleRequestRepository,
	events domain.AutomationEventRepository,
	outboxRepo outbox.Repository,
	logger *slog.Logger,
) *SweepExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &SweepExecutor{
		requests: requests,
		events:   events,
		outbox:   outboxRepo,
		logger:   logger,
	}
}

// Sweep executes one sweep for one tenant and returns its report. A failed
// initial query is fatal for this tenant only: the report carries the error
// note and zero counts, and the error is returned so the orchestrator can
// log it without aborting sibling tenants.
func (e *SweepExecutor) Sweep(ctx context.Context, tenantID uuid.UUID, opts SweepOptions) (*domain.SweepReport, error) {
	// One timestamp for the whole run: every row is judged against the same
	// instant, so a slow sweep cannot promote later rows higher than
	// earlier ones.
	now := time.Now().UTC()
	maxRows := ClampMaxRows(opts.MaxRows)
	report := domain.NewSweepReport(tenantID, opts.DryRun, now)

	rows, err := e.requests.FindOverdue(ctx, tenantID, now, maxRows)
	if err != nil {
		report.Note("query failed: %v", err)
		return report, fmt.Errorf("find overdue requests for tenant %s: %w", tenantID, err)
	}

	for _, req := range rows {
		report.Checked++

		if req.SLADueAt == nil {
			// The query filters on sla_due_at, so a nil here means a
			// corrupted row; skip it rather than abort the sweep.
			report.Note("request %s has no sla_due_at, skipped", req.ID)
			continue
		}

		overdueMinutes := domain.OverdueMinutes(now, *req.SLADueAt)
		report.Overdue++

		currentLevel := req.CurrentLevel()
		targetLevel := domain.LevelFor(overdueMinutes)

		if targetLevel <= currentLevel {
			// Already at or above the bucket for this much lateness;
			// repeated sweeps are no-ops by construction.
			report.ObserveLevel(currentLevel)
			continue
		}

		report.Escalated++
		report.ObserveLevel(targetLevel)

		autoHandoff := domain.ShouldAutoHandoff(targetLevel, req.Status)
		if autoHandoff {
			report.AutoHandoff++
		}

		if opts.DryRun {
			continue
		}

		previousStatus := req.Status
		req.Escalate(targetLevel, overdueMinutes, now, autoHandoff, opts.GraceWindow)

		updateErr := e.requests.ApplyEscalation(ctx, req)
		if updateErr != nil {
			report.Errors++
			report.Note("update failed for request %s: %v", req.ID, updateErr)
		}

		// The audit trail records every attempted transition, committed or
		// not. Its failure is non-fatal and never rolls back the update.
		event := domain.NewEscalationEvent(req, currentLevel, previousStatus, targetLevel, overdueMinutes, autoHandoff, updateErr == nil, now)
		if err := e.events.Append(ctx, event); err != nil {
			report.Errors++
			report.Note("audit append failed for request %s: %v", req.ID, err)
		}

		if updateErr != nil {
			continue
		}

		if err := e.enqueueIntegrationEvent(ctx, req, currentLevel, previousStatus, overdueMinutes, autoHandoff); err != nil {
			report.Errors++
			report.Note("outbox enqueue failed for request %s: %v", req.ID, err)
		}

		e.logger.Info("reschedule request escalated",
			"tenant_id", tenantID,
			"request_id", req.ID,
			"level", targetLevel,
			"previous_level", currentLevel,
			"overdue_minutes", overdueMinutes,
			"auto_handoff", autoHandoff,
		)
	}

	return report, nil
}

func (e *SweepExecutor) enqueueIntegrationEvent(
	ctx context.Context,
	req *domain.RescheduleRequest,
	previousLevel int,
	previousStatus domain.Status,
	overdueMinutes int,
	autoHandoff bool,
) error {
	if e.outbox == nil {
		return nil
	}

	event := domain.NewRescheduleRequestEscalatedEvent(req, previousLevel, previousStatus, overdueMinutes, autoHandoff)
	msg, err := outbox.NewMessage(event)
	if err != nil {
		return err
	}
	return e.outbox.Save(ctx, msg)
}
