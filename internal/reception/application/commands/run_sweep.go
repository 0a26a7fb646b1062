// Package commands contains the reception write-side use cases.
package commands

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/services"
	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// Tenant fan-out bounds for discovered sweeps. An unset limit means "all
// discovered", which discovery itself already caps.
const (
	MinTenantLimit = 1
	MaxTenantLimit = 200
)

// Sweep modes reported back to the caller.
const (
	ModeDirect     = "direct"
	ModeDiscovered = "discovered"
)

// ClampTenantLimit bounds the requested tenant fan-out.
func ClampTenantLimit(n int) int {
	if n <= 0 {
		return MaxTenantLimit
	}
	if n < MinTenantLimit {
		return MinTenantLimit
	}
	if n > MaxTenantLimit {
		return MaxTenantLimit
	}
	return n
}

// RunSweepCommand triggers one sweep invocation. A nil TenantID means
// "discover tenants and sweep them all", the cron path.
type RunSweepCommand struct {
	TenantID     *uuid.UUID
	DryRun       bool
	LimitTenants int
	MaxRows      int
}

// RunSweepResult is the structured outcome of one invocation.
type RunSweepResult struct {
	Mode        string                `json:"mode"`
	DryRun      bool                  `json:"dry_run"`
	GeneratedAt time.Time             `json:"generated_at"`
	Tenants     []*domain.SweepReport `json:"per_tenant_results"`
	Totals      domain.SweepTotals    `json:"totals"`
}

// SweepResultCache stores the most recent sweep result for dashboards.
// Implementations are best-effort; the orchestrator tolerates nil.
type SweepResultCache interface {
	StoreLatest(ctx context.Context, result *RunSweepResult) error
}

// SweepDefaults are the deployment-configured fallbacks applied when a
// command leaves MaxRows or LimitTenants unset, plus the auto-handoff grace
// window. Zero values defer to the built-in clamps and
// domain.HandoffGraceWindow.
type SweepDefaults struct {
	MaxRows     int
	TenantLimit int
	GraceWindow time.Duration
}

// RunSweepHandler resolves the target tenant set, runs the executor per
// tenant, and reduces per-tenant reports into totals.
type RunSweepHandler struct {
	executor  *services.SweepExecutor
	discovery *services.TenantDiscovery
	cache     SweepResultCache
	defaults  SweepDefaults
	logger    *slog.Logger
}

// NewRunSweepHandler creates a new sweep orchestrator. The cache is optional.
func NewRunSweepHandler(
	executor *services.SweepExecutor,
	discovery *services.TenantDiscovery,
	cache SweepResultCache,
	defaults SweepDefaults,
	logger *slog.Logger,
) *RunSweepHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RunSweepHandler{
		executor:  executor,
		discovery: discovery,
		cache:     cache,
		defaults:  defaults,
		logger:    logger,
	}
}

// Handle executes the sweep. Callers always get a structured result; a
// tenant whose sweep failed still contributes its error-annotated report,
// and one tenant's failure never aborts its siblings.
func (h *RunSweepHandler) Handle(ctx context.Context, cmd RunSweepCommand) (*RunSweepResult, error) {
	result := &RunSweepResult{
		DryRun:      cmd.DryRun,
		GeneratedAt: time.Now().UTC(),
		Tenants:     []*domain.SweepReport{},
	}

	// Unset command bounds fall back to the deployment defaults before the
	// built-in clamps apply.
	limitTenants := cmd.LimitTenants
	if limitTenants <= 0 {
		limitTenants = h.defaults.TenantLimit
	}
	maxRows := cmd.MaxRows
	if maxRows <= 0 {
		maxRows = h.defaults.MaxRows
	}

	var tenants []uuid.UUID
	if cmd.TenantID != nil {
		result.Mode = ModeDirect
		tenants = []uuid.UUID{*cmd.TenantID}
	} else {
		result.Mode = ModeDiscovered
		tenants = h.discovery.Discover(ctx)
		if limit := ClampTenantLimit(limitTenants); len(tenants) > limit {
			tenants = tenants[:limit]
		}
	}

	if len(tenants) == 0 {
		h.logger.Info("sweep resolved zero tenants", "mode", result.Mode)
		return result, nil
	}

	opts := services.SweepOptions{
		DryRun:      cmd.DryRun,
		MaxRows:     maxRows,
		GraceWindow: h.defaults.GraceWindow,
	}
	for _, tenantID := range tenants {
		report, err := h.executor.Sweep(ctx, tenantID, opts)
		if err != nil {
			h.logger.Error("tenant sweep failed",
				"tenant_id", tenantID,
				"error", err,
			)
		}
		result.Tenants = append(result.Tenants, report)
		result.Totals.Add(report)
	}

	h.storeLatest(ctx, result)

	h.logger.Info("sweep completed",
		"mode", result.Mode,
		"dry_run", result.DryRun,
		"tenants", result.Totals.Tenants,
		"checked", result.Totals.Checked,
		"escalated", result.Totals.Escalated,
		"auto_handoff", result.Totals.AutoHandoff,
		"errors", result.Totals.Errors,
	)

	return result, nil
}

func (h *RunSweepHandler) storeLatest(ctx context.Context, result *RunSweepResult) {
	if h.cache == nil || result.DryRun {
		return
	}
	if err := h.cache.StoreLatest(ctx, result); err != nil {
		h.logger.Warn("failed to cache sweep result", "error", err)
	}
}
