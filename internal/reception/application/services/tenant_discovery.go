package services

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// DiscoveryScanLimit caps how many rows a discovery query may scan on the
// shared requests table, bounding cost across all tenants.
const DiscoveryScanLimit = 1000

// TenantDiscovery finds the tenants that currently have at least one
// request awaiting action. Used only for unscoped, cron-triggered sweeps.
type TenantDiscovery struct {
	requests  domain.RescheduleRequestRepository
	scanLimit int
	logger    *slog.Logger
}

// NewTenantDiscovery creates a discovery service with the default scan cap.
func NewTenantDiscovery(requests domain.RescheduleRequestRepository, logger *slog.Logger) *TenantDiscovery {
	if logger == nil {
		logger = slog.Default()
	}
	return &TenantDiscovery{
		requests:  requests,
		scanLimit: DiscoveryScanLimit,
		logger:    logger,
	}
}

// Discover returns the distinct tenants with action-required requests.
// Discovery is best-effort: any query error degrades to an empty list so a
// failed discovery never crashes a scheduled run; that cycle simply sweeps
// zero tenants.
func (d *TenantDiscovery) Discover(ctx context.Context) []uuid.UUID {
	tenants, err := d.requests.ActiveTenants(ctx, d.scanLimit)
	if err != nil {
		d.logger.Warn("tenant discovery failed, sweeping zero tenants", "error", err)
		return nil
	}
	return tenants
}
