package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// RescheduleRequestRepository is the persistence contract for requests.
type RescheduleRequestRepository interface {
	// FindOverdue returns action-required requests for one tenant whose SLA
	// deadline is at or before now, oldest deadline first, bounded by limit.
	FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*RescheduleRequest, error)

	// ApplyEscalation persists the escalated state of a request. The update
	// is conditional on both id and tenant, and returns ErrRequestNotFound
	// when no row matched.
	ApplyEscalation(ctx context.Context, req *RescheduleRequest) error

	// ActiveTenants returns the distinct tenants that currently have at
	// least one action-required request, bounded by a row scan cap.
	ActiveTenants(ctx context.Context, scanLimit int) ([]uuid.UUID, error)
}

// AutomationEventRepository is the append-only audit sink contract. The
// engine never reads events back.
type AutomationEventRepository interface {
	Append(ctx context.Context, event *AutomationEvent) error
}
