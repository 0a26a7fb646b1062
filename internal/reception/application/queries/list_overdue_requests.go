// Package queries contains the reception read-side use cases backing the
// operator dashboard.
package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/services"
	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// ListOverdueRequestsQuery lists one tenant's currently overdue requests.
type ListOverdueRequestsQuery struct {
	TenantID uuid.UUID
	Limit    int
}

// ListOverdueRequestsHandler handles overdue-request listings.
type ListOverdueRequestsHandler struct {
	requests domain.RescheduleRequestRepository
}

// NewListOverdueRequestsHandler creates a new query handler.
func NewListOverdueRequestsHandler(requests domain.RescheduleRequestRepository) *ListOverdueRequestsHandler {
	return &ListOverdueRequestsHandler{requests: requests}
}

// Handle returns the tenant's overdue action-required requests, oldest first.
func (h *ListOverdueRequestsHandler) Handle(ctx context.Context, query ListOverdueRequestsQuery) ([]*domain.RescheduleRequest, error) {
	limit := services.ClampMaxRows(query.Limit)
	requests, err := h.requests.FindOverdue(ctx, query.TenantID, time.Now().UTC(), limit)
	if err != nil {
		return nil, fmt.Errorf("list overdue requests for tenant %s: %w", query.TenantID, err)
	}
	return requests, nil
}
