package domain

import (
	"github.com/google/uuid"

	sharedDomain "github.com/frontdeskhq/frontdesk/internal/shared/domain"
)

// RoutingKeyRequestEscalated is the broker routing key for escalations.
const RoutingKeyRequestEscalated = "reception.reschedule_request.escalated"

// RescheduleRequestEscalatedEvent is the integration event published (via
// the outbox) whenever a sweep raises a request's escalation level.
type RescheduleRequestEscalatedEvent struct {
	sharedDomain.BaseEvent

	TenantID       uuid.UUID `json:"tenant_id"`
	RequestID      uuid.UUID `json:"request_id"`
	BookingID      uuid.UUID `json:"booking_id"`
	PreviousLevel  int       `json:"previous_level"`
	Level          int       `json:"level"`
	PreviousStatus Status    `json:"previous_status"`
	Status         Status    `json:"status"`
	OverdueMinutes int       `json:"overdue_minutes"`
	AutoHandoff    bool      `json:"auto_handoff"`
}

// NewRescheduleRequestEscalatedEvent builds the integration event for one
// committed escalation.
func NewRescheduleRequestEscalatedEvent(
	req *RescheduleRequest,
	previousLevel int,
	previousStatus Status,
	overdueMinutes int,
	autoHandoff bool,
) *RescheduleRequestEscalatedEvent {
	event := &RescheduleRequestEscalatedEvent{
		BaseEvent:      sharedDomain.NewBaseEvent(req.ID, "RescheduleRequest", RoutingKeyRequestEscalated),
		TenantID:       req.TenantID,
		RequestID:      req.ID,
		BookingID:      req.BookingID,
		PreviousLevel:  previousLevel,
		Level:          req.CurrentLevel(),
		PreviousStatus: previousStatus,
		Status:         req.Status,
		OverdueMinutes: overdueMinutes,
		AutoHandoff:    autoHandoff,
	}
	event.SetMetadata(sharedDomain.NewEventMetadata(req.TenantID))
	return event
}
