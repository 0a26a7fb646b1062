package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AutomationEvent is one append-only audit row describing an attempted
// escalation transition. Events are written once and never read back by the
// engine; external reporting consumes them.
type AutomationEvent struct {
	ID             uuid.UUID
	TenantID       uuid.UUID
	LeadID         *uuid.UUID
	ConversationID *uuid.UUID
	EventType      string
	Payload        map[string]any
	Success        bool
	CreatedAt      time.Time
}

// EscalationEventType names escalation events by level so downstream
// consumers can filter by severity without parsing the payload.
func EscalationEventType(level int) string {
	return fmt.Sprintf("reschedule_request_escalated_l%d", ClampLevel(level))
}

// NewEscalationEvent builds the audit row for one sweep transition. The
// previous level/status are captured before Escalate mutated the request,
// success records whether the conditional update committed.
func NewEscalationEvent(
	req *RescheduleRequest,
	previousLevel int,
	previousStatus Status,
	targetLevel int,
	overdueMinutes int,
	autoHandoff bool,
	success bool,
	now time.Time,
) *AutomationEvent {
	return &AutomationEvent{
		ID:             uuid.New(),
		TenantID:       req.TenantID,
		LeadID:         req.LeadID,
		ConversationID: req.ConversationID,
		EventType:      EscalationEventType(targetLevel),
		Payload: map[string]any{
			"request_id":      req.ID.String(),
			"booking_id":      req.BookingID.String(),
			"previous_level":  previousLevel,
			"level":           ClampLevel(targetLevel),
			"previous_status": string(previousStatus),
			"status":          string(req.Status),
			"overdue_minutes": overdueMinutes,
			"auto_handoff":    autoHandoff,
		},
		Success:   success,
		CreatedAt: now,
	}
}
