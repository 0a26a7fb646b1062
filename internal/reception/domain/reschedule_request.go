// Package domain contains the reception context domain model: reschedule
// requests, the SLA escalation policy, and the automation audit trail.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common errors for the reception domain.
var (
	ErrRequestNotFound = errors.New("reschedule request not found")
	ErrInvalidStatus   = errors.New("invalid reschedule request status")
)

// Status represents the lifecycle state of a reschedule request.
type Status string

const (
	StatusPending     Status = "pending"
	StatusOptionsSent Status = "options_sent"
	StatusHandoff     Status = "handoff"
	StatusConfirmed   Status = "confirmed"
	StatusClosed      Status = "closed"
)

// ActionRequiredStatuses are the statuses eligible for SLA sweeping.
// Confirmed and closed requests are terminal and never swept.
func ActionRequiredStatuses() []Status {
	return []Status{StatusPending, StatusOptionsSent, StatusHandoff}
}

// IsActionRequired reports whether a request in this status still needs
// someone (bot or human) to act on it.
func (s Status) IsActionRequired() bool {
	return s == StatusPending || s == StatusOptionsSent || s == StatusHandoff
}

// IsValid reports whether the status is a known value.
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusOptionsSent, StatusHandoff, StatusConfirmed, StatusClosed:
		return true
	}
	return false
}

// Metadata is the tenant-opaque key/value bag attached to a request. The
// engine owns only the nested "escalation" key; everything else belongs to
// the tenant and must survive updates untouched.
type Metadata map[string]any

// MetadataEscalationKey is the single metadata key the sweep engine owns.
const MetadataEscalationKey = "escalation"

// EscalationState is the engine-owned sub-record stored under
// Metadata[MetadataEscalationKey].
type EscalationState struct {
	Level           int
	LastEscalatedAt time.Time
	OverdueMinutes  int
	PreviousLevel   int
	PreviousStatus  Status
	AutoHandoff     bool
}

// Map renders the state as the JSON-friendly shape persisted in metadata.
func (s EscalationState) Map() map[string]any {
	return map[string]any{
		"level":             s.Level,
		"last_escalated_at": s.LastEscalatedAt.UTC().Format(time.RFC3339),
		"overdue_minutes":   s.OverdueMinutes,
		"previous_level":    s.PreviousLevel,
		"previous_status":   string(s.PreviousStatus),
		"auto_handoff":      s.AutoHandoff,
	}
}

// WithEscalation returns a copy of the metadata with the escalation
// sub-record replaced. Shallow copy first, then a single key swap, so
// unrelated tenant keys are preserved byte for byte.
func (m Metadata) WithEscalation(state EscalationState) Metadata {
	merged := make(Metadata, len(m)+1)
	for k, v := range m {
		merged[k] = v
	}
	merged[MetadataEscalationKey] = state.Map()
	return merged
}

// EscalationLevelValue returns the raw level stored in the escalation
// sub-record, if any. The caller is expected to pass it through
// NormalizeLevel since persisted JSON comes back as float64.
func (m Metadata) EscalationLevelValue() (any, bool) {
	sub, ok := m[MetadataEscalationKey].(map[string]any)
	if !ok {
		return nil, false
	}
	v, ok := sub["level"]
	return v, ok
}

// RescheduleRequest is the unit of work for the SLA sweep: one outstanding
// appointment-rescheduling conversation for one tenant.
type RescheduleRequest struct {
	ID              uuid.UUID
	TenantID        uuid.UUID
	BookingID       uuid.UUID
	LeadID          *uuid.UUID
	ConversationID  *uuid.UUID
	Status          Status
	SLADueAt        *time.Time
	EscalationLevel int
	Metadata        Metadata
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewRescheduleRequest creates a pending request with an SLA deadline.
func NewRescheduleRequest(tenantID, bookingID uuid.UUID, slaDueAt time.Time) *RescheduleRequest {
	now := time.Now().UTC()
	return &RescheduleRequest{
		ID:              uuid.New(),
		TenantID:        tenantID,
		BookingID:       bookingID,
		Status:          StatusPending,
		SLADueAt:        &slaDueAt,
		EscalationLevel: 0,
		Metadata:        Metadata{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// CurrentLevel returns the stored escalation level clamped to the valid
// range, so a corrupted record can never under- or overflow the scale.
func (r *RescheduleRequest) CurrentLevel() int {
	return ClampLevel(r.EscalationLevel)
}

// IsSweepable reports whether the request is eligible for the SLA sweep at
// the given instant.
func (r *RescheduleRequest) IsSweepable(now time.Time) bool {
	return r.Status.IsActionRequired() && r.SLADueAt != nil && !r.SLADueAt.After(now)
}

// Escalate advances the request to targetLevel. This is the only mutation
// the sweep engine performs, and it keeps the record-level invariant: the
// stored EscalationLevel always equals metadata.escalation.level.
//
// When autoHandoff is set the request transitions to handoff and receives a
// fresh deadline one grace window out, so it is not immediately overdue
// again in the next sweep. A non-positive graceWindow falls back to
// HandoffGraceWindow.
func (r *RescheduleRequest) Escalate(targetLevel, overdueMinutes int, now time.Time, autoHandoff bool, graceWindow time.Duration) {
	state := EscalationState{
		Level:           ClampLevel(targetLevel),
		LastEscalatedAt: now,
		OverdueMinutes:  overdueMinutes,
		PreviousLevel:   r.CurrentLevel(),
		PreviousStatus:  r.Status,
		AutoHandoff:     autoHandoff,
	}

	r.EscalationLevel = state.Level
	if autoHandoff {
		if graceWindow <= 0 {
			graceWindow = HandoffGraceWindow
		}
		r.Status = StatusHandoff
		due := now.Add(graceWindow)
		r.SLADueAt = &due
	}
	r.Metadata = r.Metadata.WithEscalation(state)
	r.UpdatedAt = now
}
