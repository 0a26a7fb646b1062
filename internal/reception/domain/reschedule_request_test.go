package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRescheduleRequest(t *testing.T) {
	tenantID := uuid.New()
	bookingID := uuid.New()
	due := time.Now().UTC().Add(2 * time.Hour)

	req := NewRescheduleRequest(tenantID, bookingID, due)

	assert.NotEqual(t, uuid.Nil, req.ID)
	assert.Equal(t, tenantID, req.TenantID)
	assert.Equal(t, StatusPending, req.Status)
	require.NotNil(t, req.SLADueAt)
	assert.Equal(t, due, *req.SLADueAt)
	assert.Equal(t, 0, req.EscalationLevel)
}

func TestStatus_IsActionRequired(t *testing.T) {
	assert.True(t, StatusPending.IsActionRequired())
	assert.True(t, StatusOptionsSent.IsActionRequired())
	assert.True(t, StatusHandoff.IsActionRequired())
	assert.False(t, StatusConfirmed.IsActionRequired())
	assert.False(t, StatusClosed.IsActionRequired())
}

func TestRescheduleRequest_IsSweepable(t *testing.T) {
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	req := NewRescheduleRequest(uuid.New(), uuid.New(), past)
	assert.True(t, req.IsSweepable(now))

	req.SLADueAt = &future
	assert.False(t, req.IsSweepable(now), "not yet due")

	req.SLADueAt = nil
	assert.False(t, req.IsSweepable(now), "no deadline is never swept")

	req.SLADueAt = &past
	req.Status = StatusConfirmed
	assert.False(t, req.IsSweepable(now), "terminal status is never swept")
}

func TestEscalate_KeepsLevelAndMetadataInSync(t *testing.T) {
	now := time.Now().UTC()
	req := NewRescheduleRequest(uuid.New(), uuid.New(), now.Add(-time.Hour))

	req.Escalate(2, 65, now, false, 0)

	assert.Equal(t, 2, req.EscalationLevel)
	raw, ok := req.Metadata.EscalationLevelValue()
	require.True(t, ok)
	assert.Equal(t, req.EscalationLevel, NormalizeLevel(raw))
}

func TestEscalate_PreservesUnrelatedMetadata(t *testing.T) {
	now := time.Now().UTC()
	req := NewRescheduleRequest(uuid.New(), uuid.New(), now.Add(-time.Hour))
	req.Metadata = Metadata{
		"notes":  "VIP customer",
		"source": "voice",
	}

	req.Escalate(1, 20, now, false, 0)

	assert.Equal(t, "VIP customer", req.Metadata["notes"])
	assert.Equal(t, "voice", req.Metadata["source"])

	sub, ok := req.Metadata[MetadataEscalationKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, sub["level"])
	assert.Equal(t, 20, sub["overdue_minutes"])
	assert.Equal(t, 0, sub["previous_level"])
	assert.Equal(t, string(StatusPending), sub["previous_status"])
	assert.Equal(t, false, sub["auto_handoff"])
}

func TestEscalate_AutoHandoffSetsStatusAndFreshDeadline(t *testing.T) {
	now := time.Now().UTC()
	req := NewRescheduleRequest(uuid.New(), uuid.New(), now.Add(-65*time.Minute))

	req.Escalate(2, 65, now, true, 0)

	assert.Equal(t, StatusHandoff, req.Status)
	assert.Equal(t, 2, req.EscalationLevel)
	require.NotNil(t, req.SLADueAt)
	assert.Equal(t, now.Add(HandoffGraceWindow), *req.SLADueAt)

	sub, ok := req.Metadata[MetadataEscalationKey].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, sub["auto_handoff"])
	assert.Equal(t, string(StatusPending), sub["previous_status"])
}

func TestEscalate_ConfiguredGraceWindow(t *testing.T) {
	now := time.Now().UTC()
	req := NewRescheduleRequest(uuid.New(), uuid.New(), now.Add(-65*time.Minute))

	req.Escalate(2, 65, now, true, 2*time.Hour)

	require.NotNil(t, req.SLADueAt)
	assert.Equal(t, now.Add(2*time.Hour), *req.SLADueAt)
}

func TestEscalate_ClampsTargetLevel(t *testing.T) {
	now := time.Now().UTC()
	req := NewRescheduleRequest(uuid.New(), uuid.New(), now.Add(-time.Hour))
	req.EscalationLevel = 99 // corrupted record

	assert.Equal(t, MaxEscalationLevel, req.CurrentLevel())

	req.Escalate(9, 200, now, false, 0)
	assert.Equal(t, MaxEscalationLevel, req.EscalationLevel)
}

func TestEscalationEventType(t *testing.T) {
	assert.Equal(t, "reschedule_request_escalated_l2", EscalationEventType(2))
	assert.Equal(t, "reschedule_request_escalated_l5", EscalationEventType(11), "level is clamped in the name")
}

func TestNewEscalationEvent(t *testing.T) {
	now := time.Now().UTC()
	leadID := uuid.New()
	req := NewRescheduleRequest(uuid.New(), uuid.New(), now.Add(-65*time.Minute))
	req.LeadID = &leadID

	prevLevel := req.CurrentLevel()
	prevStatus := req.Status
	req.Escalate(2, 65, now, true, 0)

	event := NewEscalationEvent(req, prevLevel, prevStatus, 2, 65, true, true, now)

	assert.Equal(t, req.TenantID, event.TenantID)
	assert.Equal(t, &leadID, event.LeadID)
	assert.Equal(t, "reschedule_request_escalated_l2", event.EventType)
	assert.True(t, event.Success)
	assert.Equal(t, 0, event.Payload["previous_level"])
	assert.Equal(t, 2, event.Payload["level"])
	assert.Equal(t, string(StatusPending), event.Payload["previous_status"])
	assert.Equal(t, string(StatusHandoff), event.Payload["status"])
	assert.Equal(t, true, event.Payload["auto_handoff"])
}
