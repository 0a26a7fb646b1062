package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/frontdesk/internal/shared/domain"
)

type stubPublisher struct {
	calls    int
	failures int // fail the first N publishes
}

func (s *stubPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	s.calls++
	if s.calls <= s.failures {
		return errors.New("broker unavailable")
	}
	return nil
}

func (s *stubPublisher) Close() error { return nil }

type testEvent struct {
	domain.BaseEvent
	Detail string `json:"detail"`
}

func newTestEvent() *testEvent {
	event := &testEvent{
		BaseEvent: domain.NewBaseEvent(uuid.New(), "RescheduleRequest", "reception.reschedule_request.escalated"),
		Detail:    "escalated",
	}
	event.SetMetadata(domain.NewEventMetadata(uuid.New()))
	return event
}

func testProcessorConfig() ProcessorConfig {
	cfg := DefaultProcessorConfig()
	cfg.BreakerThreshold = 0 // most tests want deterministic publish counts
	return cfg
}

func saveTestMessage(t *testing.T, repo Repository) *Message {
	t.Helper()
	msg, err := NewMessage(newTestEvent())
	require.NoError(t, err)
	require.NoError(t, repo.Save(context.Background(), msg))
	return msg
}

func TestProcessor_PublishesMessage(t *testing.T) {
	repo := NewInMemoryRepository()
	publisher := &stubPublisher{}
	processor := NewProcessor(repo, publisher, testProcessorConfig(), nil)

	msg := saveTestMessage(t, repo)

	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.Equal(t, 1, publisher.calls)
	assert.True(t, msg.IsPublished())

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.PublishedCount)
}

func TestProcessor_RetriesWithBackoff(t *testing.T) {
	repo := NewInMemoryRepository()
	publisher := &stubPublisher{failures: 1}
	processor := NewProcessor(repo, publisher, testProcessorConfig(), nil)

	msg := saveTestMessage(t, repo)

	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.False(t, msg.IsPublished())
	assert.Equal(t, 1, msg.RetryCount)
	require.NotNil(t, msg.NextRetryAt)
	assert.True(t, msg.NextRetryAt.After(time.Now()), "retry is scheduled in the future")

	// Not retried before the backoff elapses.
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.Equal(t, 1, publisher.calls)

	msg.NextRetryAt = nil
	require.NoError(t, processor.ProcessOnce(context.Background()))
	assert.True(t, msg.IsPublished())
}

func TestProcessor_DeadLettersAfterMaxRetries(t *testing.T) {
	repo := NewInMemoryRepository()
	publisher := &stubPublisher{failures: 100}
	cfg := testProcessorConfig()
	cfg.MaxRetries = 2
	processor := NewProcessor(repo, publisher, cfg, nil)

	msg := saveTestMessage(t, repo)

	require.NoError(t, processor.ProcessOnce(context.Background()))
	msg.NextRetryAt = nil
	require.NoError(t, processor.ProcessOnce(context.Background()))

	assert.NotNil(t, msg.DeadLetteredAt)
	require.NotNil(t, msg.DeadLetterReason)
	assert.Equal(t, "broker unavailable", *msg.DeadLetterReason)

	stats := processor.GetStats()
	assert.Equal(t, uint64(1), stats.DeadCount)
}

func TestProcessor_BreakerSkipsBrokerWhenOpen(t *testing.T) {
	repo := NewInMemoryRepository()
	publisher := &stubPublisher{failures: 100}
	cfg := testProcessorConfig()
	cfg.MaxRetries = 10
	cfg.BreakerThreshold = 2
	processor := NewProcessor(repo, publisher, cfg, nil)

	for range 4 {
		msg := saveTestMessage(t, repo)
		msg.NextRetryAt = nil
	}

	require.NoError(t, processor.ProcessOnce(context.Background()))

	// The first two publishes hit the broker and trip the breaker; the
	// remaining messages fail fast without a broker round-trip.
	assert.Equal(t, 2, publisher.calls)

	stats := processor.GetStats()
	assert.Equal(t, uint64(4), stats.FailedCount)
}

func TestProcessor_RetryBackoffIsCappedExponential(t *testing.T) {
	cfg := testProcessorConfig()
	cfg.RetryBackoffBase = time.Second
	cfg.RetryBackoffMax = 10 * time.Second
	processor := NewProcessor(NewInMemoryRepository(), &stubPublisher{}, cfg, nil)

	assert.Equal(t, time.Second, processor.retryBackoff(1))
	assert.Equal(t, 2*time.Second, processor.retryBackoff(2))
	assert.Equal(t, 8*time.Second, processor.retryBackoff(4))
	assert.Equal(t, 10*time.Second, processor.retryBackoff(8))
}

func TestNewMessage_CarriesEventPayloadAndMetadata(t *testing.T) {
	event := newTestEvent()

	msg, err := NewMessage(event)
	require.NoError(t, err)

	assert.Equal(t, event.EventID(), msg.EventID)
	assert.Equal(t, "RescheduleRequest", msg.AggregateType)
	assert.Equal(t, "reception.reschedule_request.escalated", msg.RoutingKey)
	assert.Contains(t, string(msg.Payload), "escalated")
	assert.NotEmpty(t, msg.Metadata)
	assert.False(t, msg.IsPublished())
}
