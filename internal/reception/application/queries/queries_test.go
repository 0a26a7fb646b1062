package queries

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/services"
	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

type stubRequestRepo struct {
	rows      []*domain.RescheduleRequest
	lastLimit int
	err       error
}

func (s *stubRequestRepo) FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*domain.RescheduleRequest, error) {
	s.lastLimit = limit
	if s.err != nil {
		return nil, s.err
	}
	return s.rows, nil
}

func (s *stubRequestRepo) ApplyEscalation(ctx context.Context, req *domain.RescheduleRequest) error {
	return nil
}

func (s *stubRequestRepo) ActiveTenants(ctx context.Context, scanLimit int) ([]uuid.UUID, error) {
	return nil, nil
}

type stubSweepReader struct {
	result *commands.RunSweepResult
	err    error
}

func (s *stubSweepReader) Latest(ctx context.Context) (*commands.RunSweepResult, error) {
	return s.result, s.err
}

func TestListOverdueRequests(t *testing.T) {
	tenantID := uuid.New()
	req := domain.NewRescheduleRequest(tenantID, uuid.New(), time.Now().UTC().Add(-time.Hour))
	repo := &stubRequestRepo{rows: []*domain.RescheduleRequest{req}}
	handler := NewListOverdueRequestsHandler(repo)

	requests, err := handler.Handle(context.Background(), ListOverdueRequestsQuery{TenantID: tenantID, Limit: 25})
	require.NoError(t, err)

	require.Len(t, requests, 1)
	assert.Equal(t, req.ID, requests[0].ID)
	assert.Equal(t, 25, repo.lastLimit)
}

func TestListOverdueRequests_ClampsLimit(t *testing.T) {
	repo := &stubRequestRepo{}
	handler := NewListOverdueRequestsHandler(repo)

	_, err := handler.Handle(context.Background(), ListOverdueRequestsQuery{TenantID: uuid.New(), Limit: 99999})
	require.NoError(t, err)
	assert.Equal(t, services.MaxSweepRows, repo.lastLimit)

	_, err = handler.Handle(context.Background(), ListOverdueRequestsQuery{TenantID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, services.DefaultSweepRows, repo.lastLimit)
}

func TestListOverdueRequests_WrapsError(t *testing.T) {
	repo := &stubRequestRepo{err: errors.New("connection refused")}
	handler := NewListOverdueRequestsHandler(repo)

	_, err := handler.Handle(context.Background(), ListOverdueRequestsQuery{TenantID: uuid.New()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestGetLatestSweep(t *testing.T) {
	cached := &commands.RunSweepResult{Mode: commands.ModeDiscovered, GeneratedAt: time.Now().UTC()}
	handler := NewGetLatestSweepHandler(&stubSweepReader{result: cached})

	result, err := handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Same(t, cached, result)
}

func TestGetLatestSweep_NoSweepYet(t *testing.T) {
	handler := NewGetLatestSweepHandler(&stubSweepReader{})

	result, err := handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
}

func TestGetLatestSweep_NoCacheConfigured(t *testing.T) {
	handler := NewGetLatestSweepHandler(nil)

	result, err := handler.Handle(context.Background())
	require.NoError(t, err)
	assert.Nil(t, result)
}
