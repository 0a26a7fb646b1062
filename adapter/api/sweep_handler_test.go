package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/queries"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/services"
	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

const testSecret = "sweep-secret-for-tests"

type fakeRequestRepo struct {
	rows []*domain.RescheduleRequest
}

func (f *fakeRequestRepo) FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*domain.RescheduleRequest, error) {
	var matched []*domain.RescheduleRequest
	for _, req := range f.rows {
		if req.TenantID == tenantID && req.IsSweepable(now) {
			matched = append(matched, req)
		}
	}
	return matched, nil
}

func (f *fakeRequestRepo) ApplyEscalation(ctx context.Context, req *domain.RescheduleRequest) error {
	return nil
}

func (f *fakeRequestRepo) ActiveTenants(ctx context.Context, scanLimit int) ([]uuid.UUID, error) {
	seen := map[uuid.UUID]bool{}
	var tenants []uuid.UUID
	for _, req := range f.rows {
		if !seen[req.TenantID] {
			seen[req.TenantID] = true
			tenants = append(tenants, req.TenantID)
		}
	}
	return tenants, nil
}

type fakeEventRepo struct{}

func (f *fakeEventRepo) Append(ctx context.Context, event *domain.AutomationEvent) error {
	return nil
}

type fakeSweepReader struct {
	result *commands.RunSweepResult
}

func (f *fakeSweepReader) Latest(ctx context.Context) (*commands.RunSweepResult, error) {
	return f.result, nil
}

func newTestHandler(repo *fakeRequestRepo, reader queries.SweepResultReader) *SweepHandler {
	executor := services.NewSweepExecutor(repo, &fakeEventRepo{}, nil, nil)
	discovery := services.NewTenantDiscovery(repo, nil)
	return NewSweepHandler(SweepHandlerConfig{
		RunSweep:    commands.NewRunSweepHandler(executor, discovery, nil, commands.SweepDefaults{}, nil),
		LatestSweep: queries.NewGetLatestSweepHandler(reader),
		ListOverdue: queries.NewListOverdueRequestsHandler(repo),
		SweepSecret: testSecret,
	})
}

func overdueRow(tenantID uuid.UUID, overdue time.Duration) *domain.RescheduleRequest {
	return domain.NewRescheduleRequest(tenantID, uuid.New(), time.Now().UTC().Add(-overdue))
}

func decodeResult(t *testing.T, rec *httptest.ResponseRecorder) commands.RunSweepResult {
	t.Helper()
	var result commands.RunSweepResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	return result
}

func TestRunSweep_SecretCallerDiscoveredMode(t *testing.T) {
	repo := &fakeRequestRepo{rows: []*domain.RescheduleRequest{
		overdueRow(uuid.New(), 20*time.Minute),
		overdueRow(uuid.New(), 65*time.Minute),
	}}
	handler := newTestHandler(repo, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sweeps", bytes.NewBufferString(`{"dryRun":true}`))
	req.Header.Set(HeaderAutomationSecret, testSecret)
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, commands.ModeDiscovered, result.Mode)
	assert.True(t, result.DryRun)
	assert.Equal(t, 2, result.Totals.Tenants)
}

func TestRunSweep_SecretCallerTargetsTenant(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeRequestRepo{rows: []*domain.RescheduleRequest{
		overdueRow(tenantID, 20*time.Minute),
		overdueRow(uuid.New(), 20*time.Minute),
	}}
	handler := newTestHandler(repo, &fakeSweepReader{})

	body := fmt.Sprintf(`{"tenantId":%q}`, tenantID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sweeps", bytes.NewBufferString(body))
	req.Header.Set(HeaderAutomationSecret, testSecret)
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, commands.ModeDirect, result.Mode)
	assert.Equal(t, 1, result.Totals.Tenants)
}

func TestRunSweep_TenantCallerForcedToOwnTenant(t *testing.T) {
	ownTenant := uuid.New()
	otherTenant := uuid.New()
	repo := &fakeRequestRepo{rows: []*domain.RescheduleRequest{
		overdueRow(ownTenant, 20*time.Minute),
		overdueRow(otherTenant, 20*time.Minute),
	}}
	handler := newTestHandler(repo, &fakeSweepReader{})

	// The body names another tenant; the gateway header wins.
	body := fmt.Sprintf(`{"tenantId":%q}`, otherTenant)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sweeps", bytes.NewBufferString(body))
	req.Header.Set(HeaderTenantID, ownTenant.String())
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, commands.ModeDirect, result.Mode)
	require.Len(t, result.Tenants, 1)
	assert.Equal(t, ownTenant, result.Tenants[0].TenantID)
}

func TestRunSweep_AnonymousCallerRejected(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sweeps", bytes.NewBufferString(`{}`))
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunSweep_WrongSecretFallsBackToTenantAuth(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sweeps", bytes.NewBufferString(`{}`))
	req.Header.Set(HeaderAutomationSecret, "wrong")
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRunSweep_EmptyBodyIsValid(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sweeps", http.NoBody)
	req.Header.Set(HeaderAutomationSecret, testSecret)
	rec := httptest.NewRecorder()

	handler.RunSweep(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, commands.ModeDiscovered, result.Mode)
	assert.Equal(t, 0, result.Totals.Tenants)
}

func TestGetLatestSweep(t *testing.T) {
	cached := &commands.RunSweepResult{Mode: commands.ModeDiscovered, GeneratedAt: time.Now().UTC()}
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{result: cached})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sweeps/latest", nil)
	req.Header.Set(HeaderAutomationSecret, testSecret)
	rec := httptest.NewRecorder()

	handler.GetLatestSweep(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	result := decodeResult(t, rec)
	assert.Equal(t, commands.ModeDiscovered, result.Mode)
}

func TestGetLatestSweep_RequiresSecret(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sweeps/latest", nil)
	req.Header.Set(HeaderTenantID, uuid.NewString())
	rec := httptest.NewRecorder()

	handler.GetLatestSweep(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetLatestSweep_NoSweepYet(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sweeps/latest", nil)
	req.Header.Set(HeaderAutomationSecret, testSecret)
	rec := httptest.NewRecorder()

	handler.GetLatestSweep(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListOverdueRequests_TenantCaller(t *testing.T) {
	tenantID := uuid.New()
	repo := &fakeRequestRepo{rows: []*domain.RescheduleRequest{
		overdueRow(tenantID, time.Hour),
		overdueRow(uuid.New(), time.Hour),
	}}
	handler := newTestHandler(repo, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/overdue", nil)
	req.Header.Set(HeaderTenantID, tenantID.String())
	rec := httptest.NewRecorder()

	handler.ListOverdueRequests(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 1, body.Count)
}

func TestListOverdueRequests_SecretCallerNeedsTenantParam(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/overdue", nil)
	req.Header.Set(HeaderAutomationSecret, testSecret)
	rec := httptest.NewRecorder()

	handler.ListOverdueRequests(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListOverdueRequests_InvalidTenantHeader(t *testing.T) {
	handler := newTestHandler(&fakeRequestRepo{}, &fakeSweepReader{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/requests/overdue", nil)
	req.Header.Set(HeaderTenantID, "not-a-uuid")
	rec := httptest.NewRecorder()

	handler.ListOverdueRequests(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
