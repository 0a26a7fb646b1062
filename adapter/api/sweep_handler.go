package api

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/reception/application/commands"
	"github.com/frontdeskhq/frontdesk/internal/reception/application/queries"
)

// Trust headers. Callers presenting the shared automation secret may target
// any tenant or the full discovered set; everyone else must carry the
// gateway-authenticated tenant header and is forced to that tenant.
const (
	HeaderAutomationSecret = "X-Automation-Secret"
	HeaderTenantID         = "X-Tenant-ID"
)

// SweepHandler handles sweep API requests.
type SweepHandler struct {
	runSweep    *commands.RunSweepHandler
	latestSweep *queries.GetLatestSweepHandler
	listOverdue *queries.ListOverdueRequestsHandler
	sweepSecret string
	logger      *slog.Logger
}

// SweepHandlerConfig holds dependencies for the sweep handler.
type SweepHandlerConfig struct {
	RunSweep    *commands.RunSweepHandler
	LatestSweep *queries.GetLatestSweepHandler
	ListOverdue *queries.ListOverdueRequestsHandler
	SweepSecret string
	Logger      *slog.Logger
}

// NewSweepHandler creates a new sweep handler.
func NewSweepHandler(cfg SweepHandlerConfig) *SweepHandler {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &SweepHandler{
		runSweep:    cfg.RunSweep,
		latestSweep: cfg.LatestSweep,
		listOverdue: cfg.ListOverdue,
		sweepSecret: cfg.SweepSecret,
		logger:      cfg.Logger,
	}
}

type runSweepRequest struct {
	TenantID     *uuid.UUID `json:"tenantId,omitempty"`
	DryRun       bool       `json:"dryRun,omitempty"`
	LimitTenants int        `json:"limitTenants,omitempty"`
	MaxRows      int        `json:"maxRows,omitempty"`
}

func (h *SweepHandler) hasAutomationSecret(r *http.Request) bool {
	if h.sweepSecret == "" {
		return false
	}
	presented := r.Header.Get(HeaderAutomationSecret)
	return subtle.ConstantTimeCompare([]byte(presented), []byte(h.sweepSecret)) == 1
}

func callerTenant(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get(HeaderTenantID)
	if raw == "" {
		return uuid.Nil, errors.New("missing tenant header")
	}
	return uuid.Parse(raw)
}

// RunSweep handles POST /api/v1/sweeps.
func (h *SweepHandler) RunSweep(w http.ResponseWriter, r *http.Request) {
	var body runSweepRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && err != io.EOF {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cmd := commands.RunSweepCommand{
		TenantID:     body.TenantID,
		DryRun:       body.DryRun,
		LimitTenants: body.LimitTenants,
		MaxRows:      body.MaxRows,
	}

	if !h.hasAutomationSecret(r) {
		// Gateway-authenticated callers sweep their own tenant only,
		// whatever the body says.
		tenantID, err := callerTenant(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Tenant identification required")
			return
		}
		cmd.TenantID = &tenantID
	}

	result, err := h.runSweep.Handle(r.Context(), cmd)
	if err != nil {
		h.logger.Error("sweep invocation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Sweep failed")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GetLatestSweep handles GET /api/v1/sweeps/latest. Operator surface,
// shared-secret only.
func (h *SweepHandler) GetLatestSweep(w http.ResponseWriter, r *http.Request) {
	if !h.hasAutomationSecret(r) {
		writeError(w, http.StatusUnauthorized, "Automation secret required")
		return
	}

	result, err := h.latestSweep.Handle(r.Context())
	if err != nil {
		h.logger.Error("failed to read latest sweep", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to read latest sweep")
		return
	}
	if result == nil {
		writeError(w, http.StatusNotFound, "No sweep recorded yet")
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ListOverdueRequests handles GET /api/v1/requests/overdue. Secret holders
// pick the tenant via the tenantId query parameter; everyone else is scoped
// to their own tenant header.
func (h *SweepHandler) ListOverdueRequests(w http.ResponseWriter, r *http.Request) {
	var tenantID uuid.UUID
	if h.hasAutomationSecret(r) {
		raw := r.URL.Query().Get("tenantId")
		if raw == "" {
			writeError(w, http.StatusBadRequest, "Query parameter 'tenantId' is required")
			return
		}
		parsed, err := uuid.Parse(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid tenant ID")
			return
		}
		tenantID = parsed
	} else {
		parsed, err := callerTenant(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "Tenant identification required")
			return
		}
		tenantID = parsed
	}

	limit := parseIntParam(r, "limit", 0)
	requests, err := h.listOverdue.Handle(r.Context(), queries.ListOverdueRequestsQuery{
		TenantID: tenantID,
		Limit:    limit,
	})
	if err != nil {
		h.logger.Error("failed to list overdue requests", "tenant_id", tenantID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list overdue requests")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"requests": requests,
		"count":    len(requests),
	})
}

func parseIntParam(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
