package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// SQLiteRescheduleRequestRepository implements
// domain.RescheduleRequestRepository using SQLite for local mode and tests.
// Timestamps are stored as RFC3339 text, metadata as a JSON text column.
type SQLiteRescheduleRequestRepository struct {
	db *sql.DB
}

// NewSQLiteRescheduleRequestRepository creates a new SQLite repository.
func NewSQLiteRescheduleRequestRepository(db *sql.DB) *SQLiteRescheduleRequestRepository {
	return &SQLiteRescheduleRequestRepository{db: db}
}

func actionRequiredPlaceholders() (string, []any) {
	statuses := actionRequiredStrings()
	args := make([]any, len(statuses))
	for i, s := range statuses {
		args[i] = s
	}
	return strings.Repeat("?, ", len(statuses)-1) + "?", args
}

// FindOverdue returns the tenant's action-required requests whose SLA
// deadline has passed, oldest deadline first, bounded by limit.
func (r *SQLiteRescheduleRequestRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*domain.RescheduleRequest, error) {
	placeholders, statusArgs := actionRequiredPlaceholders()
	query := `
		SELECT id, tenant_id, booking_id, lead_id, conversation_id, status,
			   sla_due_at, escalation_level, metadata, created_at, updated_at
		FROM reschedule_requests
		WHERE tenant_id = ?
		  AND status IN (` + placeholders + `)
		  AND sla_due_at IS NOT NULL
		  AND sla_due_at <= ?
		ORDER BY sla_due_at ASC
		LIMIT ?
	`

	args := append([]any{tenantID.String()}, statusArgs...)
	args = append(args, now.UTC().Format(time.RFC3339), limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.RescheduleRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			// One row with an unparseable timestamp or metadata blob must
			// not blank the whole tenant's sweep; skip it and keep scanning.
			continue
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

// ApplyEscalation writes the escalated state back, filtered by id AND
// tenant_id. Zero affected rows surfaces as domain.ErrRequestNotFound.
func (r *SQLiteRescheduleRequestRepository) ApplyEscalation(ctx context.Context, req *domain.RescheduleRequest) error {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return err
	}

	var slaDueAt sql.NullString
	if req.SLADueAt != nil {
		slaDueAt = sql.NullString{String: req.SLADueAt.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `
		UPDATE reschedule_requests
		SET status = ?, sla_due_at = ?, escalation_level = ?, metadata = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ?
	`

	result, err := r.db.ExecContext(ctx, query,
		string(req.Status),
		slaDueAt,
		req.EscalationLevel,
		string(metadata),
		req.UpdatedAt.UTC().Format(time.RFC3339),
		req.ID.String(),
		req.TenantID.String(),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// ActiveTenants returns the distinct tenants with at least one
// action-required request, scanning at most scanLimit rows.
func (r *SQLiteRescheduleRequestRepository) ActiveTenants(ctx context.Context, scanLimit int) ([]uuid.UUID, error) {
	placeholders, statusArgs := actionRequiredPlaceholders()
	query := `
		SELECT DISTINCT tenant_id FROM (
			SELECT tenant_id
			FROM reschedule_requests
			WHERE status IN (` + placeholders + `)
			LIMIT ?
		)
	`

	args := append(statusArgs, scanLimit)
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]uuid.UUID, 0)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, err
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantID)
	}

	return tenants, rows.Err()
}

// Create inserts a new request. Used by local tooling and tests; the sweep
// engine itself never creates requests.
func (r *SQLiteRescheduleRequestRepository) Create(ctx context.Context, req *domain.RescheduleRequest) error {
	metadata, err := json.Marshal(req.Metadata)
	if err != nil {
		return err
	}

	var leadID, conversationID, slaDueAt sql.NullString
	if req.LeadID != nil {
		leadID = sql.NullString{String: req.LeadID.String(), Valid: true}
	}
	if req.ConversationID != nil {
		conversationID = sql.NullString{String: req.ConversationID.String(), Valid: true}
	}
	if req.SLADueAt != nil {
		slaDueAt = sql.NullString{String: req.SLADueAt.UTC().Format(time.RFC3339), Valid: true}
	}

	query := `
		INSERT INTO reschedule_requests (
			id, tenant_id, booking_id, lead_id, conversation_id, status,
			sla_due_at, escalation_level, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		req.ID.String(),
		req.TenantID.String(),
		req.BookingID.String(),
		leadID,
		conversationID,
		string(req.Status),
		slaDueAt,
		req.EscalationLevel,
		string(metadata),
		req.CreatedAt.UTC().Format(time.RFC3339),
		req.UpdatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// FindByID loads one request scoped by tenant.
func (r *SQLiteRescheduleRequestRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*domain.RescheduleRequest, error) {
	query := `
		SELECT id, tenant_id, booking_id, lead_id, conversation_id, status,
			   sla_due_at, escalation_level, metadata, created_at, updated_at
		FROM reschedule_requests
		WHERE id = ? AND tenant_id = ?
	`

	row := r.db.QueryRowContext(ctx, query, id.String(), tenantID.String())
	req, err := scanRequest(row)
	if err == sql.ErrNoRows {
		return nil, domain.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return req, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.RescheduleRequest, error) {
	var (
		req                     domain.RescheduleRequest
		id, tenantID, bookingID string
		leadID, conversationID  sql.NullString
		status, metadata        string
		slaDueAt                sql.NullString
		createdAt, updatedAt    string
	)

	if err := row.Scan(
		&id, &tenantID, &bookingID, &leadID, &conversationID, &status,
		&slaDueAt, &req.EscalationLevel, &metadata, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	var err error
	if req.ID, err = uuid.Parse(id); err != nil {
		return nil, err
	}
	if req.TenantID, err = uuid.Parse(tenantID); err != nil {
		return nil, err
	}
	if req.BookingID, err = uuid.Parse(bookingID); err != nil {
		return nil, err
	}
	if leadID.Valid {
		parsed, err := uuid.Parse(leadID.String)
		if err != nil {
			return nil, err
		}
		req.LeadID = &parsed
	}
	if conversationID.Valid {
		parsed, err := uuid.Parse(conversationID.String)
		if err != nil {
			return nil, err
		}
		req.ConversationID = &parsed
	}

	req.Status = domain.Status(status)

	if slaDueAt.Valid {
		parsed, err := time.Parse(time.RFC3339, slaDueAt.String)
		if err != nil {
			return nil, err
		}
		req.SLADueAt = &parsed
	}

	if metadata != "" {
		if err := json.Unmarshal([]byte(metadata), &req.Metadata); err != nil {
			return nil, err
		}
	}
	if req.Metadata == nil {
		req.Metadata = domain.Metadata{}
	}

	if req.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, err
	}
	if req.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, err
	}

	return &req, nil
}
