// Package persistence contains the reception repositories for PostgreSQL
// (production) and SQLite (local mode and tests).
package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

func actionRequiredStrings() []string {
	statuses := domain.ActionRequiredStatuses()
	values := make([]string, len(statuses))
	for i, s := range statuses {
		values[i] = string(s)
	}
	return values
}

// PostgresRescheduleRequestRepository persists reschedule requests in
// PostgreSQL.
type PostgresRescheduleRequestRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRescheduleRequestRepository creates a new repository.
func NewPostgresRescheduleRequestRepository(pool *pgxpool.Pool) *PostgresRescheduleRequestRepository {
	return &PostgresRescheduleRequestRepository{pool: pool}
}

// FindOverdue returns the tenant's action-required requests whose SLA
// deadline has passed, oldest deadline first, bounded by limit.
func (r *PostgresRescheduleRequestRepository) FindOverdue(ctx context.Context, tenantID uuid.UUID, now time.Time, limit int) ([]*domain.RescheduleRequest, error) {
	query := `
		SELECT id, tenant_id, booking_id, lead_id, conversation_id, status,
			   sla_due_at, escalation_level, metadata, created_at, updated_at
		FROM reschedule_requests
		WHERE tenant_id = $1
		  AND status = ANY($2)
		  AND sla_due_at IS NOT NULL
		  AND sla_due_at <= $3
		ORDER BY sla_due_at ASC
		LIMIT $4
	`

	rows, err := r.pool.Query(ctx, query, tenantID, actionRequiredStrings(), now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.RescheduleRequest, 0)
	for rows.Next() {
		var req domain.RescheduleRequest
		var status string
		if err := rows.Scan(
			&req.ID,
			&req.TenantID,
			&req.BookingID,
			&req.LeadID,
			&req.ConversationID,
			&status,
			&req.SLADueAt,
			&req.EscalationLevel,
			&req.Metadata,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		req.Status = domain.Status(status)
		requests = append(requests, &req)
	}

	return requests, rows.Err()
}

// ApplyEscalation writes the escalated state back, filtered by id AND
// tenant_id so a cross-tenant write is impossible even if the caller's
// query was not tenant-scoped. Zero affected rows means the request
// vanished or moved tenants since it was read.
func (r *PostgresRescheduleRequestRepository) ApplyEscalation(ctx context.Context, req *domain.RescheduleRequest) error {
	query := `
		UPDATE reschedule_requests
		SET status = $3, sla_due_at = $4, escalation_level = $5, metadata = $6, updated_at = $7
		WHERE id = $1 AND tenant_id = $2
	`

	tag, err := r.pool.Exec(ctx, query,
		req.ID,
		req.TenantID,
		string(req.Status),
		req.SLADueAt,
		req.EscalationLevel,
		req.Metadata,
		req.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRequestNotFound
	}
	return nil
}

// ActiveTenants returns the distinct tenants that currently have at least
// one action-required request. The inner scan is bounded so discovery cost
// stays fixed no matter how large the shared table grows.
func (r *PostgresRescheduleRequestRepository) ActiveTenants(ctx context.Context, scanLimit int) ([]uuid.UUID, error) {
	query := `
		SELECT DISTINCT tenant_id FROM (
			SELECT tenant_id
			FROM reschedule_requests
			WHERE status = ANY($1)
			LIMIT $2
		) scanned
	`

	rows, err := r.pool.Query(ctx, query, actionRequiredStrings(), scanLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tenants := make([]uuid.UUID, 0)
	for rows.Next() {
		var tenantID uuid.UUID
		if err := rows.Scan(&tenantID); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenantID)
	}

	return tenants, rows.Err()
}
