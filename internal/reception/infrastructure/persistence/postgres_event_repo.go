package persistence

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// PostgresAutomationEventRepository appends automation audit events in
// PostgreSQL. Append-only: the engine never reads events back.
type PostgresAutomationEventRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAutomationEventRepository creates a new repository.
func NewPostgresAutomationEventRepository(pool *pgxpool.Pool) *PostgresAutomationEventRepository {
	return &PostgresAutomationEventRepository{pool: pool}
}

// Append inserts one audit event row.
func (r *PostgresAutomationEventRepository) Append(ctx context.Context, event *domain.AutomationEvent) error {
	query := `
		INSERT INTO automation_events (
			id, tenant_id, lead_id, conversation_id, event_type, payload, success, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.pool.Exec(ctx, query,
		event.ID,
		event.TenantID,
		event.LeadID,
		event.ConversationID,
		event.EventType,
		event.Payload,
		event.Success,
		event.CreatedAt,
	)
	return err
}
