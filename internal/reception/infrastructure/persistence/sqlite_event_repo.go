package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/frontdeskhq/frontdesk/internal/reception/domain"
)

// SQLiteAutomationEventRepository implements
// domain.AutomationEventRepository using SQLite.
type SQLiteAutomationEventRepository struct {
	db *sql.DB
}

// NewSQLiteAutomationEventRepository creates a new SQLite repository.
func NewSQLiteAutomationEventRepository(db *sql.DB) *SQLiteAutomationEventRepository {
	return &SQLiteAutomationEventRepository{db: db}
}

// Append inserts one audit event row.
func (r *SQLiteAutomationEventRepository) Append(ctx context.Context, event *domain.AutomationEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	var leadID, conversationID sql.NullString
	if event.LeadID != nil {
		leadID = sql.NullString{String: event.LeadID.String(), Valid: true}
	}
	if event.ConversationID != nil {
		conversationID = sql.NullString{String: event.ConversationID.String(), Valid: true}
	}

	query := `
		INSERT INTO automation_events (
			id, tenant_id, lead_id, conversation_id, event_type, payload, success, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.ExecContext(ctx, query,
		event.ID.String(),
		event.TenantID.String(),
		leadID,
		conversationID,
		event.EventType,
		string(payload),
		event.Success,
		event.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}
