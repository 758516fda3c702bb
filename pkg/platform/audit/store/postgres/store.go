package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	audit "stakeport/pkg/platform/audit"
	"stakeport/pkg/domain"
)

// Store persists audit events in PostgreSQL.
//
// Schema:
//
//	CREATE TABLE audit_events (
//	    id         UUID PRIMARY KEY,
//	    category   TEXT NOT NULL,
//	    occurred_at TIMESTAMPTZ NOT NULL,
//	    actor      TEXT NOT NULL,
//	    entity_id  TEXT NOT NULL,
//	    action     TEXT NOT NULL,
//	    reason     TEXT NOT NULL DEFAULT '',
//	    request_id TEXT NOT NULL DEFAULT ''
//	);
//	CREATE INDEX audit_events_entity_idx ON audit_events (entity_id, occurred_at);
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	category := event.Category
	if category == "" {
		category = audit.AuditEvent(event.Action).Category()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_events (id, category, occurred_at, actor, entity_id, action, reason, request_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), string(category), event.Timestamp, event.Actor.String(),
		event.EntityID, event.Action, event.Reason, event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByEntity(ctx context.Context, entityID string) ([]audit.Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, occurred_at, actor, entity_id, action, reason, request_id
		FROM audit_events
		WHERE entity_id = $1
		ORDER BY occurred_at`,
		entityID,
	)
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var out []audit.Event
	for rows.Next() {
		var e audit.Event
		var category, actor string
		if err := rows.Scan(&category, &e.Timestamp, &actor, &e.EntityID, &e.Action, &e.Reason, &e.RequestID); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.Category = audit.EventCategory(category)
		e.Actor = domain.Address(actor)
		out = append(out, e)
	}
	return out, rows.Err()
}
