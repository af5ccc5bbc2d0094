// Package postgres persists audit events in the audit_events table.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"registrar/pkg/domain"
	"registrar/pkg/platform/audit"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	const q = `
		INSERT INTO audit_events (id, account_id, action, detail, created_at)
		VALUES ($1, $2, $3, $4, $5)`
	_, err := s.db.ExecContext(ctx, q,
		event.ID, int64(event.AccountID), string(event.Action), event.Detail, event.Timestamp)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListByAccount(ctx context.Context, accountID domain.AccountID) ([]audit.Event, error) {
	const q = `
		SELECT id, account_id, action, detail, created_at
		FROM audit_events
		WHERE account_id = $1
		ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, q, int64(accountID))
	if err != nil {
		return nil, fmt.Errorf("list audit events: %w", err)
	}
	defer rows.Close()

	var events []audit.Event
	for rows.Next() {
		var e audit.Event
		var id int64
		if err := rows.Scan(&e.ID, &id, &e.Action, &e.Detail, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan audit event: %w", err)
		}
		e.AccountID = domain.AccountID(id)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit events: %w", err)
	}
	return events, nil
}
