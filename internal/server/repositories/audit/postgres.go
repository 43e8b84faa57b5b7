// Package audit provides the PostgreSQL-backed audit event log.
package audit

import (
	"context"
	"fmt"

	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/models"
)

// PostgresRepository implements audit event storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Append(ctx context.Context, event *models.AuditEvent) error {
	query := `
		INSERT INTO audit_events (id, kind, payload, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, event.ID, event.Kind, []byte(event.Payload), event.CreatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) List(ctx context.Context, limit int) ([]*models.AuditEvent, error) {
	query := `
		SELECT id, kind, payload, created_at FROM audit_events
		ORDER BY created_at
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AuditEvent
	for rows.Next() {
		event := &models.AuditEvent{}
		var raw []byte
		if err := rows.Scan(&event.ID, &event.Kind, &raw, &event.CreatedAt); err != nil {
			return nil, err
		}
		event.Payload = raw
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM audit_events`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
