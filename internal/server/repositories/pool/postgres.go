// Package pool provides the PostgreSQL-backed availability pool repository.
package pool

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/models"
)

// PostgresRepository implements pool storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, packID int64, bundle []string) (*models.AvailabilityEntry, error) {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return nil, fmt.Errorf("bundle marshal error: %w", err)
	}

	query := `
		INSERT INTO availability_entries (pack_id, bundle)
		VALUES ($1, $2)
		RETURNING entry_id
	`
	entry := &models.AvailabilityEntry{PackID: packID, Bundle: bundle}
	if err := r.db.QueryRowContext(ctx, query, packID, raw).Scan(&entry.EntryID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) ListByPack(ctx context.Context, packID int64) ([]*models.AvailabilityEntry, error) {
	query := `
		SELECT entry_id, pack_id, bundle FROM availability_entries
		WHERE pack_id = $1
		ORDER BY entry_id
	`
	rows, err := r.db.QueryContext(ctx, query, packID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.AvailabilityEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) CountByPack(ctx context.Context, packID int64) (int64, error) {
	var n int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM availability_entries WHERE pack_id = $1`, packID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// SelectAndRemove deletes the selected row in a single statement so that two
// resolutions racing on the same pack can never take the same entry.
func (r *PostgresRepository) SelectAndRemove(ctx context.Context, packID int64, index int64) (*models.AvailabilityEntry, error) {
	query := `
		DELETE FROM availability_entries
		WHERE entry_id = (
			SELECT entry_id FROM availability_entries
			WHERE pack_id = $1
			ORDER BY entry_id
			LIMIT 1 OFFSET $2
		)
		RETURNING entry_id, pack_id, bundle
	`
	row := r.db.QueryRowContext(ctx, query, packID, index)

	entry := &models.AvailabilityEntry{}
	var raw []byte
	if err := row.Scan(&entry.EntryID, &entry.PackID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrPoolExhausted
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if err := json.Unmarshal(raw, &entry.Bundle); err != nil {
		return nil, fmt.Errorf("bundle unmarshal error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM availability_entries`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*models.AvailabilityEntry, error) {
	entry := &models.AvailabilityEntry{}
	var raw []byte
	if err := row.Scan(&entry.EntryID, &entry.PackID, &raw); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &entry.Bundle); err != nil {
		return nil, fmt.Errorf("bundle unmarshal error: %w", err)
	}
	return entry, nil
}
