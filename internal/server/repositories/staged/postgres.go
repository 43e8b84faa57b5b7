// Package staged provides the PostgreSQL-backed staging repository used by
// the avatar swap flow. One staged slot per requester.
package staged

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/models"
)

const uniqueViolationCode = "23505"

// PostgresRepository implements staged item storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *models.StagedEntry) error {
	query := `
		INSERT INTO staged_entries (item_id, requester, category, approved)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, entry.ItemID, entry.Requester, entry.Category, entry.Approved)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return common.ErrAlreadyStaged
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByItemID(ctx context.Context, itemID string) (*models.StagedEntry, error) {
	query := `
		SELECT item_id, requester, category, approved FROM staged_entries
		WHERE item_id = $1
	`
	entry := &models.StagedEntry{}
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&entry.ItemID, &entry.Requester, &entry.Category, &entry.Approved)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return entry, nil
}

func (r *PostgresRepository) Approve(ctx context.Context, itemID string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE staged_entries SET approved = TRUE WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, itemID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM staged_entries WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}

	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM staged_entries`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
