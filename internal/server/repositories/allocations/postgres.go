// Package allocations provides the PostgreSQL-backed allocation request
// repository. An allocation row exists from the moment an unboxing is
// requested until the resolved bundle is claimed.
package allocations

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/models"
)

const uniqueViolationCode = "23505"

// PostgresRepository implements allocation storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, req *models.AllocationRequest) error {
	query := `
		INSERT INTO allocation_requests (item_id, pack_id, requester, status)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.db.ExecContext(ctx, query, req.ItemID, req.PackID, req.Requester, models.AllocationPending)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	return nil
}

func (r *PostgresRepository) GetByItemID(ctx context.Context, itemID string) (*models.AllocationRequest, error) {
	query := `
		SELECT item_id, pack_id, requester, status, bundle FROM allocation_requests
		WHERE item_id = $1
	`
	req := &models.AllocationRequest{}
	var raw []byte
	err := r.db.QueryRowContext(ctx, query, itemID).Scan(
		&req.ItemID, &req.PackID, &req.Requester, &req.Status, &raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	if raw != nil {
		if err := json.Unmarshal(raw, &req.Bundle); err != nil {
			return nil, fmt.Errorf("bundle unmarshal error: %w", err)
		}
	}

	return req, nil
}

// MarkResolved guards on the pending status inside the statement so a second
// resolution for the same item cannot overwrite the outcome.
func (r *PostgresRepository) MarkResolved(ctx context.Context, itemID string, bundle []string) error {
	raw, err := json.Marshal(bundle)
	if err != nil {
		return fmt.Errorf("bundle marshal error: %w", err)
	}

	query := `
		UPDATE allocation_requests SET status = $3, bundle = $2
		WHERE item_id = $1 AND status = $4
	`
	result, err := r.db.ExecContext(ctx, query, itemID, raw, models.AllocationResolved, models.AllocationPending)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrInvalidState
	}

	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, itemID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM allocation_requests WHERE item_id = $1`, itemID)
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
	if _, err := r.db.ExecContext(ctx, `DELETE FROM allocation_requests`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
