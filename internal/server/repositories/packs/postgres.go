// Package packs provides the PostgreSQL-backed pack catalog repository.
package packs

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/models"
)

// PostgresRepository implements pack storage over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, pack *models.PackDefinition) (*models.PackDefinition, error) {
	// Ids are sequential starting at 1 and never reused; an explicit id,
	// when supplied, wins over the generated one.
	query := `
		INSERT INTO packs (pack_id, collection, unlock_time, template_ref, display_data)
		VALUES (
			CASE WHEN $1 > 0 THEN $1
			     ELSE (SELECT COALESCE(MAX(pack_id), 0) + 1 FROM packs) END,
			$2, $3, $4, $5)
		RETURNING pack_id
	`
	err := r.db.QueryRowContext(ctx, query,
		pack.PackID, pack.Collection, pack.UnlockTime, pack.TemplateRef, pack.DisplayData).Scan(&pack.PackID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pack, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, packID int64) (*models.PackDefinition, error) {
	query := `
		SELECT pack_id, collection, unlock_time, template_ref, display_data FROM packs
		WHERE pack_id = $1
	`
	pack := &models.PackDefinition{}
	err := r.db.QueryRowContext(ctx, query, packID).Scan(
		&pack.PackID, &pack.Collection, &pack.UnlockTime, &pack.TemplateRef, &pack.DisplayData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pack, nil
}

func (r *PostgresRepository) GetByTemplate(ctx context.Context, templateRef string) (*models.PackDefinition, error) {
	query := `
		SELECT pack_id, collection, unlock_time, template_ref, display_data FROM packs
		WHERE template_ref = $1
	`
	pack := &models.PackDefinition{}
	err := r.db.QueryRowContext(ctx, query, templateRef).Scan(
		&pack.PackID, &pack.Collection, &pack.UnlockTime, &pack.TemplateRef, &pack.DisplayData)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return pack, nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM packs`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
