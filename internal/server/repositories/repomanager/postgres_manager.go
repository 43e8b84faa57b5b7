package repomanager

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"

	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/migrations"
	"github.com/dmolchanov/packvault/internal/server/repositories/allocations"
	"github.com/dmolchanov/packvault/internal/server/repositories/audit"
	"github.com/dmolchanov/packvault/internal/server/repositories/packs"
	"github.com/dmolchanov/packvault/internal/server/repositories/pool"
	"github.com/dmolchanov/packvault/internal/server/repositories/staged"
)

type PostgresRepositoryManager struct{}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect error: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}

	return nil
}

func (m *PostgresRepositoryManager) Packs(db dbx.DBTX) packs.Repository {
	return packs.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Pool(db dbx.DBTX) pool.Repository {
	return pool.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Allocations(db dbx.DBTX) allocations.Repository {
	return allocations.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Staged(db dbx.DBTX) staged.Repository {
	return staged.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewPostgresRepository(db)
}
