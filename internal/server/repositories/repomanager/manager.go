// Package repomanager wires concrete repository implementations to the
// services. Factory methods take a dbx.DBTX so callers can pass either the
// root *sql.DB or an open transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmolchanov/packvault/internal/dbx"
	"github.com/dmolchanov/packvault/internal/server/repositories/allocations"
	"github.com/dmolchanov/packvault/internal/server/repositories/audit"
	"github.com/dmolchanov/packvault/internal/server/repositories/packs"
	"github.com/dmolchanov/packvault/internal/server/repositories/pool"
	"github.com/dmolchanov/packvault/internal/server/repositories/staged"
)

type RepositoryManager interface {
	RunMigrations(ctx context.Context, db *sql.DB) error
	Packs(db dbx.DBTX) packs.Repository
	Pool(db dbx.DBTX) pool.Repository
	Allocations(db dbx.DBTX) allocations.Repository
	Staged(db dbx.DBTX) staged.Repository
	Audit(db dbx.DBTX) audit.Repository
}
