package services

import (
	"context"
	"database/sql"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	sc "github.com/dmolchanov/packvault/internal/server/config"
	"github.com/dmolchanov/packvault/internal/server/repositories/repomanager"
)

// Scopes accepted by RemoveAll.
const (
	ScopePacks        = "packs"
	ScopeAllocations  = "allocations"
	ScopeAvailability = "availability"
	ScopeStaged       = "staged"
	ScopeAudit        = "audit"
)

// AdminService covers destructive maintenance operations.
type AdminService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
}

func NewAdminService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config) *AdminService {
	return &AdminService{
		db:          db,
		repomanager: repomanager,
		config:      config,
	}
}

// RemoveAll wipes one named storage scope. An unknown scope is a silent
// no-op, so a sweep over candidate names can run unconditionally. System
// only.
func (s *AdminService) RemoveAll(ctx context.Context, actor, scope string) error {
	if actor != s.config.ServiceAccount {
		return common.ErrUnauthorized
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		switch scope {
		case ScopePacks:
			return s.repomanager.Packs(tx).DeleteAll(ctx)
		case ScopeAllocations:
			return s.repomanager.Allocations(tx).DeleteAll(ctx)
		case ScopeAvailability:
			return s.repomanager.Pool(tx).DeleteAll(ctx)
		case ScopeStaged:
			return s.repomanager.Staged(tx).DeleteAll(ctx)
		case ScopeAudit:
			return s.repomanager.Audit(tx).DeleteAll(ctx)
		}
		return nil
	})
}
