package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	sc "github.com/dmolchanov/packvault/internal/server/config"
	"github.com/dmolchanov/packvault/internal/server/events"
	"github.com/dmolchanov/packvault/internal/server/models"
	"github.com/dmolchanov/packvault/internal/server/registry"
	"github.com/dmolchanov/packvault/internal/server/repositories/repomanager"
)

// PoolService maintains the availability pool backing each pack.
type PoolService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	registry    registry.Client
	publisher   events.Publisher
}

func NewPoolService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	reg registry.Client, publisher events.Publisher) *PoolService {
	return &PoolService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		registry:    reg,
		publisher:   publisher,
	}
}

// Insert appends a single bundle to a pack's pool. System only.
func (s *PoolService) Insert(ctx context.Context, actor string, packID int64, bundle []string) (*models.AvailabilityEntry, error) {
	if actor != s.config.ServiceAccount {
		return nil, common.ErrUnauthorized
	}
	if len(bundle) == 0 {
		return nil, fmt.Errorf("%w: empty bundle", common.ErrMalformedInput)
	}

	if _, err := s.repomanager.Packs(s.db).GetByID(ctx, packID); err != nil {
		return nil, err
	}

	var entry *models.AvailabilityEntry
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		entry, err = s.repomanager.Pool(tx).Insert(ctx, packID, bundle)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// Generate bulk-populates a pack's pool from the assets the service account
// currently holds, filtered to the pack's collection and the given category,
// chunked into bundles of bundleSize. Inserting the same held assets twice
// produces duplicate entries; dedup is the operator's concern. System only.
func (s *PoolService) Generate(ctx context.Context, actor string, packID int64, category string, bundleSize int) (int, error) {
	if actor != s.config.ServiceAccount {
		return 0, common.ErrUnauthorized
	}
	if bundleSize <= 0 {
		return 0, fmt.Errorf("%w: bundle size must be positive", common.ErrMalformedInput)
	}

	pack, err := s.repomanager.Packs(s.db).GetByID(ctx, packID)
	if err != nil {
		return 0, err
	}

	assets, err := s.registry.ListOwnedAssets(ctx, s.config.ServiceAccount)
	if err != nil {
		return 0, fmt.Errorf("error listing held assets: %w", err)
	}

	var eligible []string
	for _, asset := range assets {
		if asset.Collection == pack.Collection && asset.Category == category {
			eligible = append(eligible, asset.ID)
		}
	}

	var bundles [][]string
	for i := 0; i+bundleSize <= len(eligible); i += bundleSize {
		bundles = append(bundles, eligible[i:i+bundleSize])
	}
	if len(bundles) == 0 {
		return 0, common.ErrPoolExhausted
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		poolRepo := s.repomanager.Pool(tx)
		for _, bundle := range bundles {
			if _, err := poolRepo.Insert(ctx, packID, bundle); err != nil {
				return err
			}
		}

		raw, err := json.Marshal(map[string]any{
			"pack_id":     packID,
			"category":    category,
			"bundle_size": bundleSize,
			"entries":     len(bundles),
		})
		if err != nil {
			return fmt.Errorf("audit marshal error: %w", err)
		}
		return s.repomanager.Audit(tx).Append(ctx, &models.AuditEvent{
			ID:        uuid.NewString(),
			Kind:      models.AuditPoolGenerated,
			Payload:   raw,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, models.AuditPoolGenerated, map[string]any{
			"pack_id": packID,
			"entries": len(bundles),
		})
	}
	return len(bundles), nil
}
