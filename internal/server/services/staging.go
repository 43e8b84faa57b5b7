package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	sc "github.com/dmolchanov/packvault/internal/server/config"
	"github.com/dmolchanov/packvault/internal/server/dispatch"
	"github.com/dmolchanov/packvault/internal/server/registry"
	"github.com/dmolchanov/packvault/internal/server/repositories/repomanager"
)

// StagingService settles the avatar swap flow. Staging itself happens on
// the transfer path (see UnboxingService.HandleTransfer); this service
// covers the later transitions: approval, settlement, withdrawal.
type StagingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	registry    registry.Client
	queue       dispatch.Queue
}

func NewStagingService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	reg registry.Client, queue dispatch.Queue) *StagingService {
	return &StagingService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		registry:    reg,
		queue:       queue,
	}
}

// Approve marks a staged item as accepted for settlement. System only. The
// requester must match the staged slot's owner.
func (s *StagingService) Approve(ctx context.Context, actor, itemID, requester string) error {
	if actor != s.config.ServiceAccount {
		return common.ErrUnauthorized
	}

	entry, err := s.repomanager.Staged(s.db).GetByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	if entry.Requester != requester {
		return common.ErrUnauthorized
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Staged(tx).Approve(ctx, itemID)
	})
}

// Settle finishes an approved swap: the staged slot is removed, the final
// deliverable is minted to the requester from producedTemplate and the
// surrendered placeholder is burned. System only.
func (s *StagingService) Settle(ctx context.Context, actor, itemID, producedTemplate string) error {
	if actor != s.config.ServiceAccount {
		return common.ErrUnauthorized
	}
	if producedTemplate == "" {
		return fmt.Errorf("%w: produced template required", common.ErrMalformedInput)
	}

	entry, err := s.repomanager.Staged(s.db).GetByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	if !entry.Approved {
		return common.ErrNotApproved
	}

	asset, err := s.registry.GetAsset(ctx, itemID)
	if err != nil {
		return fmt.Errorf("error fetching item: %w", err)
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Staged(tx).Delete(ctx, itemID)
	})
	if err != nil {
		return err
	}

	s.queue.Enqueue(
		dispatch.Mint(asset.Collection, asset.Category, producedTemplate, entry.Requester),
		dispatch.Burn(itemID),
	)
	return nil
}

// Withdraw returns a staged item to its requester, regardless of approval
// state. The requester or the system may withdraw.
func (s *StagingService) Withdraw(ctx context.Context, actor, itemID string) error {
	entry, err := s.repomanager.Staged(s.db).GetByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	if actor != entry.Requester && actor != s.config.ServiceAccount {
		return common.ErrUnauthorized
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Staged(tx).Delete(ctx, itemID)
	})
	if err != nil {
		return err
	}

	s.queue.Enqueue(dispatch.Transfer(entry.Requester, []string{itemID}, "withdraw staged item"))
	return nil
}
