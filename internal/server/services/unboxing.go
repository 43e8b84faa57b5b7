package services

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/dmolchanov/packvault/internal/common"
	"github.com/dmolchanov/packvault/internal/dbx"
	sc "github.com/dmolchanov/packvault/internal/server/config"
	"github.com/dmolchanov/packvault/internal/server/dispatch"
	"github.com/dmolchanov/packvault/internal/server/events"
	"github.com/dmolchanov/packvault/internal/server/models"
	"github.com/dmolchanov/packvault/internal/server/registry"
	"github.com/dmolchanov/packvault/internal/server/repositories/repomanager"
)

// UnboxingService drives the allocation lifecycle: inbound transfer
// notifications open allocation requests, oracle callbacks resolve them,
// and claims release the assigned bundles.
type UnboxingService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	registry    registry.Client
	queue       dispatch.Queue
	publisher   events.Publisher
}

func NewUnboxingService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	reg registry.Client, queue dispatch.Queue, publisher events.Publisher) *UnboxingService {
	return &UnboxingService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		registry:    reg,
		queue:       queue,
		publisher:   publisher,
	}
}

// HandleTransfer processes one inbound transfer notification. Only the
// registry account may deliver notifications; transfers not addressed to the
// service account, or sent by it, are ignored.
//
// The payload is the raw notification body; it seeds the signing value of
// the randomness request opened for an unboxing.
func (s *UnboxingService) HandleTransfer(ctx context.Context, actor, from, to string,
	assetIDs []string, memo string, payload []byte) error {

	if actor != s.config.RegistryAccount {
		return common.ErrUnauthorized
	}
	if from == s.config.ServiceAccount || to != s.config.ServiceAccount {
		return nil
	}

	intent, err := ParseIntent(memo)
	if err != nil {
		return err
	}

	switch intent {
	case IntentPassthrough:
		return nil
	case IntentUnbox:
		return s.openAllocation(ctx, from, assetIDs, payload)
	case IntentStageAvatar:
		return s.stageAvatar(ctx, from, assetIDs)
	}
	return common.ErrMalformedInput
}

// openAllocation records a pending allocation for a single sealed pack item
// and, once the record is durable, asks the oracle for randomness. The item
// id doubles as the correlation id of the oracle exchange.
func (s *UnboxingService) openAllocation(ctx context.Context, from string, assetIDs []string, payload []byte) error {
	if len(assetIDs) != 1 {
		return fmt.Errorf("%w: exactly one pack item per unboxing", common.ErrMalformedInput)
	}
	itemID := assetIDs[0]

	asset, err := s.registry.GetAsset(ctx, itemID)
	if err != nil {
		return fmt.Errorf("error fetching item: %w", err)
	}

	pack, err := s.repomanager.Packs(s.db).GetByTemplate(ctx, asset.TemplateRef)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return common.ErrNoPackForTemplate
		}
		return fmt.Errorf("error resolving pack: %w", err)
	}

	if time.Now().Before(pack.UnlockTime) {
		return common.ErrPackLocked
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Allocations(tx).Create(ctx, &models.AllocationRequest{
			ItemID:    itemID,
			PackID:    pack.PackID,
			Requester: from,
			Status:    models.AllocationPending,
		})
	})
	if err != nil {
		return err
	}

	s.queue.Enqueue(dispatch.RandRequest(itemID, SigningValue(payload), s.config.ServiceAccount))
	return nil
}

// stageAvatar places a single avatar item into the swap staging area. The
// item must come from the configured avatar collection, carry an accepted
// category and, when a template allow-list is configured, an accepted
// template. A requester holds at most one staged slot at a time.
func (s *UnboxingService) stageAvatar(ctx context.Context, from string, assetIDs []string) error {
	if len(assetIDs) != 1 {
		return fmt.Errorf("%w: exactly one avatar item per swap", common.ErrMalformedInput)
	}
	itemID := assetIDs[0]

	asset, err := s.registry.GetAsset(ctx, itemID)
	if err != nil {
		return fmt.Errorf("error fetching item: %w", err)
	}

	if asset.Collection != s.config.AvatarCollection {
		return common.ErrIneligibleItem
	}
	if !slices.Contains(s.config.AvatarCategories, asset.Category) {
		return common.ErrIneligibleItem
	}
	if len(s.config.AvatarTemplates) > 0 && !slices.Contains(s.config.AvatarTemplates, asset.TemplateRef) {
		return common.ErrIneligibleItem
	}

	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Staged(tx).Create(ctx, &models.StagedEntry{
			ItemID:    itemID,
			Requester: from,
			Category:  asset.Category,
		})
	})
}

// Resolve consumes one oracle callback. Selection re-reads the pool inside
// the storage unit: with n entries remaining for the pack, the chosen index
// is randomValue mod (n-1), or 0 when a single entry remains. The selected
// entry, the status flip and the audit record commit together; the burn of
// the consumed pack item is dispatched only after commit.
func (s *UnboxingService) Resolve(ctx context.Context, actor, correlationID string, randomValue []byte) error {
	if actor != s.config.OracleAccount {
		return common.ErrUnauthorized
	}
	if len(randomValue) < 8 {
		return fmt.Errorf("%w: random value shorter than 8 bytes", common.ErrMalformedInput)
	}

	var resolved *models.AllocationRequest
	var maxValue, index uint64

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		allocRepo := s.repomanager.Allocations(tx)

		alloc, err := allocRepo.GetByItemID(ctx, correlationID)
		if err != nil {
			// A callback for an unknown correlation id is rejected, not
			// absorbed.
			return err
		}
		if alloc.Status != models.AllocationPending {
			return common.ErrInvalidState
		}

		poolRepo := s.repomanager.Pool(tx)
		n, err := poolRepo.CountByPack(ctx, alloc.PackID)
		if err != nil {
			return err
		}
		if n == 0 {
			return common.ErrPoolExhausted
		}

		maxValue = uint64(n) - 1
		index = 0
		if maxValue > 0 {
			index = binary.BigEndian.Uint64(randomValue[:8]) % maxValue
		}

		entry, err := poolRepo.SelectAndRemove(ctx, alloc.PackID, int64(index))
		if err != nil {
			return err
		}

		if err := allocRepo.MarkResolved(ctx, alloc.ItemID, entry.Bundle); err != nil {
			return err
		}

		alloc.Status = models.AllocationResolved
		alloc.Bundle = entry.Bundle
		resolved = alloc

		return s.appendAudit(ctx, tx, models.AuditAllocationResolved, map[string]any{
			"item_id":   alloc.ItemID,
			"pack_id":   alloc.PackID,
			"requester": alloc.Requester,
			"max_value": maxValue,
			"index":     index,
			"bundle":    entry.Bundle,
		})
	})
	if err != nil {
		return err
	}

	s.queue.Enqueue(dispatch.Burn(resolved.ItemID))
	s.publish(ctx, models.AuditAllocationResolved, resolved)
	return nil
}

// Retry re-issues the randomness request for an allocation stuck in the
// pending state. The correlation id stays the same; the signing value is
// derived from the retry payload, so it is fresh.
func (s *UnboxingService) Retry(ctx context.Context, actor, itemID string, payload []byte) error {
	if actor != s.config.ServiceAccount {
		return common.ErrUnauthorized
	}

	alloc, err := s.repomanager.Allocations(s.db).GetByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	if alloc.Status != models.AllocationPending {
		return common.ErrInvalidState
	}

	s.queue.Enqueue(dispatch.RandRequest(itemID, SigningValue(payload), s.config.ServiceAccount))
	return nil
}

// Claim releases a resolved allocation's bundle to its requester. The
// allocation row is removed in the same unit; the transfer command is
// dispatched after commit.
func (s *UnboxingService) Claim(ctx context.Context, actor, itemID string) error {
	alloc, err := s.repomanager.Allocations(s.db).GetByItemID(ctx, itemID)
	if err != nil {
		return err
	}
	if actor != alloc.Requester && actor != s.config.ServiceAccount {
		return common.ErrUnauthorized
	}
	if alloc.Status != models.AllocationResolved {
		return common.ErrInvalidState
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repomanager.Allocations(tx).Delete(ctx, itemID)
	})
	if err != nil {
		return err
	}

	s.queue.Enqueue(dispatch.Transfer(alloc.Requester, alloc.Bundle, "claim unbox pack "+itemID))
	return nil
}

// GetAllocation returns the current state of an allocation request.
func (s *UnboxingService) GetAllocation(ctx context.Context, itemID string) (*models.AllocationRequest, error) {
	return s.repomanager.Allocations(s.db).GetByItemID(ctx, itemID)
}

func (s *UnboxingService) appendAudit(ctx context.Context, tx dbx.DBTX, kind string, payload map[string]any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("audit marshal error: %w", err)
	}
	return s.repomanager.Audit(tx).Append(ctx, &models.AuditEvent{
		ID:        uuid.NewString(),
		Kind:      kind,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	})
}

// publish pushes an event to external consumers. Publishing is best effort
// and never fails the originating operation.
func (s *UnboxingService) publish(ctx context.Context, kind string, payload any) {
	if s.publisher == nil {
		return
	}
	_ = s.publisher.Publish(ctx, kind, payload)
}
