package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
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

// CatalogService manages pack definitions.
type CatalogService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	registry    registry.Client
	publisher   events.Publisher
}

func NewCatalogService(db *sql.DB, repomanager repomanager.RepositoryManager, config *sc.Config,
	reg registry.Client, publisher events.Publisher) *CatalogService {
	return &CatalogService{
		db:          db,
		repomanager: repomanager,
		config:      config,
		registry:    reg,
		publisher:   publisher,
	}
}

// CreatePack registers a new pack definition. The actor and the service
// account must both be authorized on the pack's collection: the actor to
// prove ownership, the service account so it can later mint and burn on the
// collection's behalf. Each sealed-pack template maps to at most one pack.
func (s *CatalogService) CreatePack(ctx context.Context, actor string, pack *models.PackDefinition) (*models.PackDefinition, error) {
	if pack.Collection == "" || pack.TemplateRef == "" {
		return nil, common.ErrMalformedInput
	}

	collection, err := s.registry.GetCollection(ctx, pack.Collection)
	if err != nil {
		return nil, fmt.Errorf("error fetching collection: %w", err)
	}
	if !slices.Contains(collection.AuthorizedAccounts, actor) {
		return nil, common.ErrUnauthorized
	}
	if !slices.Contains(collection.AuthorizedAccounts, s.config.ServiceAccount) {
		return nil, common.ErrUnauthorized
	}

	_, err = s.repomanager.Packs(s.db).GetByTemplate(ctx, pack.TemplateRef)
	if err == nil {
		return nil, common.ErrAlreadyExists
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	var created *models.PackDefinition
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		created, err = s.repomanager.Packs(tx).Create(ctx, pack)
		if err != nil {
			return err
		}

		raw, err := json.Marshal(map[string]any{
			"pack_id":      created.PackID,
			"collection":   created.Collection,
			"template_ref": created.TemplateRef,
			"unlock_time":  created.UnlockTime,
		})
		if err != nil {
			return fmt.Errorf("audit marshal error: %w", err)
		}
		return s.repomanager.Audit(tx).Append(ctx, &models.AuditEvent{
			ID:        uuid.NewString(),
			Kind:      models.AuditPackCreated,
			Payload:   raw,
			CreatedAt: time.Now().UTC(),
		})
	})
	if err != nil {
		return nil, err
	}

	if s.publisher != nil {
		_ = s.publisher.Publish(ctx, models.AuditPackCreated, created)
	}
	return created, nil
}

// GetPack returns one pack definition by id.
func (s *CatalogService) GetPack(ctx context.Context, packID int64) (*models.PackDefinition, error) {
	return s.repomanager.Packs(s.db).GetByID(ctx, packID)
}
