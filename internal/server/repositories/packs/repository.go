package packs

import (
	"context"

	"github.com/dmolchanov/packvault/internal/server/models"
)

type Repository interface {
	// Create inserts a pack definition. When pack.PackID is zero the next
	// sequential id (starting at 1) is assigned. Returns the stored pack.
	Create(ctx context.Context, pack *models.PackDefinition) (*models.PackDefinition, error)
	GetByID(ctx context.Context, packID int64) (*models.PackDefinition, error)
	// GetByTemplate resolves a template reference to its unique pack
	// definition. Returns common.ErrNotFound when no pack matches.
	GetByTemplate(ctx context.Context, templateRef string) (*models.PackDefinition, error)
	DeleteAll(ctx context.Context) error
}
