package staged

import (
	"context"

	"github.com/dmolchanov/packvault/internal/server/models"
)

type Repository interface {
	// Create stages an item for the requester. Returns
	// common.ErrAlreadyStaged when the requester already holds a staged
	// slot or the item is staged already.
	Create(ctx context.Context, entry *models.StagedEntry) error
	GetByItemID(ctx context.Context, itemID string) (*models.StagedEntry, error)
	// Approve flips the approved flag. Returns common.ErrNotFound when no
	// such staged item exists.
	Approve(ctx context.Context, itemID string) error
	// Delete removes the staged row. Returns common.ErrNotFound when
	// nothing was deleted.
	Delete(ctx context.Context, itemID string) error
	DeleteAll(ctx context.Context) error
}
