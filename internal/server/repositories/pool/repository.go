package pool

import (
	"context"

	"github.com/dmolchanov/packvault/internal/server/models"
)

type Repository interface {
	// Insert appends an entry to the pool and returns it with the assigned
	// sequential entry id.
	Insert(ctx context.Context, packID int64, bundle []string) (*models.AvailabilityEntry, error)
	// ListByPack returns the currently present entries tagged with packID
	// in entry_id (insertion) order.
	ListByPack(ctx context.Context, packID int64) ([]*models.AvailabilityEntry, error)
	// CountByPack returns the number of entries currently tagged with packID.
	CountByPack(ctx context.Context, packID int64) (int64, error)
	// SelectAndRemove atomically deletes and returns the entry at the given
	// zero-based index into the packID subset (entry_id order). Returns
	// common.ErrPoolExhausted when no such entry exists.
	SelectAndRemove(ctx context.Context, packID int64, index int64) (*models.AvailabilityEntry, error)
	DeleteAll(ctx context.Context) error
}
