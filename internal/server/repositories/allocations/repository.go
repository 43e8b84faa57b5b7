package allocations

import (
	"context"

	"github.com/dmolchanov/packvault/internal/server/models"
)

type Repository interface {
	// Create inserts a pending allocation request. Returns
	// common.ErrAlreadyExists when an allocation with the same item id is
	// already present, regardless of its status.
	Create(ctx context.Context, req *models.AllocationRequest) error
	GetByItemID(ctx context.Context, itemID string) (*models.AllocationRequest, error)
	// MarkResolved moves a pending allocation to resolved and records the
	// chosen bundle. Returns common.ErrInvalidState when the allocation is
	// not pending anymore.
	MarkResolved(ctx context.Context, itemID string, bundle []string) error
	// Delete removes the allocation row. Returns common.ErrNotFound when
	// nothing was deleted.
	Delete(ctx context.Context, itemID string) error
	DeleteAll(ctx context.Context) error
}
