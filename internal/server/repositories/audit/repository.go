package audit

import (
	"context"

	"github.com/dmolchanov/packvault/internal/server/models"
)

type Repository interface {
	Append(ctx context.Context, event *models.AuditEvent) error
	// List returns events in creation order, newest last.
	List(ctx context.Context, limit int) ([]*models.AuditEvent, error)
	DeleteAll(ctx context.Context) error
}
