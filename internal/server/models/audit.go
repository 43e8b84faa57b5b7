package models

import (
	"encoding/json"
	"time"
)

// Audit event kinds recorded by state transitions.
const (
	AuditPackCreated        = "pack.created"
	AuditAllocationResolved = "allocation.resolved"
	AuditPoolGenerated      = "pool.generated"
)

// AuditEvent is one record in the immutable event trail consumed by
// external indexers. The payload schema depends on the kind.
type AuditEvent struct {
	ID        string
	Kind      string
	Payload   json.RawMessage
	CreatedAt time.Time
}
