// Package models contains the durable entities owned by the PackVault
// server: pack definitions, availability entries, allocation requests,
// staged entries and audit events.
package models

import "time"

// PackDefinition describes an unboxing offer: which collection it belongs
// to, when it unlocks, and which external template marks an inbound item
// as a pack of this kind. Definitions are immutable after creation.
type PackDefinition struct {
	PackID      int64
	Collection  string
	UnlockTime  time.Time
	TemplateRef string
	DisplayData string
}
