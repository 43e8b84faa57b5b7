// Package common defines shared constants and sentinel errors used across
// the PackVault server and operator CLI. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrInternal     = errors.New("internal error")
	ErrUnauthorized = errors.New("unauthorized")

	// Lifecycle errors. ErrInvalidState marks an operation invoked against
	// an entity in the wrong state: claim before resolution, resolve after
	// resolution, retry after resolution.
	ErrInvalidState = errors.New("invalid lifecycle state")

	// ErrPoolExhausted marks a selection attempted against an empty pool
	// subset. The only recovery is administrative repopulation and a retry.
	ErrPoolExhausted = errors.New("no assets available for this pack")

	// Input validation errors.
	ErrMalformedInput    = errors.New("malformed input")
	ErrNoPackForTemplate = errors.New("no pack exists for this template")
	ErrPackLocked        = errors.New("the pack has not unlocked yet")
	ErrIneligibleItem    = errors.New("item is not eligible for staging")

	// Staging lifecycle errors.
	ErrAlreadyStaged = errors.New("requester already has a staged entry")
	ErrNotApproved   = errors.New("staged entry is not approved")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
