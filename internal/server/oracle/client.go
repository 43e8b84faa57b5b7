// Package oracle talks to the external randomness oracle. Each pending
// allocation asks the oracle for a random value and later receives it back
// through the callback endpoint.
package oracle

import "context"

type Client interface {
	// RequestRand asks the oracle for a random value. The oracle echoes the
	// correlation id back in its callback and mixes the signing value into
	// its entropy.
	RequestRand(ctx context.Context, correlationID string, signingValue uint64, callbackAccount string) error
}
