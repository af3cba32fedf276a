// Package tokenstore provides reference implementations of the token
// store capability that an event processor worker needs to resume
// from its last successfully processed event after a restart.
package tokenstore

import "context"

// TokenStore persists the tracking token for one named event processor.
// The runtime calls RetrieveToken once at startup and StoreToken after
// every event whose handler returned success; it never calls StoreToken
// for a failed handler, so the token is non-decreasing by construction.
type TokenStore interface {
	// RetrieveToken returns the last stored token for processor, and
	// false if no token has ever been stored (a fresh processor starts
	// from the beginning of the event log).
	RetrieveToken(ctx context.Context, processor string) (token int64, found bool, err error)

	// StoreToken persists token as the new high-water mark for processor.
	// Implementations must make this durable before returning, since the
	// event processor treats a successful return as a promise that a
	// restart will not replay the corresponding event.
	StoreToken(ctx context.Context, processor string, token int64) error

	// Close releases any resources held by the store.
	Close() error
}
