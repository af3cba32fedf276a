/*
Package tokenstore provides reference TokenStore implementations for
the event processor worker.

MemoryTokenStore is a sync.Mutex-guarded map, good for tests and for
processors willing to replay their whole history on every restart.
BoltTokenStore persists one big-endian int64 per processor name in a
single bucket of an embedded BoltDB file, as a fixed-width binary
value since the token itself is the only thing that needs to survive
a restart.

The event processor only ever calls RetrieveToken once at startup and
StoreToken after a successful handler, so any implementation that
makes StoreToken durable before returning satisfies the token
monotonicity invariant for free.
*/
package tokenstore
