package storage

// Store defines the interface for key-value persistence backends.
// Implementations must be safe for concurrent use.
//
// The API is deliberately synchronous and error-free on the write path,
// mirroring browser local storage: callers treat persistence as
// best-effort, and backends report write problems through their own
// logging rather than up the call stack.
type Store interface {
	// Get returns the value for key and whether it exists.
	Get(key string) (string, bool)

	// Set stores value under key, overwriting any previous value.
	Set(key, value string)

	// Remove deletes key. Removing a missing key is a no-op.
	Remove(key string)

	// Keys returns a snapshot of all stored keys, in no particular order.
	// Callers use it for enumerate-then-delete bulk invalidation; the
	// store itself has no pattern matching.
	Keys() []string
}
