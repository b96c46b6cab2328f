// Package storage provides the key-value persistence substrate for the
// orgkit client data layer.
//
// The Store interface mirrors browser local storage: synchronous,
// string-valued get/set/remove plus key enumeration. Both the credential
// store and the stale-while-revalidate cache persist through it, which
// keeps subsystem logic independent of the backend:
//
//	store := storage.NewMemoryStore()
//	// or
//	store, err := storage.NewFileStore("~/.orgkit/state.json")
//
// # Backends
//
// MemoryStore is the default for tests and ephemeral sessions. FileStore
// writes through to a JSON file on every mutation, surviving process
// restarts the way local storage survives page reloads.
package storage
