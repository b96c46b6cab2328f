// Package optimistic implements the optimistic update engine: mutations
// are applied to local state synchronously, then reconciled with the
// server's authoritative response or rolled back when the request fails.
//
// State lives in a Store[T] — the entity slice, the pending-operation
// ledger, and the most recent error. UI code never mutates the slice
// directly; every change goes through Engine.Execute with one of the
// tagged actions:
//
//	created, err := engine.Execute(ctx, optimistic.Create[org.Team]{
//	    Path: "/teams",
//	    Item: org.Team{ID: org.TempID(), Name: "Platform"},
//	})
//
// Create appends the tentative item and, on confirmation, swaps it for
// the server entity (reconciling the temporary client id with the
// server-assigned one). Update replaces by id, Delete removes by id.
// On failure the action's inverse is applied — the caller-supplied
// Rollback if set, otherwise a derived per-operation inverse — so state
// never reflects an unconfirmed mutation. Concurrent executions are
// tracked independently: a failure in one neither blocks nor rolls back
// another.
package optimistic
