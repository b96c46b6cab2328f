// Package apitest provides an in-memory reference API server for
// exercising the client stack in tests. It implements the auth, org
// CRUD, cache-control, and live-invalidation contracts the client
// packages are written against.
package apitest
