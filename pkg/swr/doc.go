// Package swr implements a stale-while-revalidate cache over the orgkit
// persistence substrate.
//
// Fetch serves cached values while they are fresh, serves stale values
// immediately while refreshing them in the background during the
// stale-while-revalidate window, and refetches synchronously once an
// entry is fully expired. Entries are JSON-serialized into a
// storage.Store under a fixed key prefix, so cached data survives
// restarts and is shared with nothing else.
//
//	cache := swr.New(store, swr.NewClientFetcher(client))
//	data, err := cache.Fetch(ctx, "/api/organizations")
//
// Cache policy comes from the response's Cache-Control directives
// (max-age, stale-while-revalidate, immutable, must-revalidate,
// no-store). Concurrent misses for one key coalesce onto a single
// network fetch; at most one background revalidation per key is in
// flight at a time.
package swr
