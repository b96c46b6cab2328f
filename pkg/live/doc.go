// Package live subscribes to the server's invalidation feed and evicts
// cache entries the moment the server reports them changed, instead of
// waiting for entry ages to run out.
//
//	feed := live.New(wsURL, cache)
//	go feed.Run(ctx)
//
// The feed is advisory: losing the connection degrades the client back
// to plain age-based stale-while-revalidate behavior, so connection
// failures reconnect with capped backoff and are never surfaced to
// callers.
package live
