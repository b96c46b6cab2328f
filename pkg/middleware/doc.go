// Package middleware provides transport-level instrumentation for the
// orgkit API client.
//
// Middlewares wrap the http.RoundTripper chain beneath the auth
// coordinator, so every request — originals, refresh replays, cache
// revalidations — is observed:
//
//	transport := middleware.Metrics()(
//	    middleware.OTel()(http.DefaultTransport),
//	)
//	coord := auth.NewCoordinator(creds, refreshURL, auth.WithBase(transport))
//
// CacheMetrics adapts the same Prometheus registry to the swr cache's
// diagnostic events.
package middleware
