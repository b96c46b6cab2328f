// Package auth provides credential persistence and transparent token
// refresh for the orgkit API client.
//
// The Coordinator is an http.RoundTripper that attaches the stored access
// token to outgoing requests and repairs authorization failures: on the
// first 401/403 of a failure episode it performs exactly one refresh call
// (concurrent failures coalesce onto it), then replays each failed request
// with the new token. If the refresh itself fails, credentials are cleared,
// the navigator is redirected to the login route, and the coordinator stays
// logged out until Login is called.
//
//	creds := auth.NewCredentials(store)
//	coord := auth.NewCoordinator(creds, "https://api.example.com/auth/refresh",
//	    auth.WithNavigator(nav),
//	)
//	client := &http.Client{Transport: coord}
//
// Non-auth failures pass through the coordinator untouched.
package auth
