// Package api provides the JSON HTTP client the orgkit data layer issues
// its requests through.
//
// The client is a thin base-URL wrapper around an http.Client whose
// transport chain carries the auth coordinator and any instrumentation
// middleware. It normalizes failures into *Error values: HTTP errors keep
// their status code and the response body's message, transport failures
// are flagged as network errors, and timeouts get a fixed user-facing
// message.
//
//	client := api.NewClient("https://api.example.com",
//	    api.WithHTTPClient(&http.Client{Transport: coord}),
//	)
//	var orgs []org.Organization
//	err := client.Get(ctx, "/organizations", &orgs)
package api
