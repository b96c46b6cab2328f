package auth

import "errors"

// Storage keys for the credential pair. Both are written together on save
// and removed together on clear; a partial pair is never persisted.
const (
	KeyAccessToken  = "auth_token"
	KeyRefreshToken = "refresh_token"
)

// TokenPair is an access/refresh token pair. The pair is replaced
// atomically on every successful refresh and cleared entirely when a
// refresh fails.
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Valid reports whether both tokens are present.
func (p TokenPair) Valid() bool {
	return p.Access != "" && p.Refresh != ""
}

// Sentinel errors for auth conditions.
var (
	// ErrNoCredentials is returned when a refresh is attempted without a
	// stored refresh token.
	ErrNoCredentials = errors.New("auth: no stored credentials")

	// ErrLoggedOut is returned for requests made after a failed refresh,
	// until Login re-establishes credentials.
	ErrLoggedOut = errors.New("auth: logged out, re-authentication required")

	// ErrRefreshFailed is returned when the refresh endpoint rejects the
	// refresh token or responds with a non-2xx status.
	ErrRefreshFailed = errors.New("auth: token refresh failed")
)

// Navigator is the navigation collaborator notified on terminal auth
// failure. In the browser client it redirects to the login route.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to the Navigator interface.
type NavigatorFunc func(path string)

// Navigate calls f(path).
func (f NavigatorFunc) Navigate(path string) { f(path) }
