package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// State is the coordinator's refresh state.
type State int32

const (
	// StateIdle means no refresh is in progress.
	StateIdle State = iota

	// StateRefreshing means a refresh call is in flight; concurrent auth
	// failures wait on it instead of issuing their own.
	StateRefreshing

	// StateLoggedOut means a refresh failed. Terminal until Login.
	StateLoggedOut
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRefreshing:
		return "refreshing"
	case StateLoggedOut:
		return "logged-out"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// DefaultLoginPath is where the navigator is sent on terminal auth failure.
const DefaultLoginPath = "/login"

// Coordinator is an http.RoundTripper that repairs expired credentials.
// It attaches the stored access token to each request and, on an
// authorization failure (401/403), performs a single-flight refresh and
// replays the failed request once with the new token.
//
// The refresh call itself goes through a separate plain HTTP client so it
// can never recurse into the coordinator.
type Coordinator struct {
	creds      *Credentials
	refreshURL string
	loginPath  string
	base       http.RoundTripper
	refresher  *http.Client
	nav        Navigator
	logger     *slog.Logger

	state atomic.Int32
	sf    singleflight.Group
}

// CoordinatorOption configures a Coordinator.
type CoordinatorOption func(*Coordinator)

// WithBase sets the underlying transport requests are sent through.
// Default: http.DefaultTransport.
func WithBase(rt http.RoundTripper) CoordinatorOption {
	return func(c *Coordinator) {
		c.base = rt
	}
}

// WithNavigator sets the collaborator redirected to the login route when a
// refresh fails. Default: none.
func WithNavigator(nav Navigator) CoordinatorOption {
	return func(c *Coordinator) {
		c.nav = nav
	}
}

// WithLoginPath sets the navigation target on terminal auth failure.
// Default: DefaultLoginPath.
func WithLoginPath(path string) CoordinatorOption {
	return func(c *Coordinator) {
		c.loginPath = path
	}
}

// WithRefresherClient sets the HTTP client used for the refresh call.
// Default: a plain client with a 15s timeout.
func WithRefresherClient(client *http.Client) CoordinatorOption {
	return func(c *Coordinator) {
		c.refresher = client
	}
}

// WithCoordinatorLogger sets the logger. Default: slog.Default().
func WithCoordinatorLogger(logger *slog.Logger) CoordinatorOption {
	return func(c *Coordinator) {
		c.logger = logger
	}
}

// NewCoordinator creates a coordinator over the given credential store.
// refreshURL is the absolute URL of the refresh endpoint.
func NewCoordinator(creds *Credentials, refreshURL string, opts ...CoordinatorOption) *Coordinator {
	c := &Coordinator{
		creds:      creds,
		refreshURL: refreshURL,
		loginPath:  DefaultLoginPath,
		base:       http.DefaultTransport,
		refresher:  &http.Client{Timeout: 15 * time.Second},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns the current refresh state.
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Login stores a fresh pair and returns the coordinator to idle.
// Call after explicit re-authentication.
func (c *Coordinator) Login(pair TokenPair) {
	c.creds.Save(pair)
	c.state.Store(int32(StateIdle))
}

// Logout clears credentials and marks the coordinator logged out.
func (c *Coordinator) Logout() {
	c.creds.Clear()
	c.state.Store(int32(StateLoggedOut))
}

// RoundTrip implements http.RoundTripper.
//
// The request body is buffered up front so the request can be replayed
// after a refresh. At most one refresh and one replay happen per call.
func (c *Coordinator) RoundTrip(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		var err error
		body, err = io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("auth: buffer request body: %w", err)
		}
	}

	resp, used, err := c.send(req, body)
	if err != nil {
		return nil, err
	}
	if !isAuthFailure(resp.StatusCode) {
		return resp, nil
	}
	if c.State() == StateLoggedOut {
		// Terminal; don't retry, don't refresh again.
		return resp, nil
	}

	// Retain the original failure so it can be re-raised if the refresh
	// fails. The body must be buffered before anything else touches it.
	original, err := bufferResponse(resp)
	if err != nil {
		return nil, err
	}

	// If the pair rotated between this request being sent and its 401
	// arriving, the episode is already repaired; retry without another
	// refresh call.
	if pair, ok := c.creds.Load(); !ok || pair.Access == used {
		if _, err := c.refresh(); err != nil {
			// Side effects (credential clear, redirect) already happened.
			return original.restore(), nil
		}
	}

	resp, _, err = c.send(req, body)
	return resp, err
}

// send clones req with the buffered body, attaches the current access
// token, and performs the request on the base transport. It returns the
// access token the request carried, if any.
func (c *Coordinator) send(req *http.Request, body []byte) (*http.Response, string, error) {
	out := req.Clone(req.Context())
	if body != nil {
		out.Body = io.NopCloser(bytes.NewReader(body))
		out.ContentLength = int64(len(body))
		out.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	var used string
	if pair, ok := c.creds.Load(); ok {
		used = pair.Access
		out.Header.Set("Authorization", "Bearer "+pair.Access)
	}
	resp, err := c.base.RoundTrip(out)
	return resp, used, err
}

// refresh obtains one fresh token pair per failure episode. Concurrent
// callers coalesce onto a single refresh call and share its outcome.
func (c *Coordinator) refresh() (TokenPair, error) {
	v, err, _ := c.sf.Do("refresh", func() (any, error) {
		// A caller that raced a just-failed episode must not start a
		// fresh one with cleared credentials.
		if c.State() == StateLoggedOut {
			return TokenPair{}, ErrLoggedOut
		}

		c.state.Store(int32(StateRefreshing))
		pair, err := c.callRefreshEndpoint()
		if err != nil {
			c.creds.Clear()
			c.state.Store(int32(StateLoggedOut))
			c.logger.Warn("auth: refresh failed, logging out", "error", err)
			if c.nav != nil {
				c.nav.Navigate(c.loginPath)
			}
			return TokenPair{}, err
		}

		c.creds.Save(pair)
		c.state.Store(int32(StateIdle))
		c.logger.Debug("auth: token pair refreshed")
		return pair, nil
	})
	if err != nil {
		return TokenPair{}, err
	}
	return v.(TokenPair), nil
}

// callRefreshEndpoint posts the stored refresh token and decodes the new
// pair. The call deliberately uses a background context: the refresh
// outcome is shared by every queued request, so it must not die with the
// one caller that happened to trigger it.
func (c *Coordinator) callRefreshEndpoint() (TokenPair, error) {
	pair, ok := c.creds.Load()
	if !ok || pair.Refresh == "" {
		return TokenPair{}, ErrNoCredentials
	}

	payload, err := json.Marshal(map[string]string{"refresh": pair.Refresh})
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: encode refresh request: %w", err)
	}

	req, err := http.NewRequestWithContext(context.Background(),
		http.MethodPost, c.refreshURL, bytes.NewReader(payload))
	if err != nil {
		return TokenPair{}, fmt.Errorf("auth: build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.refresher.Do(req)
	if err != nil {
		return TokenPair{}, fmt.Errorf("%w: %v", ErrRefreshFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return TokenPair{}, fmt.Errorf("%w: status %d", ErrRefreshFailed, resp.StatusCode)
	}

	var fresh TokenPair
	if err := json.NewDecoder(resp.Body).Decode(&fresh); err != nil {
		return TokenPair{}, fmt.Errorf("%w: decode response: %v", ErrRefreshFailed, err)
	}
	if !fresh.Valid() {
		return TokenPair{}, fmt.Errorf("%w: incomplete token pair", ErrRefreshFailed)
	}
	return fresh, nil
}

func isAuthFailure(status int) bool {
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

// bufferedResponse retains a response whose body has been drained so the
// original failure can be returned to the caller after a failed refresh.
type bufferedResponse struct {
	resp *http.Response
	body []byte
}

func bufferResponse(resp *http.Response) (*bufferedResponse, error) {
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("auth: buffer response body: %w", err)
	}
	return &bufferedResponse{resp: resp, body: body}, nil
}

func (b *bufferedResponse) restore() *http.Response {
	b.resp.Body = io.NopCloser(bytes.NewReader(b.body))
	return b.resp
}
