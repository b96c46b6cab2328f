package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/orgkit-dev/orgkit/pkg/storage"
)

// testBackend is an API server that accepts exactly one bearer token and
// serves a refresh endpoint. It counts refresh calls and can be told to
// reject refreshes.
type testBackend struct {
	t *testing.T

	mu          sync.Mutex
	validToken  string
	nextPair    TokenPair
	failRefresh bool

	refreshCalls atomic.Int64
	server       *httptest.Server
}

func newTestBackend(t *testing.T, validToken string) *testBackend {
	b := &testBackend{t: t, validToken: validToken}

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", b.handleRefresh)
	mux.HandleFunc("/", b.handleResource)

	b.server = httptest.NewServer(mux)
	t.Cleanup(b.server.Close)
	return b
}

func (b *testBackend) handleResource(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	valid := "Bearer " + b.validToken
	b.mu.Unlock()

	if r.Header.Get("Authorization") != valid {
		w.WriteHeader(http.StatusUnauthorized)
		io.WriteString(w, `{"message":"token expired"}`)
		return
	}
	io.WriteString(w, `{"ok":true}`)
}

func (b *testBackend) handleRefresh(w http.ResponseWriter, r *http.Request) {
	b.refreshCalls.Add(1)

	// Queued failures should pile up while the refresh is in flight.
	time.Sleep(20 * time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failRefresh {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var body struct {
		Refresh string `json:"refresh"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Refresh == "" {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	b.validToken = b.nextPair.Access
	json.NewEncoder(w).Encode(b.nextPair)
}

func newTestCoordinator(b *testBackend, initial TokenPair, opts ...CoordinatorOption) (*Coordinator, *Credentials, *storage.MemoryStore) {
	store := storage.NewMemoryStore()
	creds := NewCredentials(store)
	creds.Save(initial)

	coord := NewCoordinator(creds, b.server.URL+"/auth/refresh", opts...)
	return coord, creds, store
}

// TestCoordinatorRefreshAndReplay exercises the core repair path: an
// expired access token yields a 401, the coordinator refreshes once, and
// the original request is replayed with the new token.
func TestCoordinatorRefreshAndReplay(t *testing.T) {
	backend := newTestBackend(t, "fresh-token")
	backend.nextPair = TokenPair{Access: "new-access-token", Refresh: "new-refresh-token"}

	coord, creds, _ := newTestCoordinator(backend,
		TokenPair{Access: "expired-token", Refresh: "valid-refresh-token"})
	client := &http.Client{Transport: coord}

	resp, err := client.Get(backend.server.URL + "/test")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if n := backend.refreshCalls.Load(); n != 1 {
		t.Errorf("refresh calls = %d, want 1", n)
	}

	pair, ok := creds.Load()
	if !ok {
		t.Fatal("credentials missing after successful refresh")
	}
	if pair.Access != "new-access-token" || pair.Refresh != "new-refresh-token" {
		t.Errorf("stored pair = %+v", pair)
	}
	if coord.State() != StateIdle {
		t.Errorf("state = %v, want idle", coord.State())
	}
}

// TestCoordinatorSingleFlight verifies that N requests failing
// concurrently produce exactly one refresh call, and that all N settle
// successfully with the refreshed token.
func TestCoordinatorSingleFlight(t *testing.T) {
	backend := newTestBackend(t, "fresh-token")
	backend.nextPair = TokenPair{Access: "fresh-token-2", Refresh: "refresh-2"}

	coord, _, _ := newTestCoordinator(backend,
		TokenPair{Access: "stale", Refresh: "refresh-1"})
	client := &http.Client{Transport: coord}

	const n = 8
	var wg sync.WaitGroup
	statuses := make([]int, n)
	errs := make([]error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Get(backend.server.URL + "/items")
			if err != nil {
				errs[i] = err
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		if errs[i] != nil {
			t.Fatalf("request %d failed: %v", i, errs[i])
		}
		if statuses[i] != http.StatusOK {
			t.Errorf("request %d status = %d, want 200", i, statuses[i])
		}
	}
	if got := backend.refreshCalls.Load(); got != 1 {
		t.Errorf("refresh calls = %d, want 1", got)
	}
}

// TestCoordinatorRefreshFailure verifies the terminal path: both
// credential keys are gone, every caller gets its original failure back,
// the navigator is sent to the login route, and the coordinator stays
// logged out.
func TestCoordinatorRefreshFailure(t *testing.T) {
	backend := newTestBackend(t, "fresh-token")
	backend.failRefresh = true

	var navMu sync.Mutex
	var navigations []string
	nav := NavigatorFunc(func(path string) {
		navMu.Lock()
		navigations = append(navigations, path)
		navMu.Unlock()
	})

	coord, _, store := newTestCoordinator(backend,
		TokenPair{Access: "stale", Refresh: "dead-refresh"},
		WithNavigator(nav))
	client := &http.Client{Transport: coord}

	const n = 4
	var wg sync.WaitGroup
	statuses := make([]int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := client.Get(backend.server.URL + "/items")
			if err != nil {
				t.Errorf("request %d transport error: %v", i, err)
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
		}(i)
	}
	wg.Wait()

	for i, s := range statuses {
		if s != http.StatusUnauthorized {
			t.Errorf("request %d status = %d, want original 401", i, s)
		}
	}
	if _, ok := store.Get(KeyAccessToken); ok {
		t.Error("access token still stored after failed refresh")
	}
	if _, ok := store.Get(KeyRefreshToken); ok {
		t.Error("refresh token still stored after failed refresh")
	}
	if coord.State() != StateLoggedOut {
		t.Errorf("state = %v, want logged-out", coord.State())
	}

	navMu.Lock()
	defer navMu.Unlock()
	if len(navigations) != 1 || navigations[0] != "/login" {
		t.Errorf("navigations = %v, want one redirect to /login", navigations)
	}

	// Terminal: further requests must not attempt another refresh.
	before := backend.refreshCalls.Load()
	resp, err := client.Get(backend.server.URL + "/items")
	if err != nil {
		t.Fatalf("post-logout request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("post-logout status = %d, want 401", resp.StatusCode)
	}
	if backend.refreshCalls.Load() != before {
		t.Error("logged-out coordinator issued another refresh")
	}
}

// TestCoordinatorPassthrough verifies that non-auth failures never trigger
// a refresh.
func TestCoordinatorPassthrough(t *testing.T) {
	var refreshCalls atomic.Int64

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshCalls.Add(1)
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "not found", http.StatusNotFound)
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := storage.NewMemoryStore()
	creds := NewCredentials(store)
	creds.Save(TokenPair{Access: "a", Refresh: "r"})
	coord := NewCoordinator(creds, server.URL+"/auth/refresh")
	client := &http.Client{Transport: coord}

	for _, tt := range []struct {
		path string
		want int
	}{
		{"/missing", http.StatusNotFound},
		{"/broken", http.StatusInternalServerError},
	} {
		resp, err := client.Get(server.URL + tt.path)
		if err != nil {
			t.Fatalf("GET %s: %v", tt.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tt.want {
			t.Errorf("GET %s status = %d, want %d", tt.path, resp.StatusCode, tt.want)
		}
	}

	if n := refreshCalls.Load(); n != 0 {
		t.Errorf("refresh calls = %d, want 0", n)
	}
}

// TestCoordinatorReplaysBody verifies that a request with a body is
// replayed intact after a refresh.
func TestCoordinatorReplaysBody(t *testing.T) {
	backend := newTestBackend(t, "good")
	backend.nextPair = TokenPair{Access: "good", Refresh: "r2"}

	var bodies []string
	var bodyMu sync.Mutex

	mux := http.NewServeMux()
	mux.HandleFunc("/auth/refresh", backend.handleRefresh)
	mux.HandleFunc("/echo", func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodyMu.Lock()
		bodies = append(bodies, string(body))
		bodyMu.Unlock()
		backend.handleResource(w, r)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := storage.NewMemoryStore()
	creds := NewCredentials(store)
	creds.Save(TokenPair{Access: "stale", Refresh: "r1"})
	coord := NewCoordinator(creds, server.URL+"/auth/refresh")
	client := &http.Client{Transport: coord}

	resp, err := client.Post(server.URL+"/echo", "application/json",
		strings.NewReader(`{"name":"Platform"}`))
	if err != nil {
		t.Fatalf("POST failed: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	bodyMu.Lock()
	defer bodyMu.Unlock()
	if len(bodies) != 2 {
		t.Fatalf("server saw %d bodies, want 2 (original + replay)", len(bodies))
	}
	for i, b := range bodies {
		if b != `{"name":"Platform"}` {
			t.Errorf("body %d = %q, want original payload", i, b)
		}
	}
}

// TestCoordinatorLogin verifies Login resets a logged-out coordinator.
func TestCoordinatorLogin(t *testing.T) {
	backend := newTestBackend(t, "good")

	coord, creds, _ := newTestCoordinator(backend, TokenPair{Access: "x", Refresh: "y"})
	coord.Logout()

	if coord.State() != StateLoggedOut {
		t.Fatalf("state after Logout = %v", coord.State())
	}
	if _, ok := creds.Load(); ok {
		t.Fatal("credentials present after Logout")
	}

	coord.Login(TokenPair{Access: "good", Refresh: "r"})
	if coord.State() != StateIdle {
		t.Errorf("state after Login = %v, want idle", coord.State())
	}

	client := &http.Client{Transport: coord}
	resp, err := client.Get(backend.server.URL + "/items")
	if err != nil {
		t.Fatalf("request after Login: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status after Login = %d, want 200", resp.StatusCode)
	}
}
