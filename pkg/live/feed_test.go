package live

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// recordingInvalidator collects invalidated keys.
type recordingInvalidator struct {
	mu   sync.Mutex
	keys []string
	seen chan string
}

func newRecordingInvalidator() *recordingInvalidator {
	return &recordingInvalidator{seen: make(chan string, 16)}
}

func (r *recordingInvalidator) Invalidate(key string) {
	r.mu.Lock()
	r.keys = append(r.keys, key)
	r.mu.Unlock()
	r.seen <- key
}

func (r *recordingInvalidator) all() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.keys...)
}

// feedServer upgrades connections and sends the given frames.
func feedServer(t *testing.T, frames []Message) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		for _, frame := range frames {
			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func wsURL(server *httptest.Server) string {
	return "ws" + strings.TrimPrefix(server.URL, "http")
}

func waitForKey(t *testing.T, inv *recordingInvalidator, want string) {
	t.Helper()
	select {
	case key := <-inv.seen:
		if key != want {
			t.Fatalf("invalidated %q, want %q", key, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for invalidation of %q", want)
	}
}

// TestFeedDeliversInvalidations: invalidate frames reach the
// invalidator; other frame types are ignored.
func TestFeedDeliversInvalidations(t *testing.T) {
	server := feedServer(t, []Message{
		{Type: "hello"},
		{Type: MessageInvalidate, Key: "/api/organizations"},
		{Type: MessageInvalidate, Key: "/api/teams/1"},
		{Type: MessageInvalidate}, // missing key, ignored
	})

	inv := newRecordingInvalidator()
	feed := New(wsURL(server), inv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	runDone := make(chan error, 1)
	go func() { runDone <- feed.Run(ctx) }()

	waitForKey(t, inv, "/api/organizations")
	waitForKey(t, inv, "/api/teams/1")

	cancel()
	select {
	case err := <-runDone:
		if err != context.Canceled {
			t.Errorf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}

	if keys := inv.all(); len(keys) != 2 {
		t.Errorf("invalidated keys = %v, want exactly 2", keys)
	}
}

// TestFeedReconnects: after the server drops the connection, the feed
// dials again and keeps delivering.
func TestFeedReconnects(t *testing.T) {
	upgrader := websocket.Upgrader{}
	var connCount int
	var mu sync.Mutex

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		connCount++
		n := connCount
		mu.Unlock()

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}

		if n == 1 {
			// First connection dies immediately.
			conn.Close()
			return
		}
		defer conn.Close()
		conn.WriteJSON(Message{Type: MessageInvalidate, Key: "/api/after-reconnect"})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	inv := newRecordingInvalidator()
	feed := New(wsURL(server), inv,
		WithBackoff(10*time.Millisecond, 50*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go feed.Run(ctx)

	waitForKey(t, inv, "/api/after-reconnect")

	mu.Lock()
	defer mu.Unlock()
	if connCount < 2 {
		t.Errorf("connections = %d, want a reconnect", connCount)
	}
}
