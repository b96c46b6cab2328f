package live

import (
	"context"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

// Invalidator receives invalidation notices. *swr.Cache satisfies it.
type Invalidator interface {
	Invalidate(key string)
}

// Message is one feed frame.
type Message struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

// MessageInvalidate is the only frame type the feed acts on; everything
// else is ignored for forward compatibility.
const MessageInvalidate = "invalidate"

// Feed is a reconnecting subscription to the invalidation endpoint.
type Feed struct {
	url        string
	inv        Invalidator
	dialer     *websocket.Dialer
	logger     *slog.Logger
	minBackoff time.Duration
	maxBackoff time.Duration
}

// Option configures a Feed.
type Option func(*Feed)

// WithDialer sets the WebSocket dialer. Default: websocket.DefaultDialer.
func WithDialer(dialer *websocket.Dialer) Option {
	return func(f *Feed) {
		f.dialer = dialer
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(f *Feed) {
		f.logger = logger
	}
}

// WithBackoff sets the reconnect backoff bounds.
// Default: 250ms to 30s.
func WithBackoff(min, max time.Duration) Option {
	return func(f *Feed) {
		f.minBackoff = min
		f.maxBackoff = max
	}
}

// New creates a feed for the given WebSocket URL, delivering
// invalidations to inv.
func New(url string, inv Invalidator, opts ...Option) *Feed {
	f := &Feed{
		url:        url,
		inv:        inv,
		dialer:     websocket.DefaultDialer,
		logger:     slog.Default(),
		minBackoff: 250 * time.Millisecond,
		maxBackoff: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Run connects and reads until ctx is done, reconnecting with capped
// exponential backoff after any connection failure. It returns ctx.Err().
func (f *Feed) Run(ctx context.Context) error {
	backoff := f.minBackoff

	for {
		connected, err := f.readOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			// A session was established; start the backoff over.
			backoff = f.minBackoff
		}
		f.logger.Warn("live: connection lost, reconnecting",
			"url", f.url, "backoff", backoff, "error", err)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}

		backoff *= 2
		if backoff > f.maxBackoff {
			backoff = f.maxBackoff
		}
	}
}

// readOnce dials and consumes frames until the connection drops or ctx
// is done. connected reports whether the dial succeeded.
func (f *Feed) readOnce(ctx context.Context) (connected bool, _ error) {
	conn, _, err := f.dialer.DialContext(ctx, f.url, nil)
	if err != nil {
		return false, err
	}
	defer conn.Close()

	// Unblock ReadJSON when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	f.logger.Debug("live: connected", "url", f.url)

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure) {
				f.logger.Error("live: read error", "error", err)
			}
			return true, err
		}

		if msg.Type != MessageInvalidate || msg.Key == "" {
			continue
		}
		f.logger.Debug("live: invalidation received", "key", msg.Key)
		f.inv.Invalidate(msg.Key)
	}
}
