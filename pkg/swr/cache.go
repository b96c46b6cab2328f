package swr

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/orgkit-dev/orgkit/pkg/api"
	"github.com/orgkit-dev/orgkit/pkg/storage"
)

// Fetcher performs the network fetch for a resource key and reports the
// cache directives the response was served with.
type Fetcher interface {
	Fetch(ctx context.Context, key string) (json.RawMessage, Directives, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, key string) (json.RawMessage, Directives, error)

// Fetch calls f.
func (f FetcherFunc) Fetch(ctx context.Context, key string) (json.RawMessage, Directives, error) {
	return f(ctx, key)
}

// NewClientFetcher adapts an api.Client: the resource key is the request
// path, and directives are parsed from the Cache-Control header.
func NewClientFetcher(client *api.Client) Fetcher {
	return FetcherFunc(func(ctx context.Context, key string) (json.RawMessage, Directives, error) {
		value, header, err := client.GetRaw(ctx, key)
		if err != nil {
			return nil, Directives{}, err
		}
		return value, ParseDirectives(header.Get("Cache-Control")), nil
	})
}

// Cache is a stale-while-revalidate cache. It owns every entry under
// KeyPrefix in its storage backend.
type Cache struct {
	store    storage.Store
	fetcher  Fetcher
	defaults Directives
	recorder Recorder
	logger   *slog.Logger
	now      func() time.Time

	sf           singleflight.Group
	revalidating sync.Map
	background   sync.WaitGroup
}

// Option configures a Cache.
type Option func(*Cache)

// WithRecorder sets the diagnostic event recorder.
// Default: debug-level slog.
func WithRecorder(rec Recorder) Option {
	return func(c *Cache) {
		c.recorder = rec
	}
}

// WithDefaultDirectives sets the policy applied when a response carries
// no cache directives. Default: max-age=60, stale-while-revalidate=300.
func WithDefaultDirectives(d Directives) Option {
	return func(c *Cache) {
		c.defaults = d
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithClock overrides the time source. Tests use it to age entries.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache over the given store and fetcher.
func New(store storage.Store, fetcher Fetcher, opts ...Option) *Cache {
	c := &Cache{
		store:   store,
		fetcher: fetcher,
		defaults: Directives{
			MaxAge:               60 * time.Second,
			StaleWhileRevalidate: 300 * time.Second,
		},
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.recorder == nil {
		c.recorder = slogRecorder{logger: c.logger}
	}
	return c
}

// FetchOption configures one Fetch call.
type FetchOption func(*fetchOptions)

type fetchOptions struct {
	skipCache bool
}

// SkipCache bypasses the cached entry and forces a network fetch. The
// fresh response still overwrites the entry.
func SkipCache() FetchOption {
	return func(o *fetchOptions) {
		o.skipCache = true
	}
}

// Fetch returns the value for key according to the entry's age:
//
//   - no entry, or SkipCache: synchronous network fetch, entry written.
//   - age ≤ max-age (or immutable): cached value, no network call.
//   - age within the stale-while-revalidate window: cached value served
//     immediately, background refresh started.
//   - older than that: synchronous network fetch, entry replaced. A
//     fetch failure here propagates; there is no usable stale copy.
func (c *Cache) Fetch(ctx context.Context, key string, opts ...FetchOption) (json.RawMessage, error) {
	var o fetchOptions
	for _, opt := range opts {
		opt(&o)
	}

	entry, ok := c.load(key)
	if o.skipCache || !ok {
		return c.fetchAndStore(ctx, key)
	}

	age := entry.Age(c.now())
	d := entry.Directives

	if d.Immutable || age <= d.MaxAge {
		c.recorder.Record(EventHit, key)
		return entry.Value, nil
	}

	if !d.MustRevalidate && age <= d.MaxAge+d.StaleWhileRevalidate {
		c.recorder.Record(EventStaleRevalidate, key)
		c.revalidateInBackground(key)
		return entry.Value, nil
	}

	c.recorder.Record(EventInvalidated, key)
	return c.fetchAndStore(ctx, key)
}

// Invalidate removes one entry. The next Fetch for the key goes to the
// network.
func (c *Cache) Invalidate(key string) {
	c.Remove(key)
	c.recorder.Record(EventInvalidatedManual, key)
}

// Remove is the primitive single-key deletion. Pattern-based bulk
// invalidation is built on it by enumerating keys; the store itself has
// no wildcard matching.
func (c *Cache) Remove(key string) {
	c.store.Remove(KeyPrefix + key)
}

// InvalidateMatching removes every entry whose key satisfies match and
// returns how many were removed.
func (c *Cache) InvalidateMatching(match func(key string) bool) int {
	removed := 0
	for _, stored := range c.store.Keys() {
		key, ok := strings.CutPrefix(stored, KeyPrefix)
		if !ok || !match(key) {
			continue
		}
		c.store.Remove(stored)
		c.recorder.Record(EventInvalidatedManual, key)
		removed++
	}
	return removed
}

// Wait blocks until in-flight background revalidations settle. Intended
// for shutdown and tests; normal callers never wait on revalidation.
func (c *Cache) Wait() {
	c.background.Wait()
}

// fetchAndStore performs the synchronous fetch path. Concurrent callers
// for the same key coalesce onto one network call.
func (c *Cache) fetchAndStore(ctx context.Context, key string) (json.RawMessage, error) {
	v, err, _ := c.sf.Do(key, func() (any, error) {
		value, d, err := c.fetcher.Fetch(ctx, key)
		if err != nil {
			return nil, err
		}
		c.persist(key, value, d)
		return value, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(json.RawMessage), nil
}

// revalidateInBackground refreshes key without blocking the caller. At
// most one revalidation per key is in flight; failures are swallowed
// except for the diagnostic event, since the caller already holds a
// usable stale value.
func (c *Cache) revalidateInBackground(key string) {
	if _, inFlight := c.revalidating.LoadOrStore(key, struct{}{}); inFlight {
		return
	}

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		defer c.revalidating.Delete(key)

		// Detached from the triggering request: the refreshed entry
		// outlives the caller that happened to notice staleness.
		value, d, err := c.fetcher.Fetch(context.Background(), key)
		if err != nil {
			c.recorder.Record(EventRevalidateFailed, key)
			c.logger.Warn("swr: background revalidation failed", "key", key, "error", err)
			return
		}
		c.persist(key, value, d)
	}()
}

// persist writes the entry unless the response forbids storing it.
func (c *Cache) persist(key string, value json.RawMessage, d Directives) {
	if d.NoStore {
		// A previously cached copy must not outlive a no-store response.
		c.store.Remove(KeyPrefix + key)
		return
	}
	if d.IsZero() {
		d = c.defaults
	}

	entry := Entry{
		Key:        key,
		Value:      value,
		Timestamp:  c.now(),
		Directives: d,
	}
	data, err := json.Marshal(entry)
	if err != nil {
		c.logger.Error("swr: marshal entry", "key", key, "error", err)
		return
	}
	c.store.Set(KeyPrefix+key, string(data))
	c.recorder.Record(EventUpdated, key)
}

// load reads and decodes the entry for key. A corrupt entry is dropped
// and treated as a miss.
func (c *Cache) load(key string) (Entry, bool) {
	raw, ok := c.store.Get(KeyPrefix + key)
	if !ok {
		return Entry{}, false
	}
	var entry Entry
	if err := json.Unmarshal([]byte(raw), &entry); err != nil {
		c.logger.Warn("swr: dropping corrupt entry", "key", key, "error", err)
		c.store.Remove(KeyPrefix + key)
		return Entry{}, false
	}
	return entry, true
}

// WriteDirectives sets the Cache-Control header for responses this layer
// itself serves.
func WriteDirectives(h http.Header, d Directives) {
	if s := d.String(); s != "" {
		h.Set("Cache-Control", s)
	}
}
