package swr

import (
	"encoding/json"
	"time"
)

// KeyPrefix namespaces cache entries inside the shared storage backend.
const KeyPrefix = "app_cache_"

// Entry is one persisted cache record.
type Entry struct {
	// Key is the resource key (typically the request path).
	Key string

	// Value is the raw cached response body.
	Value json.RawMessage

	// Timestamp is the wall-clock time the value was fetched.
	Timestamp time.Time

	// Directives is the policy the response was stored under.
	Directives Directives
}

// Age returns how old the entry is at now.
func (e Entry) Age(now time.Time) time.Duration {
	return now.Sub(e.Timestamp)
}

// entryJSON is the persisted wire form. Durations are stored as whole
// seconds and the timestamp as Unix milliseconds, so entries written by
// other clients of the same storage format stay readable.
type entryJSON struct {
	Key        string          `json:"key"`
	Value      json.RawMessage `json:"value"`
	Timestamp  int64           `json:"timestamp"`
	Directives directivesJSON  `json:"directives"`
}

type directivesJSON struct {
	MaxAgeSeconds               int  `json:"maxAgeSeconds"`
	StaleWhileRevalidateSeconds int  `json:"staleWhileRevalidateSeconds"`
	Immutable                   bool `json:"immutable"`
	MustRevalidate              bool `json:"mustRevalidate"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	return json.Marshal(entryJSON{
		Key:       e.Key,
		Value:     e.Value,
		Timestamp: e.Timestamp.UnixMilli(),
		Directives: directivesJSON{
			MaxAgeSeconds:               int(e.Directives.MaxAge / time.Second),
			StaleWhileRevalidateSeconds: int(e.Directives.StaleWhileRevalidate / time.Second),
			Immutable:                   e.Directives.Immutable,
			MustRevalidate:              e.Directives.MustRevalidate,
		},
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var w entryJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	e.Key = w.Key
	e.Value = w.Value
	e.Timestamp = time.UnixMilli(w.Timestamp)
	e.Directives = Directives{
		MaxAge:               time.Duration(w.Directives.MaxAgeSeconds) * time.Second,
		StaleWhileRevalidate: time.Duration(w.Directives.StaleWhileRevalidateSeconds) * time.Second,
		Immutable:            w.Directives.Immutable,
		MustRevalidate:       w.Directives.MustRevalidate,
	}
	return nil
}
