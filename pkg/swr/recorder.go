package swr

import "log/slog"

// Event is a diagnostic cache event.
type Event string

// Cache events, one per policy outcome.
const (
	// EventHit: entry was fresh and served without a network call.
	EventHit Event = "cache-hit"

	// EventUpdated: a network fetch completed and the entry was written.
	EventUpdated Event = "cache-updated"

	// EventStaleRevalidate: a stale entry was served and a background
	// refresh was started.
	EventStaleRevalidate Event = "cache-stale-revalidate"

	// EventInvalidated: the entry was fully expired and bypassed.
	EventInvalidated Event = "cache-invalidated"

	// EventInvalidatedManual: the entry was removed by an explicit
	// invalidation.
	EventInvalidatedManual Event = "cache-invalidated-manual"

	// EventRevalidateFailed: a background refresh failed; the stale
	// value already served remains in place.
	EventRevalidateFailed Event = "cache-revalidate-failed"
)

// Recorder receives diagnostic cache events. Implementations must be
// safe for concurrent use; background revalidations record from their
// own goroutines.
type Recorder interface {
	Record(event Event, key string)
}

// RecorderFunc adapts a function to the Recorder interface.
type RecorderFunc func(event Event, key string)

// Record calls f(event, key).
func (f RecorderFunc) Record(event Event, key string) { f(event, key) }

// slogRecorder is the default recorder; it logs each event at debug
// level.
type slogRecorder struct {
	logger *slog.Logger
}

func (r slogRecorder) Record(event Event, key string) {
	r.logger.Debug("swr: cache event", "event", string(event), "key", key)
}
