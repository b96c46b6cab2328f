package swr

import (
	"strconv"
	"strings"
	"time"
)

// Directives is the parsed cache policy for one entry.
type Directives struct {
	// MaxAge is how long the entry is fresh.
	MaxAge time.Duration

	// StaleWhileRevalidate is how long past MaxAge the entry may still
	// be served while a background refresh runs.
	StaleWhileRevalidate time.Duration

	// Immutable marks the entry as never needing revalidation.
	Immutable bool

	// MustRevalidate forbids serving the entry stale; once past MaxAge
	// it must be refetched synchronously.
	MustRevalidate bool

	// NoStore forbids persisting the response at all.
	NoStore bool
}

// IsZero reports whether no directive was set.
func (d Directives) IsZero() bool {
	return d == Directives{}
}

// ParseDirectives parses a cache-control style header value. Unknown
// directives are ignored; malformed seconds values are treated as absent.
func ParseDirectives(header string) Directives {
	var d Directives
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, value, hasValue := strings.Cut(part, "=")
		switch strings.ToLower(name) {
		case "max-age":
			if secs, err := strconv.Atoi(value); err == nil && hasValue {
				d.MaxAge = time.Duration(secs) * time.Second
			}
		case "stale-while-revalidate":
			if secs, err := strconv.Atoi(value); err == nil && hasValue {
				d.StaleWhileRevalidate = time.Duration(secs) * time.Second
			}
		case "immutable":
			d.Immutable = true
		case "must-revalidate":
			d.MustRevalidate = true
		case "no-store":
			d.NoStore = true
		}
	}
	return d
}

// String formats the directives back into cache-control syntax, for the
// rare case where this layer serves responses of its own.
func (d Directives) String() string {
	var parts []string
	if d.NoStore {
		parts = append(parts, "no-store")
	}
	if d.MaxAge > 0 {
		parts = append(parts, "max-age="+strconv.Itoa(int(d.MaxAge/time.Second)))
	}
	if d.StaleWhileRevalidate > 0 {
		parts = append(parts, "stale-while-revalidate="+strconv.Itoa(int(d.StaleWhileRevalidate/time.Second)))
	}
	if d.Immutable {
		parts = append(parts, "immutable")
	}
	if d.MustRevalidate {
		parts = append(parts, "must-revalidate")
	}
	return strings.Join(parts, ", ")
}
