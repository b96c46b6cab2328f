package swr

import (
	"testing"
	"time"
)

func TestParseDirectives(t *testing.T) {
	tests := []struct {
		name   string
		header string
		want   Directives
	}{
		{
			name:   "max-age and swr",
			header: "max-age=60, stale-while-revalidate=300",
			want: Directives{
				MaxAge:               60 * time.Second,
				StaleWhileRevalidate: 300 * time.Second,
			},
		},
		{
			name:   "immutable",
			header: "max-age=86400, immutable",
			want: Directives{
				MaxAge:    86400 * time.Second,
				Immutable: true,
			},
		},
		{
			name:   "must-revalidate",
			header: "max-age=30, must-revalidate",
			want: Directives{
				MaxAge:         30 * time.Second,
				MustRevalidate: true,
			},
		},
		{
			name:   "no-store",
			header: "no-store",
			want:   Directives{NoStore: true},
		},
		{
			name:   "whitespace and case",
			header: "  Max-Age=10 ,STALE-WHILE-REVALIDATE=20 ",
			want: Directives{
				MaxAge:               10 * time.Second,
				StaleWhileRevalidate: 20 * time.Second,
			},
		},
		{
			name:   "unknown directives ignored",
			header: "private, max-age=5, proxy-revalidate",
			want:   Directives{MaxAge: 5 * time.Second},
		},
		{
			name:   "malformed seconds ignored",
			header: "max-age=abc, stale-while-revalidate=7",
			want:   Directives{StaleWhileRevalidate: 7 * time.Second},
		},
		{
			name:   "empty",
			header: "",
			want:   Directives{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDirectives(tt.header); got != tt.want {
				t.Errorf("ParseDirectives(%q) = %+v, want %+v", tt.header, got, tt.want)
			}
		})
	}
}

func TestDirectivesString(t *testing.T) {
	d := Directives{
		MaxAge:               60 * time.Second,
		StaleWhileRevalidate: 300 * time.Second,
		MustRevalidate:       true,
	}
	want := "max-age=60, stale-while-revalidate=300, must-revalidate"
	if got := d.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}

	// A formatted value must parse back to the same policy.
	if back := ParseDirectives(d.String()); back != d {
		t.Errorf("round trip = %+v, want %+v", back, d)
	}
}
