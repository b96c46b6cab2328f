package middleware

import (
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"

	"go.opentelemetry.io/otel/attribute"
)

func stubTransport(status int, calls *atomic.Int64) http.RoundTripper {
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if calls != nil {
			calls.Add(1)
		}
		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader("{}")),
			Request:    req,
		}, nil
	})
}

// TestOTelMiddlewarePassthrough verifies requests and responses flow
// through the tracing wrapper unchanged (the global tracer is a no-op in
// tests; what matters is the wrapper's plumbing).
func TestOTelMiddlewarePassthrough(t *testing.T) {
	var calls atomic.Int64
	transport := OTel(
		WithTracerName("orgkit-test"),
		WithAttributeExtractor(func(req *http.Request) []attribute.KeyValue {
			return []attribute.KeyValue{attribute.String("test.attr", "ok")}
		}),
	)(stubTransport(http.StatusOK, &calls))

	client := &http.Client{Transport: transport}
	resp, err := client.Get("http://example.invalid/organizations")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if calls.Load() != 1 {
		t.Errorf("inner transport calls = %d, want 1", calls.Load())
	}
}

// TestOTelMiddlewareFilter verifies filtered requests skip tracing but
// still reach the inner transport.
func TestOTelMiddlewareFilter(t *testing.T) {
	var calls atomic.Int64
	transport := OTel(
		WithRequestFilter(func(req *http.Request) bool {
			return !strings.HasPrefix(req.URL.Path, "/health")
		}),
	)(stubTransport(http.StatusOK, &calls))

	client := &http.Client{Transport: transport}
	for _, path := range []string{"/health", "/organizations"} {
		resp, err := client.Get("http://example.invalid" + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
	}

	if calls.Load() != 2 {
		t.Errorf("inner transport calls = %d, want 2", calls.Load())
	}
}
