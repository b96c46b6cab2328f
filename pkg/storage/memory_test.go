package storage

import (
	"fmt"
	"sort"
	"sync"
	"testing"
)

// TestMemoryStore tests the in-memory store implementation.
func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	t.Run("Set", func(t *testing.T) {
		store.Set("auth_token", "abc123")
		v, ok := store.Get("auth_token")
		if !ok {
			t.Fatal("Get returned missing for stored key")
		}
		if v != "abc123" {
			t.Errorf("Get returned wrong value: got %q, want %q", v, "abc123")
		}
	})

	t.Run("Overwrite", func(t *testing.T) {
		store.Set("auth_token", "def456")
		v, _ := store.Get("auth_token")
		if v != "def456" {
			t.Errorf("overwrite not applied: got %q", v)
		}
	})

	t.Run("GetMissing", func(t *testing.T) {
		_, ok := store.Get("no-such-key")
		if ok {
			t.Error("Get returned ok for missing key")
		}
	})

	t.Run("Remove", func(t *testing.T) {
		store.Set("refresh_token", "r1")
		store.Remove("refresh_token")
		if _, ok := store.Get("refresh_token"); ok {
			t.Error("key still present after Remove")
		}
		// Removing a missing key is a no-op.
		store.Remove("refresh_token")
	})

	t.Run("Keys", func(t *testing.T) {
		store := NewMemoryStore()
		store.Set("a", "1")
		store.Set("b", "2")
		store.Set("c", "3")

		keys := store.Keys()
		sort.Strings(keys)
		want := []string{"a", "b", "c"}
		if len(keys) != len(want) {
			t.Fatalf("Keys returned %d keys, want %d", len(keys), len(want))
		}
		for i := range want {
			if keys[i] != want[i] {
				t.Errorf("Keys[%d] = %q, want %q", i, keys[i], want[i])
			}
		}
	})
}

// TestMemoryStoreConcurrency verifies the store is safe under concurrent
// readers and writers.
func TestMemoryStoreConcurrency(t *testing.T) {
	store := NewMemoryStore()
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			key := fmt.Sprintf("key-%d", n%5)
			store.Set(key, fmt.Sprintf("value-%d", n))
			store.Get(key)
			store.Keys()
		}(i)
	}
	wg.Wait()

	if store.Len() != 5 {
		t.Errorf("expected 5 distinct keys, got %d", store.Len())
	}
}
