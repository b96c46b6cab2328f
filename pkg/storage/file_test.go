package storage

import (
	"os"
	"path/filepath"
	"testing"
)

// TestFileStore tests the file-backed store implementation.
func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}

	t.Run("SetAndGet", func(t *testing.T) {
		store.Set("auth_token", "tok-1")
		v, ok := store.Get("auth_token")
		if !ok || v != "tok-1" {
			t.Errorf("Get = %q, %v; want %q, true", v, ok, "tok-1")
		}
	})

	t.Run("SurvivesReopen", func(t *testing.T) {
		store.Set("refresh_token", "ref-1")

		reopened, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		v, ok := reopened.Get("refresh_token")
		if !ok || v != "ref-1" {
			t.Errorf("reopened Get = %q, %v; want %q, true", v, ok, "ref-1")
		}
	})

	t.Run("RemovePersists", func(t *testing.T) {
		store.Set("gone", "x")
		store.Remove("gone")

		reopened, err := NewFileStore(path)
		if err != nil {
			t.Fatalf("reopen failed: %v", err)
		}
		if _, ok := reopened.Get("gone"); ok {
			t.Error("removed key present after reopen")
		}
	})
}

// TestFileStoreMissingFile verifies a missing file yields an empty store.
func TestFileStoreMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "state.json")

	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("NewFileStore failed: %v", err)
	}
	if len(store.Keys()) != 0 {
		t.Errorf("new store not empty: %v", store.Keys())
	}
}

// TestFileStoreCorruptFile verifies a corrupt file is reported as an error
// rather than silently discarded.
func TestFileStoreCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFileStore(path); err == nil {
		t.Error("expected error for corrupt file, got nil")
	}
}
