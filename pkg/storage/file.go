package storage

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// FileStore is a Store backed by a single JSON file.
// Every mutation writes through to disk, so state survives process
// restarts the way local storage survives page reloads.
//
// Write failures are logged and the in-memory state is kept, matching
// the best-effort contract of the Store interface.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	values map[string]string
	logger *slog.Logger
}

// FileStoreOption configures FileStore behavior.
type FileStoreOption func(*FileStore)

// WithLogger sets the logger used for write failures.
// Default: slog.Default().
func WithLogger(logger *slog.Logger) FileStoreOption {
	return func(f *FileStore) {
		f.logger = logger
	}
}

// NewFileStore opens (or creates) a file-backed store at path.
// The parent directory is created if missing. A missing or empty file
// yields an empty store; a corrupt file is an error.
func NewFileStore(path string, opts ...FileStoreOption) (*FileStore, error) {
	f := &FileStore{
		path:   path,
		values: make(map[string]string),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("storage: create dir for %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("storage: read %s: %w", path, err)
	}
	if len(data) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(data, &f.values); err != nil {
		return nil, fmt.Errorf("storage: parse %s: %w", path, err)
	}
	return f, nil
}

// Get returns the value for key and whether it exists.
func (f *FileStore) Get(key string) (string, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.values[key]
	return v, ok
}

// Set stores value under key and writes through to disk.
func (f *FileStore) Set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[key] = value
	f.flushLocked()
}

// Remove deletes key and writes through to disk.
func (f *FileStore) Remove(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, key)
	f.flushLocked()
}

// Keys returns a snapshot of all stored keys.
func (f *FileStore) Keys() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	keys := make([]string, 0, len(f.values))
	for k := range f.values {
		keys = append(keys, k)
	}
	return keys
}

// Path returns the backing file path.
func (f *FileStore) Path() string {
	return f.path
}

// flushLocked writes the current state to disk. Caller holds f.mu.
// Uses a temp-file rename so a crash mid-write never corrupts the file.
func (f *FileStore) flushLocked() {
	data, err := json.MarshalIndent(f.values, "", "  ")
	if err != nil {
		f.logger.Error("storage: marshal state", "path", f.path, "error", err)
		return
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		f.logger.Error("storage: write state", "path", f.path, "error", err)
		return
	}
	if err := os.Rename(tmp, f.path); err != nil {
		f.logger.Error("storage: rename state", "path", f.path, "error", err)
	}
}
