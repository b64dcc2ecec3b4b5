package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/bytedance/sonic"
)

// File is a [Store] backed by a single JSON file, mirroring the browser's
// localStorage. The whole map is rewritten on every Set/Delete; the expected
// payload is a handful of short settings strings.
type File struct {
	path string

	mu     sync.Mutex
	values map[string]string
	closed bool
}

// Compile-time interface assertion.
var _ Store = (*File)(nil)

// NewFile opens (or creates) a file-backed store at path. Parent directories
// are created as needed. A missing file starts the store empty; a corrupt
// file is an error rather than silent data loss.
func NewFile(path string) (*File, error) {
	if path == "" {
		return nil, fmt.Errorf("store: file path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create settings directory: %w", err)
	}

	f := &File{path: path, values: make(map[string]string)}

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// First run.
	case err != nil:
		return nil, fmt.Errorf("store: read %s: %w", path, err)
	case len(data) > 0:
		if err := sonic.Unmarshal(data, &f.values); err != nil {
			return nil, fmt.Errorf("store: parse %s: %w", path, err)
		}
	}
	return f, nil
}

// Get implements [Store].
func (f *File) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}
	v, ok := f.values[key]
	return v, ok, nil
}

// Set implements [Store].
func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	f.values[key] = value
	return f.flushLocked()
}

// Delete implements [Store].
func (f *File) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}
	if _, ok := f.values[key]; !ok {
		return nil
	}
	delete(f.values, key)
	return f.flushLocked()
}

// Close implements [Store].
func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.values = nil
	return nil
}

// flushLocked writes the map atomically via a temp file rename. Callers must
// hold f.mu.
func (f *File) flushLocked() error {
	data, err := sonic.Marshal(f.values)
	if err != nil {
		return fmt.Errorf("store: marshal settings: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("store: rename %s: %w", tmp, err)
	}
	return nil
}
