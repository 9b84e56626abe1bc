// Package store keeps small integer values (the best score) across runs.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// ErrNotFound is returned by Load when the key was never saved
var ErrNotFound = errors.New("key not found")

// Store is a narrow key-value store, read once at startup and written on change
type Store interface {
	Load(key string) (int, error)
	Save(key string, value int) error
}

// MemoryStore keeps values in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]int)}
}

func (m *MemoryStore) Load(key string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

func (m *MemoryStore) Save(key string, value int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// FileStore persists all keys as one JSON object, the desktop stand-in for
// the browser's localStorage
type FileStore struct {
	mu       sync.Mutex
	filename string
	values   map[string]int
}

// NewFileStore opens (or lazily creates) the store at filename
func NewFileStore(filename string) (*FileStore, error) {
	fs := &FileStore{
		filename: filename,
		values:   make(map[string]int),
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return fs, nil
		}
		return nil, fmt.Errorf("failed to read store file: %w", err)
	}
	if len(data) == 0 {
		return fs, nil
	}
	if err := json.Unmarshal(data, &fs.values); err != nil {
		return nil, fmt.Errorf("failed to parse store file %s: %w", filename, err)
	}
	return fs, nil
}

func (fs *FileStore) Load(key string) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	v, ok := fs.values[key]
	if !ok {
		return 0, ErrNotFound
	}
	return v, nil
}

func (fs *FileStore) Save(key string, value int) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	prev, had := fs.values[key]
	fs.values[key] = value
	if err := fs.flush(); err != nil {
		if had {
			fs.values[key] = prev
		} else {
			delete(fs.values, key)
		}
		return err
	}
	return nil
}

// flush writes through a temp file so a crash never leaves a torn store
func (fs *FileStore) flush() error {
	if err := os.MkdirAll(filepath.Dir(fs.filename), 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	data, err := json.MarshalIndent(fs.values, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal store: %w", err)
	}

	tmp := fs.filename + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write store file: %w", err)
	}
	if err := os.Rename(tmp, fs.filename); err != nil {
		return fmt.Errorf("failed to replace store file: %w", err)
	}
	return nil
}
