// Package kvstore provides a durable JSON-backed key-value store used for
// the FX rate and quote caches. Writes replace the whole map atomically
// (write to a temp file, then rename) so a concurrent reader never observes
// a partially written file. Values for a given key are treated as immutable
// facts once published, so last-writer-wins is acceptable.
package kvstore

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"sync"
)

// Store is a persistent string-keyed map. The zero value is not usable;
// create instances with Open.
type Store[V any] struct {
	mu   sync.Mutex
	path string
	data map[string]V
}

// Open loads the store at path. A missing file yields an empty store; an
// unreadable or corrupt file is logged and also yields an empty store, since
// every cached value can be re-fetched from its provider.
func Open[V any](path string) (*Store[V], error) {
	if path == "" {
		return nil, fmt.Errorf("kvstore: empty path")
	}
	s := &Store[V]{
		path: path,
		data: make(map[string]V),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("kvstore: read %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		log.Printf("kvstore: discarding corrupt cache %s: %v", path, err)
		s.data = make(map[string]V)
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *Store[V]) Get(key string) (V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok
}

// Put upserts key and persists the whole map immediately.
func (s *Store[V]) Put(key string, value V) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = value
	return s.flushLocked()
}

// PutAll upserts every entry of values and persists once.
func (s *Store[V]) PutAll(values map[string]V) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range values {
		s.data[k] = v
	}
	return s.flushLocked()
}

// Len returns the number of stored entries.
func (s *Store[V]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Keys returns all keys in sorted order.
func (s *Store[V]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// flushLocked writes the map to a temp file and atomically renames it over
// the store path. Callers must hold s.mu.
func (s *Store[V]) flushLocked() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("kvstore: mkdir: %w", err)
	}
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("kvstore: marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("kvstore: write temp: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("kvstore: rename: %w", err)
	}
	return nil
}
