// Package tagcache persists per-file tag extraction results keyed by
// absolute path and validated by file modification time.
package tagcache

import (
	"sync"

	"repomap/internal/tags"
)

// Entry is one cached extraction result. Mtime is seconds since the epoch
// with fractional precision, taken from the file at extraction time.
type Entry struct {
	Mtime float64    `json:"mtime"`
	Tags  []tags.Tag `json:"tags"`
}

// TagStore stores tag entries keyed by absolute file path.
type TagStore interface {
	Get(absPath string) (Entry, bool)
	Set(absPath string, entry Entry) error
	Delete(absPath string) error
	All() (map[string]Entry, error)
	Close() error
}

// InMemoryTagStore holds entries in a map. It is the automatic fallback
// when the disk store cannot be opened.
type InMemoryTagStore struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewInMemoryTagStore creates an empty in-memory store.
func NewInMemoryTagStore() *InMemoryTagStore {
	return &InMemoryTagStore{
		entries: make(map[string]Entry),
	}
}

// Get returns the entry for an absolute path.
func (s *InMemoryTagStore) Get(absPath string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[absPath]
	return entry, ok
}

// Set stores an entry for an absolute path.
func (s *InMemoryTagStore) Set(absPath string, entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[absPath] = entry
	return nil
}

// Delete removes an entry.
func (s *InMemoryTagStore) Delete(absPath string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, absPath)
	return nil
}

// All returns a copy of every entry in the store.
func (s *InMemoryTagStore) All() (map[string]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Entry, len(s.entries))
	for absPath, entry := range s.entries {
		out[absPath] = entry
	}
	return out, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryTagStore) Close() error {
	return nil
}
